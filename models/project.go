package models

import (
	"time"
)

// Project is an optional dimension row harvested from 项目 auxiliary items.
type Project struct {
	ID          int       `gorm:"primary_key" json:"id"`
	ProjectCode string    `gorm:"size:50;uniqueIndex" json:"project_code"`
	ProjectName string    `gorm:"size:200;not null;index" json:"project_name"`
	CompanyId   int       `gorm:"index" json:"company_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Project) GetId() int {
	return p.ID
}
