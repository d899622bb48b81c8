package models

import (
	"time"
)

// Company is a dimension row created lazily the first time a ledger label
// mentions it. Immutable afterwards except for the activation flag.
type Company struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Code      string    `gorm:"size:50;uniqueIndex" json:"code"`
	Name      string    `gorm:"size:100;not null;index" json:"name"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Company) GetId() int {
	return c.ID
}
