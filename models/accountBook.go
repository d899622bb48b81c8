package models

import (
	"time"
)

// AccountBook is one set of books of a company, named "公司名称-账簿类型".
type AccountBook struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId int       `gorm:"not null;uniqueIndex:uniq_book_per_company" json:"company_id"`
	Name      string    `gorm:"size:200;not null;uniqueIndex:uniq_book_per_company" json:"name"`
	Company   *Company  `gorm:"foreignKey:CompanyId" json:"company,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (b *AccountBook) GetId() int {
	return b.ID
}
