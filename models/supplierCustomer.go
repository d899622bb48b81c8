package models

import (
	"time"
)

// SupplierCustomer is an optional party dimension row harvested from
// 客商/供应商/客户 auxiliary items.
type SupplierCustomer struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:200;not null;index" json:"name"`
	Type      string    `gorm:"size:20" json:"type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (s *SupplierCustomer) GetId() int {
	return s.ID
}

// PartyTypeLabel renders the closed dimension bucket as the Chinese label
// stored in the party table.
func PartyTypeLabel(t DimensionType) string {
	switch t {
	case DimensionSupplierCustomer:
		return "供应商/客户"
	case DimensionSupplier:
		return "供应商"
	case DimensionCustomer:
		return "客户"
	default:
		return "未知"
	}
}
