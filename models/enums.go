package models

import (
	"database/sql/driver"
	"errors"
)

// SubjectType is the chart-of-accounts category of an AccountSubject.
type SubjectType string

const (
	SubjectTypeAsset     SubjectType = "资产"
	SubjectTypeLiability SubjectType = "负债"
	SubjectTypeEquity    SubjectType = "权益"
	SubjectTypeCost      SubjectType = "成本"
	SubjectTypeIncome    SubjectType = "损益-收入"
	SubjectTypeExpense   SubjectType = "损益-费用"
	SubjectTypeOther     SubjectType = "其他"
	SubjectTypeUnknown   SubjectType = "未知"
)

// BalanceSide is the normal balance direction of a subject.
type BalanceSide string

const (
	BalanceSideDebit   BalanceSide = "借方"
	BalanceSideCredit  BalanceSide = "贷方"
	BalanceSideUnknown BalanceSide = "未知"
)

// DimensionType is the closed classification an auxiliary item falls into.
// The raw type token from the source is kept verbatim in item_name; this is
// the bucket the reporting side groups by.
type DimensionType string

const (
	DimensionDepartment       DimensionType = "department"
	DimensionEmployee         DimensionType = "employee"
	DimensionSupplierCustomer DimensionType = "supplier_customer"
	DimensionSupplier         DimensionType = "supplier"
	DimensionCustomer         DimensionType = "customer"
	DimensionProject          DimensionType = "project"
	DimensionBankAccount      DimensionType = "bank_account"
	DimensionOther            DimensionType = "other"
)

func (t DimensionType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *DimensionType) Scan(v interface{}) error {
	switch s := v.(type) {
	case string:
		*t = DimensionType(s)
	case []byte:
		*t = DimensionType(s)
	default:
		return errors.New("dimension type must be string")
	}
	return nil
}
