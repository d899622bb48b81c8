package models

import (
	"time"
)

// AccountSubject is one entry of the chart of accounts. Reference data:
// loaded on first sight during a run, never mutated afterwards.
type AccountSubject struct {
	ID            int         `gorm:"primary_key" json:"id"`
	Code          string      `gorm:"size:20;not null;uniqueIndex" json:"code"`
	Name          string      `gorm:"size:200;not null" json:"name"`
	FullName      string      `gorm:"size:500" json:"full_name"`
	Level         int         `json:"level"`
	SubjectType   SubjectType `gorm:"size:20" json:"subject_type"`
	NormalBalance BalanceSide `gorm:"size:10" json:"normal_balance"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

func (s *AccountSubject) GetId() int {
	return s.ID
}

// ClassifySubjectCode derives the subject type and normal balance side from
// the leading digit of the subject code (1 asset, 2 liability, 3 equity,
// 4 cost, 5 income, 6 expense).
func ClassifySubjectCode(code string) (SubjectType, BalanceSide) {
	if len(code) == 0 {
		return SubjectTypeUnknown, BalanceSideUnknown
	}
	switch code[0] {
	case '1':
		return SubjectTypeAsset, BalanceSideDebit
	case '2':
		return SubjectTypeLiability, BalanceSideCredit
	case '3':
		return SubjectTypeEquity, BalanceSideCredit
	case '4':
		return SubjectTypeCost, BalanceSideDebit
	case '5':
		return SubjectTypeIncome, BalanceSideCredit
	case '6':
		return SubjectTypeExpense, BalanceSideDebit
	default:
		return SubjectTypeOther, BalanceSideUnknown
	}
}
