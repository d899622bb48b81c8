package models_test

import (
	"testing"

	"github.com/helitech/journal_backend/models"
)

func TestClassifySubjectCode(t *testing.T) {
	cases := []struct {
		code    string
		typ     models.SubjectType
		balance models.BalanceSide
	}{
		{"1002", models.SubjectTypeAsset, models.BalanceSideDebit},
		{"2202", models.SubjectTypeLiability, models.BalanceSideCredit},
		{"3001", models.SubjectTypeEquity, models.BalanceSideCredit},
		{"4401", models.SubjectTypeCost, models.BalanceSideDebit},
		{"5001", models.SubjectTypeIncome, models.BalanceSideCredit},
		{"6602", models.SubjectTypeExpense, models.BalanceSideDebit},
		{"7001", models.SubjectTypeOther, models.BalanceSideUnknown},
		{"9999", models.SubjectTypeOther, models.BalanceSideUnknown},
		{"", models.SubjectTypeUnknown, models.BalanceSideUnknown},
	}
	for _, tc := range cases {
		typ, balance := models.ClassifySubjectCode(tc.code)
		if typ != tc.typ || balance != tc.balance {
			t.Errorf("ClassifySubjectCode(%q) = %s/%s, want %s/%s", tc.code, typ, balance, tc.typ, tc.balance)
		}
	}
}

func TestNormalizeVoucherType(t *testing.T) {
	cases := []struct {
		prefix string
		want   string
	}{
		{"银付", "银行付款"},
		{"银收", "银行收款"},
		{"转", "转账"},
		{"现付", "现金付款"},
		{"现收", "现金收款"},
		{"记", "记"},
	}
	for _, tc := range cases {
		if got := models.NormalizeVoucherType(tc.prefix); got != tc.want {
			t.Errorf("NormalizeVoucherType(%q) = %q, want %q", tc.prefix, got, tc.want)
		}
	}
}

func TestPartyTypeLabel(t *testing.T) {
	cases := []struct {
		dim  models.DimensionType
		want string
	}{
		{models.DimensionSupplierCustomer, "供应商/客户"},
		{models.DimensionSupplier, "供应商"},
		{models.DimensionCustomer, "客户"},
		{models.DimensionProject, "未知"},
	}
	for _, tc := range cases {
		if got := models.PartyTypeLabel(tc.dim); got != tc.want {
			t.Errorf("PartyTypeLabel(%q) = %q, want %q", tc.dim, got, tc.want)
		}
	}
}
