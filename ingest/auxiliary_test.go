package ingest_test

import (
	"testing"

	"github.com/helitech/journal_backend/ingest"
	"github.com/helitech/journal_backend/models"
)

func TestParseAuxiliarySingle(t *testing.T) {
	items, warnings := ingest.ParseAuxiliary("【客商：兰州供热集团有限公司】")
	if warnings != 0 {
		t.Fatalf("warnings = %d", warnings)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d", len(items))
	}
	it := items[0]
	if it.RawType != "客商" {
		t.Errorf("raw type = %q", it.RawType)
	}
	if it.StandardType != "supplier_customer" {
		t.Errorf("standard type = %q", it.StandardType)
	}
	if it.Dimension != models.DimensionSupplierCustomer {
		t.Errorf("dimension = %q", it.Dimension)
	}
	if it.Value != "兰州供热集团有限公司" {
		t.Errorf("value = %q", it.Value)
	}
}

func TestParseAuxiliaryMultiple(t *testing.T) {
	items, warnings := ingest.ParseAuxiliary("收供热费【客商：甲公司】【项目：西区管网改造】【部门：财务部】")
	if warnings != 0 {
		t.Fatalf("warnings = %d", warnings)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d", len(items))
	}
	if items[1].Dimension != models.DimensionProject || items[1].Value != "西区管网改造" {
		t.Errorf("items[1] = %+v", items[1])
	}
	if items[2].Dimension != models.DimensionDepartment {
		t.Errorf("items[2] = %+v", items[2])
	}
}

func TestParseAuxiliaryMalformed(t *testing.T) {
	cases := []struct {
		text     string
		items    int
		warnings int
	}{
		{"【客商：没有结尾", 0, 1},
		{"【客商】", 0, 1},
		{"【：只有值】", 0, 1},
		{"【客商：】", 0, 1},
		{"】游离的结尾", 0, 1},
		{"【客商：甲【项目：乙】", 1, 1},
		{"无任何标记的普通摘要", 0, 0},
		{"", 0, 0},
	}
	for _, tc := range cases {
		items, warnings := ingest.ParseAuxiliary(tc.text)
		if len(items) != tc.items || warnings != tc.warnings {
			t.Errorf("ParseAuxiliary(%q) = %d items %d warnings, want %d/%d",
				tc.text, len(items), warnings, tc.items, tc.warnings)
		}
	}
}

func TestStandardizeAuxiliaryType(t *testing.T) {
	cases := []struct {
		raw string
		std string
		dim models.DimensionType
	}{
		{"客商", "supplier_customer", models.DimensionSupplierCustomer},
		{"供应商", "supplier", models.DimensionSupplier},
		{"客户", "customer", models.DimensionCustomer},
		{"项目", "project", models.DimensionProject},
		{"银行账户", "bank_account", models.DimensionBankAccount},
		{"人员档案", "employee", models.DimensionEmployee},
		{"结算方式", "settlement_method", models.DimensionOther},
		// Containment fuzzy match.
		{"客商往来", "supplier_customer", models.DimensionSupplierCustomer},
		// Unknown tokens pass through lowercased.
		{"Some Type", "some_type", models.DimensionOther},
	}
	for _, tc := range cases {
		std, dim := ingest.StandardizeAuxiliaryType(tc.raw)
		if std != tc.std || dim != tc.dim {
			t.Errorf("StandardizeAuxiliaryType(%q) = %q/%q, want %q/%q", tc.raw, std, dim, tc.std, tc.dim)
		}
	}
}
