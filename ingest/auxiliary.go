package ingest

import (
	"strings"

	"github.com/helitech/journal_backend/models"
)

// Auxiliary dimension parser. Source cells embed dimension pairs in
// full-width brackets, e.g. "【客商：兰州供热集团】【项目：西区管网改造】".
// Malformed segments are dropped and tallied, never fatal.

// AuxiliaryItem is one parsed dimension pair. RawType keeps the source
// token verbatim, StandardType the normalized snake_case key, Dimension the
// closed storage enum.
type AuxiliaryItem struct {
	RawType      string
	StandardType string
	Dimension    models.DimensionType
	Value        string
}

var auxiliaryTypeMap = map[string]string{
	"客商":     "supplier_customer",
	"供应商":    "supplier",
	"客户":     "customer",
	"项目":     "project",
	"部门":     "department",
	"银行账户":   "bank_account",
	"人员档案":   "employee",
	"员工":     "employee",
	"人员":     "employee",
	"款项名称":   "payment_item",
	"绩效部门":   "performance_dept",
	"绩效部门hl": "performance_dept_hl",
	"往来单位":   "business_partner",
	"单位":     "unit",
	"结算方式":   "settlement_method",
	"现金流量项目": "cash_flow_item",
	"业务员":    "salesman",
	"存货":     "inventory",
	"自定义项":   "custom_item",
}

var standardDimensions = map[string]models.DimensionType{
	"supplier_customer": models.DimensionSupplierCustomer,
	"supplier":          models.DimensionSupplier,
	"customer":          models.DimensionCustomer,
	"project":           models.DimensionProject,
	"department":        models.DimensionDepartment,
	"employee":          models.DimensionEmployee,
	"bank_account":      models.DimensionBankAccount,
}

// StandardizeAuxiliaryType maps a raw dimension token onto its normalized
// key and storage enum. Exact matches win; otherwise containment in either
// direction, so "客商往来" still reads as 客商. Unknown tokens pass through
// lowercased with spaces collapsed and land in the open dimension bucket.
func StandardizeAuxiliaryType(raw string) (string, models.DimensionType) {
	token := strings.TrimSpace(raw)
	if std, ok := auxiliaryTypeMap[token]; ok {
		return std, dimensionFor(std)
	}
	for key, std := range auxiliaryTypeMap {
		if strings.Contains(token, key) || strings.Contains(key, token) {
			return std, dimensionFor(std)
		}
	}
	fallback := strings.ReplaceAll(strings.ToLower(token), " ", "_")
	return fallback, models.DimensionOther
}

func dimensionFor(standard string) models.DimensionType {
	if dim, ok := standardDimensions[standard]; ok {
		return dim
	}
	return models.DimensionOther
}

const (
	auxOutside = iota
	auxInType
	auxInValue
)

// ParseAuxiliary scans a free-text cell for 【type：value】 segments with a
// three-state machine. It returns the parsed pairs in source order and a
// count of malformed segments that were skipped: unterminated brackets,
// empty types or values, stray closers, reopened brackets.
func ParseAuxiliary(text string) ([]AuxiliaryItem, int) {
	var (
		items    []AuxiliaryItem
		warnings int
		state    = auxOutside
		typeBuf  strings.Builder
		valueBuf strings.Builder
	)
	reset := func() {
		typeBuf.Reset()
		valueBuf.Reset()
		state = auxOutside
	}
	for _, r := range text {
		switch state {
		case auxOutside:
			switch r {
			case '【':
				state = auxInType
			case '】':
				warnings++
			}
		case auxInType:
			switch r {
			case '：':
				state = auxInValue
			case '【':
				warnings++
				reset()
				state = auxInType
			case '】':
				warnings++
				reset()
			default:
				typeBuf.WriteRune(r)
			}
		case auxInValue:
			switch r {
			case '】':
				rawType := strings.TrimSpace(typeBuf.String())
				value := strings.TrimSpace(valueBuf.String())
				if rawType == "" || value == "" {
					warnings++
				} else {
					std, dim := StandardizeAuxiliaryType(rawType)
					items = append(items, AuxiliaryItem{
						RawType:      rawType,
						StandardType: std,
						Dimension:    dim,
						Value:        value,
					})
				}
				reset()
			case '【':
				warnings++
				reset()
				state = auxInType
			default:
				valueBuf.WriteRune(r)
			}
		}
	}
	if state != auxOutside {
		warnings++
	}
	return items, warnings
}
