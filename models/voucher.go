package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Voucher is one double-entry transaction. Identity within a store is the
// composite (book_id, voucher_number, voucher_date); the external voucher
// number alone is only unique inside a book+date scope.
type Voucher struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BookId        int             `gorm:"not null;uniqueIndex:uniq_voucher_identity" json:"book_id"`
	VoucherNumber string          `gorm:"size:50;not null;uniqueIndex:uniq_voucher_identity" json:"voucher_number"`
	VoucherType   string          `gorm:"size:20" json:"voucher_type"`
	VoucherDate   time.Time       `gorm:"type:date;not null;uniqueIndex:uniq_voucher_identity;index" json:"voucher_date"`
	Year          int             `gorm:"not null;index:idx_voucher_ymd" json:"year"`
	Month         int             `gorm:"not null;index:idx_voucher_ymd" json:"month"`
	Day           int             `gorm:"not null;index:idx_voucher_ymd" json:"day"`
	TotalDebit    decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"total_debit"`
	TotalCredit   decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"total_credit"`
	IsBalanced    *bool           `gorm:"not null;default:true" json:"is_balanced"`
	Details       []VoucherDetail `gorm:"foreignKey:VoucherId" json:"details"`
	Book          *AccountBook    `gorm:"foreignKey:BookId" json:"book,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (v *Voucher) GetId() int {
	return v.ID
}

// VoucherDetail is one entry line of a voucher. The raw debit/credit values
// keep their source sign; a negative amount is preserved, never re-signed.
type VoucherDetail struct {
	ID             int             `gorm:"primary_key" json:"id"`
	VoucherId      int             `gorm:"not null;uniqueIndex:uniq_entry_per_voucher" json:"voucher_id"`
	EntryNumber    int             `gorm:"not null;uniqueIndex:uniq_entry_per_voucher" json:"entry_number"`
	Summary        string          `gorm:"type:text" json:"summary"`
	SubjectId      int             `gorm:"not null;index" json:"subject_id"`
	Currency       string          `gorm:"size:20" json:"currency"`
	DebitAmount    decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"debit_amount"`
	CreditAmount   decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"credit_amount"`
	AuxiliaryInfo  string          `gorm:"type:text" json:"auxiliary_info"`
	WriteOffInfo   string          `gorm:"type:text" json:"write_off_info"`
	SettlementInfo string          `gorm:"type:text" json:"settlement_info"`
	AuxiliaryItems []AuxiliaryItem `gorm:"foreignKey:DetailId" json:"auxiliary_items"`
	Subject        *AccountSubject `gorm:"foreignKey:SubjectId" json:"subject,omitempty"`
}

func (d *VoucherDetail) GetId() int {
	return d.ID
}

// AuxiliaryItem is one parsed 【类型：值】 pair of a detail line. ItemName
// keeps the raw type token verbatim; ItemType is its closed classification.
type AuxiliaryItem struct {
	ID        int           `gorm:"primary_key" json:"id"`
	DetailId  int           `gorm:"not null;index" json:"detail_id"`
	ItemType  DimensionType `gorm:"size:50;not null;index:idx_aux_type_value" json:"item_type"`
	ItemName  string        `gorm:"size:100" json:"item_name"`
	ItemValue string        `gorm:"size:500;not null;index:idx_aux_type_value,length:191" json:"item_value"`
}

func (a *AuxiliaryItem) GetId() int {
	return a.ID
}

// BalanceAdjustment is the review note written for every voucher persisted
// with unbalanced totals. The amounts are the literal stored sums; nothing
// is corrected.
type BalanceAdjustment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	VoucherId   int             `gorm:"not null;index" json:"voucher_id"`
	TotalDebit  decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_debit"`
	TotalCredit decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_credit"`
	Difference  decimal.Decimal `gorm:"type:decimal(15,2)" json:"difference"`
	Note        string          `gorm:"size:500" json:"note"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// voucherTypeByPrefix normalizes the prefix of a voucher number
// ("银付-0001") into the closed voucher-type enumeration.
var voucherTypeByPrefix = map[string]string{
	"银付": "银行付款",
	"银收": "银行收款",
	"转":  "转账",
	"现付": "现金付款",
	"现收": "现金收款",
}

// NormalizeVoucherType maps a voucher-number prefix to its canonical type.
// Unknown prefixes are preserved verbatim.
func NormalizeVoucherType(prefix string) string {
	if t, ok := voucherTypeByPrefix[prefix]; ok {
		return t
	}
	return prefix
}
