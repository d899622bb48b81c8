package ingest

import (
	"github.com/shopspring/decimal"
)

// SkippedRow is one source row that was dropped during normalization.
type SkippedRow struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// RejectedVoucher is one voucher that was rolled back as a whole.
type RejectedVoucher struct {
	Book    string `json:"book"`
	Number  string `json:"number"`
	Date    string `json:"date"`
	Reason  string `json:"reason"`
	Entries int    `json:"entries"`
}

// FlaggedVoucher is one voucher that was persisted with unequal totals.
type FlaggedVoucher struct {
	Book       string          `json:"book"`
	Number     string          `json:"number"`
	Date       string          `json:"date"`
	Difference decimal.Decimal `json:"difference"`
}

// RunSummary accumulates the outcome of one load run across all files.
type RunSummary struct {
	Files              []string          `json:"files"`
	SourceRows         int               `json:"source_rows"`
	LoadedRows         int               `json:"loaded_rows"`
	CommittedVouchers  int               `json:"committed_vouchers"`
	AuxiliaryItems     int               `json:"auxiliary_items"`
	ParseWarnings      int               `json:"parse_warnings"`
	SkippedRows        []SkippedRow      `json:"skipped_rows,omitempty"`
	RejectedVouchers   []RejectedVoucher `json:"rejected_vouchers,omitempty"`
	UnbalancedVouchers []FlaggedVoucher  `json:"unbalanced_vouchers,omitempty"`
}

func (s *RunSummary) skip(file string, line int, reason string) {
	s.SkippedRows = append(s.SkippedRows, SkippedRow{File: file, Line: line, Reason: reason})
}

// Clean reports whether the run had no skips, rejections or unbalanced
// vouchers. Drives the review-needed exit status of the load tool.
func (s *RunSummary) Clean() bool {
	return len(s.SkippedRows) == 0 && len(s.RejectedVouchers) == 0 && len(s.UnbalancedVouchers) == 0
}
