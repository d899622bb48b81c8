package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var testCols = ColumnMap{Debit: "借方-本币", Credit: "贷方-本币"}

func testRow(overrides map[string]string) Row {
	fields := map[string]string{
		"月":     "7",
		"日":     "15",
		"核算账簿名称": "甲公司-主账",
		"凭证号":   "银付-0031",
		"分录号":   "1",
		"科目名称":  `1002\银行存款\建行兰州新区分行`,
		"摘要":    "支付供热费",
		"币种":    "人民币",
		"借方-本币": "1,000.00",
		"贷方-本币": "",
		"辅助项":   "【客商：甲供应商】",
	}
	for k, v := range overrides {
		fields[k] = v
	}
	return Row{File: "2025年7月.csv", Line: 1, Fields: fields}
}

func TestNormalizeRow(t *testing.T) {
	nr, err := normalizeRow(testRow(nil), testCols, 2025)
	if err != nil {
		t.Fatalf("normalizeRow: %v", err)
	}
	if nr.book.CompanyName != "甲公司" || nr.book.BookType != "主账" {
		t.Errorf("book = %+v", nr.book)
	}
	if nr.ref.Type != "银行付款" || nr.ref.Sequence != "0031" {
		t.Errorf("ref = %+v", nr.ref)
	}
	if nr.date.String() != "2025-07-15" {
		t.Errorf("date = %s", nr.date)
	}
	if nr.entryNumber != 1 {
		t.Errorf("entry = %d", nr.entryNumber)
	}
	if !nr.debit.Equal(decimal.NewFromInt(1000)) || !nr.credit.IsZero() {
		t.Errorf("amounts = %s / %s", nr.debit, nr.credit)
	}
	if len(nr.aux) != 1 || nr.aux[0].Value != "甲供应商" {
		t.Errorf("aux = %+v", nr.aux)
	}
}

func TestNormalizeRowCurrencyDefault(t *testing.T) {
	nr, err := normalizeRow(testRow(map[string]string{"币种": ""}), testCols, 2025)
	if err != nil {
		t.Fatalf("normalizeRow: %v", err)
	}
	if nr.currency != "人民币" {
		t.Errorf("currency = %q, want 人民币", nr.currency)
	}
}

func TestNormalizeRowFailures(t *testing.T) {
	cases := []map[string]string{
		{"核算账簿名称": "无分隔符"},
		{"月": "13"},
		{"凭证号": ""},
		{"分录号": "x"},
		{"分录号": "0"},
		{"分录号": "1abc"},
		{"借方-本币": "12a.00"},
		{"贷方-本币": "abc"},
	}
	for _, overrides := range cases {
		_, err := normalizeRow(testRow(overrides), testCols, 2025)
		if err == nil {
			t.Errorf("normalizeRow with %v: want error", overrides)
			continue
		}
		var ie *IntegrityError
		if errors.As(err, &ie) {
			t.Errorf("normalizeRow with %v: row-scoped failure must not be an IntegrityError", overrides)
		}
	}
}

func TestNormalizeRowSubjectViolation(t *testing.T) {
	for _, raw := range []string{"", `\银行存款`} {
		nr, err := normalizeRow(testRow(map[string]string{"科目名称": raw}), testCols, 2025)
		if err == nil {
			t.Fatalf("subject %q: want error", raw)
		}
		var ie *IntegrityError
		if !errors.As(err, &ie) {
			t.Fatalf("subject %q: got %T, want IntegrityError", raw, err)
		}
		if ie.Voucher != "银付-0031" {
			t.Errorf("violation voucher = %q", ie.Voucher)
		}
		// The identity must survive so the loader can reject the whole
		// voucher instead of silently dropping the row.
		if nr.number != "银付-0031" || nr.date.String() != "2025-07-15" {
			t.Errorf("identity lost: %+v", nr)
		}
	}
}

func TestNormalizeRowNegativeAmountPreserved(t *testing.T) {
	nr, err := normalizeRow(testRow(map[string]string{"借方-本币": "-1,000.00"}), testCols, 2025)
	if err != nil {
		t.Fatalf("normalizeRow: %v", err)
	}
	if !nr.debit.Equal(decimal.NewFromInt(-1000)) {
		t.Errorf("debit = %s, want -1000", nr.debit)
	}
}

func TestGroupKeyChanges(t *testing.T) {
	base, err := normalizeRow(testRow(nil), testCols, 2025)
	if err != nil {
		t.Fatal(err)
	}
	same, err := normalizeRow(testRow(map[string]string{"分录号": "2", "科目名称": `2202\应付账款`}), testCols, 2025)
	if err != nil {
		t.Fatal(err)
	}
	if base.groupKey() != same.groupKey() {
		t.Error("entry number must not change the voucher identity")
	}

	for _, overrides := range []map[string]string{
		{"凭证号": "银付-0032"},
		{"日": "16"},
		{"核算账簿名称": "乙公司-主账"},
	} {
		other, err := normalizeRow(testRow(overrides), testCols, 2025)
		if err != nil {
			t.Fatal(err)
		}
		if base.groupKey() == other.groupKey() {
			t.Errorf("override %v must start a new voucher", overrides)
		}
	}
}

func TestBalanceEpsilon(t *testing.T) {
	cases := []struct {
		diff     string
		balanced bool
	}{
		{"0", true},
		{"0.00000001", true},
		{"-0.00000001", true},
		{"0.0000001", false},
		{"0.01", false},
		{"-5.00", false},
	}
	for _, tc := range cases {
		diff, _ := decimal.NewFromString(tc.diff)
		if got := diff.Abs().LessThanOrEqual(balanceEpsilon); got != tc.balanced {
			t.Errorf("diff %s: balanced = %v, want %v", tc.diff, got, tc.balanced)
		}
	}
}

func TestIsEmptyRow(t *testing.T) {
	if !isEmptyRow(Row{Fields: map[string]string{"月": "", "日": ""}}) {
		t.Error("all-empty row must be skipped")
	}
	if isEmptyRow(testRow(nil)) {
		t.Error("populated row must not be skipped")
	}
}

// A voucher with an unparseable subject on any row is rejected as a whole;
// the file finishes, nothing is committed, and auxiliary parse warnings from
// the rejected rows still reach the summary.
func TestLoadFileSubjectViolationRejectsVoucher(t *testing.T) {
	content := "月,日,核算账簿名称,凭证号,分录号,科目名称,借方-本币,贷方-本币,辅助项\n" +
		"7,15,甲公司-主账,银付-0031,1,1002\\银行存款,100.00,,【客商：没有结尾\n" +
		"7,15,甲公司-主账,银付-0031,2,,,100.00,\n"
	path := filepath.Join(t.TempDir(), "2025年7月.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// No store access happens for a rejected-only file.
	l := NewLoader(nil, logrus.New())
	summary := &RunSummary{}
	if err := l.LoadFile(path, summary); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if summary.CommittedVouchers != 0 || summary.LoadedRows != 0 {
		t.Errorf("committed %d loaded %d, want 0/0", summary.CommittedVouchers, summary.LoadedRows)
	}
	if len(summary.RejectedVouchers) != 1 {
		t.Fatalf("rejected = %d, want 1", len(summary.RejectedVouchers))
	}
	rej := summary.RejectedVouchers[0]
	if rej.Number != "银付-0031" || rej.Entries != 2 {
		t.Errorf("rejection = %+v", rej)
	}
	if !strings.Contains(rej.Reason, "integrity violation") {
		t.Errorf("reason = %q, want integrity violation", rej.Reason)
	}
	if len(summary.SkippedRows) != 0 {
		t.Errorf("skipped = %d, rows of a rejected voucher are not skips", len(summary.SkippedRows))
	}
	if summary.ParseWarnings != 1 {
		t.Errorf("parse warnings = %d, want 1", summary.ParseWarnings)
	}
}

func TestRejectionReason(t *testing.T) {
	dup := &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	if got := rejectionReason(dup, "银付-0031"); got != ErrDuplicateVoucher.Error() {
		t.Errorf("1062 = %q", got)
	}

	fk := &gomysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}
	got := rejectionReason(fk, "银付-0031")
	if !strings.Contains(got, "integrity violation") || !strings.Contains(got, "银付-0031") {
		t.Errorf("1452 = %q", got)
	}

	plain := errors.New("invalid connection")
	if got := rejectionReason(plain, "银付-0031"); got != "invalid connection" {
		t.Errorf("plain = %q", got)
	}
}
