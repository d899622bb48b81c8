package query_test

import (
	"testing"

	"github.com/helitech/journal_backend/query"
)

func TestValidateReadOnly(t *testing.T) {
	allowed := []string{
		"SELECT * FROM vouchers",
		"select voucher_number, total_debit from vouchers where year = 2025",
		"SELECT * FROM vouchers;",
		"WITH sums AS (SELECT voucher_id, SUM(debit_amount) d FROM voucher_details GROUP BY voucher_id) SELECT * FROM sums",
		"SELECT * FROM voucher_details LIMIT 10 OFFSET 20",
		"SELECT created_at FROM companies",
	}
	for _, q := range allowed {
		if err := query.ValidateReadOnly(q); err != nil {
			t.Errorf("ValidateReadOnly(%q): %v", q, err)
		}
	}

	rejected := []string{
		"",
		"   ",
		"DELETE FROM vouchers",
		"INSERT INTO companies (name) VALUES ('x')",
		"UPDATE vouchers SET is_balanced = 1",
		"DROP TABLE vouchers",
		"TRUNCATE voucher_details",
		"SELECT * FROM vouchers; DROP TABLE vouchers",
		"SELECT * INTO OUTFILE '/tmp/x' FROM vouchers",
		"EXPLAIN SELECT * FROM vouchers",
		"SET @x = 1",
		"SELECT * FROM vouchers WHERE id = 1; DELETE FROM vouchers",
	}
	for _, q := range rejected {
		if err := query.ValidateReadOnly(q); err == nil {
			t.Errorf("ValidateReadOnly(%q): want error", q)
		}
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, query.DefaultRowLimit},
		{-5, query.DefaultRowLimit},
		{100, 100},
		{query.MaxRowLimit, query.MaxRowLimit},
		{query.MaxRowLimit + 1, query.MaxRowLimit},
	}
	for _, tc := range cases {
		if got := query.ClampLimit(tc.in); got != tc.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
