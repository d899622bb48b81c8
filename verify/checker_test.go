package verify

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestMateriallyUnbalanced(t *testing.T) {
	cases := []struct {
		debit  string
		credit string
		want   bool
	}{
		{"100.00", "100.00", false},
		// One cent is the threshold, not past it.
		{"100.01", "100.00", false},
		{"100.00", "100.01", false},
		{"100.009999", "100.00", false},
		{"100.0100001", "100.00", true},
		{"100.02", "100.00", true},
		{"0", "500.00", true},
		{"-100.00", "-100.00", false},
	}
	for _, tc := range cases {
		got := MateriallyUnbalanced(dec(t, tc.debit), dec(t, tc.credit))
		if got != tc.want {
			t.Errorf("MateriallyUnbalanced(%s, %s) = %v, want %v", tc.debit, tc.credit, got, tc.want)
		}
	}
}

func TestAggregateTolerance(t *testing.T) {
	cases := []struct {
		source string
		store  string
		want   bool
	}{
		{"542884.60", "542884.60", true},
		{"542884.60", "542884.600000005", true},
		{"542884.60", "542884.61", false},
	}
	for _, tc := range cases {
		diff := dec(t, tc.source).Sub(dec(t, tc.store)).Abs()
		if got := diff.LessThanOrEqual(epsilon); got != tc.want {
			t.Errorf("source %s store %s: within epsilon = %v, want %v", tc.source, tc.store, got, tc.want)
		}
	}
}
