package ingest

import (
	"errors"
	"fmt"
)

// Row- and voucher-scoped failure taxonomy. Row errors skip the row and are
// recorded in the run summary; voucher errors reject the whole voucher and
// roll back its transaction. Only store connectivity and schema failures are
// fatal, and those surface as plain wrapped errors from gorm.

// MalformedFieldError reports a field that failed normalization. It carries
// the original text and the rule that rejected it.
type MalformedFieldError struct {
	Field string
	Raw   string
	Rule  string
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed field %s: %q (%s)", e.Field, e.Raw, e.Rule)
}

// UnresolvableEntityError reports a reference value no dimension row can be
// derived from, e.g. a ledger label without a company delimiter.
type UnresolvableEntityError struct {
	Kind string
	Raw  string
}

func (e *UnresolvableEntityError) Error() string {
	return fmt.Sprintf("unresolvable %s: %q", e.Kind, e.Raw)
}

// IntegrityError rejects a whole voucher, e.g. a detail line whose subject
// code cannot be resolved against the chart of accounts.
type IntegrityError struct {
	Voucher string
	Reason  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation on voucher %s: %s", e.Voucher, e.Reason)
}

// ErrDuplicateVoucher marks a voucher whose (book, number, date) identity is
// already present in the store. Re-runs reject these instead of duplicating.
var ErrDuplicateVoucher = errors.New("duplicate voucher")
