package verify

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/helitech/journal_backend/ingest"
)

// Post-load consistency checks. The verifier reads both sides independently
// of the load path: raw sums from the source files, aggregate queries from
// the store. It reports divergence, it never mutates.

var (
	// epsilon absorbs float artifacts in aggregate comparisons.
	epsilon = decimal.New(1, -8)
	// materiality is the one-cent threshold above which a per-voucher
	// imbalance is flagged for review.
	materiality = decimal.NewFromFloat(0.01)
)

// CheckResult is one named comparison with its outcome.
type CheckResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// VoucherDiff is one voucher whose sums diverge, either debit vs credit or
// stored totals vs recomputed detail sums.
type VoucherDiff struct {
	Book       string          `json:"book"`
	Number     string          `json:"number"`
	Date       string          `json:"date"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Difference decimal.Decimal `json:"difference"`
}

// Report is the full outcome of one verification run.
type Report struct {
	SourceRows  int64           `json:"source_rows"`
	StoreRows   int64           `json:"store_rows"`
	SourceDebit decimal.Decimal `json:"source_debit"`
	StoreDebit  decimal.Decimal `json:"store_debit"`

	SourceCredit decimal.Decimal `json:"source_credit"`
	StoreCredit  decimal.Decimal `json:"store_credit"`

	SourceNegatives int64 `json:"source_negatives"`
	StoreNegatives  int64 `json:"store_negatives"`

	Checks             []CheckResult `json:"checks"`
	UnbalancedVouchers []VoucherDiff `json:"unbalanced_vouchers,omitempty"`
	TotalsDrift        []VoucherDiff `json:"totals_drift,omitempty"`
	Passed             bool          `json:"passed"`
}

// Checker compares a source directory against a loaded store.
type Checker struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewChecker(db *gorm.DB, log *logrus.Logger) *Checker {
	return &Checker{db: db, log: log}
}

// Check runs the full comparison. A check failure makes the report fail;
// only store access errors return a non-nil error.
func (c *Checker) Check(dataDir string) (*Report, error) {
	report := &Report{}

	if err := c.scanSource(dataDir, report); err != nil {
		return nil, err
	}
	if err := c.scanStore(report); err != nil {
		return nil, err
	}

	c.compare(report, "row count",
		decimal.NewFromInt(report.SourceRows), decimal.NewFromInt(report.StoreRows), decimal.Zero)
	c.compare(report, "debit total", report.SourceDebit, report.StoreDebit, epsilon)
	c.compare(report, "credit total", report.SourceCredit, report.StoreCredit, epsilon)
	c.compare(report, "negative amount count",
		decimal.NewFromInt(report.SourceNegatives), decimal.NewFromInt(report.StoreNegatives), decimal.Zero)

	if err := c.findUnbalanced(report); err != nil {
		return nil, err
	}
	if err := c.findTotalsDrift(report); err != nil {
		return nil, err
	}

	balanced := CheckResult{Name: "voucher balance", Passed: len(report.UnbalancedVouchers) == 0}
	if !balanced.Passed {
		balanced.Details = fmt.Sprintf("%d vouchers differ by more than %s", len(report.UnbalancedVouchers), materiality)
	}
	report.Checks = append(report.Checks, balanced)

	drift := CheckResult{Name: "stored totals", Passed: len(report.TotalsDrift) == 0}
	if !drift.Passed {
		drift.Details = fmt.Sprintf("%d vouchers whose stored totals differ from their detail sums", len(report.TotalsDrift))
	}
	report.Checks = append(report.Checks, drift)

	report.Passed = true
	for _, check := range report.Checks {
		if !check.Passed {
			report.Passed = false
		}
	}
	c.log.WithFields(logrus.Fields{
		"source_rows": report.SourceRows,
		"store_rows":  report.StoreRows,
		"passed":      report.Passed,
	}).Info("verification finished")
	return report, nil
}

// scanSource tallies the raw side. Amount cells that fail to parse count as
// zero here; the load run already reported them as skipped rows and the row
// count comparison surfaces the difference.
func (c *Checker) scanSource(dataDir string, report *Report) error {
	files, err := ingest.ListSourceFiles(dataDir)
	if err != nil {
		return err
	}
	for _, path := range files {
		headers, rows, err := ingest.ReadRows(path)
		if err != nil {
			return err
		}
		cols, err := ingest.ResolveColumns(headers)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, row := range rows {
			if rowEmpty(row) {
				continue
			}
			report.SourceRows++
			if debit, err := ingest.CleanAmount(cols.Debit, row.Fields[cols.Debit]); err == nil {
				report.SourceDebit = report.SourceDebit.Add(debit)
				if debit.IsNegative() {
					report.SourceNegatives++
				}
			}
			if credit, err := ingest.CleanAmount(cols.Credit, row.Fields[cols.Credit]); err == nil {
				report.SourceCredit = report.SourceCredit.Add(credit)
				if credit.IsNegative() {
					report.SourceNegatives++
				}
			}
		}
	}
	return nil
}

func rowEmpty(row ingest.Row) bool {
	for _, v := range row.Fields {
		if v != "" {
			return false
		}
	}
	return true
}

func (c *Checker) scanStore(report *Report) error {
	type storeTotals struct {
		RowCount  int64
		Debit     decimal.Decimal
		Credit    decimal.Decimal
		Negatives int64
	}
	var totals storeTotals
	err := c.db.Raw(`
		SELECT COUNT(*) AS row_count,
		       COALESCE(SUM(debit_amount), 0) AS debit,
		       COALESCE(SUM(credit_amount), 0) AS credit,
		       COALESCE(SUM(CASE WHEN debit_amount < 0 THEN 1 ELSE 0 END +
		                     CASE WHEN credit_amount < 0 THEN 1 ELSE 0 END), 0) AS negatives
		FROM voucher_details`).Scan(&totals).Error
	if err != nil {
		return fmt.Errorf("store totals: %w", err)
	}
	report.StoreRows = totals.RowCount
	report.StoreDebit = totals.Debit
	report.StoreCredit = totals.Credit
	report.StoreNegatives = totals.Negatives
	return nil
}

func (c *Checker) findUnbalanced(report *Report) error {
	rows, err := c.voucherSums("HAVING ABS(SUM(d.debit_amount) - SUM(d.credit_amount)) > ?", materiality)
	if err != nil {
		return fmt.Errorf("unbalanced vouchers: %w", err)
	}
	report.UnbalancedVouchers = rows
	return nil
}

func (c *Checker) findTotalsDrift(report *Report) error {
	rows, err := c.voucherSums(`HAVING ABS(SUM(d.debit_amount) - MAX(v.total_debit)) > ?
		OR ABS(SUM(d.credit_amount) - MAX(v.total_credit)) > ?`, epsilon, epsilon)
	if err != nil {
		return fmt.Errorf("totals drift: %w", err)
	}
	report.TotalsDrift = rows
	return nil
}

func (c *Checker) voucherSums(having string, args ...interface{}) ([]VoucherDiff, error) {
	type sumRow struct {
		Book   string
		Number string
		Date   string
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	var raw []sumRow
	query := fmt.Sprintf(`
		SELECT b.name AS book,
		       v.voucher_number AS number,
		       DATE_FORMAT(v.voucher_date, '%%Y-%%m-%%d') AS date,
		       SUM(d.debit_amount) AS debit,
		       SUM(d.credit_amount) AS credit
		FROM vouchers v
		JOIN account_books b ON b.id = v.book_id
		JOIN voucher_details d ON d.voucher_id = v.id
		GROUP BY v.id, b.name, v.voucher_number, v.voucher_date
		%s
		ORDER BY v.id`, having)
	if err := c.db.Raw(query, args...).Scan(&raw).Error; err != nil {
		return nil, err
	}
	diffs := make([]VoucherDiff, 0, len(raw))
	for _, r := range raw {
		diffs = append(diffs, VoucherDiff{
			Book:       r.Book,
			Number:     r.Number,
			Date:       r.Date,
			Debit:      r.Debit,
			Credit:     r.Credit,
			Difference: r.Debit.Sub(r.Credit),
		})
	}
	return diffs, nil
}

// compare records one aggregate comparison, passing when the absolute
// difference stays within tolerance.
func (c *Checker) compare(report *Report, name string, source, store, tolerance decimal.Decimal) {
	diff := source.Sub(store).Abs()
	result := CheckResult{Name: name, Passed: diff.LessThanOrEqual(tolerance)}
	if !result.Passed {
		result.Details = fmt.Sprintf("source %s vs store %s", source, store)
	}
	report.Checks = append(report.Checks, result)
}

// MateriallyUnbalanced reports whether a debit/credit pair differs by more
// than the one-cent review threshold.
func MateriallyUnbalanced(debit, credit decimal.Decimal) bool {
	return debit.Sub(credit).Abs().GreaterThan(materiality)
}
