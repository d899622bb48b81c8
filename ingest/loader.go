package ingest

import (
	"errors"
	"fmt"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/helitech/journal_backend/config"
	"github.com/helitech/journal_backend/models"
)

// balanceEpsilon absorbs float artifacts in source exports; differences at
// or below it count as balanced. Anything above is persisted flagged with a
// review note, never corrected.
var balanceEpsilon = decimal.New(1, -8)

// normalizedRow is one source row after field normalization, ready to be
// grouped into a voucher.
type normalizedRow struct {
	book        BookInfo
	bookLabel   string
	number      string
	ref         VoucherRef
	date        Date
	entryNumber int
	subject     SubjectInfo
	summary     string
	currency    string
	auxText     string
	writeOff    string
	settlement  string
	debit       decimal.Decimal
	credit      decimal.Decimal
	aux         []AuxiliaryItem
	auxWarnings int
}

// groupKey is the voucher identity a row belongs to. Rows are grouped on
// key change in source order, matching how the exports lay out entries.
func (r normalizedRow) groupKey() string {
	return fmt.Sprintf("%s|%s|%s", r.bookLabel, r.number, r.date)
}

// Loader drives a full load run: read, normalize, group, resolve, commit.
type Loader struct {
	db       *gorm.DB
	log      *logrus.Logger
	resolver *Resolver
}

func NewLoader(db *gorm.DB, log *logrus.Logger) *Loader {
	return &Loader{db: db, log: log, resolver: NewResolver(db)}
}

// LoadDir loads every source file under dir in name order. Row and voucher
// failures are recorded in the summary; only store-level failures abort the
// run.
func (l *Loader) LoadDir(dir string) (*RunSummary, error) {
	files, err := ListSourceFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files under %s", dir)
	}
	summary := &RunSummary{}
	for _, path := range files {
		if err := l.LoadFile(path, summary); err != nil {
			return summary, err
		}
	}
	l.log.WithFields(logrus.Fields{
		"files":     len(summary.Files),
		"rows":      summary.SourceRows,
		"loaded":    summary.LoadedRows,
		"vouchers":  summary.CommittedVouchers,
		"skipped":   len(summary.SkippedRows),
		"rejected":  len(summary.RejectedVouchers),
		"flagged":   len(summary.UnbalancedVouchers),
		"warnings":  summary.ParseWarnings,
		"aux_items": summary.AuxiliaryItems,
	}).Info("load run finished")
	return summary, nil
}

// LoadFile loads one source file. The accounting year comes from the file
// name; rows are normalized one by one and flushed as vouchers whenever the
// grouping key changes.
func (l *Loader) LoadFile(path string, summary *RunSummary) error {
	headers, rows, err := ReadRows(path)
	if err != nil {
		return err
	}
	cols, err := ResolveColumns(headers)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	year := YearFromFilename(path)
	summary.Files = append(summary.Files, path)

	l.log.WithFields(logrus.Fields{"file": path, "rows": len(rows), "year": year}).Info("loading source file")

	var (
		group     []normalizedRow
		violation string
	)
	flush := func() error {
		if len(group) == 0 {
			return nil
		}
		var err error
		if violation != "" {
			l.reject(summary, group[0], len(group), violation)
		} else {
			err = l.commitVoucher(group, summary)
		}
		group = group[:0]
		violation = ""
		return err
	}
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		summary.SourceRows++
		nr, err := normalizeRow(row, cols, year)
		if err != nil {
			// Subject failures keep the voucher identity and poison the
			// whole group; everything else is a plain row skip.
			var ie *IntegrityError
			if !errors.As(err, &ie) {
				summary.skip(row.File, row.Line, err.Error())
				l.log.WithFields(logrus.Fields{"file": row.File, "line": row.Line}).Warn(err.Error())
				continue
			}
		}
		if len(group) > 0 && group[0].groupKey() != nr.groupKey() {
			if ferr := flush(); ferr != nil {
				return ferr
			}
		}
		group = append(group, nr)
		summary.ParseWarnings += nr.auxWarnings
		if err != nil {
			violation = err.Error()
		}
	}
	return flush()
}

func isEmptyRow(row Row) bool {
	for _, v := range row.Fields {
		if v != "" {
			return false
		}
	}
	return true
}

// normalizeRow applies the field normalizers to one source row. Identity
// and amount failures are row-scoped; a subject failure returns the row
// with its voucher identity intact plus an IntegrityError, because that
// failure belongs to the whole voucher.
func normalizeRow(row Row, cols ColumnMap, year int) (normalizedRow, error) {
	book, err := SplitBookLabel(row.Get("核算账簿名称"))
	if err != nil {
		return normalizedRow{}, err
	}
	date, err := DateFromParts(year, row.Get("月"), row.Get("日"))
	if err != nil {
		return normalizedRow{}, err
	}
	number := row.Get("凭证号")
	if number == "" {
		return normalizedRow{}, &MalformedFieldError{Field: "凭证号", Raw: "", Rule: "empty voucher number"}
	}
	entry, entryErr := strconv.Atoi(row.Get("分录号"))
	if entryErr != nil || entry <= 0 {
		return normalizedRow{}, &MalformedFieldError{Field: "分录号", Raw: row.Get("分录号"), Rule: "not a positive integer"}
	}
	debit, err := CleanAmount(cols.Debit, row.Fields[cols.Debit])
	if err != nil {
		return normalizedRow{}, err
	}
	credit, err := CleanAmount(cols.Credit, row.Fields[cols.Credit])
	if err != nil {
		return normalizedRow{}, err
	}
	currency := row.Get("币种")
	if currency == "" {
		currency = "人民币"
	}
	auxText := row.Get("辅助项")
	aux, warnings := ParseAuxiliary(auxText)
	nr := normalizedRow{
		book:        book,
		bookLabel:   row.Get("核算账簿名称"),
		number:      number,
		ref:         SplitVoucherNumber(number),
		date:        date,
		entryNumber: entry,
		summary:     row.Get("摘要"),
		currency:    currency,
		auxText:     auxText,
		writeOff:    row.Get("核销信息"),
		settlement:  row.Get("结算信息"),
		debit:       debit,
		credit:      credit,
		aux:         aux,
		auxWarnings: warnings,
	}
	// Subject parsing comes last: its failure is voucher-scoped, so the
	// caller still needs the voucher identity carried by the row.
	subject, err := ParseSubjectName(row.Get("科目名称"))
	if err != nil {
		return nr, &IntegrityError{Voucher: number, Reason: err.Error()}
	}
	nr.subject = subject
	return nr, nil
}

// commitVoucher persists one grouped voucher atomically. Dimension rows are
// resolved before the transaction so a rollback cannot invalidate the
// resolver caches; the voucher, its details and auxiliary items stand or
// fall together.
func (l *Loader) commitVoucher(group []normalizedRow, summary *RunSummary) error {
	head := group[0]

	companyID, err := l.resolver.Company(head.book.CompanyName)
	if err != nil {
		return err
	}
	bookID, err := l.resolver.Book(companyID, head.bookLabel)
	if err != nil {
		return err
	}

	subjectIDs := make([]int, len(group))
	for i, row := range group {
		id, err := l.resolver.Subject(row.subject)
		if err != nil {
			return err
		}
		subjectIDs[i] = id
	}

	var existing models.Voucher
	err = l.db.Where("book_id = ? AND voucher_number = ? AND voucher_date = ?",
		bookID, head.number, head.date.Time).First(&existing).Error
	if err == nil {
		l.reject(summary, head, len(group), ErrDuplicateVoucher.Error())
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("duplicate check for voucher %s: %w", head.number, err)
	}

	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, row := range group {
		totalDebit = totalDebit.Add(row.debit)
		totalCredit = totalCredit.Add(row.credit)
	}
	diff := totalDebit.Sub(totalCredit)
	isBalanced := diff.Abs().LessThanOrEqual(balanceEpsilon)

	voucher := models.Voucher{
		BookId:        bookID,
		VoucherNumber: head.number,
		VoucherType:   head.ref.Type,
		VoucherDate:   head.date.Time,
		Year:          head.date.Year,
		Month:         head.date.Month,
		Day:           head.date.Day,
		TotalDebit:    totalDebit,
		TotalCredit:   totalCredit,
		IsBalanced:    &isBalanced,
	}

	auxCount := 0
	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&voucher).Error; err != nil {
			return err
		}
		for i, row := range group {
			detail := models.VoucherDetail{
				VoucherId:      voucher.ID,
				EntryNumber:    row.entryNumber,
				Summary:        row.summary,
				SubjectId:      subjectIDs[i],
				Currency:       row.currency,
				DebitAmount:    row.debit,
				CreditAmount:   row.credit,
				AuxiliaryInfo:  row.auxText,
				WriteOffInfo:   row.writeOff,
				SettlementInfo: row.settlement,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return err
			}
			for _, item := range row.aux {
				record := models.AuxiliaryItem{
					DetailId:  detail.ID,
					ItemType:  item.Dimension,
					ItemName:  item.RawType,
					ItemValue: item.Value,
				}
				if err := tx.Create(&record).Error; err != nil {
					return err
				}
				auxCount++
			}
		}
		if !isBalanced {
			adjustment := models.BalanceAdjustment{
				VoucherId:   voucher.ID,
				TotalDebit:  totalDebit,
				TotalCredit: totalCredit,
				Difference:  diff,
				Note:        fmt.Sprintf("voucher %s stored unbalanced: debit %s credit %s", head.number, totalDebit, totalCredit),
			}
			if err := tx.Create(&adjustment).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(l.log, "ingest", "commitVoucher", "voucher transaction", head.number, err)
		l.reject(summary, head, len(group), rejectionReason(err, head.number))
		return nil
	}

	summary.CommittedVouchers++
	summary.LoadedRows += len(group)
	summary.AuxiliaryItems += auxCount
	if !isBalanced {
		summary.UnbalancedVouchers = append(summary.UnbalancedVouchers, FlaggedVoucher{
			Book:       head.bookLabel,
			Number:     head.number,
			Date:       head.date.String(),
			Difference: diff,
		})
		l.log.WithFields(logrus.Fields{
			"voucher":    head.number,
			"book":       head.bookLabel,
			"difference": diff.String(),
		}).Warn("voucher stored unbalanced")
	}

	l.harvestDimensions(group, companyID)
	return nil
}

// rejectionReason maps a transaction failure onto the error taxonomy: a
// racing insert on the voucher identity index is a duplicate, a foreign key
// failure is an integrity violation, anything else keeps the raw cause.
func rejectionReason(err error, voucher string) string {
	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062:
			return ErrDuplicateVoucher.Error()
		case 1452:
			ie := &IntegrityError{Voucher: voucher, Reason: "foreign key constraint fails"}
			return ie.Error()
		}
	}
	return err.Error()
}

func (l *Loader) reject(summary *RunSummary, head normalizedRow, entries int, reason string) {
	summary.RejectedVouchers = append(summary.RejectedVouchers, RejectedVoucher{
		Book:    head.bookLabel,
		Number:  head.number,
		Date:    head.date.String(),
		Reason:  reason,
		Entries: entries,
	})
	l.log.WithFields(logrus.Fields{
		"voucher": head.number,
		"book":    head.bookLabel,
		"date":    head.date.String(),
		"reason":  reason,
	}).Warn("voucher rejected")
}

// harvestDimensions backfills the optional project and party dimension
// tables from the auxiliary items of a committed voucher. Failures here are
// logged but never undo the voucher.
func (l *Loader) harvestDimensions(group []normalizedRow, companyID int) {
	for _, row := range group {
		for _, item := range row.aux {
			var err error
			switch item.Dimension {
			case models.DimensionProject:
				_, err = l.resolver.Project(item.Value, companyID)
			case models.DimensionSupplierCustomer, models.DimensionSupplier, models.DimensionCustomer:
				_, err = l.resolver.Party(item.Value, item.Dimension)
			}
			if err != nil {
				config.LogError(l.log, "ingest", "harvestDimensions", "dimension backfill", item.Value, err)
			}
		}
	}
}
