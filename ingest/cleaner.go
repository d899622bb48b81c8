package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helitech/journal_backend/models"
)

// Field normalizers. All functions here are pure: they never touch the
// database and report failures through the error taxonomy in errors.go.

var amountReplacer = strings.NewReplacer(",", "", "，", "", "¥", "", "￥", "", "$", "", " ", "")

// CleanAmount parses a source amount cell into a decimal. Thousands
// separators and currency symbols are stripped first; anything left that
// does not parse as a signed decimal number is a malformed field. Empty
// cells mean no amount on that side and map to zero.
func CleanAmount(field, raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, nil
	}
	s = amountReplacer.Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &MalformedFieldError{Field: field, Raw: raw, Rule: "not a number after separator strip"}
	}
	return d, nil
}

// Date is a calendar day with its components broken out for the year/month/day
// columns on vouchers.
type Date struct {
	Year  int
	Month int
	Day   int
	Time  time.Time
}

func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// DateFromParts assembles a voucher date from the file-level year and the
// 月/日 columns of a row.
func DateFromParts(year int, monthRaw, dayRaw string) (Date, error) {
	month, err := strconv.Atoi(strings.TrimSpace(monthRaw))
	if err != nil {
		return Date{}, &MalformedFieldError{Field: "月", Raw: monthRaw, Rule: "not an integer"}
	}
	day, err := strconv.Atoi(strings.TrimSpace(dayRaw))
	if err != nil {
		return Date{}, &MalformedFieldError{Field: "日", Raw: dayRaw, Rule: "not an integer"}
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return Date{}, &MalformedFieldError{Field: "月/日", Raw: monthRaw + "/" + dayRaw, Rule: "not a calendar date"}
	}
	return Date{Year: year, Month: month, Day: day, Time: t}, nil
}

// BookInfo is the company / book-type pair extracted from a ledger label
// such as "兰州新区城市矿产与表后服务产业发展有限公司-7月账".
type BookInfo struct {
	CompanyName string
	BookType    string
}

// SplitBookLabel splits a ledger label on its first "-". Labels without the
// delimiter carry no company and cannot be resolved to a dimension row.
func SplitBookLabel(label string) (BookInfo, error) {
	s := strings.TrimSpace(label)
	if s == "" {
		return BookInfo{}, &UnresolvableEntityError{Kind: "account book", Raw: label}
	}
	i := strings.Index(s, "-")
	if i <= 0 {
		return BookInfo{}, &UnresolvableEntityError{Kind: "account book", Raw: label}
	}
	return BookInfo{
		CompanyName: strings.TrimSpace(s[:i]),
		BookType:    strings.TrimSpace(s[i+1:]),
	}, nil
}

// VoucherRef is a voucher number split into its type prefix and sequence.
type VoucherRef struct {
	Prefix   string
	Type     string
	Sequence string
}

// SplitVoucherNumber splits numbers like "银付-0031" into prefix and
// sequence and maps the prefix onto a display voucher type. Numbers without
// a delimiter keep the whole string as sequence with an unknown type.
func SplitVoucherNumber(num string) VoucherRef {
	s := strings.TrimSpace(num)
	i := strings.Index(s, "-")
	if i <= 0 {
		return VoucherRef{Prefix: "", Type: "未知", Sequence: s}
	}
	prefix := strings.TrimSpace(s[:i])
	return VoucherRef{
		Prefix:   prefix,
		Type:     models.NormalizeVoucherType(prefix),
		Sequence: strings.TrimSpace(s[i+1:]),
	}
}

// SubjectInfo is a normalized chart-of-accounts reference taken from a
// source 科目名称 cell such as `1002\银行存款\建行兰州新区分行`.
type SubjectInfo struct {
	Code     string
	Name     string
	FullName string
	Level    int
	Type     models.SubjectType
	Balance  models.BalanceSide
}

// ParseSubjectName splits a subject path on backslashes. The first segment
// is the numeric code, the last is the leaf display name, and the segment
// count is the hierarchy level.
func ParseSubjectName(raw string) (SubjectInfo, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return SubjectInfo{}, &MalformedFieldError{Field: "科目名称", Raw: raw, Rule: "empty subject"}
	}
	parts := strings.Split(s, "\\")
	code := strings.TrimSpace(parts[0])
	if code == "" {
		return SubjectInfo{}, &MalformedFieldError{Field: "科目名称", Raw: raw, Rule: "empty subject code"}
	}
	name := code
	if len(parts) > 1 {
		name = strings.TrimSpace(parts[len(parts)-1])
	}
	typ, side := models.ClassifySubjectCode(code)
	return SubjectInfo{
		Code:     code,
		Name:     name,
		FullName: s,
		Level:    len(parts),
		Type:     typ,
		Balance:  side,
	}, nil
}
