package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Source file access. Ledger exports arrive as UTF-8 CSV (often with a BOM)
// or as the same sheet saved to XLSX; both are read into header-keyed rows.

// Row is one data row of a source file, keyed by header name. Line is the
// 1-based data row number used in skip reports.
type Row struct {
	File   string
	Line   int
	Fields map[string]string
}

func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

// ColumnMap resolves the source columns that vary between export layouts.
// Some files write 借方-本币/贷方-本币, others the short 借-本币/贷-本币.
type ColumnMap struct {
	Debit  string
	Credit string
}

var (
	debitAliases  = []string{"借方-本币", "借-本币"}
	creditAliases = []string{"贷方-本币", "贷-本币"}

	requiredColumns = []string{"月", "日", "核算账簿名称", "凭证号", "分录号", "科目名称"}
)

// ResolveColumns checks a header row against the required column set and
// picks the amount column variants present in this file. A header that
// satisfies neither alias list is a schema mismatch for the whole file.
func ResolveColumns(headers []string) (ColumnMap, error) {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}
	for _, col := range requiredColumns {
		if !present[col] {
			return ColumnMap{}, fmt.Errorf("missing required column %q", col)
		}
	}
	var cm ColumnMap
	for _, alias := range debitAliases {
		if present[alias] {
			cm.Debit = alias
			break
		}
	}
	for _, alias := range creditAliases {
		if present[alias] {
			cm.Credit = alias
			break
		}
	}
	if cm.Debit == "" || cm.Credit == "" {
		return ColumnMap{}, fmt.Errorf("no amount columns found, want one of %v and %v", debitAliases, creditAliases)
	}
	return cm, nil
}

var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})年`),
	regexp.MustCompile(`(20\d{2})`),
}

// YearFromFilename extracts the accounting year from names like
// "2025年7月.csv". Files without a recognizable year fall back to the
// current year.
func YearFromFilename(name string) int {
	base := filepath.Base(name)
	for _, p := range yearPatterns {
		if m := p.FindStringSubmatch(base); m != nil {
			var year int
			fmt.Sscanf(m[1], "%d", &year)
			return year
		}
	}
	return time.Now().Year()
}

// ListSourceFiles returns the loadable files under dir, sorted by name so
// runs are deterministic.
func ListSourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".xlsx":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ReadRows loads a source file into header-keyed rows. The format is picked
// by extension.
func ReadRows(path string) ([]string, []Row, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	return readCSV(path)
}

func readCSV(path string) ([]string, []Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var rows []Row
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		line++
		rows = append(rows, rowFromRecord(path, line, headers, record))
	}
	return headers, rows, nil
}

func readXLSX(path string) ([]string, []Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s of %s: %w", sheet, path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty sheet %s in %s", sheet, path)
	}

	headers := records[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	var rows []Row
	for i, record := range records[1:] {
		rows = append(rows, rowFromRecord(path, i+1, headers, record))
	}
	return headers, rows, nil
}

func rowFromRecord(path string, line int, headers, record []string) Row {
	fields := make(map[string]string, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(record) {
			fields[h] = record[i]
		} else {
			fields[h] = ""
		}
	}
	return Row{File: filepath.Base(path), Line: line, Fields: fields}
}
