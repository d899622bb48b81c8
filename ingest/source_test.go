package ingest_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/helitech/journal_backend/ingest"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadRowsCSVWithBOM(t *testing.T) {
	content := "\xEF\xBB\xBF月,日,核算账簿名称,凭证号,分录号,科目名称,借方-本币,贷方-本币\n" +
		"7,15,甲公司-主账,银付-0031,1,1002\\银行存款,\"542,884.60\",\n" +
		"7,15,甲公司-主账,银付-0031,2,2202\\应付账款,,\"542,884.60\"\n"
	path := writeTempCSV(t, "2025年7月.csv", content)

	headers, rows, err := ingest.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if headers[0] != "月" {
		t.Errorf("BOM not stripped, first header = %q", headers[0])
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Line != 1 || rows[1].Line != 2 {
		t.Errorf("line numbers = %d, %d", rows[0].Line, rows[1].Line)
	}
	if rows[0].Get("借方-本币") != "542,884.60" {
		t.Errorf("debit = %q", rows[0].Get("借方-本币"))
	}
	if rows[1].Get("贷方-本币") != "542,884.60" {
		t.Errorf("credit = %q", rows[1].Get("贷方-本币"))
	}
}

func TestReadRowsShortRecord(t *testing.T) {
	content := "月,日,核算账簿名称,凭证号,分录号,科目名称,借-本币,贷-本币\n" +
		"7,15,甲公司-主账,转-0001,1,1001\\库存现金\n"
	path := writeTempCSV(t, "2025年7月.csv", content)

	_, rows, err := ingest.ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if got := rows[0].Get("借-本币"); got != "" {
		t.Errorf("missing column = %q, want empty", got)
	}
}

func TestResolveColumns(t *testing.T) {
	wide := []string{"月", "日", "核算账簿名称", "凭证号", "分录号", "科目名称", "借方-本币", "贷方-本币"}
	cm, err := ingest.ResolveColumns(wide)
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	if cm.Debit != "借方-本币" || cm.Credit != "贷方-本币" {
		t.Errorf("got %+v", cm)
	}

	short := []string{"月", "日", "核算账簿名称", "凭证号", "分录号", "科目名称", "借-本币", "贷-本币"}
	cm, err = ingest.ResolveColumns(short)
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	if cm.Debit != "借-本币" || cm.Credit != "贷-本币" {
		t.Errorf("got %+v", cm)
	}

	if _, err := ingest.ResolveColumns([]string{"月", "日", "凭证号"}); err == nil {
		t.Error("missing required columns: want error")
	}
	noAmount := []string{"月", "日", "核算账簿名称", "凭证号", "分录号", "科目名称"}
	if _, err := ingest.ResolveColumns(noAmount); err == nil {
		t.Error("missing amount columns: want error")
	}
}

func TestYearFromFilename(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"2025年7月.csv", 2025},
		{"/data/2024年账.xlsx", 2024},
		{"export_2023.csv", 2023},
	}
	for _, tc := range cases {
		if got := ingest.YearFromFilename(tc.name); got != tc.want {
			t.Errorf("YearFromFilename(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
	if got := ingest.YearFromFilename("账簿.csv"); got != time.Now().Year() {
		t.Errorf("fallback year = %d", got)
	}
}

func TestListSourceFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.xlsx", "skip.txt", "c.CSV"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := ingest.ListSourceFiles(dir)
	if err != nil {
		t.Fatalf("ListSourceFiles: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("files = %v", files)
	}
	for _, f := range files {
		if filepath.Ext(f) == ".txt" {
			t.Errorf("unexpected file %s", f)
		}
	}
}
