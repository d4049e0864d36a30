package ingest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	in := strings.Join([]string{
		"Date,Open,High,Low,Close,Volume",
		"2024-01-01,100,102,99,101,1000000",
		"2024-01-02,101,103,100,102,1100000",
	}, "\n")
	rows, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Date != "2024-01-01" || *rows[0].Close != 101 || *rows[1].Volume != 1100000 {
		t.Fatalf("rows parsed wrong: %+v", rows)
	}
}

func TestReadCSVLenientHeaders(t *testing.T) {
	in := strings.Join([]string{
		"timestamp, o ,H,l,Adj Close,vol,ignored",
		"2024-01-01,100,102,99,101,1000000,junk",
	}, "\n")
	rows, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].Date != "2024-01-01" || *rows[0].Open != 100 ||
		*rows[0].High != 102 || *rows[0].Low != 99 ||
		*rows[0].Close != 101 || *rows[0].Volume != 1000000 {
		t.Fatalf("alias headers parsed wrong: %+v", rows[0])
	}
}

func TestReadCSVMalformedCells(t *testing.T) {
	in := strings.Join([]string{
		"Date,Open,High,Low,Close,Volume",
		`2024-01-01,"1,234.5",102,,n/a,1000000`,
	}, "\n")
	rows, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *rows[0].Open != 1234.5 {
		t.Fatalf("thousands separator: got %v", *rows[0].Open)
	}
	if rows[0].Low != nil || rows[0].Close != nil {
		t.Fatalf("empty and non-numeric cells must be nil: %+v", rows[0])
	}
}

func TestReadCSVMissingColumns(t *testing.T) {
	in := "Date,Open,Close\n2024-01-01,100,101\n"
	_, err := ReadCSV(strings.NewReader(in))
	if err == nil || !strings.Contains(err.Error(), "missing columns") {
		t.Fatalf("expected missing-columns error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Volume") {
		t.Fatalf("error should name missing columns, got %v", err)
	}
}

func TestReadXLSX(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	header := []interface{}{"Date", "Open", "High", "Low", "Close", "Volume"}
	_ = book.SetSheetRow(sheet, "A1", &header)
	row := []interface{}{"2024-01-01", 100, 102, 99, 101, 1000000}
	_ = book.SetSheetRow(sheet, "A2", &row)

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, err := ReadXLSX(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Date != "2024-01-01" || *rows[0].Close != 101 {
		t.Fatalf("xlsx parsed wrong: %+v", rows)
	}
}

func TestReadJSON(t *testing.T) {
	in := `[
		{"date":"2024-01-01","open":100,"high":102,"low":99,"close":101,"volume":1000000},
		{"Date":"2024-01-02","Open":101,"High":103,"Low":100,"Close":102}
	]`
	rows, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Volume != nil {
		t.Fatalf("absent key must stay nil, got %v", *rows[1].Volume)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aapl.csv")
	content := "Date,Open,High,Low,Close,Volume\n2024-01-01,100,102,99,101,1000000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := ReadFile(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Symbol != "AAPL" {
		t.Fatalf("symbol should default to file name, got %s", table.Symbol)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
}

func TestReadUnsupportedFormat(t *testing.T) {
	_, err := Read(strings.NewReader("x"), ".parquet")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
