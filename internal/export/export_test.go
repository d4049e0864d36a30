package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"stockmood/internal/domain/models"
)

func sampleRows() []models.BatchRow {
	return []models.BatchRow{
		{Symbol: "AAPL", PanicSellingDays: 2, FOMODays: 1, OverconfidenceDays: 0,
			AvgVolatility: 1.52, TotalReturn: 8.4, QualityScore: 100},
		{Symbol: "EMPTY", Err: "no usable rows after cleaning"},
		{Symbol: "MSFT", PanicSellingDays: 0, FOMODays: 3, OverconfidenceDays: 1,
			AvgVolatility: 2.01, TotalReturn: -3.1, QualityScore: 92},
	}
}

func TestWriteBatchCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBatchCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	// header plus the two healthy symbols
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0][0] != "Stock" || records[0][5] != "Total_Return" {
		t.Fatalf("header wrong: %v", records[0])
	}
	if records[1][0] != "AAPL" || records[1][1] != "2" || records[1][5] != "8.40" {
		t.Fatalf("AAPL row wrong: %v", records[1])
	}
	if records[2][0] != "MSFT" {
		t.Fatalf("failed symbol must be skipped, got %v", records[2])
	}
}

func TestWriteBatchXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBatchXLSX(&buf, sampleRows()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	book, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer book.Close()

	records, err := book.GetRows(book.GetSheetName(0))
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}
	if records[1][0] != "AAPL" || records[2][0] != "MSFT" {
		t.Fatalf("symbol cells wrong: %v %v", records[1], records[2])
	}
}

func TestRenderBatchTable(t *testing.T) {
	var buf bytes.Buffer
	RenderBatchTable(&buf, sampleRows())
	out := buf.String()

	for _, want := range []string{"AAPL", "MSFT", "no usable rows"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered table missing %q:\n%s", want, out)
		}
	}
}
