package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/xuri/excelize/v2"

	"stockmood/internal/domain/models"
)

// batchHeader is the column order of the multi-symbol comparison table.
var batchHeader = []string{
	"Stock", "Panic_Selling_Days", "FOMO_Days", "Overconfidence_Days",
	"Avg_Volatility", "Total_Return",
}

// WriteBatchCSV writes the comparison table as CSV. Failed symbols are
// skipped; they carry no comparable numbers.
func WriteBatchCSV(w io.Writer, rows []models.BatchRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(batchHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range rows {
		if row.Err != "" {
			continue
		}
		record := []string{
			row.Symbol,
			strconv.Itoa(row.PanicSellingDays),
			strconv.Itoa(row.FOMODays),
			strconv.Itoa(row.OverconfidenceDays),
			strconv.FormatFloat(row.AvgVolatility, 'f', 2, 64),
			strconv.FormatFloat(row.TotalReturn, 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("csv: write row %s: %w", row.Symbol, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteBatchXLSX writes the comparison table as a single-sheet workbook.
func WriteBatchXLSX(w io.Writer, rows []models.BatchRow) error {
	book := excelize.NewFile()
	defer book.Close()
	sheet := book.GetSheetName(0)

	header := make([]interface{}, len(batchHeader))
	for i, h := range batchHeader {
		header[i] = h
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	line := 2
	for _, row := range rows {
		if row.Err != "" {
			continue
		}
		cells := []interface{}{
			row.Symbol, row.PanicSellingDays, row.FOMODays,
			row.OverconfidenceDays, row.AvgVolatility, row.TotalReturn,
		}
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return fmt.Errorf("xlsx: cell name: %w", err)
		}
		if err := book.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("xlsx: write row %s: %w", row.Symbol, err)
		}
		line++
	}
	if err := book.Write(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}

// RenderBatchTable renders the comparison table for the terminal. Failed
// symbols show their error instead of numbers.
func RenderBatchTable(w io.Writer, rows []models.BatchRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Stock", "Panic", "FOMO", "Overconf", "Avg Vol", "Return %", "Quality"})
	for _, row := range rows {
		if row.Err != "" {
			t.AppendRow(table.Row{row.Symbol, "-", "-", "-", "-", "-", row.Err})
			continue
		}
		t.AppendRow(table.Row{
			row.Symbol,
			row.PanicSellingDays,
			row.FOMODays,
			row.OverconfidenceDays,
			fmt.Sprintf("%.2f", row.AvgVolatility),
			fmt.Sprintf("%.2f", row.TotalReturn),
			fmt.Sprintf("%.0f", row.QualityScore),
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
