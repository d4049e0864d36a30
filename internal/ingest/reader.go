package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"stockmood/internal/domain/models"
)

// ErrUnsupportedFormat is returned for file extensions the reader cannot parse.
var ErrUnsupportedFormat = fmt.Errorf("unsupported file format, use csv, xlsx or json")

// ReadFile loads raw OHLCV rows from a file, picking the parser by extension.
// The symbol defaults to the file name without extension when empty.
func ReadFile(path, symbol string) (models.RawTable, error) {
	if symbol == "" {
		symbol = strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	f, err := os.Open(path)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Read(f, filepath.Ext(path))
	if err != nil {
		return models.RawTable{}, fmt.Errorf("read %s: %w", path, err)
	}
	return models.RawTable{Symbol: symbol, Rows: rows}, nil
}

// Read parses raw rows from r in the format implied by ext (".csv", ".xlsx",
// ".json", case-insensitive).
func Read(r io.Reader, ext string) ([]models.RawRow, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx", ".xls":
		return ReadXLSX(r)
	case ".json":
		return ReadJSON(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ReadCSV parses a headered CSV stream. Header names are matched leniently
// against common OHLCV spellings; extra columns are ignored.
func ReadCSV(r io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	mapping, found := resolveHeader(header)
	if missing := missingColumns(found); len(missing) > 0 {
		return nil, fmt.Errorf("csv: missing columns: %s", strings.Join(missing, ", "))
	}

	var rows []models.RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}
		rows = append(rows, assemble(mapping, record))
	}
	return rows, nil
}

// ReadXLSX parses the first sheet of an xlsx workbook, treating the first row
// as the header.
func ReadXLSX(r io.Reader) ([]models.RawRow, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx: no sheets")
	}
	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("xlsx: read sheet %s: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("xlsx: empty sheet")
	}

	mapping, found := resolveHeader(records[0])
	if missing := missingColumns(found); len(missing) > 0 {
		return nil, fmt.Errorf("xlsx: missing columns: %s", strings.Join(missing, ", "))
	}

	rows := make([]models.RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, assemble(mapping, record))
	}
	return rows, nil
}

// jsonRecord mirrors one element of a JSON records array. Pointer fields keep
// "absent" distinct from zero.
type jsonRecord struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

// ReadJSON parses an array of OHLCV records. Keys are matched
// case-insensitively, which encoding/json already does for exported fields.
func ReadJSON(r io.Reader) ([]models.RawRow, error) {
	var records []jsonRecord
	dec := json.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("json: decode: %w", err)
	}
	rows := make([]models.RawRow, len(records))
	for i, rec := range records {
		rows[i] = models.RawRow{
			Date:   strings.TrimSpace(rec.Date),
			Open:   rec.Open,
			High:   rec.High,
			Low:    rec.Low,
			Close:  rec.Close,
			Volume: rec.Volume,
		}
	}
	return rows, nil
}
