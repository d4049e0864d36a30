package ingest

import (
	"strconv"
	"strings"

	"stockmood/internal/domain/models"
)

type column int

const (
	colDate column = iota
	colOpen
	colHigh
	colLow
	colClose
	colVolume
	numColumns
)

// columnAliases maps the header spellings seen in the wild onto canonical
// columns. Lookup is case-insensitive and whitespace-trimmed.
var columnAliases = map[string]column{
	"date":           colDate,
	"datetime":       colDate,
	"timestamp":      colDate,
	"time":           colDate,
	"open":           colOpen,
	"o":              colOpen,
	"high":           colHigh,
	"h":              colHigh,
	"low":            colLow,
	"l":              colLow,
	"close":          colClose,
	"c":              colClose,
	"adj close":      colClose,
	"adjusted close": colClose,
	"volume":         colVolume,
	"vol":            colVolume,
	"v":              colVolume,
}

func canonical(header string) (column, bool) {
	c, ok := columnAliases[strings.ToLower(strings.TrimSpace(header))]
	return c, ok
}

// resolveHeader maps each header cell to its canonical column, or -1 for
// columns the pipeline does not use. Returns the set of canonical columns
// found.
func resolveHeader(header []string) ([]column, map[column]bool) {
	mapping := make([]column, len(header))
	found := make(map[column]bool, numColumns)
	for i, name := range header {
		c, ok := canonical(name)
		if !ok || found[c] {
			mapping[i] = -1
			continue
		}
		mapping[i] = c
		found[c] = true
	}
	return mapping, found
}

func missingColumns(found map[column]bool) []string {
	names := []string{"Date", "Open", "High", "Low", "Close", "Volume"}
	var missing []string
	for c := colDate; c < numColumns; c++ {
		if !found[c] {
			missing = append(missing, names[c])
		}
	}
	return missing
}

// parseCell turns one numeric cell into a nullable value. Unparseable or
// empty cells become nil and are left for the cleaner to repair.
func parseCell(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// assemble builds a raw row from one record using the header mapping.
func assemble(mapping []column, record []string) models.RawRow {
	var row models.RawRow
	for i, c := range mapping {
		if c < 0 || i >= len(record) {
			continue
		}
		switch c {
		case colDate:
			row.Date = strings.TrimSpace(record[i])
		case colOpen:
			row.Open = parseCell(record[i])
		case colHigh:
			row.High = parseCell(record[i])
		case colLow:
			row.Low = parseCell(record[i])
		case colClose:
			row.Close = parseCell(record[i])
		case colVolume:
			row.Volume = parseCell(record[i])
		}
	}
	return row
}
