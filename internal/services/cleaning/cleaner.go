package cleaning

import (
	"math"
	"sort"
	"time"

	"stockmood/internal/domain/models"
	"stockmood/pkg/util"
)

// DefaultIQRMultiplier is the distance from the nearest quartile boundary,
// in multiples of the interquartile range, beyond which a price is an outlier.
const DefaultIQRMultiplier = 3.0

// Cleaner repairs a raw table into a well-formed daily OHLCV series. It never
// fails on malformed input: every row is either repaired or dropped, and every
// action is recorded in the audit.
type Cleaner struct {
	iqrMultiplier float64
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithIQRMultiplier overrides the outlier cut-off multiplier.
func WithIQRMultiplier(m float64) Option {
	return func(c *Cleaner) {
		if m > 0 {
			c.iqrMultiplier = m
		}
	}
}

// NewCleaner creates a Cleaner with default settings.
func NewCleaner(opts ...Option) *Cleaner {
	c := &Cleaner{iqrMultiplier: DefaultIQRMultiplier}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type workRow struct {
	date  time.Time
	order int
	vals  [numericFields]*float64
}

const (
	fieldOpen = iota
	fieldHigh
	fieldLow
	fieldClose
	fieldVolume
	numericFields
)

// priceFields are subject to IQR outlier detection; volume is not.
var priceFields = []int{fieldOpen, fieldHigh, fieldLow, fieldClose}

// Clean validates and repairs rows. The returned bars are strictly ascending
// by date with no duplicate dates; this postcondition holds for any input.
func (c *Cleaner) Clean(rows []models.RawRow) ([]models.Bar, models.CleaningAudit) {
	audit := models.CleaningAudit{RowsBefore: len(rows)}
	if len(rows) == 0 {
		return nil, audit
	}

	work := c.parseDates(rows, &audit)
	sortByDate(work)
	work = dedupeDates(work, &audit)
	work = c.fillMissing(work, &audit)

	bars := materialize(work)
	bars = c.removeOutliers(bars, &audit)
	bars = enforceRange(bars, &audit)

	audit.RowsAfter = len(bars)
	if len(bars) == 0 {
		return nil, audit
	}
	return bars, audit
}

// parseDates drops rows whose date cannot be parsed.
func (c *Cleaner) parseDates(rows []models.RawRow, audit *models.CleaningAudit) []workRow {
	work := make([]workRow, 0, len(rows))
	for i, r := range rows {
		d, ok := util.ParseDate(r.Date)
		if !ok {
			audit.InvalidDates++
			continue
		}
		work = append(work, workRow{
			date:  d,
			order: i,
			vals:  [numericFields]*float64{r.Open, r.High, r.Low, r.Close, r.Volume},
		})
	}
	return work
}

func sortByDate(work []workRow) {
	sort.SliceStable(work, func(i, j int) bool {
		if !work[i].date.Equal(work[j].date) {
			return work[i].date.Before(work[j].date)
		}
		return work[i].order < work[j].order
	})
}

// dedupeDates keeps, for each date, the row with the fewest missing numeric
// fields; on a tie the earliest input row wins.
func dedupeDates(work []workRow, audit *models.CleaningAudit) []workRow {
	out := work[:0]
	for i := 0; i < len(work); {
		j := i + 1
		for j < len(work) && work[j].date.Equal(work[i].date) {
			j++
		}
		best := i
		for k := i + 1; k < j; k++ {
			if missingCount(work[k]) < missingCount(work[best]) {
				best = k
			}
		}
		audit.DuplicatesRemoved += j - i - 1
		out = append(out, work[best])
		i = j
	}
	return out
}

func missingCount(w workRow) int {
	n := 0
	for _, v := range w.vals {
		if v == nil {
			n++
		}
	}
	return n
}

// fillMissing forward-fills each numeric column from the prior valid row,
// back-filling from the next valid row when no prior exists. A column with no
// valid value at all cannot be repaired; the whole table is dropped in that
// case since every row lacks the field.
func (c *Cleaner) fillMissing(work []workRow, audit *models.CleaningAudit) []workRow {
	if len(work) == 0 {
		return work
	}
	for f := 0; f < numericFields; f++ {
		valid := 0
		for _, w := range work {
			if w.vals[f] != nil {
				valid++
			} else {
				audit.MissingFound++
			}
		}
		if valid == 0 {
			audit.Unrepairable += len(work)
			return nil
		}
	}
	for f := 0; f < numericFields; f++ {
		var prev *float64
		for i := range work {
			if work[i].vals[f] != nil {
				prev = work[i].vals[f]
				continue
			}
			if prev != nil {
				v := *prev
				work[i].vals[f] = &v
				audit.MissingRepaired++
				continue
			}
			// No prior value yet: back-fill from the next valid row.
			for j := i + 1; j < len(work); j++ {
				if work[j].vals[f] != nil {
					v := *work[j].vals[f]
					work[i].vals[f] = &v
					audit.MissingRepaired++
					break
				}
			}
			prev = work[i].vals[f]
		}
	}
	return work
}

func materialize(work []workRow) []models.Bar {
	bars := make([]models.Bar, 0, len(work))
	for _, w := range work {
		bars = append(bars, models.Bar{
			Date:   w.date,
			Open:   *w.vals[fieldOpen],
			High:   *w.vals[fieldHigh],
			Low:    *w.vals[fieldLow],
			Close:  *w.vals[fieldClose],
			Volume: *w.vals[fieldVolume],
		})
	}
	return bars
}

// removeOutliers drops rows where any price field sits more than
// iqrMultiplier x IQR outside the quartile boundaries of its whole series.
// Outlier rows are removed, not clamped.
func (c *Cleaner) removeOutliers(bars []models.Bar, audit *models.CleaningAudit) []models.Bar {
	if len(bars) < 4 {
		return bars
	}
	drop := make([]bool, len(bars))
	for _, f := range priceFields {
		series := make([]float64, len(bars))
		for i, b := range bars {
			series[i] = priceField(b, f)
		}
		q1 := quantile(series, 0.25)
		q3 := quantile(series, 0.75)
		iqr := q3 - q1
		lo := q1 - c.iqrMultiplier*iqr
		hi := q3 + c.iqrMultiplier*iqr
		for i, v := range series {
			if v < lo || v > hi {
				drop[i] = true
			}
		}
	}
	out := bars[:0]
	for i, b := range bars {
		if drop[i] {
			audit.OutliersDetected++
			audit.OutliersRemoved++
			continue
		}
		out = append(out, b)
	}
	return out
}

func priceField(b models.Bar, f int) float64 {
	switch f {
	case fieldOpen:
		return b.Open
	case fieldHigh:
		return b.High
	case fieldLow:
		return b.Low
	default:
		return b.Close
	}
}

// enforceRange drops rows violating low <= open,close <= high or volume >= 0.
func enforceRange(bars []models.Bar, audit *models.CleaningAudit) []models.Bar {
	out := bars[:0]
	for _, b := range bars {
		if b.Low > b.High || b.Open < b.Low || b.Open > b.High ||
			b.Close < b.Low || b.Close > b.High || b.Volume < 0 {
			audit.InvalidRange++
			continue
		}
		out = append(out, b)
	}
	return out
}

// quantile computes the p-quantile with linear interpolation between ranks.
func quantile(series []float64, p float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
