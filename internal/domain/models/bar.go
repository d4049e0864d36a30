package models

import "time"

// RawRow is one row of an ingested table before validation. The ingestion
// collaborators parse cells leniently: a numeric field that is empty or
// unparseable arrives as nil, and the date arrives as the original text so the
// cleaner can decide whether the row is salvageable.
type RawRow struct {
	Date   string
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *float64
}

// RawTable is the unit of work handed to the cleaning stage.
type RawTable struct {
	Symbol string
	Rows   []RawRow
}

// Bar is a validated daily OHLCV record. After cleaning, bars are strictly
// ascending by date, unique per date, fully populated and satisfy
// low <= open,close <= high and volume >= 0.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// FeatureRow is a Bar plus derived analytical features. Derived fields are nil
// while fewer than window prior rows exist; downstream stages must treat nil
// as "insufficient history", never as zero.
type FeatureRow struct {
	Bar
	PriceChangePct *float64
	Volatility     *float64
	VolumeZscore   *float64
	VolumeMA       *float64
	Momentum       *float64
}
