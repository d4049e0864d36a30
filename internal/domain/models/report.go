package models

// CleaningAudit records every repair and removal a cleaning pass performed on
// one table. It exists only to feed the quality scorer and is discarded after
// the score is computed.
type CleaningAudit struct {
	RowsBefore        int
	RowsAfter         int
	MissingFound      int
	MissingRepaired   int
	DuplicatesRemoved int
	OutliersDetected  int
	OutliersRemoved   int
	InvalidDates      int
	InvalidRange      int
	Unrepairable      int
}

// Removed returns the total number of rows dropped by the cleaning pass.
func (a CleaningAudit) Removed() int {
	return a.RowsBefore - a.RowsAfter
}

// QualityReport summarizes how much repair a cleaning pass had to perform.
type QualityReport struct {
	RowsBefore int     `json:"total_rows_before"`
	RowsAfter  int     `json:"total_rows_after"`
	Score      float64 `json:"score"`
	Rating     string  `json:"rating"`
}

// PeriodSummary aggregates one symbol's behavior rows into period statistics.
type PeriodSummary struct {
	Total         int            `json:"total"`
	Behaviors     map[string]int `json:"behaviors"`
	RiskPct       float64        `json:"risk_pct"`
	RiskLabel     string         `json:"risk_label"`
	TotalReturn   float64        `json:"total_return"`
	AvgVolatility float64        `json:"avg_volatility"`
	MaxVolatility float64        `json:"max_volatility"`
	StartPrice    float64        `json:"start_price"`
	EndPrice      float64        `json:"end_price"`
	MaxPrice      float64        `json:"max_price"`
	MinPrice      float64        `json:"min_price"`
}

// Insight is one natural-language observation derived from recent behavior.
// Type is one of warning, caution, info, success.
type Insight struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// SymbolResult is the full outcome of one symbol's pipeline run.
type SymbolResult struct {
	Symbol   string
	Rows     []BehaviorRow
	Quality  QualityReport
	Summary  PeriodSummary
	Insights []Insight
}

// BatchRow is one line of the multi-symbol comparison table. Err is set when
// the symbol's analysis failed; such rows are excluded from aggregates.
type BatchRow struct {
	Symbol             string  `json:"stock"`
	PanicSellingDays   int     `json:"panic_selling_days"`
	FOMODays           int     `json:"fomo_days"`
	OverconfidenceDays int     `json:"overconfidence_days"`
	AvgVolatility      float64 `json:"avg_volatility"`
	TotalReturn        float64 `json:"total_return"`
	QualityScore       float64 `json:"quality_score"`
	Err                string  `json:"error,omitempty"`
}
