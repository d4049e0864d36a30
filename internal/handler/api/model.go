package api

import (
	"time"

	"stockmood/internal/domain/models"
)

// SessionView is the wire shape of one classified session. Feature fields are
// pointers so sessions without enough history serialize as null, not zero.
type SessionView struct {
	Date            string   `json:"Date"`
	Open            float64  `json:"Open"`
	High            float64  `json:"High"`
	Low             float64  `json:"Low"`
	Close           float64  `json:"Close"`
	Volume          float64  `json:"Volume"`
	PriceChangePct  *float64 `json:"Price_Change_Pct"`
	Volatility      *float64 `json:"Volatility"`
	VolumeZscore    *float64 `json:"Volume_Zscore"`
	VolumeMA        *float64 `json:"Volume_MA20"`
	Momentum        *float64 `json:"Momentum"`
	Behavior        string   `json:"Behavior"`
	ConfidenceScore float64  `json:"Confidence_Score"`
}

// AnalyzeView is the full response payload for one symbol.
type AnalyzeView struct {
	Ticker   string               `json:"ticker"`
	Period   string               `json:"period"`
	Quality  models.QualityReport `json:"quality"`
	Data     []SessionView        `json:"data"`
	Summary  models.PeriodSummary `json:"summary"`
	Insights []models.Insight     `json:"insights"`
}

// BatchView is the response payload for a multi-symbol run.
type BatchView struct {
	Period string            `json:"period"`
	Rows   []models.BatchRow `json:"rows"`
}

func sessionViews(rows []models.BehaviorRow, limit int) []SessionView {
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	out := make([]SessionView, len(rows))
	for i, row := range rows {
		out[i] = SessionView{
			Date:            row.Date.Format(time.DateOnly),
			Open:            row.Open,
			High:            row.High,
			Low:             row.Low,
			Close:           row.Close,
			Volume:          row.Volume,
			PriceChangePct:  row.PriceChangePct,
			Volatility:      row.Volatility,
			VolumeZscore:    row.VolumeZscore,
			VolumeMA:        row.VolumeMA,
			Momentum:        row.Momentum,
			Behavior:        string(row.Behavior),
			ConfidenceScore: row.Confidence,
		}
	}
	return out
}

func analyzeView(result *models.SymbolResult, period string, limit int) *AnalyzeView {
	return &AnalyzeView{
		Ticker:   result.Symbol,
		Period:   period,
		Quality:  result.Quality,
		Data:     sessionViews(result.Rows, limit),
		Summary:  result.Summary,
		Insights: result.Insights,
	}
}
