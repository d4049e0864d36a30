package models

// AnalyzeRequest asks for one symbol over a named period.
type AnalyzeRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,min=1,max=12"`
	Period string `query:"period" json:"period" validate:"omitempty,oneof=1mo 3mo 6mo 1y"`
}

// BatchRequest asks for a multi-symbol comparison.
type BatchRequest struct {
	Tickers []string `json:"tickers" validate:"required,min=1,max=50,dive,required"`
	Period  string   `json:"period" validate:"omitempty,oneof=1mo 3mo 6mo 1y"`
}
