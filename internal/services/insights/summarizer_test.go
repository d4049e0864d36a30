package insights

import (
	"math"
	"testing"
	"time"

	"stockmood/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

func behaviorRow(day int, close float64, vol *float64, b models.Behavior) models.BehaviorRow {
	return models.BehaviorRow{
		FeatureRow: models.FeatureRow{
			Bar: models.Bar{
				Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
				Close: close,
			},
			Volatility: vol,
		},
		Behavior: b,
	}
}

func TestSummarize(t *testing.T) {
	rows := []models.BehaviorRow{
		behaviorRow(0, 100, nil, models.BehaviorNormal),
		behaviorRow(1, 95, fp(2.0), models.BehaviorPanicSelling),
		behaviorRow(2, 99, fp(3.0), models.BehaviorFOMOBuying),
		behaviorRow(3, 110, fp(1.0), models.BehaviorNormal),
	}
	s := Summarize(rows)

	if s.Total != 4 {
		t.Fatalf("total: got %d", s.Total)
	}
	if s.Behaviors[string(models.BehaviorNormal)] != 2 ||
		s.Behaviors[string(models.BehaviorPanicSelling)] != 1 ||
		s.Behaviors[string(models.BehaviorFOMOBuying)] != 1 ||
		s.Behaviors[string(models.BehaviorOverconfidence)] != 0 {
		t.Fatalf("behavior counts wrong: %v", s.Behaviors)
	}
	if s.RiskPct != 50 || s.RiskLabel != RiskHigh {
		t.Fatalf("risk: got %v/%s", s.RiskPct, s.RiskLabel)
	}
	if s.TotalReturn != 10 {
		t.Fatalf("total return: got %v", s.TotalReturn)
	}
	if math.Abs(s.AvgVolatility-2.0) > 1e-9 || s.MaxVolatility != 3.0 {
		t.Fatalf("volatility stats: avg=%v max=%v", s.AvgVolatility, s.MaxVolatility)
	}
	if s.StartPrice != 100 || s.EndPrice != 110 || s.MaxPrice != 110 || s.MinPrice != 95 {
		t.Fatalf("price stats: %+v", s)
	}
}

func TestSummarizeRiskLabels(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{50, RiskHigh},
		{30.1, RiskHigh},
		{30, RiskModerate},
		{20, RiskModerate},
		{19.9, RiskLow},
		{0, RiskLow},
	}
	for _, tc := range cases {
		if got := riskLabel(tc.pct); got != tc.want {
			t.Fatalf("riskLabel(%v) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.RiskPct != 0 || s.RiskLabel != RiskLow {
		t.Fatalf("empty summary: %+v", s)
	}
	if len(s.Behaviors) != len(models.Behaviors) {
		t.Fatalf("expected zeroed counts for every label, got %v", s.Behaviors)
	}
}

func TestGeneratePanicCluster(t *testing.T) {
	var rows []models.BehaviorRow
	for i := 0; i < 20; i++ {
		rows = append(rows, behaviorRow(i, 100, nil, models.BehaviorNormal))
	}
	// three panic sessions inside the last ten
	for _, i := range []int{12, 15, 19} {
		rows[i].Behavior = models.BehaviorPanicSelling
	}
	got := Generate(rows)

	if len(got) != 1 {
		t.Fatalf("expected one insight, got %d: %v", len(got), got)
	}
	if got[0].Type != InsightWarning {
		t.Fatalf("expected warning, got %s", got[0].Type)
	}
}

func TestGenerateOldClustersIgnored(t *testing.T) {
	var rows []models.BehaviorRow
	for i := 0; i < 20; i++ {
		rows = append(rows, behaviorRow(i, 100, nil, models.BehaviorNormal))
	}
	// panic cluster entirely outside the recent window
	for _, i := range []int{0, 2, 4, 6} {
		rows[i].Behavior = models.BehaviorPanicSelling
	}
	got := Generate(rows)

	if len(got) != 1 || got[0].Type != InsightSuccess {
		t.Fatalf("expected only the calm-market insight, got %v", got)
	}
}

func TestGenerateCoOccurringInsights(t *testing.T) {
	var rows []models.BehaviorRow
	for i := 0; i < 10; i++ {
		b := models.BehaviorNormal
		switch {
		case i < 3:
			b = models.BehaviorPanicSelling
		case i < 6:
			b = models.BehaviorFOMOBuying
		case i < 9:
			b = models.BehaviorOverconfidence
		}
		rows = append(rows, behaviorRow(i, 100, nil, b))
	}
	got := Generate(rows)

	if len(got) != 3 {
		t.Fatalf("expected three insights, got %d: %v", len(got), got)
	}
	if got[0].Type != InsightWarning || got[1].Type != InsightCaution || got[2].Type != InsightInfo {
		t.Fatalf("wrong order: %s %s %s", got[0].Type, got[1].Type, got[2].Type)
	}
}

func TestGenerateAllNormal(t *testing.T) {
	var rows []models.BehaviorRow
	for i := 0; i < 5; i++ {
		rows = append(rows, behaviorRow(i, 100, nil, models.BehaviorNormal))
	}
	got := Generate(rows)

	if len(got) != 1 || got[0].Type != InsightSuccess {
		t.Fatalf("expected calm-market insight, got %v", got)
	}
}

func TestGenerateEmpty(t *testing.T) {
	if got := Generate(nil); got != nil {
		t.Fatalf("expected no insights for empty input, got %v", got)
	}
}
