package insights

import (
	"fmt"

	"stockmood/internal/domain/models"
)

// Risk label bands for the share of non-Normal sessions in a period.
const (
	RiskHigh     = "High"
	RiskModerate = "Moderate"
	RiskLow      = "Low"
)

// Insight severities, listed in the order insights are emitted.
const (
	InsightWarning = "warning"
	InsightCaution = "caution"
	InsightInfo    = "info"
	InsightSuccess = "success"
)

// recentWindow is how many of the latest sessions the insight rules inspect.
const recentWindow = 10

// clusterMin is the per-behavior count inside recentWindow that triggers an
// insight.
const clusterMin = 3

// Summarize reduces one symbol's behavior rows to period statistics. Rows must
// be in date order; the first and last rows bound the return calculation.
// Volatility statistics only consider rows where the feature is defined.
func Summarize(rows []models.BehaviorRow) models.PeriodSummary {
	summary := models.PeriodSummary{
		Behaviors: map[string]int{},
	}
	for _, b := range models.Behaviors {
		summary.Behaviors[string(b)] = 0
	}
	if len(rows) == 0 {
		summary.RiskLabel = RiskLow
		return summary
	}

	summary.Total = len(rows)
	summary.StartPrice = rows[0].Close
	summary.EndPrice = rows[len(rows)-1].Close
	summary.MaxPrice = rows[0].Close
	summary.MinPrice = rows[0].Close

	volSum := 0.0
	volCount := 0
	risky := 0
	for _, row := range rows {
		summary.Behaviors[string(row.Behavior)]++
		if row.Behavior != models.BehaviorNormal {
			risky++
		}
		if row.Close > summary.MaxPrice {
			summary.MaxPrice = row.Close
		}
		if row.Close < summary.MinPrice {
			summary.MinPrice = row.Close
		}
		if row.Volatility != nil {
			volSum += *row.Volatility
			volCount++
			if *row.Volatility > summary.MaxVolatility {
				summary.MaxVolatility = *row.Volatility
			}
		}
	}
	if volCount > 0 {
		summary.AvgVolatility = volSum / float64(volCount)
	}
	if summary.StartPrice != 0 {
		summary.TotalReturn = (summary.EndPrice - summary.StartPrice) / summary.StartPrice * 100
	}
	summary.RiskPct = float64(risky) / float64(len(rows)) * 100
	summary.RiskLabel = riskLabel(summary.RiskPct)
	return summary
}

func riskLabel(pct float64) string {
	switch {
	case pct > 30:
		return RiskHigh
	case pct >= 20:
		return RiskModerate
	default:
		return RiskLow
	}
}

// Generate derives rule-based observations from the most recent sessions.
// Rules are independent, so several insights can co-occur; when none of the
// cluster rules fire and every recent session is Normal, a single calm-market
// insight is produced instead.
func Generate(rows []models.BehaviorRow) []models.Insight {
	if len(rows) == 0 {
		return nil
	}
	recent := rows
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	counts := map[models.Behavior]int{}
	for _, row := range recent {
		counts[row.Behavior]++
	}

	var out []models.Insight
	if n := counts[models.BehaviorPanicSelling]; n >= clusterMin {
		out = append(out, models.Insight{
			Type:  InsightWarning,
			Title: "Panic selling cluster",
			Text: fmt.Sprintf("%d of the last %d sessions show panic selling; "+
				"heavy capitulation can mark a contrarian buying opportunity", n, len(recent)),
		})
	}
	if n := counts[models.BehaviorFOMOBuying]; n >= clusterMin {
		out = append(out, models.Insight{
			Type:  InsightCaution,
			Title: "FOMO buying cluster",
			Text: fmt.Sprintf("%d of the last %d sessions show FOMO buying; "+
				"the stock may be overbought and due for a pullback", n, len(recent)),
		})
	}
	if n := counts[models.BehaviorOverconfidence]; n >= clusterMin {
		out = append(out, models.Insight{
			Type:  InsightInfo,
			Title: "Volume without direction",
			Text: fmt.Sprintf("%d of the last %d sessions traded heavy volume with "+
				"little price movement; the market looks undecided", n, len(recent)),
		})
	}
	if len(out) == 0 && counts[models.BehaviorNormal] == len(recent) {
		out = append(out, models.Insight{
			Type:  InsightSuccess,
			Title: "Calm trading",
			Text: fmt.Sprintf("all of the last %d sessions look normal; "+
				"no emotional extremes detected", len(recent)),
		})
	}
	return out
}
