package behavior

import (
	"math"

	"github.com/creasty/defaults"

	"stockmood/internal/domain/models"
)

// Thresholds is the full tuning surface for the behavior rules. The zero value
// is not meaningful; start from DefaultThresholds and override fields as
// needed. A Detector copies its Thresholds at construction, so concurrent
// analyses with different settings cannot interfere.
type Thresholds struct {
	PanicPrice         float64 `yaml:"panic_price_threshold" default:"-2.5"`
	PanicVolume        float64 `yaml:"panic_volume_threshold" default:"1.5"`
	PanicVolatility    float64 `yaml:"panic_volatility_threshold" default:"2.0"`
	FOMOPrice          float64 `yaml:"fomo_price_threshold" default:"2.5"`
	FOMOVolume         float64 `yaml:"fomo_volume_threshold" default:"1.5"`
	FOMOVolatility     float64 `yaml:"fomo_volatility_threshold" default:"1.5"`
	OverconfPrice      float64 `yaml:"overconf_price_threshold" default:"1.0"`
	OverconfVolume     float64 `yaml:"overconf_volume_threshold" default:"2.0"`
	OverconfVolatility float64 `yaml:"overconf_volatility_threshold" default:"1.8"`
}

func DefaultThresholds() Thresholds {
	var t Thresholds
	_ = defaults.Set(&t)
	return t
}

// Detector labels each trading session with one emotional-behavior category.
// Classification is stateless per row: the label depends only on that row's
// features, never on neighboring rows' labels.
type Detector struct {
	th Thresholds
}

func NewDetector(th Thresholds) *Detector {
	return &Detector{th: th}
}

// Detect classifies every feature row. Rules are evaluated in a fixed order,
// Panic Selling, then FOMO Buying, then Overconfidence, then Normal, and the
// first match wins. With default thresholds the first three are mutually
// exclusive by the sign of the price change; the order is the documented
// tie-break when user-edited thresholds overlap.
func (d *Detector) Detect(rows []models.FeatureRow) []models.BehaviorRow {
	out := make([]models.BehaviorRow, len(rows))
	for i, row := range rows {
		label, confidence := d.classify(row)
		out[i] = models.BehaviorRow{
			FeatureRow: row,
			Behavior:   label,
			Confidence: confidence,
		}
	}
	return out
}

// classify returns the label and a 0..100 confidence. Rows whose required
// features are still undefined (window not filled) are Normal with
// confidence 0.
func (d *Detector) classify(row models.FeatureRow) (models.Behavior, float64) {
	if row.PriceChangePct == nil || row.VolumeZscore == nil || row.Volatility == nil {
		return models.BehaviorNormal, 0
	}
	pct := *row.PriceChangePct
	z := *row.VolumeZscore
	vol := *row.Volatility
	th := d.th

	switch {
	case pct < th.PanicPrice && z > th.PanicVolume && vol > th.PanicVolatility:
		c := confidence(
			excess(th.PanicPrice-pct, th.PanicPrice),
			excess(z-th.PanicVolume, th.PanicVolume),
			excess(vol-th.PanicVolatility, th.PanicVolatility),
		)
		return models.BehaviorPanicSelling, c
	case pct > th.FOMOPrice && z > th.FOMOVolume && vol > th.FOMOVolatility:
		c := confidence(
			excess(pct-th.FOMOPrice, th.FOMOPrice),
			excess(z-th.FOMOVolume, th.FOMOVolume),
			excess(vol-th.FOMOVolatility, th.FOMOVolatility),
		)
		return models.BehaviorFOMOBuying, c
	case math.Abs(pct) < th.OverconfPrice && z > th.OverconfVolume && vol > th.OverconfVolatility:
		// Price change is near zero here by definition, so only the volume
		// anomaly carries signal strength.
		c := confidence(excess(z-th.OverconfVolume, th.OverconfVolume))
		return models.BehaviorOverconfidence, c
	}
	return models.BehaviorNormal, 0
}

// excess normalizes how far a value went past its threshold, relative to the
// threshold's magnitude. 0 means "barely matched", 1 means "matched by a full
// threshold's worth again".
func excess(over, threshold float64) float64 {
	denom := math.Abs(threshold)
	if denom == 0 {
		denom = 1
	}
	return over / denom
}

// confidence averages the normalized excesses, scales to 0..100 and clamps.
func confidence(excesses ...float64) float64 {
	sum := 0.0
	for _, e := range excesses {
		sum += e
	}
	c := sum / float64(len(excesses)) * 100
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
