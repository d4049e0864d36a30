package features

import (
	"math"

	"github.com/creasty/defaults"

	"stockmood/internal/domain/models"
)

// Config controls the rolling windows used for derived features.
type Config struct {
	// RollingWindow is the trailing window, in bars, for volatility,
	// volume z-score and the volume moving average.
	RollingWindow int `yaml:"rolling_window" default:"20" validate:"gte=1"`
	// MomentumLookback is the number of bars used for the momentum feature.
	MomentumLookback int `yaml:"momentum_lookback" default:"5" validate:"gte=1"`
}

// Engineer derives behavior features from cleaned daily bars. All windows are
// trailing, so a feature at index i only reads bars at indices <= i.
type Engineer struct {
	cfg Config
}

func NewEngineer(cfg Config) *Engineer {
	if cfg.RollingWindow <= 0 || cfg.MomentumLookback <= 0 {
		var d Config
		_ = defaults.Set(&d)
		if cfg.RollingWindow <= 0 {
			cfg.RollingWindow = d.RollingWindow
		}
		if cfg.MomentumLookback <= 0 {
			cfg.MomentumLookback = d.MomentumLookback
		}
	}
	return &Engineer{cfg: cfg}
}

// Compute returns one feature row per input bar, in the same order. Features
// whose window does not fit yet are left nil rather than zero so that
// downstream consumers can tell "no value" apart from "value of zero".
//
//	price_change_pct[i] = (close[i] - close[i-1]) / close[i-1] * 100
//	volatility[i]       = sample stddev of price_change_pct over the last W values
//	volume_zscore[i]    = (volume[i] - mean(volume, W)) / stddev(volume, W)
//	volume_ma[i]        = mean(volume, W)
//	momentum[i]         = close[i] - close[i-L]
func (e *Engineer) Compute(bars []models.Bar) []models.FeatureRow {
	if len(bars) == 0 {
		return nil
	}
	w := e.cfg.RollingWindow
	lookback := e.cfg.MomentumLookback

	rows := make([]models.FeatureRow, len(bars))
	changes := make([]float64, len(bars))
	for i := range bars {
		rows[i].Bar = bars[i]
		if i == 0 {
			continue
		}
		prev := bars[i-1].Close
		if prev <= 0 {
			continue
		}
		pct := (bars[i].Close - prev) / prev * 100
		changes[i] = pct
		rows[i].PriceChangePct = ptr(pct)
	}

	for i := range bars {
		// Volatility needs w consecutive price changes, and changes start
		// at index 1, so the first defined value is at index w.
		if i >= w {
			rows[i].Volatility = ptr(stddev(changes[i-w+1 : i+1]))
		}
		if i >= w-1 {
			vols := make([]float64, w)
			for j := 0; j < w; j++ {
				vols[j] = bars[i-w+1+j].Volume
			}
			mean := mean(vols)
			rows[i].VolumeMA = ptr(mean)
			sd := stddev(vols)
			z := 0.0
			if sd > 0 {
				z = (bars[i].Volume - mean) / sd
			}
			rows[i].VolumeZscore = ptr(z)
		}
		if i >= lookback {
			rows[i].Momentum = ptr(bars[i].Close - bars[i-lookback].Close)
		}
	}
	return rows
}

func ptr(v float64) *float64 { return &v }

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stddev is the sample standard deviation. A single-value window has no
// dispersion and yields 0.
func stddev(vals []float64) float64 {
	n := float64(len(vals))
	if n < 2 {
		return 0
	}
	m := mean(vals)
	sum2 := 0.0
	for _, v := range vals {
		d := v - m
		sum2 += d * d
	}
	variance := sum2 / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
