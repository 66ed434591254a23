package volatility

import (
	"math"

	"github.com/markcheno/go-talib"

	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// Config holds ATR parameters
type Config struct {
	// Period is the Wilder smoothing window
	Period int
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{Period: 14}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c Config) Validate() error {
	if c.Period < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "atr period must be >= 1, got %d", c.Period)
	}
	return nil
}

// TrueRange at bar i: max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close and uses high-low.
func TrueRange(bars []market_data.OHLCV, i int) float64 {
	hl := bars[i].High - bars[i].Low
	if i == 0 {
		return hl
	}
	hc := math.Abs(bars[i].High - bars[i-1].Close)
	lc := math.Abs(bars[i].Low - bars[i-1].Close)
	return math.Max(hl, math.Max(hc, lc))
}

// Series returns the ATR series aligned with bars. For len(bars) > period
// it delegates to ta-lib's Wilder-smoothed ATR; entries before the warmup
// window are zero. For shorter inputs it falls back to the running mean of
// whatever true-range values exist, so callers always get a usable scale.
func Series(bars []market_data.OHLCV, period int) []float64 {
	if period < 1 {
		period = 1
	}
	if len(bars) == 0 {
		return nil
	}

	if len(bars) > period {
		return talib.Atr(market_data.Highs(bars), market_data.Lows(bars), market_data.Closes(bars), period)
	}

	// Fallback: mean of available true ranges
	out := make([]float64, len(bars))
	sum := 0.0
	for i := range bars {
		sum += TrueRange(bars, i)
		out[i] = sum / float64(i+1)
	}
	return out
}

// Latest returns the most recent ATR value, or 0 when no bars exist.
// A zero ATR downstream means "no confirmation", never an error.
func Latest(bars []market_data.OHLCV, period int) float64 {
	series := Series(bars, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// At returns the ATR value in effect at bar index i. Indexes inside the
// warmup window report the latest fallback estimate available at i.
func At(bars []market_data.OHLCV, period int, i int) float64 {
	if i < 0 || i >= len(bars) {
		return 0
	}
	series := Series(bars, period)
	if series[i] > 0 {
		return series[i]
	}
	// Warmup region of the ta-lib series: average the true ranges seen so far
	sum := 0.0
	for j := 0; j <= i; j++ {
		sum += TrueRange(bars, j)
	}
	return sum / float64(i+1)
}
