package volume

import (
	"github.com/markcheno/go-talib"

	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// RVOLClass buckets relative volume readings
type RVOLClass string

const (
	RVOLNoData   RVOLClass = "no_data"
	RVOLLow      RVOLClass = "low"
	RVOLNormal   RVOLClass = "normal"
	RVOLHigh     RVOLClass = "high"
	RVOLVeryHigh RVOLClass = "very_high"
	RVOLExtreme  RVOLClass = "extreme"
)

// Bias is the accumulation/distribution read of recent volume
type Bias string

const (
	BiasAccumulation Bias = "accumulation"
	BiasDistribution Bias = "distribution"
	BiasNeutral      Bias = "neutral"
)

// Config holds volume analysis parameters
type Config struct {
	// AveragePeriod is the rolling window for average volume
	AveragePeriod int
	// SpikeMultiple is how many times average volume counts as a spike
	SpikeMultiple float64
	// BreakoutMinRVOL is the relative volume a breakout bar needs for
	// positive confirmation
	BreakoutMinRVOL float64
	// BiasLookback is the window for accumulation/distribution voting
	BiasLookback int
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		AveragePeriod:   20,
		SpikeMultiple:   2.5,
		BreakoutMinRVOL: 1.5,
		BiasLookback:    20,
	}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c Config) Validate() error {
	if c.AveragePeriod < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "volume average_period must be >= 1, got %d", c.AveragePeriod)
	}
	if c.SpikeMultiple <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "volume spike_multiple must be > 0, got %f", c.SpikeMultiple)
	}
	if c.BreakoutMinRVOL <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "volume breakout_min_rvol must be > 0, got %f", c.BreakoutMinRVOL)
	}
	if c.BiasLookback < 2 {
		return errors.Wrapf(errors.ErrInvalidConfig, "volume bias_lookback must be >= 2, got %d", c.BiasLookback)
	}
	return nil
}

// RVOL returns the latest bar's volume relative to its rolling average.
// Zero average (dead market or insufficient data) reports 0, classified
// as no-data rather than failing.
func RVOL(bars []market_data.OHLCV, period int) float64 {
	return RVOLAt(bars, period, len(bars)-1)
}

// RVOLAt computes relative volume for the bar at index i against the
// average of the period bars before it
func RVOLAt(bars []market_data.OHLCV, period, i int) float64 {
	if i < 0 || i >= len(bars) {
		return 0
	}
	avg := averageBefore(bars, period, i)
	if avg <= 0 {
		return 0
	}
	return bars[i].Volume / avg
}

// Classify buckets an RVOL reading
func Classify(rvol float64) RVOLClass {
	switch {
	case rvol <= 0:
		return RVOLNoData
	case rvol < 0.5:
		return RVOLLow
	case rvol < 1.5:
		return RVOLNormal
	case rvol < 2.5:
		return RVOLHigh
	case rvol < 4.0:
		return RVOLVeryHigh
	default:
		return RVOLExtreme
	}
}

// IsSpike reports whether the bar at index i carries spike volume
func IsSpike(bars []market_data.OHLCV, cfg Config, i int) bool {
	return RVOLAt(bars, cfg.AveragePeriod, i) >= cfg.SpikeMultiple
}

// AverageVolume returns the rolling mean volume over the last period
// bars, using ta-lib's SMA when enough data exists and the plain mean of
// whatever is available otherwise
func AverageVolume(bars []market_data.OHLCV, period int) float64 {
	if len(bars) == 0 || period < 1 {
		return 0
	}
	volumes := market_data.Volumes(bars)
	if len(volumes) >= period {
		sma := talib.Sma(volumes, period)
		return sma[len(sma)-1]
	}
	sum := 0.0
	for _, v := range volumes {
		sum += v
	}
	return sum / float64(len(volumes))
}

// DetectBias votes candle-by-candle over the lookback window: bullish
// closes accumulate their volume, bearish closes distribute it. The
// split must clear 60/40 to leave neutral.
func DetectBias(bars []market_data.OHLCV, cfg Config) Bias {
	if len(bars) < 2 {
		return BiasNeutral
	}

	start := len(bars) - cfg.BiasLookback
	if start < 0 {
		start = 0
	}

	var up, down float64
	for _, b := range bars[start:] {
		if b.IsBullish() {
			up += b.Volume
		} else if b.IsBearish() {
			down += b.Volume
		}
	}

	total := up + down
	if total <= 0 {
		return BiasNeutral
	}

	ratio := up / total
	switch {
	case ratio > 0.6:
		return BiasAccumulation
	case ratio < 0.4:
		return BiasDistribution
	default:
		return BiasNeutral
	}
}

// BreakoutConfirmation is the volume verdict for a breakout bar
type BreakoutConfirmation struct {
	RVOL            float64
	Class           RVOLClass
	IsValid         bool
	ScoreAdjustment float64
	Detail          string
}

// ValidateBreakoutVolume judges whether the latest bar's participation
// supports a breakout. RVOL at or above BreakoutMinRVOL validates with a
// tiered positive adjustment; weak volume penalizes; missing volume data
// is neutral (fail-open to weak, never an error).
func ValidateBreakoutVolume(bars []market_data.OHLCV, cfg Config) BreakoutConfirmation {
	rvol := RVOL(bars, cfg.AveragePeriod)
	class := Classify(rvol)

	conf := BreakoutConfirmation{RVOL: rvol, Class: class}

	switch {
	case class == RVOLNoData:
		conf.Detail = "no volume data, confirmation unavailable"
	case rvol >= cfg.BreakoutMinRVOL*2:
		conf.IsValid = true
		conf.ScoreAdjustment = 2
		conf.Detail = "breakout volume far above average"
	case rvol >= cfg.BreakoutMinRVOL:
		conf.IsValid = true
		conf.ScoreAdjustment = 1
		conf.Detail = "breakout volume above required threshold"
	case rvol < 0.8:
		conf.ScoreAdjustment = -1
		conf.Detail = "breakout on below-average volume"
	default:
		conf.Detail = "volume inconclusive"
	}

	return conf
}

// averageBefore is the mean volume of up to period bars ending before i
func averageBefore(bars []market_data.OHLCV, period, i int) float64 {
	start := i - period
	if start < 0 {
		start = 0
	}
	if start == i {
		return 0
	}
	sum := 0.0
	for j := start; j < i; j++ {
		sum += bars[j].Volume
	}
	return sum / float64(i-start)
}
