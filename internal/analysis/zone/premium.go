package zone

import (
	"hermes/internal/analysis/swing"
	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// RangeBand classifies where price sits inside the dealing range
type RangeBand string

const (
	BandExtremeDiscount RangeBand = "extreme_discount"
	BandDiscount        RangeBand = "discount"
	BandEquilibrium     RangeBand = "equilibrium"
	BandPremium         RangeBand = "premium"
	BandExtremePremium  RangeBand = "extreme_premium"
)

// PremiumDiscountConfig holds range zoning parameters
type PremiumDiscountConfig struct {
	// Lookback bounds the rolling high/low window when no swings exist
	Lookback int
	// UseSwings derives the range from confirmed swing extremes instead
	// of the raw rolling high/low
	UseSwings bool
}

// DefaultPremiumDiscountConfig returns the documented defaults
func DefaultPremiumDiscountConfig() PremiumDiscountConfig {
	return PremiumDiscountConfig{Lookback: 50, UseSwings: true}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c PremiumDiscountConfig) Validate() error {
	if c.Lookback < 2 {
		return errors.Wrapf(errors.ErrInvalidConfig, "premium_discount lookback must be >= 2, got %d", c.Lookback)
	}
	return nil
}

// RangeState describes price's position within the current dealing range
type RangeState struct {
	RangeHigh float64
	RangeLow  float64
	Position  float64 // 0 at the low, 1 at the high
	Band      RangeBand
	FibLevels map[string]float64
}

// ClassifyRange computes the dealing range from the lookback window (or
// swing extremes when configured and available) and places the latest
// close inside it. A degenerate zero-height range reports equilibrium at
// position 0.5 rather than failing.
func ClassifyRange(bars []market_data.OHLCV, swings []swing.Point, cfg PremiumDiscountConfig) RangeState {
	if len(bars) == 0 {
		return RangeState{Position: 0.5, Band: BandEquilibrium, FibLevels: map[string]float64{}}
	}

	start := len(bars) - cfg.Lookback
	if start < 0 {
		start = 0
	}
	window := bars[start:]

	high := window[0].High
	low := window[0].Low
	for _, b := range window[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}

	if cfg.UseSwings {
		if sh, ok := swing.Last(swings, swing.High); ok && sh.BarIndex >= start {
			high = sh.Price
		}
		if sl, ok := swing.Last(swings, swing.Low); ok && sl.BarIndex >= start {
			low = sl.Price
		}
		if high < low {
			high, low = low, high
		}
	}

	state := RangeState{
		RangeHigh: high,
		RangeLow:  low,
		FibLevels: fibLevels(high, low),
	}

	span := high - low
	if span <= 0 {
		state.Position = 0.5
		state.Band = BandEquilibrium
		return state
	}

	pos := (bars[len(bars)-1].Close - low) / span
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	state.Position = pos
	state.Band = classifyBand(pos)
	return state
}

// classifyBand maps a range position to its band.
// Thresholds: <15% extreme discount, <30% discount, 30-70% equilibrium,
// >70% premium, >85% extreme premium.
func classifyBand(pos float64) RangeBand {
	switch {
	case pos < 0.15:
		return BandExtremeDiscount
	case pos < 0.30:
		return BandDiscount
	case pos > 0.85:
		return BandExtremePremium
	case pos > 0.70:
		return BandPremium
	default:
		return BandEquilibrium
	}
}

// fibLevels returns the standard retracement levels of the range
func fibLevels(high, low float64) map[string]float64 {
	span := high - low
	return map[string]float64{
		"0.0":   low,
		"0.236": low + span*0.236,
		"0.382": low + span*0.382,
		"0.5":   low + span*0.5,
		"0.618": low + span*0.618,
		"0.786": low + span*0.786,
		"1.0":   high,
	}
}
