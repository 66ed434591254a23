package zone

import (
	"hermes/internal/analysis/volatility"
	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// FVGConfig holds Fair Value Gap detection parameters
type FVGConfig struct {
	// MinGapATRRatio is the minimum gap height as a multiple of ATR
	MinGapATRRatio float64
	// FillTolerance is the fraction of gap height that may remain
	// uncovered for the gap to still count as filled
	FillTolerance float64
	// ATRPeriod sizes the volatility normalizer
	ATRPeriod int
}

// DefaultFVGConfig returns the documented defaults
func DefaultFVGConfig() FVGConfig {
	return FVGConfig{
		MinGapATRRatio: 0.3,
		FillTolerance:  0.1,
		ATRPeriod:      14,
	}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c FVGConfig) Validate() error {
	if c.MinGapATRRatio < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "fvg min_gap_atr_ratio must be >= 0, got %f", c.MinGapATRRatio)
	}
	if c.FillTolerance < 0 || c.FillTolerance >= 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "fvg fill_tolerance must be in [0,1), got %f", c.FillTolerance)
	}
	if c.ATRPeriod < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "fvg atr_period must be >= 1, got %d", c.ATRPeriod)
	}
	return nil
}

// DetectFVG scans for 3-bar imbalances. A bullish gap exists when bar
// i-2's high sits strictly below bar i's low; bearish is the mirror.
// Gaps smaller than MinGapATRRatio multiples of the ATR at the gap bar
// are ignored. Later bars are scanned for fill: once subsequent price has
// covered at least (1 - FillTolerance) of the gap height, the zone is
// marked Full and excluded from active results by callers.
func DetectFVG(bars []market_data.OHLCV, cfg FVGConfig) []Zone {
	if len(bars) < 3 {
		return nil
	}

	atr := volatility.Series(bars, cfg.ATRPeriod)
	var out []Zone

	for i := 2; i < len(bars); i++ {
		left := bars[i-2]
		right := bars[i]

		// Bullish: gap between the left bar's high and the right bar's low
		if right.Low > left.High {
			z := Zone{
				Variant:        FairValueGap,
				Direction:      Bullish,
				Top:            right.Low,
				Bottom:         left.High,
				OriginBarIndex: i - 1,
				OriginTime:     bars[i-1].OpenTime,
				Status:         StatusUnmitigated,
			}
			if passesGapFilter(z, atrAt(bars, atr, cfg.ATRPeriod, i-1), cfg) {
				z.Status = fvgFillStatus(bars, z, i+1, cfg)
				z.Strength = fvgStrength(z, atrAt(bars, atr, cfg.ATRPeriod, i-1))
				out = append(out, z)
			}
		}

		// Bearish: gap between the left bar's low and the right bar's high
		if right.High < left.Low {
			z := Zone{
				Variant:        FairValueGap,
				Direction:      Bearish,
				Top:            left.Low,
				Bottom:         right.High,
				OriginBarIndex: i - 1,
				OriginTime:     bars[i-1].OpenTime,
				Status:         StatusUnmitigated,
			}
			if passesGapFilter(z, atrAt(bars, atr, cfg.ATRPeriod, i-1), cfg) {
				z.Status = fvgFillStatus(bars, z, i+1, cfg)
				z.Strength = fvgStrength(z, atrAt(bars, atr, cfg.ATRPeriod, i-1))
				out = append(out, z)
			}
		}
	}

	SortByOrigin(out)
	return out
}

// DetectActiveFVG returns only gaps that have not been filled
func DetectActiveFVG(bars []market_data.OHLCV, cfg FVGConfig) []Zone {
	return FilterActive(DetectFVG(bars, cfg))
}

// passesGapFilter applies the ATR-relative minimum size. A zero ATR
// gives no scale to compare against; the gap is kept so thin markets
// still surface imbalances, matching the fail-open policy.
func passesGapFilter(z Zone, atr float64, cfg FVGConfig) bool {
	if atr <= 0 {
		return true
	}
	return z.Height() >= cfg.MinGapATRRatio*atr
}

// fvgFillStatus walks bars after the gap and classifies how much of the
// gap later price covered.
func fvgFillStatus(bars []market_data.OHLCV, z Zone, from int, cfg FVGConfig) Status {
	height := z.Height()
	if height <= 0 {
		return StatusFull
	}

	maxCovered := 0.0
	for i := from; i < len(bars); i++ {
		var covered float64
		if z.Direction == Bullish {
			// Bullish gaps fill from the top down
			if bars[i].Low < z.Top {
				covered = z.Top - bars[i].Low
			}
		} else {
			// Bearish gaps fill from the bottom up
			if bars[i].High > z.Bottom {
				covered = bars[i].High - z.Bottom
			}
		}
		if covered > maxCovered {
			maxCovered = covered
		}
	}

	frac := maxCovered / height
	switch {
	case frac >= 1-cfg.FillTolerance:
		return StatusFull
	case frac >= 0.5:
		return StatusPartial
	case frac > 0:
		return StatusTouched
	default:
		return StatusUnmitigated
	}
}

// fvgStrength scores a gap by its ATR-relative size, saturating at 3x ATR
func fvgStrength(z Zone, atr float64) float64 {
	if atr <= 0 {
		return 50
	}
	ratio := z.Height() / atr
	return clampStrength(ratio / 3 * 100)
}

// atrAt picks the ATR in effect at index i, falling back outside warmup
func atrAt(bars []market_data.OHLCV, series []float64, period, i int) float64 {
	if i >= 0 && i < len(series) && series[i] > 0 {
		return series[i]
	}
	return volatility.At(bars, period, i)
}
