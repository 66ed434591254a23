package zone

import (
	"hermes/internal/analysis/volatility"
	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// OrderBlockConfig holds Order Block detection parameters
type OrderBlockConfig struct {
	// MinImpulseATRRatio is the minimum size of the follow-through move
	// as a multiple of ATR for the preceding candle to qualify
	MinImpulseATRRatio float64
	// ImpulseBars is how many bars after the candidate candle the
	// impulse must complete within
	ImpulseBars int
	// MinBodyRatio is the minimum body/range ratio of the candidate
	MinBodyRatio float64
	// ATRPeriod sizes the volatility normalizer
	ATRPeriod int
}

// DefaultOrderBlockConfig returns the documented defaults
func DefaultOrderBlockConfig() OrderBlockConfig {
	return OrderBlockConfig{
		MinImpulseATRRatio: 1.5,
		ImpulseBars:        3,
		MinBodyRatio:       0.3,
		ATRPeriod:          14,
	}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c OrderBlockConfig) Validate() error {
	if c.MinImpulseATRRatio <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "order_block min_impulse_atr_ratio must be > 0, got %f", c.MinImpulseATRRatio)
	}
	if c.ImpulseBars < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "order_block impulse_bars must be >= 1, got %d", c.ImpulseBars)
	}
	if c.MinBodyRatio < 0 || c.MinBodyRatio > 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "order_block min_body_ratio must be in [0,1], got %f", c.MinBodyRatio)
	}
	if c.ATRPeriod < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "order_block atr_period must be >= 1, got %d", c.ATRPeriod)
	}
	return nil
}

// DetectOrderBlocks finds the last opposite-colored candle immediately
// preceding an impulsive move. A bullish order block is a bearish candle
// followed within ImpulseBars by an upward move of at least
// MinImpulseATRRatio multiples of ATR; bearish is the mirror. The zone
// spans the candle's open/close range. Strength combines impulse size
// and body ratio; mitigation adjustments are applied later by the
// lifecycle tracker.
func DetectOrderBlocks(bars []market_data.OHLCV, cfg OrderBlockConfig) []Zone {
	if len(bars) < 2 {
		return nil
	}

	atr := volatility.Series(bars, cfg.ATRPeriod)
	var out []Zone

	for i := 0; i < len(bars)-1; i++ {
		candle := bars[i]
		if candle.BodyRatio() < cfg.MinBodyRatio {
			continue
		}

		scale := atrAt(bars, atr, cfg.ATRPeriod, i)
		if scale <= 0 {
			// No volatility scale means no impulse confirmation
			continue
		}

		end := i + cfg.ImpulseBars
		if end >= len(bars) {
			end = len(bars) - 1
		}

		// Bullish OB: bearish candle, then price drives up away from it
		if candle.IsBearish() {
			impulse := maxClose(bars, i+1, end) - candle.Close
			// The very next candle must already move in the impulse
			// direction, otherwise the candle is not the last opposing one
			if impulse >= cfg.MinImpulseATRRatio*scale && bars[i+1].Close > candle.Close {
				out = append(out, Zone{
					Variant:        OrderBlock,
					Direction:      Bullish,
					Top:            candle.Open,
					Bottom:         candle.Close,
					OriginBarIndex: i,
					OriginTime:     candle.OpenTime,
					Strength:       orderBlockStrength(impulse/scale, candle.BodyRatio()),
					Status:         StatusUnmitigated,
				})
			}
		}

		// Bearish OB: bullish candle, then price drives down away from it
		if candle.IsBullish() {
			impulse := candle.Close - minClose(bars, i+1, end)
			if impulse >= cfg.MinImpulseATRRatio*scale && bars[i+1].Close < candle.Close {
				out = append(out, Zone{
					Variant:        OrderBlock,
					Direction:      Bearish,
					Top:            candle.Close,
					Bottom:         candle.Open,
					OriginBarIndex: i,
					OriginTime:     candle.OpenTime,
					Strength:       orderBlockStrength(impulse/scale, candle.BodyRatio()),
					Status:         StatusUnmitigated,
				})
			}
		}
	}

	SortByOrigin(out)
	return out
}

// orderBlockStrength scores an order block from the impulse that left it
// and the conviction of the candle itself. Impulse saturates at 3x the
// minimum, body ratio contributes up to 30 points.
func orderBlockStrength(impulseRatio, bodyRatio float64) float64 {
	impulseScore := impulseRatio / 4.5 * 70
	if impulseScore > 70 {
		impulseScore = 70
	}
	return clampStrength(impulseScore + bodyRatio*30)
}

func maxClose(bars []market_data.OHLCV, from, to int) float64 {
	m := bars[from].Close
	for i := from + 1; i <= to; i++ {
		if bars[i].Close > m {
			m = bars[i].Close
		}
	}
	return m
}

func minClose(bars []market_data.OHLCV, from, to int) float64 {
	m := bars[from].Close
	for i := from + 1; i <= to; i++ {
		if bars[i].Close < m {
			m = bars[i].Close
		}
	}
	return m
}
