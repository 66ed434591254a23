package structure

import (
	"time"

	"hermes/internal/analysis/swing"
	"hermes/internal/analysis/volatility"
	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// Trend is the prevailing structural direction
type Trend string

const (
	TrendUp       Trend = "up"
	TrendDown     Trend = "down"
	TrendSideways Trend = "sideways"
)

// EventKind tags structural break events
type EventKind string

const (
	// BOS confirms trend continuation: a close beyond a swing level in
	// the direction of the existing trend
	BOS EventKind = "bos"
	// CHoCH confirms trend reversal: a close beyond a swing level
	// against the existing trend. It flips the current trend.
	CHoCH EventKind = "choch"
)

// Event is one structural break
type Event struct {
	Kind     EventKind
	Trend    Trend // trend in effect after the event
	Level    float64
	BarIndex int
	Time     time.Time
}

// State is the structural read of the whole bar table
type State struct {
	CurrentTrend Trend
	BOSEvents    []Event
	CHoCHEvents  []Event
}

// Config holds structure classification parameters
type Config struct {
	// SwingWindow is the fractal confirmation window
	SwingWindow int
	// CHoCHMinImpulseATR optionally requires a follow-through move of
	// this many ATRs beyond the broken level before a CHoCH counts.
	// Zero disables the filter.
	CHoCHMinImpulseATR float64
	// ATRPeriod sizes the volatility normalizer
	ATRPeriod int
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{SwingWindow: 1, CHoCHMinImpulseATR: 0, ATRPeriod: 14}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c Config) Validate() error {
	if c.SwingWindow < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "structure swing_window must be >= 1, got %d", c.SwingWindow)
	}
	if c.CHoCHMinImpulseATR < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "structure choch_min_impulse_atr must be >= 0, got %f", c.CHoCHMinImpulseATR)
	}
	if c.ATRPeriod < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "structure atr_period must be >= 1, got %d", c.ATRPeriod)
	}
	return nil
}

// Classify walks the bar table replaying swing breaks in order. The
// initial trend is inferred from the first three swing points
// (higher-high/higher-low sequences and their mirror); closes beyond the
// most recent swing level then emit BOS or CHoCH events. A CHoCH flips
// the current trend, a BOS confirms it. Too few bars or swings yields a
// sideways state with no events.
func Classify(bars []market_data.OHLCV, cfg Config) State {
	state := State{CurrentTrend: TrendSideways}

	swings := swing.Find(bars, cfg.SwingWindow)
	if len(swings) < 3 {
		return state
	}

	state.CurrentTrend = initialTrend(swings)

	atr := volatility.Series(bars, cfg.ATRPeriod)

	// Track the last swing high/low confirmed so far, replaying bars in
	// order so each break is judged against structure known at the time.
	var lastHigh, lastLow *swing.Point
	si := 0

	for i := 0; i < len(bars); i++ {
		// Absorb swings confirmed at or before this bar. A swing at
		// index k is confirmed once bar k+window has closed.
		for si < len(swings) && swings[si].BarIndex+cfg.SwingWindow <= i {
			if swings[si].Kind == swing.High {
				lastHigh = &swings[si]
			} else {
				lastLow = &swings[si]
			}
			si++
		}

		close := bars[i].Close

		if lastHigh != nil && close > lastHigh.Price {
			ev := Event{Level: lastHigh.Price, BarIndex: i, Time: bars[i].OpenTime}
			if state.CurrentTrend == TrendDown {
				if !chochConfirmed(close, lastHigh.Price, atrValue(bars, atr, cfg, i), cfg) {
					lastHigh = nil
					continue
				}
				ev.Kind = CHoCH
				state.CurrentTrend = TrendUp
				ev.Trend = TrendUp
				state.CHoCHEvents = append(state.CHoCHEvents, ev)
			} else {
				ev.Kind = BOS
				state.CurrentTrend = TrendUp
				ev.Trend = TrendUp
				state.BOSEvents = append(state.BOSEvents, ev)
			}
			// Level consumed; wait for the next confirmed swing high
			lastHigh = nil
			continue
		}

		if lastLow != nil && close < lastLow.Price {
			ev := Event{Level: lastLow.Price, BarIndex: i, Time: bars[i].OpenTime}
			if state.CurrentTrend == TrendUp {
				if !chochConfirmed(lastLow.Price, close, atrValue(bars, atr, cfg, i), cfg) {
					lastLow = nil
					continue
				}
				ev.Kind = CHoCH
				state.CurrentTrend = TrendDown
				ev.Trend = TrendDown
				state.CHoCHEvents = append(state.CHoCHEvents, ev)
			} else {
				ev.Kind = BOS
				state.CurrentTrend = TrendDown
				ev.Trend = TrendDown
				state.BOSEvents = append(state.BOSEvents, ev)
			}
			lastLow = nil
		}
	}

	return state
}

// initialTrend reads the first three swing points for a higher-high/
// higher-low sequence or its mirror
func initialTrend(swings []swing.Point) Trend {
	highs := swing.Highs(swings)
	lows := swing.Lows(swings)

	if len(highs) >= 2 && len(lows) >= 2 {
		hh := highs[1].Price > highs[0].Price
		hl := lows[1].Price > lows[0].Price
		lh := highs[1].Price < highs[0].Price
		ll := lows[1].Price < lows[0].Price
		switch {
		case hh && hl:
			return TrendUp
		case lh && ll:
			return TrendDown
		}
		return TrendSideways
	}

	// Fall back to the slope across whatever swings exist
	first, last := swings[0], swings[len(swings)-1]
	switch {
	case last.Price > first.Price:
		return TrendUp
	case last.Price < first.Price:
		return TrendDown
	default:
		return TrendSideways
	}
}

// chochConfirmed applies the optional follow-through impulse filter.
// beyond is how far the close traveled past the broken level.
func chochConfirmed(upper, lower, atr float64, cfg Config) bool {
	if cfg.CHoCHMinImpulseATR <= 0 {
		return true
	}
	if atr <= 0 {
		// No scale, no confirmation
		return false
	}
	return upper-lower >= cfg.CHoCHMinImpulseATR*atr
}

func atrValue(bars []market_data.OHLCV, series []float64, cfg Config, i int) float64 {
	if i >= 0 && i < len(series) && series[i] > 0 {
		return series[i]
	}
	return volatility.At(bars, cfg.ATRPeriod, i)
}
