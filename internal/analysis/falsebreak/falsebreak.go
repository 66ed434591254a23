package falsebreak

import (
	"sort"
	"time"

	"hermes/internal/analysis/swing"
	"hermes/internal/analysis/volatility"
	"hermes/internal/analysis/zone"
	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// PatternKind tags the four false-breakout checks
type PatternKind string

const (
	SwingFailure  PatternKind = "swing_failure"
	FakeoutCandle PatternKind = "fakeout_candle"
	Trap          PatternKind = "trap"
	StopHunt      PatternKind = "stop_hunt"
)

// RiskLevel buckets composite false-breakout risk
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// Signal is one false-breakout pattern occurrence. Each check emits at
// most one signal per bar.
type Signal struct {
	Kind       PatternKind
	Direction  zone.Direction // side the reversal favors
	Level      float64
	BarIndex   int
	Time       time.Time
	Confidence float64 // 0..1
	Detail     string
}

// Risk aggregates however many of the four checks fired
type Risk struct {
	Signals []Signal
	Level   RiskLevel
	// ScorePenalty in [0,4] is consumed by the breakout validator
	ScorePenalty float64
}

// Config holds false-breakout recognition parameters
type Config struct {
	SwingWindow int
	ATRPeriod   int
	// SFPWickMinATR is the minimum wick depth beyond the swing level
	SFPWickMinATR float64
	// FakeoutWickBodyRatio is the minimum wick-to-body ratio for a
	// fakeout candle
	FakeoutWickBodyRatio float64
	// TrapReversalMinATR is the minimum reversal size after a trap high/low
	TrapReversalMinATR float64
	// TrapLookback bounds how many bars after the extreme the reversal
	// must complete within
	TrapLookback int
	// StopHuntWickATRRatio is the minimum wick excursion for a stop hunt
	StopHuntWickATRRatio float64
	// RecentBars bounds how far back signals still count toward the
	// composite risk; older patterns describe a tape that has moved on
	RecentBars int
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		SwingWindow:          1,
		ATRPeriod:            14,
		SFPWickMinATR:        0.2,
		FakeoutWickBodyRatio: 2.0,
		TrapReversalMinATR:   1.0,
		TrapLookback:         5,
		StopHuntWickATRRatio: 0.5,
		RecentBars:           20,
	}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c Config) Validate() error {
	if c.SwingWindow < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "falsebreak swing_window must be >= 1, got %d", c.SwingWindow)
	}
	if c.ATRPeriod < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "falsebreak atr_period must be >= 1, got %d", c.ATRPeriod)
	}
	if c.SFPWickMinATR < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "falsebreak sfp_wick_min_atr must be >= 0, got %f", c.SFPWickMinATR)
	}
	if c.FakeoutWickBodyRatio <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "falsebreak fakeout_wick_body_ratio must be > 0, got %f", c.FakeoutWickBodyRatio)
	}
	if c.TrapReversalMinATR <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "falsebreak trap_reversal_min_atr must be > 0, got %f", c.TrapReversalMinATR)
	}
	if c.TrapLookback < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "falsebreak trap_lookback must be >= 1, got %d", c.TrapLookback)
	}
	if c.StopHuntWickATRRatio <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "falsebreak stop_hunt_wick_atr_ratio must be > 0, got %f", c.StopHuntWickATRRatio)
	}
	if c.RecentBars < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "falsebreak recent_bars must be >= 1, got %d", c.RecentBars)
	}
	return nil
}

// Assess runs all four checks over the bar table and aggregates the
// composite risk from signals within the trailing RecentBars window;
// patterns older than that no longer describe the current tape.
// Insufficient data yields an empty low-risk result.
func Assess(bars []market_data.OHLCV, cfg Config) Risk {
	if len(bars) < 2 {
		return Risk{Level: RiskLow}
	}

	swings := swing.Find(bars, cfg.SwingWindow)
	atr := volatility.Series(bars, cfg.ATRPeriod)

	var signals []Signal
	signals = append(signals, DetectSwingFailures(bars, swings, atr, cfg)...)
	signals = append(signals, DetectFakeoutCandles(bars, swings, cfg)...)
	signals = append(signals, DetectTraps(bars, atr, cfg)...)
	signals = append(signals, DetectStopHunts(bars, swings, atr, cfg)...)

	sort.SliceStable(signals, func(i, j int) bool { return signals[i].BarIndex < signals[j].BarIndex })

	if cutoff := len(bars) - cfg.RecentBars; cutoff > 0 {
		recent := make([]Signal, 0, len(signals))
		for _, s := range signals {
			if s.BarIndex >= cutoff {
				recent = append(recent, s)
			}
		}
		signals = recent
	}

	return aggregate(signals)
}

// DetectSwingFailures finds bars whose wick pierces a swing level while
// the body closes back inside. A failure above a swing high is bearish;
// below a swing low, bullish.
func DetectSwingFailures(bars []market_data.OHLCV, swings []swing.Point, atr []float64, cfg Config) []Signal {
	var out []Signal

	for _, sp := range swings {
		for i := sp.BarIndex + 1; i < len(bars); i++ {
			bar := bars[i]
			scale := atrAt(bars, atr, cfg.ATRPeriod, i)
			if scale <= 0 {
				continue
			}

			if sp.Kind == swing.High {
				wick := bar.High - sp.Price
				if wick >= cfg.SFPWickMinATR*scale && bar.Close < sp.Price && bar.Open < sp.Price {
					out = append(out, Signal{
						Kind:       SwingFailure,
						Direction:  zone.Bearish,
						Level:      sp.Price,
						BarIndex:   i,
						Time:       bar.OpenTime,
						Confidence: confidence(wick/scale, cfg.SFPWickMinATR),
						Detail:     "wick above swing high rejected, body closed back inside",
					})
					break
				}
			} else {
				wick := sp.Price - bar.Low
				if wick >= cfg.SFPWickMinATR*scale && bar.Close > sp.Price && bar.Open > sp.Price {
					out = append(out, Signal{
						Kind:       SwingFailure,
						Direction:  zone.Bullish,
						Level:      sp.Price,
						BarIndex:   i,
						Time:       bar.OpenTime,
						Confidence: confidence(wick/scale, cfg.SFPWickMinATR),
						Detail:     "wick below swing low rejected, body closed back inside",
					})
					break
				}
			}
		}
	}

	return out
}

// DetectFakeoutCandles finds bars with a dominant wick poking through a
// swing level while the body sits on the wrong side of it
func DetectFakeoutCandles(bars []market_data.OHLCV, swings []swing.Point, cfg Config) []Signal {
	var out []Signal

	for _, sp := range swings {
		for i := sp.BarIndex + 1; i < len(bars); i++ {
			bar := bars[i]
			body := bar.Body()
			if body <= 0 {
				continue
			}

			if sp.Kind == swing.High {
				wick := bar.UpperWick()
				if bar.High > sp.Price && bar.Close < sp.Price && wick/body >= cfg.FakeoutWickBodyRatio {
					out = append(out, Signal{
						Kind:       FakeoutCandle,
						Direction:  zone.Bearish,
						Level:      sp.Price,
						BarIndex:   i,
						Time:       bar.OpenTime,
						Confidence: confidence(wick/body, cfg.FakeoutWickBodyRatio),
						Detail:     "long upper wick through resistance with body below",
					})
					break
				}
			} else {
				wick := bar.LowerWick()
				if bar.Low < sp.Price && bar.Close > sp.Price && wick/body >= cfg.FakeoutWickBodyRatio {
					out = append(out, Signal{
						Kind:       FakeoutCandle,
						Direction:  zone.Bullish,
						Level:      sp.Price,
						BarIndex:   i,
						Time:       bar.OpenTime,
						Confidence: confidence(wick/body, cfg.FakeoutWickBodyRatio),
						Detail:     "long lower wick through support with body above",
					})
					break
				}
			}
		}
	}

	return out
}

// DetectTraps finds new extremes beyond prior structure that reverse
// hard within the trap lookback window
func DetectTraps(bars []market_data.OHLCV, atr []float64, cfg Config) []Signal {
	var out []Signal
	lookback := 10

	for i := lookback; i < len(bars); i++ {
		bar := bars[i]
		scale := atrAt(bars, atr, cfg.ATRPeriod, i)
		if scale <= 0 {
			continue
		}

		hi, lo := extremes(bars[i-lookback : i])

		end := i + cfg.TrapLookback
		if end >= len(bars) {
			end = len(bars) - 1
		}

		// Bull trap: new high, then a reversal down
		if bar.High > hi {
			for j := i + 1; j <= end; j++ {
				if bar.High-bars[j].Close >= cfg.TrapReversalMinATR*scale {
					out = append(out, Signal{
						Kind:       Trap,
						Direction:  zone.Bearish,
						Level:      hi,
						BarIndex:   i,
						Time:       bar.OpenTime,
						Confidence: confidence((bar.High-bars[j].Close)/scale, cfg.TrapReversalMinATR),
						Detail:     "new high beyond structure reversed within window",
					})
					break
				}
			}
		}

		// Bear trap: new low, then a reversal up
		if bar.Low < lo {
			for j := i + 1; j <= end; j++ {
				if bars[j].Close-bar.Low >= cfg.TrapReversalMinATR*scale {
					out = append(out, Signal{
						Kind:       Trap,
						Direction:  zone.Bullish,
						Level:      lo,
						BarIndex:   i,
						Time:       bar.OpenTime,
						Confidence: confidence((bars[j].Close-bar.Low)/scale, cfg.TrapReversalMinATR),
						Detail:     "new low beyond structure reversed within window",
					})
					break
				}
			}
		}
	}

	return out
}

// DetectStopHunts finds wicks driven through known swing levels by at
// least the configured ATR multiple with the close back inside
func DetectStopHunts(bars []market_data.OHLCV, swings []swing.Point, atr []float64, cfg Config) []Signal {
	var out []Signal

	for _, sp := range swings {
		for i := sp.BarIndex + 1; i < len(bars); i++ {
			bar := bars[i]
			scale := atrAt(bars, atr, cfg.ATRPeriod, i)
			if scale <= 0 {
				continue
			}

			if sp.Kind == swing.High {
				wick := bar.High - sp.Price
				if wick >= cfg.StopHuntWickATRRatio*scale && bar.Close <= sp.Price {
					out = append(out, Signal{
						Kind:       StopHunt,
						Direction:  zone.Bearish,
						Level:      sp.Price,
						BarIndex:   i,
						Time:       bar.OpenTime,
						Confidence: confidence(wick/scale, cfg.StopHuntWickATRRatio),
						Detail:     "stops above swing high swept, close back inside",
					})
					break
				}
			} else {
				wick := sp.Price - bar.Low
				if wick >= cfg.StopHuntWickATRRatio*scale && bar.Close >= sp.Price {
					out = append(out, Signal{
						Kind:       StopHunt,
						Direction:  zone.Bullish,
						Level:      sp.Price,
						BarIndex:   i,
						Time:       bar.OpenTime,
						Confidence: confidence(wick/scale, cfg.StopHuntWickATRRatio),
						Detail:     "stops below swing low swept, close back inside",
					})
					break
				}
			}
		}
	}

	return out
}

// aggregate derives the composite risk from how many distinct pattern
// kinds fired and their average confidence. ScorePenalty spans [0,4],
// one point per firing pattern kind scaled by confidence.
func aggregate(signals []Signal) Risk {
	risk := Risk{Signals: signals}
	if len(signals) == 0 {
		risk.Level = RiskLow
		return risk
	}

	kinds := map[PatternKind]float64{}
	for _, s := range signals {
		if s.Confidence > kinds[s.Kind] {
			kinds[s.Kind] = s.Confidence
		}
	}

	var sum float64
	for _, c := range kinds {
		sum += c
	}
	avg := sum / float64(len(kinds))

	risk.ScorePenalty = sum
	if risk.ScorePenalty > 4 {
		risk.ScorePenalty = 4
	}

	switch {
	case len(kinds) >= 3 && avg >= 0.6:
		risk.Level = RiskVeryHigh
	case len(kinds) >= 2 && avg >= 0.5:
		risk.Level = RiskHigh
	case len(kinds) >= 2 || avg >= 0.7:
		risk.Level = RiskMedium
	default:
		risk.Level = RiskLow
	}

	return risk
}

// confidence maps how far a measurement cleared its threshold into
// (0,1], saturating at 3x the threshold
func confidence(measured, threshold float64) float64 {
	if threshold <= 0 {
		return 0.5
	}
	c := measured / (threshold * 3)
	if c > 1 {
		return 1
	}
	if c < 0.1 {
		return 0.1
	}
	return c
}

func extremes(bars []market_data.OHLCV) (hi, lo float64) {
	hi, lo = bars[0].High, bars[0].Low
	for _, b := range bars[1:] {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	return hi, lo
}

func atrAt(bars []market_data.OHLCV, series []float64, period, i int) float64 {
	if i >= 0 && i < len(series) && series[i] > 0 {
		return series[i]
	}
	return volatility.At(bars, period, i)
}
