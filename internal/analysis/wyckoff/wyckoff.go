package wyckoff

import (
	"sort"
	"time"

	"hermes/internal/analysis/swing"
	"hermes/internal/analysis/volatility"
	"hermes/internal/analysis/volume"
	"hermes/internal/analysis/zone"
	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// SignalKind tags the recognized Wyckoff patterns
type SignalKind string

const (
	Spring         SignalKind = "spring"
	Upthrust       SignalKind = "upthrust"
	SellingClimax  SignalKind = "selling_climax"
	BuyingClimax   SignalKind = "buying_climax"
	SignOfStrength SignalKind = "sign_of_strength"
	SignOfWeakness SignalKind = "sign_of_weakness"
	AutomaticRally SignalKind = "automatic_rally"
	SecondaryTest  SignalKind = "secondary_test"
)

// Phase is the estimated market phase
type Phase string

const (
	PhaseAccumulation Phase = "accumulation"
	PhaseMarkup       Phase = "markup"
	PhaseDistribution Phase = "distribution"
	PhaseMarkdown     Phase = "markdown"
	PhaseUndefined    Phase = "undefined"
)

// Signal is one recognized Wyckoff pattern occurrence
type Signal struct {
	Kind            SignalKind
	Direction       zone.Direction
	Level           float64
	BarIndex        int
	Time            time.Time
	VolumeConfirmed bool
	Strength        float64 // 0..100
}

// Result bundles the signals with the phase estimate
type Result struct {
	Signals []Signal
	Phase   Phase
}

// Config holds Wyckoff recognition parameters. The phase vote weights
// mirror the hand-tuned scores of the reference system; they are
// tunables, not derived constants.
type Config struct {
	SwingWindow          int
	ATRPeriod            int
	AvgVolumePeriod      int
	ClimaxVolumeMultiple float64
	ClimaxRangeATRRatio  float64
	SOSVolumeMultiple    float64
	ExtremeLookback      int
	// ReactionWindow bounds how many bars after a selling climax the
	// automatic rally and secondary test may appear
	ReactionWindow int
	// Phase vote weights
	WeightPrimary   float64 // spring, upthrust, climaxes
	WeightSecondary float64 // SOS, SOW
	WeightTertiary  float64 // automatic rally, secondary test
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		SwingWindow:          1,
		ATRPeriod:            14,
		AvgVolumePeriod:      20,
		ClimaxVolumeMultiple: 2.0,
		ClimaxRangeATRRatio:  1.5,
		SOSVolumeMultiple:    1.5,
		ExtremeLookback:      20,
		ReactionWindow:       15,
		WeightPrimary:        30,
		WeightSecondary:      25,
		WeightTertiary:       20,
	}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c Config) Validate() error {
	if c.SwingWindow < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "wyckoff swing_window must be >= 1, got %d", c.SwingWindow)
	}
	if c.ATRPeriod < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "wyckoff atr_period must be >= 1, got %d", c.ATRPeriod)
	}
	if c.AvgVolumePeriod < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "wyckoff avg_volume_period must be >= 1, got %d", c.AvgVolumePeriod)
	}
	if c.ClimaxVolumeMultiple <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "wyckoff climax_volume_multiple must be > 0, got %f", c.ClimaxVolumeMultiple)
	}
	if c.ClimaxRangeATRRatio <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "wyckoff climax_range_atr_ratio must be > 0, got %f", c.ClimaxRangeATRRatio)
	}
	if c.SOSVolumeMultiple <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "wyckoff sos_volume_multiple must be > 0, got %f", c.SOSVolumeMultiple)
	}
	if c.ReactionWindow < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "wyckoff reaction_window must be >= 1, got %d", c.ReactionWindow)
	}
	return nil
}

// Detect recognizes Wyckoff patterns across the bar table and estimates
// the phase. Insufficient data yields an empty result with an undefined
// phase, never an error.
func Detect(bars []market_data.OHLCV, cfg Config) Result {
	if len(bars) < 2*cfg.SwingWindow+1 {
		return Result{Phase: PhaseUndefined}
	}

	swings := swing.Find(bars, cfg.SwingWindow)
	atr := volatility.Series(bars, cfg.ATRPeriod)

	var signals []Signal
	signals = append(signals, detectSpringsAndUpthrusts(bars, swings, cfg)...)
	signals = append(signals, detectClimaxes(bars, atr, cfg)...)
	signals = append(signals, detectSignsOfStrengthWeakness(bars, cfg)...)
	signals = append(signals, detectReactions(bars, signals, cfg)...)

	sort.SliceStable(signals, func(i, j int) bool { return signals[i].BarIndex < signals[j].BarIndex })

	return Result{
		Signals: signals,
		Phase:   estimatePhase(bars, signals, cfg),
	}
}

// detectSpringsAndUpthrusts scans for wicks through swing levels with
// the body closing back inside. A spring pierces a swing low (bullish);
// an upthrust pierces a swing high (bearish). Volume presence boosts
// strength but is not required.
func detectSpringsAndUpthrusts(bars []market_data.OHLCV, swings []swing.Point, cfg Config) []Signal {
	var out []Signal

	for _, sp := range swings {
		for i := sp.BarIndex + 1; i < len(bars); i++ {
			bar := bars[i]
			bodyTop := bar.Open
			bodyBottom := bar.Close
			if bar.Close > bar.Open {
				bodyTop, bodyBottom = bar.Close, bar.Open
			}

			if sp.Kind == swing.Low && bar.Low < sp.Price && bodyBottom > sp.Price {
				s := Signal{
					Kind:      Spring,
					Direction: zone.Bullish,
					Level:     sp.Price,
					BarIndex:  i,
					Time:      bar.OpenTime,
					Strength:  55,
				}
				if volume.RVOLAt(bars, cfg.AvgVolumePeriod, i) >= 1.5 {
					s.VolumeConfirmed = true
					s.Strength += 20
				}
				out = append(out, s)
				break
			}

			if sp.Kind == swing.High && bar.High > sp.Price && bodyTop < sp.Price {
				s := Signal{
					Kind:      Upthrust,
					Direction: zone.Bearish,
					Level:     sp.Price,
					BarIndex:  i,
					Time:      bar.OpenTime,
					Strength:  55,
				}
				if volume.RVOLAt(bars, cfg.AvgVolumePeriod, i) >= 1.5 {
					s.VolumeConfirmed = true
					s.Strength += 20
				}
				out = append(out, s)
				break
			}
		}
	}

	return out
}

// detectClimaxes looks for wide-range, high-volume bars closing near an
// extreme. A selling climax closes in the bottom 30% of its range on a
// down move; a buying climax mirrors it at the top.
func detectClimaxes(bars []market_data.OHLCV, atr []float64, cfg Config) []Signal {
	var out []Signal

	for i := 1; i < len(bars); i++ {
		bar := bars[i]
		scale := atrAt(bars, atr, cfg.ATRPeriod, i)
		if scale <= 0 {
			continue
		}
		if bar.Range() < cfg.ClimaxRangeATRRatio*scale {
			continue
		}
		rvol := volume.RVOLAt(bars, cfg.AvgVolumePeriod, i)
		if rvol < cfg.ClimaxVolumeMultiple {
			continue
		}

		pos := bar.ClosePosition()

		// Selling climax: capitulation bar, close pinned near the low
		if bar.IsBearish() && pos <= 0.30 {
			out = append(out, Signal{
				Kind:            SellingClimax,
				Direction:       zone.Bullish, // exhaustion of sellers
				Level:           bar.Low,
				BarIndex:        i,
				Time:            bar.OpenTime,
				VolumeConfirmed: true,
				Strength:        climaxStrength(rvol, cfg),
			})
		}

		// Buying climax: euphoria bar, close pinned near the high
		if bar.IsBullish() && pos >= 0.70 {
			out = append(out, Signal{
				Kind:            BuyingClimax,
				Direction:       zone.Bearish, // exhaustion of buyers
				Level:           bar.High,
				BarIndex:        i,
				Time:            bar.OpenTime,
				VolumeConfirmed: true,
				Strength:        climaxStrength(rvol, cfg),
			})
		}
	}

	return out
}

// detectSignsOfStrengthWeakness finds strong-bodied bars on elevated
// volume breaking beyond the recent extreme
func detectSignsOfStrengthWeakness(bars []market_data.OHLCV, cfg Config) []Signal {
	var out []Signal

	for i := cfg.ExtremeLookback; i < len(bars); i++ {
		bar := bars[i]
		rvol := volume.RVOLAt(bars, cfg.AvgVolumePeriod, i)
		if rvol < cfg.SOSVolumeMultiple {
			continue
		}

		window := bars[i-cfg.ExtremeLookback : i]
		hi, lo := extremes(window)
		pos := bar.ClosePosition()

		// SOS: close in the upper 30% of the bar, pushing above the
		// recent high
		if bar.IsBullish() && pos >= 0.70 && bar.Close > hi {
			out = append(out, Signal{
				Kind:            SignOfStrength,
				Direction:       zone.Bullish,
				Level:           hi,
				BarIndex:        i,
				Time:            bar.OpenTime,
				VolumeConfirmed: true,
				Strength:        60 + clamp40(rvol*10),
			})
		}

		// SOW: mirror below the recent low
		if bar.IsBearish() && pos <= 0.30 && bar.Close < lo {
			out = append(out, Signal{
				Kind:            SignOfWeakness,
				Direction:       zone.Bearish,
				Level:           lo,
				BarIndex:        i,
				Time:            bar.OpenTime,
				VolumeConfirmed: true,
				Strength:        60 + clamp40(rvol*10),
			})
		}
	}

	return out
}

// detectReactions chains automatic rally and secondary test off each
// detected selling climax within the reaction window. The rally is the
// first strong bullish bar after the climax; the secondary test is a
// later retest of the climax low on lighter volume that holds.
func detectReactions(bars []market_data.OHLCV, signals []Signal, cfg Config) []Signal {
	var out []Signal

	for _, sc := range signals {
		if sc.Kind != SellingClimax {
			continue
		}

		end := sc.BarIndex + cfg.ReactionWindow
		if end >= len(bars) {
			end = len(bars) - 1
		}

		rallyIndex := -1
		for i := sc.BarIndex + 1; i <= end; i++ {
			bar := bars[i]
			if bar.IsBullish() && bar.BodyRatio() >= 0.5 && bar.Close > bars[sc.BarIndex].Close {
				out = append(out, Signal{
					Kind:      AutomaticRally,
					Direction: zone.Bullish,
					Level:     bar.High,
					BarIndex:  i,
					Time:      bar.OpenTime,
					Strength:  50,
				})
				rallyIndex = i
				break
			}
		}
		if rallyIndex < 0 {
			continue
		}

		for i := rallyIndex + 1; i <= end; i++ {
			bar := bars[i]
			// Retest of the climax low that holds, on lighter volume
			if bar.Low <= sc.Level*1.005 && bar.Close > sc.Level {
				rvol := volume.RVOLAt(bars, cfg.AvgVolumePeriod, i)
				s := Signal{
					Kind:      SecondaryTest,
					Direction: zone.Bullish,
					Level:     sc.Level,
					BarIndex:  i,
					Time:      bar.OpenTime,
					Strength:  50,
				}
				if rvol > 0 && rvol < 1.0 {
					s.VolumeConfirmed = true
					s.Strength += 15
				}
				out = append(out, s)
				break
			}
		}
	}

	return out
}

// estimatePhase is a weighted vote over which patterns fired plus the
// realized price trend over the lookback window
func estimatePhase(bars []market_data.OHLCV, signals []Signal, cfg Config) Phase {
	if len(signals) == 0 && len(bars) < 2 {
		return PhaseUndefined
	}

	var accumulation, distribution float64
	for _, s := range signals {
		switch s.Kind {
		case Spring, SellingClimax:
			accumulation += cfg.WeightPrimary
		case Upthrust, BuyingClimax:
			distribution += cfg.WeightPrimary
		case SignOfStrength:
			accumulation += cfg.WeightSecondary
		case SignOfWeakness:
			distribution += cfg.WeightSecondary
		case AutomaticRally, SecondaryTest:
			accumulation += cfg.WeightTertiary
		}
	}

	trendUp := false
	trendDown := false
	if len(bars) >= 2 {
		first := bars[0].Close
		last := bars[len(bars)-1].Close
		if first > 0 {
			change := (last - first) / first
			trendUp = change > 0.02
			trendDown = change < -0.02
		}
	}

	switch {
	case accumulation > distribution && trendUp:
		return PhaseMarkup
	case accumulation > distribution:
		return PhaseAccumulation
	case distribution > accumulation && trendDown:
		return PhaseMarkdown
	case distribution > accumulation:
		return PhaseDistribution
	case trendUp:
		return PhaseMarkup
	case trendDown:
		return PhaseMarkdown
	default:
		return PhaseUndefined
	}
}

func climaxStrength(rvol float64, cfg Config) float64 {
	s := 60 + (rvol-cfg.ClimaxVolumeMultiple)*10
	if s > 100 {
		return 100
	}
	return s
}

func clamp40(v float64) float64 {
	if v > 40 {
		return 40
	}
	return v
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
