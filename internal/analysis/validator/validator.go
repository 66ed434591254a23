package validator

import (
	"fmt"
	"math"

	"hermes/internal/analysis/falsebreak"
	"hermes/internal/analysis/structure"
	"hermes/internal/analysis/volatility"
	"hermes/internal/analysis/volume"
	"hermes/internal/analysis/zone"
	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// Candidate is a breakout under evaluation: price closed beyond Level in
// the given Direction at BarIndex (the latest bar when negative).
type Candidate struct {
	Direction zone.Direction
	Level     float64
	BarIndex  int
	// HTFTrend is the higher-timeframe structural trend when the caller
	// has one. Sideways (or empty) means unknown and contributes nothing.
	HTFTrend structure.Trend
}

// Component is one explainable scoring input
type Component struct {
	Name         string
	Contribution float64
	Passed       bool
	Detail       string
}

// Verdict is the fused breakout quality read
type Verdict struct {
	// Score is the rounded fused score, always in [1,10]
	Score    int
	RawScore float64
	IsValid  bool
	IsStrong bool

	Direction zone.Direction
	Level     float64

	Components []Component
	Warnings   []string
	Positives  []string
}

// Config holds fusion parameters
type Config struct {
	// BaseScore is the neutral starting point before adjustments
	BaseScore float64
	// ValidThreshold is the minimum rounded score for IsValid
	ValidThreshold int
	// StrongThreshold is the minimum rounded score for IsStrong
	StrongThreshold int

	ATRPeriod int
	// MoveModerateATR and MoveStrongATR tier the close's distance beyond
	// the level in ATR multiples
	MoveModerateATR float64
	MoveStrongATR   float64
	// ConsecutiveCloses is how many closes beyond the level earn the
	// follow-through bonus
	ConsecutiveCloses int
	// MaxFalseBreakPenalty caps the total deduction from false-breakout
	// patterns
	MaxFalseBreakPenalty float64

	Volume     volume.Config
	FalseBreak falsebreak.Config
	FVG        zone.FVGConfig
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		BaseScore:            5,
		ValidThreshold:       6,
		StrongThreshold:      8,
		ATRPeriod:            14,
		MoveModerateATR:      0.5,
		MoveStrongATR:        1.0,
		ConsecutiveCloses:    2,
		MaxFalseBreakPenalty: 4,
		Volume:               volume.DefaultConfig(),
		FalseBreak:           falsebreak.DefaultConfig(),
		FVG:                  zone.DefaultFVGConfig(),
	}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c Config) Validate() error {
	if c.BaseScore < 1 || c.BaseScore > 10 {
		return errors.Wrapf(errors.ErrInvalidConfig, "validator base_score must be in [1,10], got %f", c.BaseScore)
	}
	if c.ValidThreshold < 1 || c.ValidThreshold > 10 {
		return errors.Wrapf(errors.ErrInvalidConfig, "validator valid_threshold must be in [1,10], got %d", c.ValidThreshold)
	}
	if c.StrongThreshold < c.ValidThreshold || c.StrongThreshold > 10 {
		return errors.Wrapf(errors.ErrInvalidConfig, "validator strong_threshold must be in [valid,10], got %d", c.StrongThreshold)
	}
	if c.ATRPeriod < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "validator atr_period must be >= 1, got %d", c.ATRPeriod)
	}
	if c.MoveModerateATR <= 0 || c.MoveStrongATR <= c.MoveModerateATR {
		return errors.Wrapf(errors.ErrInvalidConfig, "validator move tiers must satisfy 0 < moderate < strong, got %f/%f", c.MoveModerateATR, c.MoveStrongATR)
	}
	if c.ConsecutiveCloses < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "validator consecutive_closes must be >= 1, got %d", c.ConsecutiveCloses)
	}
	if c.MaxFalseBreakPenalty < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "validator max_false_break_penalty must be >= 0, got %f", c.MaxFalseBreakPenalty)
	}
	if err := c.Volume.Validate(); err != nil {
		return err
	}
	if err := c.FalseBreak.Validate(); err != nil {
		return err
	}
	return c.FVG.Validate()
}

// Validate fuses volume confirmation, move size, follow-through, zone
// alignment, false-breakout risk and higher-timeframe context into a
// single explainable score in [1,10]. Insufficient data yields the
// clamped base score with a warning rather than an error.
func Validate(bars []market_data.OHLCV, cand Candidate, cfg Config) Verdict {
	v := Verdict{Direction: cand.Direction, Level: cand.Level}
	score := cfg.BaseScore

	if len(bars) == 0 {
		v.Warnings = append(v.Warnings, "no bars available, returning neutral verdict")
		v.finalize(score, cfg)
		return v
	}

	idx := cand.BarIndex
	if idx < 0 || idx >= len(bars) {
		idx = len(bars) - 1
	}

	// Volume confirmation
	conf := volume.ValidateBreakoutVolume(bars[:idx+1], cfg.Volume)
	score += v.add(Component{
		Name:         "volume_confirmation",
		Contribution: conf.ScoreAdjustment,
		Passed:       conf.IsValid,
		Detail:       fmt.Sprintf("rvol %.2f (%s): %s", conf.RVOL, conf.Class, conf.Detail),
	})

	// Move size relative to ATR
	score += v.add(moveComponent(bars, cand, cfg, idx))

	// Follow-through: consecutive closes beyond the level
	score += v.add(followThroughComponent(bars, cand, cfg, idx))

	// Supporting fair value gap in the breakout direction
	score += v.add(fvgComponent(bars[:idx+1], cand, cfg))

	// False-breakout pattern penalty, capped
	score += v.add(falseBreakComponent(bars[:idx+1], cfg))

	// Higher-timeframe alignment
	score += v.add(htfComponent(cand))

	// Volume bias divergence against the breakout direction
	score += v.add(divergenceComponent(bars[:idx+1], cand, cfg))

	v.finalize(score, cfg)
	return v
}

// add records a component and routes its detail into warnings or
// positives, returning the contribution for accumulation
func (v *Verdict) add(c Component) float64 {
	v.Components = append(v.Components, c)
	msg := fmt.Sprintf("%s: %s", c.Name, c.Detail)
	if c.Contribution > 0 {
		v.Positives = append(v.Positives, msg)
	} else if c.Contribution < 0 {
		v.Warnings = append(v.Warnings, msg)
	}
	return c.Contribution
}

func (v *Verdict) finalize(raw float64, cfg Config) {
	v.RawScore = raw
	score := int(math.Round(raw))
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	v.Score = score
	v.IsValid = score >= cfg.ValidThreshold
	v.IsStrong = score >= cfg.StrongThreshold
}

func moveComponent(bars []market_data.OHLCV, cand Candidate, cfg Config, idx int) Component {
	c := Component{Name: "move_size"}

	atr := volatility.At(bars, cfg.ATRPeriod, idx)
	if atr <= 0 {
		c.Detail = "no volatility scale, move size not assessed"
		return c
	}

	var beyond float64
	if cand.Direction == zone.Bullish {
		beyond = bars[idx].Close - cand.Level
	} else {
		beyond = cand.Level - bars[idx].Close
	}
	ratio := beyond / atr

	switch {
	case ratio >= cfg.MoveStrongATR:
		c.Contribution = 1.5
		c.Passed = true
		c.Detail = fmt.Sprintf("close %.2f ATR beyond level, strong displacement", ratio)
	case ratio >= cfg.MoveModerateATR:
		c.Contribution = 0.5
		c.Passed = true
		c.Detail = fmt.Sprintf("close %.2f ATR beyond level", ratio)
	case ratio <= 0:
		c.Contribution = -1.5
		c.Detail = "close did not hold beyond the level"
	default:
		c.Detail = fmt.Sprintf("shallow move, %.2f ATR beyond level", ratio)
	}
	return c
}

func followThroughComponent(bars []market_data.OHLCV, cand Candidate, cfg Config, idx int) Component {
	c := Component{Name: "follow_through"}

	count := 0
	for i := idx; i >= 0; i-- {
		beyond := bars[i].Close > cand.Level
		if cand.Direction == zone.Bearish {
			beyond = bars[i].Close < cand.Level
		}
		if !beyond {
			break
		}
		count++
	}

	if count >= cfg.ConsecutiveCloses {
		c.Contribution = 1
		c.Passed = true
		c.Detail = fmt.Sprintf("%d consecutive closes beyond level", count)
	} else {
		c.Detail = fmt.Sprintf("only %d close(s) beyond level", count)
	}
	return c
}

func fvgComponent(bars []market_data.OHLCV, cand Candidate, cfg Config) Component {
	c := Component{Name: "fvg_alignment"}

	gaps := zone.DetectActiveFVG(bars, cfg.FVG)
	for _, g := range gaps {
		if g.Direction != cand.Direction {
			continue
		}
		aligned := cand.Direction == zone.Bullish && g.Top <= cand.Level ||
			cand.Direction == zone.Bearish && g.Bottom >= cand.Level
		if aligned {
			c.Contribution = 1
			c.Passed = true
			c.Detail = fmt.Sprintf("unfilled %s gap behind the level at %.4f-%.4f", g.Direction, g.Bottom, g.Top)
			return c
		}
	}

	c.Detail = "no supporting fair value gap"
	return c
}

func falseBreakComponent(bars []market_data.OHLCV, cfg Config) Component {
	c := Component{Name: "false_breakout_risk"}

	risk := falsebreak.Assess(bars, cfg.FalseBreak)
	penalty := risk.ScorePenalty
	if penalty > cfg.MaxFalseBreakPenalty {
		penalty = cfg.MaxFalseBreakPenalty
	}

	if penalty > 0 {
		c.Contribution = -penalty
		c.Detail = fmt.Sprintf("%s risk, %d pattern(s) detected", risk.Level, len(risk.Signals))
	} else {
		c.Passed = true
		c.Detail = "no false-breakout patterns detected"
	}
	return c
}

func htfComponent(cand Candidate) Component {
	c := Component{Name: "htf_alignment"}

	switch {
	case cand.HTFTrend == "" || cand.HTFTrend == structure.TrendSideways:
		c.Detail = "higher-timeframe trend unknown or sideways"
	case cand.HTFTrend == structure.TrendUp && cand.Direction == zone.Bullish,
		cand.HTFTrend == structure.TrendDown && cand.Direction == zone.Bearish:
		c.Contribution = 1
		c.Passed = true
		c.Detail = fmt.Sprintf("breakout aligned with %s higher-timeframe trend", cand.HTFTrend)
	default:
		c.Contribution = -1
		c.Detail = fmt.Sprintf("breakout against %s higher-timeframe trend", cand.HTFTrend)
	}
	return c
}

func divergenceComponent(bars []market_data.OHLCV, cand Candidate, cfg Config) Component {
	c := Component{Name: "volume_bias"}

	bias := volume.DetectBias(bars, cfg.Volume)
	diverging := cand.Direction == zone.Bullish && bias == volume.BiasDistribution ||
		cand.Direction == zone.Bearish && bias == volume.BiasAccumulation

	switch {
	case diverging:
		c.Contribution = -1
		c.Detail = fmt.Sprintf("volume bias (%s) diverges from breakout direction", bias)
	case bias == volume.BiasNeutral:
		c.Passed = true
		c.Detail = "volume bias neutral"
	default:
		c.Passed = true
		c.Detail = fmt.Sprintf("volume bias (%s) supports breakout direction", bias)
	}
	return c
}
