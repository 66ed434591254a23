package analysis

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hermes/internal/analysis/falsebreak"
	"hermes/internal/analysis/mitigation"
	"hermes/internal/analysis/structure"
	"hermes/internal/analysis/swing"
	"hermes/internal/analysis/validator"
	"hermes/internal/analysis/volatility"
	"hermes/internal/analysis/volume"
	"hermes/internal/analysis/wyckoff"
	"hermes/internal/analysis/zone"
	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// Config aggregates every detector's parameters. Zero values are not
// usable; start from DefaultConfig.
type Config struct {
	// Enabled restricts the detector set. Empty means all detectors in
	// registry order.
	Enabled []string

	ProfileBins int

	Swing      swing.Config
	Volatility volatility.Config
	FVG        zone.FVGConfig
	OrderBlock zone.OrderBlockConfig
	Liquidity  zone.LiquidityConfig
	Premium    zone.PremiumDiscountConfig
	Structure  structure.Config
	Volume     volume.Config
	Wyckoff    wyckoff.Config
	Mitigation mitigation.Config
	FalseBreak falsebreak.Config
	Validator  validator.Config
}

// DefaultConfig returns the documented defaults for the whole pipeline
func DefaultConfig() Config {
	return Config{
		ProfileBins: 24,
		Swing:       swing.DefaultConfig(),
		Volatility:  volatility.DefaultConfig(),
		FVG:         zone.DefaultFVGConfig(),
		OrderBlock:  zone.DefaultOrderBlockConfig(),
		Liquidity:   zone.DefaultLiquidityConfig(),
		Premium:     zone.DefaultPremiumDiscountConfig(),
		Structure:   structure.DefaultConfig(),
		Volume:      volume.DefaultConfig(),
		Wyckoff:     wyckoff.DefaultConfig(),
		Mitigation:  mitigation.DefaultConfig(),
		FalseBreak:  falsebreak.DefaultConfig(),
		Validator:   validator.DefaultConfig(),
	}
}

// Validate checks every detector's parameters. Bad configuration is
// rejected here, at load time, so the pipeline itself never has to.
func (c Config) Validate() error {
	if c.ProfileBins < 2 {
		return errors.Wrapf(errors.ErrInvalidConfig, "profile_bins must be >= 2, got %d", c.ProfileBins)
	}
	if err := validateDetectorNames(c.Enabled); err != nil {
		return err
	}
	for _, v := range []interface{ Validate() error }{
		c.Swing, c.Volatility, c.FVG, c.OrderBlock, c.Liquidity,
		c.Premium, c.Structure, c.Volume, c.Wyckoff, c.Mitigation,
		c.FalseBreak, c.Validator,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Report is the full analysis output for one symbol/timeframe run
type Report struct {
	RunID       uuid.UUID
	Symbol      string
	Timeframe   string
	GeneratedAt time.Time
	BarCount    int

	Swings         []swing.Point
	ATR            float64
	FairValueGaps  []zone.Zone
	OrderBlocks    []mitigation.Block
	Breakers       []mitigation.Breaker
	LiquidityPools []zone.Zone
	Sweeps         []zone.Sweep
	Range          zone.RangeState
	Structure      structure.State
	RVOL           float64
	RVOLClass      volume.RVOLClass
	VolumeBias     volume.Bias
	Profile        volume.Profile
	Wyckoff        wyckoff.Result
	FalseBreakRisk falsebreak.Risk

	// Verdict is set when the structure read yields a breakout candidate
	Verdict *validator.Verdict
}

// Analyzer runs the detector pipeline over a bar table. It holds no
// mutable state: identical input and configuration produce an identical
// report apart from RunID and GeneratedAt.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer validates the configuration and returns a ready pipeline
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg}, nil
}

// Run executes the enabled detectors in registry order over
// chronologically ascending bars, then fuses a breakout verdict when
// the structure detector produced a candidate. Unordered bars are the
// only error; an empty or short table yields an empty report.
func (a *Analyzer) Run(symbol, timeframe string, bars []market_data.OHLCV) (*Report, error) {
	if err := market_data.ValidateSeries(bars); err != nil {
		return nil, errors.Wrapf(err, "analysis run for %s %s", symbol, timeframe)
	}

	r := &Report{
		RunID:       uuid.New(),
		Symbol:      symbol,
		Timeframe:   timeframe,
		GeneratedAt: time.Now().UTC(),
		BarCount:    len(bars),
	}

	enabled := a.enabledSet()
	for _, e := range registry {
		if _, ok := enabled[e.name]; !ok {
			continue
		}
		e.run(bars, a.cfg, r)
	}

	if cand, ok := breakoutCandidate(r); ok {
		v := validator.Validate(bars, cand, a.cfg.Validator)
		r.Verdict = &v
	}

	return r, nil
}

func (a *Analyzer) enabledSet() map[string]struct{} {
	names := a.cfg.Enabled
	if len(names) == 0 {
		names = DetectorNames()
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// breakoutCandidate picks the most recent structural break as the
// breakout to validate. Higher-timeframe context is left to callers
// that analyze multiple timeframes.
func breakoutCandidate(r *Report) (validator.Candidate, bool) {
	var last *structure.Event
	for i := range r.Structure.BOSEvents {
		ev := &r.Structure.BOSEvents[i]
		if last == nil || ev.BarIndex > last.BarIndex {
			last = ev
		}
	}
	for i := range r.Structure.CHoCHEvents {
		ev := &r.Structure.CHoCHEvents[i]
		if last == nil || ev.BarIndex > last.BarIndex {
			last = ev
		}
	}
	if last == nil {
		return validator.Candidate{}, false
	}

	dir := zone.Bullish
	if last.Trend == structure.TrendDown {
		dir = zone.Bearish
	}
	return validator.Candidate{
		Direction: dir,
		Level:     last.Level,
		BarIndex:  last.BarIndex,
	}, true
}

// Flatten renders the report's scalar features as a flat map keyed by
// feature name, prices and ratios as decimals so downstream sinks never
// see float formatting drift
func (r *Report) Flatten() map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{
		"atr":              decimal.NewFromFloat(r.ATR),
		"rvol":             decimal.NewFromFloat(r.RVOL),
		"range_high":       decimal.NewFromFloat(r.Range.RangeHigh),
		"range_low":        decimal.NewFromFloat(r.Range.RangeLow),
		"range_position":   decimal.NewFromFloat(r.Range.Position),
		"poc":              decimal.NewFromFloat(r.Profile.POC),
		"value_area_high":  decimal.NewFromFloat(r.Profile.ValueAreaHigh),
		"value_area_low":   decimal.NewFromFloat(r.Profile.ValueAreaLow),
		"swing_count":      decimal.NewFromInt(int64(len(r.Swings))),
		"fvg_count":        decimal.NewFromInt(int64(len(r.FairValueGaps))),
		"order_blocks":     decimal.NewFromInt(int64(len(r.OrderBlocks))),
		"breakers":         decimal.NewFromInt(int64(len(r.Breakers))),
		"liquidity_pools":  decimal.NewFromInt(int64(len(r.LiquidityPools))),
		"sweeps":           decimal.NewFromInt(int64(len(r.Sweeps))),
		"bos_events":       decimal.NewFromInt(int64(len(r.Structure.BOSEvents))),
		"choch_events":     decimal.NewFromInt(int64(len(r.Structure.CHoCHEvents))),
		"wyckoff_signals":  decimal.NewFromInt(int64(len(r.Wyckoff.Signals))),
		"false_break_pens": decimal.NewFromFloat(r.FalseBreakRisk.ScorePenalty),
	}
	if r.Verdict != nil {
		out["breakout_score"] = decimal.NewFromInt(int64(r.Verdict.Score))
		out["breakout_raw_score"] = decimal.NewFromFloat(r.Verdict.RawScore)
		out["breakout_level"] = decimal.NewFromFloat(r.Verdict.Level)
	}
	return out
}
