package analysis

import (
	"hermes/internal/analysis/falsebreak"
	"hermes/internal/analysis/mitigation"
	"hermes/internal/analysis/structure"
	"hermes/internal/analysis/swing"
	"hermes/internal/analysis/volatility"
	"hermes/internal/analysis/volume"
	"hermes/internal/analysis/wyckoff"
	"hermes/internal/analysis/zone"
	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// Detector names. The set is closed: detectors are bound at compile
// time, not discovered or registered dynamically.
const (
	DetectorSwings         = "swings"
	DetectorVolatility     = "volatility"
	DetectorFVG            = "fair_value_gaps"
	DetectorOrderBlocks    = "order_blocks"
	DetectorLiquidity      = "liquidity"
	DetectorPremium        = "premium_discount"
	DetectorStructure      = "structure"
	DetectorVolume         = "volume"
	DetectorWyckoff        = "wyckoff"
	DetectorFalseBreakouts = "false_breakouts"
)

// detectorFunc populates one section of the report from the bar table
type detectorFunc func(bars []market_data.OHLCV, cfg Config, r *Report)

type detectorEntry struct {
	name string
	run  detectorFunc
}

// registry fixes both the detector set and their execution order.
// Later entries may read sections written by earlier ones (liquidity
// and premium/discount reuse swings, false breakouts feed the
// validator), so the order is part of the contract.
var registry = []detectorEntry{
	{DetectorSwings, runSwings},
	{DetectorVolatility, runVolatility},
	{DetectorFVG, runFVG},
	{DetectorOrderBlocks, runOrderBlocks},
	{DetectorLiquidity, runLiquidity},
	{DetectorPremium, runPremium},
	{DetectorStructure, runStructure},
	{DetectorVolume, runVolume},
	{DetectorWyckoff, runWyckoff},
	{DetectorFalseBreakouts, runFalseBreakouts},
}

// DetectorNames returns the fixed detector set in execution order
func DetectorNames() []string {
	names := make([]string, 0, len(registry))
	for _, e := range registry {
		names = append(names, e.name)
	}
	return names
}

// validateDetectorNames rejects any enabled name outside the fixed set
func validateDetectorNames(names []string) error {
	known := make(map[string]struct{}, len(registry))
	for _, e := range registry {
		known[e.name] = struct{}{}
	}
	for _, n := range names {
		if _, ok := known[n]; !ok {
			return errors.Wrapf(errors.ErrUnknownDetector, "%q", n)
		}
	}
	return nil
}

func runSwings(bars []market_data.OHLCV, cfg Config, r *Report) {
	r.Swings = swing.Find(bars, cfg.Swing.Window)
}

func runVolatility(bars []market_data.OHLCV, cfg Config, r *Report) {
	r.ATR = volatility.Latest(bars, cfg.Volatility.Period)
}

func runFVG(bars []market_data.OHLCV, cfg Config, r *Report) {
	r.FairValueGaps = zone.DetectFVG(bars, cfg.FVG)
}

func runOrderBlocks(bars []market_data.OHLCV, cfg Config, r *Report) {
	blocks := zone.DetectOrderBlocks(bars, cfg.OrderBlock)
	r.OrderBlocks = mitigation.Track(bars, blocks, cfg.Mitigation)
	r.Breakers = mitigation.DeriveBreakers(bars, r.OrderBlocks)
}

func runLiquidity(bars []market_data.OHLCV, cfg Config, r *Report) {
	r.LiquidityPools = zone.DetectLiquidityPools(bars, r.Swings, cfg.Liquidity)
	r.Sweeps = zone.DetectSweeps(bars, r.Swings, cfg.Liquidity)
}

func runPremium(bars []market_data.OHLCV, cfg Config, r *Report) {
	r.Range = zone.ClassifyRange(bars, r.Swings, cfg.Premium)
}

func runStructure(bars []market_data.OHLCV, cfg Config, r *Report) {
	r.Structure = structure.Classify(bars, cfg.Structure)
}

func runVolume(bars []market_data.OHLCV, cfg Config, r *Report) {
	r.RVOL = volume.RVOL(bars, cfg.Volume.AveragePeriod)
	r.RVOLClass = volume.Classify(r.RVOL)
	r.VolumeBias = volume.DetectBias(bars, cfg.Volume)
	r.Profile = volume.BuildProfile(bars, cfg.ProfileBins)
}

func runWyckoff(bars []market_data.OHLCV, cfg Config, r *Report) {
	r.Wyckoff = wyckoff.Detect(bars, cfg.Wyckoff)
}

func runFalseBreakouts(bars []market_data.OHLCV, cfg Config, r *Report) {
	r.FalseBreakRisk = falsebreak.Assess(bars, cfg.FalseBreak)
}
