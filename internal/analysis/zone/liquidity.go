package zone

import (
	"math"
	"sort"
	"time"

	"hermes/internal/analysis/swing"
	"hermes/internal/analysis/volatility"
	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// LiquidityConfig holds liquidity pool and sweep detection parameters
type LiquidityConfig struct {
	// EqualLevelTolerance is the max relative distance between swing
	// levels for them to cluster into one pool (fraction of price)
	EqualLevelTolerance float64
	// MinPoolSize is how many swings a cluster needs to count as a pool
	MinPoolSize int
	// MinWickATR is the minimum wick excursion beyond the level, in ATRs
	MinWickATR float64
	// MaxCloseBeyondATR is how far beyond the level the close may sit
	// for the bar to still count as a rejection, in ATRs
	MaxCloseBeyondATR float64
	// RequireReversalBar demands the next bar confirm the rejection
	RequireReversalBar bool
	// ATRPeriod sizes the volatility normalizer
	ATRPeriod int
}

// DefaultLiquidityConfig returns the documented defaults
func DefaultLiquidityConfig() LiquidityConfig {
	return LiquidityConfig{
		EqualLevelTolerance: 0.001,
		MinPoolSize:         2,
		MinWickATR:          0.3,
		MaxCloseBeyondATR:   0.2,
		RequireReversalBar:  false,
		ATRPeriod:           14,
	}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c LiquidityConfig) Validate() error {
	if c.EqualLevelTolerance <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "liquidity equal_level_tolerance must be > 0, got %f", c.EqualLevelTolerance)
	}
	if c.MinPoolSize < 2 {
		return errors.Wrapf(errors.ErrInvalidConfig, "liquidity min_pool_size must be >= 2, got %d", c.MinPoolSize)
	}
	if c.MinWickATR < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "liquidity min_wick_atr must be >= 0, got %f", c.MinWickATR)
	}
	if c.MaxCloseBeyondATR < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "liquidity max_close_beyond_atr must be >= 0, got %f", c.MaxCloseBeyondATR)
	}
	if c.ATRPeriod < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "liquidity atr_period must be >= 1, got %d", c.ATRPeriod)
	}
	return nil
}

// Sweep is a liquidity grab: a wick through a resting level followed by
// rejection back inside
type Sweep struct {
	Direction Direction // bullish sweep grabs sell-side lows, bearish grabs buy-side highs
	Level     float64
	BarIndex  int
	Time      time.Time
	WickDepth float64 // excursion beyond the level
	Confirmed bool    // next bar reversed in the sweep's favor
}

// DetectLiquidityPools clusters swing highs into buy-side pools above
// price and swing lows into sell-side pools below price. Pools are
// emitted as zones spanning the cluster's level spread; strength grows
// with the number of equal touches.
func DetectLiquidityPools(bars []market_data.OHLCV, swings []swing.Point, cfg LiquidityConfig) []Zone {
	if len(bars) == 0 || len(swings) == 0 {
		return nil
	}

	current := bars[len(bars)-1].Close
	var out []Zone

	highs := swing.Highs(swings)
	for _, cluster := range clusterLevels(highs, cfg) {
		top, bottom := cluster.bounds()
		// Buy-side liquidity rests above price
		if bottom <= current {
			continue
		}
		out = append(out, Zone{
			Variant:        LiquidityPool,
			Direction:      Bearish, // resistance: stops above equal highs
			Top:            top,
			Bottom:         bottom,
			OriginBarIndex: cluster.firstBar(),
			OriginTime:     cluster.firstTime(),
			Strength:       poolStrength(len(cluster.points)),
			Status:         StatusUnmitigated,
		})
	}

	lows := swing.Lows(swings)
	for _, cluster := range clusterLevels(lows, cfg) {
		top, bottom := cluster.bounds()
		// Sell-side liquidity rests below price
		if top >= current {
			continue
		}
		out = append(out, Zone{
			Variant:        LiquidityPool,
			Direction:      Bullish, // support: stops below equal lows
			Top:            top,
			Bottom:         bottom,
			OriginBarIndex: cluster.firstBar(),
			OriginTime:     cluster.firstTime(),
			Strength:       poolStrength(len(cluster.points)),
			Status:         StatusUnmitigated,
		})
	}

	SortByOrigin(out)
	return out
}

// DetectSweeps finds bars whose wick pierces a swing level by at least
// MinWickATR while the close stays within MaxCloseBeyondATR of it.
// A sweep of a swing high is bearish (buy-side grabbed, then rejected);
// a sweep of a swing low is bullish.
func DetectSweeps(bars []market_data.OHLCV, swings []swing.Point, cfg LiquidityConfig) []Sweep {
	if len(bars) == 0 || len(swings) == 0 {
		return nil
	}

	atr := volatility.Series(bars, cfg.ATRPeriod)
	var out []Sweep

	for _, sp := range swings {
		// Only bars after the swing can sweep it
		for i := sp.BarIndex + 1; i < len(bars); i++ {
			scale := atrAt(bars, atr, cfg.ATRPeriod, i)
			if scale <= 0 {
				continue
			}
			bar := bars[i]

			if sp.Kind == swing.High {
				wick := bar.High - sp.Price
				closeBeyond := bar.Close - sp.Price
				if wick >= cfg.MinWickATR*scale && closeBeyond <= cfg.MaxCloseBeyondATR*scale {
					s := Sweep{
						Direction: Bearish,
						Level:     sp.Price,
						BarIndex:  i,
						Time:      bar.OpenTime,
						WickDepth: wick,
						Confirmed: i+1 < len(bars) && bars[i+1].Close < bar.Close,
					}
					if !cfg.RequireReversalBar || s.Confirmed {
						out = append(out, s)
					}
					break // one sweep per level
				}
			} else {
				wick := sp.Price - bar.Low
				closeBeyond := sp.Price - bar.Close
				if wick >= cfg.MinWickATR*scale && closeBeyond <= cfg.MaxCloseBeyondATR*scale {
					s := Sweep{
						Direction: Bullish,
						Level:     sp.Price,
						BarIndex:  i,
						Time:      bar.OpenTime,
						WickDepth: wick,
						Confirmed: i+1 < len(bars) && bars[i+1].Close > bar.Close,
					}
					if !cfg.RequireReversalBar || s.Confirmed {
						out = append(out, s)
					}
					break
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].BarIndex < out[j].BarIndex })
	return out
}

// levelCluster groups swings sitting at effectively equal prices
type levelCluster struct {
	points []swing.Point
}

func (c levelCluster) bounds() (top, bottom float64) {
	top, bottom = c.points[0].Price, c.points[0].Price
	for _, p := range c.points[1:] {
		top = math.Max(top, p.Price)
		bottom = math.Min(bottom, p.Price)
	}
	return top, bottom
}

func (c levelCluster) firstBar() int {
	first := c.points[0].BarIndex
	for _, p := range c.points[1:] {
		if p.BarIndex < first {
			first = p.BarIndex
		}
	}
	return first
}

func (c levelCluster) firstTime() time.Time {
	first := c.points[0]
	for _, p := range c.points[1:] {
		if p.BarIndex < first.BarIndex {
			first = p
		}
	}
	return first.Time
}

// clusterLevels greedily groups price-sorted swings whose levels sit
// within EqualLevelTolerance of the cluster anchor, keeping only groups
// of MinPoolSize or more.
func clusterLevels(points []swing.Point, cfg LiquidityConfig) []levelCluster {
	if len(points) == 0 {
		return nil
	}

	sorted := make([]swing.Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	var clusters []levelCluster
	current := levelCluster{points: []swing.Point{sorted[0]}}
	anchor := sorted[0].Price

	for _, p := range sorted[1:] {
		if anchor > 0 && math.Abs(p.Price-anchor)/anchor <= cfg.EqualLevelTolerance {
			current.points = append(current.points, p)
			continue
		}
		if len(current.points) >= cfg.MinPoolSize {
			clusters = append(clusters, current)
		}
		current = levelCluster{points: []swing.Point{p}}
		anchor = p.Price
	}
	if len(current.points) >= cfg.MinPoolSize {
		clusters = append(clusters, current)
	}
	return clusters
}

// poolStrength grows with the number of equal touches, saturating at 5
func poolStrength(touches int) float64 {
	return clampStrength(float64(touches) / 5 * 100)
}
