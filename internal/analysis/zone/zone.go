package zone

import (
	"sort"
	"time"
)

// Direction is the side a zone or signal favors
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Invert flips bullish to bearish and back
func (d Direction) Invert() Direction {
	if d == Bullish {
		return Bearish
	}
	return Bullish
}

// Variant tags the closed set of zone kinds
type Variant string

const (
	FairValueGap  Variant = "fair_value_gap"
	OrderBlock    Variant = "order_block"
	BreakerBlock  Variant = "breaker_block"
	LiquidityPool Variant = "liquidity_pool"
)

// Status is the mitigation lifecycle state of a zone.
//
//	Unmitigated -> Touched -> Partial -> Full
//
// Respected branches off Touched/Partial when price closes back outside
// the zone, confirming it. Full is terminal.
type Status string

const (
	StatusUnmitigated Status = "unmitigated"
	StatusTouched     Status = "touched"
	StatusPartial     Status = "partial"
	StatusRespected   Status = "respected"
	StatusFull        Status = "full"
)

// Active reports whether the zone can still influence price.
// Everything short of Full counts as active.
func (s Status) Active() bool {
	return s != StatusFull
}

// Zone is a price area with a lifecycle. Top >= Bottom always holds for
// zones emitted by the detectors in this package.
type Zone struct {
	Variant        Variant
	Direction      Direction
	Top            float64
	Bottom         float64
	OriginBarIndex int
	OriginTime     time.Time
	Strength       float64 // 0..100
	Status         Status
}

// Height returns the vertical size of the zone
func (z Zone) Height() float64 {
	return z.Top - z.Bottom
}

// Midpoint returns the center of the zone
func (z Zone) Midpoint() float64 {
	return (z.Top + z.Bottom) / 2
}

// Contains reports whether a price sits inside the zone boundaries
func (z Zone) Contains(price float64) bool {
	return price >= z.Bottom && price <= z.Top
}

// clampStrength bounds a raw strength score to [0, 100]
func clampStrength(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// SortByOrigin orders zones by their origin bar, oldest first, breaking
// ties by bottom price so output is deterministic for overlapping zones.
func SortByOrigin(zones []Zone) {
	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].OriginBarIndex != zones[j].OriginBarIndex {
			return zones[i].OriginBarIndex < zones[j].OriginBarIndex
		}
		return zones[i].Bottom < zones[j].Bottom
	})
}

// FilterActive returns only zones whose lifecycle has not reached Full
func FilterActive(zones []Zone) []Zone {
	out := make([]Zone, 0, len(zones))
	for _, z := range zones {
		if z.Status.Active() {
			out = append(out, z)
		}
	}
	return out
}
