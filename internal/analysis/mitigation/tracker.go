package mitigation

import (
	"hermes/internal/analysis/zone"
	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// Block is an order block with its observed mitigation lifecycle
type Block struct {
	Zone zone.Zone
	// PenetrationPct is the maximum observed penetration depth as a
	// fraction of zone height, in [0,1]. It never decreases as more
	// bars are scanned.
	PenetrationPct float64
	TouchCount     int
	BounceCount    int
	// FirstTouchIndex is the bar that first entered the zone, -1 if none
	FirstTouchIndex int
	// BrokenIndex is the bar that completed full penetration, -1 if none
	BrokenIndex int
}

// Breaker is a fully broken order block flipped to the opposite role
type Breaker struct {
	Zone zone.Zone
	// SourceIndex is the origin bar of the order block it derives from
	SourceIndex int
	// Retested reports whether price returned to the breaker after the break
	Retested bool
	// RetestHeld reports whether that retest was rejected (the breaker held)
	RetestHeld bool
}

// Config holds mitigation tracking parameters
type Config struct {
	// PartialThreshold is the penetration fraction where Touched
	// becomes Partial
	PartialThreshold float64
	// FullThreshold is the penetration fraction where the zone is
	// considered fully mitigated
	FullThreshold float64
	// BounceStrengthBonus is added per observed bounce
	BounceStrengthBonus float64
	// TouchStrengthDecay is subtracted per unreturned touch, the level
	// getting used up
	TouchStrengthDecay float64
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		PartialThreshold:    0.5,
		FullThreshold:       1.0,
		BounceStrengthBonus: 10,
		TouchStrengthDecay:  5,
	}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c Config) Validate() error {
	if c.PartialThreshold <= 0 || c.PartialThreshold >= 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "mitigation partial_threshold must be in (0,1), got %f", c.PartialThreshold)
	}
	if c.FullThreshold <= c.PartialThreshold || c.FullThreshold > 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "mitigation full_threshold must be in (partial,1], got %f", c.FullThreshold)
	}
	if c.BounceStrengthBonus < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "mitigation bounce_strength_bonus must be >= 0, got %f", c.BounceStrengthBonus)
	}
	if c.TouchStrengthDecay < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "mitigation touch_strength_decay must be >= 0, got %f", c.TouchStrengthDecay)
	}
	return nil
}

// Track scans all bars after each zone's origin and derives its
// lifecycle. Penetration is the maximum depth price has reached into the
// zone, so it is monotonically non-decreasing as the bar window grows.
// Bounces (a close back outside after a touch) raise strength; touches
// that never bounce decay it. Status transitions follow
// Unmitigated -> Touched -> Partial -> Full, with Respected branching
// off Touched/Partial once a bounce confirms the zone.
func Track(bars []market_data.OHLCV, blocks []zone.Zone, cfg Config) []Block {
	out := make([]Block, 0, len(blocks))
	for _, z := range blocks {
		out = append(out, trackOne(bars, z, cfg))
	}
	return out
}

func trackOne(bars []market_data.OHLCV, z zone.Zone, cfg Config) Block {
	b := Block{Zone: z, FirstTouchIndex: -1, BrokenIndex: -1}
	height := z.Height()
	if height <= 0 {
		// Degenerate zone: any touch is full penetration
		height = 0
	}

	inZone := false

	for i := z.OriginBarIndex + 1; i < len(bars); i++ {
		bar := bars[i]

		var depth float64
		var touched bool
		if z.Direction == zone.Bullish {
			// Price mitigates a bullish zone from above, probing down
			if bar.Low <= z.Top {
				touched = true
				if height > 0 {
					depth = (z.Top - bar.Low) / height
				} else {
					depth = 1
				}
			}
		} else {
			// Price mitigates a bearish zone from below, probing up
			if bar.High >= z.Bottom {
				touched = true
				if height > 0 {
					depth = (bar.High - z.Bottom) / height
				} else {
					depth = 1
				}
			}
		}
		if depth > 1 {
			depth = 1
		}

		if touched {
			if b.FirstTouchIndex < 0 {
				b.FirstTouchIndex = i
			}
			if depth > b.PenetrationPct {
				b.PenetrationPct = depth
			}
			if b.BrokenIndex < 0 && b.PenetrationPct >= cfg.FullThreshold {
				b.BrokenIndex = i
			}
			if !inZone {
				b.TouchCount++
				inZone = true
			}
		}

		// A close back on the zone's far side after being inside counts
		// as a bounce: the zone rejected price
		if inZone {
			if z.Direction == zone.Bullish && bar.Close > z.Top {
				b.BounceCount++
				inZone = false
			} else if z.Direction == zone.Bearish && bar.Close < z.Bottom {
				b.BounceCount++
				inZone = false
			}
		}
	}

	b.Zone.Status = statusFor(b, cfg)
	b.Zone.Strength = adjustStrength(z.Strength, b, cfg)
	return b
}

// statusFor derives the lifecycle state from the observed penetration
// and bounce history
func statusFor(b Block, cfg Config) zone.Status {
	switch {
	case b.PenetrationPct >= cfg.FullThreshold:
		return zone.StatusFull
	case b.TouchCount == 0:
		return zone.StatusUnmitigated
	case b.BounceCount > 0:
		return zone.StatusRespected
	case b.PenetrationPct >= cfg.PartialThreshold:
		return zone.StatusPartial
	default:
		return zone.StatusTouched
	}
}

// adjustStrength applies bounce bonuses and touch decay, clamped to [0,100]
func adjustStrength(base float64, b Block, cfg Config) float64 {
	s := base
	s += float64(b.BounceCount) * cfg.BounceStrengthBonus
	unreturned := b.TouchCount - b.BounceCount
	if unreturned > 0 {
		s -= float64(unreturned) * cfg.TouchStrengthDecay
	}
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// DeriveBreakers reclassifies fully mitigated order blocks as breaker
// blocks with inverted direction at the same boundaries, then checks
// whether price has since retested the breaker and whether that retest
// held.
func DeriveBreakers(bars []market_data.OHLCV, tracked []Block) []Breaker {
	var out []Breaker

	for _, b := range tracked {
		if b.Zone.Status != zone.StatusFull || b.BrokenIndex < 0 {
			continue
		}

		bz := zone.Zone{
			Variant:        zone.BreakerBlock,
			Direction:      b.Zone.Direction.Invert(),
			Top:            b.Zone.Top,
			Bottom:         b.Zone.Bottom,
			OriginBarIndex: b.BrokenIndex,
			OriginTime:     bars[b.BrokenIndex].OpenTime,
			Strength:       b.Zone.Strength,
			Status:         zone.StatusUnmitigated,
		}

		br := Breaker{Zone: bz, SourceIndex: b.Zone.OriginBarIndex}

		for i := b.BrokenIndex + 1; i < len(bars); i++ {
			bar := bars[i]
			if bz.Direction == zone.Bullish {
				// Broken bearish block now acts as support below price
				if bar.Low <= bz.Top {
					br.Retested = true
					br.RetestHeld = bar.Close > bz.Bottom
				}
			} else {
				if bar.High >= bz.Bottom {
					br.Retested = true
					br.RetestHeld = bar.Close < bz.Top
				}
			}
		}

		out = append(out, br)
	}

	return out
}
