package swing

import (
	"time"

	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// Kind distinguishes swing highs from swing lows
type Kind string

const (
	High Kind = "high"
	Low  Kind = "low"
)

// Point is a confirmed fractal extreme. Points are immutable; zone
// detectors reference them by BarIndex, they never own bars.
type Point struct {
	Kind     Kind
	Price    float64
	BarIndex int
	Time     time.Time
}

// Config holds swing detection parameters
type Config struct {
	// Window is the number of bars on each side that must be strictly
	// exceeded for a bar to qualify as a swing
	Window int
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{Window: 1}
}

// Validate rejects out-of-range parameters at configuration-load time
func (c Config) Validate() error {
	if c.Window < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "swing window must be >= 1, got %d", c.Window)
	}
	return nil
}

// Find returns all confirmed swing points in bar order. A bar at index i
// is a swing high iff its high strictly exceeds the highs of the window
// bars on each side; symmetric for lows. Equal highs do not qualify.
// Fewer than 2*window+1 bars yields an empty slice, never an error.
// Edge bars within window of either boundary cannot be confirmed and are
// never classified.
func Find(bars []market_data.OHLCV, window int) []Point {
	if window < 1 {
		window = 1
	}
	if len(bars) < 2*window+1 {
		return nil
	}

	out := make([]Point, 0, len(bars)/4)
	for i := window; i < len(bars)-window; i++ {
		isHigh, isLow := true, true
		for j := i - window; j <= i+window; j++ {
			if j == i {
				continue
			}
			if bars[j].High >= bars[i].High {
				isHigh = false
			}
			if bars[j].Low <= bars[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			out = append(out, Point{Kind: High, Price: bars[i].High, BarIndex: i, Time: bars[i].OpenTime})
		}
		if isLow {
			out = append(out, Point{Kind: Low, Price: bars[i].Low, BarIndex: i, Time: bars[i].OpenTime})
		}
	}
	return out
}

// Highs filters points down to swing highs
func Highs(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Kind == High {
			out = append(out, p)
		}
	}
	return out
}

// Lows filters points down to swing lows
func Lows(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Kind == Low {
			out = append(out, p)
		}
	}
	return out
}

// Last returns the most recent point of the given kind, or false if none
func Last(points []Point, kind Kind) (Point, bool) {
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Kind == kind {
			return points[i], true
		}
	}
	return Point{}, false
}
