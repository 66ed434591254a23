package market_data

import (
	"time"

	"hermes/pkg/errors"
)

// OHLCV represents one candlestick of an instrument's bar table
type OHLCV struct {
	Exchange  string    `ch:"exchange"`
	Symbol    string    `ch:"symbol"`
	Timeframe string    `ch:"timeframe"` // 1m, 5m, 15m, 1h, 4h, 1d
	OpenTime  time.Time `ch:"open_time"`
	CloseTime time.Time `ch:"close_time"`
	Open      float64   `ch:"open"`
	High      float64   `ch:"high"`
	Low       float64   `ch:"low"`
	Close     float64   `ch:"close"`
	Volume    float64   `ch:"volume"`
	IsClosed  bool      `ch:"is_closed"` // Whether kline is closed (final)
}

// Body returns the absolute size of the candle body
func (c OHLCV) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Range returns the full high-low span of the candle
func (c OHLCV) Range() float64 {
	return c.High - c.Low
}

// BodyRatio returns body size relative to the full range.
// A zero-range candle has no meaningful ratio and reports 0.
func (c OHLCV) BodyRatio() float64 {
	r := c.Range()
	if r == 0 {
		return 0
	}
	return c.Body() / r
}

// UpperWick returns the distance from the body top to the high
func (c OHLCV) UpperWick() float64 {
	if c.Close >= c.Open {
		return c.High - c.Close
	}
	return c.High - c.Open
}

// LowerWick returns the distance from the body bottom to the low
func (c OHLCV) LowerWick() float64 {
	if c.Close >= c.Open {
		return c.Open - c.Low
	}
	return c.Close - c.Low
}

// IsBullish reports whether the candle closed above its open
func (c OHLCV) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open
func (c OHLCV) IsBearish() bool {
	return c.Close < c.Open
}

// Midpoint returns the middle of the candle range
func (c OHLCV) Midpoint() float64 {
	return (c.High + c.Low) / 2
}

// ClosePosition returns where the close sits inside the bar range,
// 0 at the low and 1 at the high. Zero-range bars report 0.5.
func (c OHLCV) ClosePosition() float64 {
	r := c.Range()
	if r == 0 {
		return 0.5
	}
	return (c.Close - c.Low) / r
}

// ValidateSeries checks that bars form a valid table: strictly ascending
// open times with no duplicates. The analysis core assumes this holds.
func ValidateSeries(bars []OHLCV) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].OpenTime.After(bars[i-1].OpenTime) {
			return errors.Wrapf(errors.ErrUnorderedBars,
				"bar %d open_time %s not after bar %d open_time %s",
				i, bars[i].OpenTime, i-1, bars[i-1].OpenTime)
		}
	}
	return nil
}

// Highs extracts the high column in series order
func Highs(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low column in series order
func Lows(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Closes extracts the close column in series order
func Closes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volume column in series order
func Volumes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// Reverse flips a bar slice in place. Repositories return newest-first;
// the analysis core expects chronological order (oldest first).
func Reverse(bars []OHLCV) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}

// OHLCVQuery represents query parameters for OHLCV data
type OHLCVQuery struct {
	Exchange  string
	Symbol    string
	Timeframe string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}
