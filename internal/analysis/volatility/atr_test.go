package volatility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/domain/market_data"
)

func mkBar(i int, open, high, low, close float64) market_data.OHLCV {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return market_data.OHLCV{
		OpenTime: base.Add(time.Duration(i) * time.Minute),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		Volume:   1000,
	}
}

func TestTrueRangeFirstBar(t *testing.T) {
	bars := []market_data.OHLCV{mkBar(0, 100, 102, 99, 101)}
	assert.Equal(t, 3.0, TrueRange(bars, 0))
}

func TestTrueRangeGapUp(t *testing.T) {
	bars := []market_data.OHLCV{
		mkBar(0, 100, 101, 99, 100),
		mkBar(1, 105, 106, 104.5, 105.5),
	}
	// high-low is 1.5 but |high - prevClose| = 6 dominates
	assert.Equal(t, 6.0, TrueRange(bars, 1))
}

func TestTrueRangeGapDown(t *testing.T) {
	bars := []market_data.OHLCV{
		mkBar(0, 100, 101, 99, 100),
		mkBar(1, 95, 96, 94, 95.5),
	}
	// |low - prevClose| = 6
	assert.Equal(t, 6.0, TrueRange(bars, 1))
}

func TestSeriesFallbackRunningMean(t *testing.T) {
	bars := []market_data.OHLCV{
		mkBar(0, 100, 102, 100, 101), // TR 2
		mkBar(1, 101, 105, 101, 104), // TR 4
		mkBar(2, 104, 105, 99, 100),  // TR 6
	}

	series := Series(bars, 14)
	require.Len(t, series, 3)
	assert.InDelta(t, 2.0, series[0], 1e-9)
	assert.InDelta(t, 3.0, series[1], 1e-9)
	assert.InDelta(t, 4.0, series[2], 1e-9)
}

func TestSeriesWilderSmoothed(t *testing.T) {
	bars := make([]market_data.OHLCV, 0, 20)
	for i := 0; i < 20; i++ {
		p := 100 + float64(i)*0.5
		bars = append(bars, mkBar(i, p, p+1, p-1, p+0.5))
	}

	series := Series(bars, 14)
	require.Len(t, series, 20)
	// Warmup entries are zero, the tail carries a positive estimate
	assert.Zero(t, series[0])
	assert.Greater(t, series[len(series)-1], 0.0)
}

func TestSeriesEmpty(t *testing.T) {
	assert.Nil(t, Series(nil, 14))
}

func TestLatest(t *testing.T) {
	assert.Zero(t, Latest(nil, 14))

	bars := []market_data.OHLCV{
		mkBar(0, 100, 103, 100, 102),
		mkBar(1, 102, 104, 101, 103),
	}
	// Running-mean fallback: (3 + max(3, 2, 1)) / 2
	assert.InDelta(t, 3.0, Latest(bars, 14), 1e-9)
}

func TestAtWarmupUsesFallback(t *testing.T) {
	bars := make([]market_data.OHLCV, 0, 20)
	for i := 0; i < 20; i++ {
		p := 100 + float64(i)*0.5
		bars = append(bars, mkBar(i, p, p+1, p-1, p+0.5))
	}

	// Index 0 sits in the talib warmup window where the series is zero
	got := At(bars, 14, 0)
	assert.InDelta(t, TrueRange(bars, 0), got, 1e-9)

	// Past the warmup window At matches the series value
	series := Series(bars, 14)
	assert.Equal(t, series[19], At(bars, 14, 19))
}

func TestAtOutOfRange(t *testing.T) {
	bars := []market_data.OHLCV{mkBar(0, 100, 101, 99, 100)}
	assert.Zero(t, At(bars, 14, -1))
	assert.Zero(t, At(bars, 14, 1))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Period: 0}.Validate())
}
