package structure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/domain/market_data"
)

func bar(i int, open, high, low, close float64) market_data.OHLCV {
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

func TestClassifyUptrendBOS(t *testing.T) {
	bars := []market_data.OHLCV{
		bar(0, 100.5, 101, 100, 100.5),
		bar(1, 101.5, 103, 101.5, 102.5),
		bar(2, 102, 102, 100.5, 101),
		bar(3, 101, 104.5, 101, 104),
		bar(4, 103.5, 103.5, 102, 103),
		bar(5, 103, 105, 102.5, 105),
	}

	state := Classify(bars, DefaultConfig())
	assert.Equal(t, TrendUp, state.CurrentTrend)
	require.Len(t, state.BOSEvents, 2)
	assert.Empty(t, state.CHoCHEvents)

	first := state.BOSEvents[0]
	assert.Equal(t, BOS, first.Kind)
	assert.Equal(t, 103.0, first.Level)
	assert.Equal(t, 3, first.BarIndex)
	assert.Equal(t, TrendUp, first.Trend)

	second := state.BOSEvents[1]
	assert.Equal(t, 104.5, second.Level)
	assert.Equal(t, 5, second.BarIndex)
}

func chochBars() []market_data.OHLCV {
	return []market_data.OHLCV{
		bar(0, 107, 108, 106, 107),
		bar(1, 107, 110, 107, 109),
		bar(2, 108.5, 108.5, 104, 105),
		bar(3, 105, 109, 105, 106),
		bar(4, 106, 106, 102, 103),
		bar(5, 103, 105, 103, 104),
		bar(6, 104, 110, 103.5, 109.5),
	}
}

func TestClassifyCHoCHFlipsTrend(t *testing.T) {
	state := Classify(chochBars(), DefaultConfig())

	require.Len(t, state.BOSEvents, 1)
	assert.Equal(t, TrendDown, state.BOSEvents[0].Trend)
	assert.Equal(t, 104.0, state.BOSEvents[0].Level)

	require.Len(t, state.CHoCHEvents, 1)
	ch := state.CHoCHEvents[0]
	assert.Equal(t, CHoCH, ch.Kind)
	assert.Equal(t, 109.0, ch.Level)
	assert.Equal(t, 6, ch.BarIndex)
	assert.Equal(t, TrendUp, ch.Trend)

	assert.Equal(t, TrendUp, state.CurrentTrend)
}

func TestClassifyCHoCHImpulseFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CHoCHMinImpulseATR = 5

	// The close only travels half a point past the broken level, far
	// short of 5 ATRs, so the reversal is not confirmed
	state := Classify(chochBars(), cfg)
	assert.Empty(t, state.CHoCHEvents)
	assert.Equal(t, TrendDown, state.CurrentTrend)
}

func TestClassifyTooFewSwings(t *testing.T) {
	bars := []market_data.OHLCV{
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 101, 99, 100.5),
		bar(2, 100.5, 101, 99, 100),
	}

	state := Classify(bars, DefaultConfig())
	assert.Equal(t, TrendSideways, state.CurrentTrend)
	assert.Empty(t, state.BOSEvents)
	assert.Empty(t, state.CHoCHEvents)

	empty := Classify(nil, DefaultConfig())
	assert.Equal(t, TrendSideways, empty.CurrentTrend)
}

func TestClassifyDeterminism(t *testing.T) {
	first := Classify(chochBars(), DefaultConfig())
	second := Classify(chochBars(), DefaultConfig())
	assert.Equal(t, first, second)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.SwingWindow = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.CHoCHMinImpulseATR = -1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.ATRPeriod = 0
	assert.Error(t, bad.Validate())
}
