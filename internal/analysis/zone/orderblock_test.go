package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/domain/market_data"
)

func TestDetectOrderBlocksBullish(t *testing.T) {
	// Bearish candle at index 0 followed by a strong drive upward
	bars := []market_data.OHLCV{
		bar(0, 100, 100.5, 99, 99.2),
		bar(1, 99.2, 102, 99, 101.8),
		bar(2, 101.8, 104, 101.5, 103.8),
		bar(3, 103.8, 105, 103.5, 104.5),
	}

	zones := DetectOrderBlocks(bars, DefaultOrderBlockConfig())
	require.Len(t, zones, 1)

	z := zones[0]
	assert.Equal(t, OrderBlock, z.Variant)
	assert.Equal(t, Bullish, z.Direction)
	assert.Equal(t, 100.0, z.Top)
	assert.Equal(t, 99.2, z.Bottom)
	assert.Equal(t, 0, z.OriginBarIndex)
	assert.Equal(t, StatusUnmitigated, z.Status)
	assert.Greater(t, z.Strength, 0.0)
}

func TestDetectOrderBlocksBearish(t *testing.T) {
	bars := []market_data.OHLCV{
		bar(0, 100, 101, 99.5, 100.8),
		bar(1, 100.8, 100.9, 98, 98.2),
		bar(2, 98.2, 98.5, 96, 96.2),
		bar(3, 96.2, 96.5, 95, 95.5),
	}

	zones := DetectOrderBlocks(bars, DefaultOrderBlockConfig())
	require.Len(t, zones, 1)

	z := zones[0]
	assert.Equal(t, Bearish, z.Direction)
	assert.Equal(t, 100.8, z.Top)
	assert.Equal(t, 100.0, z.Bottom)
}

func TestDetectOrderBlocksWeakImpulseIgnored(t *testing.T) {
	bars := []market_data.OHLCV{
		bar(0, 100, 100.5, 99, 99.2),
		bar(1, 99.2, 99.8, 99, 99.5),
		bar(2, 99.5, 100, 99.2, 99.7),
		bar(3, 99.7, 100.2, 99.4, 99.9),
	}

	assert.Empty(t, DetectOrderBlocks(bars, DefaultOrderBlockConfig()))
}

func TestDetectOrderBlocksLowBodyRatioIgnored(t *testing.T) {
	// Doji candle before the impulse has no conviction
	bars := []market_data.OHLCV{
		bar(0, 100, 101, 99, 99.95),
		bar(1, 99.95, 102, 99.5, 101.8),
		bar(2, 101.8, 104, 101.5, 103.8),
		bar(3, 103.8, 105, 103.5, 104.5),
	}

	assert.Empty(t, DetectOrderBlocks(bars, DefaultOrderBlockConfig()))
}

func TestDetectOrderBlocksNextBarMustFollow(t *testing.T) {
	// Drive up happens eventually, but the very next bar closes lower, so
	// the candle is not the last opposing one
	bars := []market_data.OHLCV{
		bar(0, 100, 100.5, 99, 99.2),
		bar(1, 99.2, 99.3, 98.5, 98.8),
		bar(2, 98.8, 104, 98.5, 103.8),
		bar(3, 103.8, 105, 103.5, 104.5),
	}

	for _, z := range DetectOrderBlocks(bars, DefaultOrderBlockConfig()) {
		assert.NotEqual(t, 0, z.OriginBarIndex)
	}
}

func TestDetectOrderBlocksTooFewBars(t *testing.T) {
	assert.Nil(t, DetectOrderBlocks([]market_data.OHLCV{bar(0, 100, 101, 99, 100)}, DefaultOrderBlockConfig()))
}

func TestOrderBlockConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultOrderBlockConfig().Validate())

	bad := DefaultOrderBlockConfig()
	bad.MinImpulseATRRatio = 0
	assert.Error(t, bad.Validate())

	bad = DefaultOrderBlockConfig()
	bad.ImpulseBars = 0
	assert.Error(t, bad.Validate())

	bad = DefaultOrderBlockConfig()
	bad.MinBodyRatio = 1.5
	assert.Error(t, bad.Validate())
}
