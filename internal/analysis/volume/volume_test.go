package volume

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/domain/market_data"
)

func barVol(i int, open, close, vol float64) market_data.OHLCV {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	high := open
	if close > high {
		high = close
	}
	low := open
	if close < low {
		low = close
	}
	return market_data.OHLCV{
		OpenTime: base.Add(time.Duration(i) * time.Minute),
		Open:     open,
		High:     high + 0.1,
		Low:      low - 0.1,
		Close:    close,
		Volume:   vol,
	}
}

// flatSeries builds n bars of identical volume followed by one bar
// carrying lastVol
func flatSeries(n int, baseVol, lastVol float64) []market_data.OHLCV {
	bars := make([]market_data.OHLCV, 0, n+1)
	for i := 0; i < n; i++ {
		bars = append(bars, barVol(i, 100, 100.5, baseVol))
	}
	bars = append(bars, barVol(n, 100.5, 101.5, lastVol))
	return bars
}

func TestRVOLHighParticipation(t *testing.T) {
	bars := flatSeries(20, 1000, 3000)

	rvol := RVOL(bars, 20)
	assert.InDelta(t, 3.0, rvol, 1e-9)
	assert.Equal(t, RVOLVeryHigh, Classify(rvol))
}

func TestRVOLLowParticipation(t *testing.T) {
	bars := flatSeries(20, 1000, 400)
	rvol := RVOL(bars, 20)
	assert.InDelta(t, 0.4, rvol, 1e-9)
	assert.Equal(t, RVOLLow, Classify(rvol))
}

func TestRVOLNoData(t *testing.T) {
	assert.Zero(t, RVOL(nil, 20))
	assert.Zero(t, RVOL(flatSeries(20, 0, 0), 20))
	assert.Equal(t, RVOLNoData, Classify(0))
}

func TestRVOLAtBounds(t *testing.T) {
	bars := flatSeries(5, 1000, 2000)
	assert.Zero(t, RVOLAt(bars, 20, -1))
	assert.Zero(t, RVOLAt(bars, 20, len(bars)))
	// First bar has no history to average
	assert.Zero(t, RVOLAt(bars, 20, 0))
}

func TestClassifyBuckets(t *testing.T) {
	assert.Equal(t, RVOLLow, Classify(0.3))
	assert.Equal(t, RVOLNormal, Classify(1.0))
	assert.Equal(t, RVOLHigh, Classify(2.0))
	assert.Equal(t, RVOLVeryHigh, Classify(3.0))
	assert.Equal(t, RVOLExtreme, Classify(5.0))
}

func TestIsSpike(t *testing.T) {
	cfg := DefaultConfig()
	spiky := flatSeries(20, 1000, 2600)
	assert.True(t, IsSpike(spiky, cfg, len(spiky)-1))

	calm := flatSeries(20, 1000, 1200)
	assert.False(t, IsSpike(calm, cfg, len(calm)-1))
}

func TestAverageVolume(t *testing.T) {
	bars := flatSeries(4, 1000, 1000)
	// Short of the period: plain mean of what exists
	assert.InDelta(t, 1000, AverageVolume(bars, 20), 1e-9)
	assert.Zero(t, AverageVolume(nil, 20))
}

func TestDetectBias(t *testing.T) {
	cfg := DefaultConfig()

	accum := make([]market_data.OHLCV, 0, 10)
	for i := 0; i < 8; i++ {
		accum = append(accum, barVol(i, 100, 101, 2000)) // bullish, heavy
	}
	accum = append(accum, barVol(8, 101, 100.5, 500))
	accum = append(accum, barVol(9, 100.5, 100, 500))
	assert.Equal(t, BiasAccumulation, DetectBias(accum, cfg))

	distrib := make([]market_data.OHLCV, 0, 10)
	for i := 0; i < 8; i++ {
		distrib = append(distrib, barVol(i, 101, 100, 2000)) // bearish, heavy
	}
	distrib = append(distrib, barVol(8, 100, 100.5, 500))
	distrib = append(distrib, barVol(9, 100.5, 101, 500))
	assert.Equal(t, BiasDistribution, DetectBias(distrib, cfg))

	balanced := []market_data.OHLCV{
		barVol(0, 100, 101, 1000),
		barVol(1, 101, 100, 1000),
	}
	assert.Equal(t, BiasNeutral, DetectBias(balanced, cfg))
	assert.Equal(t, BiasNeutral, DetectBias(nil, cfg))
}

func TestValidateBreakoutVolume(t *testing.T) {
	cfg := DefaultConfig()

	strong := ValidateBreakoutVolume(flatSeries(20, 1000, 3000), cfg)
	assert.True(t, strong.IsValid)
	assert.Equal(t, 2.0, strong.ScoreAdjustment)

	decent := ValidateBreakoutVolume(flatSeries(20, 1000, 1800), cfg)
	assert.True(t, decent.IsValid)
	assert.Equal(t, 1.0, decent.ScoreAdjustment)

	weak := ValidateBreakoutVolume(flatSeries(20, 1000, 500), cfg)
	assert.False(t, weak.IsValid)
	assert.Equal(t, -1.0, weak.ScoreAdjustment)

	inconclusive := ValidateBreakoutVolume(flatSeries(20, 1000, 1200), cfg)
	assert.False(t, inconclusive.IsValid)
	assert.Zero(t, inconclusive.ScoreAdjustment)

	noData := ValidateBreakoutVolume(flatSeries(20, 0, 0), cfg)
	assert.False(t, noData.IsValid)
	assert.Zero(t, noData.ScoreAdjustment)
	assert.Equal(t, RVOLNoData, noData.Class)
}

func TestBuildProfile(t *testing.T) {
	bars := make([]market_data.OHLCV, 0, 30)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		// Cluster most volume around 100, a few excursions to 110
		price, vol := 100.0, 2000.0
		if i%10 == 0 {
			price, vol = 110.0, 300.0
		}
		bars = append(bars, market_data.OHLCV{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     price,
			High:     price + 0.5,
			Low:      price - 0.5,
			Close:    price,
			Volume:   vol,
		})
	}

	p := BuildProfile(bars, 24)
	require.NotZero(t, p.TotalVolume)
	assert.InDelta(t, 100, p.POC, 1.0)
	assert.LessOrEqual(t, p.ValueAreaLow, p.POC)
	assert.GreaterOrEqual(t, p.ValueAreaHigh, p.POC)
	assert.NotEmpty(t, p.TopNodes)
	// Nodes are ordered by volume, the heaviest first
	for i := 1; i < len(p.TopNodes); i++ {
		assert.GreaterOrEqual(t, p.TopNodes[i-1].Volume, p.TopNodes[i].Volume)
	}
}

func TestBuildProfileDegenerate(t *testing.T) {
	assert.Zero(t, BuildProfile(flatSeries(5, 1000, 1000), 24).TotalVolume)

	flat := make([]market_data.OHLCV, 12)
	for i := range flat {
		flat[i] = market_data.OHLCV{Open: 100, High: 100, Low: 100, Close: 100, Volume: 1000}
	}
	assert.Zero(t, BuildProfile(flat, 24).TotalVolume)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.AveragePeriod = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.SpikeMultiple = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.BreakoutMinRVOL = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.BiasLookback = 1
	assert.Error(t, bad.Validate())
}
