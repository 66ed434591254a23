package swing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/domain/market_data"
)

func mkBars(hl ...[2]float64) []market_data.OHLCV {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market_data.OHLCV, 0, len(hl))
	for i, v := range hl {
		high, low := v[0], v[1]
		out = append(out, market_data.OHLCV{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     (high + low) / 2,
			High:     high,
			Low:      low,
			Close:    (high + low) / 2,
			Volume:   1000,
		})
	}
	return out
}

func TestFindDetectsFractalHigh(t *testing.T) {
	bars := mkBars(
		[2]float64{100, 99},
		[2]float64{102, 99.5},
		[2]float64{100.5, 99.2},
	)

	points := Find(bars, 1)
	require.Len(t, points, 1)
	assert.Equal(t, High, points[0].Kind)
	assert.Equal(t, 102.0, points[0].Price)
	assert.Equal(t, 1, points[0].BarIndex)
	assert.Equal(t, bars[1].OpenTime, points[0].Time)
}

func TestFindDetectsFractalLow(t *testing.T) {
	bars := mkBars(
		[2]float64{100, 99},
		[2]float64{99.8, 97.5},
		[2]float64{100.2, 98.5},
	)

	points := Find(bars, 1)
	require.Len(t, points, 1)
	assert.Equal(t, Low, points[0].Kind)
	assert.Equal(t, 97.5, points[0].Price)
}

func TestFindInsufficientData(t *testing.T) {
	bars := mkBars([2]float64{100, 99}, [2]float64{101, 99.5})
	assert.Empty(t, Find(bars, 1))
	assert.Empty(t, Find(nil, 1))
}

func TestFindEqualHighsDoNotQualify(t *testing.T) {
	bars := mkBars(
		[2]float64{100, 99},
		[2]float64{100, 98.5},
		[2]float64{99.5, 99},
	)

	for _, p := range Find(bars, 1) {
		assert.NotEqual(t, High, p.Kind, "equal highs must not form a swing high")
	}
}

func TestFindBoundaryBarsNeverClassified(t *testing.T) {
	// Highest high sits at index 0, lowest low at the last index; neither
	// can be confirmed without bars on both sides
	bars := mkBars(
		[2]float64{110, 105},
		[2]float64{104, 100},
		[2]float64{103, 99},
		[2]float64{102, 95},
	)

	points := Find(bars, 1)
	for _, p := range points {
		assert.Greater(t, p.BarIndex, 0)
		assert.Less(t, p.BarIndex, len(bars)-1)
	}
}

func TestFindWiderWindow(t *testing.T) {
	bars := mkBars(
		[2]float64{100, 99},
		[2]float64{101, 99.5},
		[2]float64{103, 100},
		[2]float64{101.5, 99.8},
		[2]float64{100.5, 99.1},
	)

	points := Find(bars, 2)
	require.Len(t, points, 1)
	assert.Equal(t, High, points[0].Kind)
	assert.Equal(t, 2, points[0].BarIndex)
}

func TestFindDeterminism(t *testing.T) {
	bars := mkBars(
		[2]float64{100, 99},
		[2]float64{102, 99.5},
		[2]float64{101, 97},
		[2]float64{103, 98},
		[2]float64{102.5, 97.5},
	)

	first := Find(bars, 1)
	second := Find(bars, 1)
	assert.Equal(t, first, second)
}

func TestHighsLowsLast(t *testing.T) {
	bars := mkBars(
		[2]float64{100, 99},
		[2]float64{102, 99.5},
		[2]float64{101, 97},
		[2]float64{103, 98},
		[2]float64{102.5, 97.5},
	)

	points := Find(bars, 1)
	highs := Highs(points)
	lows := Lows(points)
	assert.Equal(t, len(points), len(highs)+len(lows))

	last, ok := Last(points, High)
	require.True(t, ok)
	assert.Equal(t, High, last.Kind)
	for _, h := range highs {
		assert.LessOrEqual(t, h.BarIndex, last.BarIndex)
	}

	_, ok = Last(nil, Low)
	assert.False(t, ok)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Window: 0}.Validate())
}
