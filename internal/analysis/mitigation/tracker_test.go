package mitigation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/analysis/zone"
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

func bullishBlock(strength float64) zone.Zone {
	return zone.Zone{
		Variant:        zone.OrderBlock,
		Direction:      zone.Bullish,
		Top:            102,
		Bottom:         100,
		OriginBarIndex: 0,
		Strength:       strength,
		Status:         zone.StatusUnmitigated,
	}
}

func TestTrackUntouchedZone(t *testing.T) {
	bars := []market_data.OHLCV{
		bar(0, 102.5, 103, 102, 102.5),
		bar(1, 102.5, 104, 102.5, 103.5),
	}

	tracked := Track(bars, []zone.Zone{bullishBlock(50)}, DefaultConfig())
	require.Len(t, tracked, 1)

	b := tracked[0]
	assert.Equal(t, zone.StatusUnmitigated, b.Zone.Status)
	assert.Zero(t, b.PenetrationPct)
	assert.Zero(t, b.TouchCount)
	assert.Equal(t, -1, b.FirstTouchIndex)
	assert.Equal(t, -1, b.BrokenIndex)
	assert.Equal(t, 50.0, b.Zone.Strength)
}

func TestTrackTouchedZone(t *testing.T) {
	bars := []market_data.OHLCV{
		bar(0, 102.5, 103, 102, 102.5),
		bar(1, 102.5, 102.6, 101.5, 101.8),
	}

	b := Track(bars, []zone.Zone{bullishBlock(50)}, DefaultConfig())[0]
	assert.Equal(t, zone.StatusTouched, b.Zone.Status)
	assert.InDelta(t, 0.25, b.PenetrationPct, 1e-9)
	assert.Equal(t, 1, b.TouchCount)
	assert.Equal(t, 1, b.FirstTouchIndex)
	// One unreturned touch decays strength
	assert.Equal(t, 45.0, b.Zone.Strength)
}

func TestTrackRespectedZone(t *testing.T) {
	bars := []market_data.OHLCV{
		bar(0, 102.5, 103, 102, 102.5),
		bar(1, 102.5, 102.8, 101, 102.5),
	}

	b := Track(bars, []zone.Zone{bullishBlock(50)}, DefaultConfig())[0]
	assert.Equal(t, zone.StatusRespected, b.Zone.Status)
	assert.Equal(t, 1, b.BounceCount)
	assert.Equal(t, 60.0, b.Zone.Strength)
	assert.Equal(t, -1, b.BrokenIndex)
}

func TestTrackFullPenetrationSpawnsBreaker(t *testing.T) {
	bars := []market_data.OHLCV{
		bar(0, 102.5, 103, 102, 102.5),
		bar(1, 102.5, 102.6, 99, 99.5),
		bar(2, 99.5, 100.5, 99.5, 99.8),
	}

	tracked := Track(bars, []zone.Zone{bullishBlock(50)}, DefaultConfig())
	require.Len(t, tracked, 1)

	b := tracked[0]
	assert.Equal(t, zone.StatusFull, b.Zone.Status)
	assert.Equal(t, 1.0, b.PenetrationPct)
	assert.Equal(t, 1, b.BrokenIndex)

	breakers := DeriveBreakers(bars, tracked)
	require.Len(t, breakers, 1)

	br := breakers[0]
	assert.Equal(t, zone.BreakerBlock, br.Zone.Variant)
	assert.Equal(t, zone.Bearish, br.Zone.Direction)
	assert.Equal(t, 102.0, br.Zone.Top)
	assert.Equal(t, 100.0, br.Zone.Bottom)
	assert.Equal(t, 1, br.Zone.OriginBarIndex)
	assert.Equal(t, 0, br.SourceIndex)
	assert.True(t, br.Retested)
	assert.True(t, br.RetestHeld)
}

func TestTrackPenetrationMonotonic(t *testing.T) {
	bars := []market_data.OHLCV{
		bar(0, 102.5, 103, 102, 102.5),
		bar(1, 102.5, 102.8, 101.5, 102.3), // probe 25%
		bar(2, 102.3, 102.6, 100.8, 102.1), // probe 60%
		bar(3, 102.1, 103.5, 102.1, 103),   // retreat
	}

	prev := 0.0
	for n := 1; n <= len(bars); n++ {
		b := Track(bars[:n], []zone.Zone{bullishBlock(50)}, DefaultConfig())[0]
		assert.GreaterOrEqual(t, b.PenetrationPct, prev)
		prev = b.PenetrationPct
	}
	assert.InDelta(t, 0.6, prev, 1e-9)
}

func TestTrackBearishZone(t *testing.T) {
	z := zone.Zone{
		Variant:        zone.OrderBlock,
		Direction:      zone.Bearish,
		Top:            102,
		Bottom:         100,
		OriginBarIndex: 0,
		Strength:       50,
	}
	bars := []market_data.OHLCV{
		bar(0, 99.5, 100, 99, 99.5),
		bar(1, 99.5, 101, 99.5, 99.7), // probe halfway up, close back below
	}

	b := Track(bars, []zone.Zone{z}, DefaultConfig())[0]
	assert.Equal(t, zone.StatusRespected, b.Zone.Status)
	assert.InDelta(t, 0.5, b.PenetrationPct, 1e-9)
	assert.Equal(t, 1, b.BounceCount)
}

func TestTrackDegenerateZone(t *testing.T) {
	z := zone.Zone{
		Variant:        zone.OrderBlock,
		Direction:      zone.Bullish,
		Top:            100,
		Bottom:         100,
		OriginBarIndex: 0,
		Strength:       50,
	}
	bars := []market_data.OHLCV{
		bar(0, 100.5, 101, 100.2, 100.5),
		bar(1, 100.5, 100.6, 99.9, 100.1),
	}

	b := Track(bars, []zone.Zone{z}, DefaultConfig())[0]
	assert.Equal(t, zone.StatusFull, b.Zone.Status)
	assert.Equal(t, 1.0, b.PenetrationPct)
}

func TestDeriveBreakersSkipsActiveZones(t *testing.T) {
	bars := []market_data.OHLCV{
		bar(0, 102.5, 103, 102, 102.5),
		bar(1, 102.5, 102.8, 101, 102.5),
	}
	tracked := Track(bars, []zone.Zone{bullishBlock(50)}, DefaultConfig())
	assert.Empty(t, DeriveBreakers(bars, tracked))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.PartialThreshold = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.FullThreshold = 0.4 // below partial
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.BounceStrengthBonus = -1
	assert.Error(t, bad.Validate())
}
