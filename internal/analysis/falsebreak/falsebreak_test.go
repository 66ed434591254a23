package falsebreak

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

func ofKind(signals []Signal, kind PatternKind) []Signal {
	var out []Signal
	for _, s := range signals {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// sfpBars forms a swing high at 110 and a later bar that wicks through
// it and closes back below
func sfpBars() []market_data.OHLCV {
	return []market_data.OHLCV{
		bar(0, 108.5, 109, 108, 108.8),
		bar(1, 108.8, 110, 108.5, 109.5),
		bar(2, 109.5, 109.8, 108.5, 109),
		bar(3, 109, 111, 108, 108.5),
	}
}

func TestAssessSwingFailure(t *testing.T) {
	risk := Assess(sfpBars(), DefaultConfig())

	sfps := ofKind(risk.Signals, SwingFailure)
	require.Len(t, sfps, 1)

	s := sfps[0]
	assert.Equal(t, zone.Bearish, s.Direction)
	assert.Equal(t, 110.0, s.Level)
	assert.Equal(t, 3, s.BarIndex)
	assert.Greater(t, s.Confidence, 0.0)
	assert.LessOrEqual(t, s.Confidence, 1.0)

	assert.Greater(t, risk.ScorePenalty, 0.0)
	assert.LessOrEqual(t, risk.ScorePenalty, 4.0)
}

func TestAssessCompositeRiskEscalates(t *testing.T) {
	// The rejection bar also qualifies as a fakeout candle and stop hunt,
	// so three distinct pattern kinds fire at once
	risk := Assess(sfpBars(), DefaultConfig())

	assert.NotEmpty(t, ofKind(risk.Signals, FakeoutCandle))
	assert.NotEmpty(t, ofKind(risk.Signals, StopHunt))
	assert.Equal(t, RiskVeryHigh, risk.Level)
}

func TestAssessQuietMarket(t *testing.T) {
	bars := make([]market_data.OHLCV, 0, 10)
	for i := 0; i < 10; i++ {
		p := 100 + float64(i)*0.5
		bars = append(bars, bar(i, p, p+0.5, p, p+0.5))
	}

	risk := Assess(bars, DefaultConfig())
	assert.Empty(t, risk.Signals)
	assert.Equal(t, RiskLow, risk.Level)
	assert.Zero(t, risk.ScorePenalty)
}

func TestAssessInsufficientData(t *testing.T) {
	risk := Assess([]market_data.OHLCV{bar(0, 100, 101, 99, 100)}, DefaultConfig())
	assert.Equal(t, RiskLow, risk.Level)
	assert.Empty(t, risk.Signals)
}

func trapBase() []market_data.OHLCV {
	bars := make([]market_data.OHLCV, 0, 12)
	for i := 0; i < 10; i++ {
		bars = append(bars, bar(i, 100, 100.5, 99.5, 100))
	}
	return bars
}

func TestAssessBullTrap(t *testing.T) {
	bars := append(trapBase(),
		bar(10, 100, 103, 99.9, 102.8),
		bar(11, 102.8, 102.9, 100, 100.2),
	)

	traps := ofKind(Assess(bars, DefaultConfig()).Signals, Trap)
	require.Len(t, traps, 1)

	tr := traps[0]
	assert.Equal(t, zone.Bearish, tr.Direction)
	assert.Equal(t, 100.5, tr.Level)
	assert.Equal(t, 10, tr.BarIndex)
}

func TestAssessBearTrap(t *testing.T) {
	bars := append(trapBase(),
		bar(10, 100, 100.1, 97, 97.2),
		bar(11, 97.2, 99.8, 97, 99.5),
	)

	traps := ofKind(Assess(bars, DefaultConfig()).Signals, Trap)
	require.Len(t, traps, 1)

	tr := traps[0]
	assert.Equal(t, zone.Bullish, tr.Direction)
	assert.Equal(t, 99.5, tr.Level)
	assert.Equal(t, 10, tr.BarIndex)
}

func TestAssessIgnoresStalePatterns(t *testing.T) {
	// The swing failure at bar 3 sits well outside the recent window
	// once thirty quiet bars follow it
	bars := sfpBars()
	for i := 4; i < 34; i++ {
		bars = append(bars, bar(i, 108, 108.5, 107.5, 108.2))
	}

	risk := Assess(bars, DefaultConfig())
	assert.Empty(t, risk.Signals)
	assert.Equal(t, RiskLow, risk.Level)
	assert.Zero(t, risk.ScorePenalty)

	// Widening the window past the pattern brings it back
	cfg := DefaultConfig()
	cfg.RecentBars = 40
	risk = Assess(bars, cfg)
	assert.NotEmpty(t, risk.Signals)
	assert.Equal(t, RiskVeryHigh, risk.Level)
}

func TestAssessSignalsOrderedByBar(t *testing.T) {
	risk := Assess(sfpBars(), DefaultConfig())
	for i := 1; i < len(risk.Signals); i++ {
		assert.LessOrEqual(t, risk.Signals[i-1].BarIndex, risk.Signals[i].BarIndex)
	}
}

func TestConfidenceBounds(t *testing.T) {
	assert.Equal(t, 1.0, confidence(10, 1))
	assert.Equal(t, 0.1, confidence(0.01, 1))
	assert.InDelta(t, 0.5, confidence(1.5, 1), 1e-9)
	assert.Equal(t, 0.5, confidence(1, 0))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.SwingWindow = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.FakeoutWickBodyRatio = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.TrapReversalMinATR = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.StopHuntWickATRRatio = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.RecentBars = 0
	assert.Error(t, bad.Validate())
}
