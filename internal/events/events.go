package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ZoneDetectedEvent is emitted for every newly detected supply/demand
// zone (fair value gap, order block, breaker block, liquidity pool)
type ZoneDetectedEvent struct {
	RunID      uuid.UUID       `json:"run_id"`
	Symbol     string          `json:"symbol"`
	Timeframe  string          `json:"timeframe"`
	Variant    string          `json:"variant"`
	Direction  string          `json:"direction"`
	Top        decimal.Decimal `json:"top"`
	Bottom     decimal.Decimal `json:"bottom"`
	Status     string          `json:"status"`
	Strength   float64         `json:"strength"`
	OriginTime time.Time       `json:"origin_time"`
	DetectedAt time.Time       `json:"detected_at"`
}

// SweepDetectedEvent is emitted when a liquidity pool gets swept
type SweepDetectedEvent struct {
	RunID      uuid.UUID       `json:"run_id"`
	Symbol     string          `json:"symbol"`
	Timeframe  string          `json:"timeframe"`
	Direction  string          `json:"direction"`
	Level      decimal.Decimal `json:"level"`
	WickDepth  decimal.Decimal `json:"wick_depth"`
	Confirmed  bool            `json:"confirmed"`
	SweepTime  time.Time       `json:"sweep_time"`
	DetectedAt time.Time       `json:"detected_at"`
}

// StructureBreakEvent is emitted per BOS/CHoCH found in a run
type StructureBreakEvent struct {
	RunID      uuid.UUID       `json:"run_id"`
	Symbol     string          `json:"symbol"`
	Timeframe  string          `json:"timeframe"`
	Kind       string          `json:"kind"`
	Trend      string          `json:"trend"`
	Level      decimal.Decimal `json:"level"`
	BreakTime  time.Time       `json:"break_time"`
	DetectedAt time.Time       `json:"detected_at"`
}

// ScoreComponent mirrors one explainable scoring input of a verdict
type ScoreComponent struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Passed       bool    `json:"passed"`
	Detail       string  `json:"detail"`
}

// BreakoutValidatedEvent carries the fused breakout verdict
type BreakoutValidatedEvent struct {
	RunID      uuid.UUID        `json:"run_id"`
	Symbol     string           `json:"symbol"`
	Timeframe  string           `json:"timeframe"`
	Direction  string           `json:"direction"`
	Level      decimal.Decimal  `json:"level"`
	Score      int              `json:"score"`
	RawScore   float64          `json:"raw_score"`
	IsValid    bool             `json:"is_valid"`
	IsStrong   bool             `json:"is_strong"`
	Components []ScoreComponent `json:"components"`
	Warnings   []string         `json:"warnings,omitempty"`
	Positives  []string         `json:"positives,omitempty"`
	DetectedAt time.Time        `json:"detected_at"`
}

// WorkerFailedEvent reports a background worker failure
type WorkerFailedEvent struct {
	Worker   string    `json:"worker"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}
