package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Row is the persisted summary of one analysis run
type Row struct {
	RunID       uuid.UUID `ch:"run_id"`
	Symbol      string    `ch:"symbol"`
	Timeframe   string    `ch:"timeframe"`
	GeneratedAt time.Time `ch:"generated_at"`
	BarCount    uint32    `ch:"bar_count"`

	Score     int32   `ch:"score"`
	RawScore  float64 `ch:"raw_score"`
	IsValid   bool    `ch:"is_valid"`
	IsStrong  bool    `ch:"is_strong"`
	Direction string  `ch:"direction"`
	Level     float64 `ch:"level"`

	// FeaturesJSON is the flattened feature map serialized as JSON
	FeaturesJSON string `ch:"features"`
}

// Repository persists analysis run summaries
type Repository interface {
	InsertRows(ctx context.Context, rows []Row) error
	GetLatest(ctx context.Context, symbol, timeframe string, limit int) ([]Row, error)
}
