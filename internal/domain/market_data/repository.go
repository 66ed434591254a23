package market_data

import (
	"context"
)

// Repository defines the interface for market data access (ClickHouse)
type Repository interface {
	// InsertOHLCV stores a batch of candles
	InsertOHLCV(ctx context.Context, candles []OHLCV) error

	// GetOHLCV returns candles matching the query, newest first
	GetOHLCV(ctx context.Context, query OHLCVQuery) ([]OHLCV, error)

	// GetLatestOHLCV returns the most recent candles, newest first
	GetLatestOHLCV(ctx context.Context, exchange, symbol, timeframe string, limit int) ([]OHLCV, error)
}
