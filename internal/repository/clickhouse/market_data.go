package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"hermes/internal/domain/market_data"
	"hermes/pkg/errors"
)

// Compile-time check
var _ market_data.Repository = (*MarketDataRepository)(nil)

// MarketDataRepository implements market_data.Repository using ClickHouse
type MarketDataRepository struct {
	conn driver.Conn
}

// NewMarketDataRepository creates a new market data repository
func NewMarketDataRepository(conn driver.Conn) *MarketDataRepository {
	return &MarketDataRepository{conn: conn}
}

// InsertOHLCV inserts OHLCV candles in batch
func (r *MarketDataRepository) InsertOHLCV(ctx context.Context, candles []market_data.OHLCV) error {
	if len(candles) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO ohlcv (
			exchange, symbol, timeframe, open_time, close_time,
			open, high, low, close, volume, is_closed
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, candle := range candles {
		err := batch.Append(
			candle.Exchange, candle.Symbol, candle.Timeframe,
			candle.OpenTime, candle.CloseTime,
			candle.Open, candle.High, candle.Low, candle.Close,
			candle.Volume, candle.IsClosed,
		)
		if err != nil {
			return errors.Wrap(err, "failed to append candle")
		}
	}

	return batch.Send()
}

// GetOHLCV retrieves OHLCV candles with query parameters, newest first
func (r *MarketDataRepository) GetOHLCV(ctx context.Context, query market_data.OHLCVQuery) ([]market_data.OHLCV, error) {
	var candles []market_data.OHLCV

	sql := `
		SELECT exchange, symbol, timeframe, open_time, close_time,
		       open, high, low, close, volume, is_closed
		FROM ohlcv
		WHERE symbol = $1 AND timeframe = $2`

	args := []interface{}{query.Symbol, query.Timeframe}

	if query.Exchange != "" {
		sql += ` AND exchange = $3`
		args = append(args, query.Exchange)
	}

	if !query.StartTime.IsZero() {
		sql += fmt.Sprintf(` AND open_time >= $%d`, len(args)+1)
		args = append(args, query.StartTime)
	}

	if !query.EndTime.IsZero() {
		sql += fmt.Sprintf(` AND open_time <= $%d`, len(args)+1)
		args = append(args, query.EndTime)
	}

	sql += ` ORDER BY open_time DESC`

	if query.Limit > 0 {
		sql += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, query.Limit)
	}

	err := r.conn.Select(ctx, &candles, sql, args...)
	return candles, err
}

// GetLatestOHLCV retrieves the latest N candles, newest first
func (r *MarketDataRepository) GetLatestOHLCV(ctx context.Context, exchange, symbol, timeframe string, limit int) ([]market_data.OHLCV, error) {
	var candles []market_data.OHLCV

	sql := `
		SELECT exchange, symbol, timeframe, open_time, close_time,
		       open, high, low, close, volume, is_closed
		FROM ohlcv
		WHERE exchange = $1 AND symbol = $2 AND timeframe = $3
		ORDER BY open_time DESC
		LIMIT $4`

	err := r.conn.Select(ctx, &candles, sql, exchange, symbol, timeframe, limit)
	return candles, err
}
