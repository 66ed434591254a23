package clickhouse

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"hermes/internal/domain/report"
	"hermes/pkg/errors"
)

// Compile-time check
var _ report.Repository = (*ReportRepository)(nil)

// ReportRepository persists analysis run summaries in ClickHouse
type ReportRepository struct {
	conn driver.Conn
}

// NewReportRepository creates a new report repository
func NewReportRepository(conn driver.Conn) *ReportRepository {
	return &ReportRepository{conn: conn}
}

// InsertRows inserts report rows in batch
func (r *ReportRepository) InsertRows(ctx context.Context, rows []report.Row) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO analysis_reports (
			run_id, symbol, timeframe, generated_at, bar_count,
			score, raw_score, is_valid, is_strong, direction, level, features
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, row := range rows {
		err := batch.Append(
			row.RunID, row.Symbol, row.Timeframe, row.GeneratedAt, row.BarCount,
			row.Score, row.RawScore, row.IsValid, row.IsStrong,
			row.Direction, row.Level, row.FeaturesJSON,
		)
		if err != nil {
			return errors.Wrap(err, "failed to append report row")
		}
	}

	return batch.Send()
}

// GetLatest retrieves the latest report rows for a symbol/timeframe,
// newest first
func (r *ReportRepository) GetLatest(ctx context.Context, symbol, timeframe string, limit int) ([]report.Row, error) {
	var rows []report.Row

	sql := `
		SELECT run_id, symbol, timeframe, generated_at, bar_count,
		       score, raw_score, is_valid, is_strong, direction, level, features
		FROM analysis_reports
		WHERE symbol = $1 AND timeframe = $2
		ORDER BY generated_at DESC
		LIMIT $3`

	err := r.conn.Select(ctx, &rows, sql, symbol, timeframe, limit)
	return rows, err
}
