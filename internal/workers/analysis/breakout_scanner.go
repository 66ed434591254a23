package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"hermes/internal/analysis"
	"hermes/internal/analysis/structure"
	"hermes/internal/analysis/zone"
	"hermes/internal/domain/market_data"
	"hermes/internal/domain/report"
	"hermes/internal/events"
	"hermes/internal/workers"
	"hermes/pkg/clickhouse"
	"hermes/pkg/errors"
)

// BreakoutScanner runs the breakout analysis pipeline over every
// configured symbol: swing structure, ATR, fair value gaps, order
// blocks and their mitigation, liquidity pools and sweeps, BOS/CHoCH,
// Wyckoff signals, false-breakout patterns and the fused breakout
// verdict. Findings are published to Kafka and run summaries persisted
// to ClickHouse.
type BreakoutScanner struct {
	*workers.BaseWorker
	analyzer  *analysis.Analyzer
	mdRepo    market_data.Repository
	publisher *events.Publisher
	reports   *clickhouse.BatchWriter
	exchange  string
	symbols   []string
	timeframe string
	barLimit  int
}

// BreakoutScannerConfig holds scanner wiring
type BreakoutScannerConfig struct {
	Analyzer   *analysis.Analyzer
	MarketData market_data.Repository
	Publisher  *events.Publisher
	Reports    report.Repository
	Exchange   string
	Symbols    []string
	Timeframe  string
	BarLimit   int
	Interval   time.Duration
	Enabled    bool
}

// NewBreakoutScanner creates a new breakout scanner worker
func NewBreakoutScanner(cfg BreakoutScannerConfig) *BreakoutScanner {
	if cfg.BarLimit <= 0 {
		cfg.BarLimit = 300
	}

	writer := clickhouse.NewBatchWriter(clickhouse.BatchWriterConfig{
		TableName:    "analysis_reports",
		MaxBatchSize: 100,
		MaxAge:       10 * time.Second,
		FlushFunc: func(ctx context.Context, batch []interface{}) error {
			rows := make([]report.Row, 0, len(batch))
			for _, item := range batch {
				if row, ok := item.(report.Row); ok {
					rows = append(rows, row)
				}
			}
			return cfg.Reports.InsertRows(ctx, rows)
		},
	})

	return &BreakoutScanner{
		BaseWorker: workers.NewBaseWorker("breakout_scanner", cfg.Interval, cfg.Enabled),
		analyzer:   cfg.Analyzer,
		mdRepo:     cfg.MarketData,
		publisher:  cfg.Publisher,
		reports:    writer,
		exchange:   cfg.Exchange,
		symbols:    cfg.Symbols,
		timeframe:  cfg.Timeframe,
		barLimit:   cfg.BarLimit,
	}
}

// Start begins background report flushing
func (bs *BreakoutScanner) Start(ctx context.Context) {
	bs.reports.Start(ctx)
}

// Stop flushes pending report rows
func (bs *BreakoutScanner) Stop(ctx context.Context) error {
	return bs.reports.Stop(ctx)
}

// Run executes one scan iteration across all configured symbols
func (bs *BreakoutScanner) Run(ctx context.Context) error {
	if len(bs.symbols) == 0 {
		bs.Log().Warn("No symbols configured for breakout scanning")
		return nil
	}

	var failed int
	for _, symbol := range bs.symbols {
		if err := bs.scanSymbol(ctx, symbol); err != nil {
			bs.Log().Error("Failed to scan symbol",
				"symbol", symbol,
				"error", err,
			)
			failed++
		}
	}

	if failed == len(bs.symbols) {
		return errors.Wrapf(errors.ErrInternal, "all %d symbols failed to scan", failed)
	}
	return nil
}

func (bs *BreakoutScanner) scanSymbol(ctx context.Context, symbol string) error {
	candles, err := bs.mdRepo.GetLatestOHLCV(ctx, bs.exchange, symbol, bs.timeframe, bs.barLimit)
	if err != nil {
		return errors.Wrap(err, "failed to get OHLCV data")
	}

	// Repository returns newest first; detectors expect chronological order
	market_data.Reverse(candles)

	rep, err := bs.analyzer.Run(symbol, bs.timeframe, candles)
	if err != nil {
		return errors.Wrap(err, "analysis run failed")
	}

	bs.publishZones(ctx, rep)
	bs.publishSweeps(ctx, rep)
	bs.publishStructureBreaks(ctx, rep)
	bs.publishVerdict(ctx, rep)

	if err := bs.persistReport(ctx, rep); err != nil {
		bs.Log().Error("Failed to persist report", "symbol", symbol, "error", err)
	}

	return nil
}

func (bs *BreakoutScanner) publishZones(ctx context.Context, rep *analysis.Report) {
	zones := make([]zone.Zone, 0, len(rep.FairValueGaps)+len(rep.LiquidityPools)+len(rep.OrderBlocks)+len(rep.Breakers))
	zones = append(zones, rep.FairValueGaps...)
	zones = append(zones, rep.LiquidityPools...)
	for _, b := range rep.OrderBlocks {
		zones = append(zones, b.Zone)
	}
	for _, b := range rep.Breakers {
		zones = append(zones, b.Zone)
	}

	for _, z := range zones {
		ev := events.ZoneDetectedEvent{
			RunID:      rep.RunID,
			Symbol:     rep.Symbol,
			Timeframe:  rep.Timeframe,
			Variant:    string(z.Variant),
			Direction:  string(z.Direction),
			Top:        decimal.NewFromFloat(z.Top),
			Bottom:     decimal.NewFromFloat(z.Bottom),
			Status:     string(z.Status),
			Strength:   z.Strength,
			OriginTime: z.OriginTime,
			DetectedAt: rep.GeneratedAt,
		}
		if err := bs.publisher.PublishZoneDetected(ctx, ev); err != nil {
			bs.Log().Error("Failed to publish zone event", "error", err)
		}
	}
}

func (bs *BreakoutScanner) publishSweeps(ctx context.Context, rep *analysis.Report) {
	for _, s := range rep.Sweeps {
		ev := events.SweepDetectedEvent{
			RunID:      rep.RunID,
			Symbol:     rep.Symbol,
			Timeframe:  rep.Timeframe,
			Direction:  string(s.Direction),
			Level:      decimal.NewFromFloat(s.Level),
			WickDepth:  decimal.NewFromFloat(s.WickDepth),
			Confirmed:  s.Confirmed,
			SweepTime:  s.Time,
			DetectedAt: rep.GeneratedAt,
		}
		if err := bs.publisher.PublishSweepDetected(ctx, ev); err != nil {
			bs.Log().Error("Failed to publish sweep event", "error", err)
		}
	}
}

func (bs *BreakoutScanner) publishStructureBreaks(ctx context.Context, rep *analysis.Report) {
	all := make([]structure.Event, 0, len(rep.Structure.BOSEvents)+len(rep.Structure.CHoCHEvents))
	all = append(all, rep.Structure.BOSEvents...)
	all = append(all, rep.Structure.CHoCHEvents...)
	for _, b := range all {
		ev := events.StructureBreakEvent{
			RunID:      rep.RunID,
			Symbol:     rep.Symbol,
			Timeframe:  rep.Timeframe,
			Kind:       string(b.Kind),
			Trend:      string(b.Trend),
			Level:      decimal.NewFromFloat(b.Level),
			BreakTime:  b.Time,
			DetectedAt: rep.GeneratedAt,
		}
		if err := bs.publisher.PublishStructureBreak(ctx, ev); err != nil {
			bs.Log().Error("Failed to publish structure event", "error", err)
		}
	}
}

func (bs *BreakoutScanner) publishVerdict(ctx context.Context, rep *analysis.Report) {
	if rep.Verdict == nil {
		return
	}
	v := rep.Verdict

	components := make([]events.ScoreComponent, 0, len(v.Components))
	for _, c := range v.Components {
		components = append(components, events.ScoreComponent{
			Name:         c.Name,
			Contribution: c.Contribution,
			Passed:       c.Passed,
			Detail:       c.Detail,
		})
	}

	ev := events.BreakoutValidatedEvent{
		RunID:      rep.RunID,
		Symbol:     rep.Symbol,
		Timeframe:  rep.Timeframe,
		Direction:  string(v.Direction),
		Level:      decimal.NewFromFloat(v.Level),
		Score:      v.Score,
		RawScore:   v.RawScore,
		IsValid:    v.IsValid,
		IsStrong:   v.IsStrong,
		Components: components,
		Warnings:   v.Warnings,
		Positives:  v.Positives,
		DetectedAt: rep.GeneratedAt,
	}
	if err := bs.publisher.PublishBreakoutValidated(ctx, ev); err != nil {
		bs.Log().Error("Failed to publish breakout verdict", "error", err)
	}
}

func (bs *BreakoutScanner) persistReport(ctx context.Context, rep *analysis.Report) error {
	features, err := json.Marshal(rep.Flatten())
	if err != nil {
		return errors.Wrap(err, "marshal features")
	}

	row := report.Row{
		RunID:        rep.RunID,
		Symbol:       rep.Symbol,
		Timeframe:    rep.Timeframe,
		GeneratedAt:  rep.GeneratedAt,
		BarCount:     uint32(rep.BarCount),
		FeaturesJSON: string(features),
	}
	if rep.Verdict != nil {
		row.Score = int32(rep.Verdict.Score)
		row.RawScore = rep.Verdict.RawScore
		row.IsValid = rep.Verdict.IsValid
		row.IsStrong = rep.Verdict.IsStrong
		row.Direction = string(rep.Verdict.Direction)
		row.Level = rep.Verdict.Level
	}

	return bs.reports.Add(ctx, row)
}
