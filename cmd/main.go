package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hermes/internal/adapters/clickhouse"
	"hermes/internal/adapters/config"
	"hermes/internal/adapters/errors/noop"
	"hermes/internal/adapters/errors/sentry"
	"hermes/internal/adapters/kafka"
	"hermes/internal/analysis"
	"hermes/internal/events"
	chrepo "hermes/internal/repository/clickhouse"
	"hermes/internal/workers"
	workeranalysis "hermes/internal/workers/analysis"
	"hermes/pkg/errors"
	"hermes/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	chClient, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer chClient.Close()

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Async:   cfg.Kafka.Async,
	})
	defer producer.Close()

	analyzer, err := analysis.NewAnalyzer(cfg.Analysis.Pipeline())
	if err != nil {
		log.Fatalf("Invalid analysis configuration: %v", err)
	}

	publisher := events.NewPublisher(producer)
	mdRepo := chrepo.NewMarketDataRepository(chClient.Conn())
	reportRepo := chrepo.NewReportRepository(chClient.Conn())

	scanner := workeranalysis.NewBreakoutScanner(workeranalysis.BreakoutScannerConfig{
		Analyzer:   analyzer,
		MarketData: mdRepo,
		Publisher:  publisher,
		Reports:    reportRepo,
		Exchange:   cfg.Scanner.Exchange,
		Symbols:    cfg.Scanner.Symbols,
		Timeframe:  cfg.Scanner.Timeframe,
		BarLimit:   cfg.Scanner.BarLimit,
		Interval:   cfg.Scanner.Interval,
		Enabled:    cfg.Scanner.Enabled,
	})

	registry := workers.NewRegistry()
	if err := registry.Register(scanner); err != nil {
		log.Fatalf("Failed to register scanner: %v", err)
	}

	scheduler := workers.NewScheduler()
	scheduler.SetFailureHandler(func(ctx context.Context, worker string, failure error) {
		if err := publisher.PublishWorkerFailed(ctx, worker, failure); err != nil {
			log.Errorf("Failed to publish worker failure: %v", err)
		}
	})
	scheduler.RegisterWorker(scanner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scanner.Start(ctx)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, scheduler, scanner, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// waitForShutdown waits for a shutdown signal and performs graceful
// shutdown of the scheduler and report writer
func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	scheduler *workers.Scheduler,
	scanner *workeranalysis.BreakoutScanner,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Scheduler shutdown: %v", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	if err := scanner.Stop(stopCtx); err != nil {
		log.Warnf("Scanner shutdown: %v", err)
	}

	cancel()

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
