package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"hermes/internal/analysis"
	"hermes/pkg/errors"
)

type Config struct {
	App           AppConfig
	ClickHouse    ClickHouseConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
	Scanner       ScannerConfig
	Analysis      AnalysisConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"hermes"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"market"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
	Async   bool     `envconfig:"KAFKA_ASYNC" default:"false"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// ScannerConfig drives the breakout scanner worker
type ScannerConfig struct {
	Exchange  string        `envconfig:"SCANNER_EXCHANGE" default:"binance"`
	Symbols   []string      `envconfig:"SCANNER_SYMBOLS" default:"BTCUSDT,ETHUSDT"`
	Timeframe string        `envconfig:"SCANNER_TIMEFRAME" default:"15m"`
	BarLimit  int           `envconfig:"SCANNER_BAR_LIMIT" default:"300"`
	Interval  time.Duration `envconfig:"SCANNER_INTERVAL" default:"1m"`
	Enabled   bool          `envconfig:"SCANNER_ENABLED" default:"true"`
}

// AnalysisConfig exposes the pipeline thresholds that operators tune in
// practice. Everything not listed keeps its documented default.
type AnalysisConfig struct {
	SwingWindow          int     `envconfig:"ANALYSIS_SWING_WINDOW" default:"1"`
	ATRPeriod            int     `envconfig:"ANALYSIS_ATR_PERIOD" default:"14"`
	FVGMinGapATRRatio    float64 `envconfig:"ANALYSIS_FVG_MIN_GAP_ATR" default:"0.3"`
	OBMinImpulseATRRatio float64 `envconfig:"ANALYSIS_OB_MIN_IMPULSE_ATR" default:"1.5"`
	EqualLevelTolerance  float64 `envconfig:"ANALYSIS_EQUAL_LEVEL_TOLERANCE" default:"0.001"`
	RangeLookback        int     `envconfig:"ANALYSIS_RANGE_LOOKBACK" default:"50"`
	VolumeAveragePeriod  int     `envconfig:"ANALYSIS_VOLUME_AVERAGE_PERIOD" default:"20"`
	BreakoutMinRVOL      float64 `envconfig:"ANALYSIS_BREAKOUT_MIN_RVOL" default:"1.5"`
	FalseBreakRecentBars int     `envconfig:"ANALYSIS_FALSE_BREAK_RECENT_BARS" default:"20"`
	ValidThreshold       int     `envconfig:"ANALYSIS_VALID_THRESHOLD" default:"6"`
	StrongThreshold      int     `envconfig:"ANALYSIS_STRONG_THRESHOLD" default:"8"`
	ProfileBins          int     `envconfig:"ANALYSIS_PROFILE_BINS" default:"24"`
}

// Pipeline maps the tunable thresholds onto the full pipeline
// configuration
func (c AnalysisConfig) Pipeline() analysis.Config {
	cfg := analysis.DefaultConfig()

	cfg.ProfileBins = c.ProfileBins
	cfg.Swing.Window = c.SwingWindow
	cfg.Volatility.Period = c.ATRPeriod
	cfg.FVG.MinGapATRRatio = c.FVGMinGapATRRatio
	cfg.FVG.ATRPeriod = c.ATRPeriod
	cfg.OrderBlock.MinImpulseATRRatio = c.OBMinImpulseATRRatio
	cfg.OrderBlock.ATRPeriod = c.ATRPeriod
	cfg.Liquidity.EqualLevelTolerance = c.EqualLevelTolerance
	cfg.Liquidity.ATRPeriod = c.ATRPeriod
	cfg.Premium.Lookback = c.RangeLookback
	cfg.Structure.SwingWindow = c.SwingWindow
	cfg.Structure.ATRPeriod = c.ATRPeriod
	cfg.Volume.AveragePeriod = c.VolumeAveragePeriod
	cfg.Volume.BreakoutMinRVOL = c.BreakoutMinRVOL
	cfg.FalseBreak.SwingWindow = c.SwingWindow
	cfg.FalseBreak.ATRPeriod = c.ATRPeriod
	cfg.FalseBreak.RecentBars = c.FalseBreakRecentBars
	cfg.Validator.ATRPeriod = c.ATRPeriod
	cfg.Validator.ValidThreshold = c.ValidThreshold
	cfg.Validator.StrongThreshold = c.StrongThreshold
	cfg.Validator.Volume = cfg.Volume
	cfg.Validator.FalseBreak = cfg.FalseBreak
	cfg.Validator.FVG = cfg.FVG

	return cfg
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present (local development). Analysis thresholds
// are validated here so a bad deployment fails at startup, not inside
// the pipeline.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Analysis.Pipeline().Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
