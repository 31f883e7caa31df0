package config

import (
	"fmt"
	"time"

	"golang-stock-indicator/internal/indicator"
	"golang-stock-indicator/internal/resolver"
	"golang-stock-indicator/internal/screening"
	"golang-stock-indicator/pkg/config"
	"golang-stock-indicator/pkg/utils"
)

const (
	BackendPostgres = "postgres"
	BackendParquet  = "parquet"
	BackendMemory   = "memory"
)

// Executor holds executor-specific configuration.
type Executor struct {
	RedisStreamTaskExecutionTimeout time.Duration `mapstructure:"redis_stream_task_execution_timeout"`
	RunLockTTL                      time.Duration `mapstructure:"run_lock_ttl"`
}

// Pipeline holds the batch pipeline configuration.
type Pipeline struct {
	GenesisDate        string           `mapstructure:"genesis_date"`
	LookbackDays       int              `mapstructure:"lookback_days"`
	MinGapDays         int              `mapstructure:"min_gap_days"`
	ForceFullRecompute bool             `mapstructure:"force_full_recompute"`
	AsOfDate           string           `mapstructure:"as_of_date"`
	Holidays           []string         `mapstructure:"holidays"`
	Workers            int              `mapstructure:"workers"`
	RankLookbackDays   int              `mapstructure:"rank_lookback_days"`
	PartialExtremes    bool             `mapstructure:"partial_extremes"`
	BenchmarkSymbol    string           `mapstructure:"benchmark_symbol"`
	Indexes            []string         `mapstructure:"indexes"`
	Windows            indicator.Config `mapstructure:"windows"`
}

// Storage selects and locates the bar and indicator stores.
type Storage struct {
	Backend     string `mapstructure:"backend"`
	DataDir     string `mapstructure:"data_dir"`
	SnapshotDir string `mapstructure:"snapshot_dir"`
	ReportDir   string `mapstructure:"report_dir"`
}

// Provider holds the upstream market data API configuration.
type Provider struct {
	BaseURL             string        `mapstructure:"base_url"`
	ListURL             string        `mapstructure:"list_url"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryDelay          time.Duration `mapstructure:"retry_delay"`
	RetryDelayThrottled time.Duration `mapstructure:"retry_delay_throttled"`
	Timeout             time.Duration `mapstructure:"timeout"`
	Adjust              int           `mapstructure:"adjust"`
}

// Config holds the full configuration for the executor service.
type Config struct {
	App       config.App           `mapstructure:"app"`
	Logger    config.Logger        `mapstructure:"logger"`
	Database  config.Database      `mapstructure:"database"`
	Redis     config.Redis         `mapstructure:"redis"`
	Telegram  config.Telegram      `mapstructure:"telegram"`
	Executor  Executor             `mapstructure:"executor"`
	Pipeline  Pipeline             `mapstructure:"pipeline"`
	Storage   Storage              `mapstructure:"storage"`
	Provider  Provider             `mapstructure:"provider"`
	Screening screening.Thresholds `mapstructure:"screening"`
}

func defaults() map[string]interface{} {
	windows := indicator.DefaultConfig()
	th := screening.DefaultThresholds()
	return map[string]interface{}{
		"executor.redis_stream_task_execution_timeout": "2h",
		"executor.run_lock_ttl":                        "3h",

		"pipeline.genesis_date":        "1990-01-01",
		"pipeline.lookback_days":       resolver.DefaultLookbackDays,
		"pipeline.min_gap_days":        resolver.DefaultMinGapDays,
		"pipeline.workers":             8,
		"pipeline.rank_lookback_days":  10,
		"pipeline.benchmark_symbol":    "000300.SH",
		"pipeline.indexes":             []string{"000300.SH", "000001.SH", "399001.SZ", "399006.SZ"},
		"pipeline.windows.ma":          windows.MA,
		"pipeline.windows.rsi":         windows.RSI,
		"pipeline.windows.volume_ma":   windows.VolumeMA,
		"pipeline.windows.returns":     windows.Returns,
		"pipeline.windows.extremes":    windows.Extremes,
		"pipeline.windows.week52":      windows.Week52,
		"pipeline.windows.kdj":         windows.KDJ,
		"pipeline.windows.macd.fast":   windows.MACD.Fast,
		"pipeline.windows.macd.slow":   windows.MACD.Slow,
		"pipeline.windows.macd.signal": windows.MACD.Signal,

		"storage.backend":      BackendPostgres,
		"storage.data_dir":     "data",
		"storage.snapshot_dir": "data/daily_snapshot",
		"storage.report_dir":   "data/canslim_screening",

		"provider.base_url":               "https://push2his.eastmoney.com",
		"provider.list_url":               "https://82.push2.eastmoney.com",
		"provider.max_request_per_minute": 300,
		"provider.max_retries":            3,
		"provider.retry_delay":            "500ms",
		"provider.retry_delay_throttled":  "5s",
		"provider.timeout":                "10s",
		"provider.adjust":                 1,

		"screening.low_52w_pct":       th.Low52WPct,
		"screening.high_52w_pct":      th.High52WPct,
		"screening.rs_rating":         th.RSRating,
		"screening.price_min":         th.PriceMin,
		"screening.market_cap":        th.MarketCap,
		"screening.volume_min":        th.VolumeMin,
		"screening.amount_min":        th.AmountMin,
		"screening.volume_ma_min":     th.VolumeMAMin,
		"screening.outperform_factor": th.OutperformFactor,
	}
}

// Load loads the executor configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults()); err != nil {
		return nil, err
	}
	cfg.Pipeline.Windows.PartialExtremes = cfg.Pipeline.PartialExtremes
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if err := c.Pipeline.Windows.Validate(); err != nil {
		return err
	}
	if _, err := c.Pipeline.Genesis(); err != nil {
		return err
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be positive, got %d", c.Pipeline.Workers)
	}
	switch c.Storage.Backend {
	case BackendPostgres, BackendParquet, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// Genesis parses the configured first backfill date.
func (p Pipeline) Genesis() (time.Time, error) {
	if p.GenesisDate == "" {
		return resolver.DefaultGenesis, nil
	}
	d, err := utils.ParseDate(p.GenesisDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pipeline.genesis_date: %w", err)
	}
	return d, nil
}

// ResolverConfig converts the pipeline section into resolver settings.
func (p Pipeline) ResolverConfig() resolver.Config {
	genesis, _ := p.Genesis()
	return resolver.Config{
		LookbackDays: p.LookbackDays,
		MinGapDays:   p.MinGapDays,
		ForceFull:    p.ForceFullRecompute,
		Genesis:      genesis,
	}
}
