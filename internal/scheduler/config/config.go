package config

import (
	"time"

	"golang-stock-indicator/internal/screening"
	"golang-stock-indicator/pkg/config"
)

// Scheduler holds scheduler-specific configuration.
type Scheduler struct {
	PollingInterval      time.Duration `mapstructure:"polling_interval"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	CacheCleanupInterval time.Duration `mapstructure:"cache_cleanup_interval"`
}

// Market configures the read-only market endpoints.
type Market struct {
	BenchmarkSymbol string               `mapstructure:"benchmark_symbol"`
	Indexes         []string             `mapstructure:"indexes"`
	Screening       screening.Thresholds `mapstructure:"screening"`
}

// Config holds the full configuration for the scheduler service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
	Market    Market          `mapstructure:"market"`
}

func defaults() map[string]interface{} {
	th := screening.DefaultThresholds()
	return map[string]interface{}{
		"scheduler.polling_interval":       "30s",
		"scheduler.cache_ttl":              "5m",
		"scheduler.cache_cleanup_interval": "10m",

		"market.benchmark_symbol":            "000300.SH",
		"market.indexes":                     []string{"000300.SH", "000001.SH", "399001.SZ", "399006.SZ"},
		"market.screening.low_52w_pct":       th.Low52WPct,
		"market.screening.high_52w_pct":      th.High52WPct,
		"market.screening.rs_rating":         th.RSRating,
		"market.screening.price_min":         th.PriceMin,
		"market.screening.market_cap":        th.MarketCap,
		"market.screening.volume_min":        th.VolumeMin,
		"market.screening.amount_min":        th.AmountMin,
		"market.screening.volume_ma_min":     th.VolumeMAMin,
		"market.screening.outperform_factor": th.OutperformFactor,
	}
}

// Load loads the scheduler configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults()); err != nil {
		return nil, err
	}
	return &cfg, nil
}
