package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang-stock-indicator/internal/indicator"
	"golang-stock-indicator/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config-executor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, resolver.DefaultLookbackDays, cfg.Pipeline.LookbackDays)
	assert.Equal(t, resolver.DefaultMinGapDays, cfg.Pipeline.MinGapDays)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, indicator.DefaultConfig(), cfg.Pipeline.Windows)
	assert.Equal(t, 2*time.Hour, cfg.Executor.RedisStreamTaskExecutionTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Provider.RetryDelay)
	assert.Equal(t, "000300.SH", cfg.Pipeline.BenchmarkSymbol)
	assert.Len(t, cfg.Pipeline.Indexes, 4)
	assert.Equal(t, float64(70), cfg.Screening.RSRating)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  min_gap_days: 0
  partial_extremes: true
  genesis_date: "2005-01-04"
  windows:
    ma: [5, 20, 250]
storage:
  backend: parquet
  data_dir: /var/lib/ashare
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Pipeline.MinGapDays)
	assert.True(t, cfg.Pipeline.Windows.PartialExtremes)
	assert.Equal(t, []int{5, 20, 250}, cfg.Pipeline.Windows.MA)
	assert.Equal(t, BackendParquet, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/ashare", cfg.Storage.DataDir)

	rc := cfg.Pipeline.ResolverConfig()
	assert.Equal(t, time.Date(2005, 1, 4, 0, 0, 0, 0, time.UTC), rc.Genesis)
	assert.Equal(t, 0, rc.MinGapDays)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"window without column", "pipeline:\n  windows:\n    ma: [7]\n"},
		{"bad genesis", "pipeline:\n  genesis_date: \"1990/01/01\"\n"},
		{"no workers", "pipeline:\n  workers: 0\n"},
		{"unknown backend", "storage:\n  backend: sqlite\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRepositoryConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "config-executor.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Pipeline.MinGapDays)
	assert.NotEmpty(t, cfg.Pipeline.Holidays)
	assert.Equal(t, 3*time.Hour, cfg.Executor.RunLockTTL)
}
