package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/internal/executor/repository"
	"golang-stock-indicator/internal/screening"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) SendMessage(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

type listProvider struct {
	fakeProvider
	listed []entity.Stock
}

func (p *listProvider) FetchStockList(context.Context) ([]entity.Stock, error) {
	return p.listed, nil
}

// populated runs a backfill and adds a suspended symbol whose last row is a week old.
func populated(t *testing.T) (*harness, repository.StocksRepository) {
	t.Helper()
	h := newHarness(t, nil)
	h.run(t, h.days[299])

	stale := entity.IndicatorRow{Symbol: "600002.SH", Date: h.days[294], Close: 5, Volume: 1000}
	require.NoError(t, h.indicators.UpsertSeries(context.Background(), "600002.SH", []entity.IndicatorRow{stale}))

	stocks := repository.NewMemoryStocksRepository(
		entity.Stock{Symbol: "600000.SH", Code: "600000", Name: "浦发银行", Exchange: "SH", IsActive: true, FloatShare: utils.ToPointer(2.9e10)},
		entity.Stock{Symbol: "600001.SH", Code: "600001", Name: "邯郸钢铁", Exchange: "SH", IsActive: true},
		entity.Stock{Symbol: "600002.SH", Code: "600002", Name: "齐鲁石化", Exchange: "SH", IsActive: true},
	)
	return h, stocks
}

func TestScreeningServiceScreensFreshRows(t *testing.T) {
	h, stocks := populated(t)
	reportDir := t.TempDir()
	notifier := &recordingNotifier{}
	svc := NewScreeningService(pipelineConfig(), h.indicators, stocks,
		repository.NewExportRepository(t.TempDir(), reportDir), notifier, logger.NewNop())

	summary, results, err := svc.Screen(context.Background(), dto.ScreeningRequest{Top: 5})
	require.NoError(t, err)

	assert.Equal(t, utils.FormatDate(h.days[299]), summary.Date)
	assert.Equal(t, 2, summary.Screened)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, "600002.SH", r.Symbol)
		assert.NotEqual(t, "000300.SH", r.Symbol)
		assert.Equal(t, screening.TierOf(r.Satisfied), r.Tier)
	}

	_, err = os.Stat(summary.ReportPath)
	assert.NoError(t, err)
	assert.NotEmpty(t, notifier.messages)
}

func TestScreeningServiceWithoutRows(t *testing.T) {
	svc := NewScreeningService(pipelineConfig(), repository.NewMemoryIndicatorRepository(),
		repository.NewMemoryStocksRepository(), repository.NewExportRepository(t.TempDir(), t.TempDir()),
		&recordingNotifier{}, logger.NewNop())

	_, _, err := svc.Screen(context.Background(), dto.ScreeningRequest{})
	assert.Error(t, err)
}

func TestMarketStatsServiceLatestDate(t *testing.T) {
	h, stocks := populated(t)
	statRepo := repository.NewMemoryMarketStatRepository()
	notifier := &recordingNotifier{}
	svc := NewMarketStatsService(pipelineConfig(), h.indicators, stocks, statRepo, notifier, logger.NewNop())

	stat, err := svc.Compute(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, h.days[299], stat.Date)
	assert.Equal(t, 2, stat.Total)
	assert.Equal(t, 1, stat.StaleSymbols)
	assert.Equal(t, stat.Total, stat.Up+stat.Down+stat.Flat)

	stored, err := statRepo.FindByDate(context.Background(), h.days[299])
	require.NoError(t, err)
	assert.Equal(t, stat.Total, stored.Total)
	assert.Len(t, notifier.messages, 1)
}

func TestMarketStatsServiceExplicitDate(t *testing.T) {
	h, stocks := populated(t)
	svc := NewMarketStatsService(pipelineConfig(), h.indicators, stocks,
		repository.NewMemoryMarketStatRepository(), &recordingNotifier{}, logger.NewNop())

	stat, err := svc.Compute(context.Background(), h.days[294].Add(15*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, h.days[294], stat.Date)
	assert.Equal(t, 3, stat.Total)
	assert.Zero(t, stat.StaleSymbols)
}

func TestStockSyncServiceDeactivatesDelisted(t *testing.T) {
	stocks := repository.NewMemoryStocksRepository(
		entity.Stock{Symbol: "600000.SH", Code: "600000", Name: "浦发银行", Exchange: "SH", IsActive: true},
		entity.Stock{Symbol: "600001.SH", Code: "600001", Name: "邯郸钢铁", Exchange: "SH", IsActive: true},
	)
	provider := &listProvider{listed: []entity.Stock{
		{Symbol: "600000.SH", Code: "600000", Name: "浦发银行", Exchange: "SH", IsActive: true},
		{Symbol: "600519.SH", Code: "600519", Name: "贵州茅台", Exchange: "SH", IsActive: true},
	}}
	svc := NewStockSyncService(pipelineConfig(), provider, stocks, logger.NewNop())

	summary, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &dto.SyncSummary{Listed: 2, Indexes: 1, Deactivated: 1}, summary)

	active, err := stocks.GetStocks(context.Background())
	require.NoError(t, err)
	var symbols []string
	for _, s := range active {
		symbols = append(symbols, s.Symbol)
	}
	assert.Equal(t, []string{"000300.SH", "600000.SH", "600519.SH"}, symbols)
}

func TestStockSyncServiceEmptyListingKeepsUniverse(t *testing.T) {
	stocks := repository.NewMemoryStocksRepository(
		entity.Stock{Symbol: "600000.SH", Code: "600000", Name: "浦发银行", Exchange: "SH", IsActive: true},
	)
	svc := NewStockSyncService(pipelineConfig(), &listProvider{}, stocks, logger.NewNop())

	summary, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Deactivated)

	active, err := stocks.GetStocks(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
