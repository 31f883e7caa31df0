package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/config"
	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/internal/executor/repository"
	"golang-stock-indicator/internal/indicator"
	"golang-stock-indicator/internal/series"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/telegram"
	"golang-stock-indicator/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	genesis = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	farEnd  = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// tradingDays returns n consecutive weekdays starting at genesis (a Monday).
func tradingDays(n int) []time.Time {
	out := make([]time.Time, 0, n)
	for d := genesis; len(out) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}

func syntheticBars(symbol string, days []time.Time, drift float64) []entity.Bar {
	bars := make([]entity.Bar, len(days))
	for i, d := range days {
		price := utils.Round(20+drift*float64(i)+2*math.Sin(float64(i)/7), 2)
		bars[i] = entity.Bar{
			Symbol: symbol,
			Date:   d,
			Open:   price - 0.1,
			High:   price + 0.3,
			Low:    price - 0.4,
			Close:  price,
			Volume: int64(1000000 + (i%11)*25000),
			Amount: price * float64(1000000+(i%11)*25000),
		}
	}
	return bars
}

type fakeProvider struct {
	mu     sync.Mutex
	bars   map[string][]entity.Bar
	errs   map[string]error
	calls  map[string]int
	ranges map[string][2]time.Time
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		bars:   map[string][]entity.Bar{},
		errs:   map[string]error{},
		calls:  map[string]int{},
		ranges: map[string][2]time.Time{},
	}
}

func (f *fakeProvider) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]entity.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++
	f.ranges[symbol] = [2]time.Time{start, end}
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return series.Window(f.bars[symbol], start, end), nil
}

func (f *fakeProvider) FetchStockList(context.Context) ([]entity.Stock, error) {
	return nil, nil
}

func (f *fakeProvider) callCount(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

type harness struct {
	svc        *pipelineService
	provider   *fakeProvider
	bars       repository.BarRepository
	indicators repository.IndicatorRepository
	lock       repository.RunLockRepository
	days       []time.Time
}

func pipelineConfig() *config.Config {
	return &config.Config{
		Executor: config.Executor{RunLockTTL: time.Hour},
		Pipeline: config.Pipeline{
			GenesisDate:      "2024-01-01",
			LookbackDays:     10,
			MinGapDays:       0,
			Workers:          3,
			RankLookbackDays: 5,
			BenchmarkSymbol:  "000300.SH",
			Indexes:          []string{"000300.SH"},
			Windows:          indicator.DefaultConfig(),
		},
	}
}

func newHarness(t *testing.T, bars repository.BarRepository) *harness {
	t.Helper()
	days := tradingDays(320)
	provider := newFakeProvider()
	provider.bars["600000.SH"] = syntheticBars("600000.SH", days, 0.01)
	provider.bars["600001.SH"] = syntheticBars("600001.SH", days, 0.05)
	provider.bars["000300.SH"] = syntheticBars("000300.SH", days, 0.02)

	stocks := repository.NewMemoryStocksRepository(
		entity.Stock{Symbol: "600000.SH", Code: "600000", Name: "浦发银行", Exchange: "SH", IsActive: true},
		entity.Stock{Symbol: "600001.SH", Code: "600001", Name: "邯郸钢铁", Exchange: "SH", IsActive: true},
	)
	if bars == nil {
		bars = repository.NewMemoryBarRepository()
	}
	indicators := repository.NewMemoryIndicatorRepository()
	lock := repository.NewLocalRunLockRepository()

	svc, err := NewPipelineService(pipelineConfig(), provider, bars, indicators, stocks,
		repository.NewExportRepository(t.TempDir(), t.TempDir()), lock, telegram.NoopNotifier{}, logger.NewNop())
	require.NoError(t, err)

	return &harness{svc: svc.(*pipelineService), provider: provider, bars: bars, indicators: indicators, lock: lock, days: days}
}

func (h *harness) run(t *testing.T, asOf time.Time) *dto.RunSummary {
	t.Helper()
	summary, err := h.svc.Run(context.Background(), dto.RunRequest{AsOf: utils.FormatDate(asOf)})
	require.NoError(t, err)
	return summary
}

func TestRunBackfillRanksAndSnapshots(t *testing.T) {
	h := newHarness(t, nil)
	asOf := h.days[299]

	summary := h.run(t, asOf)
	assert.Equal(t, 3, summary.Updated)
	assert.Zero(t, summary.Failed)
	assert.Empty(t, summary.FailedSymbols)
	assert.Equal(t, 3, summary.SnapshotRows)
	assert.Len(t, summary.SnapshotFiles, 2)
	assert.Equal(t, 300, summary.RankedDates)
	assert.NotEmpty(t, summary.RunID)

	bars, err := h.bars.GetSeries(context.Background(), "600000.SH", genesis, farEnd)
	require.NoError(t, err)
	require.Len(t, bars, 300)
	assert.Nil(t, bars[0].PreviousClose)
	require.NotNil(t, bars[1].PreviousClose)
	assert.Equal(t, bars[0].Close, *bars[1].PreviousClose)

	latest, err := h.indicators.FindLatest(context.Background())
	require.NoError(t, err)
	ratings := map[string]float64{}
	for _, r := range latest {
		assert.Equal(t, asOf, r.Date)
		require.NotNil(t, r.RSRating, r.Symbol)
		ratings[r.Symbol] = *r.RSRating
	}
	// Stocks and indexes are ranked separately; the faster-rising stock leads its population.
	assert.Equal(t, 100.0, ratings["600001.SH"])
	assert.Equal(t, 50.0, ratings["600000.SH"])
	assert.Equal(t, 100.0, ratings["000300.SH"])
}

func TestIncrementalRunMatchesFullRun(t *testing.T) {
	incremental := newHarness(t, nil)
	incremental.run(t, incremental.days[260])
	summary := incremental.run(t, incremental.days[300])
	assert.Equal(t, 3, summary.Updated)

	rng := incremental.provider.ranges["600000.SH"]
	assert.Equal(t, incremental.days[260].AddDate(0, 0, -10), rng[0])

	full := newHarness(t, nil)
	full.run(t, full.days[300])

	for _, symbol := range []string{"600000.SH", "600001.SH", "000300.SH"} {
		got, err := incremental.indicators.GetSeries(context.Background(), symbol, genesis, farEnd)
		require.NoError(t, err)
		want, err := full.indicators.GetSeries(context.Background(), symbol, genesis, farEnd)
		require.NoError(t, err)
		require.Equal(t, len(want), len(got), symbol)
		assert.Equal(t, want, got, symbol)
	}
}

func TestRunSkipsCurrentSymbols(t *testing.T) {
	h := newHarness(t, nil)
	asOf := h.days[299]
	h.run(t, asOf)

	summary := h.run(t, asOf)
	assert.Equal(t, 3, summary.Skipped)
	assert.Zero(t, summary.Updated)
	assert.Equal(t, 1, h.provider.callCount("600000.SH"))
	for _, r := range summary.Results {
		assert.Equal(t, "already_current", r.Reason)
	}
}

func TestRunReportsNoNewBarsOnNonTradingDay(t *testing.T) {
	h := newHarness(t, nil)
	friday := h.days[299]
	require.Equal(t, time.Friday, friday.Weekday())
	h.run(t, friday)

	// Upstream revises a bar inside the lookback window after the Friday run.
	h.provider.mu.Lock()
	h.provider.bars["600000.SH"][297].Close = 99.5
	h.provider.mu.Unlock()

	summary, err := h.svc.Run(context.Background(), dto.RunRequest{AsOf: utils.FormatDate(friday.AddDate(0, 0, 2))})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Skipped)
	for _, r := range summary.Results {
		assert.Equal(t, reasonNoNewBars, r.Reason)
	}

	stored, err := h.bars.GetSeries(context.Background(), "600000.SH", h.days[297], h.days[297])
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 99.5, stored[0].Close)
}

func TestRunRecordsUpstreamFailuresAndContinues(t *testing.T) {
	h := newHarness(t, nil)
	h.provider.errs["600001.SH"] = repository.ErrUpstreamUnavailable

	summary := h.run(t, h.days[299])
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"600001.SH"}, summary.FailedSymbols)
	assert.Equal(t, 2, summary.SnapshotRows)
}

type panickingProvider struct {
	*fakeProvider
	symbol string
}

func (p *panickingProvider) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error) {
	if symbol == p.symbol {
		panic("unexpected kline payload")
	}
	return p.fakeProvider.FetchDailyBars(ctx, symbol, start, end)
}

func TestRunCountsPanickingSymbolAsFailed(t *testing.T) {
	h := newHarness(t, nil)
	h.svc.provider = &panickingProvider{fakeProvider: h.provider, symbol: "600001.SH"}

	summary := h.run(t, h.days[299])
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"600001.SH"}, summary.FailedSymbols)
	require.Len(t, summary.Results, 3)
	for _, r := range summary.Results {
		if r.Symbol == "600001.SH" {
			assert.Equal(t, dto.SymbolFailed, r.Status)
			assert.Contains(t, r.Reason, "unexpected kline payload")
		}
	}
}

type failingBarRepository struct {
	repository.BarRepository
	symbol string
}

func (f *failingBarRepository) UpsertSeries(ctx context.Context, symbol string, bars []entity.Bar) error {
	if symbol == f.symbol {
		return errors.New("disk full")
	}
	return f.BarRepository.UpsertSeries(ctx, symbol, bars)
}

func TestRunAbortsOnStoreFailure(t *testing.T) {
	h := newHarness(t, &failingBarRepository{BarRepository: repository.NewMemoryBarRepository(), symbol: "600000.SH"})

	summary, err := h.svc.Run(context.Background(), dto.RunRequest{AsOf: utils.FormatDate(h.days[299])})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	require.NotNil(t, summary)
	assert.Zero(t, summary.SnapshotRows)

	// The lock is released even when the run aborts.
	ok, err := h.lock.Acquire(context.Background(), "next", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	h := newHarness(t, nil)
	ok, err := h.lock.Acquire(context.Background(), "someone-else", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.svc.Run(context.Background(), dto.RunRequest{AsOf: utils.FormatDate(h.days[10])})
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestRunWithSymbolSubset(t *testing.T) {
	h := newHarness(t, nil)
	summary, err := h.svc.Run(context.Background(), dto.RunRequest{AsOf: utils.FormatDate(h.days[50]), Symbols: []string{"600001.SH"}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Zero(t, h.provider.callCount("600000.SH"))
}

func TestRunDefaultsToLatestTradingDay(t *testing.T) {
	h := newHarness(t, nil)
	saturday := h.days[299].AddDate(0, 0, 1)
	h.svc.now = func() time.Time { return saturday.Add(15 * time.Hour) }

	summary, err := h.svc.Run(context.Background(), dto.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, utils.FormatDate(h.days[299]), summary.AsOf)
}

func TestRunRejectsInvalidAsOf(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.Run(context.Background(), dto.RunRequest{AsOf: "2025-13-40"})
	assert.Error(t, err)
}

func TestRankRecomputesRange(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.Run(context.Background(), dto.RunRequest{AsOf: utils.FormatDate(h.days[299]), SkipRank: true})
	require.NoError(t, err)

	latest, err := h.indicators.FindLatest(context.Background())
	require.NoError(t, err)
	for _, r := range latest {
		assert.Nil(t, r.RSRating)
	}

	dates, err := h.svc.Rank(context.Background(), h.days[295], h.days[299])
	require.NoError(t, err)
	assert.Equal(t, 5, dates)

	latest, err = h.indicators.FindLatest(context.Background())
	require.NoError(t, err)
	for _, r := range latest {
		assert.NotNil(t, r.RSRating, r.Symbol)
	}
}

type rangeRecordingIndicators struct {
	repository.IndicatorRepository
	mu    sync.Mutex
	spans []time.Duration
}

func (r *rangeRecordingIndicators) FindByDateRange(ctx context.Context, start, end time.Time) ([]entity.IndicatorRow, error) {
	r.mu.Lock()
	r.spans = append(r.spans, end.Sub(start))
	r.mu.Unlock()
	return r.IndicatorRepository.FindByDateRange(ctx, start, end)
}

func TestRankLoadsBoundedDateChunks(t *testing.T) {
	h := newHarness(t, nil)
	recorder := &rangeRecordingIndicators{IndicatorRepository: h.indicators}
	h.svc.indicatorRepo = recorder

	summary := h.run(t, h.days[299])
	assert.Equal(t, 300, summary.RankedDates)
	require.Greater(t, len(recorder.spans), 1)
	for _, span := range recorder.spans {
		assert.LessOrEqual(t, span, time.Duration(rankChunkDays-1)*24*time.Hour)
	}
}

func TestNewListingDoesNotWidenDailyRanking(t *testing.T) {
	h := newHarness(t, nil)
	h.run(t, h.days[299])

	h.provider.mu.Lock()
	h.provider.bars["688001.SH"] = syntheticBars("688001.SH", h.days[296:301], 0.1)
	h.provider.mu.Unlock()
	require.NoError(t, h.svc.stocksRepo.Upsert(context.Background(), []entity.Stock{
		{Symbol: "688001.SH", Code: "688001", Name: "华兴源创", Exchange: "SH", IsActive: true},
	}))

	summary := h.run(t, h.days[300])
	assert.Equal(t, 4, summary.Updated)
	assert.Greater(t, summary.RankedDates, 0)
	assert.LessOrEqual(t, summary.RankedDates, 10)

	for _, r := range summary.Results {
		if r.Symbol != "688001.SH" {
			continue
		}
		assert.Equal(t, "full_backfill", r.Reason)
		assert.Equal(t, 5, r.Rows)
		require.NotNil(t, r.Start)
		assert.Equal(t, h.days[296], *r.Start)
	}

	rows, err := h.indicators.GetSeries(context.Background(), "688001.SH", genesis, farEnd)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for _, r := range rows {
		assert.Nil(t, r.RSRaw)
		assert.Nil(t, r.RSRating)
	}
}

func TestAdjustmentRebased(t *testing.T) {
	d := tradingDays(3)
	stored := []entity.Bar{{Date: d[0], Close: 10}, {Date: d[1], Close: 10.5}}

	assert.False(t, adjustmentRebased(nil, stored))
	assert.False(t, adjustmentRebased(stored, nil))
	assert.False(t, adjustmentRebased(stored, []entity.Bar{{Date: d[1], Close: 10.501}, {Date: d[2], Close: 11}}))
	assert.True(t, adjustmentRebased(stored, []entity.Bar{{Date: d[1], Close: 9.45}, {Date: d[2], Close: 9.9}}))
	assert.False(t, adjustmentRebased(stored, []entity.Bar{{Date: d[2], Close: 11}}))
}

func TestRunRefetchesRebasedAdjustedHistory(t *testing.T) {
	h := newHarness(t, nil)
	h.svc.adjusted = true
	h.run(t, h.days[299])

	// An ex-dividend date re-bases every earlier forward-adjusted price.
	h.provider.mu.Lock()
	rebasedBars := h.provider.bars["600000.SH"]
	for i := range rebasedBars {
		rebasedBars[i].Close = utils.Round(rebasedBars[i].Close*0.9, 2)
	}
	h.provider.mu.Unlock()

	summary := h.run(t, h.days[300])
	assert.Equal(t, 3, summary.Updated)
	for _, r := range summary.Results {
		switch r.Symbol {
		case "600000.SH":
			assert.Equal(t, reasonRebased, r.Reason)
			require.NotNil(t, r.Start)
			assert.Equal(t, h.days[0], *r.Start)
		default:
			assert.Equal(t, "incremental", r.Reason)
		}
	}

	bars, err := h.bars.GetSeries(context.Background(), "600000.SH", h.days[0], h.days[0])
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, rebasedBars[0].Close, bars[0].Close)

	rows, err := h.indicators.GetSeries(context.Background(), "600000.SH", h.days[0], h.days[0])
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, rebasedBars[0].Close, rows[0].Close)
}
