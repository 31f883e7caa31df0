package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/scheduler/config"
	"golang-stock-indicator/internal/scheduler/dto"
	"golang-stock-indicator/internal/scheduler/repository"
	"golang-stock-indicator/internal/screening"
	"golang-stock-indicator/internal/snapshot"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/utils"

	"github.com/patrickmn/go-cache"
)

const (
	cacheKeySnapshot  = "market:snapshot"
	cacheKeyScreening = "market:screening"

	maxIndicatorRangeDays = 3660
)

// MarketService serves the read-only market endpoints. Responses are cached in memory
// because every snapshot request scans the latest row of the whole universe.
type MarketService interface {
	GetSnapshot(ctx context.Context) (*dto.SnapshotResponse, error)
	GetScreening(ctx context.Context) (*dto.ScreeningResponse, error)
	// GetIndicators returns symbol's rows in [start, end]. A zero start means one year before end;
	// a zero end means today.
	GetIndicators(ctx context.Context, symbol string, start, end time.Time) (*dto.IndicatorsResponse, error)
	GetMarketStat(ctx context.Context, date time.Time) (*entity.MarketDailyStat, error)
}

// NewMarketService creates a new market service.
func NewMarketService(cfg *config.Config, marketRepo repository.MarketRepository, log *logger.Logger) MarketService {
	indexes := make(map[string]bool, len(cfg.Market.Indexes))
	for _, s := range cfg.Market.Indexes {
		indexes[s] = true
	}
	return &marketService{
		marketRepo: marketRepo,
		benchmark:  cfg.Market.BenchmarkSymbol,
		indexes:    indexes,
		thresholds: cfg.Market.Screening,
		cache:      cache.New(cfg.Scheduler.CacheTTL, cfg.Scheduler.CacheCleanupInterval),
		logger:     log,
	}
}

type marketService struct {
	marketRepo repository.MarketRepository
	benchmark  string
	indexes    map[string]bool
	thresholds screening.Thresholds
	cache      *cache.Cache
	logger     *logger.Logger
}

func (s *marketService) GetSnapshot(ctx context.Context) (*dto.SnapshotResponse, error) {
	if cached, ok := s.cache.Get(cacheKeySnapshot); ok {
		return cached.(*dto.SnapshotResponse), nil
	}

	rows, _, asOf, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.SnapshotResponse{AsOf: formatOptionalDate(asOf), Count: len(rows), Rows: rows}
	s.cache.SetDefault(cacheKeySnapshot, resp)
	return resp, nil
}

func (s *marketService) GetScreening(ctx context.Context) (*dto.ScreeningResponse, error) {
	if cached, ok := s.cache.Get(cacheKeyScreening); ok {
		return cached.(*dto.ScreeningResponse), nil
	}

	rows, stocks, asOf, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	fresh := make([]snapshot.Row, 0, len(rows))
	for _, r := range rows {
		if !r.Stale {
			fresh = append(fresh, r)
		}
	}
	var benchmark *snapshot.Row
	if row, ok := snapshot.Find(fresh, s.benchmark); ok {
		benchmark = &row
	}

	results := screening.Screen(fresh, stocks, benchmark, s.thresholds)
	resp := &dto.ScreeningResponse{
		Date:       formatOptionalDate(asOf),
		Screened:   len(results),
		Perfect:    len(screening.WithTier(results, screening.TierPerfect)),
		Excellent:  len(screening.WithTier(results, screening.TierExcellent)),
		Results:    results,
		Conditions: screening.Analyze(results),
	}
	s.cache.SetDefault(cacheKeyScreening, resp)
	return resp, nil
}

func (s *marketService) GetIndicators(ctx context.Context, symbol string, start, end time.Time) (*dto.IndicatorsResponse, error) {
	if _, _, ok := entity.SplitSymbol(symbol); !ok {
		return nil, fmt.Errorf("%w: symbol %q", ErrInvalidRequest, symbol)
	}
	if end.IsZero() {
		end = utils.TruncateDay(utils.TimeNowCST())
	}
	if start.IsZero() {
		start = end.AddDate(-1, 0, 0)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRequest, utils.FormatDate(start), utils.FormatDate(end))
	}
	if utils.DaysBetween(start, end) > maxIndicatorRangeDays {
		return nil, fmt.Errorf("%w: range longer than %d days", ErrInvalidRequest, maxIndicatorRangeDays)
	}

	key := fmt.Sprintf("market:indicators:%s:%s:%s", symbol, utils.FormatDate(start), utils.FormatDate(end))
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*dto.IndicatorsResponse), nil
	}

	rows, err := s.marketRepo.FindIndicators(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	resp := &dto.IndicatorsResponse{
		Symbol: symbol,
		Start:  utils.FormatDate(start),
		End:    utils.FormatDate(end),
		Rows:   rows,
	}
	s.cache.SetDefault(key, resp)
	return resp, nil
}

func (s *marketService) GetMarketStat(ctx context.Context, date time.Time) (*entity.MarketDailyStat, error) {
	date = utils.TruncateDay(date)
	key := "market:stat:" + utils.FormatDate(date)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*entity.MarketDailyStat), nil
	}

	stat, err := s.marketRepo.FindMarketStat(ctx, date)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("market stats for %s: %w", utils.FormatDate(date), ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, stat)
	return stat, nil
}

// loadSnapshot builds the latest snapshot with names and index flags filled in. Configured
// indexes are flagged even before the universe has been synced.
func (s *marketService) loadSnapshot(ctx context.Context) ([]snapshot.Row, []entity.Stock, time.Time, error) {
	latest, err := s.marketRepo.FindLatestIndicators(ctx)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	stocks, err := s.marketRepo.FindActiveStocks(ctx)
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	var asOf time.Time
	for _, r := range latest {
		if d := utils.TruncateDay(r.Date); d.After(asOf) {
			asOf = d
		}
	}

	rows := snapshot.Build(latest, asOf)
	snapshot.Annotate(rows, stocks)
	for i := range rows {
		if s.indexes[rows[i].Symbol] {
			rows[i].IsIndex = true
		}
	}
	for i := range stocks {
		if s.indexes[stocks[i].Symbol] {
			stocks[i].IsIndex = true
		}
	}
	return rows, stocks, asOf, nil
}

func formatOptionalDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return utils.FormatDate(d)
}
