package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/config"
	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/internal/executor/repository"
	"golang-stock-indicator/internal/indicator"
	"golang-stock-indicator/internal/ranker"
	"golang-stock-indicator/internal/resolver"
	"golang-stock-indicator/internal/series"
	"golang-stock-indicator/internal/snapshot"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/telegram"
	"golang-stock-indicator/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrRunInProgress is returned when another run holds the pipeline lock.
	ErrRunInProgress = errors.New("pipeline run already in progress")
	// ErrPersistence wraps store failures, which abort the whole run.
	ErrPersistence = errors.New("persistence failure")
)

const (
	reasonNoBars    = "no_bars"
	reasonNoNewBars = "no_new_bars"
	reasonRebased   = "adjustment_rebased"

	// rebaseTolerance absorbs float noise on prices quoted to the fen.
	rebaseTolerance = 0.005

	// rankChunkDays bounds how many calendar days of rows the ranker loads at once.
	rankChunkDays = 31
)

// PipelineService runs the fetch, compute, rank and snapshot batch.
type PipelineService interface {
	Run(ctx context.Context, req dto.RunRequest) (*dto.RunSummary, error)
	// Rank recomputes rs_rating for every stored date in [start, end] and returns the number
	// of dates ranked.
	Rank(ctx context.Context, start, end time.Time) (int, error)
}

type pipelineService struct {
	cfg           config.Pipeline
	adjusted      bool
	lockTTL       time.Duration
	resolverCfg   resolver.Config
	calendar      *resolver.Calendar
	engine        *indicator.Engine
	provider      repository.MarketDataRepository
	barRepo       repository.BarRepository
	indicatorRepo repository.IndicatorRepository
	stocksRepo    repository.StocksRepository
	exportRepo    repository.ExportRepository
	lockRepo      repository.RunLockRepository
	notifier      telegram.Notifier
	logger        *logger.Logger
	now           func() time.Time
}

// NewPipelineService validates the pipeline configuration and wires the run dependencies.
func NewPipelineService(
	cfg *config.Config,
	provider repository.MarketDataRepository,
	barRepo repository.BarRepository,
	indicatorRepo repository.IndicatorRepository,
	stocksRepo repository.StocksRepository,
	exportRepo repository.ExportRepository,
	lockRepo repository.RunLockRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
) (PipelineService, error) {
	engine, err := indicator.NewEngine(cfg.Pipeline.Windows)
	if err != nil {
		return nil, err
	}
	calendar, err := resolver.NewCalendar(cfg.Pipeline.Holidays)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline.holidays: %w", err)
	}
	if _, err := cfg.Pipeline.Genesis(); err != nil {
		return nil, err
	}
	return &pipelineService{
		cfg:           cfg.Pipeline,
		adjusted:      cfg.Provider.Adjust != 0,
		lockTTL:       cfg.Executor.RunLockTTL,
		resolverCfg:   cfg.Pipeline.ResolverConfig(),
		calendar:      calendar,
		engine:        engine,
		provider:      provider,
		barRepo:       barRepo,
		indicatorRepo: indicatorRepo,
		stocksRepo:    stocksRepo,
		exportRepo:    exportRepo,
		lockRepo:      lockRepo,
		notifier:      notifier,
		logger:        log,
		now:           utils.TimeNowCST,
	}, nil
}

// asOfDate resolves the run date: the request, then the configured date, then the latest
// trading day on the exchange calendar.
func (s *pipelineService) asOfDate(requested string) (time.Time, error) {
	for _, candidate := range []string{requested, s.cfg.AsOfDate} {
		if candidate == "" {
			continue
		}
		d, err := utils.ParseDate(candidate)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to determine as-of date: %w", err)
		}
		return d, nil
	}
	return s.calendar.LatestTradingDay(s.now()), nil
}

func (s *pipelineService) Run(ctx context.Context, req dto.RunRequest) (*dto.RunSummary, error) {
	started := time.Now()
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)

	asOf, err := s.asOfDate(req.AsOf)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, runID)
	if err != nil {
		return nil, err
	}
	defer release()

	rcfg := s.resolverCfg
	rcfg.ForceFull = rcfg.ForceFull || req.ForceFull

	universe, err := loadUniverse(ctx, s.stocksRepo, s.cfg.Indexes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load universe: %w", ErrPersistence, err)
	}
	symbols := selectSymbols(universe, req.Symbols)

	s.logger.InfoContext(ctx, "Starting indicator pipeline",
		zap.String("as_of", utils.FormatDate(asOf)),
		zap.Int("symbols", len(symbols)),
		zap.Bool("force_full", rcfg.ForceFull),
		zap.Int("workers", s.cfg.Workers))

	summary := &dto.RunSummary{RunID: runID, AsOf: utils.FormatDate(asOf), FailedSymbols: []string{}}
	results, runErr := s.processAll(ctx, symbols, asOf, rcfg)
	summary.Results = results

	computeStart := asOf
	for _, r := range results {
		switch r.Status {
		case dto.SymbolUpdated:
			summary.Updated++
			if r.Start != nil && r.Start.Before(computeStart) {
				computeStart = *r.Start
			}
		case dto.SymbolSkipped:
			summary.Skipped++
		case dto.SymbolFailed:
			summary.Failed++
			summary.FailedSymbols = append(summary.FailedSymbols, r.Symbol)
		}
	}
	if runErr != nil {
		summary.Duration = time.Since(started).Round(time.Millisecond).String()
		s.logger.ErrorContext(ctx, "Indicator pipeline aborted", zap.Error(runErr), zap.Int("updated", summary.Updated))
		return summary, runErr
	}

	if !req.SkipRank {
		rankStart := asOf.AddDate(0, 0, -s.cfg.RankLookbackDays)
		if computeStart.Before(rankStart) {
			rankStart = computeStart
		}
		summary.RankedDates, err = s.rank(ctx, rankStart, asOf, indexSet(universe))
		if err != nil {
			return summary, err
		}
	}

	rows, files, err := s.writeSnapshot(ctx, asOf, universe)
	if err != nil {
		return summary, err
	}
	summary.SnapshotRows = len(rows)
	summary.SnapshotFiles = files
	summary.Duration = time.Since(started).Round(time.Millisecond).String()

	s.logger.InfoContext(ctx, "Indicator pipeline completed",
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Strings("failed_symbols", summary.FailedSymbols),
		zap.Int("ranked_dates", summary.RankedDates),
		zap.Int("snapshot_rows", summary.SnapshotRows),
		zap.String("duration", summary.Duration))

	if err := s.notifier.SendMessage(telegram.FormatRunSummary(*summary)); err != nil {
		s.logger.WarnContext(ctx, "Failed to send run summary", zap.Error(err))
	}
	return summary, nil
}

func (s *pipelineService) Rank(ctx context.Context, start, end time.Time) (int, error) {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)

	release, err := s.acquire(ctx, runID)
	if err != nil {
		return 0, err
	}
	defer release()

	universe, err := loadUniverse(ctx, s.stocksRepo, s.cfg.Indexes)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to load universe: %w", ErrPersistence, err)
	}
	return s.rank(ctx, utils.TruncateDay(start), utils.TruncateDay(end), indexSet(universe))
}

func (s *pipelineService) acquire(ctx context.Context, runID string) (func(), error) {
	ok, err := s.lockRepo.Acquire(ctx, runID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return func() {
		if err := s.lockRepo.Release(context.WithoutCancel(ctx), runID); err != nil {
			s.logger.WarnContext(ctx, "Failed to release run lock", zap.Error(err))
		}
	}, nil
}

// selectSymbols returns the requested symbols, or the whole universe when none are requested.
func selectSymbols(universe []entity.Stock, requested []string) []string {
	if len(requested) > 0 {
		out := append([]string(nil), requested...)
		sort.Strings(out)
		return out
	}
	out := make([]string, len(universe))
	for i, s := range universe {
		out[i] = s.Symbol
	}
	return out
}

// processAll fans symbols out to a bounded pool of workers and waits for all of them. A
// persistence failure cancels the remaining work and is returned.
func (s *pipelineService) processAll(ctx context.Context, symbols []string, asOf time.Time, rcfg resolver.Config) ([]dto.SymbolResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	semaphore := make(chan struct{}, workers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  = make([]dto.SymbolResult, 0, len(symbols))
		fatalErr error
	)

	for _, symbol := range symbols {
		if !utils.ShouldContinue(runCtx) {
			break
		}
		select {
		case semaphore <- struct{}{}:
		case <-runCtx.Done():
			continue
		}

		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			res, err := s.processSymbolRecovered(runCtx, symbol, asOf, rcfg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if fatalErr == nil && runCtx.Err() == nil {
					fatalErr = err
					cancel()
				}
				return
			}
			results = append(results, res)
		})
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })
	if fatalErr != nil {
		return results, fatalErr
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("pipeline run cancelled: %w", err)
	}
	return results, nil
}

// processSymbolRecovered turns a panic while processing symbol into a failed result so the
// symbol is still counted in the run summary.
func (s *pipelineService) processSymbolRecovered(ctx context.Context, symbol string, asOf time.Time, rcfg resolver.Config) (res dto.SymbolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Recovered from panic while processing symbol",
				zap.String("symbol", symbol),
				zap.Any("panic", r))
			res = dto.SymbolResult{Symbol: symbol, Status: dto.SymbolFailed, Reason: fmt.Sprintf("panic: %v", r)}
			err = nil
		}
	}()
	return s.processSymbol(ctx, symbol, asOf, rcfg)
}

// processSymbol fetches, merges and recomputes one symbol. Upstream failures are reported in
// the result; only store failures and cancellation are returned as errors.
func (s *pipelineService) processSymbol(ctx context.Context, symbol string, asOf time.Time, rcfg resolver.Config) (dto.SymbolResult, error) {
	started := time.Now()
	res := dto.SymbolResult{Symbol: symbol}
	done := func(status dto.SymbolStatus, reason string) (dto.SymbolResult, error) {
		res.Status = status
		res.Reason = reason
		res.Elapsed = time.Since(started).Round(time.Millisecond).String()
		return res, nil
	}

	barLatest, err := s.barRepo.GetLatestDate(ctx, symbol)
	if err != nil {
		return res, persistence(err)
	}
	indicatorLatest, err := s.indicatorRepo.GetLatestDate(ctx, symbol)
	if err != nil {
		return res, persistence(err)
	}

	fetch := resolver.Resolve(barLatest, asOf, rcfg)
	if fetch.Skip && indicatorLatest != nil && barLatest != nil && !indicatorLatest.Before(*barLatest) {
		return done(dto.SymbolSkipped, string(fetch.Reason))
	}

	fetchFailed := func(err error) (dto.SymbolResult, error) {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		s.logger.WarnContext(ctx, "Failed to fetch bars", zap.String("symbol", symbol), zap.Error(err))
		return done(dto.SymbolFailed, err.Error())
	}

	var fetched []entity.Bar
	if !fetch.Skip {
		fetched, err = s.provider.FetchDailyBars(ctx, symbol, fetch.Start, fetch.End)
		if err != nil {
			return fetchFailed(err)
		}
	}

	existing, err := s.barRepo.GetSeries(ctx, symbol, rcfg.Genesis, asOf)
	if err != nil {
		return res, persistence(err)
	}

	// Adjusted prices are re-based by the upstream on ex-dividend dates. When the oldest
	// refetched bar no longer matches the stored one, the whole history is replaced.
	rebased := false
	if s.adjusted && !fetch.Skip && !fetch.Full && adjustmentRebased(existing, fetched) {
		s.logger.WarnContext(ctx, "Adjusted history re-based upstream, refetching full series",
			zap.String("symbol", symbol))
		fetched, err = s.provider.FetchDailyBars(ctx, symbol, rcfg.Genesis, asOf)
		if err != nil {
			return fetchFailed(err)
		}
		existing = nil
		rebased = true
		fetch.Start = rcfg.Genesis
	}

	merged := series.DeriveBarFields(series.Merge(existing, series.Window(fetched, rcfg.Genesis, asOf)))
	if len(merged) == 0 {
		return done(dto.SymbolSkipped, reasonNoBars)
	}

	// Refetched bars are persisted even when nothing new arrived, so upstream corrections
	// inside the lookback window are kept.
	if !fetch.Skip {
		barWindow := series.Window(merged, fetch.Start, asOf)
		if err := s.barRepo.UpsertSeries(ctx, symbol, barWindow); err != nil {
			return res, persistence(err)
		}
		res.Bars = len(barWindow)
	}

	newest := merged[len(merged)-1].Date
	if !rcfg.ForceFull && !rebased && indicatorLatest != nil && !newest.After(*indicatorLatest) {
		return done(dto.SymbolSkipped, reasonNoNewBars)
	}

	compute := resolver.Resolve(indicatorLatest, asOf, rcfg)
	start := compute.Start
	reason := string(compute.Reason)
	switch {
	case rebased:
		start = rcfg.Genesis
		reason = reasonRebased
	case compute.Skip:
		start = indicatorLatest.AddDate(0, 0, -rcfg.LookbackDays)
	}

	rows := series.Window(s.engine.Compute(merged), start, asOf)
	if err := s.indicatorRepo.UpsertSeries(ctx, symbol, rows); err != nil {
		return res, persistence(err)
	}
	res.Rows = len(rows)
	if len(rows) > 0 {
		first := rows[0].Date
		res.Start = &first
	}

	s.logger.DebugContext(ctx, "Symbol updated",
		zap.String("symbol", symbol),
		zap.String("reason", reason),
		zap.Int("bars", res.Bars),
		zap.Int("rows", res.Rows))
	return done(dto.SymbolUpdated, reason)
}

// adjustmentRebased reports whether the oldest fetched bar that is also stored has a
// different close, which means the upstream re-based its adjusted prices.
func adjustmentRebased(existing, fetched []entity.Bar) bool {
	if len(existing) == 0 || len(fetched) == 0 {
		return false
	}
	stored := make(map[time.Time]float64, len(existing))
	for _, b := range existing {
		stored[utils.TruncateDay(b.Date)] = b.Close
	}
	for _, b := range fetched {
		if storedClose, ok := stored[utils.TruncateDay(b.Date)]; ok {
			return math.Abs(storedClose-b.Close) > rebaseTolerance
		}
	}
	return false
}

// rank re-ranks every stored date in [start, end], one chunk of dates at a time. Stocks and
// indexes form separate populations.
func (s *pipelineService) rank(ctx context.Context, start, end time.Time, indexes map[string]bool) (int, error) {
	var dates, rows int
	for chunkStart := start; !chunkStart.After(end); chunkStart = chunkStart.AddDate(0, 0, rankChunkDays) {
		if err := ctx.Err(); err != nil {
			return dates, fmt.Errorf("ranking cancelled: %w", err)
		}
		chunkEnd := chunkStart.AddDate(0, 0, rankChunkDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunkDates, chunkRows, err := s.rankChunk(ctx, chunkStart, chunkEnd, indexes)
		if err != nil {
			return dates, err
		}
		dates += chunkDates
		rows += chunkRows
	}

	s.logger.InfoContext(ctx, "Ranked RS ratings",
		zap.String("start", utils.FormatDate(start)),
		zap.String("end", utils.FormatDate(end)),
		zap.Int("dates", dates),
		zap.Int("rows", rows))
	return dates, nil
}

func (s *pipelineService) rankChunk(ctx context.Context, start, end time.Time, indexes map[string]bool) (int, int, error) {
	rows, err := s.indicatorRepo.FindByDateRange(ctx, start, end)
	if err != nil {
		return 0, 0, persistence(err)
	}

	var stockRows, indexRows []entity.IndicatorRow
	for _, r := range rows {
		if indexes[r.Symbol] {
			indexRows = append(indexRows, r)
		} else {
			stockRows = append(stockRows, r)
		}
	}

	updates := append(ranker.RankRows(stockRows), ranker.RankRows(indexRows)...)
	if err := s.indicatorRepo.UpdateRatings(ctx, updates); err != nil {
		return 0, 0, persistence(err)
	}

	dates := make(map[time.Time]struct{})
	for _, u := range updates {
		dates[utils.TruncateDay(u.Date)] = struct{}{}
	}
	return len(dates), len(updates), nil
}

func (s *pipelineService) writeSnapshot(ctx context.Context, asOf time.Time, universe []entity.Stock) ([]snapshot.Row, []string, error) {
	latest, err := s.indicatorRepo.FindLatest(ctx)
	if err != nil {
		return nil, nil, persistence(err)
	}
	rows := snapshot.Build(latest, asOf)
	snapshot.Annotate(rows, universe)

	files, err := s.exportRepo.WriteSnapshot(ctx, rows, utils.FormatDate(asOf))
	if err != nil {
		return nil, nil, persistence(err)
	}
	return rows, files, nil
}

func persistence(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
