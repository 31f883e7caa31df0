package service

import (
	"context"
	"fmt"

	"golang-stock-indicator/internal/executor/config"
	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/internal/executor/repository"
	"golang-stock-indicator/internal/screening"
	"golang-stock-indicator/internal/snapshot"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/telegram"
	"golang-stock-indicator/pkg/utils"

	"go.uber.org/zap"
)

// ScreeningService runs the CANSLIM screen over the latest snapshot and exports the report.
type ScreeningService interface {
	Screen(ctx context.Context, req dto.ScreeningRequest) (*dto.ScreeningSummary, []screening.Result, error)
}

type screeningService struct {
	reader     snapshotReader
	benchmark  string
	thresholds screening.Thresholds
	exportRepo repository.ExportRepository
	notifier   telegram.Notifier
	logger     *logger.Logger
}

func NewScreeningService(
	cfg *config.Config,
	indicatorRepo repository.IndicatorRepository,
	stocksRepo repository.StocksRepository,
	exportRepo repository.ExportRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
) ScreeningService {
	return &screeningService{
		reader:     snapshotReader{indicatorRepo: indicatorRepo, stocksRepo: stocksRepo, indexes: cfg.Pipeline.Indexes},
		benchmark:  cfg.Pipeline.BenchmarkSymbol,
		thresholds: cfg.Screening,
		exportRepo: exportRepo,
		notifier:   notifier,
		logger:     log,
	}
}

func (s *screeningService) Screen(ctx context.Context, req dto.ScreeningRequest) (*dto.ScreeningSummary, []screening.Result, error) {
	rows, asOf, universe, err := s.reader.latest(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no indicator rows to screen")
	}
	rows = fresh(rows)

	var benchmark *snapshot.Row
	if row, ok := snapshot.Find(rows, s.benchmark); ok {
		benchmark = &row
	} else {
		s.logger.WarnContext(ctx, "Benchmark missing from snapshot, outperformance condition fails for all", zap.String("benchmark", s.benchmark))
	}

	results := screening.Screen(rows, universe, benchmark, s.thresholds)
	date := utils.FormatDate(asOf)
	summary := &dto.ScreeningSummary{
		Date:      date,
		Screened:  len(results),
		Perfect:   len(screening.WithTier(results, screening.TierPerfect)),
		Excellent: len(screening.WithTier(results, screening.TierExcellent)),
	}

	summary.ReportPath, err = s.exportRepo.WriteScreeningReport(ctx, results, date)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "Screening completed",
		zap.String("date", date),
		zap.Int("screened", summary.Screened),
		zap.Int("perfect", summary.Perfect),
		zap.Int("excellent", summary.Excellent),
		zap.String("report", summary.ReportPath))

	for _, msg := range telegram.FormatScreeningResults(*summary, screening.AtLeast(results, screening.ConditionCount-1), req.Top) {
		if err := s.notifier.SendMessage(msg); err != nil {
			s.logger.WarnContext(ctx, "Failed to send screening results", zap.Error(err))
			break
		}
	}
	return summary, results, nil
}
