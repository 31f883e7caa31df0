package service

import (
	"context"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/config"
	"golang-stock-indicator/internal/executor/repository"
	"golang-stock-indicator/internal/marketstat"
	"golang-stock-indicator/internal/snapshot"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/telegram"
	"golang-stock-indicator/pkg/utils"

	"go.uber.org/zap"
)

// MarketStatsService computes and stores the daily market breadth summary.
type MarketStatsService interface {
	// Compute summarises date, or the latest stored date when date is zero.
	Compute(ctx context.Context, date time.Time) (*entity.MarketDailyStat, error)
}

type marketStatsService struct {
	reader   snapshotReader
	statRepo repository.MarketStatRepository
	notifier telegram.Notifier
	logger   *logger.Logger
}

func NewMarketStatsService(
	cfg *config.Config,
	indicatorRepo repository.IndicatorRepository,
	stocksRepo repository.StocksRepository,
	statRepo repository.MarketStatRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
) MarketStatsService {
	return &marketStatsService{
		reader:   snapshotReader{indicatorRepo: indicatorRepo, stocksRepo: stocksRepo, indexes: cfg.Pipeline.Indexes},
		statRepo: statRepo,
		notifier: notifier,
		logger:   log,
	}
}

func (s *marketStatsService) Compute(ctx context.Context, date time.Time) (*entity.MarketDailyStat, error) {
	var rows []snapshot.Row
	var err error
	if date.IsZero() {
		rows, date, _, err = s.reader.latest(ctx)
	} else {
		date = utils.TruncateDay(date)
		rows, _, err = s.reader.on(ctx, date)
	}
	if err != nil {
		return nil, err
	}

	stat := marketstat.Compute(rows, date)
	if err := s.statRepo.Upsert(ctx, &stat); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Market stats computed",
		zap.String("date", utils.FormatDate(date)),
		zap.Int("total", stat.Total),
		zap.Int("up", stat.Up),
		zap.Int("down", stat.Down),
		zap.Int("stale", stat.StaleSymbols))

	if err := s.notifier.SendMessage(telegram.FormatMarketStat(stat)); err != nil {
		s.logger.WarnContext(ctx, "Failed to send market stats", zap.Error(err))
	}
	return &stat, nil
}
