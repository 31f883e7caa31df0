package service

import (
	"context"
	"fmt"

	"golang-stock-indicator/internal/executor/config"
	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/internal/executor/repository"
	"golang-stock-indicator/pkg/logger"

	"go.uber.org/zap"
)

// StockSyncService refreshes the symbol universe from the upstream stock list.
type StockSyncService interface {
	Sync(ctx context.Context) (*dto.SyncSummary, error)
}

type stockSyncService struct {
	indexes    []string
	provider   repository.MarketDataRepository
	stocksRepo repository.StocksRepository
	logger     *logger.Logger
}

func NewStockSyncService(cfg *config.Config, provider repository.MarketDataRepository, stocksRepo repository.StocksRepository, log *logger.Logger) StockSyncService {
	return &stockSyncService{
		indexes:    cfg.Pipeline.Indexes,
		provider:   provider,
		stocksRepo: stocksRepo,
		logger:     log,
	}
}

// Sync upserts every listed stock and the configured indexes. Stocks missing from a
// non-empty listing are deactivated; an empty listing leaves the universe untouched.
func (s *stockSyncService) Sync(ctx context.Context) (*dto.SyncSummary, error) {
	listed, err := s.provider.FetchStockList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock list: %w", err)
	}
	indexes := indexStocks(s.indexes)

	if err := s.stocksRepo.Upsert(ctx, append(listed, indexes...)); err != nil {
		return nil, err
	}

	summary := &dto.SyncSummary{Listed: len(listed), Indexes: len(indexes)}
	if len(listed) > 0 {
		keep := make([]string, len(listed))
		for i, st := range listed {
			keep[i] = st.Symbol
		}
		summary.Deactivated, err = s.stocksRepo.DeactivateMissing(ctx, keep)
		if err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "Stock universe synced",
		zap.Int("listed", summary.Listed),
		zap.Int("indexes", summary.Indexes),
		zap.Int64("deactivated", summary.Deactivated))
	return summary, nil
}
