package strategy

import (
	"context"
	"fmt"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/utils"
)

// MarketStatsStrategy stores the daily market breadth summary.
type MarketStatsStrategy struct {
	logger *logger.Logger
	stats  MarketStatsComputer
}

func NewMarketStatsStrategy(log *logger.Logger, stats MarketStatsComputer) JobExecutionStrategy {
	return &MarketStatsStrategy{logger: log, stats: stats}
}

func (s *MarketStatsStrategy) GetType() entity.JobType {
	return entity.JobTypeMarketStats
}

func (s *MarketStatsStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	var req dto.MarketStatsRequest
	if err := decodePayload(job, &req); err != nil {
		return "", err
	}

	var date time.Time
	if req.Date != "" {
		d, err := utils.ParseDate(req.Date)
		if err != nil {
			return "", fmt.Errorf("invalid market stats date %q: %w", req.Date, err)
		}
		date = d
	}

	stat, err := s.stats.Compute(ctx, date)
	if err != nil {
		return "", err
	}
	return encodeOutput(stat)
}
