package strategy

import (
	"context"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/pkg/logger"
)

// ScreeningReportStrategy screens the latest snapshot and exports the workbook.
type ScreeningReportStrategy struct {
	logger    *logger.Logger
	screening Screener
}

func NewScreeningReportStrategy(log *logger.Logger, screening Screener) JobExecutionStrategy {
	return &ScreeningReportStrategy{logger: log, screening: screening}
}

func (s *ScreeningReportStrategy) GetType() entity.JobType {
	return entity.JobTypeScreeningReport
}

func (s *ScreeningReportStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	var req dto.ScreeningRequest
	if err := decodePayload(job, &req); err != nil {
		return "", err
	}
	summary, _, err := s.screening.Screen(ctx, req)
	if err != nil {
		return "", err
	}
	return encodeOutput(summary)
}
