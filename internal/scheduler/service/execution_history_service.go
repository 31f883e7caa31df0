package service

import (
	"context"
	"errors"
	"fmt"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/scheduler/dto"
	"golang-stock-indicator/internal/scheduler/repository"
	"golang-stock-indicator/pkg/logger"

	"gorm.io/gorm"
)

// ExecutionHistoryService defines the interface for reading execution history.
type ExecutionHistoryService interface {
	GetExecutionHistoryByID(ctx context.Context, id uint) (*dto.ExecutionHistoryResponse, error)
	GetRecentExecutionHistories(ctx context.Context, limit int) ([]*dto.ExecutionHistoryResponse, error)
	GetExecutionHistoriesByJobID(ctx context.Context, jobID uint) ([]*dto.ExecutionHistoryResponse, error)
}

// NewExecutionHistoryService creates a new execution history service.
func NewExecutionHistoryService(historyRepo repository.TaskExecutionHistoryRepository, log *logger.Logger) ExecutionHistoryService {
	return &executionHistoryService{
		historyRepo: historyRepo,
		logger:      log,
	}
}

type executionHistoryService struct {
	historyRepo repository.TaskExecutionHistoryRepository
	logger      *logger.Logger
}

func (s *executionHistoryService) GetExecutionHistoryByID(ctx context.Context, id uint) (*dto.ExecutionHistoryResponse, error) {
	history, err := s.historyRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("execution %d: %w", id, ErrNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to find execution history", logger.ErrorField(err), logger.Field("history_id", id))
		return nil, err
	}
	return mapToExecutionHistoryResponse(history), nil
}

func (s *executionHistoryService) GetRecentExecutionHistories(ctx context.Context, limit int) ([]*dto.ExecutionHistoryResponse, error) {
	histories, err := s.historyRepo.FindRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to get execution histories", logger.ErrorField(err))
		return nil, err
	}
	return mapHistories(histories), nil
}

func (s *executionHistoryService) GetExecutionHistoriesByJobID(ctx context.Context, jobID uint) ([]*dto.ExecutionHistoryResponse, error) {
	histories, err := s.historyRepo.FindAllByJobID(ctx, jobID)
	if err != nil {
		s.logger.Error("Failed to get execution histories by job ID", logger.ErrorField(err), logger.Field("job_id", jobID))
		return nil, err
	}
	return mapHistories(histories), nil
}

func mapHistories(histories []entity.TaskExecutionHistory) []*dto.ExecutionHistoryResponse {
	out := make([]*dto.ExecutionHistoryResponse, 0, len(histories))
	for i := range histories {
		out = append(out, mapToExecutionHistoryResponse(&histories[i]))
	}
	return out
}

func mapToExecutionHistoryResponse(history *entity.TaskExecutionHistory) *dto.ExecutionHistoryResponse {
	resp := &dto.ExecutionHistoryResponse{
		ID:            history.ID,
		JobID:         history.JobID,
		ScheduleID:    history.ScheduleID,
		RunID:         history.RunID,
		Status:        string(history.Status),
		ExecutedAt:    history.StartedAt,
		Updated:       history.Updated,
		Skipped:       history.Skipped,
		Failed:        history.Failed,
		FailedSymbols: []string(history.FailedSymbols),
		Output:        history.Output.String,
		Error:         history.ErrorMessage.String,
	}
	if resp.FailedSymbols == nil {
		resp.FailedSymbols = []string{}
	}
	if history.CompletedAt.Valid {
		completed := history.CompletedAt.Time
		resp.CompletedAt = &completed
		resp.Duration = completed.Sub(history.StartedAt).Milliseconds()
	}
	return resp
}
