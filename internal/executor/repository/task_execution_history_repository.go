package repository

import (
	"context"

	"golang-stock-indicator/internal/entity"

	"gorm.io/gorm"
)

// TaskExecutionHistoryRepository records job executions and their run summaries.
type TaskExecutionHistoryRepository interface {
	Create(ctx context.Context, history *entity.TaskExecutionHistory) error
	FindByID(ctx context.Context, id uint) (*entity.TaskExecutionHistory, error)
	Update(ctx context.Context, history *entity.TaskExecutionHistory) error
}

// NewTaskExecutionHistoryRepository creates a new GORM-based task execution history repository.
func NewTaskExecutionHistoryRepository(db *gorm.DB) TaskExecutionHistoryRepository {
	return &taskExecutionHistoryRepository{db: db}
}

type taskExecutionHistoryRepository struct {
	db *gorm.DB
}

// Create inserts a history row for an execution started outside the scheduler, e.g. from the CLI.
func (r *taskExecutionHistoryRepository) Create(ctx context.Context, history *entity.TaskExecutionHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *taskExecutionHistoryRepository) FindByID(ctx context.Context, id uint) (*entity.TaskExecutionHistory, error) {
	var history entity.TaskExecutionHistory
	if err := r.db.WithContext(ctx).First(&history, id).Error; err != nil {
		return nil, err
	}
	return &history, nil
}

func (r *taskExecutionHistoryRepository) Update(ctx context.Context, history *entity.TaskExecutionHistory) error {
	return r.db.WithContext(ctx).Save(history).Error
}
