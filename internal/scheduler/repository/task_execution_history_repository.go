package repository

import (
	"context"

	"golang-stock-indicator/internal/entity"

	"gorm.io/gorm"
)

// TaskExecutionHistoryRepository defines the interface for task execution history data operations.
type TaskExecutionHistoryRepository interface {
	Create(ctx context.Context, history *entity.TaskExecutionHistory) error
	FindByID(ctx context.Context, id uint) (*entity.TaskExecutionHistory, error)
	// FindRecent returns the newest executions first, at most limit rows (all when limit <= 0).
	FindRecent(ctx context.Context, limit int) ([]entity.TaskExecutionHistory, error)
	FindAllByJobID(ctx context.Context, jobID uint) ([]entity.TaskExecutionHistory, error)
	Update(ctx context.Context, history *entity.TaskExecutionHistory) error
}

// NewTaskExecutionHistoryRepository creates a new GORM-based task execution history repository.
func NewTaskExecutionHistoryRepository(db *gorm.DB) TaskExecutionHistoryRepository {
	return &taskExecutionHistoryRepository{db: db}
}

type taskExecutionHistoryRepository struct {
	db *gorm.DB
}

// Create creates a new task execution history record.
func (r *taskExecutionHistoryRepository) Create(ctx context.Context, history *entity.TaskExecutionHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

// FindByID retrieves a task execution history record by its ID.
func (r *taskExecutionHistoryRepository) FindByID(ctx context.Context, id uint) (*entity.TaskExecutionHistory, error) {
	var history entity.TaskExecutionHistory
	if err := r.db.WithContext(ctx).First(&history, id).Error; err != nil {
		return nil, err
	}
	return &history, nil
}

func (r *taskExecutionHistoryRepository) FindRecent(ctx context.Context, limit int) ([]entity.TaskExecutionHistory, error) {
	var histories []entity.TaskExecutionHistory
	q := r.db.WithContext(ctx).Order("executed_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&histories).Error; err != nil {
		return nil, err
	}
	return histories, nil
}

// FindAllByJobID retrieves all task execution history records for a specific job.
func (r *taskExecutionHistoryRepository) FindAllByJobID(ctx context.Context, jobID uint) ([]entity.TaskExecutionHistory, error) {
	var histories []entity.TaskExecutionHistory
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).Order("executed_at desc, id desc").Find(&histories).Error; err != nil {
		return nil, err
	}
	return histories, nil
}

// Update writes back the status columns. Save is used so zero counts are persisted too.
func (r *taskExecutionHistoryRepository) Update(ctx context.Context, history *entity.TaskExecutionHistory) error {
	return r.db.WithContext(ctx).Save(history).Error
}
