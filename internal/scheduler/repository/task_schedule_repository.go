package repository

import (
	"context"
	"time"

	"golang-stock-indicator/internal/entity"

	"gorm.io/gorm"
)

// TaskScheduleRepository defines the interface for task schedule data operations.
type TaskScheduleRepository interface {
	// FindDue returns the active schedules whose next execution is unset or not after now.
	FindDue(ctx context.Context, now time.Time) ([]entity.TaskSchedule, error)
	Update(ctx context.Context, schedule *entity.TaskSchedule) error
}

// NewTaskScheduleRepository creates a new GORM-based task schedule repository.
func NewTaskScheduleRepository(db *gorm.DB) TaskScheduleRepository {
	return &taskScheduleRepository{db: db}
}

type taskScheduleRepository struct {
	db *gorm.DB
}

func (r *taskScheduleRepository) FindDue(ctx context.Context, now time.Time) ([]entity.TaskSchedule, error) {
	var schedules []entity.TaskSchedule
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND (next_execution IS NULL OR next_execution <= ?)", true, now).
		Order("id").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *taskScheduleRepository) Update(ctx context.Context, schedule *entity.TaskSchedule) error {
	return r.db.WithContext(ctx).Save(schedule).Error
}
