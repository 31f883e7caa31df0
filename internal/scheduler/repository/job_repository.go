package repository

import (
	"context"

	"golang-stock-indicator/internal/entity"

	"gorm.io/gorm"
)

// JobRepository defines the interface for job data operations.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	FindByID(ctx context.Context, id uint) (*entity.Job, error)
	FindAll(ctx context.Context) ([]entity.Job, error)
}

// NewJobRepository creates a new GORM-based job repository.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

type jobRepository struct {
	db *gorm.DB
}

// Create inserts the job together with its schedules.
func (r *jobRepository) Create(ctx context.Context, job *entity.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// FindByID retrieves a job and its schedules. A missing job returns gorm.ErrRecordNotFound.
func (r *jobRepository) FindByID(ctx context.Context, id uint) (*entity.Job, error) {
	var job entity.Job
	if err := r.db.WithContext(ctx).Preload("Schedules").First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) FindAll(ctx context.Context) ([]entity.Job, error) {
	var jobs []entity.Job
	if err := r.db.WithContext(ctx).Preload("Schedules").Order("id").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
