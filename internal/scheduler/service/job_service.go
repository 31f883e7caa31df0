package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/scheduler/dto"
	"golang-stock-indicator/internal/scheduler/repository"
	"golang-stock-indicator/pkg/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested job or execution does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidJob is returned when a job request fails validation.
	ErrInvalidJob = errors.New("invalid job")
	// ErrInvalidRequest is returned for malformed market queries.
	ErrInvalidRequest = errors.New("invalid request")
)

var jobTypes = map[entity.JobType]bool{
	entity.JobTypeIndicatorPipeline: true,
	entity.JobTypeScreeningReport:   true,
	entity.JobTypeMarketStats:       true,
}

// JobService defines the interface for managing jobs.
type JobService interface {
	CreateJob(ctx context.Context, req *dto.CreateJobRequest) (*dto.JobResponse, error)
	GetJobByID(ctx context.Context, id uint) (*dto.JobResponse, error)
	GetAllJobs(ctx context.Context) ([]*dto.JobResponse, error)
	// TriggerJob queues one execution of the job right away, outside its schedules.
	TriggerJob(ctx context.Context, id uint) (*dto.TriggerResponse, error)
}

// NewJobService creates a new job service.
func NewJobService(jobRepo repository.JobRepository, historyRepo repository.TaskExecutionHistoryRepository, publisher TaskPublisher, log *logger.Logger) JobService {
	return &jobService{
		jobRepo:     jobRepo,
		historyRepo: historyRepo,
		publisher:   publisher,
		logger:      log,
		cronParser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

type jobService struct {
	jobRepo     repository.JobRepository
	historyRepo repository.TaskExecutionHistoryRepository
	publisher   TaskPublisher
	logger      *logger.Logger
	cronParser  cron.Parser
}

// CreateJob validates the job type, payload and cron expressions before storing the job.
func (s *jobService) CreateJob(ctx context.Context, req *dto.CreateJobRequest) (*dto.JobResponse, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidJob)
	}
	if !jobTypes[entity.JobType(req.Type)] {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidJob, req.Type)
	}
	if len(req.Payload) > 0 && !json.Valid(req.Payload) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidJob)
	}

	job := &entity.Job{
		Name:        req.Name,
		Description: req.Description,
		Type:        entity.JobType(req.Type),
		Payload:     datatypes.JSON(req.Payload),
		Timeout:     req.Timeout,
	}
	for _, sDto := range req.Schedules {
		if _, err := s.cronParser.Parse(sDto.CronExpression); err != nil {
			return nil, fmt.Errorf("%w: cron expression %q: %v", ErrInvalidJob, sDto.CronExpression, err)
		}
		job.Schedules = append(job.Schedules, entity.TaskSchedule{
			CronExpression: sDto.CronExpression,
			IsActive:       sDto.IsActive,
		})
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		s.logger.Error("Failed to create job", logger.ErrorField(err))
		return nil, err
	}
	s.logger.Info("Job created", logger.Field("job_id", job.ID), logger.Field("type", job.Type))
	return mapToJobResponse(job), nil
}

// GetJobByID retrieves a job by its ID.
func (s *jobService) GetJobByID(ctx context.Context, id uint) (*dto.JobResponse, error) {
	job, err := s.findJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToJobResponse(job), nil
}

// GetAllJobs retrieves all jobs.
func (s *jobService) GetAllJobs(ctx context.Context) ([]*dto.JobResponse, error) {
	jobs, err := s.jobRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	jobResponses := make([]*dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		jobResponses = append(jobResponses, mapToJobResponse(&jobs[i]))
	}
	return jobResponses, nil
}

func (s *jobService) TriggerJob(ctx context.Context, id uint) (*dto.TriggerResponse, error) {
	job, err := s.findJob(ctx, id)
	if err != nil {
		return nil, err
	}

	history := &entity.TaskExecutionHistory{
		JobID:     job.ID,
		Status:    entity.StatusRunning,
		StartedAt: time.Now(),
	}
	if err := enqueue(ctx, s.historyRepo, s.publisher, history); err != nil {
		s.logger.Error("Failed to trigger job", logger.ErrorField(err), logger.Field("job_id", id))
		return nil, err
	}

	s.logger.Info("Job triggered", logger.Field("job_id", id), logger.Field("history_id", history.ID))
	return &dto.TriggerResponse{HistoryID: history.ID, JobID: job.ID, Status: string(history.Status)}, nil
}

func (s *jobService) findJob(ctx context.Context, id uint) (*entity.Job, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func mapToJobResponse(job *entity.Job) *dto.JobResponse {
	schedules := make([]dto.ScheduleResponseDTO, 0, len(job.Schedules))
	for _, schedule := range job.Schedules {
		schedules = append(schedules, dto.ScheduleResponseDTO{
			ID:             schedule.ID,
			CronExpression: schedule.CronExpression,
			IsActive:       schedule.IsActive,
			NextExecution:  schedule.NextExecution,
			LastExecution:  schedule.LastExecution,
		})
	}

	return &dto.JobResponse{
		ID:          job.ID,
		Name:        job.Name,
		Description: job.Description,
		Type:        string(job.Type),
		Payload:     json.RawMessage(job.Payload),
		Timeout:     job.Timeout,
		Schedules:   schedules,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}
