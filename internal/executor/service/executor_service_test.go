package service

import (
	"context"
	"errors"
	"testing"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/strategy"
	"golang-stock-indicator/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryJobRepository struct {
	jobs map[uint]*entity.Job
}

func (r *memoryJobRepository) FindByID(_ context.Context, id uint) (*entity.Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New("job not found")
	}
	return job, nil
}

type memoryHistoryRepository struct {
	created []*entity.TaskExecutionHistory
	updated []entity.TaskExecutionHistory
}

func (r *memoryHistoryRepository) Create(_ context.Context, history *entity.TaskExecutionHistory) error {
	history.ID = uint(len(r.created) + 1)
	r.created = append(r.created, history)
	return nil
}

func (r *memoryHistoryRepository) FindByID(_ context.Context, id uint) (*entity.TaskExecutionHistory, error) {
	for _, h := range r.created {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, errors.New("history not found")
}

func (r *memoryHistoryRepository) Update(_ context.Context, history *entity.TaskExecutionHistory) error {
	r.updated = append(r.updated, *history)
	return nil
}

type stubStrategy struct {
	jobType entity.JobType
	output  string
	err     error
}

func (s stubStrategy) GetType() entity.JobType { return s.jobType }

func (s stubStrategy) Execute(context.Context, *entity.Job) (string, error) {
	return s.output, s.err
}

func newTestExecutor(strategies ...strategy.JobExecutionStrategy) (ExecutorService, *memoryHistoryRepository, *recordingNotifier) {
	jobs := &memoryJobRepository{jobs: map[uint]*entity.Job{
		1: {ID: 1, Name: "daily pipeline", Type: entity.JobTypeIndicatorPipeline, Timeout: 60},
		2: {ID: 2, Name: "screening", Type: entity.JobTypeScreeningReport},
	}}
	history := &memoryHistoryRepository{}
	notifier := &recordingNotifier{}
	return NewExecutorService(nil, jobs, history, notifier, logger.NewNop(), strategies), history, notifier
}

func TestExecuteJobRecordsRunCounts(t *testing.T) {
	output := `{"run_id":"abc","as_of":"2024-06-28","updated":10,"skipped":2,"failed":1,"failed_symbols":["600001.SH"]}`
	svc, history, notifier := newTestExecutor(stubStrategy{jobType: entity.JobTypeIndicatorPipeline, output: output})

	h, err := svc.ExecuteJob(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, history.created, 1)
	require.Len(t, history.updated, 1)
	assert.Equal(t, entity.StatusCompleted, h.Status)
	assert.Equal(t, "abc", h.RunID)
	assert.Equal(t, 10, h.Updated)
	assert.Equal(t, 2, h.Skipped)
	assert.Equal(t, 1, h.Failed)
	assert.Equal(t, []string{"600001.SH"}, []string(h.FailedSymbols))
	assert.Equal(t, output, h.Output.String)
	assert.True(t, h.CompletedAt.Valid)
	assert.Empty(t, notifier.messages)
}

func TestExecuteJobFailureAlerts(t *testing.T) {
	svc, history, notifier := newTestExecutor(stubStrategy{
		jobType: entity.JobTypeIndicatorPipeline,
		output:  `{"run_id":"abc","updated":3,"failed":0}`,
		err:     errors.New("persistence failure"),
	})

	h, err := svc.ExecuteJob(context.Background(), 1)
	assert.EqualError(t, err, "persistence failure")
	require.NotNil(t, h)
	assert.Equal(t, entity.StatusFailed, h.Status)
	assert.Equal(t, "persistence failure", h.ErrorMessage.String)
	assert.Equal(t, 3, h.Updated)
	assert.Len(t, history.updated, 1)
	assert.Len(t, notifier.messages, 1)
}

func TestExecuteJobWithoutStrategy(t *testing.T) {
	svc, _, _ := newTestExecutor()

	h, err := svc.ExecuteJob(context.Background(), 2)
	assert.Error(t, err)
	assert.Equal(t, entity.StatusFailed, h.Status)
	assert.Contains(t, h.ErrorMessage.String, "SCREENING_REPORT")
}

func TestExecuteJobUnknownJob(t *testing.T) {
	svc, history, _ := newTestExecutor()

	_, err := svc.ExecuteJob(context.Background(), 99)
	assert.Error(t, err)
	assert.Empty(t, history.created)
}
