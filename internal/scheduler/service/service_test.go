package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/scheduler/config"
	"golang-stock-indicator/internal/scheduler/dto"
	"golang-stock-indicator/internal/scheduler/repository"
	"golang-stock-indicator/internal/screening"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/utils"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeScheduleRepo struct {
	due     []entity.TaskSchedule
	updated []entity.TaskSchedule
}

func (r *fakeScheduleRepo) FindDue(context.Context, time.Time) ([]entity.TaskSchedule, error) {
	return r.due, nil
}

func (r *fakeScheduleRepo) Update(_ context.Context, schedule *entity.TaskSchedule) error {
	r.updated = append(r.updated, *schedule)
	return nil
}

type fakeHistoryRepo struct {
	rows    []*entity.TaskExecutionHistory
	updates int
}

func (r *fakeHistoryRepo) Create(_ context.Context, history *entity.TaskExecutionHistory) error {
	history.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, history)
	return nil
}

func (r *fakeHistoryRepo) FindByID(_ context.Context, id uint) (*entity.TaskExecutionHistory, error) {
	for _, h := range r.rows {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeHistoryRepo) FindRecent(_ context.Context, limit int) ([]entity.TaskExecutionHistory, error) {
	var out []entity.TaskExecutionHistory
	for i := len(r.rows) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, *r.rows[i])
	}
	return out, nil
}

func (r *fakeHistoryRepo) FindAllByJobID(_ context.Context, jobID uint) ([]entity.TaskExecutionHistory, error) {
	var out []entity.TaskExecutionHistory
	for _, h := range r.rows {
		if h.JobID == jobID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) Update(context.Context, *entity.TaskExecutionHistory) error {
	r.updates++
	return nil
}

type fakePublisher struct {
	published []entity.TaskExecutionHistory
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, history *entity.TaskExecutionHistory) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, *history)
	return nil
}

type fakeJobRepo struct {
	jobs []entity.Job
}

func (r *fakeJobRepo) Create(_ context.Context, job *entity.Job) error {
	job.ID = uint(len(r.jobs) + 1)
	r.jobs = append(r.jobs, *job)
	return nil
}

func (r *fakeJobRepo) FindByID(_ context.Context, id uint) (*entity.Job, error) {
	for i := range r.jobs {
		if r.jobs[i].ID == id {
			return &r.jobs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeJobRepo) FindAll(context.Context) ([]entity.Job, error) {
	return r.jobs, nil
}

func TestProcessJobsPublishesDueSchedules(t *testing.T) {
	now := time.Date(2024, 6, 28, 16, 0, 0, 0, time.UTC)
	schedules := &fakeScheduleRepo{due: []entity.TaskSchedule{
		{ID: 1, JobID: 10, CronExpression: "0 16 * * 1-5", IsActive: true, NextExecution: sql.NullTime{Time: now, Valid: true}},
		{ID: 2, JobID: 11, CronExpression: "30 16 * * 1-5", IsActive: true},
	}}
	history := &fakeHistoryRepo{}
	publisher := &fakePublisher{}
	svc := NewSchedulerService(schedules, history, publisher, logger.NewNop(), time.Minute).(*schedulerService)
	svc.now = func() time.Time { return now }

	svc.ProcessJobs(context.Background())

	// Only the armed schedule fires; the new one is armed for its next slot.
	require.Len(t, publisher.published, 1)
	assert.Equal(t, uint(10), publisher.published[0].JobID)
	require.NotNil(t, publisher.published[0].ScheduleID)
	assert.Equal(t, uint(1), *publisher.published[0].ScheduleID)
	assert.Equal(t, entity.StatusRunning, publisher.published[0].Status)

	require.Len(t, schedules.updated, 2)
	assert.Equal(t, time.Date(2024, 7, 1, 16, 0, 0, 0, time.UTC), schedules.updated[0].NextExecution.Time)
	assert.True(t, schedules.updated[0].LastExecution.Valid)
	assert.Equal(t, time.Date(2024, 6, 28, 16, 30, 0, 0, time.UTC), schedules.updated[1].NextExecution.Time)
	assert.False(t, schedules.updated[1].LastExecution.Valid)
}

func TestProcessJobsDeactivatesInvalidCron(t *testing.T) {
	schedules := &fakeScheduleRepo{due: []entity.TaskSchedule{{ID: 3, JobID: 10, CronExpression: "every day", IsActive: true}}}
	publisher := &fakePublisher{}
	svc := NewSchedulerService(schedules, &fakeHistoryRepo{}, publisher, logger.NewNop(), time.Minute)

	svc.ProcessJobs(context.Background())

	assert.Empty(t, publisher.published)
	require.Len(t, schedules.updated, 1)
	assert.False(t, schedules.updated[0].IsActive)
}

func TestProcessJobsKeepsScheduleDueWhenPublishFails(t *testing.T) {
	now := time.Date(2024, 6, 28, 16, 0, 0, 0, time.UTC)
	schedules := &fakeScheduleRepo{due: []entity.TaskSchedule{
		{ID: 1, JobID: 10, CronExpression: "0 16 * * 1-5", IsActive: true, NextExecution: sql.NullTime{Time: now, Valid: true}},
	}}
	history := &fakeHistoryRepo{}
	svc := NewSchedulerService(schedules, history, &fakePublisher{err: errors.New("redis down")}, logger.NewNop(), time.Minute).(*schedulerService)
	svc.now = func() time.Time { return now }

	svc.ProcessJobs(context.Background())

	require.Len(t, history.rows, 1)
	assert.Equal(t, entity.StatusFailed, history.rows[0].Status)
	assert.Equal(t, "redis down", history.rows[0].ErrorMessage.String)
	assert.Equal(t, 1, history.updates)
	assert.Empty(t, schedules.updated)
}

func TestCreateJobValidates(t *testing.T) {
	svc := NewJobService(&fakeJobRepo{}, &fakeHistoryRepo{}, &fakePublisher{}, logger.NewNop())

	tests := []struct {
		name string
		req  dto.CreateJobRequest
	}{
		{"missing name", dto.CreateJobRequest{Type: "INDICATOR_PIPELINE"}},
		{"unknown type", dto.CreateJobRequest{Name: "x", Type: "HTTP_REQUEST"}},
		{"bad payload", dto.CreateJobRequest{Name: "x", Type: "MARKET_STATS", Payload: json.RawMessage(`{`)}},
		{"bad cron", dto.CreateJobRequest{Name: "x", Type: "MARKET_STATS", Schedules: []dto.ScheduleDTO{{CronExpression: "61 * * * *"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateJob(context.Background(), &tt.req)
			assert.ErrorIs(t, err, ErrInvalidJob)
		})
	}
}

func TestCreateAndTriggerJob(t *testing.T) {
	jobs := &fakeJobRepo{}
	history := &fakeHistoryRepo{}
	publisher := &fakePublisher{}
	svc := NewJobService(jobs, history, publisher, logger.NewNop())

	created, err := svc.CreateJob(context.Background(), &dto.CreateJobRequest{
		Name:      "daily pipeline",
		Type:      "INDICATOR_PIPELINE",
		Payload:   json.RawMessage(`{"force_full":false}`),
		Timeout:   7200,
		Schedules: []dto.ScheduleDTO{{CronExpression: "0 16 * * 1-5", IsActive: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), created.ID)
	require.Len(t, created.Schedules, 1)

	resp, err := svc.TriggerJob(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, &dto.TriggerResponse{HistoryID: 1, JobID: 1, Status: "RUNNING"}, resp)
	require.Len(t, publisher.published, 1)
	assert.Nil(t, publisher.published[0].ScheduleID)

	_, err = svc.TriggerJob(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExecutionHistoryMapping(t *testing.T) {
	started := time.Date(2024, 6, 28, 16, 0, 0, 0, time.UTC)
	history := &fakeHistoryRepo{}
	require.NoError(t, history.Create(context.Background(), &entity.TaskExecutionHistory{
		JobID:         1,
		RunID:         "run-1",
		Status:        entity.StatusCompleted,
		StartedAt:     started,
		CompletedAt:   sql.NullTime{Time: started.Add(90 * time.Second), Valid: true},
		Updated:       4000,
		Skipped:       900,
		Failed:        2,
		FailedSymbols: pq.StringArray{"600001.SH", "688981.SH"},
	}))
	require.NoError(t, history.Create(context.Background(), &entity.TaskExecutionHistory{JobID: 2, Status: entity.StatusRunning, StartedAt: started}))
	svc := NewExecutionHistoryService(history, logger.NewNop())

	got, err := svc.GetExecutionHistoryByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, int64(90000), got.Duration)
	assert.Equal(t, []string{"600001.SH", "688981.SH"}, got.FailedSymbols)

	running, err := svc.GetExecutionHistoryByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, running.CompletedAt)
	assert.Equal(t, []string{}, running.FailedSymbols)

	recent, err := svc.GetRecentExecutionHistories(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, uint(2), recent[0].ID)

	_, err = svc.GetExecutionHistoryByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeMarketRepo struct {
	latest      []entity.IndicatorRow
	stocks      []entity.Stock
	stats       map[string]entity.MarketDailyStat
	latestCalls int
}

func (r *fakeMarketRepo) FindLatestIndicators(context.Context) ([]entity.IndicatorRow, error) {
	r.latestCalls++
	return r.latest, nil
}

func (r *fakeMarketRepo) FindIndicators(_ context.Context, symbol string, start, end time.Time) ([]entity.IndicatorRow, error) {
	var out []entity.IndicatorRow
	for _, row := range r.latest {
		if row.Symbol == symbol && !row.Date.Before(start) && !row.Date.After(end) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeMarketRepo) FindMarketStat(_ context.Context, date time.Time) (*entity.MarketDailyStat, error) {
	stat, ok := r.stats[utils.FormatDate(date)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &stat, nil
}

func (r *fakeMarketRepo) FindActiveStocks(context.Context) ([]entity.Stock, error) {
	return r.stocks, nil
}

func marketConfig() *config.Config {
	return &config.Config{
		Scheduler: config.Scheduler{CacheTTL: time.Minute, CacheCleanupInterval: time.Minute},
		Market: config.Market{
			BenchmarkSymbol: "000300.SH",
			Indexes:         []string{"000300.SH"},
			Screening:       screening.DefaultThresholds(),
		},
	}
}

func marketFixture() *fakeMarketRepo {
	day := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	return &fakeMarketRepo{
		latest: []entity.IndicatorRow{
			{Symbol: "600000.SH", Date: day, Close: 12, IndicatorValues: entity.IndicatorValues{RSRating: utils.ToPointer(80.0)}},
			{Symbol: "600001.SH", Date: day, Close: 30, IndicatorValues: entity.IndicatorValues{RSRating: utils.ToPointer(95.0)}},
			{Symbol: "600002.SH", Date: day.AddDate(0, 0, -7), Close: 5},
			{Symbol: "000300.SH", Date: day, Close: 3500, IndicatorValues: entity.IndicatorValues{RSRating: utils.ToPointer(100.0)}},
		},
		stocks: []entity.Stock{
			{Symbol: "600000.SH", Name: "浦发银行", IsActive: true},
			{Symbol: "600001.SH", Name: "邯郸钢铁", IsActive: true},
		},
		stats: map[string]entity.MarketDailyStat{"2024-06-28": {Date: day, Total: 3}},
	}
}

func TestMarketSnapshotIsCached(t *testing.T) {
	repo := marketFixture()
	svc := NewMarketService(marketConfig(), repo, logger.NewNop())

	snap, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-06-28", snap.AsOf)
	assert.Equal(t, 4, snap.Count)
	assert.Equal(t, "000300.SH", snap.Rows[0].Symbol)
	assert.True(t, snap.Rows[0].IsIndex)
	assert.Equal(t, "邯郸钢铁", snap.Rows[1].Name)

	for _, r := range snap.Rows {
		assert.Equal(t, r.Symbol == "600002.SH", r.Stale, r.Symbol)
	}

	_, err = svc.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.latestCalls)
}

func TestMarketScreeningSkipsStaleAndIndexes(t *testing.T) {
	svc := NewMarketService(marketConfig(), marketFixture(), logger.NewNop())

	resp, err := svc.GetScreening(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-06-28", resp.Date)
	assert.Equal(t, 2, resp.Screened)
	assert.Len(t, resp.Conditions, screening.ConditionCount)
	for _, r := range resp.Results {
		assert.Contains(t, []string{"600000.SH", "600001.SH"}, r.Symbol)
	}
}

func TestMarketIndicatorsValidation(t *testing.T) {
	svc := NewMarketService(marketConfig(), marketFixture(), logger.NewNop())
	day := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	_, err := svc.GetIndicators(context.Background(), "PF", time.Time{}, day)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.GetIndicators(context.Background(), "600000.SH", day, day.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	resp, err := svc.GetIndicators(context.Background(), "600000.SH", time.Time{}, day)
	require.NoError(t, err)
	assert.Equal(t, "2023-06-28", resp.Start)
	assert.Len(t, resp.Rows, 1)
}

func TestMarketStat(t *testing.T) {
	svc := NewMarketService(marketConfig(), marketFixture(), logger.NewNop())

	stat, err := svc.GetMarketStat(context.Background(), time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, stat.Total)

	_, err = svc.GetMarketStat(context.Background(), time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNotFound)
}
