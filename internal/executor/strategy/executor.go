package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/internal/screening"
)

// JobExecutionStrategy defines the interface for different job execution strategies.
type JobExecutionStrategy interface {
	Execute(ctx context.Context, job *entity.Job) (string, error)
	GetType() entity.JobType
}

// PipelineRunner runs indicator pipeline batches.
type PipelineRunner interface {
	Run(ctx context.Context, req dto.RunRequest) (*dto.RunSummary, error)
}

// Screener screens the latest snapshot.
type Screener interface {
	Screen(ctx context.Context, req dto.ScreeningRequest) (*dto.ScreeningSummary, []screening.Result, error)
}

// MarketStatsComputer computes the market breadth summary for a date.
type MarketStatsComputer interface {
	Compute(ctx context.Context, date time.Time) (*entity.MarketDailyStat, error)
}

// decodePayload unmarshals the job payload into v. An empty payload leaves v unchanged.
func decodePayload(job *entity.Job, v interface{}) error {
	if len(job.Payload) == 0 || string(job.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(job.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal job payload: %w", err)
	}
	return nil
}

func encodeOutput(v interface{}) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(out), nil
}
