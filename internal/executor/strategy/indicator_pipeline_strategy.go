package strategy

import (
	"context"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/pkg/logger"
)

// IndicatorPipelineStrategy runs the fetch, compute, rank and snapshot batch.
type IndicatorPipelineStrategy struct {
	logger   *logger.Logger
	pipeline PipelineRunner
}

func NewIndicatorPipelineStrategy(log *logger.Logger, pipeline PipelineRunner) JobExecutionStrategy {
	return &IndicatorPipelineStrategy{logger: log, pipeline: pipeline}
}

// GetType returns the job type this strategy handles.
func (s *IndicatorPipelineStrategy) GetType() entity.JobType {
	return entity.JobTypeIndicatorPipeline
}

// Execute runs one pipeline batch. The payload is a dto.RunRequest. A partial summary is
// returned alongside a fatal error so the execution history still records the counts.
func (s *IndicatorPipelineStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	var req dto.RunRequest
	if err := decodePayload(job, &req); err != nil {
		return "", err
	}

	summary, runErr := s.pipeline.Run(ctx, req)
	if summary == nil {
		return "", runErr
	}
	output, err := encodeOutput(summary)
	if err != nil {
		return "", err
	}
	return output, runErr
}
