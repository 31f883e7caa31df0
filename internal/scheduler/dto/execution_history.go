package dto

import (
	"time"
)

// ExecutionHistoryResponse is one job execution together with its run summary.
type ExecutionHistoryResponse struct {
	ID            uint       `json:"id"`
	JobID         uint       `json:"job_id"`
	ScheduleID    *uint      `json:"schedule_id,omitempty"`
	RunID         string     `json:"run_id,omitempty"`
	Status        string     `json:"status"`
	ExecutedAt    time.Time  `json:"executed_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Duration      int64      `json:"duration_ms"`
	Updated       int        `json:"updated"`
	Skipped       int        `json:"skipped"`
	Failed        int        `json:"failed"`
	FailedSymbols []string   `json:"failed_symbols"`
	Output        string     `json:"output,omitempty"`
	Error         string     `json:"error,omitempty"`
}
