package dto

import (
	"database/sql"
	"encoding/json"
	"time"
)

// ScheduleDTO represents a task schedule in API requests.
type ScheduleDTO struct {
	CronExpression string `json:"cron_expression"`
	IsActive       bool   `json:"is_active"`
}

// CreateJobRequest is the DTO for creating a new job.
type CreateJobRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload" swaggertype:"object"`
	Timeout     int             `json:"timeout"` // in seconds
	Schedules   []ScheduleDTO   `json:"schedules"`
}

// ScheduleResponseDTO represents a task schedule in API responses.
type ScheduleResponseDTO struct {
	ID             uint         `json:"id"`
	CronExpression string       `json:"cron_expression"`
	IsActive       bool         `json:"is_active"`
	NextExecution  sql.NullTime `json:"next_execution" swaggertype:"string" format:"date-time"`
	LastExecution  sql.NullTime `json:"last_execution" swaggertype:"string" format:"date-time"`
}

// JobResponse is the DTO for API responses containing job details.
type JobResponse struct {
	ID          uint                  `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Type        string                `json:"type"`
	Payload     json.RawMessage       `json:"payload" swaggertype:"object"`
	Timeout     int                   `json:"timeout"`
	Schedules   []ScheduleResponseDTO `json:"schedules"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TriggerResponse acknowledges a manually queued execution.
type TriggerResponse struct {
	HistoryID uint   `json:"history_id"`
	JobID     uint   `json:"job_id"`
	Status    string `json:"status"`
}
