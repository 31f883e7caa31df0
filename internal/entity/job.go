package entity

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// JobType identifies which executor strategy runs a job.
type JobType string

const (
	JobTypeIndicatorPipeline JobType = "INDICATOR_PIPELINE"
	JobTypeScreeningReport   JobType = "SCREENING_REPORT"
	JobTypeMarketStats       JobType = "MARKET_STATS"
)

// JobStatus is the lifecycle state of one execution.
type JobStatus string

const (
	StatusRunning   JobStatus = "RUNNING"
	StatusCompleted JobStatus = "COMPLETED"
	StatusFailed    JobStatus = "FAILED"
)

// Job is a named, parameterised unit of work the scheduler can trigger.
type Job struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Type        JobType        `gorm:"not null" json:"type"`
	Payload     datatypes.JSON `json:"payload"`
	Timeout     int            `json:"timeout"` // seconds
	Schedules   []TaskSchedule `gorm:"foreignKey:JobID" json:"schedules"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// TaskSchedule attaches a cron expression to a job.
type TaskSchedule struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	JobID          uint         `gorm:"not null;index" json:"job_id"`
	CronExpression string       `gorm:"not null" json:"cron_expression"`
	IsActive       bool         `json:"is_active"`
	NextExecution  sql.NullTime `json:"next_execution"`
	LastExecution  sql.NullTime `json:"last_execution"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TaskSchedule) TableName() string {
	return "task_schedules"
}

// TaskExecutionHistory records one execution of a job together with its run summary.
type TaskExecutionHistory struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	JobID         uint           `gorm:"not null;index" json:"job_id"`
	ScheduleID    *uint          `json:"schedule_id"`
	RunID         string         `gorm:"column:run_id" json:"run_id"`
	Status        JobStatus      `gorm:"not null" json:"status"`
	StartedAt     time.Time      `gorm:"column:executed_at" json:"started_at"`
	CompletedAt   sql.NullTime   `json:"completed_at"`
	Updated       int            `json:"updated"`
	Skipped       int            `json:"skipped"`
	Failed        int            `json:"failed"`
	FailedSymbols pq.StringArray `gorm:"type:text[]" json:"failed_symbols"`
	Output        sql.NullString `json:"output"`
	ErrorMessage  sql.NullString `json:"error_message"`
}

func (TaskExecutionHistory) TableName() string {
	return "task_execution_histories"
}
