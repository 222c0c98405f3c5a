package interfaces

import (
	"context"
	"time"
)

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	IsRunning   bool       `json:"is_running"`
	LastError   string     `json:"last_error,omitempty"`
	Runs        int        `json:"runs"`
	Skipped     int        `json:"skipped"` // ticks dropped while a run was active
}

// SchedulerService manages cron-based scheduling
type SchedulerService interface {
	// RegisterJob registers a new job with the scheduler
	RegisterJob(name string, schedule string, description string, autoStart bool, handler func() error) error

	// Start the scheduler
	Start() error

	// Stop the scheduler, waiting for a running job until ctx ends
	Stop(ctx context.Context) error

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// TriggerJob runs a job now
	TriggerJob(name string) error

	// GetJobStatus returns the status of a specific job
	GetJobStatus(name string) (*JobStatus, error)
}
