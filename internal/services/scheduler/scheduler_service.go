package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/common"
	"github.com/ternarybob/murmur/internal/interfaces"
)

// jobEntry represents a registered job with metadata
type jobEntry struct {
	name        string
	schedule    string
	description string
	handler     func() error
	autoStart   bool
	cronID      cron.EntryID
	lastRun     *time.Time
	isRunning   bool
	lastError   string
	runs        int
	skipped     int
}

// Service runs registered jobs on cron schedules. At most one job
// executes at a time; a tick that arrives while a job is running is
// skipped and logged.
type Service struct {
	cron     *cron.Cron
	logger   arbor.ILogger
	jobMu    sync.Mutex // Protects jobs map and entries
	globalMu sync.Mutex // Held while a job executes
	jobs     map[string]*jobEntry
	running  bool
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a new scheduler service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// RegisterJob adds a job. autoStart runs it once as soon as Start is called.
func (s *Service) RegisterJob(name string, schedule string, description string, autoStart bool, handler func() error) error {
	if err := common.ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule for job %s: %w", name, err)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:        name,
		schedule:    schedule,
		description: description,
		handler:     handler,
		autoStart:   autoStart,
	}

	cronID, err := s.cron.AddFunc(schedule, func() { s.executeJob(name) })
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", name, err)
	}
	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Bool("auto_start", autoStart).
		Msg("Job registered")

	return nil
}

// Start begins the scheduler
func (s *Service) Start() error {
	s.jobMu.Lock()
	if s.running {
		s.jobMu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	jobCount := len(s.jobs)

	var autoStart []string
	for name, entry := range s.jobs {
		if entry.autoStart {
			autoStart = append(autoStart, name)
		}
	}
	s.jobMu.Unlock()

	s.cron.Start()
	s.logger.Info().Int("jobs", jobCount).Msg("Scheduler started")

	sort.Strings(autoStart)
	for _, name := range autoStart {
		name := name
		common.SafeGo(s.logger, "autostart:"+name, func() { s.executeJob(name) })
	}

	return nil
}

// Stop halts the scheduler and waits for a running job to finish, or for
// ctx to end
func (s *Service) Stop(ctx context.Context) error {
	s.jobMu.Lock()
	if !s.running {
		s.jobMu.Unlock()
		return nil
	}
	s.running = false
	s.jobMu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info().Msg("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Scheduler stop timed out waiting for running job")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler has been started
func (s *Service) IsRunning() bool {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return s.running
}

// TriggerJob runs a job immediately in the background
func (s *Service) TriggerJob(name string) error {
	s.jobMu.Lock()
	_, exists := s.jobs[name]
	s.jobMu.Unlock()
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	common.SafeGo(s.logger, "trigger:"+name, func() { s.executeJob(name) })
	return nil
}

// GetJobStatus returns the status of a job
func (s *Service) GetJobStatus(name string) (*interfaces.JobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}

	status := &interfaces.JobStatus{
		Name:        entry.name,
		Schedule:    entry.schedule,
		Description: entry.description,
		IsRunning:   entry.isRunning,
		LastRun:     entry.lastRun,
		LastError:   entry.lastError,
		Runs:        entry.runs,
		Skipped:     entry.skipped,
	}
	if next := s.cron.Entry(entry.cronID).Next; !next.IsZero() {
		status.NextRun = &next
	}
	return status, nil
}

// executeJob runs a job handler unless another job is executing
func (s *Service) executeJob(name string) {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	s.jobMu.Unlock()
	if !exists {
		s.logger.Warn().Str("job_name", name).Msg("Job not found")
		return
	}

	if !s.globalMu.TryLock() {
		s.jobMu.Lock()
		entry.skipped++
		s.jobMu.Unlock()
		s.logger.Warn().
			Str("job_name", name).
			Msg("Previous run still in progress, skipping tick")
		return
	}
	defer s.globalMu.Unlock()

	s.jobMu.Lock()
	entry.isRunning = true
	handler := entry.handler
	s.jobMu.Unlock()

	start := time.Now()
	s.logger.Info().Str("job_name", name).Msg("Job execution started")

	err := s.runHandler(name, handler)

	completionTime := time.Now()
	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completionTime
	entry.runs++
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("job_name", name).
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Job execution failed")
		return
	}
	s.logger.Info().
		Str("job_name", name).
		Dur("duration", time.Since(start)).
		Msg("Job execution completed")
}

// runHandler converts a handler panic into an error
func (s *Service) runHandler(name string, handler func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Panic recovered in job execution")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler()
}
