// Package insights provides the periodic insight refresh sweep.
package insights

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gatherly/pulse/internal/analytics"
	"github.com/gatherly/pulse/internal/tracing"
)

// JobMetrics provides centralized background job metrics tracking.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// jobTypeSweep is the label used for sweep cycles in job metrics.
const jobTypeSweep = "insight_sweep"

// Default sweep cadence and per-cycle deadline.
const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultSweepTimeout  = time.Minute
)

// SweepConfig configures the insight refresh sweep.
type SweepConfig struct {
	// Interval is the duration between sweep cycles.
	Interval time.Duration
	// Timeout bounds each sweep cycle.
	Timeout time.Duration
	// Logger for sweep activity.
	Logger *slog.Logger
	// JobMetrics for centralized background job tracking. Optional.
	JobMetrics JobMetrics
}

// SweepJob periodically regenerates insights for events whose analytics
// changed since the previous cycle. It backstops the change-feed path: a
// missed analytics-updated delivery only leaves insights stale until the
// next sweep.
type SweepJob struct {
	config    SweepConfig
	analytics analytics.Repository
	generator *Generator

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	lastSweep time.Time
}

// NewSweepJob creates a new insight refresh sweep.
func NewSweepJob(config SweepConfig, analyticsRepo analytics.Repository, generator *Generator) *SweepJob {
	if config.Interval == 0 {
		config.Interval = DefaultSweepInterval
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultSweepTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &SweepJob{
		config:    config,
		analytics: analyticsRepo,
		generator: generator,
		lastSweep: time.Now(),
	}
}

// Start begins the periodic sweep. Returns immediately; the job runs in a
// background goroutine.
func (j *SweepJob) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
}

// Stop signals the sweep to stop and waits for it to finish.
func (j *SweepJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning reports whether the sweep is currently running.
func (j *SweepJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *SweepJob) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("insight sweep stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("insight sweep stopping due to stop signal")
			return
		case <-ticker.C:
			j.RunCycle(ctx)
		}
	}
}

// RunCycle executes one sweep pass: every analytics document updated since
// the previous cycle and at or above the generation floor gets its insights
// regenerated. Per-event failures are logged and do not abort the cycle.
func (j *SweepJob) RunCycle(parentCtx context.Context) {
	j.mu.Lock()
	since := j.lastSweep
	cycleStart := time.Now()
	j.lastSweep = cycleStart
	j.mu.Unlock()

	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	var cycleErr error
	ctx, endSpan := tracing.StartSpan(ctx, "insight_sweep.cycle")
	defer func() { endSpan(cycleErr) }()

	docs, err := j.analytics.ListUpdatedSince(ctx, since)
	if err != nil {
		cycleErr = err
		j.config.Logger.Error("sweep failed to list updated analytics", "error", err)
		if j.config.JobMetrics != nil {
			j.config.JobMetrics.IncJobErrors(jobTypeSweep, "list_error")
			j.config.JobMetrics.IncJobsTotal(jobTypeSweep, "failure")
		}
		return
	}

	refreshed := 0
	failed := 0
	for _, doc := range docs {
		if doc.TotalAttendees < MinAttendeesForGeneration {
			continue
		}
		select {
		case <-ctx.Done():
			j.config.Logger.Error("insight sweep timeout exceeded",
				"refreshed", refreshed, "pending", len(docs)-refreshed)
			if j.config.JobMetrics != nil {
				j.config.JobMetrics.IncJobErrors(jobTypeSweep, "timeout")
				j.config.JobMetrics.IncJobsTotal(jobTypeSweep, "failure")
				j.config.JobMetrics.ObserveJobDuration(jobTypeSweep, time.Since(cycleStart).Seconds())
			}
			return
		default:
		}

		if _, err := j.generator.Generate(ctx, doc.EventID); err != nil {
			j.config.Logger.Error("sweep regeneration failed", "event_id", doc.EventID, "error", err)
			failed++
			if j.config.JobMetrics != nil {
				j.config.JobMetrics.IncJobErrors(jobTypeSweep, "generate_error")
			}
			continue
		}
		refreshed++
	}

	duration := time.Since(cycleStart).Seconds()
	if j.config.JobMetrics != nil {
		status := "success"
		if failed > 0 {
			status = "failure"
		}
		j.config.JobMetrics.IncJobsTotal(jobTypeSweep, status)
		j.config.JobMetrics.ObserveJobDuration(jobTypeSweep, duration)
	}
	if refreshed > 0 || failed > 0 {
		j.config.Logger.Info("insight sweep completed",
			"refreshed", refreshed, "failed", failed, "candidates", len(docs))
	}
}
