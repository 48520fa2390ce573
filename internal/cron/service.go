// Package cron runs the terminal's in-process housekeeping jobs.
package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/kasirpos/kasir-terminal/pkg/logger"
	"github.com/kasirpos/kasir-terminal/pkg/metrics"
)

const defaultInterval = 5 * time.Minute

// Job is one housekeeping task run on every tick.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type jobRecorder interface {
	ObserveJob(job, outcome string, duration time.Duration)
}

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     []Job
	Metrics  jobRecorder
	Interval time.Duration
}

// Service executes its jobs on a fixed cadence until its context ends.
type Service struct {
	logg     *logger.Logger
	jobs     []Job
	metrics  jobRecorder
	interval time.Duration
	now      func() time.Time
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	jobs := make([]Job, 0, len(params.Jobs))
	for _, job := range params.Jobs {
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("at least one job required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	recorder := params.Metrics
	if recorder == nil {
		recorder = (*metrics.POSMetrics)(nil)
	}
	return &Service{
		logg:     params.Logger,
		jobs:     jobs,
		metrics:  recorder,
		interval: interval,
		now:      time.Now,
	}, nil
}

// Run ticks until ctx is canceled. Job failures are logged and counted; they
// never stop the loop.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Debug(ctx, "cron service stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	for _, job := range s.jobs {
		s.runJob(ctx, job)
	}
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	start := s.now()
	err := job.Run(jobCtx)
	duration := s.now().Sub(start)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.ObserveJob(job.Name(), metrics.OutcomeFailure, duration)
		return
	}
	s.logg.Debug(jobCtx, "job completed")
	s.metrics.ObserveJob(job.Name(), metrics.OutcomeSuccess, duration)
}
