package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/metrics"
	"github.com/angelmondragon/costumerental-backend/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultInterval = 15 * time.Minute

// ServiceParams configure the cron service. JobTimeout bounds each job and
// defaults to the interval; keep it under the lock TTL so a slow job cannot
// overlap a cycle started by another replica.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Cycle summarizes one pass over the registry.
type Cycle struct {
	Skipped bool
	Ran     []string
	Failed  []string
}

type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	s := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = s.interval
	}
	return s, nil
}

// Run starts with an immediate cycle, then one per interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"interval":    s.interval.String(),
		"job_timeout": s.jobTimeout.String(),
		"jobs":        s.registry.Names(),
	})
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce takes the lock and runs every job. Job failures are logged, counted
// and listed in the Cycle; only a lock failure is returned as an error.
func (s *Service) RunOnce(ctx context.Context) (Cycle, error) {
	return s.cycle(ctx, s.registry.Jobs())
}

// RunJob runs a single registered job under the same lock, for operators
// re-running a sweep by hand.
func (s *Service) RunJob(ctx context.Context, name string) (Cycle, error) {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return Cycle{}, fmt.Errorf("unknown job %q (registered: %v)", name, s.registry.Names())
	}
	return s.cycle(ctx, []Job{job})
}

func (s *Service) cycle(ctx context.Context, jobs []Job) (Cycle, error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return Cycle{}, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "cron lock held elsewhere; skipping cycle")
		return Cycle{Skipped: true}, nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}()

	var cycle Cycle
	for _, job := range jobs {
		cycle.Ran = append(cycle.Ran, job.Name())
		if err := s.runJob(ctx, job); err != nil {
			cycle.Failed = append(cycle.Failed, job.Name())
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"ran":    len(cycle.Ran),
		"failed": cycle.Failed,
	}), "cron cycle complete")
	return cycle, nil
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	ctx = s.logg.WithField(ctx, "job", name)
	ctx, span := tracing.AddSpan(ctx, "cron."+name, attribute.String("job", name))
	defer span.End()

	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)
	s.metrics.ObserveDuration(name, elapsed)

	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "job failed")
		s.metrics.IncFailure(name)
		s.logg.Error(ctx, "job failed", err)
		return err
	}
	s.metrics.IncSuccess(name)
	s.logg.Info(ctx, "job completed")
	return nil
}
