package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gradebench/gradebench/internal/core"
	"github.com/gradebench/gradebench/internal/domain/model"
	"github.com/gradebench/gradebench/internal/observability/statsd"
)

const (
	defaultTelemetryTimeout = 3 * time.Second
	telemetryErrBuffer      = 64
)

// TelemetryServiceOptions groups dependencies for TelemetryService.
type TelemetryServiceOptions struct {
	Store      core.TelemetryStore // Required: durable best-effort store
	SampleRate float64             // Request trace sampling rate in [0,1]
	Timeout    time.Duration       // Optional: per-write timeout
	Metrics    statsd.Sink         // Optional: StatsD sink for job counters
	Logger     *slog.Logger        // Optional: structured logger
	// randFn overrides the sampling draw in tests.
	randFn func() float64
}

// TelemetryService is the fire-and-forget sink for request traces, audit
// entries and job-state events. Record calls never block the caller and never
// return an error: each write runs on its own goroutine with its own timeout,
// detached from the caller's cancellation, and failures are pushed onto a
// bounded channel drained by a single logging goroutine. When the channel is
// full the failure is dropped outright; telemetry loss must never turn into
// caller-visible backpressure.
type TelemetryService struct {
	store      core.TelemetryStore
	sampleRate float64
	timeout    time.Duration
	metrics    statsd.Sink
	logger     *slog.Logger
	randFn     func() float64

	errs    chan error
	drainWG sync.WaitGroup
	writeWG sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewTelemetryService constructs a new TelemetryService and starts its
// error-drain goroutine.
func NewTelemetryService(opts TelemetryServiceOptions) (*TelemetryService, error) {
	if opts.Store == nil {
		return nil, errors.New("TelemetryStore is required")
	}
	if opts.SampleRate < 0 || opts.SampleRate > 1 {
		return nil, fmt.Errorf("sample rate must be in [0,1], got %v", opts.SampleRate)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTelemetryTimeout
	}

	randFn := opts.randFn
	if randFn == nil {
		randFn = rand.Float64
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "telemetry_service")
	}

	s := &TelemetryService{
		store:      opts.Store,
		sampleRate: opts.SampleRate,
		timeout:    timeout,
		metrics:    opts.Metrics,
		logger:     logger,
		randFn:     randFn,
		errs:       make(chan error, telemetryErrBuffer),
	}

	s.drainWG.Add(1)
	go s.drainErrors()

	return s, nil
}

// MustNewTelemetryService constructs a new TelemetryService and panics on error.
func MustNewTelemetryService(opts TelemetryServiceOptions) *TelemetryService {
	svc, err := NewTelemetryService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast during startup
		panic(fmt.Sprintf("failed to create TelemetryService: %v", err))
	}
	return svc
}

// RecordRequest records a request trace, subject to sampling. Rate >= 1
// always records, rate <= 0 never records, otherwise a per-call independent
// draw decides.
func (s *TelemetryService) RecordRequest(ctx context.Context, trace model.RequestTrace) {
	if s.sampleRate <= 0 {
		return
	}
	if s.sampleRate < 1 && s.randFn() >= s.sampleRate {
		return
	}
	if trace.OccurredAt.IsZero() {
		trace.OccurredAt = time.Now().UTC()
	}
	s.dispatch(ctx, "request_trace", func(ctx context.Context) error {
		return s.store.InsertRequestTrace(ctx, &trace)
	})
}

// RecordAudit records an audit entry. Audit is never sampled.
func (s *TelemetryService) RecordAudit(ctx context.Context, entry model.AuditEntry) {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	s.dispatch(ctx, "audit_entry", func(ctx context.Context) error {
		return s.store.InsertAuditEntry(ctx, &entry)
	})
}

// RecordJobEvent records a job state transition and bumps the matching counter.
func (s *TelemetryService) RecordJobEvent(ctx context.Context, event model.JobEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.Attempt <= 0 {
		event.Attempt = 1
	}
	if s.metrics != nil {
		s.metrics.Count("job.transition", 1, map[string]string{
			"job_type": event.JobType,
			"state":    string(event.State),
		})
		if event.DurationMS != nil {
			s.metrics.Timing("job.duration",
				time.Duration(*event.DurationMS)*time.Millisecond,
				map[string]string{"job_type": event.JobType, "state": string(event.State)})
		}
	}
	s.dispatch(ctx, "job_event", func(ctx context.Context) error {
		return s.store.InsertJobEvent(ctx, &event)
	})
}

// dispatch runs a store write on its own goroutine, detached from the
// caller's cancellation so an aborted request cannot cancel its own trace.
func (s *TelemetryService) dispatch(ctx context.Context, kind string, write func(context.Context) error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.writeWG.Add(1)
	s.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer s.writeWG.Done()

		writeCtx, cancel := context.WithTimeout(detached, s.timeout)
		defer cancel()

		if err := write(writeCtx); err != nil {
			select {
			case s.errs <- fmt.Errorf("%s: %w", kind, err):
			default:
				// Channel full: drop. Counting the drop is all we owe.
				if s.metrics != nil {
					s.metrics.Count("telemetry.dropped", 1, map[string]string{"kind": kind})
				}
			}
		}
	}()
}

func (s *TelemetryService) drainErrors() {
	defer s.drainWG.Done()
	for err := range s.errs {
		if s.logger != nil {
			s.logger.Warn("telemetry write failed", "error", err)
		}
		if s.metrics != nil {
			s.metrics.Count("telemetry.write_error", 1, nil)
		}
	}
}

// Close waits for in-flight writes to settle, then stops the drain goroutine.
// New records after Close are silently discarded.
func (s *TelemetryService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.writeWG.Wait()
	close(s.errs)
	s.drainWG.Wait()
}
