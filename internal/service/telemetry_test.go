package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradebench/gradebench/internal/domain/model"
)

// memTelemetryStore counts writes and optionally fails or blocks them.
type memTelemetryStore struct {
	mu       sync.Mutex
	requests []model.RequestTrace
	audits   []model.AuditEntry
	events   []model.JobEvent
	err      error
}

func (s *memTelemetryStore) InsertRequestTrace(_ context.Context, trace *model.RequestTrace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.requests = append(s.requests, *trace)
	return nil
}

func (s *memTelemetryStore) InsertAuditEntry(_ context.Context, entry *model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.audits = append(s.audits, *entry)
	return nil
}

func (s *memTelemetryStore) InsertJobEvent(_ context.Context, event *model.JobEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *memTelemetryStore) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *memTelemetryStore) auditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audits)
}

func trace() model.RequestTrace {
	return model.RequestTrace{
		RequestID:  "req-1",
		Method:     "GET",
		Path:       "/api/evaluations/job-1",
		StatusCode: 200,
		DurationMS: 12,
	}
}

func TestRecordRequestSampling(t *testing.T) {
	t.Run("rate 1 always records", func(t *testing.T) {
		store := &memTelemetryStore{}
		sink := MustNewTelemetryService(TelemetryServiceOptions{Store: store, SampleRate: 1})

		for range 10 {
			sink.RecordRequest(context.Background(), trace())
		}
		sink.Close()
		assert.Equal(t, 10, store.requestCount())
	})

	t.Run("rate 0 never records", func(t *testing.T) {
		store := &memTelemetryStore{}
		sink := MustNewTelemetryService(TelemetryServiceOptions{Store: store, SampleRate: 0})

		for range 10 {
			sink.RecordRequest(context.Background(), trace())
		}
		sink.Close()
		assert.Zero(t, store.requestCount())
	})

	t.Run("fractional rate follows the draw", func(t *testing.T) {
		store := &memTelemetryStore{}
		draws := []float64{0.1, 0.9, 0.3, 0.7}
		i := 0
		sink := MustNewTelemetryService(TelemetryServiceOptions{
			Store:      store,
			SampleRate: 0.5,
			randFn: func() float64 {
				v := draws[i%len(draws)]
				i++
				return v
			},
		})

		for range 4 {
			sink.RecordRequest(context.Background(), trace())
		}
		sink.Close()
		// Draws 0.1 and 0.3 are below the 0.5 rate.
		assert.Equal(t, 2, store.requestCount())
	})

	t.Run("rejects rates outside [0,1]", func(t *testing.T) {
		_, err := NewTelemetryService(TelemetryServiceOptions{Store: &memTelemetryStore{}, SampleRate: 1.5})
		assert.Error(t, err)
		_, err = NewTelemetryService(TelemetryServiceOptions{Store: &memTelemetryStore{}, SampleRate: -0.1})
		assert.Error(t, err)
	})
}

func TestRecordAuditIgnoresSampling(t *testing.T) {
	store := &memTelemetryStore{}
	sink := MustNewTelemetryService(TelemetryServiceOptions{Store: store, SampleRate: 0})

	sink.RecordAudit(context.Background(), model.AuditEntry{
		Action:       "POST /api/evaluations",
		ResourceType: "evaluations",
		StatusCode:   201,
	})
	sink.Close()
	assert.Equal(t, 1, store.auditCount())
}

func TestRecordNeverReturnsOrPanicsOnStoreFailure(t *testing.T) {
	store := &memTelemetryStore{err: assert.AnError}
	sink := MustNewTelemetryService(TelemetryServiceOptions{Store: store, SampleRate: 1})

	// Failures are contained in the sink; callers see nothing.
	sink.RecordRequest(context.Background(), trace())
	sink.RecordAudit(context.Background(), model.AuditEntry{Action: "x", ResourceType: "y"})
	sink.RecordJobEvent(context.Background(), model.JobEvent{
		QueueName: "evaluations:grade",
		JobType:   "grade",
		JobID:     "job-1",
		State:     model.JobEventQueued,
	})
	sink.Close()
}

func TestRecordDetachesFromCallerCancellation(t *testing.T) {
	store := &memTelemetryStore{}
	sink := MustNewTelemetryService(TelemetryServiceOptions{Store: store, SampleRate: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // caller is already gone
	sink.RecordRequest(ctx, trace())
	sink.Close()

	assert.Equal(t, 1, store.requestCount())
}

func TestCloseDiscardsLateRecords(t *testing.T) {
	store := &memTelemetryStore{}
	sink := MustNewTelemetryService(TelemetryServiceOptions{Store: store, SampleRate: 1})
	sink.Close()

	sink.RecordRequest(context.Background(), trace())
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, store.requestCount())

	// Closing twice is safe.
	sink.Close()
}

func TestJobEventDefaults(t *testing.T) {
	store := &memTelemetryStore{}
	sink := MustNewTelemetryService(TelemetryServiceOptions{Store: store, SampleRate: 1})

	sink.RecordJobEvent(context.Background(), model.JobEvent{
		QueueName: "evaluations:grade",
		JobType:   "grade",
		JobID:     "job-1",
		State:     model.JobEventQueued,
	})
	sink.Close()

	require.Len(t, store.events, 1)
	assert.Equal(t, 1, store.events[0].Attempt)
	assert.False(t, store.events[0].OccurredAt.IsZero())
}
