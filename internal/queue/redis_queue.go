// Package queue implements the evaluation job queue client on Redis.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/gradebench/gradebench/internal/errors"
	"github.com/gradebench/gradebench/internal/domain/model"
)

const defaultDedupTTL = 24 * time.Hour

// Options groups construction parameters for RedisQueue.
type Options struct {
	// Client is the Redis connection the queue owns. Required. The queue
	// closes it on Close; construct it in bootstrap and inject it here
	// rather than holding it as ambient process state.
	Client redis.UniversalClient
	// NamePrefix namespaces the queue keys. Required.
	NamePrefix string
	// DedupTTL bounds how long an enqueue marker pins a job id. Optional.
	DedupTTL time.Duration
	// Logger is an optional structured logger.
	Logger *slog.Logger
}

// RedisQueue submits evaluation work to the external worker pool via Redis.
// Each message is keyed by the job's own id: a SET NX marker guarantees
// at-most-one live list entry per job id, so a retried submission is a no-op
// at the broker. Delivery to workers is at-least-once; completion idempotency
// is the orchestrator's concern.
type RedisQueue struct {
	client   redis.UniversalClient
	prefix   string
	dedupTTL time.Duration
	logger   *slog.Logger
}

// New constructs a RedisQueue.
func New(opts Options) (*RedisQueue, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	prefix := strings.TrimSpace(opts.NamePrefix)
	if prefix == "" {
		return nil, errors.New("queue name prefix is required")
	}

	ttl := opts.DedupTTL
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "redis_queue")
	}

	return &RedisQueue{
		client:   opts.Client,
		prefix:   prefix,
		dedupTTL: ttl,
		logger:   logger,
	}, nil
}

// ListKey returns the broker list name for a kind, e.g. "evaluations:grade".
func (q *RedisQueue) ListKey(kind model.EvaluationKind) string {
	return q.prefix + ":" + string(kind)
}

func (q *RedisQueue) dedupKey(jobID string) string {
	return q.prefix + ":dedup:" + jobID
}

// Enqueue submits a message keyed by its job id. Any broker failure maps to
// a QueueUnavailable error; the orchestrator absorbs it into a failed
// terminal state rather than surfacing it to the submitter.
func (q *RedisQueue) Enqueue(ctx context.Context, msg model.QueueMessage) error {
	if strings.TrimSpace(msg.JobID) == "" {
		return errors.New("job id is required")
	}
	if !msg.Kind.Valid() {
		return fmt.Errorf("invalid evaluation kind: %q", msg.Kind)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal queue message: %w", err)
	}

	// SET NX + TTL is atomic; SETNX followed by EXPIRE is not.
	cmd := q.client.SetArgs(ctx, q.dedupKey(msg.JobID), payload, redis.SetArgs{
		Mode: "NX",
		TTL:  q.dedupTTL,
	})
	status, err := cmd.Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return apperrors.QueueUnavailable("evaluation queue unavailable", err)
	}
	if errors.Is(err, redis.Nil) || status != "OK" {
		// Marker already present: the job id is already live on the broker.
		if q.logger != nil {
			q.logger.DebugContext(ctx, "enqueue deduplicated", "job_id", msg.JobID)
		}
		return nil
	}

	if pushErr := q.client.LPush(ctx, q.ListKey(msg.Kind), payload).Err(); pushErr != nil {
		return apperrors.QueueUnavailable("evaluation queue unavailable", pushErr)
	}

	if q.logger != nil {
		q.logger.DebugContext(ctx, "job enqueued",
			"job_id", msg.JobID, "kind", msg.Kind, "list", q.ListKey(msg.Kind))
	}
	return nil
}

// Depth reports the number of waiting messages for a kind.
func (q *RedisQueue) Depth(ctx context.Context, kind model.EvaluationKind) (int64, error) {
	n, err := q.client.LLen(ctx, q.ListKey(kind)).Result()
	if err != nil {
		return 0, apperrors.QueueUnavailable("evaluation queue unavailable", err)
	}
	return n, nil
}

// Close releases the underlying Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
