// Package queue provides the asynchronous job path for gateway calls: a
// NATS JetStream work stream that Enqueue publishes to and a bounded
// worker consumer that executes jobs through the gateway facade.
//
// Delivery is at-least-once. The gateway does not make the underlying FDR
// call idempotent under redelivery; that risk is accepted and owned by
// callers choosing the async path.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/fdrgateway/errors"
	"github.com/c360/fdrgateway/metric"
	"github.com/c360/fdrgateway/pkg/retry"
)

// Config holds configuration for the job queue.
type Config struct {
	// URL is the NATS server URL.
	URL string
	// Stream is the JetStream work stream name.
	Stream string
	// Subject is the subject jobs are published under.
	Subject string
	// Durable is the consumer's durable name.
	Durable string
}

// DefaultConfig returns default configuration for the job queue.
func DefaultConfig() Config {
	return Config{
		URL:     nats.DefaultURL,
		Stream:  "FDR_JOBS",
		Subject: "fdr.jobs",
		Durable: "fdr-gateway-worker",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.WrapConfiguration(errors.ErrMissingConfig, "Config", "Validate", "NATS URL is required")
	}
	if c.Stream == "" || c.Subject == "" {
		return errors.WrapConfiguration(errors.ErrMissingConfig, "Config", "Validate",
			"stream and subject are required")
	}
	return nil
}

// Job is the serialized form of one async gateway call.
type Job struct {
	ID           string         `json:"id"`
	OperationKey string         `json:"operation_key"`
	Params       map[string]any `json:"params"`
	EnqueuedAt   time.Time      `json:"enqueued_at"`
}

// Queue is a JetStream-backed job queue. It implements fdr.JobQueue.
type Queue struct {
	cfg     Config
	metrics *metric.Metrics
	logger  *slog.Logger

	mu     sync.RWMutex
	conn   *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
}

// New creates a job queue. Connect must be called before use.
func New(cfg Config, metrics *metric.Metrics, logger *slog.Logger) (*Queue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{cfg: cfg, metrics: metrics, logger: logger}, nil
}

// Connect establishes the NATS connection and ensures the work stream
// exists, retrying with backoff while the broker comes up.
func (q *Queue) Connect(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.conn != nil {
		return errors.WrapConfiguration(
			fmt.Errorf("queue already connected"), "Queue", "Connect", "connection state check")
	}

	var conn *nats.Conn
	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		var connectErr error
		conn, connectErr = nats.Connect(q.cfg.URL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, _ error) {
				q.metrics.RecordNATSStatus(false)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				q.metrics.RecordNATSStatus(true)
			}),
		)
		return connectErr
	})
	if err != nil {
		return errors.Wrap(err, "Queue", "Connect", "NATS connection")
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "Queue", "Connect", "JetStream context")
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      q.cfg.Stream,
		Subjects:  []string{q.cfg.Subject},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "Queue", "Connect", "work stream creation")
	}

	q.conn = conn
	q.js = js
	q.stream = stream
	q.metrics.RecordNATSStatus(true)
	q.logger.Info("job queue connected", "stream", q.cfg.Stream, "subject", q.cfg.Subject)
	return nil
}

// Close drains and closes the NATS connection.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.conn != nil {
		q.conn.Close()
		q.conn = nil
		q.js = nil
		q.stream = nil
		q.metrics.RecordNATSStatus(false)
	}
}

// Enqueue publishes a job for out-of-band execution and returns its ID.
// FIFO ordering is provided per stream by JetStream; no ordering is
// guaranteed relative to synchronous calls.
func (q *Queue) Enqueue(ctx context.Context, operationKey string, params map[string]any) (string, error) {
	q.mu.RLock()
	js := q.js
	q.mu.RUnlock()

	if js == nil {
		return "", errors.Wrap(errors.ErrNotConnected, "Queue", "Enqueue", "connection check")
	}

	job := Job{
		ID:           uuid.NewString(),
		OperationKey: operationKey,
		Params:       params,
		EnqueuedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return "", errors.WrapUnexpected(err, "Queue", "Enqueue", "job serialization")
	}

	if _, err := js.Publish(ctx, q.cfg.Subject, data); err != nil {
		return "", errors.Wrap(err, "Queue", "Enqueue", "stream publish")
	}

	return job.ID, nil
}

// Connected reports whether the NATS connection is established and open.
func (q *Queue) Connected() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.conn != nil && q.conn.IsConnected()
}

// connection returns the live stream handle for consumer setup.
func (q *Queue) connection() (jetstream.Stream, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stream == nil {
		return nil, errors.Wrap(errors.ErrNotConnected, "Queue", "connection", "connection check")
	}
	return q.stream, nil
}
