package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/fdrgateway/errors"
	"github.com/c360/fdrgateway/fdr"
	"github.com/c360/fdrgateway/metric"
)

// Executor runs one gateway call. Satisfied by *fdr.Gateway.
type Executor interface {
	Call(ctx context.Context, operationKey string, params map[string]any) (fdr.Outcome, error)
}

// ConsumerConfig holds configuration for the job consumer.
type ConsumerConfig struct {
	// Workers is the number of concurrent executors. Defaults to 4.
	Workers int
	// BufferSize bounds the in-process job buffer. A full buffer NAKs the
	// message back to JetStream for redelivery (backpressure). Defaults
	// to 64.
	BufferSize int
	// JobTimeout bounds one job's gateway call. Must stay under the
	// consumer's AckWait so a slow call cannot be redelivered while still
	// in flight. Defaults to 90 seconds.
	JobTimeout time.Duration
}

// Consumer pulls jobs from the work stream and executes them through the
// gateway with a bounded worker pool.
type Consumer struct {
	queue      *Queue
	executor   Executor
	metrics    *metric.Metrics
	logger     *slog.Logger
	workers    int
	buffer     chan bufferedJob
	jobTimeout time.Duration

	lifecycleMu sync.Mutex
	running     bool
	consumeCtx  jetstream.ConsumeContext
	wg          sync.WaitGroup
	shutdown    chan struct{}
	// jobCtx is the base context for job execution. It is cancelled when
	// Stop's wait times out, so a hung call cannot outlive shutdown.
	jobCtx    context.Context
	jobCancel context.CancelFunc
}

type bufferedJob struct {
	job Job
	msg jetstream.Msg
}

// NewConsumer creates a job consumer over a connected queue.
func NewConsumer(q *Queue, executor Executor, cfg ConsumerConfig, metrics *metric.Metrics, logger *slog.Logger) (*Consumer, error) {
	if q == nil || executor == nil {
		return nil, errors.WrapConfiguration(
			errors.ErrMissingConfig, "Consumer", "NewConsumer", "collaborator validation")
	}
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 64
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 90 * time.Second
	}

	jobCtx, jobCancel := context.WithCancel(context.Background())

	return &Consumer{
		queue:      q,
		executor:   executor,
		metrics:    metrics,
		logger:     logger,
		workers:    workers,
		buffer:     make(chan bufferedJob, bufferSize),
		jobTimeout: jobTimeout,
		shutdown:   make(chan struct{}),
		jobCtx:     jobCtx,
		jobCancel:  jobCancel,
	}, nil
}

// Start creates the durable consumer and begins executing jobs.
func (c *Consumer) Start(ctx context.Context) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.running {
		return errors.WrapConfiguration(
			errors.ErrInvalidConfig, "Consumer", "Start", "already running")
	}

	stream, err := c.queue.connection()
	if err != nil {
		return errors.Wrap(err, "Consumer", "Start", "stream lookup")
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:   c.queue.cfg.Durable,
		AckPolicy: jetstream.AckExplicitPolicy,
		AckWait:   2 * time.Minute,
	})
	if err != nil {
		return errors.Wrap(err, "Consumer", "Start", "durable consumer creation")
	}

	// Fresh shutdown signal and job context per start, so a failed or
	// stopped run does not poison the next one.
	c.shutdown = make(chan struct{})
	c.jobCtx, c.jobCancel = context.WithCancel(context.Background())

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}

	consumeCtx, err := cons.Consume(c.dispatch)
	if err != nil {
		close(c.shutdown)
		c.jobCancel()
		c.wg.Wait()
		return errors.Wrap(err, "Consumer", "Start", "consume subscription")
	}

	c.consumeCtx = consumeCtx
	c.running = true
	return nil
}

// Stop waits for in-flight jobs to finish, up to the timeout.
func (c *Consumer) Stop(timeout time.Duration) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if !c.running {
		return nil
	}

	if c.consumeCtx != nil {
		c.consumeCtx.Stop()
	}
	close(c.shutdown)

	waitCh := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-time.After(timeout):
		// In-flight jobs did not drain in time; cancel their context so
		// they cannot outlive the consumer.
		c.jobCancel()
		c.running = false
		return errors.Wrap(errors.ErrQueueStopped, "Consumer", "Stop", "shutdown wait")
	}

	c.jobCancel()
	c.running = false
	return nil
}

// dispatch decodes a stream message and hands it to the worker pool.
// Undecodable jobs are terminated (redelivery cannot heal them); a full
// buffer NAKs for later redelivery.
func (c *Consumer) dispatch(msg jetstream.Msg) {
	var job Job
	if err := json.Unmarshal(msg.Data(), &job); err != nil {
		c.logger.Error("job decode failed", "error", err.Error())
		_ = msg.Term()
		return
	}

	select {
	case c.buffer <- bufferedJob{job: job, msg: msg}:
		c.metrics.RecordQueueDepth(len(c.buffer))
	default:
		_ = msg.Nak()
	}
}

func (c *Consumer) worker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.shutdown:
			return
		case item := <-c.buffer:
			c.execute(item)
			c.metrics.RecordQueueDepth(len(c.buffer))
		}
	}
}

// execute runs one job through the gateway under the per-job deadline.
// Configuration defects are terminated rather than redelivered; outcome
// failures are acked, since the retry already happened inside the gateway.
func (c *Consumer) execute(item bufferedJob) {
	ctx, cancel := context.WithTimeout(c.jobCtx, c.jobTimeout)
	defer cancel()

	outcome, err := c.executor.Call(ctx, item.job.OperationKey, item.job.Params)
	if err != nil {
		c.logger.Error("async job rejected",
			"job_id", item.job.ID,
			"operation", item.job.OperationKey,
			"error", err.Error(),
		)
		c.metrics.RecordJobExecuted(item.job.OperationKey, "rejected")
		_ = item.msg.Term()
		return
	}

	status := "failure"
	if outcome.Succeeded() {
		status = "success"
	}
	c.metrics.RecordJobExecuted(item.job.OperationKey, status)
	c.logger.Info("async job executed",
		"job_id", item.job.ID,
		"operation", item.job.OperationKey,
		"success", outcome.Succeeded(),
	)
	_ = item.msg.Ack()
}
