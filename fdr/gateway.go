package fdr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/fdrgateway/errors"
	"github.com/c360/fdrgateway/metric"
	"github.com/c360/fdrgateway/pkg/security"
)

// GatewayConfig wires the facade's collaborators. Registry, Transport and
// Headers are required; the rest are optional.
type GatewayConfig struct {
	Registry  *Registry
	Transport Transport
	Headers   security.HeaderProvider
	Metrics   *metric.Metrics
	Logger    *slog.Logger
	Queue     JobQueue
	Reporter  ErrorReporter
}

// Gateway is the single entry point business actions use to reach FDR.
// It resolves operations, runs the retry controller, and absorbs every
// failure mode into an Outcome. A Gateway is safe for concurrent use.
type Gateway struct {
	registry  *Registry
	transport Transport
	headers   security.HeaderProvider
	metrics   *metric.Metrics
	logger    *slog.Logger
	queue     JobQueue
	reporter  ErrorReporter
}

// NewGateway creates a gateway facade from its collaborators.
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.Registry == nil {
		return nil, errors.WrapConfiguration(
			errors.ErrMissingConfig, "Gateway", "NewGateway", "registry validation")
	}
	if cfg.Transport == nil {
		return nil, errors.WrapConfiguration(
			errors.ErrMissingConfig, "Gateway", "NewGateway", "transport validation")
	}
	if cfg.Headers == nil {
		return nil, errors.WrapConfiguration(
			errors.ErrMissingConfig, "Gateway", "NewGateway", "header provider validation")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		registry:  cfg.Registry,
		transport: cfg.Transport,
		headers:   cfg.Headers,
		metrics:   cfg.Metrics,
		logger:    logger,
		queue:     cfg.Queue,
		reporter:  cfg.Reporter,
	}, nil
}

// Call executes the named operation synchronously and returns its terminal
// outcome. The returned error is non-nil only for configuration defects
// (unknown operation key, parameters failing the operation's schema) --
// the one error class allowed past the facade. Every other failure mode,
// including transport exceptions, arrives as a failure Outcome.
func (g *Gateway) Call(ctx context.Context, operationKey string, params map[string]any) (Outcome, error) {
	op, err := g.registry.Resolve(operationKey)
	if err != nil {
		return Outcome{}, err
	}
	if err := validateParams(op, params); err != nil {
		return Outcome{}, err
	}

	start := time.Now()

	message, err := op.buildMessage(params)
	if err != nil {
		wrapped := errors.WrapUnexpected(err, "Gateway", "Call", "message build")
		return g.finish(op, start, callResult{
			outcome: Fail(failureMessage(op, ""), op.failureStatus(), ""),
			lastErr: wrapped,
		}, params), nil
	}

	header, err := g.headers.Build()
	if err != nil {
		wrapped := errors.WrapUnexpected(err, "Gateway", "Call", "auth header build")
		return g.finish(op, start, callResult{
			outcome: Fail(failureMessage(op, ""), op.failureStatus(), ""),
			lastErr: wrapped,
		}, params), nil
	}

	result := runCall(ctx, g.transport, op, message, header)
	return g.finish(op, start, result, params), nil
}

// CallAsync hands the call off to the job queue for out-of-band execution
// and returns a job-accepted acknowledgment. The retry semantics on the
// worker side are identical to Call; only the execution context differs.
func (g *Gateway) CallAsync(ctx context.Context, operationKey string, params map[string]any) (string, error) {
	op, err := g.registry.Resolve(operationKey)
	if err != nil {
		return "", err
	}
	if err := validateParams(op, params); err != nil {
		return "", err
	}
	if g.queue == nil {
		return "", errors.WrapConfiguration(
			errors.ErrMissingConfig, "Gateway", "CallAsync", "job queue validation")
	}

	jobID, err := g.queue.Enqueue(ctx, operationKey, params)
	if err != nil {
		return "", errors.Wrap(err, "Gateway", "CallAsync", "job enqueue")
	}

	g.metrics.RecordJobEnqueued(operationKey)
	g.logger.Info("fdr gateway call enqueued",
		"operation", operationKey,
		"job_id", jobID,
	)
	return jobID, nil
}

// finish unwraps a successful payload, emits the per-call log entry and
// metrics, and reports unexpected errors. Exactly one log entry is written
// per call regardless of outcome.
func (g *Gateway) finish(op Operation, start time.Time, result callResult, params map[string]any) Outcome {
	outcome := result.outcome

	if outcome.Succeeded() && op.EnvelopeKey != "" {
		inner, ok := outcome.Payload[op.EnvelopeKey].(map[string]any)
		if !ok {
			result.lastErr = errors.WrapParsing(
				fmt.Errorf("%w: %q", errors.ErrMissingEnvelope, op.EnvelopeKey),
				"Gateway", "finish", op.Key)
			outcome = Fail(failureMessage(op, ""), op.failureStatus(), "")
		} else {
			outcome = Succeed(inner)
		}
	}

	elapsed := time.Since(start)
	status := "failure"
	switch {
	case outcome.Succeeded():
		status = "success"
	case result.timedOut:
		status = "timeout"
	}

	g.metrics.RecordCall(op.Key, status, elapsed)
	if result.attempts > 1 {
		g.metrics.RecordRetry(op.Key)
	}
	if result.timedOut {
		g.metrics.RecordTimeout(op.Key)
	}

	g.logger.Info("fdr gateway call",
		"operation", op.Key,
		"elapsed_ms", elapsed.Milliseconds(),
		"http_status", result.lastStatus,
		"success", outcome.Succeeded(),
		"attempts", result.attempts,
	)

	if result.lastErr != nil && !result.timedOut && !outcome.Succeeded() {
		g.logger.Error("fdr gateway call error",
			"operation", op.Key,
			"kind", errors.KindOf(result.lastErr).String(),
			"error", result.lastErr.Error(),
		)
		g.report(result.lastErr, op.Key, params)
	}

	return outcome
}

// report forwards an unexpected error to the error-reporting sink with
// sanitized context: account reference fields are base64-obscured, all
// other parameters are withheld.
func (g *Gateway) report(err error, operationKey string, params map[string]any) {
	if g.reporter == nil {
		return
	}

	context := map[string]string{
		"operation": operationKey,
		"kind":      errors.KindOf(err).String(),
	}
	for key, value := range params {
		if isAccountRefField(key) {
			context[key] = security.ObscureAccountRef(fmt.Sprint(value))
		}
	}

	g.reporter.Report(err, context)
}

// isAccountRefField reports whether a parameter name identifies an account
// holder reference. Anything matching is PII and must be obscured before
// leaving the gateway.
func isAccountRefField(name string) bool {
	return strings.Contains(strings.ToLower(name), "account")
}

// validateParams checks call parameters against the operation's message
// schema when one is configured. A violation is a caller defect, reported
// as a configuration-kind error before any transport call.
func validateParams(op Operation, params map[string]any) error {
	if op.Schema == nil {
		return nil
	}

	result, err := op.Schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return errors.WrapConfiguration(err, "Gateway", "validateParams", "schema evaluation")
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return errors.WrapConfiguration(
			fmt.Errorf("%w: %s", errors.ErrInvalidParams, strings.Join(details, "; ")),
			"Gateway", "validateParams", op.Key)
	}
	return nil
}
