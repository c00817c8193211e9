package fdr

import (
	"context"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/fdrgateway/pkg/security"
)

// MessageBuilder transforms domain call parameters into the wire message
// for one operation. Builders are pure transforms.
type MessageBuilder func(params map[string]any) (map[string]any, error)

// Operation is an immutable descriptor for one named remote action.
// Operations are constructed at process start, registered once, and looked
// up by key per call; they are never mutated afterwards.
type Operation struct {
	// Key is the globally unique lookup key, e.g. "issue-letter_account".
	Key string
	// Namespace and Action identify the remote SOAP action the transport
	// invokes for this operation.
	Namespace string
	Action    string
	// EnvelopeKey is the outer body field under which a successful payload
	// is nested; the facade strips it before returning the payload.
	// Empty means the whole body is the payload.
	EnvelopeKey string
	// FailureStatus is the HTTP-equivalent status a terminal failure of
	// this operation suggests to callers. Defaults to 500 when zero.
	FailureStatus int
	// Retryable controls whether a business failure earns the single
	// retry. Timeouts are never retried regardless of this flag.
	Retryable bool
	// BuildMessage maps call parameters to the wire message. Nil means
	// the parameters are forwarded unchanged.
	BuildMessage MessageBuilder
	// Classify renders the success/failure verdict for responses. Nil
	// means the default 2xx policy.
	Classify Classifier
	// Schema optionally validates call parameters before any transport
	// call is attempted.
	Schema *gojsonschema.Schema
}

// classifier returns the operation's classifier, falling back to the
// default status policy.
func (op Operation) classifier() Classifier {
	if op.Classify != nil {
		return op.Classify
	}
	return StatusClassifier{}
}

// failureStatus returns the configured failure status, defaulting to the
// 500-equivalent server error.
func (op Operation) failureStatus() int {
	if op.FailureStatus != 0 {
		return op.FailureStatus
	}
	return 500
}

// buildMessage applies the operation's message builder, forwarding the
// parameters unchanged when none is configured.
func (op Operation) buildMessage(params map[string]any) (map[string]any, error) {
	if op.BuildMessage == nil {
		return params, nil
	}
	return op.BuildMessage(params)
}

// Transport issues the actual SOAP/HTTP call for one operation. It is an
// external collaborator: implementations must return an error wrapping
// errors.ErrTransportTimeout for connection-open or response-read
// timeouts, and errors.ErrConnectionFailed for other network failures, so
// the retry controller can distinguish the two paths.
type Transport interface {
	Call(ctx context.Context, op Operation, message map[string]any, header security.Header) (Response, error)
}

// JobQueue hands a call off for out-of-band execution. At-least-once
// delivery is assumed; redelivery of a non-idempotent FDR call is a known
// accepted risk owned by the caller.
type JobQueue interface {
	Enqueue(ctx context.Context, operationKey string, params map[string]any) (jobID string, err error)
}

// ErrorReporter receives unexpected-error reports with contextual tags.
// Implementations must treat the context as already sanitized: the facade
// obscures account references before attaching them. Reporter failures
// must never affect call outcomes.
type ErrorReporter interface {
	Report(err error, context map[string]string)
}
