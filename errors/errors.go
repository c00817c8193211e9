// Package errors provides the error taxonomy for the FDR gateway core.
// Every failure that can occur during a gateway call is classified into a
// Kind, and the helpers here attach that classification plus structured
// context (component, method, action) so callers can branch on kind
// without string matching.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies gateway errors for handling purposes.
type Kind int

const (
	// KindUnexpected covers any error not otherwise classified: classifier
	// bugs, transport library internals, panics absorbed at the facade.
	KindUnexpected Kind = iota
	// KindConfiguration indicates a deploy/code defect such as an unknown
	// or duplicate operation key. Never retried; allowed to propagate.
	KindConfiguration
	// KindTimeout indicates a connection-open or response-read timeout on
	// the transport. Terminal on first occurrence, never retried.
	KindTimeout
	// KindBusiness indicates the provider rejected the call at the
	// application level (non-success result code in the response body).
	KindBusiness
	// KindParsing indicates the response body could not be interpreted as
	// the expected structure. Usually a provider-side contract change.
	KindParsing
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTimeout:
		return "timeout"
	case KindBusiness:
		return "business"
	case KindParsing:
		return "parsing"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Standard error variables for common gateway conditions
var (
	// Registry errors
	ErrUnknownOperation   = errors.New("unknown operation key")
	ErrDuplicateOperation = errors.New("operation key already registered")

	// Transport errors
	ErrTransportTimeout = errors.New("transport timeout")
	ErrConnectionFailed = errors.New("connection failed")

	// Response errors
	ErrMalformedResponse = errors.New("malformed response body")
	ErrMissingEnvelope   = errors.New("response envelope key missing")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")

	// Async queue errors
	ErrQueueFull     = errors.New("job queue full")
	ErrQueueStopped  = errors.New("job queue stopped")
	ErrNotConnected  = errors.New("queue not connected")
	ErrInvalidParams = errors.New("invalid call parameters")
)

// GatewayError wraps an error with its kind and call context.
type GatewayError struct {
	Kind      Kind
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface.
func (ge *GatewayError) Error() string {
	if ge.Message != "" {
		return ge.Message
	}
	return ge.Err.Error()
}

// Unwrap returns the underlying error.
func (ge *GatewayError) Unwrap() error {
	return ge.Err
}

// KindOf returns the kind for an error. Unclassified errors report
// KindUnexpected, so the facade's catch-all path needs no special casing.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnexpected
	}

	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind
	}

	switch {
	case errors.Is(err, ErrTransportTimeout):
		return KindTimeout
	case errors.Is(err, ErrUnknownOperation),
		errors.Is(err, ErrDuplicateOperation),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrMissingConfig):
		return KindConfiguration
	case errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrMissingEnvelope):
		return KindParsing
	}

	return KindUnexpected
}

// IsTimeout checks if an error is a transport timeout.
func IsTimeout(err error) bool {
	return err != nil && KindOf(err) == KindTimeout
}

// IsConfiguration checks if an error is a configuration defect.
func IsConfiguration(err error) bool {
	return err != nil && KindOf(err) == KindConfiguration
}

// IsBusiness checks if an error is a provider-level business failure.
func IsBusiness(err error) bool {
	return err != nil && KindOf(err) == KindBusiness
}

// IsParsing checks if an error is a response parsing failure.
func IsParsing(err error) bool {
	return err != nil && KindOf(err) == KindParsing
}

// newClassified creates a new classified error.
// Internal helper - use the WrapX constructors instead.
func newClassified(kind Kind, err error, component, operation, message string) *GatewayError {
	return &GatewayError{
		Kind:      kind,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapConfiguration wraps an error as a configuration defect with context.
func WrapConfiguration(err error, component, method, action string) error {
	return wrapKind(KindConfiguration, err, component, method, action)
}

// WrapTimeout wraps an error as a transport timeout with context.
func WrapTimeout(err error, component, method, action string) error {
	return wrapKind(KindTimeout, err, component, method, action)
}

// WrapBusiness wraps an error as a business failure with context.
func WrapBusiness(err error, component, method, action string) error {
	return wrapKind(KindBusiness, err, component, method, action)
}

// WrapParsing wraps an error as a parsing failure with context.
func WrapParsing(err error, component, method, action string) error {
	return wrapKind(KindParsing, err, component, method, action)
}

// WrapUnexpected wraps an error as unexpected with context.
func WrapUnexpected(err error, component, method, action string) error {
	return wrapKind(KindUnexpected, err, component, method, action)
}

func wrapKind(kind Kind, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(kind, wrappedErr, component, method, wrappedErr.Error())
}
