package fdr

import (
	"context"
	"fmt"

	"github.com/c360/fdrgateway/errors"
	"github.com/c360/fdrgateway/pkg/security"
)

// callResult is the terminal record of one retry-controlled call. The
// facade uses the flags for metrics and logging; outcome is what crosses
// the boundary to callers.
type callResult struct {
	outcome  Outcome
	attempts int
	timedOut bool
	// lastStatus is the HTTP status of the last response received, zero
	// when every attempt errored before a response arrived.
	lastStatus int
	// lastErr holds the last transport or classification error when the
	// call failed for a non-business reason, for diagnostic logging.
	lastErr error
}

// runCall executes the transport call for one operation with exactly one
// retry on business failure. Timeouts terminate immediately: a timed-out
// request may already be executing on the provider side, and retrying a
// non-idempotent FDR operation risks a duplicate side effect (a letter
// issued twice). Retry state is threaded through locals; nothing is shared
// between concurrent calls.
func runCall(
	ctx context.Context,
	transport Transport,
	op Operation,
	message map[string]any,
	header security.Header,
) callResult {
	maxAttempts := 2
	if !op.Retryable {
		maxAttempts = 1
	}

	var (
		lastCode   string
		lastStatus int
		lastErr    error
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := attemptOnce(ctx, transport, op, message, header)
		if err != nil {
			if errors.IsTimeout(err) {
				return callResult{
					outcome:    Fail(timeoutMessage(op), op.failureStatus(), TimeoutErrorCode),
					attempts:   attempt,
					timedOut:   true,
					lastStatus: lastStatus,
					lastErr:    err,
				}
			}
			// Connection failures, parsing errors, and absorbed panics are
			// treated like a failed attempt: eligible for the single retry,
			// never propagated past the controller.
			lastErr = err
			continue
		}

		lastStatus = resp.Status
		verdict := op.classifier().Classify(resp)
		if verdict.BusinessSuccess {
			return callResult{
				outcome:    Succeed(resp.Body),
				attempts:   attempt,
				lastStatus: resp.Status,
			}
		}
		if verdict.ProviderErrorCode != "" {
			lastCode = verdict.ProviderErrorCode
		}
	}

	return callResult{
		outcome:    Fail(failureMessage(op, lastCode), op.failureStatus(), lastCode),
		attempts:   maxAttempts,
		lastStatus: lastStatus,
		lastErr:    lastErr,
	}
}

// attemptOnce issues a single transport call, absorbing panics from the
// transport or classifier into an unexpected-kind error so they never
// escape the gateway boundary.
func attemptOnce(
	ctx context.Context,
	transport Transport,
	op Operation,
	message map[string]any,
	header security.Header,
) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WrapUnexpected(
				fmt.Errorf("panic during transport call: %v", r),
				"RetryController", "attemptOnce", op.Key)
		}
	}()

	return transport.Call(ctx, op, message, header)
}

// failureMessage composes the terminal failure description. The error-code
// clause is omitted when no code was captured on either attempt.
func failureMessage(op Operation, code string) string {
	if code == "" {
		return fmt.Sprintf("FdrGateway call to %s failed", op.Action)
	}
	return fmt.Sprintf("FdrGateway call to %s failed (fdr_error_code: %s)", op.Action, code)
}

func timeoutMessage(op Operation) string {
	return fmt.Sprintf("FdrGateway call to %s timed out", op.Action)
}
