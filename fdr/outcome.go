package fdr

// Response is the raw result of one transport call. It is transient: built
// per attempt, classified, and discarded. Body is the decoded response
// document as nested maps.
type Response struct {
	Status int
	Body   map[string]any
}

// Classification is the verdict a Classifier renders on a Response.
type Classification struct {
	// BusinessSuccess reports whether the response counts as a logical
	// success, independent of the HTTP status alone.
	BusinessSuccess bool
	// ProviderErrorCode is the coded failure reason extracted from the
	// response body, empty when none was present. Only this coded field is
	// safe to log; free-text provider messages may echo cardholder data
	// and are deliberately never extracted.
	ProviderErrorCode string
}

// Outcome is the terminal result of one gateway call. It is the only value
// that crosses the gateway-core boundary to business callers.
type Outcome struct {
	// Payload holds the unwrapped response body on success.
	Payload map[string]any
	// Message is the composed failure description, empty on success.
	Message string
	// HTTPStatus is the status a failed call suggests the caller report
	// outward. Zero on success.
	HTTPStatus int
	// ProviderErrorCode is the provider's coded failure reason when one
	// was captured on either attempt.
	ProviderErrorCode string

	success bool
}

// Succeeded reports whether the call terminated in business success.
func (o Outcome) Succeeded() bool {
	return o.success
}

// Succeed builds a success outcome carrying the unwrapped payload.
func Succeed(payload map[string]any) Outcome {
	return Outcome{Payload: payload, success: true}
}

// Fail builds a failure outcome.
func Fail(message string, httpStatus int, providerErrorCode string) Outcome {
	return Outcome{
		Message:           message,
		HTTPStatus:        httpStatus,
		ProviderErrorCode: providerErrorCode,
	}
}

// TimeoutErrorCode is the fixed provider-error-code surfaced when a
// transport attempt times out. Distinct from any code FDR emits.
const TimeoutErrorCode = "timeout"
