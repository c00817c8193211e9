package fdr

import "fmt"

// Classifier decides whether a raw response counts as a business success
// and extracts the provider's coded failure reason when it does not.
// Implementations must be pure: the same Response always yields the same
// Classification, with no hidden state.
type Classifier interface {
	Classify(resp Response) Classification
}

// StatusClassifier is the default policy: any 2xx status is a business
// success. No error-code extraction.
type StatusClassifier struct{}

// Classify implements Classifier.
func (StatusClassifier) Classify(resp Response) Classification {
	return Classification{BusinessSuccess: is2xx(resp.Status)}
}

// CodeClassifier is the override policy for operations whose success
// signal is buried in the response body: the call succeeds only when the
// status is 2xx AND the value at Path equals SuccessCode. On failure the
// value at Path is surfaced as the provider error code.
//
// Path is the nested key navigation into the response body, e.g.
//
//	{"issue_letter_response_element", "response_message", "result_message_code"}
//
// Missing or malformed intermediate keys classify as failure with no code,
// never as a crash.
type CodeClassifier struct {
	Path        []string
	SuccessCode string
}

// Classify implements Classifier.
func (c CodeClassifier) Classify(resp Response) Classification {
	code, ok := digString(resp.Body, c.Path...)
	if !is2xx(resp.Status) {
		return Classification{ProviderErrorCode: code}
	}
	if !ok {
		// 2xx with no result code at the expected path: the body does not
		// match the operation's structural contract, so it cannot be
		// trusted as a success.
		return Classification{}
	}
	if code == c.SuccessCode {
		return Classification{BusinessSuccess: true}
	}
	return Classification{ProviderErrorCode: code}
}

func is2xx(status int) bool {
	return status >= 200 && status <= 299
}

// dig navigates a nested map body along path, returning the value at the
// final key. It is nil-safe: any missing or non-map intermediate returns
// (nil, false).
func dig(body map[string]any, path ...string) (any, bool) {
	if body == nil || len(path) == 0 {
		return nil, false
	}

	current := any(body)
	for _, key := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[key]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// digString is dig with the terminal value rendered as a string. Numeric
// result codes arrive as JSON numbers from some provider endpoints, so a
// float64 "0" and a string "0" are treated alike.
func digString(body map[string]any, path ...string) (string, bool) {
	value, ok := dig(body, path...)
	if !ok || value == nil {
		return "", false
	}

	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return fmt.Sprintf("%d", int64(v)), true
	case int:
		return fmt.Sprintf("%d", v), true
	default:
		return "", false
	}
}
