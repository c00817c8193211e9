package operations

import (
	"net/http"

	"github.com/c360/fdrgateway/fdr"
)

// resultCodeSuccess is the code FDR places in result_message_code when a
// code-classified operation succeeded at the business level.
const resultCodeSuccess = "0"

// creditLineDecision retrieves the provider's decision on a credit line
// increase request. The HTTP status is not trustworthy for this endpoint:
// a 200 with a non-zero result_message_code is a decline or provider
// error, so the classifier digs into the response body.
func creditLineDecision() fdr.Operation {
	return fdr.Operation{
		Key:           "get-credit-line_decision",
		Namespace:     "crd",
		Action:        "get_credit_line_decision",
		EnvelopeKey:   "credit_line_decision",
		FailureStatus: http.StatusUnprocessableEntity,
		Retryable:     true,
		BuildMessage: func(params map[string]any) (map[string]any, error) {
			return map[string]any{
				"credit_line_decision_request_element": map[string]any{
					"account_reference_number": params["account_reference"],
					"request_id":               params["request_id"],
				},
			}, nil
		},
		Classify: fdr.CodeClassifier{
			Path: []string{
				"credit_line_decision_response_element",
				"response_message",
				"result_message_code",
			},
			SuccessCode: resultCodeSuccess,
		},
		Schema: mustSchema(`{
			"type": "object",
			"required": ["account_reference", "request_id"],
			"properties": {
				"account_reference": {"type": "string", "minLength": 1},
				"request_id":        {"type": "string", "minLength": 1}
			}
		}`),
	}
}

// issueLetter requests issuance of an account letter (decline notices,
// decision confirmations). Same buried-code success policy as the
// decision endpoint.
func issueLetter() fdr.Operation {
	return fdr.Operation{
		Key:           "issue-letter_account",
		Namespace:     "ltr",
		Action:        "issue_letter",
		EnvelopeKey:   "issue_letter_response",
		FailureStatus: http.StatusUnprocessableEntity,
		Retryable:     true,
		BuildMessage: func(params map[string]any) (map[string]any, error) {
			return map[string]any{
				"issue_letter_request_element": map[string]any{
					"account_reference_number": params["account_reference"],
					"letter_code":              params["letter_code"],
				},
			}, nil
		},
		Classify: fdr.CodeClassifier{
			Path: []string{
				"issue_letter_response_element",
				"response_message",
				"result_message_code",
			},
			SuccessCode: resultCodeSuccess,
		},
		Schema: mustSchema(`{
			"type": "object",
			"required": ["account_reference", "letter_code"],
			"properties": {
				"account_reference": {"type": "string", "minLength": 1},
				"letter_code":       {"type": "string", "minLength": 1}
			}
		}`),
	}
}
