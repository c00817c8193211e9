package operations

import (
	"net/http"

	"github.com/c360/fdrgateway/fdr"
)

// accountSummary is a read-only lookup. The provider reports failures for
// this endpoint through the HTTP status alone, so the default 2xx policy
// applies and a terminal failure maps to a plain server error.
func accountSummary() fdr.Operation {
	return fdr.Operation{
		Key:         "get-account_summary",
		Namespace:   "acct",
		Action:      "get_account_summary",
		EnvelopeKey: "account_summary",
		Retryable:   true,
		BuildMessage: func(params map[string]any) (map[string]any, error) {
			return map[string]any{
				"account_summary_request_element": map[string]any{
					"account_reference_number": params["account_reference"],
				},
			}, nil
		},
		Schema: mustSchema(`{
			"type": "object",
			"required": ["account_reference"],
			"properties": {
				"account_reference": {"type": "string", "minLength": 1}
			}
		}`),
	}
}

// updateAddress mutates the cardholder's address on the provider side.
// Retryable is off: the provider has been observed applying the update
// while still returning an error-shaped first response, and a second
// submission can double-apply sequence-numbered address records.
func updateAddress() fdr.Operation {
	return fdr.Operation{
		Key:           "update-address_account",
		Namespace:     "acct",
		Action:        "update_account_address",
		EnvelopeKey:   "update_address_response",
		FailureStatus: http.StatusUnprocessableEntity,
		Retryable:     false,
		BuildMessage: func(params map[string]any) (map[string]any, error) {
			return map[string]any{
				"update_address_request_element": map[string]any{
					"account_reference_number": params["account_reference"],
					"address":                  params["address"],
				},
			}, nil
		},
		Classify: fdr.CodeClassifier{
			Path: []string{
				"update_address_response_element",
				"response_message",
				"result_message_code",
			},
			SuccessCode: resultCodeSuccess,
		},
		Schema: mustSchema(`{
			"type": "object",
			"required": ["account_reference", "address"],
			"properties": {
				"account_reference": {"type": "string", "minLength": 1},
				"address":           {"type": "object"}
			}
		}`),
	}
}
