// Package operations registers the concrete FDR operations with an
// operation registry. Each operation carries its own message builder,
// response classifier, and failure status; the retry controller stays
// fully generic.
package operations

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/fdrgateway/errors"
	"github.com/c360/fdrgateway/fdr"
)

// Register registers all FDR operations with the provided registry:
//
//   - get-credit-line_decision: credit line decision retrieval, success
//     signalled by result_message_code "0" in the response body.
//   - issue-letter_account: letter issuance, same code-based policy.
//   - get-account_summary: read-only summary, default 2xx policy.
//   - update-address_account: address update; not retried because a
//     failed-looking first attempt may still have applied server side.
func Register(registry *fdr.Registry) error {
	if registry == nil {
		return errors.WrapConfiguration(
			fmt.Errorf("registry cannot be nil"),
			"Operations", "Register", "registry validation")
	}

	for _, op := range []fdr.Operation{
		creditLineDecision(),
		issueLetter(),
		accountSummary(),
		updateAddress(),
	} {
		if err := registry.Register(op); err != nil {
			return errors.Wrap(err, "Operations", "Register", op.Key)
		}
	}

	return nil
}

// mustSchema compiles a parameter schema at registration time. Schemas are
// static literals; a compile failure is a programming error.
func mustSchema(document string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		panic(fmt.Sprintf("operations: invalid parameter schema: %v", err))
	}
	return schema
}
