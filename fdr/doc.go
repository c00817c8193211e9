// Package fdr implements the First Data (FDR) gateway client core: a
// registry of named remote operations, per-operation response
// classification, a bounded retry controller, and a facade that converts
// every failure mode into a uniform call outcome.
//
// # Overview
//
// The provider's SOAP stack reports success ambiguously: an HTTP 200 can
// carry a business-level decline buried in a nested response field, and a
// non-2xx status is sometimes a transient blip that succeeds on a second
// attempt. The core therefore separates three concerns:
//
//   - Classification: per-operation policy deciding whether a raw response
//     is a business success and which provider error code it carries.
//   - Retry: exactly one retry on business failure, a distinct immediate
//     failure on transport timeout (a timed-out request may already be
//     executing server side, so retrying risks a duplicate side effect).
//   - Outcome translation: every error kind is absorbed at the facade
//     boundary into an Outcome value; only configuration defects (unknown
//     operation keys, invalid parameters) propagate as Go errors.
//
// # Usage
//
//	registry := fdr.NewRegistry()
//	if err := operations.Register(registry); err != nil {
//	    log.Fatal(err)
//	}
//
//	gw := fdr.NewGateway(fdr.GatewayConfig{
//	    Registry:  registry,
//	    Transport: soapClient,
//	    Headers:   headerProvider,
//	    Metrics:   metrics,
//	})
//
//	outcome, err := gw.Call(ctx, "get-credit-line_decision", params)
//	if err != nil {
//	    // configuration defect: unknown key or invalid parameters
//	}
//	if outcome.Succeeded() {
//	    decision := outcome.Payload
//	}
//
// The registry is immutable after startup and safe for concurrent lookup.
// Each call's retry state is stack local; the core holds no cross-call
// mutable state.
package fdr
