// Package fdrgateway is a client core for the First-Data (FDR) card
// processing gateway. It translates domain-level calls into SOAP-style
// requests against the provider, classifies the provider's buried
// result codes into success or failure, retries business failures
// exactly once, and hands callers a uniform outcome regardless of how
// the call failed.
//
// The packages compose as follows:
//
//   - fdr holds the gateway facade, the operation registry, the
//     response classifiers and the retry controller.
//   - fdr/operations is the catalog of supported provider operations.
//   - soap is the HTTP transport speaking the provider's envelope
//     format with mutual TLS and split open/read timeouts.
//   - queue is the NATS JetStream async job path.
//   - pkg/security builds per-call auth headers and obscures account
//     identifiers before they reach error reports.
//   - config, metric and health carry the ambient concerns.
//
// Business applications embed these packages directly; cmd/fdrgateway
// runs the async worker with metrics and health probes.
package fdrgateway
