// Package health provides readiness reporting for the gateway process:
// named checkers over its collaborators (broker connection, transport
// configuration) aggregated into one status, exposed over HTTP alongside
// the metrics endpoint.
//
// Status messages are sanitized before leaving the process. Endpoint URLs,
// file paths, addresses and anything credential-shaped are redacted, so a
// checker can embed a raw error without leaking topology or secrets to
// whatever scrapes the probe.
package health

import (
	"regexp"
	"strings"
	"time"
)

var (
	httpURLRegex    = regexp.MustCompile(`https?://[^\s]+`)
	natsURLRegex    = regexp.MustCompile(`nats://[^\s]+`)
	unixPathRegex   = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	ipAddrRegex     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex       = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status is the health state of one component or of the whole process.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

// HealthyStatus builds a healthy status for a component.
func HealthyStatus(component string) Status {
	return Status{
		Component: component,
		Healthy:   true,
		Timestamp: time.Now(),
	}
}

// UnhealthyStatus builds an unhealthy status. The message is sanitized.
func UnhealthyStatus(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   false,
		Message:   sanitizeMessage(message),
		Timestamp: time.Now(),
	}
}

// sanitizeMessage removes URLs, paths, addresses and credential-shaped
// fragments from a message before it can be served to a probe.
func sanitizeMessage(msg string) string {
	if msg == "" {
		return ""
	}

	sanitized := msg

	// URLs first, they contain paths.
	sanitized = httpURLRegex.ReplaceAllString(sanitized, "[URL]")
	sanitized = natsURLRegex.ReplaceAllString(sanitized, "[URL]")

	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = portRegex.ReplaceAllString(sanitized, "[PORT]")

	lower := strings.ToLower(sanitized)
	if strings.Contains(lower, "password") || strings.Contains(lower, "token") ||
		strings.Contains(lower, "key") || strings.Contains(lower, "secret") ||
		strings.Contains(lower, "credential") {
		sanitized = credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
	}

	return sanitized
}
