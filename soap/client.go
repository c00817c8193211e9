// Package soap implements the fdr.Transport collaborator over the
// provider's HTTP binding: one POST per attempt carrying a SOAP-style
// envelope, with separate connection-open and response-read timeouts and
// an outbound rate limiter.
package soap

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/fdrgateway/errors"
	"github.com/c360/fdrgateway/fdr"
	"github.com/c360/fdrgateway/pkg/security"
)

// Config holds configuration for the transport client.
type Config struct {
	// Endpoint is the provider's gateway URL.
	Endpoint string
	// OpenTimeout bounds connection establishment (dial + TLS handshake).
	OpenTimeout time.Duration
	// ReadTimeout bounds the wait for response headers once the request
	// has been written. Together with OpenTimeout it also caps the whole
	// attempt, so a provider stalling mid-body times out rather than
	// holding the call open.
	ReadTimeout time.Duration
	// RateLimit caps outbound calls per second. Zero disables limiting.
	RateLimit float64
	// Burst is the limiter burst size; defaults to 1 when limiting is on.
	Burst int
	// TLS is the client TLS configuration, typically built by
	// tlsutil.LoadClientTLSConfig with the issued client certificate.
	// Nil uses the default verification against the system pool.
	TLS *tls.Config
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.WrapConfiguration(errors.ErrMissingConfig, "Config", "Validate", "endpoint is required")
	}
	if _, err := url.Parse(c.Endpoint); err != nil {
		return errors.WrapConfiguration(err, "Config", "Validate", "endpoint format")
	}
	if c.OpenTimeout < 0 || c.ReadTimeout < 0 {
		return errors.WrapConfiguration(errors.ErrInvalidConfig, "Config", "Validate",
			"timeouts must not be negative")
	}
	if c.RateLimit < 0 {
		return errors.WrapConfiguration(errors.ErrInvalidConfig, "Config", "Validate",
			"rate limit must not be negative")
	}
	return nil
}

// DefaultConfig returns default configuration for the transport client.
func DefaultConfig() Config {
	return Config{
		OpenTimeout: 10 * time.Second,
		ReadTimeout: 30 * time.Second,
	}
}

// envelope is the wire shape of one request: auth header and namespaced
// action around the operation's message body.
type envelope struct {
	Header envelopeHeader `json:"header"`
	Body   map[string]any `json:"body"`
}

type envelopeHeader struct {
	Namespace string `json:"namespace"`
	Action    string `json:"action"`
	Token     string `json:"token"`
	Nonce     string `json:"nonce"`
	Created   string `json:"created"`
	Digest    string `json:"digest"`
}

// Client issues FDR transport calls. It implements fdr.Transport.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	// callTimeout caps one whole attempt: dial, request write, header
	// wait and body read.
	callTimeout time.Duration
}

// NewClient creates a transport client from configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	openTimeout := cfg.OpenTimeout
	if openTimeout == 0 {
		openTimeout = 10 * time.Second
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}

	dialer := &net.Dialer{Timeout: openTimeout}
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			TLSClientConfig:       cfg.TLS,
			TLSHandshakeTimeout:   openTimeout,
			ResponseHeaderTimeout: readTimeout,
		},
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		endpoint:    cfg.Endpoint,
		httpClient:  httpClient,
		limiter:     limiter,
		callTimeout: openTimeout + readTimeout,
	}, nil
}

// Call implements fdr.Transport. Connection-open and response-read
// timeouts surface as errors.ErrTransportTimeout so the retry controller
// can take its no-retry path; other network failures surface as
// errors.ErrConnectionFailed and stay retry-eligible.
func (c *Client) Call(
	ctx context.Context,
	op fdr.Operation,
	message map[string]any,
	header security.Header,
) (fdr.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fdr.Response{}, errors.WrapUnexpected(err, "Client", "Call", "rate limiter wait")
		}
	}

	// The per-attempt budget starts after any limiter wait. It covers the
	// body read, which ResponseHeaderTimeout does not.
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	payload, err := json.Marshal(envelope{
		Header: envelopeHeader{
			Namespace: op.Namespace,
			Action:    op.Action,
			Token:     header.Token,
			Nonce:     header.Nonce,
			Created:   header.Created,
			Digest:    header.Digest,
		},
		Body: message,
	})
	if err != nil {
		return fdr.Response{}, errors.WrapUnexpected(err, "Client", "Call", "envelope encoding")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fdr.Response{}, errors.WrapUnexpected(err, "Client", "Call", "request build")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("SOAPAction", fmt.Sprintf("%s/%s", op.Namespace, op.Action))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fdr.Response{}, errors.WrapTimeout(
				fmt.Errorf("%w: %v", errors.ErrTransportTimeout, err),
				"Client", "Call", op.Action)
		}
		return fdr.Response{}, errors.WrapUnexpected(
			fmt.Errorf("%w: %v", errors.ErrConnectionFailed, err),
			"Client", "Call", op.Action)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return fdr.Response{}, errors.WrapTimeout(
				fmt.Errorf("%w: %v", errors.ErrTransportTimeout, err),
				"Client", "Call", op.Action)
		}
		return fdr.Response{}, errors.WrapUnexpected(
			fmt.Errorf("%w: %v", errors.ErrConnectionFailed, err),
			"Client", "Call", op.Action)
	}

	var body map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			// Error pages from intermediate proxies are not JSON; a non-2xx
			// with an unreadable body is still a classifiable response. An
			// unreadable 2xx body is a provider contract change.
			if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
				return fdr.Response{}, errors.WrapParsing(
					fmt.Errorf("%w: %v", errors.ErrMalformedResponse, err),
					"Client", "Call", op.Action)
			}
			body = nil
		}
	}

	return fdr.Response{Status: resp.StatusCode, Body: body}, nil
}

// isTimeout reports whether a transport error is a connection-open or
// response-read timeout.
func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
