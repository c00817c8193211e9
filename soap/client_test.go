package soap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/fdrgateway/errors"
	"github.com/c360/fdrgateway/fdr"
	"github.com/c360/fdrgateway/pkg/security"
)

func testOp() fdr.Operation {
	return fdr.Operation{
		Key:       "issue-letter_account",
		Namespace: "ltr",
		Action:    "issue_letter",
		Retryable: true,
	}
}

func testHeader() security.Header {
	return security.Header{
		Token:   "token",
		Nonce:   "nonce",
		Created: "2024-06-01T12:00:00Z",
		Digest:  "digest",
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "endpoint is required")

	cfg.Endpoint = "https://fdr.example.com/gateway"
	assert.NoError(t, cfg.Validate())

	cfg.RateLimit = -1
	assert.Error(t, cfg.Validate())
}

func TestClient_CallSuccess(t *testing.T) {
	var captured envelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "ltr/issue_letter", r.Header.Get("SOAPAction"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"issue_letter_response_element":{"response_message":{"result_message_code":"0"}}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	require.NoError(t, err)

	message := map[string]any{"issue_letter_request_element": map[string]any{"letter_code": "L042"}}
	resp, err := client.Call(context.Background(), testOp(), message, testHeader())
	require.NoError(t, err)

	assert.Equal(t, 200, resp.Status)
	element, ok := resp.Body["issue_letter_response_element"].(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, element["response_message"])

	// The envelope carries the auth header and the namespaced action.
	assert.Equal(t, "ltr", captured.Header.Namespace)
	assert.Equal(t, "issue_letter", captured.Header.Action)
	assert.Equal(t, "token", captured.Header.Token)
	assert.Equal(t, message, captured.Body)
}

func TestClient_Non2xxNonJSONBodyStillClassifiable(t *testing.T) {
	// A proxy 503 HTML page is not a transport error: the status must
	// reach the classifier so the default policy can fail (and retry) it.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("<html>upstream unavailable</html>"))
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	require.NoError(t, err)

	resp, err := client.Call(context.Background(), testOp(), nil, testHeader())
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Nil(t, resp.Body)
}

func TestClient_Malformed2xxBodyIsParsingError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("definitely not json"))
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Call(context.Background(), testOp(), nil, testHeader())
	require.Error(t, err)
	assert.True(t, errors.IsParsing(err))
	assert.ErrorIs(t, err, errors.ErrMalformedResponse)
}

func TestClient_ReadTimeoutClassified(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client, err := NewClient(Config{
		Endpoint:    server.URL,
		ReadTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.Call(context.Background(), testOp(), nil, testHeader())
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.ErrorIs(t, err, errors.ErrTransportTimeout)
}

func TestClient_BodyStallClassifiedAsTimeout(t *testing.T) {
	// The provider sends headers and half a JSON body, then stalls. The
	// attempt budget must cut the body read off and surface a timeout.
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"issue_letter_response_element":{"response_`))
		w.(http.Flusher).Flush()
		<-block
	}))
	defer server.Close()
	defer close(block)

	client, err := NewClient(Config{
		Endpoint:    server.URL,
		OpenTimeout: 50 * time.Millisecond,
		ReadTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Call(context.Background(), testOp(), nil, testHeader())
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.ErrorIs(t, err, errors.ErrTransportTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_ContextDeadlineClassifiedAsTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client, err := NewClient(Config{Endpoint: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Call(ctx, testOp(), nil, testHeader())
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
}

func TestClient_ConnectionRefusedIsNotTimeout(t *testing.T) {
	// Nothing listens on this port; a refused connection stays
	// retry-eligible rather than short-circuiting as a timeout.
	client, err := NewClient(Config{Endpoint: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = client.Call(context.Background(), testOp(), nil, testHeader())
	require.Error(t, err)
	assert.False(t, errors.IsTimeout(err))
	assert.ErrorIs(t, err, errors.ErrConnectionFailed)
}

func TestClient_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	require.NoError(t, err)

	resp, err := client.Call(context.Background(), testOp(), nil, testHeader())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Nil(t, resp.Body)
}

func TestClient_RateLimiterDelaysSecondCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Endpoint:  server.URL,
		RateLimit: 20, // 50ms between calls
		Burst:     1,
	})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Call(context.Background(), testOp(), nil, testHeader())
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}
