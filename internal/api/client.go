// Package api provides the HTTP client for the trackfolio backend.
// All calls return a uniform success/error envelope - transport failures,
// timeouts and non-2xx statuses are normalized into *Error and never surface
// as raw Go errors to callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout is the per-call ceiling applied when the caller's context
// carries no earlier deadline.
const DefaultTimeout = 30 * time.Second

// CredentialSource supplies the bearer token attached to every call.
// Clear is invoked as a side effect whenever the server answers 401,
// independent of how the caller handles the error.
type CredentialSource interface {
	Token() string
	Clear()
}

// Result is the uniform response envelope.
type Result struct {
	Success bool
	Data    json.RawMessage
	Err     *Error
}

// Decode unmarshals the envelope data into target.
func (r Result) Decode(target any) *Error {
	if !r.Success {
		return r.Err
	}
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, target); err != nil {
		return &Error{Code: CodeNetworkError, Message: "failed to decode response body: " + err.Error()}
	}
	return nil
}

// failure builds an error envelope.
func failure(err *Error) Result {
	return Result{Success: false, Err: err}
}

// Client is the remote resource client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
	timeout    time.Duration
	log        zerolog.Logger
}

// NewClient creates a new API client.
func NewClient(baseURL string, creds CredentialSource, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		creds:      creds,
		timeout:    DefaultTimeout,
		log:        log.With().Str("component", "api_client").Logger(),
	}
}

// SetTimeout overrides the per-call timeout ceiling.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// SetBaseURL replaces the backend base URL.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// Call performs a single HTTP request and normalizes the outcome.
// method is a standard HTTP verb, path is relative to the base URL and
// payload (optional) is JSON-encoded as the request body.
func (c *Client) Call(ctx context.Context, method, path string, payload any) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return failure(&Error{Code: CodeValidationError, Message: "failed to encode request body: " + err.Error()})
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return failure(&Error{Code: CodeNetworkError, Message: "failed to build request: " + err.Error()})
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			c.log.Warn().Str("method", method).Str("path", path).Dur("timeout", c.timeout).Msg("Request timed out")
			return failure(&Error{Code: CodeTimeoutError, Message: "the request timed out"})
		}
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("Request failed")
		return failure(&Error{Code: CodeNetworkError, Message: "could not reach the server"})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(&Error{Code: CodeNetworkError, Message: "failed to read response body: " + err.Error()})
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Stored credential is no longer valid. Clearing it here is a side
		// effect independent of how the caller handles the error.
		c.creds.Clear()
		c.log.Warn().Str("path", path).Msg("Received 401, cleared stored credential")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := statusMessage(resp.StatusCode)
		if detail := serverErrorDetail(raw); detail != "" {
			msg = detail
		}
		c.log.Debug().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Msg("Server returned error status")
		return failure(&Error{
			Code:    HTTPCode(resp.StatusCode),
			Message: msg,
			Status:  resp.StatusCode,
		})
	}

	return Result{Success: true, Data: raw}
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) Result {
	return c.Call(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, payload any) Result {
	return c.Call(ctx, http.MethodPost, path, payload)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, payload any) Result {
	return c.Call(ctx, http.MethodPatch, path, payload)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) Result {
	return c.Call(ctx, http.MethodDelete, path, nil)
}

// serverErrorDetail extracts a human-readable message from a JSON error body.
// Backends answer with either {"error": "..."} or {"detail": "..."}.
func serverErrorDetail(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Detail
}

// UnwrapList tolerates both enveloped and bare list responses:
// {"<key>": [...]} as well as a top-level JSON array.
func UnwrapList(raw json.RawMessage, key string) (json.RawMessage, *Error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return raw, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &Error{Code: CodeNetworkError, Message: "failed to decode list response: " + err.Error()}
	}
	if inner, ok := envelope[key]; ok {
		return inner, nil
	}
	// Empty object means an empty collection.
	return json.RawMessage("[]"), nil
}
