package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ovp/internal/model"
)

// Status classifies one submission result.
type Status int

const (
	// StatusAccepted: downstream created the order and assigned a reference.
	StatusAccepted Status = iota
	// StatusAlreadyExists: downstream had already accepted this identifier.
	// Treated as an idempotent success, not a failure.
	StatusAlreadyExists
	// StatusRejected: explicit business rejection, never retried.
	StatusRejected
	// StatusTransientFailure: retries exhausted on network/timeout/5xx.
	StatusTransientFailure
)

// Result is the terminal outcome of one Submit call.
type Result struct {
	Status    Status
	Reference string
	Reason    string
	Attempts  int // attempts actually made, including the successful one
}

// apiResponse is the downstream create-order response body.
type apiResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Reason    string `json:"reason,omitempty"`
}

// Client submits orders to the downstream acceptance service with bounded
// linear-backoff retry. The sleep hook exists so tests can observe the
// backoff schedule without real delays.
type Client struct {
	baseURL  string
	attempts int
	backoff  time.Duration
	http     *http.Client
	sleep    func(time.Duration)
}

// Option mutates a Client at construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithSleep overrides the backoff sleep (tests inject a recorder here).
func WithSleep(fn func(time.Duration)) Option { return func(c *Client) { c.sleep = fn } }

// NewClient builds a submission client. attempts is the total attempt count
// including the first; backoff is the linear base unit (attempt n waits
// n*backoff before the next try).
func NewClient(baseURL string, attempts int, backoff time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		attempts: attempts,
		backoff:  backoff,
		http:     &http.Client{Timeout: 5 * time.Second},
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit runs the bounded retry state machine for one order. Business
// rejections short-circuit; transient causes are retried with linear backoff
// until attempts are exhausted.
func (c *Client) Submit(ctx context.Context, o model.OrderRecord) Result {
	var lastCause string
	for attempt := 1; attempt <= c.attempts; attempt++ {
		res, transientCause := c.attemptOnce(ctx, o)
		if transientCause == "" {
			res.Attempts = attempt
			return res
		}
		lastCause = transientCause
		if attempt < c.attempts {
			c.sleep(time.Duration(attempt) * c.backoff)
		}
	}
	return Result{Status: StatusTransientFailure, Reason: "transient failure: " + lastCause, Attempts: c.attempts}
}

// attemptOnce performs a single HTTP attempt. A non-empty second return is a
// transient cause; otherwise the Result is terminal.
func (c *Client) attemptOnce(ctx context.Context, o model.OrderRecord) (Result, string) {
	body, err := json.Marshal(o)
	if err != nil {
		return Result{Status: StatusRejected, Reason: fmt.Sprintf("encode order: %v", err)}, ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return Result{}, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err.Error()
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err.Error()
	}

	switch {
	case resp.StatusCode == http.StatusCreated:
		var ar apiResponse
		_ = json.Unmarshal(data, &ar)
		return Result{Status: StatusAccepted, Reference: ar.Reference, Reason: "created"}, ""
	case resp.StatusCode == http.StatusOK:
		var ar apiResponse
		_ = json.Unmarshal(data, &ar)
		if ar.Status == "exists" {
			return Result{Status: StatusAlreadyExists, Reference: ar.Reference, Reason: "already exists downstream"}, ""
		}
		return Result{Status: StatusAccepted, Reference: ar.Reference, Reason: "created"}, ""
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var ar apiResponse
		_ = json.Unmarshal(data, &ar)
		reason := ar.Reason
		if reason == "" {
			reason = "downstream validation error"
		}
		return Result{Status: StatusRejected, Reason: reason}, ""
	case resp.StatusCode >= 500:
		return Result{}, fmt.Sprintf("server error %d", resp.StatusCode)
	default:
		return Result{Status: StatusRejected, Reason: fmt.Sprintf("downstream error %d", resp.StatusCode)}, ""
	}
}
