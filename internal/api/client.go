package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// ErrFetchFailed matches every FetchError via errors.Is.
var ErrFetchFailed = errors.New("fetch_failed")

// FetchError describes a failed backend call. Status is 0 when no response
// was received at all.
type FetchError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
	case e.Message != "":
		return fmt.Sprintf("fetch %s: status %d: %s", e.Endpoint, e.Status, e.Message)
	default:
		return fmt.Sprintf("fetch %s: status %d", e.Endpoint, e.Status)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// Unreachable reports whether the request never got a response.
func (e *FetchError) Unreachable() bool { return e.Status == 0 }

var backendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "portal_backend_requests_total",
	Help: "Backend REST calls by endpoint template and outcome.",
}, []string{"endpoint", "outcome"})

// Client talks to the ERP REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New returns a client for baseURL. A zero timeout leaves requests bounded
// only by the transport and the caller's context.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type call struct {
	method   string
	endpoint string
	path     string
	token    string
	body     interface{}
}

func (c *Client) do(ctx context.Context, req call, out interface{}) error {
	var reader io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, reader)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		backendRequests.WithLabelValues(req.endpoint, "unreachable").Inc()
		return &FetchError{Endpoint: req.endpoint, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		backendRequests.WithLabelValues(req.endpoint, "read_error").Inc()
		return &FetchError{Endpoint: req.endpoint, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		backendRequests.WithLabelValues(req.endpoint, "error").Inc()
		c.logger.Debug("backend_error",
			zap.String("endpoint", req.endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", httpReq.Header.Get("X-Request-ID")))
		return &FetchError{Endpoint: req.endpoint, Status: resp.StatusCode, Message: messageFrom(payload)}
	}
	backendRequests.WithLabelValues(req.endpoint, "ok").Inc()

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], payload...)
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &FetchError{Endpoint: req.endpoint, Status: resp.StatusCode, Err: err}
	}
	return nil
}

func messageFrom(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// GetRaw fetches a protected endpoint and returns the undecoded JSON body.
// endpoint is used both as the path and as the metrics label.
func (c *Client) GetRaw(ctx context.Context, token, endpoint string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{method: http.MethodGet, endpoint: endpoint, path: endpoint, token: token}, &raw)
	return raw, err
}
