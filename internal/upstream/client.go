// Package upstream is the JSON/HTTP client for the external exam scheduler
// backend. The gateway never owns scheduling data; every mutation and fetch
// goes through this client, with the caller's Authorization header forwarded
// verbatim.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-console-api/pkg/config"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
)

// Observer receives timing for completed upstream calls.
type Observer interface {
	ObserveUpstreamRequest(endpoint string, success bool, duration time.Duration)
}

// Client talks to the scheduler backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	streaming  *http.Client
	logger     *zap.Logger
	observer   Observer
}

// NewClient builds a Client from gateway configuration.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger, observer Observer) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	streamTimeout := cfg.StreamTimeout
	if streamTimeout <= 0 {
		streamTimeout = 10 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		streaming:  &http.Client{Timeout: streamTimeout},
		logger:     logger,
		observer:   observer,
	}
}

// envelope is the backend's common response wrapper. Individual fields are
// optional depending on the endpoint.
type envelope struct {
	Success  *bool           `json:"success,omitempty"`
	Message  string          `json:"message,omitempty"`
	Conflict bool            `json:"conflict,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`

	AllSuggestions []suggestionWire `json:"all_suggestions,omitempty"`
	BestSuggestion *suggestionWire  `json:"best_suggestion,omitempty"`

	Students json.RawMessage `json:"students,omitempty"`
}

// do issues one JSON request and decodes the backend envelope. A nil return
// with Success=false never happens: business rejections come back as typed
// errors, conflicts come back inside the envelope.
func (c *Client) do(ctx context.Context, method, path, auth string, body interface{}) (*envelope, error) {
	start := time.Now()
	env, err := c.roundTrip(ctx, method, path, auth, body)
	if c.observer != nil {
		c.observer.ObserveUpstreamRequest(endpointLabel(method, path), err == nil, time.Since(start))
	}
	return env, err
}

func (c *Client) roundTrip(ctx context.Context, method, path, auth string, body interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode upstream request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build upstream request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read upstream response")
	}

	env := &envelope{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode upstream response")
			}
			// Non-2xx without a structured body is a transport-level failure.
			return nil, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("scheduler backend returned %d", resp.StatusCode))
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if env.Message != "" {
			return nil, appErrors.Clone(appErrors.ErrUpstreamReject, env.Message)
		}
		return nil, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("scheduler backend returned %d", resp.StatusCode))
	}

	// Business rejection: the backend answered 2xx but declined the request.
	// The message is surfaced verbatim so the user can correct and retry.
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = appErrors.ErrUpstreamReject.Message
		}
		return nil, appErrors.Clone(appErrors.ErrUpstreamReject, msg)
	}

	return env, nil
}

func endpointLabel(method, path string) string {
	return method + " " + path
}

func decodeData(env *envelope, dest interface{}) error {
	if env == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode upstream payload")
	}
	return nil
}
