package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// SessionSource supplies the bearer credential for outbound requests and
// accepts the teardown signal when the server rejects it. Implemented by
// the session store; the gateway never inspects session state beyond this.
type SessionSource interface {
	// Token returns the current bearer credential, or false when no
	// authenticated session exists.
	Token() (string, bool)
	// Invalidate tears the session down after a server-side 401.
	Invalidate(ctx context.Context)
}

// Request describes one outbound API call. Path is relative to the
// configured base URL (e.g. "/jobs/123").
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Attempt counts how many times this request has been dispatched.
	// A 401 only invalidates the session on the first attempt, so a
	// caller re-sending after re-authentication bumps it via Retry.
	Attempt int
}

// Retry returns a copy of the request marked as re-dispatched.
func (r Request) Retry() Request {
	r.Attempt++
	return r
}

// Response is a decoded-on-demand API response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Config holds gateway construction parameters.
type Config struct {
	BaseURL string
	Client  *http.Client
	Session SessionSource
	Logger  *slog.Logger
	Timeout time.Duration
}

// Gateway is the single component allowed to touch the Authorization
// header. It attaches the bearer credential to outbound requests and
// converts a 401 into a one-shot session invalidation.
type Gateway struct {
	baseURL string
	client  *http.Client
	session SessionSource
	logger  *slog.Logger
}

// New creates a Gateway. A nil Client falls back to a default client
// with the configured timeout.
func New(cfg Config) *Gateway {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		baseURL: cfg.BaseURL,
		client:  client,
		session: cfg.Session,
		logger:  logger,
	}
}

// Send dispatches the request and returns the response for any 2xx
// status. Non-2xx statuses and transport failures come back as a
// *RequestError; a 401 additionally invalidates the session exactly
// once per request cycle before the error is returned. There is no
// automatic retry, the caller must re-authenticate.
func (g *Gateway) Send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := g.build(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		g.logger.Warn("Request transport failure",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("error", err.Error()),
		)
		return nil, &RequestError{Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &RequestError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if httpResp.StatusCode == http.StatusUnauthorized {
		if req.Attempt == 0 && g.session != nil {
			// Invalidation must run to completion even if the caller's
			// context has been cancelled mid-flight.
			g.session.Invalidate(context.WithoutCancel(ctx))
		}
		return nil, &RequestError{
			StatusCode: httpResp.StatusCode,
			Message:    serverMessage(body),
		}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &RequestError{
			StatusCode: httpResp.StatusCode,
			Message:    serverMessage(body),
		}
	}

	return &Response{StatusCode: httpResp.StatusCode, Body: body}, nil
}

func (g *Gateway) build(ctx context.Context, req Request) (*http.Request, error) {
	target := g.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if g.session != nil {
		if bearer, ok := g.session.Token(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+bearer)
		}
	}

	return httpReq, nil
}

// serverMessage extracts the human-readable error the backend puts in
// either a "message" or an "error" field.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
