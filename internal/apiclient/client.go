// Package apiclient talks to the shop's REST API.
package apiclient

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

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrUnauthorized = errors.New("shop api rejected the token")
	ErrUnavailable  = errors.New("shop api unavailable")
)

// APIError is a non-2xx answer from the shop API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("shop api: status %d", e.Status)
	}
	return fmt.Sprintf("shop api: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// TokenSource hands out a bearer token on demand.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	TerminalID string
	// Transport overrides the instrumented default, mainly for tests.
	Transport http.RoundTripper
}

type Client struct {
	baseURL    string
	terminalID string
	http       *http.Client
	tokens     TokenSource
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        logrus.FieldLogger
}

func New(cfg Config, tokens TokenSource, log logrus.FieldLogger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	settings := gobreaker.Settings{
		Name:        "shop-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 4xx answers mean the API is up; only transport and 5xx errors trip.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
		},
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		terminalID: cfg.TerminalID,
		http:       &http.Client{Timeout: cfg.Timeout, Transport: transport},
		tokens:     tokens,
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
		log:        log.WithField("module", "apiclient"),
	}
}

// do sends one request and decodes a JSON answer into out (when non-nil).
// A 401 drops the cached token and retries once with a fresh one.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	data, err := c.send(ctx, method, path, payload)
	if errors.Is(err, ErrUnauthorized) && c.tokens != nil {
		c.tokens.Invalidate()
		data, err = c.send(ctx, method, path, payload)
	}
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.terminalID != "" {
		req.Header.Set("X-Terminal-ID", c.terminalID)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("obtain bearer token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(started).String(),
	}).Debug("shop api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// unwrapList accepts a bare JSON array or an envelope with "content" or "items".
func unwrapList[T any](data json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var env struct {
		Content json.RawMessage `json:"content"`
		Items   json.RawMessage `json:"items"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	for _, inner := range []json.RawMessage{env.Content, env.Items, env.Data} {
		if t := bytes.TrimSpace(inner); len(t) > 0 && t[0] == '[' {
			var out []T
			if err := json.Unmarshal(t, &out); err != nil {
				return nil, err
			}
			return out, nil
		}
	}
	return []T{}, nil
}
