// Package httpx is the outbound JSON transport shared by every data source
// adapter. Requests run through a per-source circuit breaker and are never
// retried: a failed call is reported once and the next poll tick tries
// again. The breaker only absorbs bursts inside one tick, so its open
// window must stay shorter than the poll interval.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"codeberg.org/mutker/thermosense/internal/errors"
	"github.com/sony/gobreaker"
)

const (
	maxBodyBytes     = 1 << 20
	breakerFailures  = 3
	// halfOpenRequests lets overlapping advisory calls through while the
	// breaker probes a recovered source.
	halfOpenRequests = 8

	// DefaultOpenTimeout is half of the default 30s poll interval.
	DefaultOpenTimeout = 15 * time.Second
)

var (
	errServerError = errors.New().WithMessage(errors.ErrSourceUnavailable, "server error")
	errUnexpected  = errors.New().WithMessage(errors.ErrSourceUnavailable, "unexpected status code")
)

// Client sends JSON requests for one data source.
type Client struct {
	name    string
	http    *http.Client
	circuit *gobreaker.CircuitBreaker
}

// Option adjusts the circuit breaker of a Client.
type Option func(*gobreaker.Settings)

// WithOpenTimeout sets how long the breaker stays open after tripping.
// Non-positive values keep DefaultOpenTimeout.
func WithOpenTimeout(d time.Duration) Option {
	return func(st *gobreaker.Settings) {
		if d > 0 {
			st.Timeout = d
		}
	}
}

// OpenTimeoutFor returns an open window that always ends before the next
// poll tick.
func OpenTimeoutFor(interval time.Duration) time.Duration {
	if interval <= 0 {
		return DefaultOpenTimeout
	}

	return interval / 2
}

// New returns a Client named after the data source it serves. A nil
// http.Client uses http.DefaultClient.
func New(name string, client *http.Client, opts ...Option) *Client {
	if client == nil {
		client = http.DefaultClient
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpenRequests,
		Interval:    0,
		Timeout:     DefaultOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
	}
	for _, opt := range opts {
		opt(&settings)
	}
	cb := gobreaker.NewCircuitBreaker(settings)

	return &Client{
		name:    name,
		http:    client,
		circuit: cb,
	}
}

// Name returns the data source name.
func (c *Client) Name() string {
	return c.name
}

// GetJSON fetches url and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.New().Wrap(errors.ErrInvalidArgument, err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

// PostJSON encodes body as JSON, posts it to url and decodes the response
// into out. Extra headers are added to the request.
func (c *Client) PostJSON(ctx context.Context, url string, body any, header http.Header, out any) error {
	errFactory := errors.New()

	payload, err := json.Marshal(body)
	if err != nil {
		return errFactory.Wrap(errors.ErrInvalidArgument, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errFactory.Wrap(errors.ErrInvalidArgument, err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	errFactory := errors.New()

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.http.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return nil, errServerError.WithData(resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, errUnexpected.WithData(resp.StatusCode)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return nil, readErr
		}

		return body, nil
	})
	if err != nil {
		if errors.HasCode(err, errors.ErrSourceUnavailable) {
			return err
		}
		return errFactory.Wrap(errors.ErrSourceUnavailable, fmt.Errorf("%s: %w", c.name, err))
	}

	body, ok := result.([]byte)
	if !ok {
		return errFactory.WithMessage(errors.ErrInternal, "unexpected result type from circuit breaker")
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errFactory.Wrap(errors.ErrMalformedResponse, fmt.Errorf("%s: %w", c.name, err))
	}

	return nil
}
