// Package notify delivers outbound events to the n8n webhook.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/metrics"
)

var (
	ErrNoWebhook   = errors.New("webhook url not configured")
	ErrServerError = errors.New("webhook server error")
)

const bodyPreviewLimit = 500

// Result is the outcome of one webhook call.
type Result struct {
	StatusCode int
	Body       string
}

// Delivered reports whether n8n accepted the payload.
func (r Result) Delivered() bool { return r.StatusCode == http.StatusOK }

type Options struct {
	URL        string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Logger     zerolog.Logger
	HTTPClient *http.Client
}

type Client struct {
	url        string
	retries    int
	retryDelay time.Duration
	http       *http.Client
	cb         *gobreaker.CircuitBreaker[Result]
	logger     zerolog.Logger
	now        func() time.Time

	Status *StatusTracker
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger.With().Str("component", "n8n-webhook").Logger()
	c := &Client{
		url:        opts.URL,
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		http:       opts.HTTPClient,
		logger:     logger,
		now:        time.Now,
		Status:     NewStatusTracker(),
	}
	c.cb = gobreaker.NewCircuitBreaker[Result](gobreaker.Settings{
		Name:        "n8n-webhook",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return c
}

func (c *Client) Configured() bool { return c.url != "" }

func (c *Client) URL() string { return c.url }

// Post sends payload as JSON. Any HTTP response is returned as a Result;
// 5xx responses and transport failures also count against the breaker.
func (c *Client) Post(ctx context.Context, payload any) (Result, error) {
	if c.url == "" {
		return Result{}, ErrNoWebhook
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("encode webhook payload: %w", err)
	}

	res, err := c.cb.Execute(func() (Result, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return Result{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return Result{}, err
		}
		defer resp.Body.Close()
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, bodyPreviewLimit))
		r := Result{StatusCode: resp.StatusCode, Body: string(preview)}
		if resp.StatusCode >= 500 {
			return r, fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
		}
		return r, nil
	})
	if errors.Is(err, ErrServerError) {
		return res, nil
	}
	return res, err
}

// IsTimeout reports whether err came from the webhook timing out.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Test posts a ping payload so operators can check the n8n connection.
func (c *Client) Test(ctx context.Context) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	res, err := c.Post(ctx, map[string]any{
		"test":      true,
		"timestamp": c.now().Format(time.RFC3339),
		"message":   "AutoAssistGroup webhook test",
	})
	metrics.RecordOutboundWebhook("test", err)
	return res, err
}
