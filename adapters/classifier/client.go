// Package classifier - HTTP adapter for the external classification service.
//
// The service picks a 10-digit regulatory code for a product and reviews
// orange-zone risk. Both calls are fallible and slow; the client bounds
// each call with a timeout and retries a small fixed number of times
// before surfacing a classifier-unavailable error.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"customs-cost/core/express"
	"customs-cost/core/orangezone"
	"customs-cost/core/types"
	"customs-cost/internal/errors"
	"customs-cost/internal/logging"
)

// Client calls the classification service. It implements
// express.CodeSelector and orangezone.ZoneReviewer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithMaxRetries bounds silent retries of a failed call.
func WithMaxRetries(n int) Option {
	return func(cl *Client) { cl.maxRetries = n }
}

// New creates a client. A non-positive timeout defaults to 30s.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 2,
		log:        logging.Named("classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type selectCodeResponse struct {
	Code string `json:"code"`
	types.DutySpec
}

// SelectRegulatoryCode asks the service to pick a code for the product.
func (c *Client) SelectRegulatoryCode(ctx context.Context, product types.ProductContext) (express.CodeSelection, error) {
	var resp selectCodeResponse
	if err := c.post(ctx, "/v1/select-code", product, &resp); err != nil {
		return express.CodeSelection{}, errors.ClassifierUnavailable("code selection failed", err)
	}
	if resp.Code == "" {
		return express.CodeSelection{}, errors.ClassifierUnavailable("code selection returned no code", nil)
	}
	return express.CodeSelection{Code: resp.Code, Duty: resp.DutySpec}, nil
}

// ReviewOrangeZone asks the service for the orange-zone verdict.
func (c *Client) ReviewOrangeZone(ctx context.Context, req orangezone.ReviewRequest) (orangezone.Review, error) {
	var resp orangezone.Review
	if err := c.post(ctx, "/v1/review-orange-zone", req, &resp); err != nil {
		return orangezone.Review{}, errors.ClassifierUnavailable("orange-zone review failed", err)
	}
	return resp, nil
}

// post sends one JSON request with bounded retries. Only transport errors
// and 5xx responses are retried; a 4xx is a terminal protocol error.
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("retrying classifier call",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		lastErr = c.doOnce(ctx, path, body, out)
		if lastErr == nil {
			return nil
		}
		var terminal *terminalError
		if stderrors.As(lastErr, &terminal) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("classifier returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return &terminalError{status: resp.StatusCode}
	}
	return json.Unmarshal(data, out)
}

// terminalError marks a response that must not be retried.
type terminalError struct {
	status int
}

func (e *terminalError) Error() string {
	return fmt.Sprintf("classifier rejected the request with %d", e.status)
}
