// Package remote is the HTTP client for a remote churn prediction provider
// and the wire codec shared with this service's own provider endpoints.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/telcoguard/internal/domain/model"
)

// Default client configuration constants.
const (
	// PredictPath serves both the liveness probe (GET) and predictions (POST).
	PredictPath = "/api/predict"

	defaultCallTimeout  = 3 * time.Second
	defaultProbeTimeout = 2 * time.Second
	maxResponseBytes    = 1 << 20
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithCallTimeout bounds each prediction call.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithProbeTimeout bounds each liveness probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Client talks to a remote prediction provider.
type Client struct {
	endpoint     string
	httpClient   *http.Client
	callTimeout  time.Duration
	probeTimeout time.Duration
}

// NewClient creates a client for the provider rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("remote url must be absolute http(s), got %q", baseURL)
	}
	c := &Client{
		endpoint:     strings.TrimRight(u.String(), "/") + PredictPath,
		callTimeout:  defaultCallTimeout,
		probeTimeout: defaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		// Backstop only; per-request contexts carry the real deadlines.
		c.httpClient = &http.Client{Timeout: 2 * max(c.callTimeout, c.probeTimeout)}
	}
	return c, nil
}

// Endpoint returns the provider URL used for probes and predictions.
func (c *Client) Endpoint() string { return c.endpoint }

// Probe issues the liveness GET. Any transport failure, non-2xx status,
// undecodable body or status other than "ok" is ErrRemoteUnavailable.
func (c *Client) Probe(ctx context.Context) (ModelStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, http.NoBody)
	if err != nil {
		return ModelStatus{}, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ModelStatus{}, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ModelStatus{}, fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
	}
	var status ModelStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&status); err != nil {
		return ModelStatus{}, fmt.Errorf("%w: decode status: %w", ErrRemoteUnavailable, err)
	}
	if status.Status != StatusOK {
		return status, fmt.Errorf("%w: status %q", ErrRemoteUnavailable, status.Status)
	}
	return status, nil
}

// Ping probes the provider and reports only whether it is available.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Probe(ctx)
	return err
}

// Predict posts p to the provider. The result carries percent and tier
// only; factors are left nil for the caller to fill.
func (c *Client) Predict(ctx context.Context, p model.CustomerProfile) (model.PredictionResult, error) {
	body, err := json.Marshal(EncodeProfile(p))
	if err != nil {
		return model.PredictionResult{}, fmt.Errorf("%w: encode profile: %w", ErrRemoteCallFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.PredictionResult{}, fmt.Errorf("%w: %w", ErrRemoteCallFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.PredictionResult{}, callError(err)
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.PredictionResult{}, fmt.Errorf("%w: status %d", ErrRemoteCallFailed, resp.StatusCode)
	}

	var out PredictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		if isTimeout(err) {
			return model.PredictionResult{}, callError(err)
		}
		return model.PredictionResult{}, fmt.Errorf("%w: decode: %w", ErrMalformedRemoteResponse, err)
	}
	pct, tier, err := decodePrediction(out)
	if err != nil {
		return model.PredictionResult{}, err
	}
	return model.PredictionResult{
		ProbabilityPercent: pct,
		Tier:               tier,
		IsRemote:           true,
	}, nil
}

func callError(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %w: %w", ErrRemoteCallFailed, ErrRemoteTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrRemoteCallFailed, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBytes))
	_ = body.Close()
}
