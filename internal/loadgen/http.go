package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/okian/telcoguard/internal/adapters/remote"
	"github.com/okian/telcoguard/internal/domain/model"
	"github.com/okian/telcoguard/pkg/logger"
)

const (
	predictionsPath = "/v1/predictions"
	healthPath      = "/healthz"
	sessionHeader   = "X-Session-ID"
	maxBodyBytes    = 1 << 20
)

// Prediction is the subset of the prediction response the tool checks.
type Prediction struct {
	RequestID          string `json:"request_id"`
	ProbabilityPercent int    `json:"probability_percent"`
	RiskTier           string `json:"risk_tier"`
	Factors            []struct {
		Code string `json:"code"`
	} `json:"factors"`
	IsRemote       bool   `json:"is_remote"`
	FallbackReason string `json:"fallback_reason"`
}

// FactorCodes lists the factor codes in response order.
func (p Prediction) FactorCodes() []string {
	codes := make([]string, len(p.Factors))
	for i, f := range p.Factors {
		codes[i] = f.Code
	}
	return codes
}

// outcome classifies one submission.
type outcome int

// The zero value is a failure so undispatched slots need no fixup.
const (
	outcomeFailed outcome = iota
	outcomeServed
	outcomeSuperseded
	outcomeRejected
)

// submission pairs a profile with what the service answered.
type submission struct {
	index      int
	profile    model.CustomerProfile
	outcome    outcome
	prediction Prediction
}

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Predict posts p and decodes the prediction on success.
func (c *HTTPClient) Predict(ctx context.Context, session string, p model.CustomerProfile) (outcome, Prediction) {
	body, err := json.Marshal(remote.EncodeProfile(p))
	if err != nil {
		return outcomeFailed, Prediction{}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictionsPath, bytes.NewReader(body))
	if err != nil {
		return outcomeFailed, Prediction{}
	}
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(sessionHeader, session)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return outcomeFailed, Prediction{}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return outcomeFailed, Prediction{}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var pred Prediction
		if err := json.Unmarshal(data, &pred); err != nil {
			return outcomeFailed, Prediction{}
		}
		return outcomeServed, pred
	case resp.StatusCode == http.StatusConflict:
		return outcomeSuperseded, Prediction{}
	default:
		return outcomeRejected, Prediction{}
	}
}

// submitProfiles posts every profile with a pool of workers and returns
// the submissions in input order.
func submitProfiles(ctx context.Context, config *Config, profiles []model.CustomerProfile) []submission {
	log := logger.Get()
	log.Info(ctx, "submitting profiles", logger.Int("count", len(profiles)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.BaseURL, config.Timeout)
	results := make([]submission, len(profiles))
	indexes := make(chan int, config.Workers*WorkerChannelMultiplier)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
		last = time.Now()
	)
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				session := ""
				if config.Sessions > 0 {
					session = "loadgen-" + strconv.Itoa(i%config.Sessions)
				}
				out, pred := client.Predict(ctx, session, profiles[i])
				results[i] = submission{index: i, profile: profiles[i], outcome: out, prediction: pred}

				mu.Lock()
				done++
				if time.Since(last) >= ProgressInterval {
					last = time.Now()
					log.Info(ctx, "progress", logger.Int("submitted", done), logger.Int("total", len(profiles)))
				}
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := range profiles {
			select {
			case <-ctx.Done():
				return
			case indexes <- i:
			}
		}
	}()
	wg.Wait()
	return results
}
