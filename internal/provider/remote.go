package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/veridict/internal/model"
	"github.com/ppiankov/veridict/internal/util"
)

const remoteMaxRetries = 3

// remoteSleepFunc is the sleep function used between retries (injectable for tests)
var remoteSleepFunc = sleepContext

// sleepContext sleeps for d or until the context expires, whichever comes
// first. A cancelled call must not sit out the full backoff.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Remote scores samples against an HTTP scoring service — the deployment
// shape for the neural tamper detector and the similarity model, which run
// behind their own inference endpoints.
type Remote struct {
	name       string
	endpoint   string
	httpClient *http.Client
	maxRetries int
}

type scoreRequest struct {
	ImagePath string `json:"image_path"`
	Text      string `json:"text"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
	Error string  `json:"error,omitempty"`
}

// NewRemote builds a remote provider for the named channel.
func NewRemote(name, endpoint string, cfg model.ProvidersConfig) *Remote {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 || maxRetries > remoteMaxRetries {
		maxRetries = remoteMaxRetries
	}

	return &Remote{
		name:     name,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
		},
		maxRetries: maxRetries,
	}
}

// Name returns the channel identifier this provider serves.
func (r *Remote) Name() string { return r.name }

// Score posts the sample to the scoring endpoint, retrying transient
// failures with exponential backoff. Out-of-range and malformed responses
// are reported as ErrUnavailable so the caller can fail open.
func (r *Remote) Score(ctx context.Context, imagePath, text string) (float64, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		score, retryable, err := r.scoreOnce(ctx, imagePath, text)
		if err == nil {
			return score, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		if attempt < r.maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if remoteSleepFunc(ctx, backoff) != nil {
				break
			}
		}
	}
	return 0, fmt.Errorf("%w: %s: %v", ErrUnavailable, r.name, lastErr)
}

func (r *Remote) scoreOnce(ctx context.Context, imagePath, text string) (score float64, retryable bool, err error) {
	body, err := json.Marshal(scoreRequest{ImagePath: imagePath, Text: text})
	if err != nil {
		return 0, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		// Transport errors (timeouts, refused connections) are transient.
		return 0, true, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return 0, true, fmt.Errorf("status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return 0, true, fmt.Errorf("read body: %w", err)
	}

	var sr scoreResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return 0, false, fmt.Errorf("parse response: %w", err)
	}
	if sr.Error != "" {
		return 0, false, fmt.Errorf("service error: %s", sr.Error)
	}
	if sr.Score < 0 || sr.Score > 1 {
		return 0, false, fmt.Errorf("score %.3f outside [0,1]", sr.Score)
	}
	return sr.Score, false, nil
}
