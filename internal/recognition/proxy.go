package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oliveagle/jsonpath"
)

// Proxy forwards vehicle images to the plate-recognition provider and relays
// the raw response. It carries no business logic of its own.
type Proxy struct {
	httpClient *http.Client
	retry      *RetryStrategy

	endpoint string
	token    string
}

// NewProxy creates a recognition proxy with a bounded request timeout
func NewProxy(endpoint, token string, timeout time.Duration) *Proxy {
	return &Proxy{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry:    NewRetryStrategy(RetryConfig{}),
		endpoint: endpoint,
		token:    token,
	}
}

// Recognize forwards a base64-encoded image and returns the provider's JSON
// response untouched. Transient provider failures are retried with backoff.
func (p *Proxy) Recognize(ctx context.Context, imageBase64 string) (json.RawMessage, error) {
	var lastErr error

	for attempt := 1; attempt <= p.retry.GetMaxAttempts(); attempt++ {
		body, statusCode, err := p.forward(ctx, imageBase64)

		if err == nil && statusCode >= 200 && statusCode < 300 {
			p.logTopPlate(body)
			return body, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("recognition provider returned status %d", statusCode)
		}

		if !p.retry.ShouldRetry(attempt, statusCode, err) {
			break
		}

		delay := p.retry.CalculateDelay(attempt)
		slog.Warn("Recognition call failed, retrying",
			"attempt", attempt,
			"next_retry_ms", delay.Milliseconds(),
			"error", lastErr,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// forward performs a single provider call
func (p *Proxy) forward(ctx context.Context, imageBase64 string) (json.RawMessage, int, error) {
	form := url.Values{}
	form.Set("upload", imageBase64)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create recognition request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+p.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read recognition response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// logTopPlate pulls the best candidate out of the provider JSON for
// observability only; the response body is relayed as-is either way.
func (p *Proxy) logTopPlate(body json.RawMessage) {
	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return
	}

	plate, err := jsonpath.JsonPathLookup(parsed, "$.results[0].plate")
	if err != nil {
		slog.Debug("Recognition response has no plate candidates")
		return
	}

	slog.Info("Plate recognized", "plate", plate)
}
