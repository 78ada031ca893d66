package notify

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
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioClient sends SMS through the Twilio Messages REST API. Each logical
// notification results in at most one provider call: there are no retries,
// and an open circuit counts as a failed attempt.
type TwilioClient struct {
	httpClient *http.Client
	breaker    *CircuitBreaker

	accountSID string
	authToken  string
	from       string
	baseURL    string
}

// NewTwilioClient creates a Twilio SMS client with a bounded request timeout
func NewTwilioClient(accountSID, authToken, from string, timeout time.Duration) *TwilioClient {
	return &TwilioClient{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		breaker:    NewCircuitBreaker(5, 2, 60*time.Second),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioAPIBase,
	}
}

// twilioResponse is the subset of the Messages API response we care about
type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"` // error description on failure
	Code    int    `json:"code"`    // error code on failure
}

// Send dispatches one SMS and returns the provider delivery SID
func (c *TwilioClient) Send(ctx context.Context, to, body string) (string, error) {
	if !c.breaker.CanAttempt() {
		slog.Warn("SMS circuit breaker is open, rejecting send",
			"to", to,
			"circuit_state", c.breaker.GetStateName(),
		)
		return "", fmt.Errorf("sms provider circuit breaker is open")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create sms request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return "", fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		c.breaker.RecordFailure()
		return "", fmt.Errorf("failed to read sms response: %w", err)
	}

	var parsed twilioResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		c.breaker.RecordFailure()
		return "", fmt.Errorf("failed to decode sms response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.breaker.RecordFailure()
		return "", fmt.Errorf("sms provider returned status %d: %s", resp.StatusCode, parsed.Message)
	}

	c.breaker.RecordSuccess()

	slog.Info("SMS dispatched",
		"to", to,
		"sid", parsed.SID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return parsed.SID, nil
}
