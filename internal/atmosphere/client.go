// Package atmosphere calls the external atmosphere-text service: a
// free-text topic goes in, generated channel text comes out. The service
// holds no state on our side and failures are not retried; the caller
// shows the member an "unavailable" response and moves on.
package atmosphere

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable is returned for any transport or service failure. The
// caller renders it as a user-visible "unavailable" response.
var ErrUnavailable = errors.New("atmosphere: service unavailable")

// DefaultTimeout bounds one generation request.
const DefaultTimeout = 15 * time.Second

// Client talks to the atmosphere-text service over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client for the service at baseURL. A zero timeout
// uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Topic string `json:"topic"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Generate requests atmosphere text for a topic.
func (c *Client) Generate(ctx context.Context, topic string) (string, error) {
	body, err := json.Marshal(generateRequest{Topic: topic})
	if err != nil {
		return "", fmt.Errorf("atmosphere.Client.Generate: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("atmosphere.Client.Generate: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("atmosphere.Client.Generate: %w", errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("atmosphere.Client.Generate: status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("atmosphere.Client.Generate: %w", errors.Join(ErrUnavailable, err))
	}
	if out.Text == "" {
		return "", fmt.Errorf("atmosphere.Client.Generate: empty response: %w", ErrUnavailable)
	}

	return out.Text, nil
}
