package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a client for the comment classifier service. Classification is
// a single synchronous text-in, verdict-out call; the client never caches.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClassifyRequest represents a single comment classification request.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// ClassifyResponse represents the classification result.
type ClassifyResponse struct {
	IsHarmful bool `json:"isHarmful"`
}

// NewClient creates a new classifier client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Classify judges one comment's text. Any transport, status, or decode
// failure is returned as an error; callers must treat an error as "not yet
// classified", never as a safe verdict. One transient retry is attempted
// before giving up; the comment stays unanalyzed for the next sync after
// that.
func (c *Client) Classify(ctx context.Context, text string) (bool, error) {
	harmful, err := c.classifyOnce(ctx, text)
	if err == nil || ctx.Err() != nil {
		return harmful, err
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(200 * time.Millisecond):
	}
	return c.classifyOnce(ctx, text)
}

func (c *Client) classifyOnce(ctx context.Context, text string) (bool, error) {
	reqBody := ClassifyRequest{
		Text: text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewBuffer(jsonData))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(body))
	}

	var result ClassifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.IsHarmful, nil
}
