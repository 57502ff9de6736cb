package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPLLMClient talks to the LLM completion service over HTTP JSON.
// The service exposes POST {baseURL}/v1/complete.
type HTTPLLMClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewHTTPLLMClient creates an HTTP LLM client. model may be empty; the
// service then uses its configured default.
func NewHTTPLLMClient(baseURL, model string) *HTTPLLMClient {
	return &HTTPLLMClient{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type completeRequest struct {
	Model     string `json:"model,omitempty"`
	System    string `json:"system"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type completeResponse struct {
	Text           string   `json:"text"`
	SelfConfidence *float64 `json:"self_confidence,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Complete sends one completion request. The per-call timeout is
// enforced by the caller's context.
func (c *HTTPLLMClient) Complete(ctx context.Context, system, user string, opts CompleteOptions) (*Completion, error) {
	body, err := json.Marshal(completeRequest{
		Model:     c.model,
		System:    system,
		Prompt:    user,
		MaxTokens: opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/complete", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call LLM service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read LLM response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM service returned HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var out completeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode LLM response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("LLM service error: %s", out.Error)
	}

	return &Completion{Text: out.Text, SelfConfidence: out.SelfConfidence}, nil
}

// Close releases idle transport connections.
func (c *HTTPLLMClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
