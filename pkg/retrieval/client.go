// Package retrieval fetches supporting document context for a query
// from the external retrieval service.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mirage-project/mirage/pkg/models"
)

// Client fetches retrieved context for a query. Implementations must be
// safe for concurrent use.
type Client interface {
	Retrieve(ctx context.Context, query string, topK int) (*models.RetrievedContext, error)
	Close() error
}

// HTTPClient talks to the retrieval service over HTTP JSON. The service
// exposes POST {baseURL}/retrieve.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTP retrieval client.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type retrieveResponse struct {
	Context string       `json:"context"`
	Sources []sourceJSON `json:"sources"`
	Error   string       `json:"error,omitempty"`
}

type sourceJSON struct {
	DocID      string  `json:"doc_id"`
	Excerpt    string  `json:"excerpt"`
	Similarity float64 `json:"similarity"`
}

// Retrieve fetches the most relevant document excerpts for the query.
// A query with no relevant documents yields an empty context, not an
// error.
func (c *HTTPClient) Retrieve(ctx context.Context, query string, topK int) (*models.RetrievedContext, error) {
	body, err := json.Marshal(retrieveRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("marshal retrieve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/retrieve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call retrieval service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read retrieval response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retrieval service returned HTTP %d", resp.StatusCode)
	}

	var out retrieveResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode retrieval response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("retrieval service error: %s", out.Error)
	}

	rc := &models.RetrievedContext{Text: out.Context}
	for _, s := range out.Sources {
		rc.Sources = append(rc.Sources, models.Source{
			DocID:      s.DocID,
			Excerpt:    s.Excerpt,
			Similarity: s.Similarity,
		})
	}
	return rc, nil
}

// Close releases idle transport connections.
func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
