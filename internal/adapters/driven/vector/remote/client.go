// Package remote implements the vector bridge against a remote index
// service over HTTP. The wire format matches the /vectors endpoints served
// by the HTTP API, so one deployment's index can back another's retrieval.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// DefaultTimeout bounds each request to the remote index.
const DefaultTimeout = 30 * time.Second

// Ensure Client implements the interface.
var _ driven.VectorStore = (*Client)(nil)

// Client talks to a remote vector index service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the index service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type storeRequest struct {
	Text     string            `json:"text"`
	URL      string            `json:"url,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type storeResponse struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

type searchRequest struct {
	Query    string  `json:"query"`
	TopK     int     `json:"top_k"`
	MinScore float64 `json:"min_score"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	DocumentID string            `json:"document_id"`
	Text       string            `json:"text"`
	Score      float64           `json:"score"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type documentResponse struct {
	DocumentID string            `json:"document_id"`
	Text       string            `json:"text"`
	ChunkCount int               `json:"chunk_count"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Store sends the document to the remote index and returns the number of
// chunks the service reported.
func (c *Client) Store(ctx context.Context, doc *domain.Document) (int, error) {
	metadata := map[string]string{
		"original_id": doc.Fingerprint,
		"source_id":   doc.SourceID,
	}
	if doc.SourceName != "" {
		metadata["source_name"] = doc.SourceName
	}
	if doc.Title != "" {
		metadata["title"] = doc.Title
	}
	if doc.URL != "" {
		metadata["url"] = doc.URL
	}

	var resp storeResponse
	err := c.post(ctx, "/vectors/documents", storeRequest{
		Text:     doc.Content,
		URL:      doc.URL,
		Metadata: metadata,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Chunks, nil
}

// Search queries the remote index.
func (c *Client) Search(ctx context.Context, query string, topK int, minScore float64) ([]domain.VectorMatch, error) {
	var resp searchResponse
	err := c.post(ctx, "/vectors/search", searchRequest{
		Query:    query,
		TopK:     topK,
		MinScore: minScore,
	}, &resp)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.VectorMatch, 0, len(resp.Results))
	for _, r := range resp.Results {
		matches = append(matches, domain.VectorMatch{
			DocumentID: r.DocumentID,
			Text:       r.Text,
			Title:      r.Metadata["title"],
			URL:        r.Metadata["url"],
			Score:      r.Score,
			Metadata:   r.Metadata,
		})
	}
	return matches, nil
}

// Get fetches a single indexed document by its remote identifier.
func (c *Client) Get(ctx context.Context, documentID string) (*domain.IndexedDocument, error) {
	endpoint := c.baseURL + "/vectors/documents/" + url.PathEscape(documentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vector index request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, c.statusError(httpResp)
	}

	var resp documentResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &domain.IndexedDocument{
		ID:         resp.DocumentID,
		Text:       resp.Text,
		ChunkCount: resp.ChunkCount,
		Metadata:   resp.Metadata,
	}, nil
}

// Clear wipes the remote index.
func (c *Client) Clear(ctx context.Context) error {
	return c.post(ctx, "/vectors/cleardb", struct{}{}, nil)
}

// post sends a JSON request and, when out is non-nil, decodes the JSON
// response into it.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vector index request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return c.statusError(httpResp)
	}
	if out == nil {
		io.Copy(io.Discard, httpResp.Body)
		return nil
	}
	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	var apiErr errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("vector index returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("vector index returned status %d", resp.StatusCode)
}
