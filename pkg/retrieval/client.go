// Package retrieval is a thin client for the hosted embedding/search service
// that indexes past recommendation records. Similarity search internals are
// the service's concern; this client only submits text and reads back ranked
// hits.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client performs semantic queries and document upserts against the
// retrieval service.
type Client interface {
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)
	Upsert(ctx context.Context, req UpsertRequest) error
}

// QueryRequest is the request body for POST /collections/{name}/query.
type QueryRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k"`
}

// QueryResponse is the ranked result of a semantic query.
type QueryResponse struct {
	Hits []Hit `json:"hits"`
}

// Hit is a single scored document.
type Hit struct {
	ID       string          `json:"id"`
	Score    float64         `json:"score"`
	Document json.RawMessage `json:"document"`
}

// UpsertRequest is the request body for POST /collections/{name}/documents.
type UpsertRequest struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Document json.RawMessage `json:"document"`
}

// StatusError reports a non-2xx response from the retrieval service. Callers
// use the code to decide whether the failure is retryable.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("retrieval: unexpected status %d: %s", e.Code, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	apiKey     string
	baseURL    string
	collection string
	http       *http.Client
}

// NewClient creates a retrieval service client scoped to one collection.
func NewClient(baseURL, apiKey, collection string, opts ...Option) Client {
	c := &httpClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		collection: collection,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	var result QueryResponse
	url := fmt.Sprintf("%s/collections/%s/query", c.baseURL, c.collection)
	if err := c.post(ctx, url, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) Upsert(ctx context.Context, req UpsertRequest) error {
	url := fmt.Sprintf("%s/collections/%s/documents", c.baseURL, c.collection)
	return c.post(ctx, url, req, nil)
}

func (c *httpClient) post(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "retrieval: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "retrieval: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "retrieval: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "retrieval: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return eris.Wrap(err, "retrieval: unmarshal response")
		}
	}
	return nil
}
