package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client wraps the transcript/vault service endpoint.
type Client struct {
	Endpoint   string // e.g. http://localhost:7700
	httpClient *http.Client
}

// New returns a Client with sane defaults.
func New(endpoint string) *Client {
	return &Client{
		Endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// SearchRequest mirrors the service's search payload. Exactly one of Scope
// or Query should be set; the service treats a scoped request as continuity
// recall for one thread and a query request as cross-session semantic search.
type SearchRequest struct {
	Scope string `json:"scope,omitempty"`
	Query string `json:"query,omitempty"`
	Limit int    `json:"limit"`
}

// Snippet is one ranked result from a search.
type Snippet struct {
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance_score"`
	Source    string  `json:"source"`
}

// StoreResult reports the outcome of persisting an exchange. Duplicate means
// the service recognized the exchange and skipped writing it again.
type StoreResult struct {
	OK        bool `json:"ok"`
	Duplicate bool `json:"duplicate"`
}

// Search runs a ranked snippet search for the construct callsign.
func (client *Client) Search(ctx context.Context, callsign string, request SearchRequest) ([]Snippet, error) {
	b, _ := json.Marshal(request)

	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/constructs/%s/search", client.Endpoint, callsign),
		bytes.NewReader(b),
	)

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vault: search status %s", resp.Status)
	}

	var out struct {
		Results []Snippet `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	return out.Results, nil
}

// Store persists a packed context + response exchange for the construct.
func (client *Client) Store(
	ctx context.Context, callsign, packedContext, response string, metadata map[string]any,
) (StoreResult, error) {
	body := map[string]any{
		"context":  packedContext,
		"response": response,
		"metadata": metadata,
	}

	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/constructs/%s/transcripts", client.Endpoint, callsign),
		bytes.NewReader(b),
	)

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)

	if err != nil {
		return StoreResult{}, err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return StoreResult{}, fmt.Errorf("vault: store status %s", resp.Status)
	}

	var out StoreResult

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return StoreResult{}, err
	}

	return out, nil
}

// ReadCapsule fetches the raw capsule bundle for a construct. A missing
// capsule is a valid result, reported as (nil, nil).
func (client *Client) ReadCapsule(ctx context.Context, constructID string) (json.RawMessage, error) {
	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/constructs/%s/capsule", client.Endpoint, constructID),
		nil,
	)

	resp, err := client.httpClient.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vault: capsule status %s", resp.Status)
	}

	var out struct {
		Capsule json.RawMessage `json:"capsule"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	return out.Capsule, nil
}
