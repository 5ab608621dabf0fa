package memory

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

/*
SearchRequest is the wire-level shape of a long-term search. Exactly one of
Scope or Query is set: Scope constrains the search to a single thread's
continuity memory, Query asks for cross-session semantic ranking. Mixing the
two is a programming error, which is why only Recall builds these values.
*/
type SearchRequest struct {
	Scope string `json:"scope,omitempty"`
	Query string `json:"query,omitempty"`
	Limit int    `json:"limit"`
}

// SearchResult is a single ranked snippet as returned by the remote store.
type SearchResult struct {
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance_score"`
	Source    string  `json:"source"`
}

// Searcher is the boundary to the remote transcript/vault search service.
type Searcher interface {
	Search(ctx context.Context, callsign string, req SearchRequest) ([]SearchResult, error)
}

// RecallOptions select between the two retrieval modes.
type RecallOptions struct {
	// ThreadID scopes the search to one thread's continuity memory. Used
	// only when QueryText is empty.
	ThreadID string
	// QueryText switches to a cross-session semantic search. When set, the
	// thread scope is dropped entirely.
	QueryText string
}

/*
Recall adapts the remote search service into the long-term retrieval tier.
It owns the dual-mode request construction: thread-scoped continuity recall
when no query text is given, cross-session semantic recall when it is.
*/
type Recall struct {
	store   Searcher
	timeout time.Duration
}

// NewRecall wires a Recall over the given store. timeout bounds each remote
// call; <= 0 selects 5 seconds.
func NewRecall(store Searcher, timeout time.Duration) *Recall {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recall{store: store, timeout: timeout}
}

/*
Query retrieves at most maxEntries ranked snippets for the construct. Remote
failure or timeout yields an empty, degraded result rather than an error:
the packed context is still usable without long-term memory, and the caller
decides whether degradation is worth surfacing.
*/
func (r *Recall) Query(ctx context.Context, constructID string, opts RecallOptions, maxEntries int) RecallResult {
	if r.store == nil {
		return RecallResult{Entries: []RecallEntry{}, Degraded: true}
	}
	if maxEntries <= 0 {
		maxEntries = 5
	}

	req := r.buildRequest(opts, maxEntries)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results, err := r.store.Search(ctx, constructID, req)
	if err != nil {
		log.Warn("long-term recall degraded",
			"construct", constructID,
			"scoped", req.Scope != "",
			"error", err,
		)
		return RecallResult{Entries: []RecallEntry{}, Degraded: true}
	}

	if len(results) > maxEntries {
		results = results[:maxEntries]
	}

	entries := make([]RecallEntry, 0, len(results))
	for _, res := range results {
		entries = append(entries, RecallEntry{
			Snippet:   res.Snippet,
			Relevance: res.Relevance,
			Source:    res.Source,
		})
	}

	return RecallResult{Entries: entries}
}

// buildRequest enforces mode exclusivity: a request carries a thread scope
// or free query text, never both.
func (r *Recall) buildRequest(opts RecallOptions, limit int) SearchRequest {
	if opts.QueryText != "" {
		return SearchRequest{Query: opts.QueryText, Limit: limit}
	}
	return SearchRequest{Scope: "thread:" + opts.ThreadID, Limit: limit}
}
