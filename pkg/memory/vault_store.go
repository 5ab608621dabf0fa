package memory

import (
	"context"

	"github.com/theapemachine/animus/pkg/stores/vault"
)

// VaultSearcher implements Searcher over the vault HTTP client.
type VaultSearcher struct {
	client *vault.Client
}

func NewVaultSearcher(client *vault.Client) *VaultSearcher {
	return &VaultSearcher{client: client}
}

func (s *VaultSearcher) Search(ctx context.Context, callsign string, req SearchRequest) ([]SearchResult, error) {
	snippets, err := s.client.Search(ctx, callsign, vault.SearchRequest{
		Scope: req.Scope,
		Query: req.Query,
		Limit: req.Limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(snippets))
	for _, sn := range snippets {
		out = append(out, SearchResult{
			Snippet:   sn.Snippet,
			Relevance: sn.Relevance,
			Source:    sn.Source,
		})
	}
	return out, nil
}
