package capsule

import (
	"context"

	"github.com/theapemachine/animus/pkg/stores/vault"
)

// VaultSource fetches capsule bundles from the vault service. A construct
// without a capsule yields (nil, nil); the cache stores the absence so it is
// not re-fetched on every turn.
type VaultSource struct {
	client *vault.Client
}

func NewVaultSource(client *vault.Client) *VaultSource {
	return &VaultSource{client: client}
}

func (s *VaultSource) Fetch(ctx context.Context, constructID string) (*Capsule, error) {
	raw, err := s.client.ReadCapsule(ctx, constructID)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}
