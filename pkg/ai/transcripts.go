package ai

import (
	"context"

	"github.com/theapemachine/animus/pkg/stores/vault"
)

// VaultTranscripts adapts the vault client to the TranscriptStore boundary.
type VaultTranscripts struct {
	client *vault.Client
}

func NewVaultTranscripts(client *vault.Client) *VaultTranscripts {
	return &VaultTranscripts{client: client}
}

func (v *VaultTranscripts) Store(
	ctx context.Context, callsign, packedContext, response string, metadata map[string]any,
) (StoreReceipt, error) {
	result, err := v.client.Store(ctx, callsign, packedContext, response, metadata)
	if err != nil {
		return StoreReceipt{}, err
	}
	return StoreReceipt{OK: result.OK, Duplicate: result.Duplicate}, nil
}
