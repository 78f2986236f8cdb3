package memory

import (
	"context"
	"fmt"

	"github.com/xenking/vending-console/internal/domain/auth"
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository serves operator keys configured at startup.
type APIKeyRepository struct {
	byHash map[string]auth.APIKeyInfo
}

// NewAPIKeyRepository hashes each raw key with pepper and indexes it.
func NewAPIKeyRepository(pepper []byte, rawKeys []string) *APIKeyRepository {
	r := &APIKeyRepository{byHash: make(map[string]auth.APIKeyInfo, len(rawKeys))}
	for i, k := range rawKeys {
		hash := auth.HashKey(pepper, k)
		r.byHash[hash] = auth.APIKeyInfo{
			ID:      fmt.Sprintf("operator-%d", i+1),
			KeyHash: hash,
			Name:    "Configured operator key",
			Scopes:  []string{auth.ScopeBatchEdit},
		}
	}
	return r
}

// FindByHash returns auth.ErrKeyNotFound for unknown hashes.
func (r *APIKeyRepository) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := r.byHash[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	return &info, nil
}
