package memory

import (
	"context"
	"sync"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	byMint map[string]*domain.TokenRecord
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		byMint: make(map[string]*domain.TokenRecord),
	}
}

// Upsert inserts or replaces a record keyed by mint.
func (s *TokenStore) Upsert(_ context.Context, rec *domain.TokenRecord) error {
	if rec == nil || rec.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recCopy := *rec
	s.byMint[rec.Mint] = &recCopy
	return nil
}

// GetByMints retrieves records for the given mints. Missing mints are
// silently absent from the result.
func (s *TokenStore) GetByMints(_ context.Context, mints []string) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenRecord, 0, len(mints))
	for _, mint := range mints {
		if rec, exists := s.byMint[mint]; exists {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}
	return result, nil
}

// GetByMint retrieves a single record. Returns ErrNotFound if the mint
// is unknown.
func (s *TokenStore) GetByMint(_ context.Context, mint string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.byMint[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *rec
	return &recCopy, nil
}

var _ storage.TokenStore = (*TokenStore)(nil)
