package memory

import (
	"context"
	"sort"
	"sync"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu     sync.RWMutex
	trades []domain.Trade
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{}
}

// Insert adds a single trade.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.Mint == "" || t.Trader == "" || t.Timestamp <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, *t)
	return nil
}

// InsertBulk adds multiple trades atomically: the batch is validated
// before anything is appended.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.Trade) error {
	for _, t := range trades {
		if t == nil || t.Mint == "" || t.Trader == "" || t.Timestamp <= 0 {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range trades {
		s.trades = append(s.trades, *t)
	}
	return nil
}

// GetSince retrieves all trades with timestamp >= cutoff, ordered by
// timestamp ASC.
func (s *TradeStore) GetSince(_ context.Context, cutoff int64) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for i := range s.trades {
		if s.trades[i].Timestamp >= cutoff {
			tradeCopy := s.trades[i]
			result = append(result, &tradeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})
	return result, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
