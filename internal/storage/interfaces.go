package storage

import (
	"context"

	"token-radar/internal/domain"
)

// TradeStore provides access to the append-only trade ledger. The
// aggregation pipeline only reads; the write side belongs to ingestion.
type TradeStore interface {
	// Insert adds a single trade.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetSince retrieves all trades with timestamp >= cutoff (ms),
	// ordered by timestamp ASC. Bounded by window size, no pagination.
	GetSince(ctx context.Context, cutoff int64) ([]*domain.Trade, error)
}

// TokenStore provides point access to persisted token records. Records
// are mutated over time by ingestion, never by the aggregation core.
type TokenStore interface {
	// Upsert inserts or replaces a record keyed by mint.
	Upsert(ctx context.Context, rec *domain.TokenRecord) error

	// GetByMints retrieves records for the given mints. Missing mints
	// are silently absent from the result, not an error.
	GetByMints(ctx context.Context, mints []string) ([]*domain.TokenRecord, error)

	// GetByMint retrieves a single record. Returns ErrNotFound if the
	// mint is unknown.
	GetByMint(ctx context.Context, mint string) (*domain.TokenRecord, error)
}
