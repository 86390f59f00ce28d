package postgres

import (
	"context"
	"fmt"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO trades (
		mint, timestamp, is_buy, amount_sol, amount_usd, trader
	) VALUES ($1, $2, $3, $4, $5, $6)
`

// Insert adds a single trade to the ledger.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if t == nil || t.Mint == "" || t.Trader == "" || t.Timestamp <= 0 {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery,
		t.Mint,
		t.Timestamp,
		t.IsBuy,
		t.AmountSOL,
		t.AmountUSD,
		t.Trader,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	for _, t := range trades {
		if t == nil || t.Mint == "" || t.Trader == "" || t.Timestamp <= 0 {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		_, err := tx.Exec(ctx, insertTradeQuery,
			t.Mint,
			t.Timestamp,
			t.IsBuy,
			t.AmountSOL,
			t.AmountUSD,
			t.Trader,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetSince retrieves all trades with timestamp >= cutoff, ordered by
// timestamp ASC.
func (s *TradeStore) GetSince(ctx context.Context, cutoff int64) ([]*domain.Trade, error) {
	query := `
		SELECT mint, timestamp, is_buy, amount_sol, amount_usd, trader
		FROM trades
		WHERE timestamp >= $1
		ORDER BY timestamp ASC
	`

	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query trades since: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.Mint, &t.Timestamp, &t.IsBuy, &t.AmountSOL, &t.AmountUSD, &t.Trader); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}
