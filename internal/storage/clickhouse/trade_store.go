package clickhouse

import (
	"context"
	"fmt"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// TradeStore implements storage.TradeStore using ClickHouse. Intended
// for high-volume deployments where the windowed range read dominates:
// the trades table is ordered by timestamp so GetSince is a tight range
// scan.
type TradeStore struct {
	conn *Conn
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(conn *Conn) *TradeStore {
	return &TradeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a single trade.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	return s.InsertBulk(ctx, []*domain.Trade{t})
}

// InsertBulk adds multiple trades in one batch.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	for _, t := range trades {
		if t == nil || t.Mint == "" || t.Trader == "" || t.Timestamp <= 0 {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trades (
			mint, timestamp, is_buy, amount_sol, amount_usd, trader
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		if err := batch.Append(
			t.Mint, uint64(t.Timestamp), t.IsBuy, t.AmountSOL, t.AmountUSD, t.Trader,
		); err != nil {
			return fmt.Errorf("append trade: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetSince retrieves all trades with timestamp >= cutoff, ordered by
// timestamp ASC.
func (s *TradeStore) GetSince(ctx context.Context, cutoff int64) ([]*domain.Trade, error) {
	query := `
		SELECT mint, timestamp, is_buy, amount_sol, amount_usd, trader
		FROM trades
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(cutoff))
	if err != nil {
		return nil, fmt.Errorf("query trades since: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		var (
			t  domain.Trade
			ts uint64
		)
		if err := rows.Scan(&t.Mint, &ts, &t.IsBuy, &t.AmountSOL, &t.AmountUSD, &t.Trader); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Timestamp = int64(ts)
		trades = append(trades, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}
