package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

const tokenColumns = `
	mint, name, symbol, image, metadata_uri, description,
	twitter, telegram, website,
	complete, king_of_the_hill_timestamp, bonding_curve, associated_bonding_curve,
	virtual_sol_reserves, virtual_token_reserves, total_supply,
	creator, created_timestamp
`

// Upsert inserts or replaces a record keyed by mint.
func (s *TokenStore) Upsert(ctx context.Context, rec *domain.TokenRecord) error {
	if rec == nil || rec.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tokens (` + tokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (mint) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			image = EXCLUDED.image,
			metadata_uri = EXCLUDED.metadata_uri,
			description = EXCLUDED.description,
			twitter = EXCLUDED.twitter,
			telegram = EXCLUDED.telegram,
			website = EXCLUDED.website,
			complete = EXCLUDED.complete,
			king_of_the_hill_timestamp = EXCLUDED.king_of_the_hill_timestamp,
			bonding_curve = EXCLUDED.bonding_curve,
			associated_bonding_curve = EXCLUDED.associated_bonding_curve,
			virtual_sol_reserves = EXCLUDED.virtual_sol_reserves,
			virtual_token_reserves = EXCLUDED.virtual_token_reserves,
			total_supply = EXCLUDED.total_supply,
			creator = EXCLUDED.creator,
			created_timestamp = EXCLUDED.created_timestamp
	`

	_, err := s.pool.Exec(ctx, query,
		rec.Mint, rec.Name, rec.Symbol, rec.Image, rec.MetadataURI, rec.Description,
		rec.Twitter, rec.Telegram, rec.Website,
		rec.Complete, rec.KingOfTheHillTimestamp, rec.BondingCurve, rec.AssociatedBondingCurve,
		rec.VirtualSOLReserves, rec.VirtualTokenReserves, rec.TotalSupply,
		rec.Creator, rec.CreatedTimestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// GetByMints retrieves records for the given mints. Missing mints are
// silently absent from the result.
func (s *TokenStore) GetByMints(ctx context.Context, mints []string) ([]*domain.TokenRecord, error) {
	if len(mints) == 0 {
		return nil, nil
	}

	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE mint = ANY($1)`

	rows, err := s.pool.Query(ctx, query, mints)
	if err != nil {
		return nil, fmt.Errorf("query tokens by mints: %w", err)
	}
	defer rows.Close()

	var records []*domain.TokenRecord
	for rows.Next() {
		rec, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}
	return records, nil
}

// GetByMint retrieves a single record. Returns ErrNotFound if the mint
// is unknown.
func (s *TokenStore) GetByMint(ctx context.Context, mint string) (*domain.TokenRecord, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE mint = $1`

	rec, err := scanToken(s.pool.QueryRow(ctx, query, mint))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by mint: %w", err)
	}
	return rec, nil
}

// scanToken scans a token row in tokenColumns order.
func scanToken(row pgx.Row) (*domain.TokenRecord, error) {
	var rec domain.TokenRecord
	err := row.Scan(
		&rec.Mint, &rec.Name, &rec.Symbol, &rec.Image, &rec.MetadataURI, &rec.Description,
		&rec.Twitter, &rec.Telegram, &rec.Website,
		&rec.Complete, &rec.KingOfTheHillTimestamp, &rec.BondingCurve, &rec.AssociatedBondingCurve,
		&rec.VirtualSOLReserves, &rec.VirtualTokenReserves, &rec.TotalSupply,
		&rec.Creator, &rec.CreatedTimestamp,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
