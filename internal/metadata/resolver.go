package metadata

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"token-radar/internal/domain"
)

// RemoteSource is the remote-fetch contract shared by the aggregation
// cascade and the hydrator.
type RemoteSource interface {
	// FetchCoin queries the coin-info endpoints by mint address.
	FetchCoin(ctx context.Context, mint string) (*domain.TokenMeta, error)

	// FetchURI retrieves a metadata-URI-addressed payload.
	FetchURI(ctx context.Context, uri string) (*domain.TokenMeta, error)
}

// Resolver upgrades low-confidence token descriptors through a cascade of
// sources: the persisted record itself, its metadata URI, then the
// coin-info endpoint. All fetches go through the coalescing cache. A
// remote failure degrades that token's metadata, never the caller.
type Resolver struct {
	cache  *Cache
	source RemoteSource
	log    *zap.Logger
}

// NewResolver creates a Resolver. A nil logger falls back to a no-op.
func NewResolver(cache *Cache, source RemoteSource, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{cache: cache, source: source, log: log}
}

// Resolve returns an enriched copy of rec. The input is never mutated.
// The cascade stops as soon as the record reaches high confidence and
// never overwrites an already-trusted field. Unresolvable fields stay as
// they were: persistent data quality, not a fault.
func (r *Resolver) Resolve(ctx context.Context, rec *domain.TokenRecord) *domain.TokenRecord {
	resolved := *rec
	if recordHighConfidence(&resolved) {
		return &resolved
	}

	// Step 2: the record's own metadata URI.
	if resolved.MetadataURI != "" {
		r.mergeFromURI(ctx, &resolved, resolved.MetadataURI)
		if recordHighConfidence(&resolved) {
			return &resolved
		}
	}

	// Step 3: the coin-info endpoint by mint.
	coin, err := r.cache.Do(ctx, "coin", coinKey(resolved.Mint), CoinTTL,
		func(ctx context.Context) (*domain.TokenMeta, error) {
			return r.source.FetchCoin(ctx, resolved.Mint)
		})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.Debug("coin-info lookup failed",
				zap.String("mint", resolved.Mint), zap.Error(err))
		}
		return &resolved
	}

	// The coin payload may carry the metadata URI the record lacked;
	// follow it once before filling remaining gaps from the payload.
	if resolved.MetadataURI == "" && coin.MetadataURI != nil {
		resolved.MetadataURI = *coin.MetadataURI
		r.mergeFromURI(ctx, &resolved, *coin.MetadataURI)
	}
	MergeMeta(&resolved, coin)

	return &resolved
}

// Coin exposes the cached coin-info lookup for point entrypoints.
// Surfaces ErrNotFound for definitively absent coins.
func (r *Resolver) Coin(ctx context.Context, mint string) (*domain.TokenMeta, error) {
	return r.cache.Do(ctx, "coin", coinKey(mint), CoinTTL,
		func(ctx context.Context) (*domain.TokenMeta, error) {
			return r.source.FetchCoin(ctx, mint)
		})
}

func (r *Resolver) mergeFromURI(ctx context.Context, rec *domain.TokenRecord, uri string) {
	meta, err := r.cache.Do(ctx, "uri", uriKey(uri), NoExpiry,
		func(ctx context.Context) (*domain.TokenMeta, error) {
			return r.source.FetchURI(ctx, uri)
		})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.Debug("metadata uri fetch failed",
				zap.String("mint", rec.Mint), zap.String("uri", uri), zap.Error(err))
		}
		return
	}
	MergeMeta(rec, meta)
}

// MergeMeta merges meta into rec under the non-overwrite rule: a field is
// written only when the current value is absent or fails the confidence
// heuristic. The same rule serves the server cascade and the hydrator.
func MergeMeta(rec *domain.TokenRecord, meta *domain.TokenMeta) {
	if meta == nil {
		return
	}

	if meta.Name != nil && LooksLikePlaceholder(rec.Name, rec.Mint) {
		rec.Name = *meta.Name
	}
	if meta.Symbol != nil && LooksLikePlaceholder(rec.Symbol, rec.Mint) {
		rec.Symbol = *meta.Symbol
	}
	if meta.Image != nil && !trustedImage(rec) {
		rec.Image = *meta.Image
	}
	if meta.Description != nil && rec.Description == "" {
		rec.Description = *meta.Description
	}
	if meta.Twitter != nil && rec.Twitter == "" {
		rec.Twitter = *meta.Twitter
	}
	if meta.Telegram != nil && rec.Telegram == "" {
		rec.Telegram = *meta.Telegram
	}
	if meta.Website != nil && rec.Website == "" {
		rec.Website = *meta.Website
	}

	// Lifecycle fields only fill gaps; a token never un-graduates.
	if meta.Complete != nil && *meta.Complete {
		rec.Complete = true
	}
	if meta.KingOfTheHillTimestamp != nil && rec.KingOfTheHillTimestamp == nil {
		rec.KingOfTheHillTimestamp = meta.KingOfTheHillTimestamp
	}
	if meta.BondingCurve != nil && rec.BondingCurve == nil {
		rec.BondingCurve = meta.BondingCurve
	}
	if meta.AssociatedBondingCurve != nil && rec.AssociatedBondingCurve == nil {
		rec.AssociatedBondingCurve = meta.AssociatedBondingCurve
	}
}

func recordHighConfidence(rec *domain.TokenRecord) bool {
	return HighConfidence(rec.Name, rec.Symbol, rec.Image, rec.MetadataURI, rec.Mint)
}

// trustedImage mirrors the image half of HighConfidence: present and not
// the raw metadata URI echoed back.
func trustedImage(rec *domain.TokenRecord) bool {
	return rec.Image != "" && rec.Image != rec.MetadataURI
}

func coinKey(mint string) string { return "coin:" + mint }
func uriKey(uri string) string   { return "uri:" + uri }
