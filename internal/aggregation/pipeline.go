// Package aggregation turns the raw trade ledger into ranked, filtered,
// paginated per-token leaderboards.
package aggregation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
	"token-radar/internal/storage"
)

// Resolver upgrades a token record's display fields. Implementations
// must never fail the caller: unresolved metadata is a data-quality
// state, not an error.
type Resolver interface {
	Resolve(ctx context.Context, rec *domain.TokenRecord) *domain.TokenRecord
}

// Pipeline composes trade aggregation, metadata resolution, filtering,
// sorting, and pagination into one query entrypoint.
type Pipeline struct {
	tradeStore storage.TradeStore
	tokenStore storage.TokenStore
	resolver   Resolver
	solPrice   func() float64
	now        func() time.Time
	log        *zap.Logger
	metrics    *observability.Metrics
}

// Options for creating a Pipeline.
type Options struct {
	TradeStore storage.TradeStore // required
	TokenStore storage.TokenStore // required
	Resolver   Resolver           // required
	SolPrice   func() float64     // required, periodically refreshed SOL/USD

	Logger  *zap.Logger            // optional
	Metrics *observability.Metrics // optional
	Clock   func() time.Time       // optional, for tests
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		tradeStore: opts.TradeStore,
		tokenStore: opts.TokenStore,
		resolver:   opts.Resolver,
		solPrice:   opts.SolPrice,
		now:        opts.Clock,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Query runs one aggregation invocation. Store failures are surfaced as
// retryable errors; per-token metadata failures degrade that token only.
func (p *Pipeline) Query(ctx context.Context, opts domain.QueryOptions) (*domain.QueryResult, error) {
	start := p.now()
	opts.Normalize()

	trades, effective, err := p.fetchWindow(ctx, opts.TimeRangeMinutes)
	if err != nil {
		if p.metrics != nil {
			p.metrics.QueriesTotal.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("fetch trade window: %w", err)
	}
	if p.metrics != nil {
		p.metrics.TradesAggregated.Add(float64(len(trades)))
	}

	windows := FoldTrades(trades)

	// Candidate set: every token traded in the window, plus favorites
	// when the favorites override is on — a favorited token with zero
	// trades still appears, with all metrics at 0.
	mints := make([]string, 0, len(windows))
	for mint := range windows {
		mints = append(mints, mint)
	}
	if opts.Filters.FavoritesOnly {
		for _, mint := range opts.Filters.Favorites {
			if _, traded := windows[mint]; !traded {
				mints = append(mints, mint)
			}
		}
	}

	records, err := p.tokenStore.GetByMints(ctx, mints)
	if err != nil {
		if p.metrics != nil {
			p.metrics.QueriesTotal.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("fetch token records: %w", err)
	}

	// Tokens with trades but no persisted record are silently dropped:
	// join failure is exclusion, not an error.
	tokens := p.resolveAll(ctx, records, windows, opts.Filters)

	filtered := applyFilters(tokens, opts.Filters)
	sortTokens(filtered, opts.SortBy, opts.SortDir)

	total := len(filtered)
	totalPages := (total + opts.PageSize - 1) / opts.PageSize
	page := paginate(filtered, opts.Page, opts.PageSize)

	if p.metrics != nil {
		p.metrics.QueriesTotal.WithLabelValues("ok").Inc()
		p.metrics.QueryDuration.Observe(p.now().Sub(start).Seconds())
	}

	return &domain.QueryResult{
		Tokens:                    page,
		Total:                     total,
		TotalPages:                totalPages,
		Page:                      opts.Page,
		PageSize:                  opts.PageSize,
		EffectiveTimeRangeMinutes: effective,
	}, nil
}

// fetchWindow fetches trades for the requested window, widening once to
// the floor when a short window comes back empty. Hard ceiling stays at
// MaxWindowMinutes; no unbounded widening.
func (p *Pipeline) fetchWindow(ctx context.Context, minutes int) ([]*domain.Trade, int, error) {
	cutoff := p.now().Add(-time.Duration(minutes) * time.Minute).UnixMilli()
	trades, err := p.tradeStore.GetSince(ctx, cutoff)
	if err != nil {
		return nil, 0, err
	}

	if len(trades) == 0 && minutes < domain.FloorWindowMinutes {
		widened := domain.FloorWindowMinutes
		cutoff = p.now().Add(-time.Duration(widened) * time.Minute).UnixMilli()
		trades, err = p.tradeStore.GetSince(ctx, cutoff)
		if err != nil {
			return nil, 0, err
		}
		p.log.Debug("lookback window widened",
			zap.Int("requested_minutes", minutes),
			zap.Int("effective_minutes", widened),
			zap.Int("trades", len(trades)),
		)
		if p.metrics != nil {
			p.metrics.WindowWidened.Inc()
		}
		return trades, widened, nil
	}

	return trades, minutes, nil
}

// resolveAll resolves metadata for every candidate concurrently. Each
// token's resolution is independent; the invocation completes only after
// all resolutions settle, so the subsequent sort sees a consistent set.
func (p *Pipeline) resolveAll(ctx context.Context, records []*domain.TokenRecord, windows map[string]*TokenWindow, f domain.Filters) []*domain.AggregatedToken {
	tokens := make([]*domain.AggregatedToken, len(records))
	solUSD := p.solPrice()

	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec *domain.TokenRecord) {
			defer wg.Done()
			resolved := p.resolver.Resolve(ctx, rec)
			tokens[i] = buildAggregate(resolved, windows[rec.Mint], solUSD, f)
			if p.metrics != nil {
				p.metrics.TokensResolved.Inc()
			}
		}(i, rec)
	}
	wg.Wait()

	return tokens
}

// buildAggregate joins a resolved record with its trade window. A nil
// window yields zero metrics (favorites override path).
func buildAggregate(rec *domain.TokenRecord, w *TokenWindow, solUSD float64, f domain.Filters) *domain.AggregatedToken {
	tok := &domain.AggregatedToken{
		Mint:             rec.Mint,
		Name:             rec.Name,
		Symbol:           rec.Symbol,
		Image:            rec.Image,
		Description:      rec.Description,
		Twitter:          rec.Twitter,
		Telegram:         rec.Telegram,
		Website:          rec.Website,
		MetadataURI:      rec.MetadataURI,
		Graduated:        rec.Complete,
		IsBondingCurve:   !rec.Complete && rec.BondingCurve != nil,
		Creator:          rec.Creator,
		CreatedTimestamp: rec.CreatedTimestamp,
	}

	tok.PriceSOL = rec.PriceSOL()
	tok.PriceUSD = tok.PriceSOL * solUSD
	tok.MarketCapUSD = tok.PriceUSD * rec.TotalSupply

	if w != nil {
		tok.BuyVolumeSOL = w.BuyVolumeSOL
		tok.BuyVolumeUSD = w.BuyVolumeUSD
		tok.SellVolumeSOL = w.SellVolumeSOL
		tok.SellVolumeUSD = w.SellVolumeUSD
		tok.VolumeSOL = w.VolumeSOL()
		tok.VolumeUSD = w.VolumeUSD()
		tok.BuySellRatio = w.BuySellRatio()
		tok.UniqueTraders = w.UniqueTraders(f.MinTradeAmount, f.MaxTradeAmount)
		tok.LastTradeAt = w.LastTradeAt
	}
	return tok
}

// paginate returns the 1-based page slice. Out-of-range pages yield an
// empty slice; pagination metadata still reflects the full filtered set.
func paginate(tokens []*domain.AggregatedToken, page, pageSize int) []*domain.AggregatedToken {
	start := (page - 1) * pageSize
	if start >= len(tokens) {
		return []*domain.AggregatedToken{}
	}
	end := start + pageSize
	if end > len(tokens) {
		end = len(tokens)
	}
	return tokens[start:end]
}
