// Package hydrator incrementally repairs low-confidence display fields
// on the live leaderboard between full aggregation runs.
package hydrator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/metadata"
	"token-radar/internal/observability"
)

const (
	// DefaultBatchSize caps how many records one pass touches, keeping
	// remote pressure bounded regardless of leaderboard size.
	DefaultBatchSize = 5

	// DefaultMaxAttempts is the per-record retry cap. Records that stay
	// low-confidence after this many passes are left alone until they
	// drop out of the working set.
	DefaultMaxAttempts = 3
)

// Resolver is the metadata cascade the hydrator retries through.
type Resolver interface {
	Resolve(ctx context.Context, rec *domain.TokenRecord) *domain.TokenRecord
}

// Hydrator walks the current result set and re-resolves records whose
// display fields remain low-confidence. Corrections are merged in place
// so the next broadcast picks them up without a full pipeline run.
type Hydrator struct {
	resolver    Resolver
	batchSize   int
	maxAttempts int
	log         *zap.Logger
	metrics     *observability.Metrics

	mu       sync.Mutex
	inflight map[string]struct{}
	attempts map[string]int
}

// Options for creating a Hydrator.
type Options struct {
	Resolver Resolver // required

	BatchSize   int                    // optional, defaults to DefaultBatchSize
	MaxAttempts int                    // optional, defaults to DefaultMaxAttempts
	Logger      *zap.Logger            // optional
	Metrics     *observability.Metrics // optional
}

// New creates a Hydrator.
func New(opts Options) *Hydrator {
	h := &Hydrator{
		resolver:    opts.Resolver,
		batchSize:   opts.BatchSize,
		maxAttempts: opts.MaxAttempts,
		log:         opts.Logger,
		metrics:     opts.Metrics,
		inflight:    make(map[string]struct{}),
		attempts:    make(map[string]int),
	}
	if h.batchSize <= 0 {
		h.batchSize = DefaultBatchSize
	}
	if h.maxAttempts <= 0 {
		h.maxAttempts = DefaultMaxAttempts
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	return h
}

// Pass runs one hydration round over tokens and returns how many records
// it improved. Records already being hydrated by an overlapping pass, or
// past their retry cap, are skipped. Attempt counters for mints no
// longer in the set are dropped so churned tokens don't leak state.
func (h *Hydrator) Pass(ctx context.Context, tokens []*domain.AggregatedToken) int {
	if h.metrics != nil {
		h.metrics.HydratorPasses.Inc()
	}

	batch := h.claim(tokens)
	if len(batch) == 0 {
		return 0
	}

	var (
		wg       sync.WaitGroup
		mergedMu sync.Mutex
		merged   int
	)
	for _, tok := range batch {
		wg.Add(1)
		go func(tok *domain.AggregatedToken) {
			defer wg.Done()
			defer h.release(tok.Mint)

			if h.hydrate(ctx, tok) {
				mergedMu.Lock()
				merged++
				mergedMu.Unlock()
				if h.metrics != nil {
					h.metrics.HydratorMerges.Inc()
				}
			}
		}(tok)
	}
	wg.Wait()

	if merged > 0 {
		h.log.Debug("hydration pass merged corrections",
			zap.Int("batch", len(batch)),
			zap.Int("merged", merged),
		)
	}
	return merged
}

// claim selects up to batchSize low-confidence records, marks them
// in-flight, bumps their attempt counters, and evicts counters for
// mints absent from the current set.
func (h *Hydrator) claim(tokens []*domain.AggregatedToken) []*domain.AggregatedToken {
	present := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		present[tok.Mint] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for mint := range h.attempts {
		if _, ok := present[mint]; !ok {
			delete(h.attempts, mint)
		}
	}

	var batch []*domain.AggregatedToken
	for _, tok := range tokens {
		if len(batch) >= h.batchSize {
			break
		}
		if !needsHydration(tok) {
			continue
		}
		if _, busy := h.inflight[tok.Mint]; busy {
			continue
		}
		if h.attempts[tok.Mint] >= h.maxAttempts {
			continue
		}
		h.attempts[tok.Mint]++
		if h.attempts[tok.Mint] == h.maxAttempts {
			if h.metrics != nil {
				h.metrics.HydratorRetriesExhausted.Inc()
			}
		}
		h.inflight[tok.Mint] = struct{}{}
		batch = append(batch, tok)
	}
	return batch
}

func (h *Hydrator) release(mint string) {
	h.mu.Lock()
	delete(h.inflight, mint)
	h.mu.Unlock()
}

// hydrate re-runs the cascade for one token and merges any improved
// fields back in place. Reports whether anything changed.
func (h *Hydrator) hydrate(ctx context.Context, tok *domain.AggregatedToken) bool {
	rec := recordView(tok)
	resolved := h.resolver.Resolve(ctx, rec)

	changed := false
	apply := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	apply(&tok.Name, resolved.Name)
	apply(&tok.Symbol, resolved.Symbol)
	apply(&tok.Image, resolved.Image)
	apply(&tok.Description, resolved.Description)
	apply(&tok.Twitter, resolved.Twitter)
	apply(&tok.Telegram, resolved.Telegram)
	apply(&tok.Website, resolved.Website)
	apply(&tok.MetadataURI, resolved.MetadataURI)
	return changed
}

// needsHydration reports whether a token's display fields still warrant
// a retry: placeholder name or symbol, an untrusted image, or a record
// with no description and no social links at all.
func needsHydration(tok *domain.AggregatedToken) bool {
	if metadata.LooksLikePlaceholder(tok.Name, tok.Mint) {
		return true
	}
	if metadata.LooksLikePlaceholder(tok.Symbol, tok.Mint) {
		return true
	}
	if tok.Image == "" || tok.Image == tok.MetadataURI {
		return true
	}
	return tok.Description == "" && tok.Twitter == "" && tok.Telegram == "" && tok.Website == ""
}

// recordView projects the display fields back into a TokenRecord so the
// token can re-enter the resolver cascade.
func recordView(tok *domain.AggregatedToken) *domain.TokenRecord {
	return &domain.TokenRecord{
		Mint:        tok.Mint,
		Name:        tok.Name,
		Symbol:      tok.Symbol,
		Image:       tok.Image,
		MetadataURI: tok.MetadataURI,
		Description: tok.Description,
		Twitter:     tok.Twitter,
		Telegram:    tok.Telegram,
		Website:     tok.Website,
		Complete:    tok.Graduated,
	}
}
