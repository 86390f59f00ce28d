package aggregation

import (
	"context"
	"errors"
	"testing"
	"time"

	"token-radar/internal/domain"
)

// stubTradeStore serves one response queue across successive GetSince
// calls and records the cutoffs it was asked for.
type stubTradeStore struct {
	responses [][]*domain.Trade
	err       error
	cutoffs   []int64
}

func (s *stubTradeStore) Insert(ctx context.Context, t *domain.Trade) error { return nil }
func (s *stubTradeStore) InsertBulk(ctx context.Context, ts []*domain.Trade) error {
	return nil
}

func (s *stubTradeStore) GetSince(ctx context.Context, cutoff int64) ([]*domain.Trade, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return nil, nil
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

type stubTokenStore struct {
	records map[string]*domain.TokenRecord
	err     error
}

func (s *stubTokenStore) Upsert(ctx context.Context, rec *domain.TokenRecord) error { return nil }

func (s *stubTokenStore) GetByMints(ctx context.Context, mints []string) ([]*domain.TokenRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*domain.TokenRecord, 0, len(mints))
	for _, mint := range mints {
		if rec, ok := s.records[mint]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *stubTokenStore) GetByMint(ctx context.Context, mint string) (*domain.TokenRecord, error) {
	rec, ok := s.records[mint]
	if !ok {
		return nil, errors.New("not found")
	}
	return rec, nil
}

// passthroughResolver returns records unchanged.
type passthroughResolver struct{}

func (passthroughResolver) Resolve(ctx context.Context, rec *domain.TokenRecord) *domain.TokenRecord {
	return rec
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func record(mint string, supply, solReserves, tokenReserves float64) *domain.TokenRecord {
	return &domain.TokenRecord{
		Mint:                 mint,
		Name:                 "Token " + mint,
		Symbol:               mint[:3],
		TotalSupply:          supply,
		VirtualSOLReserves:   solReserves,
		VirtualTokenReserves: tokenReserves,
	}
}

func newTestPipeline(trades *stubTradeStore, tokens *stubTokenStore, solPrice float64) *Pipeline {
	return New(Options{
		TradeStore: trades,
		TokenStore: tokens,
		Resolver:   passthroughResolver{},
		SolPrice:   func() float64 { return solPrice },
		Clock:      fixedClock(time.UnixMilli(3_600_000)),
	})
}

func TestQueryJoinsTradesWithRecords(t *testing.T) {
	now := int64(3_600_000)
	trades := &stubTradeStore{responses: [][]*domain.Trade{{
		trade("MINT1", "alice", true, 2, 300, now-1000),
		trade("MINT1", "bob", false, 1, 150, now-500),
		trade("ORPHAN", "carol", true, 9, 900, now-200),
	}}}
	tokens := &stubTokenStore{records: map[string]*domain.TokenRecord{
		// 30 SOL / 1000 tokens reserves at $150/SOL, 1e6 supply.
		"MINT1": record("MINT1", 1e6, 30, 1000),
	}}

	res, err := newTestPipeline(trades, tokens, 150.0).Query(context.Background(), domain.QueryOptions{
		TimeRangeMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	// ORPHAN traded but has no persisted record: silently dropped.
	if res.Total != 1 {
		t.Fatalf("Total = %d, want 1", res.Total)
	}
	tok := res.Tokens[0]
	if tok.Mint != "MINT1" {
		t.Fatalf("got %s, want MINT1", tok.Mint)
	}
	if tok.VolumeSOL != 3 || tok.VolumeUSD != 450 {
		t.Errorf("volumes = %v SOL / %v USD, want 3 / 450", tok.VolumeSOL, tok.VolumeUSD)
	}
	if tok.UniqueTraders != 2 {
		t.Errorf("UniqueTraders = %d, want 2", tok.UniqueTraders)
	}

	wantPriceSOL := 30.0 / 1000.0
	if tok.PriceSOL != wantPriceSOL {
		t.Errorf("PriceSOL = %v, want %v", tok.PriceSOL, wantPriceSOL)
	}
	wantMC := wantPriceSOL * 150.0 * 1e6
	if tok.MarketCapUSD != wantMC {
		t.Errorf("MarketCapUSD = %v, want %v", tok.MarketCapUSD, wantMC)
	}
}

func TestQueryWidensSparseWindowOnce(t *testing.T) {
	now := int64(3_600_000)
	trades := &stubTradeStore{responses: [][]*domain.Trade{
		{}, // requested 5-minute window: empty
		{trade("MINT1", "alice", true, 1, 100, now-20*60*1000)},
	}}
	tokens := &stubTokenStore{records: map[string]*domain.TokenRecord{
		"MINT1": record("MINT1", 1e6, 30, 1000),
	}}

	res, err := newTestPipeline(trades, tokens, 150.0).Query(context.Background(), domain.QueryOptions{
		TimeRangeMinutes: 5,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if len(trades.cutoffs) != 2 {
		t.Fatalf("GetSince called %d times, want 2", len(trades.cutoffs))
	}
	if res.EffectiveTimeRangeMinutes != domain.FloorWindowMinutes {
		t.Errorf("EffectiveTimeRangeMinutes = %d, want %d", res.EffectiveTimeRangeMinutes, domain.FloorWindowMinutes)
	}
	wantCutoff := now - int64(domain.FloorWindowMinutes)*60*1000
	if trades.cutoffs[1] != wantCutoff {
		t.Errorf("widened cutoff = %d, want %d", trades.cutoffs[1], wantCutoff)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d, want 1 after widening", res.Total)
	}
}

func TestQueryDoesNotWidenAtOrAboveFloor(t *testing.T) {
	trades := &stubTradeStore{}
	tokens := &stubTokenStore{records: map[string]*domain.TokenRecord{}}

	res, err := newTestPipeline(trades, tokens, 150.0).Query(context.Background(), domain.QueryOptions{
		TimeRangeMinutes: 45,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(trades.cutoffs) != 1 {
		t.Errorf("GetSince called %d times, want 1 (no widening above floor)", len(trades.cutoffs))
	}
	if res.EffectiveTimeRangeMinutes != 45 {
		t.Errorf("EffectiveTimeRangeMinutes = %d, want 45", res.EffectiveTimeRangeMinutes)
	}
	if res.Total != 0 {
		t.Errorf("Total = %d, want 0", res.Total)
	}
}

func TestQueryFavoritesOnlyIncludesUntraded(t *testing.T) {
	now := int64(3_600_000)
	trades := &stubTradeStore{responses: [][]*domain.Trade{{
		trade("ACTIVE", "alice", true, 1, 100, now-1000),
	}}}
	tokens := &stubTokenStore{records: map[string]*domain.TokenRecord{
		"ACTIVE": record("ACTIVE", 1e6, 30, 1000),
		"QUIET":  record("QUIET", 1e6, 30, 1000),
	}}

	res, err := newTestPipeline(trades, tokens, 150.0).Query(context.Background(), domain.QueryOptions{
		TimeRangeMinutes: 60,
		Filters: domain.Filters{
			FavoritesOnly: true,
			Favorites:     []string{"ACTIVE", "QUIET"},
		},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if res.Total != 2 {
		t.Fatalf("Total = %d, want 2 (favorites bypass the trade-activity requirement)", res.Total)
	}
	var quiet *domain.AggregatedToken
	for _, tok := range res.Tokens {
		if tok.Mint == "QUIET" {
			quiet = tok
		}
	}
	if quiet == nil {
		t.Fatal("untraded favorite missing from result")
	}
	if quiet.VolumeUSD != 0 || quiet.UniqueTraders != 0 || quiet.LastTradeAt != 0 {
		t.Errorf("untraded favorite has nonzero metrics: %+v", quiet)
	}
	if quiet.MarketCapUSD == 0 {
		t.Errorf("untraded favorite should still carry pricing from its record")
	}
}

func TestQueryPaginationIsStable(t *testing.T) {
	now := int64(3_600_000)
	var all []*domain.Trade
	records := map[string]*domain.TokenRecord{}
	mintsIn := []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG"}
	for _, m := range mintsIn {
		all = append(all, trade(m, "t-"+m, true, 1, 100, now-1000))
		// Identical reserves: every market cap ties, ordering falls
		// entirely to the mint tie-break.
		records[m] = record(m, 1e6, 30, 1000)
	}

	var collected []string
	for page := 1; page <= 3; page++ {
		trades := &stubTradeStore{responses: [][]*domain.Trade{all}}
		tokens := &stubTokenStore{records: records}
		res, err := newTestPipeline(trades, tokens, 150.0).Query(context.Background(), domain.QueryOptions{
			TimeRangeMinutes: 60,
			Page:             page,
			PageSize:         3,
		})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if res.TotalPages != 3 {
			t.Fatalf("TotalPages = %d, want 3", res.TotalPages)
		}
		for _, tok := range res.Tokens {
			collected = append(collected, tok.Mint)
		}
	}

	// Descending default with mint tie-break: reverse lexicographic.
	want := []string{"GGG", "FFF", "EEE", "DDD", "CCC", "BBB", "AAA"}
	if len(collected) != len(want) {
		t.Fatalf("collected %d mints across pages, want %d", len(collected), len(want))
	}
	for i, mint := range want {
		if collected[i] != mint {
			t.Errorf("position %d = %s, want %s", i, collected[i], mint)
		}
	}
}

func TestQueryOutOfRangePageIsEmpty(t *testing.T) {
	now := int64(3_600_000)
	trades := &stubTradeStore{responses: [][]*domain.Trade{{
		trade("MINT1", "alice", true, 1, 100, now-1000),
	}}}
	tokens := &stubTokenStore{records: map[string]*domain.TokenRecord{
		"MINT1": record("MINT1", 1e6, 30, 1000),
	}}

	res, err := newTestPipeline(trades, tokens, 150.0).Query(context.Background(), domain.QueryOptions{
		TimeRangeMinutes: 60,
		Page:             7,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Tokens) != 0 {
		t.Errorf("out-of-range page returned %d tokens, want 0", len(res.Tokens))
	}
	if res.Total != 1 || res.TotalPages != 1 {
		t.Errorf("metadata = total %d / pages %d, want 1 / 1", res.Total, res.TotalPages)
	}
}

func TestQuerySurfacesStoreFailures(t *testing.T) {
	storeErr := errors.New("connection refused")

	_, err := newTestPipeline(&stubTradeStore{err: storeErr}, &stubTokenStore{}, 150.0).
		Query(context.Background(), domain.QueryOptions{TimeRangeMinutes: 60})
	if !errors.Is(err, storeErr) {
		t.Errorf("trade store failure not surfaced: %v", err)
	}

	now := int64(3_600_000)
	trades := &stubTradeStore{responses: [][]*domain.Trade{{
		trade("MINT1", "alice", true, 1, 100, now-1000),
	}}}
	_, err = newTestPipeline(trades, &stubTokenStore{err: storeErr}, 150.0).
		Query(context.Background(), domain.QueryOptions{TimeRangeMinutes: 60})
	if !errors.Is(err, storeErr) {
		t.Errorf("token store failure not surfaced: %v", err)
	}
}
