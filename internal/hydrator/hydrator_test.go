package hydrator

import (
	"context"
	"sync"
	"testing"

	"token-radar/internal/domain"
)

const testMint = "ABCDEF1234567890abcdef1234567890ABCDEF12pump"

// countingResolver fills in a fixed name/symbol/image and counts calls
// per mint.
type countingResolver struct {
	mu    sync.Mutex
	calls map[string]int
	fix   bool // when false, return the record unchanged
	block chan struct{}
}

func newCountingResolver(fix bool) *countingResolver {
	return &countingResolver{calls: make(map[string]int), fix: fix}
}

func (r *countingResolver) Resolve(ctx context.Context, rec *domain.TokenRecord) *domain.TokenRecord {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.calls[rec.Mint]++
	r.mu.Unlock()

	out := *rec
	if r.fix {
		out.Name = "Fixed Name"
		out.Symbol = "FIX"
		out.Image = "https://cdn.example/" + rec.Mint + ".png"
		out.Description = "recovered"
	}
	return &out
}

func (r *countingResolver) callCount(mint string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[mint]
}

func lowConfidenceToken(mint string) *domain.AggregatedToken {
	return &domain.AggregatedToken{Mint: mint, Name: "", Symbol: ""}
}

func highConfidenceToken(mint string) *domain.AggregatedToken {
	return &domain.AggregatedToken{
		Mint:        mint,
		Name:        "Solid Project",
		Symbol:      "SOLID",
		Image:       "https://cdn.example/solid.png",
		Description: "a real description",
	}
}

func TestPassMergesCorrectionsInPlace(t *testing.T) {
	r := newCountingResolver(true)
	h := New(Options{Resolver: r})

	tok := lowConfidenceToken(testMint)
	merged := h.Pass(context.Background(), []*domain.AggregatedToken{tok})

	if merged != 1 {
		t.Fatalf("Pass merged %d, want 1", merged)
	}
	if tok.Name != "Fixed Name" || tok.Symbol != "FIX" {
		t.Errorf("corrections not applied in place: %+v", tok)
	}
}

func TestPassSkipsHighConfidenceTokens(t *testing.T) {
	r := newCountingResolver(true)
	h := New(Options{Resolver: r})

	tok := highConfidenceToken(testMint)
	merged := h.Pass(context.Background(), []*domain.AggregatedToken{tok})

	if merged != 0 {
		t.Errorf("Pass merged %d, want 0", merged)
	}
	if r.callCount(testMint) != 0 {
		t.Errorf("resolver called %d times for a high-confidence token, want 0", r.callCount(testMint))
	}
}

func TestPassRespectsBatchSize(t *testing.T) {
	r := newCountingResolver(true)
	h := New(Options{Resolver: r, BatchSize: 2})

	tokens := []*domain.AggregatedToken{
		lowConfidenceToken("MINT1"),
		lowConfidenceToken("MINT2"),
		lowConfidenceToken("MINT3"),
	}
	h.Pass(context.Background(), tokens)

	total := r.callCount("MINT1") + r.callCount("MINT2") + r.callCount("MINT3")
	if total != 2 {
		t.Errorf("resolved %d records in one pass, want batch size 2", total)
	}
}

func TestPassStopsRetryingAfterCap(t *testing.T) {
	// Resolver that never improves anything: every pass counts as a
	// failed attempt.
	r := newCountingResolver(false)
	h := New(Options{Resolver: r, MaxAttempts: 3})

	tok := lowConfidenceToken(testMint)
	for i := 0; i < 5; i++ {
		h.Pass(context.Background(), []*domain.AggregatedToken{tok})
	}

	if got := r.callCount(testMint); got != 3 {
		t.Errorf("resolver called %d times, want retry cap 3", got)
	}
}

func TestPassEvictsCountersForDroppedMints(t *testing.T) {
	r := newCountingResolver(false)
	h := New(Options{Resolver: r, MaxAttempts: 2})

	tok := lowConfidenceToken(testMint)
	set := []*domain.AggregatedToken{tok}
	h.Pass(context.Background(), set)
	h.Pass(context.Background(), set)
	h.Pass(context.Background(), set) // cap reached, skipped

	if got := r.callCount(testMint); got != 2 {
		t.Fatalf("resolver called %d times before eviction, want 2", got)
	}

	// The mint leaves the working set; its counter must be evicted so a
	// later return starts fresh.
	h.Pass(context.Background(), []*domain.AggregatedToken{lowConfidenceToken("OTHER")})
	h.Pass(context.Background(), set)

	if got := r.callCount(testMint); got != 3 {
		t.Errorf("resolver called %d times after re-entry, want 3", got)
	}
}

func TestOverlappingPassesSkipInflightMints(t *testing.T) {
	r := newCountingResolver(true)
	r.block = make(chan struct{})
	h := New(Options{Resolver: r})

	tok := lowConfidenceToken(testMint)
	done := make(chan struct{})
	go func() {
		h.Pass(context.Background(), []*domain.AggregatedToken{tok})
		close(done)
	}()

	// Second pass while the first is stuck in the resolver: the mint is
	// in-flight, so nothing is claimed.
	for {
		h.mu.Lock()
		_, busy := h.inflight[testMint]
		h.mu.Unlock()
		if busy {
			break
		}
	}
	merged := h.Pass(context.Background(), []*domain.AggregatedToken{lowConfidenceToken(testMint)})
	if merged != 0 {
		t.Errorf("overlapping pass merged %d, want 0", merged)
	}

	close(r.block)
	<-done
	if got := r.callCount(testMint); got != 1 {
		t.Errorf("resolver called %d times, want 1", got)
	}
}
