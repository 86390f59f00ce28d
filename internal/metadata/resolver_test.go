package metadata

import (
	"context"
	"errors"
	"sync"
	"testing"

	"token-radar/internal/domain"
)

// stubSource is a RemoteSource backed by fixed responses.
type stubSource struct {
	mu        sync.Mutex
	coinCalls int
	uriCalls  int

	coins    map[string]*domain.TokenMeta
	coinErrs map[string]error
	uris     map[string]*domain.TokenMeta
	uriErrs  map[string]error
}

func (s *stubSource) FetchCoin(_ context.Context, mint string) (*domain.TokenMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coinCalls++
	if err, ok := s.coinErrs[mint]; ok {
		return nil, err
	}
	if meta, ok := s.coins[mint]; ok {
		return meta, nil
	}
	return nil, ErrNotFound
}

func (s *stubSource) FetchURI(_ context.Context, uri string) (*domain.TokenMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uriCalls++
	if err, ok := s.uriErrs[uri]; ok {
		return nil, err
	}
	if meta, ok := s.uris[uri]; ok {
		return meta, nil
	}
	return nil, ErrNotFound
}

func newTestResolver(src *stubSource) *Resolver {
	return NewResolver(NewCache(), src, nil)
}

func TestResolver_TrustedRecordSkipsRemotes(t *testing.T) {
	src := &stubSource{}
	r := newTestResolver(src)

	rec := &domain.TokenRecord{
		Mint:        testMint,
		Name:        "Dogwifhat",
		Symbol:      "WIF",
		Image:       "https://img.example/wif.png",
		MetadataURI: "https://meta.example/wif.json",
	}

	resolved := r.Resolve(context.Background(), rec)

	if src.coinCalls != 0 || src.uriCalls != 0 {
		t.Errorf("trusted record must not trigger fetches, got coin=%d uri=%d", src.coinCalls, src.uriCalls)
	}
	if resolved.Name != "Dogwifhat" || resolved.Symbol != "WIF" {
		t.Errorf("trusted fields changed: %+v", resolved)
	}
}

func TestResolver_NeverOverwritesTrustedField(t *testing.T) {
	src := &stubSource{
		uris: map[string]*domain.TokenMeta{
			"https://meta.example/x.json": {
				Name:   strPtr("Impostor"),
				Symbol: strPtr("IMP"),
				Image:  strPtr("https://img.example/imp.png"),
			},
		},
	}
	r := newTestResolver(src)

	rec := &domain.TokenRecord{
		Mint:        testMint,
		Name:        "Dogwifhat", // trusted
		Symbol:      "",          // needs enrichment
		MetadataURI: "https://meta.example/x.json",
	}

	resolved := r.Resolve(context.Background(), rec)

	if resolved.Name != "Dogwifhat" {
		t.Errorf("trusted name overwritten to %q", resolved.Name)
	}
	if resolved.Symbol != "IMP" {
		t.Errorf("expected symbol merged, got %q", resolved.Symbol)
	}
	if resolved.Image != "https://img.example/imp.png" {
		t.Errorf("expected image merged, got %q", resolved.Image)
	}
	if rec.Symbol != "" {
		t.Error("input record must not be mutated")
	}
}

func TestResolver_CascadeFallbackToCoinInfo(t *testing.T) {
	// Metadata URI 404s, coin-info endpoint has the goods with an
	// ipfs image that must come back rewritten to the gateway.
	coinMeta := Normalize(domain.RawPayload{
		"name":   "Foo",
		"symbol": "FOO",
		"image":  "ipfs://QmFooImage",
	})
	src := &stubSource{
		coins: map[string]*domain.TokenMeta{testMint: coinMeta},
		uriErrs: map[string]error{
			"https://meta.example/foo.json": ErrNotFound,
		},
	}
	r := newTestResolver(src)

	rec := &domain.TokenRecord{
		Mint:        testMint,
		MetadataURI: "https://meta.example/foo.json",
	}

	resolved := r.Resolve(context.Background(), rec)

	if resolved.Name != "Foo" {
		t.Errorf("expected name Foo, got %q", resolved.Name)
	}
	if resolved.Symbol != "FOO" {
		t.Errorf("expected symbol FOO, got %q", resolved.Symbol)
	}
	if resolved.Image != "https://ipfs.io/ipfs/QmFooImage" {
		t.Errorf("expected gateway image URL, got %q", resolved.Image)
	}
}

func TestResolver_CoinSuppliesMissingMetadataURI(t *testing.T) {
	src := &stubSource{
		coins: map[string]*domain.TokenMeta{
			testMint: {
				Symbol:      strPtr("FOO"),
				MetadataURI: strPtr("https://meta.example/found.json"),
			},
		},
		uris: map[string]*domain.TokenMeta{
			"https://meta.example/found.json": {
				Name:        strPtr("Foo"),
				Description: strPtr("the foo coin"),
			},
		},
	}
	r := newTestResolver(src)

	rec := &domain.TokenRecord{Mint: testMint}

	resolved := r.Resolve(context.Background(), rec)

	if resolved.Name != "Foo" {
		t.Errorf("expected name from followed uri, got %q", resolved.Name)
	}
	if resolved.Description != "the foo coin" {
		t.Errorf("expected description merged, got %q", resolved.Description)
	}
	if resolved.Symbol != "FOO" {
		t.Errorf("expected symbol from coin payload, got %q", resolved.Symbol)
	}
	if resolved.MetadataURI != "https://meta.example/found.json" {
		t.Errorf("expected metadata uri adopted, got %q", resolved.MetadataURI)
	}
	if src.uriCalls != 1 {
		t.Errorf("uri must be followed exactly once, got %d calls", src.uriCalls)
	}
}

func TestResolver_TransientFailureDegradesGracefully(t *testing.T) {
	src := &stubSource{
		coinErrs: map[string]error{testMint: errors.New("upstream timeout")},
		uriErrs: map[string]error{
			"https://meta.example/x.json": errors.New("upstream timeout"),
		},
	}
	r := newTestResolver(src)

	rec := &domain.TokenRecord{
		Mint:        testMint,
		Name:        "ABCDEF12", // placeholder, would need enrichment
		MetadataURI: "https://meta.example/x.json",
	}

	resolved := r.Resolve(context.Background(), rec)

	// Unresolved fields stay as they were; no panic, no error surfaced.
	if resolved.Name != "ABCDEF12" {
		t.Errorf("expected name unchanged on failure, got %q", resolved.Name)
	}
}

func TestResolver_Coin_NotFoundSurfaced(t *testing.T) {
	src := &stubSource{}
	r := newTestResolver(src)

	if _, err := r.Coin(context.Background(), "missing-mint"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
