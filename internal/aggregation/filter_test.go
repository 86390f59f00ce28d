package aggregation

import (
	"testing"

	"token-radar/internal/domain"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestApplyFiltersRangesInclusive(t *testing.T) {
	tokens := []*domain.AggregatedToken{
		{Mint: "LOW", MarketCapUSD: 100, VolumeUSD: 10, UniqueTraders: 1},
		{Mint: "MID", MarketCapUSD: 1000, VolumeUSD: 100, UniqueTraders: 5},
		{Mint: "HIGH", MarketCapUSD: 10000, VolumeUSD: 1000, UniqueTraders: 50},
	}

	got := applyFilters(tokens, domain.Filters{
		MinMarketCap: fptr(1000),
		MaxMarketCap: fptr(10000),
	})
	if len(got) != 2 {
		t.Fatalf("market cap range kept %d tokens, want 2 (bounds inclusive)", len(got))
	}

	got = applyFilters(tokens, domain.Filters{MinVolume: fptr(100), MaxVolume: fptr(100)})
	if len(got) != 1 || got[0].Mint != "MID" {
		t.Fatalf("exact volume bound got %v, want just MID", got)
	}

	got = applyFilters(tokens, domain.Filters{MinTraders: iptr(5), MaxTraders: iptr(50)})
	if len(got) != 2 {
		t.Fatalf("trader range kept %d tokens, want 2", len(got))
	}
}

func TestApplyFiltersLifecycleFlags(t *testing.T) {
	tokens := []*domain.AggregatedToken{
		{Mint: "GRAD", Graduated: true},
		{Mint: "CURVE", IsBondingCurve: true},
		{Mint: "OTHER"},
	}

	got := applyFilters(tokens, domain.Filters{GraduatedOnly: true})
	if len(got) != 1 || got[0].Mint != "GRAD" {
		t.Errorf("GraduatedOnly got %v, want just GRAD", mints(got))
	}

	got = applyFilters(tokens, domain.Filters{HideGraduated: true})
	if len(got) != 2 {
		t.Errorf("HideGraduated kept %d, want 2", len(got))
	}

	got = applyFilters(tokens, domain.Filters{HideBonding: true})
	if len(got) != 2 {
		t.Errorf("HideBonding kept %d, want 2", len(got))
	}
}

func TestApplyFiltersFavoritesOnly(t *testing.T) {
	tokens := []*domain.AggregatedToken{
		{Mint: "FAV1"},
		{Mint: "NOPE"},
		{Mint: "FAV2"},
	}

	got := applyFilters(tokens, domain.Filters{
		FavoritesOnly: true,
		Favorites:     []string{"FAV1", "FAV2"},
	})
	if len(got) != 2 {
		t.Fatalf("kept %d tokens, want 2", len(got))
	}
	for _, tok := range got {
		if tok.Mint == "NOPE" {
			t.Errorf("non-favorite survived the favorites filter")
		}
	}
}

func mints(tokens []*domain.AggregatedToken) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Mint
	}
	return out
}
