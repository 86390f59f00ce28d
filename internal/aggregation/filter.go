package aggregation

import "token-radar/internal/domain"

// applyFilters returns the tokens passing every filter. Range filters
// are inclusive on both ends.
func applyFilters(tokens []*domain.AggregatedToken, f domain.Filters) []*domain.AggregatedToken {
	var favorites map[string]struct{}
	if f.FavoritesOnly {
		favorites = make(map[string]struct{}, len(f.Favorites))
		for _, mint := range f.Favorites {
			favorites[mint] = struct{}{}
		}
	}

	filtered := make([]*domain.AggregatedToken, 0, len(tokens))
	for _, tok := range tokens {
		if !passes(tok, f, favorites) {
			continue
		}
		filtered = append(filtered, tok)
	}
	return filtered
}

func passes(tok *domain.AggregatedToken, f domain.Filters, favorites map[string]struct{}) bool {
	if f.MinMarketCap != nil && tok.MarketCapUSD < *f.MinMarketCap {
		return false
	}
	if f.MaxMarketCap != nil && tok.MarketCapUSD > *f.MaxMarketCap {
		return false
	}
	if f.MinVolume != nil && tok.VolumeUSD < *f.MinVolume {
		return false
	}
	if f.MaxVolume != nil && tok.VolumeUSD > *f.MaxVolume {
		return false
	}
	if f.MinTraders != nil && tok.UniqueTraders < *f.MinTraders {
		return false
	}
	if f.MaxTraders != nil && tok.UniqueTraders > *f.MaxTraders {
		return false
	}

	if f.GraduatedOnly && !tok.Graduated {
		return false
	}
	if f.HideGraduated && tok.Graduated {
		return false
	}
	if f.HideBonding && tok.IsBondingCurve {
		return false
	}
	if f.FavoritesOnly {
		if _, ok := favorites[tok.Mint]; !ok {
			return false
		}
	}
	return true
}
