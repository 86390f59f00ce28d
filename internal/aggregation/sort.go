package aggregation

import (
	"sort"
	"strings"

	"token-radar/internal/domain"
)

// sortTokens orders tokens by the requested key and direction. Ties are
// broken by mint, with the tie-break following the primary direction so
// pagination is stable across calls with identical inputs.
func sortTokens(tokens []*domain.AggregatedToken, key domain.SortKey, dir domain.SortDir) {
	sort.SliceStable(tokens, func(i, j int) bool {
		cmp := compareByKey(tokens[i], tokens[j], key)
		if cmp == 0 {
			cmp = strings.Compare(tokens[i].Mint, tokens[j].Mint)
		}
		if dir == domain.SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// compareByKey returns -1, 0, or 1 ordering a before b in ascending
// terms of the sort key.
func compareByKey(a, b *domain.AggregatedToken, key domain.SortKey) int {
	switch key {
	case domain.SortVolume:
		return compareFloat(a.VolumeUSD, b.VolumeUSD)
	case domain.SortBuyVolume:
		return compareFloat(a.BuyVolumeUSD, b.BuyVolumeUSD)
	case domain.SortSellVolume:
		return compareFloat(a.SellVolumeUSD, b.SellVolumeUSD)
	case domain.SortTraders:
		return compareInt(a.UniqueTraders, b.UniqueTraders)
	case domain.SortAge:
		// Missing creation timestamps are 0, sorting as oldest.
		return compareInt64(a.CreatedTimestamp, b.CreatedTimestamp)
	case domain.SortLastTrade:
		return compareInt64(a.LastTradeAt, b.LastTradeAt)
	default:
		return compareFloat(a.MarketCapUSD, b.MarketCapUSD)
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt(a, b int) int {
	return compareInt64(int64(a), int64(b))
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
