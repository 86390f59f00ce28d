package domain

// SortKey identifies the metric a query result is ordered by.
type SortKey string

// Supported sort keys. Unknown keys fall back to SortMarketCap.
const (
	SortMarketCap  SortKey = "market_cap"
	SortVolume     SortKey = "volume"
	SortBuyVolume  SortKey = "buy_volume"
	SortSellVolume SortKey = "sell_volume"
	SortTraders    SortKey = "traders"
	SortAge        SortKey = "age"
	SortLastTrade  SortKey = "last_trade"
)

// SortDir is the requested ordering direction.
type SortDir string

// Sort directions. Unknown directions fall back to SortDesc.
const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// ParseSortKey maps a raw string to a SortKey, defaulting to market cap.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortMarketCap, SortVolume, SortBuyVolume, SortSellVolume,
		SortTraders, SortAge, SortLastTrade:
		return SortKey(s)
	default:
		return SortMarketCap
	}
}

// ParseSortDir maps a raw string to a SortDir, defaulting to descending.
func ParseSortDir(s string) SortDir {
	if SortDir(s) == SortAsc {
		return SortAsc
	}
	return SortDesc
}

// Pagination and window bounds.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100

	MinWindowMinutes   = 1
	MaxWindowMinutes   = 60
	FloorWindowMinutes = 30 // widening target for sparse-activity periods
)

// Filters restricts the aggregated set before sorting and pagination.
// Range bounds are inclusive; nil means unbounded.
type Filters struct {
	MinMarketCap   *float64
	MaxMarketCap   *float64
	MinVolume      *float64 // USD
	MaxVolume      *float64 // USD
	MinTraders     *int
	MaxTraders     *int
	MinTradeAmount *float64 // USD, per-trader cumulative spend lower bound
	MaxTradeAmount *float64 // USD, per-trader cumulative spend upper bound

	GraduatedOnly bool // only tokens that completed the bonding curve
	HideGraduated bool
	HideBonding   bool
	FavoritesOnly bool
	Favorites     []string // mint addresses, consulted when FavoritesOnly is set
}

// QueryOptions is the request-scoped input to the aggregation pipeline.
type QueryOptions struct {
	Page             int // 1-based
	PageSize         int
	SortBy           SortKey
	SortDir          SortDir
	TimeRangeMinutes int // requested lookback, clamped to [1,60]
	Filters          Filters
}

// Normalize clamps options to their valid ranges in place.
func (o *QueryOptions) Normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	if o.TimeRangeMinutes < MinWindowMinutes {
		o.TimeRangeMinutes = MinWindowMinutes
	}
	if o.TimeRangeMinutes > MaxWindowMinutes {
		o.TimeRangeMinutes = MaxWindowMinutes
	}
	o.SortBy = ParseSortKey(string(o.SortBy))
	o.SortDir = ParseSortDir(string(o.SortDir))
}

// QueryResult is the paginated output of one pipeline invocation.
// EffectiveTimeRangeMinutes may exceed the requested window when
// adaptive widening kicked in; callers must read it back.
type QueryResult struct {
	Tokens                    []*AggregatedToken
	Total                     int
	TotalPages                int
	Page                      int
	PageSize                  int
	EffectiveTimeRangeMinutes int
}
