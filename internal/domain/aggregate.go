package domain

// AggregatedToken is the per-token result of one aggregation pipeline
// invocation. It is derived and ephemeral: built from the trade window,
// joined with the persisted TokenRecord, and enriched by the metadata
// resolver. Never persisted.
type AggregatedToken struct {
	Mint string

	// Resolved display fields. Each is either the persisted value or an
	// overwrite from a higher-confidence remote fetch.
	Name        string
	Symbol      string
	Image       string
	Description string
	Twitter     string
	Telegram    string
	Website     string
	MetadataURI string

	// Windowed metrics
	VolumeSOL     float64
	VolumeUSD     float64
	BuyVolumeSOL  float64
	BuyVolumeUSD  float64
	SellVolumeSOL float64
	SellVolumeUSD float64
	BuySellRatio  float64 // buyVolumeSOL / volumeSOL, 0 when no volume
	UniqueTraders int     // traders whose window spend is inside the configured bounds
	LastTradeAt   int64   // ms, 0 when no trades in window

	// Pricing
	PriceSOL     float64
	PriceUSD     float64
	MarketCapUSD float64

	// Flags
	Graduated      bool
	IsBondingCurve bool

	Creator          string
	CreatedTimestamp int64 // ms
}
