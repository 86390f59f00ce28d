package server

import "token-radar/internal/domain"

// tokenResponse is the wire form of one aggregated token.
type tokenResponse struct {
	Mint        string `json:"mint"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Telegram    string `json:"telegram,omitempty"`
	Website     string `json:"website,omitempty"`

	VolumeSOL     float64 `json:"volume_sol"`
	VolumeUSD     float64 `json:"volume_usd"`
	BuyVolumeSOL  float64 `json:"buy_volume_sol"`
	BuyVolumeUSD  float64 `json:"buy_volume_usd"`
	SellVolumeSOL float64 `json:"sell_volume_sol"`
	SellVolumeUSD float64 `json:"sell_volume_usd"`
	BuySellRatio  float64 `json:"buy_sell_ratio"`
	UniqueTraders int     `json:"unique_traders"`
	LastTradeAt   int64   `json:"last_trade_at,omitempty"`

	PriceSOL     float64 `json:"price_sol"`
	PriceUSD     float64 `json:"price_usd"`
	MarketCapUSD float64 `json:"market_cap_usd"`

	Graduated      bool `json:"graduated"`
	IsBondingCurve bool `json:"is_bonding_curve"`

	Creator          string `json:"creator,omitempty"`
	CreatedTimestamp int64  `json:"created_timestamp,omitempty"`
}

// queryResponse is the wire form of one leaderboard page.
type queryResponse struct {
	Tokens                    []tokenResponse `json:"tokens"`
	Total                     int             `json:"total"`
	TotalPages                int             `json:"total_pages"`
	Page                      int             `json:"page"`
	PageSize                  int             `json:"page_size"`
	EffectiveTimeRangeMinutes int             `json:"effective_time_range_minutes"`
}

// coinResponse is the wire form of a point lookup on /api/coins.
type coinResponse struct {
	Mint        string `json:"mint"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Image       string `json:"image,omitempty"`
	MetadataURI string `json:"metadata_uri,omitempty"`
	Description string `json:"description,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Telegram    string `json:"telegram,omitempty"`
	Website     string `json:"website,omitempty"`

	Complete               bool   `json:"complete"`
	KingOfTheHillTimestamp *int64 `json:"king_of_the_hill_timestamp,omitempty"`

	PriceSOL         float64 `json:"price_sol"`
	TotalSupply      float64 `json:"total_supply"`
	Creator          string  `json:"creator,omitempty"`
	CreatedTimestamp int64   `json:"created_timestamp,omitempty"`
}

func toTokenResponse(t *domain.AggregatedToken) tokenResponse {
	return tokenResponse{
		Mint:             t.Mint,
		Name:             t.Name,
		Symbol:           t.Symbol,
		Image:            t.Image,
		Description:      t.Description,
		Twitter:          t.Twitter,
		Telegram:         t.Telegram,
		Website:          t.Website,
		VolumeSOL:        t.VolumeSOL,
		VolumeUSD:        t.VolumeUSD,
		BuyVolumeSOL:     t.BuyVolumeSOL,
		BuyVolumeUSD:     t.BuyVolumeUSD,
		SellVolumeSOL:    t.SellVolumeSOL,
		SellVolumeUSD:    t.SellVolumeUSD,
		BuySellRatio:     t.BuySellRatio,
		UniqueTraders:    t.UniqueTraders,
		LastTradeAt:      t.LastTradeAt,
		PriceSOL:         t.PriceSOL,
		PriceUSD:         t.PriceUSD,
		MarketCapUSD:     t.MarketCapUSD,
		Graduated:        t.Graduated,
		IsBondingCurve:   t.IsBondingCurve,
		Creator:          t.Creator,
		CreatedTimestamp: t.CreatedTimestamp,
	}
}

func toQueryResponse(res *domain.QueryResult) queryResponse {
	tokens := make([]tokenResponse, len(res.Tokens))
	for i, t := range res.Tokens {
		tokens[i] = toTokenResponse(t)
	}
	return queryResponse{
		Tokens:                    tokens,
		Total:                     res.Total,
		TotalPages:                res.TotalPages,
		Page:                      res.Page,
		PageSize:                  res.PageSize,
		EffectiveTimeRangeMinutes: res.EffectiveTimeRangeMinutes,
	}
}

func toCoinResponse(rec *domain.TokenRecord) coinResponse {
	return coinResponse{
		Mint:                   rec.Mint,
		Name:                   rec.Name,
		Symbol:                 rec.Symbol,
		Image:                  rec.Image,
		MetadataURI:            rec.MetadataURI,
		Description:            rec.Description,
		Twitter:                rec.Twitter,
		Telegram:               rec.Telegram,
		Website:                rec.Website,
		Complete:               rec.Complete,
		KingOfTheHillTimestamp: rec.KingOfTheHillTimestamp,
		PriceSOL:               rec.PriceSOL(),
		TotalSupply:            rec.TotalSupply,
		Creator:                rec.Creator,
		CreatedTimestamp:       rec.CreatedTimestamp,
	}
}
