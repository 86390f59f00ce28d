package domain

// TokenRecord represents a persisted token as written by ingestion.
// Display fields are frequently incomplete or seeded with placeholder
// values derived from the mint address; the metadata resolver upgrades
// them at read time without writing back.
type TokenRecord struct {
	Mint        string // token mint address (globally unique, stable)
	Name        string // display name, may be empty or a placeholder
	Symbol      string // ticker symbol, may be empty or a placeholder
	Image       string // image URL or content-addressed URI
	MetadataURI string // off-chain metadata URI, may be empty
	Description string

	// Social links
	Twitter  string
	Telegram string
	Website  string

	// Lifecycle
	Complete               bool   // graduated off the bonding curve
	KingOfTheHillTimestamp *int64 // ms, nil if never reached
	BondingCurve           *string
	AssociatedBondingCurve *string

	// Pricing inputs for the bonding-curve phase
	VirtualSOLReserves   float64
	VirtualTokenReserves float64
	TotalSupply          float64

	Creator          string
	CreatedTimestamp int64 // ms
}

// PriceSOL returns the unit price implied by the virtual reserves,
// or 0 when reserves are unknown.
func (t *TokenRecord) PriceSOL() float64 {
	if t.VirtualTokenReserves <= 0 {
		return 0
	}
	return t.VirtualSOLReserves / t.VirtualTokenReserves
}
