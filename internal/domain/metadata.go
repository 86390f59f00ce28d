package domain

// RawPayload is an untrusted key-value payload from an external metadata
// endpoint. Only the metadata normalizer consumes it; everything
// downstream sees the typed TokenMeta.
type RawPayload map[string]any

// TokenMeta is the canonical shape of externally fetched token metadata.
// All fields are nullable: a nil field was absent or not string-typed in
// the source payload.
type TokenMeta struct {
	Name        *string
	Symbol      *string
	Image       *string // normalized to a fetchable HTTP(S) URL
	Description *string
	Twitter     *string
	Telegram    *string
	Website     *string
	MetadataURI *string // normalized, present on coin-info payloads

	Complete               *bool
	KingOfTheHillTimestamp *int64 // ms
	BondingCurve           *string
	AssociatedBondingCurve *string
}

// IsZero reports whether no field was resolved.
func (m *TokenMeta) IsZero() bool {
	return m == nil || (m.Name == nil && m.Symbol == nil && m.Image == nil &&
		m.Description == nil && m.Twitter == nil && m.Telegram == nil &&
		m.Website == nil && m.MetadataURI == nil && m.Complete == nil &&
		m.KingOfTheHillTimestamp == nil && m.BondingCurve == nil &&
		m.AssociatedBondingCurve == nil)
}
