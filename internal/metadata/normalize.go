package metadata

import "token-radar/internal/domain"

// Normalize maps an untrusted external payload into the canonical
// TokenMeta shape. Only string-typed values are accepted for string
// fields; anything else maps to nil. Image and metadata-URI fields are
// rewritten through NormalizeURI. Never panics: malformed input yields a
// TokenMeta of nils and the caller logs and moves on.
func Normalize(raw domain.RawPayload) *domain.TokenMeta {
	return NormalizeWith(raw, DefaultIPFSGateway)
}

// NormalizeWith is Normalize rewriting content-addressed URIs through a
// specific gateway.
func NormalizeWith(raw domain.RawPayload, gateway string) *domain.TokenMeta {
	m := &domain.TokenMeta{}
	if raw == nil {
		return m
	}

	m.Name = stringField(raw, "name")
	m.Symbol = stringField(raw, "symbol")
	m.Description = stringField(raw, "description")
	m.Twitter = stringField(raw, "twitter")
	m.Telegram = stringField(raw, "telegram")
	m.Website = stringField(raw, "website")

	m.Image = uriField(raw, gateway, "image", "image_uri")
	m.MetadataURI = uriField(raw, gateway, "metadata_uri", "uri")

	m.BondingCurve = stringField(raw, "bonding_curve")
	m.AssociatedBondingCurve = stringField(raw, "associated_bonding_curve")

	if v, ok := raw["complete"].(bool); ok {
		m.Complete = &v
	} else if v, ok := raw["completed"].(bool); ok {
		m.Complete = &v
	}

	// JSON numbers decode as float64.
	if v, ok := raw["king_of_the_hill_timestamp"].(float64); ok {
		ts := int64(v)
		m.KingOfTheHillTimestamp = &ts
	}

	return m
}

// stringField extracts the first string-typed value among keys,
// rejecting empty strings.
func stringField(raw domain.RawPayload, keys ...string) *string {
	for _, k := range keys {
		if v, ok := raw[k].(string); ok && v != "" {
			return &v
		}
	}
	return nil
}

// uriField extracts a string field like stringField and runs it through
// the URI normalizer, mapping unparseable URIs to nil.
func uriField(raw domain.RawPayload, gateway string, keys ...string) *string {
	s := stringField(raw, keys...)
	if s == nil {
		return nil
	}
	normalized := NormalizeURIWith(*s, gateway)
	if normalized == "" {
		return nil
	}
	return &normalized
}
