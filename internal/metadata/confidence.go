package metadata

import "strings"

// LooksLikePlaceholder reports whether a display value appears to be
// mechanically derived from the token's own mint address rather than
// genuine metadata. Absent values count as placeholders so they get
// enriched.
//
// Many tokens are seeded with a name equal to a prefix of their mint
// before real metadata propagates. The check is deliberately tolerant of
// false positives: a legitimately short name that happens to prefix the
// mint is flagged, which costs one redundant fetch at worst.
func LooksLikePlaceholder(value, mint string) bool {
	if strings.TrimSpace(value) == "" {
		return true
	}

	cleaned := stripNonAlnum(value)
	// Under 3 cleaned characters the prefix match is too weak a signal.
	if len(cleaned) < 3 {
		return false
	}

	return strings.HasPrefix(strings.ToUpper(mint), cleaned)
}

// HighConfidence reports whether a record's display fields need no
// enrichment: trusted name and symbol, plus an image that is present and
// not just the raw metadata URI echoed back.
func HighConfidence(name, symbol, image, metadataURI, mint string) bool {
	if LooksLikePlaceholder(name, mint) || LooksLikePlaceholder(symbol, mint) {
		return false
	}
	return image != "" && image != metadataURI
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	return b.String()
}
