// Package mintaddr validates Solana mint addresses before they reach
// storage lookups or external metadata endpoints.
package mintaddr

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Validate checks that addr is a well-formed Solana public key: base58
// text decoding to exactly 32 bytes.
func Validate(addr string) error {
	if addr == "" {
		return fmt.Errorf("empty address")
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("decoded to %d bytes, want 32", len(raw))
	}
	return nil
}

// IsOnCurve reports whether addr decodes to a point on the ed25519
// curve. Keypair-generated accounts (wallets, launchpad token mints)
// are on-curve; program-derived accounts (bonding curves, vaults) are
// off-curve, so off-curve input at a mint boundary is a misdirected
// account address. Returns false for malformed input.
func IsOnCurve(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
