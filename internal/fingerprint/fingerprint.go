// ABOUTME: Content fingerprinting for analysis cache keys.
// ABOUTME: Derives a stable SHA-256 key from a contract address and its source code.

package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Contract computes a deterministic cache key for an (address, code) pair.
// The address is normalized to lowercase and the code is hashed first, so two
// byte-identical sources always map to the same key while any code change
// produces a different one.
func Contract(address, code string) string {
	codeHash := sha256.Sum256([]byte(code))
	return digest(strings.ToLower(address) + ":" + hex.EncodeToString(codeHash[:]))
}

// Request computes the fallback key for contracts without available source,
// keyed on address and network only.
func Request(address, network string) string {
	return digest(fmt.Sprintf("%s@%s", strings.ToLower(address), network))
}

func digest(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
