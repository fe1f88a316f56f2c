package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPin returns the SHA-256 hex digest of a PIN. Only the hash is ever
// stored in settings.
func HashPin(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}
