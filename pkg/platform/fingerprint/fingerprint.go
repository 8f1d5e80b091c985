// Package fingerprint computes deterministic SHA-256 fingerprints for identity
// anchors and uploaded payloads.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PAN returns the hex SHA-256 of a PAN after canonicalisation (trimmed, upper case),
// so "abcde1234f" and "ABCDE1234F" collide on the uniqueness index.
func PAN(pan string) string {
	return String(NormalizePAN(pan))
}

// NormalizePAN canonicalises a PAN for hashing and masking.
func NormalizePAN(pan string) string {
	return strings.ToUpper(strings.TrimSpace(pan))
}

// String returns the hex SHA-256 of s.
func String(s string) string {
	return Bytes([]byte(s))
}

// Bytes returns the hex SHA-256 of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
