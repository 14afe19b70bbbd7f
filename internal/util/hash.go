package util

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// GenerateHash creates a short identifier from a summary and a timestamp
func GenerateHash(summary string, timestamp int64) string {
	hasher := sha256.New()
	hasher.Write([]byte(summary))
	hasher.Write([]byte(time.Unix(0, timestamp).String()))
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

// ContentKey returns the hex sha256 of parts, separated so that
// ("ab","c") and ("a","bc") differ.
func ContentKey(parts ...string) string {
	hasher := sha256.New()
	for _, p := range parts {
		hasher.Write([]byte(p))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
