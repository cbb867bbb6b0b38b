// Package cache provides a layered byte cache for raw entity payloads
// (Turtle documents and JSON exports), so repeated requests for the same
// entity skip the upstream round trip.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the minimal contract both layers satisfy.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from a request URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "textifier:v1:" + hex.EncodeToString(sum[:])
}
