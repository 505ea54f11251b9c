package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ReviewFingerprint derives a stable cache key for one review dimension of a
// draft. Only the semantically relevant fields participate; whitespace is
// normalized so trivial formatting differences still hit.
func ReviewFingerprint(title, body, topic, dimension string) string {
	h := sha256.New()
	h.Write([]byte(normalize(title)))
	h.Write([]byte{0})
	h.Write([]byte(normalize(body)))
	h.Write([]byte{0})
	h.Write([]byte(normalize(topic)))
	return "review:" + dimension + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// SearchFingerprint derives a stable cache key for a search-style call.
func SearchFingerprint(topic, tier string) string {
	h := sha256.New()
	h.Write([]byte(normalize(topic)))
	h.Write([]byte{0})
	h.Write([]byte(tier))
	return "search:" + hex.EncodeToString(h.Sum(nil))[:16]
}

// normalize trims and collapses internal whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
