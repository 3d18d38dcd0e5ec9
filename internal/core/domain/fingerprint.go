package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint computes the deduplication key for a document.
// It is the SHA-256 hex digest of the trimmed content; when the content is
// empty or unextractable it falls back to hashing the URL, so pages that
// yield no text still deduplicate by location.
func Fingerprint(content, url string) string {
	payload := strings.TrimSpace(content)
	if payload == "" {
		payload = url
	}
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
