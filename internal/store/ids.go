package store

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
)

// NewID returns a URL-safe random identifier of the requested length. Group ids
// use 10 characters, order keys 20, leader tokens 32.
func NewID(length int) string {
	if length <= 0 {
		length = 20
	}
	var out strings.Builder
	for out.Len() < length {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand failing means the platform is broken; an empty id
			// would silently collide, so keep trying.
			continue
		}
		encoded := strings.TrimRight(base64.URLEncoding.EncodeToString(buf), "=")
		encoded = strings.ReplaceAll(encoded, "-", "")
		encoded = strings.ReplaceAll(encoded, "_", "")
		out.WriteString(encoded)
	}
	return out.String()[:length]
}
