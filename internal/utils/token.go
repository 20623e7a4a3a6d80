package utils

import (
	"strings" // Dash stripping
	"time"    // Expiry computation

	"github.com/google/uuid" // Random identifiers
)

// NewToken returns an unguessable single-use token and its expiry
func NewToken(ttl time.Duration) (string, time.Time) {
	token := strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
	return token, time.Now().Add(ttl)
}

// NewRequestID returns an identifier for request correlation
func NewRequestID() string {
	return uuid.NewString()
}
