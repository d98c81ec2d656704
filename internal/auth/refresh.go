package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// refreshTokenBytes is the entropy of a refresh token. 64 random bytes
// rendered as 128 hex characters; the string has no embedded structure.
const refreshTokenBytes = 64

// GenerateRefreshToken returns a new opaque refresh token. It is only
// meaningful as a lookup key in the session store.
func GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
