// File: internal/platform/crypto/generator.go
package crypto

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// NewAPIKeySuffix generates the stored portion of an API key. The externally
// visible key is the configured public prefix concatenated with this suffix.
func NewAPIKeySuffix() string {
	return uuid.NewString()
}

// GenerateSecureRandomString creates a cryptographically secure random string.
// n is the number of bytes of randomness; the encoded result is longer.
func GenerateSecureRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
