package clients

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// secretKeyBytes is the entropy of a generated webhook secret key.
// The key is hex encoded, so the resulting string is twice as long.
const secretKeyBytes = 32

// GenerateSecretKey returns a new random webhook secret key.
func GenerateSecretKey() (string, error) {
	buf := make([]byte, secretKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
