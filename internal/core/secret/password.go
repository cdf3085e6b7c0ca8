// Package secret generates credentials for provisioned services.
package secret

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// passwordAlphabet matches what MySQL accepts unquoted in our GRANT
// statements: letters, digits, dot and underscore.
const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._"

// DefaultPasswordLength is the length of generated passwords.
const DefaultPasswordLength = 16

// GeneratePassword returns a random password of the given length drawn from
// passwordAlphabet using crypto/rand.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("password length must be positive, got %d", length)
	}

	max := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
