package credentials

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const hashCost = 10

var ErrEmptyPassword = errors.New("password is empty")

// Hash derives a salted bcrypt hash for storage. Plaintext is never persisted
// or logged anywhere in the codebase.
func Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}

	b, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Verify reports whether plain matches the stored hash. A mismatch is a
// normal negative result, not an error; an account without a stored hash
// (federation-only or passwordless registration) never matches.
func Verify(hash, plain string) bool {
	if hash == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
