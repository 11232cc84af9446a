package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"lagimmo/api/internal/apperr"
)

const (
	DefaultBcryptCost = 10
	// MaxPasswordBytes is the bcrypt input limit. It counts bytes, not runes.
	MaxPasswordBytes = 72
)

var ErrPasswordTooLong = apperr.Validation("password must be at most 72 bytes")

// Hasher hashes and compares passwords with bcrypt.
type Hasher struct {
	cost int
}

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether password produces hash. A malformed hash is an error,
// a mismatch is not. A password over the bcrypt limit never matches.
func (h Hasher) Matches(password, hash string) (bool, error) {
	if len(password) > MaxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}
