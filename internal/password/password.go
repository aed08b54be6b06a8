package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	costDevelopment = 4
	costProduction  = 12
)

var ErrHashFailed = errors.New("password hashing failed")

// Hasher wraps bcrypt with a cost factor chosen per deployment environment.
type Hasher struct {
	cost int
}

func NewHasher(production bool) *Hasher {
	cost := costDevelopment
	if production {
		cost = costProduction
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrHashFailed
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", ErrHashFailed
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A mismatch is not an
// error condition.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
