package usecase

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost matches the work factor the accounts were created with.
	bcryptCost = 10

	// saltPrefixLen is the length of "$2a$10$" plus the 22 character salt.
	saltPrefixLen = 29

	// dummyHash is compared against when the username is unknown.
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// hashPassword derives a bcrypt hash from a fresh random salt.
// It returns the hash and the salt it embeds.
func hashPassword(plain string) (hash, salt string, err error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash password: %w", err)
	}
	hash = string(b)
	return hash, hash[:saltPrefixLen], nil
}

// checkPassword reports whether plain matches the stored hash.
func checkPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// isEmptyOrNull reports whether s is missing or only whitespace.
func isEmptyOrNull(s string) bool {
	return strings.TrimSpace(s) == ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
