// Package auth owns the identity lifecycle: password hashing, the user
// registry, and in-memory sessions. It never stores or logs a raw password.
package auth

import (
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// HashPassword returns a salted bcrypt hash of raw. Each call salts
// independently, so hashing the same password twice yields different
// strings that both verify.
func HashPassword(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether raw is the password that produced hash.
// Malformed or truncated hashes verify as false rather than erroring.
func VerifyPassword(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
