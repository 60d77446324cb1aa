// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used by Hash.
const DefaultCost = 10

var (
	ErrEmptyPassword = errors.New("password: empty password")
	ErrHashFailed    = errors.New("password: failed to hash password")
	ErrMismatch      = errors.New("password: password does not match")
)

// Hash returns the bcrypt hash of password.
func Hash(password string) (string, error) {
	return HashWithCost(password, DefaultCost)
}

// HashWithCost is Hash with an explicit cost.
func HashWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Join(ErrHashFailed, err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash.
func Verify(password, hash string) bool {
	return Compare(password, hash) == nil
}

// Compare returns ErrMismatch when password does not match hash.
func Compare(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return errors.Join(ErrMismatch, err)
}
