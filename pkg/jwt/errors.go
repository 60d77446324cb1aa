package jwt

import "errors"

var (
	ErrEmptySecret      = errors.New("jwt: secret is empty")
	ErrInvalidToken     = errors.New("jwt: invalid token")
	ErrExpiredToken     = errors.New("jwt: token expired")
	ErrInvalidSignature = errors.New("jwt: invalid signature")
	ErrSigningFailed    = errors.New("jwt: failed to sign token")
	ErrInvalidClaims    = errors.New("jwt: claims are not a JSON object")
	ErrSecretFile       = errors.New("jwt: failed to read or create secret file")
)
