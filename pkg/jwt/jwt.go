package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// BearerPrefix is prepended to tokens handed to clients.
const BearerPrefix = "Bearer "

var bearerRe = regexp.MustCompile(`^Bearer\s+`)

// Service signs and verifies HS256 tokens with a shared secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithTTL sets an expiry added to generated tokens that carry none.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// New creates a Service with the given secret.
func New(secret []byte, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	s := &Service{secret: secret}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromString creates a Service from a string secret.
func NewFromString(secret string, opts ...Option) (*Service, error) {
	return New([]byte(secret), opts...)
}

// Generate signs claims. Any JSON object shaped value works: a struct,
// a map or a model.
func (s *Service) Generate(claims any) (string, error) {
	m, err := toMap(claims)
	if err != nil {
		return "", err
	}
	if s.ttl > 0 {
		if _, ok := m["exp"]; !ok {
			m["exp"] = time.Now().Add(s.ttl).Unix()
		}
	}

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims(m)).SignedString(s.secret)
	if err != nil {
		return "", errors.Join(ErrSigningFailed, err)
	}
	return token, nil
}

// Sign is an alias of Generate.
func (s *Service) Sign(claims any) (string, error) {
	return s.Generate(claims)
}

// ModelToJWT signs model and returns the token with the "Bearer " prefix.
func (s *Service) ModelToJWT(model any) (string, error) {
	token, err := s.Generate(model)
	if err != nil {
		return "", err
	}
	return BearerPrefix + token, nil
}

// Parse verifies token and decodes its claims into dst.
// A leading "Bearer " is stripped. When dst implements Validator it is
// checked after decoding.
func (s *Service) Parse(token string, dst any) error {
	claims, err := s.verify(token)
	if err != nil {
		return err
	}

	b, err := json.Marshal(claims)
	if err != nil {
		return errors.Join(ErrInvalidToken, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return errors.Join(ErrInvalidToken, err)
	}

	if v, ok := dst.(Validator); ok {
		if err := v.Valid(); err != nil {
			return err
		}
	}
	return nil
}

// Verify checks token and returns its raw claims.
func (s *Service) Verify(token string) (map[string]any, error) {
	return s.verify(token)
}

// VerifyAuthToken is Verify for tokens coming from clients, which may
// carry the "Bearer " prefix.
func (s *Service) VerifyAuthToken(token string) (map[string]any, error) {
	return s.verify(token)
}

func (s *Service) verify(token string) (map[string]any, error) {
	token = StripBearer(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := gojwt.MapClaims{}
	_, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return s.secret, nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, gojwt.ErrTokenExpired):
			return nil, errors.Join(ErrExpiredToken, err)
		case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
			return nil, errors.Join(ErrInvalidSignature, err)
		default:
			return nil, errors.Join(ErrInvalidToken, err)
		}
	}
	return claims, nil
}

// StripBearer removes a leading "Bearer " from token.
func StripBearer(token string) string {
	return bearerRe.ReplaceAllString(token, "")
}

func toMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrInvalidClaims, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Join(ErrInvalidClaims, fmt.Errorf("%T: %w", v, err))
	}
	if m == nil {
		return nil, ErrInvalidClaims
	}
	return m, nil
}
