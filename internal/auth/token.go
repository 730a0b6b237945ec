// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// Claims is the signed token payload.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenService issues and decodes HS256-signed identity tokens.
// Tokens carry no expiry unless a TTL is configured.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithTokenTTL makes issued tokens expire after ttl. Zero disables expiry.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) { s.ttl = ttl }
}

// WithIssuer sets the iss claim; decoding then requires a matching issuer.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) { s.issuer = issuer }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a TokenService. An empty secret is a startup error.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	s := &TokenService{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for id.
func (s *TokenService) Issue(id Identity) (string, error) {
	if id.Username == "" {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Errorf("identity has no username")
	}

	now := s.now()
	claims := Claims{
		Username: id.Username,
		IsAdmin:  id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.Username,
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").With("username", id.Username).Wrap(err)
	}
	return signed, nil
}

// Decode verifies token and returns the identity it names. Any failure,
// including a bad signature or an unexpected algorithm, is Unauthorized.
func (s *TokenService) Decode(token string) (*Identity, error) {
	if token == "" {
		return nil, oops.Code("AUTH_TOKEN_MISSING").Wrapf(errutil.ErrUnauthorized, "token is empty")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_INVALID").Wrapf(errutil.ErrUnauthorized, "invalid token: %v", err)
	}
	if !parsed.Valid || claims.Username == "" {
		return nil, oops.Code("AUTH_TOKEN_INVALID").Wrapf(errutil.ErrUnauthorized, "invalid token claims")
	}

	return &Identity{Username: claims.Username, IsAdmin: claims.IsAdmin}, nil
}
