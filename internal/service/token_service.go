package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"user-management-api/internal/model"
)

const maxTokenVersion = 100

// ErrInvalidToken covers every reason a bearer token is refused.
var ErrInvalidToken = errors.New("invalid token")

type TokenVersionStore interface {
	TokenVersion(ctx context.Context, userID int64) (*int, error)
	SetTokenVersion(ctx context.Context, userID int64, version *int) error
}

type tokenClaims struct {
	TokenVersion int            `json:"token_version"`
	Data         model.Identity `json:"data"`
	jwt.RegisteredClaims
}

// TokenService signs HS256 tokens and ties each one to the version stored on
// the user row. Issuing a token replaces the stored version, which invalidates
// every token issued before it.
type TokenService struct {
	secret   []byte
	issuer   string
	ttl      time.Duration
	versions TokenVersionStore
	now      func() time.Time
}

func NewTokenService(secret string, issuer string, ttl time.Duration, versions TokenVersionStore) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		issuer:   issuer,
		ttl:      ttl,
		versions: versions,
		now:      time.Now,
	}
}

func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) Issue(ctx context.Context, identity model.Identity) (string, error) {
	current, err := s.versions.TokenVersion(ctx, identity.ID)
	if err != nil {
		return "", fmt.Errorf("load token version: %w", err)
	}

	version, err := drawVersion(current)
	if err != nil {
		return "", fmt.Errorf("draw token version: %w", err)
	}

	if err := s.versions.SetTokenVersion(ctx, identity.ID, &version); err != nil {
		return "", fmt.Errorf("store token version: %w", err)
	}

	now := s.now().UTC()
	claims := tokenClaims{
		TokenVersion: version,
		Data:         identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Validate returns ErrInvalidToken for malformed, expired, foreign or revoked
// tokens. Only store failures surface as other errors.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (model.Identity, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return model.Identity{}, ErrInvalidToken
	}
	if claims.Data.ID == 0 || claims.TokenVersion == 0 {
		return model.Identity{}, ErrInvalidToken
	}

	stored, err := s.versions.TokenVersion(ctx, claims.Data.ID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.Identity{}, ErrInvalidToken
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("load token version: %w", err)
	}
	if stored == nil || *stored != claims.TokenVersion {
		return model.Identity{}, ErrInvalidToken
	}

	return claims.Data, nil
}

// Revoke clears the stored version so no outstanding token for the user validates.
func (s *TokenService) Revoke(ctx context.Context, userID int64) error {
	if err := s.versions.SetTokenVersion(ctx, userID, nil); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

// drawVersion picks a version in [1, 100] that differs from current.
func drawVersion(current *int) (int, error) {
	for {
		n, err := rand.Int(rand.Reader, big.NewInt(maxTokenVersion))
		if err != nil {
			return 0, err
		}
		version := int(n.Int64()) + 1
		if current == nil || version != *current {
			return version, nil
		}
	}
}
