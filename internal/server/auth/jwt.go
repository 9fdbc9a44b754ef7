// Package auth mints and verifies the HS256 tokens handed out at sign-in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// KeySource supplies the key tokens are signed with.
type KeySource interface {
	SigningKey(ctx context.Context) ([]byte, error)
}

// Claims is the payload of an access token. Subject and Email carry the
// same identity.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

var errUnexpectedMethod = errors.New("unexpected signing method")

// TokenService issues and checks access tokens.
type TokenService struct {
	keys     KeySource
	validity time.Duration
	now      func() time.Time
}

type Option func(*TokenService)

// WithValidity sets how long a minted token stays valid.
func WithValidity(d time.Duration) Option {
	return func(s *TokenService) {
		if d > 0 {
			s.validity = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTokenService(keys KeySource, opts ...Option) *TokenService {
	s := &TokenService{
		keys:     keys,
		validity: common.DefaultTokenValidity,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Validity returns the lifetime of minted tokens.
func (s *TokenService) Validity() time.Duration {
	return s.validity
}

// Mint signs a token for identity that expires after the configured
// validity.
func (s *TokenService) Mint(ctx context.Context, identity string) (string, error) {
	if identity == "" {
		return "", fmt.Errorf("%w: empty identity", common.ErrValidation)
	}

	key, err := s.keys.SigningKey(ctx)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(key)

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
			ID:        uuid.NewString(),
		},
		Email: identity,
	})

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and expiry of token and returns the identity
// it was minted for. Signature is checked before expiry, so an expired
// token signed with another key reports ErrInvalidSignature.
func (s *TokenService) Verify(ctx context.Context, token string) (*models.Identity, error) {
	key, err := s.keys.SigningKey(ctx)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(expiryLeeway),
	)

	_, err = parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v", errUnexpectedMethod, t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrMalformedToken)
	}
	if claims.Email != "" && claims.Email != claims.Subject {
		return nil, fmt.Errorf("%w: email does not match subject", common.ErrMalformedToken)
	}

	return &models.Identity{
		Email:     claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
		TokenID:   claims.ID,
	}, nil
}

// expiryLeeway makes the parser reject only once now is past exp. Its own
// check rejects at now == exp.
const expiryLeeway = time.Nanosecond

func mapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", common.ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}
}
