// Package services contains server-side business logic. This file implements
// AuthService, which checks admin credentials and mints access tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/cryptox"
	"github.com/dmitrijs2005/studentvault/internal/logging"
	"github.com/dmitrijs2005/studentvault/internal/server/models"
	"github.com/dmitrijs2005/studentvault/internal/server/repositories/repomanager"
)

// PasswordHasher produces a salted hash of a password.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// TokenMinter issues a signed token for an identity.
type TokenMinter interface {
	Mint(ctx context.Context, identity string) (string, error)
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenMinter
	logger      logging.Logger

	// verified for unknown emails so they cost as much as a wrong password
	dummyHash string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, h PasswordHasher, t TokenMinter, l logging.Logger) (*AuthService, error) {
	pw, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("dummy password: %w", err)
	}
	dummy, err := h.Hash(pw)
	if err != nil {
		return nil, fmt.Errorf("dummy password hash: %w", err)
	}

	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      h,
		tokens:      t,
		logger:      l.With("module", "auth_service"),
		dummyHash:   dummy,
	}, nil
}

// SignIn returns an access token for the admin with email when password
// matches the stored hash. Unknown emails and wrong passwords both yield
// ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", common.ErrValidation
	}

	admin, err := s.repomanager.Admins(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// unknown emails pay for a hash check too
			_, _ = cryptox.VerifyPassword(password, s.dummyHash)
			return "", common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "admin lookup failed", "error", err)
		return "", common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword(password, admin.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "stored password hash rejected", "admin_id", admin.ID, "error", err)
		return "", fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if !ok {
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Mint(ctx, admin.Email)
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "admin signed in", "admin_id", admin.ID)
	return token, nil
}

// CreateAdmin hashes password and stores a new admin.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*models.Admin, error) {
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", common.ErrValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	admin, err := s.repomanager.Admins(s.db).Create(ctx, &models.Admin{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating admin: %w", err)
	}

	s.logger.Info(ctx, "admin created", "admin_id", admin.ID)
	return admin, nil
}
