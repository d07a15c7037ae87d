package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mutooni/mutooni-api/internal/auth"
	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository"
	apperrors "github.com/mutooni/mutooni-api/pkg/util"
)

// TokenService issues locally signed access/refresh pairs for password accounts.
type TokenService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	compare    func(hashed, plain string) error

	dummyOnce sync.Once
	dummy     string
}

// NewTokenService builds the service. users must return password hashes, so it should not
// be the Redis-cached repository. bcryptCost should match the cost used for real accounts.
func NewTokenService(users repository.UserRepository, tokens *auth.TokenManager, bcryptCost int) *TokenService {
	return &TokenService{users: users, tokens: tokens, bcryptCost: bcryptCost, compare: auth.ComparePassword}
}

// dummyHash is compared against when no usable hash exists, so unknown usernames cost the
// same bcrypt work as known ones.
func (s *TokenService) dummyHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("mutooni-no-such-account", s.bcryptCost)
		if err == nil {
			s.dummy = hash
		}
	})
	return s.dummy
}

// Obtain exchanges a username (the account subject) and password for a token pair.
func (s *TokenService) Obtain(ctx context.Context, username, password string) (*auth.TokenPair, error) {
	user, err := s.users.GetBySubject(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}
	if user == nil || !user.HasPassword() {
		_ = s.compare(s.dummyHash(), password)
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := s.compare(*user.PasswordHash, password); err != nil || !user.Active {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return pair, nil
}

// Refresh issues a new access token from a valid refresh token.
func (s *TokenService) Refresh(ctx context.Context, refresh string) (string, time.Time, error) {
	claims, err := s.tokens.ParseToken(refresh, domain.TokenTypeRefresh)
	if err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid refresh token")
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, apperrors.NewUnauthorized("invalid refresh token")
		}
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	if !user.Active {
		return "", time.Time{}, apperrors.NewUnauthorized("user inactive")
	}

	access, exp, err := s.tokens.GenerateToken(user, domain.TokenTypeAccess)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return access, exp, nil
}
