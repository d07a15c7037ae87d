package auth

import (
	"context"
	"errors"

	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository"
)

// UserFinder loads users by their local id.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// JWTAuthenticator accepts access tokens issued by TokenManager.
type JWTAuthenticator struct {
	tokens *TokenManager
	users  UserFinder
}

// NewJWTAuthenticator constructs the authenticator.
func NewJWTAuthenticator(tokens *TokenManager, users UserFinder) *JWTAuthenticator {
	return &JWTAuthenticator{tokens: tokens, users: users}
}

// Method implements Authenticator.
func (a *JWTAuthenticator) Method() domain.AuthMethod {
	return domain.AuthMethodJWT
}

// Authenticate implements Authenticator. Tokens that were not issued locally are left
// to the next authenticator.
func (a *JWTAuthenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if !a.tokens.IsLocalToken(token) {
		return nil, ErrNoCredential
	}

	claims, err := a.tokens.ParseToken(token, domain.TokenTypeAccess)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserInactive
	}
	return &Principal{User: user, Method: domain.AuthMethodJWT}, nil
}
