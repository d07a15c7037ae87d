package auth

import (
	"context"

	"github.com/mutooni/mutooni-api/internal/domain"
)

// IdentityVerifier validates externally issued identity tokens.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*domain.IdentityClaims, error)
}

// UserProvisioner resolves verified claims to a local user, creating it on first sight.
type UserProvisioner interface {
	GetOrCreate(ctx context.Context, claims *domain.IdentityClaims) (*domain.User, error)
}

// IdentityAuthenticator bridges identity-provider tokens to local users. Every request
// re-verifies the token; nothing is remembered between requests.
type IdentityAuthenticator struct {
	verifier IdentityVerifier
	users    UserProvisioner
}

// NewIdentityAuthenticator constructs the authenticator.
func NewIdentityAuthenticator(verifier IdentityVerifier, users UserProvisioner) *IdentityAuthenticator {
	return &IdentityAuthenticator{verifier: verifier, users: users}
}

// Method implements Authenticator.
func (a *IdentityAuthenticator) Method() domain.AuthMethod {
	return domain.AuthMethodIdentityToken
}

// Authenticate implements Authenticator.
func (a *IdentityAuthenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := a.verifier.Verify(ctx, token)
	if err != nil || claims == nil || claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := a.users.GetOrCreate(ctx, claims)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserInactive
	}
	return &Principal{User: user, Method: domain.AuthMethodIdentityToken}, nil
}
