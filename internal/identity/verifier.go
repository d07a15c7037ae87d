// Package identity verifies identity tokens issued by an external provider
// (Firebase Authentication or any OIDC/JWKS issuer) and turns them into claims.
package identity

import (
	"context"
	"errors"

	"github.com/mutooni/mutooni-api/internal/domain"
)

// ErrInvalidToken is returned for every verification failure. Callers must not
// distinguish between expired, malformed, revoked or badly signed tokens.
var ErrInvalidToken = errors.New("identity: invalid token")

// Verifier validates a raw identity token and returns its trusted claims.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*domain.IdentityClaims, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, rawToken string) (*domain.IdentityClaims, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, rawToken string) (*domain.IdentityClaims, error) {
	return f(ctx, rawToken)
}

type providerClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}
