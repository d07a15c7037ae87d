package identity

import (
	"context"
	"crypto"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/mutooni/mutooni-api/internal/domain"
)

const firebaseIssuerPrefix = "https://securetoken.google.com/"

// OIDCVerifier validates ID tokens against an OpenID Connect issuer.
type OIDCVerifier struct {
	issuer   string
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer's signing keys and returns a verifier bound to audience.
func NewOIDCVerifier(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	if issuer == "" || audience == "" {
		return nil, fmt.Errorf("identity: issuer and audience are required")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("identity: discover %s: %w", issuer, err)
	}
	return &OIDCVerifier{
		issuer:   issuer,
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
	}, nil
}

// NewFirebaseVerifier verifies Firebase Authentication ID tokens for projectID.
func NewFirebaseVerifier(ctx context.Context, projectID string) (*OIDCVerifier, error) {
	if projectID == "" {
		return nil, fmt.Errorf("identity: firebase project id is required")
	}
	return NewOIDCVerifier(ctx, FirebaseIssuer(projectID), projectID)
}

// NewStaticOIDCVerifier verifies tokens against a fixed set of public keys, skipping discovery.
func NewStaticOIDCVerifier(issuer, audience string, keys ...crypto.PublicKey) *OIDCVerifier {
	keySet := &oidc.StaticKeySet{PublicKeys: keys}
	return &OIDCVerifier{
		issuer:   issuer,
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: audience}),
	}
}

// FirebaseIssuer returns the token issuer used by Firebase for a project.
func FirebaseIssuer(projectID string) string {
	return firebaseIssuerPrefix + projectID
}

// Verify implements Verifier.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*domain.IdentityClaims, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if idToken.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	var claims providerClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &domain.IdentityClaims{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Issuer:        idToken.Issuer,
	}, nil
}
