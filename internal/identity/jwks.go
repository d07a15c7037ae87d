package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/mutooni/mutooni-api/internal/domain"
)

// JWKSVerifier validates identity tokens signed by keys published at a JWKS endpoint.
type JWKSVerifier struct {
	jwks   *keyfunc.JWKS
	parser *jwt.Parser
}

type jwksClaims struct {
	providerClaims
	jwt.RegisteredClaims
}

const defaultJWKSRefreshTimeout = 10 * time.Second

// NewJWKSVerifier fetches the key set at url and keeps it refreshed in the background. A
// refresh triggered by an unknown kid is bounded by refreshTimeout, which callers set to the
// verification timeout.
func NewJWKSVerifier(ctx context.Context, url, issuer, audience string, refreshTimeout time.Duration, onRefreshError func(error)) (*JWKSVerifier, error) {
	jwks, err := keyfunc.Get(url, jwksOptions(ctx, refreshTimeout, onRefreshError))
	if err != nil {
		return nil, fmt.Errorf("identity: load jwks %s: %w", url, err)
	}
	return newJWKSVerifier(jwks, issuer, audience), nil
}

func jwksOptions(ctx context.Context, refreshTimeout time.Duration, onRefreshError func(error)) keyfunc.Options {
	if refreshTimeout <= 0 {
		refreshTimeout = defaultJWKSRefreshTimeout
	}
	return keyfunc.Options{
		Ctx:                 ctx,
		RefreshInterval:     time.Hour,
		RefreshRateLimit:    5 * time.Minute,
		RefreshTimeout:      refreshTimeout,
		RefreshUnknownKID:   true,
		RefreshErrorHandler: onRefreshError,
	}
}

// NewGivenJWKSVerifier builds a verifier from a fixed set of keys indexed by kid.
func NewGivenJWKSVerifier(keys map[string]keyfunc.GivenKey, issuer, audience string) *JWKSVerifier {
	return newJWKSVerifier(keyfunc.NewGiven(keys), issuer, audience)
}

func newJWKSVerifier(jwks *keyfunc.JWKS, issuer, audience string) *JWKSVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &JWKSVerifier{jwks: jwks, parser: jwt.NewParser(opts...)}
}

// Verify implements Verifier.
func (v *JWKSVerifier) Verify(ctx context.Context, rawToken string) (*domain.IdentityClaims, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims jwksClaims
	token, err := v.parser.ParseWithClaims(rawToken, &claims, v.jwks.Keyfunc)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &domain.IdentityClaims{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Issuer:        claims.Issuer,
	}, nil
}

// Close stops the background refresh goroutine.
func (v *JWKSVerifier) Close() {
	v.jwks.EndBackground()
}
