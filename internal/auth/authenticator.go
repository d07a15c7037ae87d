package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/mutooni/mutooni-api/internal/domain"
)

var (
	// ErrNoCredential means the authenticator did not recognise the credential and the
	// next authenticator in the chain should try.
	ErrNoCredential = errors.New("auth: no credential")
	// ErrInvalidCredentials is the single failure reported for rejected tokens.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUserInactive is returned when the credential resolves to a deactivated account.
	ErrUserInactive = errors.New("auth: user inactive")
)

const bearerScheme = "Bearer"

// Principal is the authenticated caller of a request.
type Principal struct {
	User   *domain.User
	Method domain.AuthMethod
}

// Authenticator turns a bearer token into a principal.
type Authenticator interface {
	Method() domain.AuthMethod
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// Chain tries authenticators in order. The first one that returns a principal or a
// failure other than ErrNoCredential decides the outcome.
type Chain []Authenticator

// Authenticate implements the chain semantics.
func (ch Chain) Authenticate(ctx context.Context, token string) (*Principal, error) {
	for _, authenticator := range ch {
		principal, err := authenticator.Authenticate(ctx, token)
		if errors.Is(err, ErrNoCredential) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return principal, nil
	}
	return nil, ErrNoCredential
}

// ExtractBearer returns the token from an Authorization header value of the form
// "Bearer <token>". Any other shape reports false.
func ExtractBearer(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerScheme) {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
