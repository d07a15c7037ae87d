package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mutooni/mutooni-api/internal/observability"
	apperrors "github.com/mutooni/mutooni-api/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	chain   Chain
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAuthMiddleware constructs middleware around an authenticator chain.
func NewAuthMiddleware(chain Chain, metrics *observability.Metrics, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{chain: chain, metrics: metrics, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, ok := ExtractBearer(c.Get(fiber.HeaderAuthorization))
	if !ok {
		m.metrics.RecordAuthentication("none", "missing")
		return apperrors.NewUnauthorized("authentication required")
	}

	principal, err := m.chain.Authenticate(c.UserContext(), token)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoCredential):
		// no authenticator recognised the token, same as an absent credential
		m.metrics.RecordAuthentication("none", "unclaimed")
		return apperrors.NewUnauthorized("authentication required")
	case errors.Is(err, ErrInvalidCredentials):
		m.metrics.RecordAuthentication("none", "invalid")
		return apperrors.NewUnauthorized("invalid credentials")
	case errors.Is(err, ErrUserInactive):
		m.metrics.RecordAuthentication("none", "inactive")
		return apperrors.NewUnauthorized("user inactive")
	default:
		m.metrics.RecordAuthentication("none", "error")
		m.logger.Error("authentication failed", zap.Error(err))
		return apperrors.NewInternalError(err)
	}

	m.metrics.RecordAuthentication(string(principal.Method), "success")
	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil && principal.User != nil
}
