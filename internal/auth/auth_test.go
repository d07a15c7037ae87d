package auth_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mutooni/mutooni-api/internal/auth"
	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/identity"
	"github.com/mutooni/mutooni-api/internal/observability"
	"github.com/mutooni/mutooni-api/internal/repository/repositorytest"
	"github.com/mutooni/mutooni-api/internal/service"
	apperrors "github.com/mutooni/mutooni-api/pkg/util"
)

const testIssuer = "mutooni-api"

func newTokens() *auth.TokenManager {
	return auth.NewTokenManager("unit-test-secret", testIssuer, time.Minute, time.Hour)
}

// stubVerifier accepts tokens of the form "id:<subject>".
func stubVerifier() identity.VerifierFunc {
	return func(_ context.Context, raw string) (*domain.IdentityClaims, error) {
		if len(raw) > 3 && raw[:3] == "id:" {
			return &domain.IdentityClaims{Subject: raw[3:]}, nil
		}
		return nil, identity.ErrInvalidToken
	}
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Token abc", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer", "", false},
		{"Bearer    ", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		token, ok := auth.ExtractBearer(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.token, token, tc.header)
	}
}

func TestTokenManager_RoundTripAndTypeCheck(t *testing.T) {
	tokens := newTokens()
	user := &domain.User{ID: "11111111-1111-1111-1111-111111111111", Role: domain.RoleAdmin}

	pair, err := tokens.GeneratePair(user)
	require.NoError(t, err)
	assert.True(t, tokens.IsLocalToken(pair.Access))
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := tokens.ParseToken(pair.Access, domain.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	_, err = tokens.ParseToken(pair.Access, domain.TokenTypeRefresh)
	assert.Error(t, err)

	other := auth.NewTokenManager("another-secret", testIssuer, time.Minute, time.Hour)
	_, err = other.ParseToken(pair.Access, domain.TokenTypeAccess)
	assert.Error(t, err)
}

func TestTokenManager_IsLocalTokenIgnoresForeignTokens(t *testing.T) {
	tokens := newTokens()

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "https://securetoken.google.com/project", Subject: "x"})
	raw, err := foreign.SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)

	assert.False(t, tokens.IsLocalToken(raw))
	assert.False(t, tokens.IsLocalToken("not-a-jwt"))
	assert.False(t, tokens.IsLocalToken("id:someone"))
}

type staticAuthenticator struct {
	principal *auth.Principal
	err       error
	calls     int
}

func (s *staticAuthenticator) Method() domain.AuthMethod { return domain.AuthMethodJWT }

func (s *staticAuthenticator) Authenticate(context.Context, string) (*auth.Principal, error) {
	s.calls++
	return s.principal, s.err
}

func TestChain_FirstDecisiveAuthenticatorWins(t *testing.T) {
	principal := &auth.Principal{User: &domain.User{ID: "u"}}

	skip := &staticAuthenticator{err: auth.ErrNoCredential}
	fail := &staticAuthenticator{err: auth.ErrInvalidCredentials}
	ok := &staticAuthenticator{principal: principal}

	got, err := auth.Chain{skip, ok, fail}.Authenticate(context.Background(), "t")
	require.NoError(t, err)
	assert.Same(t, principal, got)
	assert.Equal(t, 0, fail.calls)

	_, err = auth.Chain{fail, ok}.Authenticate(context.Background(), "t")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = auth.Chain{skip, skip}.Authenticate(context.Background(), "t")
	assert.ErrorIs(t, err, auth.ErrNoCredential)
}

func TestJWTAuthenticator(t *testing.T) {
	tokens := newTokens()
	users := repositorytest.NewUsers(
		domain.User{Subject: "active", Role: domain.RoleStandard, Active: true},
		domain.User{Subject: "inactive", Role: domain.RoleStandard, Active: false},
	)
	active, _ := users.GetBySubject(context.Background(), "active")
	inactive, _ := users.GetBySubject(context.Background(), "inactive")
	authenticator := auth.NewJWTAuthenticator(tokens, users)

	access, _, err := tokens.GenerateToken(active, domain.TokenTypeAccess)
	require.NoError(t, err)
	principal, err := authenticator.Authenticate(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, active.ID, principal.User.ID)
	assert.Equal(t, domain.AuthMethodJWT, principal.Method)

	refresh, _, err := tokens.GenerateToken(active, domain.TokenTypeRefresh)
	require.NoError(t, err)
	_, err = authenticator.Authenticate(context.Background(), refresh)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	disabled, _, err := tokens.GenerateToken(inactive, domain.TokenTypeAccess)
	require.NoError(t, err)
	_, err = authenticator.Authenticate(context.Background(), disabled)
	assert.ErrorIs(t, err, auth.ErrUserInactive)

	ghost, _, err := tokens.GenerateToken(&domain.User{ID: "22222222-2222-2222-2222-222222222222"}, domain.TokenTypeAccess)
	require.NoError(t, err)
	_, err = authenticator.Authenticate(context.Background(), ghost)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = authenticator.Authenticate(context.Background(), "id:firebase-user")
	assert.ErrorIs(t, err, auth.ErrNoCredential)
}

func TestIdentityAuthenticator(t *testing.T) {
	users := repositorytest.NewUsers(domain.User{Subject: "banned", Role: domain.RoleStandard, Active: false})
	directory := service.NewDirectoryService(users, nil, nil, nil, "")
	authenticator := auth.NewIdentityAuthenticator(stubVerifier(), directory)

	principal, err := authenticator.Authenticate(context.Background(), "id:new-user")
	require.NoError(t, err)
	assert.Equal(t, "new-user", principal.User.Subject)
	assert.Equal(t, domain.AuthMethodIdentityToken, principal.Method)

	_, err = authenticator.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = authenticator.Authenticate(context.Background(), "id:banned")
	assert.ErrorIs(t, err, auth.ErrUserInactive)
}

func TestResolveUserScope(t *testing.T) {
	admin := &domain.User{ID: "admin", Role: domain.RoleAdmin}
	user := &domain.User{ID: "me", Role: domain.RoleStandard}

	scope, err := auth.ResolveUserScope(admin, auth.ActionList)
	require.NoError(t, err)
	assert.True(t, scope.Unrestricted)

	scope, err = auth.ResolveUserScope(user, auth.ActionList)
	require.NoError(t, err)
	assert.False(t, scope.Unrestricted)
	assert.Equal(t, "me", scope.UserID)

	_, err = auth.ResolveUserScope(user, auth.ActionCreate)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = auth.ResolveUserScope(nil, auth.ActionList)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = auth.ResolveUserScope(admin, auth.Action("approve"))
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestAuthorizeUser(t *testing.T) {
	admin := &domain.User{ID: "admin", Role: domain.RoleAdmin}
	user := &domain.User{ID: "me", Role: domain.RoleStandard}

	for _, action := range []auth.Action{auth.ActionRetrieve, auth.ActionUpdate, auth.ActionPartialUpdate, auth.ActionDestroy} {
		assert.Equal(t, auth.DecisionAllow, auth.AuthorizeUser(admin, action, "other"), action)
		assert.Equal(t, auth.DecisionAllow, auth.AuthorizeUser(user, action, "me"), action)
		assert.Equal(t, auth.DecisionHidden, auth.AuthorizeUser(user, action, "other"), action)
	}
	assert.Equal(t, auth.DecisionDeny, auth.AuthorizeUser(user, auth.ActionCreate, ""))
	assert.Equal(t, auth.DecisionAllow, auth.AuthorizeUser(admin, auth.ActionCreate, ""))
	assert.Equal(t, auth.DecisionAllow, auth.AuthorizeUser(user, auth.ActionList, ""))
	assert.False(t, auth.CanAssignRole(user))
	assert.True(t, auth.CanAssignRole(admin))
}

func newProtectedApp(chain auth.Chain) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Message)
		},
	})
	middleware := auth.NewAuthMiddleware(chain, observability.NewMetrics(), zap.NewNop())
	app.Get("/me", middleware.Handle, func(c *fiber.Ctx) error {
		principal, _ := auth.PrincipalFromContext(c)
		return c.SendString(principal.User.Subject + "/" + string(principal.Method))
	})
	app.Get("/admin", middleware.Handle, auth.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, header string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens()
	users := repositorytest.NewUsers(domain.User{Subject: "root", Role: domain.RoleAdmin, Active: true})
	root, _ := users.GetBySubject(context.Background(), "root")
	directory := service.NewDirectoryService(users, nil, nil, nil, "")
	chain := auth.Chain{
		auth.NewJWTAuthenticator(tokens, users),
		auth.NewIdentityAuthenticator(stubVerifier(), directory),
	}
	app := newProtectedApp(chain)

	status, body := call(t, app, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "authentication required", body)

	status, _ = call(t, app, "/me", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = call(t, app, "/me", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", body)

	status, body = call(t, app, "/me", "Bearer id:fresh-uid")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "fresh-uid/identity_token", body)

	status, _ = call(t, app, "/admin", "Bearer id:fresh-uid")
	assert.Equal(t, http.StatusForbidden, status)

	access, _, err := tokens.GenerateToken(root, domain.TokenTypeAccess)
	require.NoError(t, err)
	status, body = call(t, app, "/me", "Bearer "+access)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "root/jwt", body)

	status, _ = call(t, app, "/admin", "Bearer "+access)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestAuthMiddleware_UnclaimedTokenNeedsAuthentication(t *testing.T) {
	tokens := newTokens()
	users := repositorytest.NewUsers()
	app := newProtectedApp(auth.Chain{auth.NewJWTAuthenticator(tokens, users)})

	foreign := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "uid", "iss": "https://securetoken.google.com/demo"})
	raw, err := foreign.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	status, body := call(t, app, "/me", "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "authentication required", body)

	otherSecret := auth.NewTokenManager("another-secret", testIssuer, time.Minute, time.Hour)
	forged, _, err := otherSecret.GenerateToken(&domain.User{ID: "00000000-0000-0000-0000-000000000001", Role: domain.RoleStandard}, domain.TokenTypeAccess)
	require.NoError(t, err)
	status, body = call(t, app, "/me", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", body)
}

func TestAuthMiddleware_StoreFailureIsInternal(t *testing.T) {
	users := repositorytest.NewUsers()
	users.Err = errors.New("connection refused")
	chain := auth.Chain{auth.NewIdentityAuthenticator(stubVerifier(), service.NewDirectoryService(users, nil, nil, nil, ""))}

	status, _ := call(t, newProtectedApp(chain), "/me", "Bearer id:uid")
	assert.Equal(t, http.StatusInternalServerError, status)
}
