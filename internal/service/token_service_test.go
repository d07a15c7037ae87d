package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mutooni/mutooni-api/internal/auth"
	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository/repositorytest"
	"github.com/mutooni/mutooni-api/internal/service"
)

func newTokenFixture(t *testing.T) (*service.TokenService, *auth.TokenManager, *repositorytest.Users) {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse", bcrypt.MinCost)
	require.NoError(t, err)
	users := repositorytest.NewUsers(
		domain.User{Subject: "alice", Role: domain.RoleStandard, Active: true, PasswordHash: &hash},
		domain.User{Subject: "sleeper", Role: domain.RoleStandard, Active: false, PasswordHash: &hash},
		domain.User{Subject: "firebase-only", Role: domain.RoleStandard, Active: true},
	)
	tokens := auth.NewTokenManager("test-secret", "mutooni-api", time.Minute, time.Hour)
	return service.NewTokenService(users, tokens, bcrypt.MinCost), tokens, users
}

func TestTokenService_ObtainAndRefresh(t *testing.T) {
	svc, tokens, users := newTokenFixture(t)
	ctx := context.Background()

	pair, err := svc.Obtain(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	access, err := tokens.ParseToken(pair.Access, domain.TokenTypeAccess)
	require.NoError(t, err)
	alice, err := users.GetBySubject(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, access.Subject)

	_, err = tokens.ParseToken(pair.Refresh, domain.TokenTypeAccess)
	assert.Error(t, err, "refresh tokens must not authenticate requests")

	renewed, exp, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
	_, err = tokens.ParseToken(renewed, domain.TokenTypeAccess)
	assert.NoError(t, err)
}

func TestTokenService_ObtainRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTokenFixture(t)
	ctx := context.Background()

	cases := map[string][2]string{
		"wrong password":  {"alice", "nope"},
		"unknown user":    {"nobody", "correct-horse"},
		"inactive user":   {"sleeper", "correct-horse"},
		"no password set": {"firebase-only", "correct-horse"},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Obtain(ctx, creds[0], creds[1])
			assert.Equal(t, "UNAUTHORIZED", errorCode(err))
		})
	}
}

func TestTokenService_RefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := newTokenFixture(t)

	pair, err := svc.Obtain(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), pair.Access)
	assert.Equal(t, "UNAUTHORIZED", errorCode(err))
}
