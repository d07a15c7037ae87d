package identity_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutooni/mutooni-api/internal/config"
	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/identity"
)

const (
	testProject = "mutooni-test"
	testKID     = "test-key"
)

type tokenClaims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims tokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims(subject, email string) tokenClaims {
	now := time.Now()
	return tokenClaims{
		Email:         email,
		EmailVerified: email != "",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    identity.FirebaseIssuer(testProject),
			Subject:   subject,
			Audience:  jwt.ClaimStrings{testProject},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestOIDCVerifier_AcceptsValidToken(t *testing.T) {
	key := newKey(t)
	verifier := identity.NewStaticOIDCVerifier(identity.FirebaseIssuer(testProject), testProject, key.Public())

	claims, err := verifier.Verify(context.Background(), signToken(t, key, validClaims("uid-1", "a@example.com")))
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, identity.FirebaseIssuer(testProject), claims.Issuer)
}

func TestOIDCVerifier_RejectsBadTokens(t *testing.T) {
	key := newKey(t)
	otherKey := newKey(t)
	verifier := identity.NewStaticOIDCVerifier(identity.FirebaseIssuer(testProject), testProject, key.Public())

	expired := validClaims("uid-1", "")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongAudience := validClaims("uid-1", "")
	wrongAudience.Audience = jwt.ClaimStrings{"other-project"}

	wrongIssuer := validClaims("uid-1", "")
	wrongIssuer.Issuer = "https://evil.example.com"

	cases := map[string]string{
		"malformed":       "not-a-jwt",
		"expired":         signToken(t, key, expired),
		"wrong signature": signToken(t, otherKey, validClaims("uid-1", "")),
		"wrong audience":  signToken(t, key, wrongAudience),
		"wrong issuer":    signToken(t, key, wrongIssuer),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, identity.ErrInvalidToken)
		})
	}
}

func TestJWKSVerifier(t *testing.T) {
	key := newKey(t)
	verifier := identity.NewGivenJWKSVerifier(map[string]keyfunc.GivenKey{
		testKID: keyfunc.NewGivenRSA(&key.PublicKey, keyfunc.GivenKeyOptions{Algorithm: "RS256"}),
	}, identity.FirebaseIssuer(testProject), testProject)
	defer verifier.Close()

	claims, err := verifier.Verify(context.Background(), signToken(t, key, validClaims("uid-2", "")))
	require.NoError(t, err)
	assert.Equal(t, "uid-2", claims.Subject)
	assert.Empty(t, claims.Email)

	noSubject := validClaims("", "")
	_, err = verifier.Verify(context.Background(), signToken(t, key, noSubject))
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	expired := validClaims("uid-2", "")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	_, err = verifier.Verify(context.Background(), signToken(t, key, expired))
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestClient_InitOnce(t *testing.T) {
	client := identity.NewClient(nil)

	_, err := client.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, identity.ErrNotInitialized)

	require.NoError(t, client.Init(context.Background(), config.IdentityConfig{Provider: config.IdentityProviderNone}))
	assert.False(t, client.Enabled())

	err = client.Init(context.Background(), config.IdentityConfig{Provider: config.IdentityProviderNone})
	assert.ErrorIs(t, err, identity.ErrAlreadyInitialized)
	assert.ErrorIs(t, client.Use(identity.VerifierFunc(nil), time.Second), identity.ErrAlreadyInitialized)

	_, err = client.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, identity.ErrDisabled)
}

func TestClient_CollapsesErrorsAndEnforcesTimeout(t *testing.T) {
	client := identity.NewClient(nil)
	require.NoError(t, client.Use(identity.VerifierFunc(func(ctx context.Context, raw string) (*domain.IdentityClaims, error) {
		switch raw {
		case "slow":
			<-ctx.Done()
			return nil, ctx.Err()
		case "revoked":
			return nil, errors.New("token has been revoked")
		default:
			return &domain.IdentityClaims{Subject: "uid-3"}, nil
		}
	}), 20*time.Millisecond))

	claims, err := client.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "uid-3", claims.Subject)

	for _, raw := range []string{"slow", "revoked"} {
		_, err := client.Verify(context.Background(), raw)
		assert.Equal(t, identity.ErrInvalidToken, err, raw)
	}
}

func TestClient_DeadlineBoundsVerifierIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	client := identity.NewClient(nil)
	require.NoError(t, client.Use(identity.VerifierFunc(func(context.Context, string) (*domain.IdentityClaims, error) {
		<-release
		return &domain.IdentityClaims{Subject: "late"}, nil
	}), 20*time.Millisecond))

	start := time.Now()
	claims, err := client.Verify(context.Background(), "stuck-on-key-fetch")
	assert.Equal(t, identity.ErrInvalidToken, err)
	assert.Nil(t, claims)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProjectIDFromCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "service-account.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"service_account","project_id":"mutooni-prod"}`), 0o600))

	id, err := identity.ProjectIDFromCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "mutooni-prod", id)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o600))
	_, err = identity.ProjectIDFromCredentials(empty)
	assert.Error(t, err)

	_, err = identity.ProjectIDFromCredentials(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
