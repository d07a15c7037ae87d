package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mutooni/mutooni-api/internal/domain"
)

// TokenManager handles issuing and validating locally signed JWT tokens.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Claims describes JWT payload. Subject carries the local user id.
type Claims struct {
	Type domain.TokenType `json:"typ"`
	Role domain.Role      `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is an access token together with the refresh token that can renew it.
type TokenPair struct {
	Access           string
	AccessExpiresAt  time.Time
	Refresh          string
	RefreshExpiresAt time.Time
}

// GenerateToken builds and signs a JWT of the given type for the user.
func (tm *TokenManager) GenerateToken(user *domain.User, typ domain.TokenType) (string, time.Time, error) {
	ttl := tm.accessTTL
	if typ == domain.TokenTypeRefresh {
		ttl = tm.refreshTTL
	}
	now := tm.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Type: typ,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tm.issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// GeneratePair issues a fresh access/refresh pair.
func (tm *TokenManager) GeneratePair(user *domain.User) (*TokenPair, error) {
	access, accessExp, err := tm.GenerateToken(user, domain.TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := tm.GenerateToken(user, domain.TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{
		Access:           access,
		AccessExpiresAt:  accessExp,
		Refresh:          refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ParseToken validates signature, issuer, expiry and type, and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string, expected domain.TokenType) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Type != expected {
		return nil, fmt.Errorf("unexpected token type %q", claims.Type)
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// IsLocalToken reports whether tokenStr looks like a token this manager issued: an
// HS256 JWT carrying the local issuer. The signature is not checked here.
func (tm *TokenManager) IsLocalToken(tokenStr string) bool {
	var claims jwt.RegisteredClaims
	parsed, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims)
	if err != nil {
		return false
	}
	if parsed.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return false
	}
	return claims.Issuer == tm.issuer
}
