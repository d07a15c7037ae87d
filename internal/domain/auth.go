package domain

// AuthMethod records which mechanism authenticated a request.
type AuthMethod string

const (
	AuthMethodJWT           AuthMethod = "jwt"
	AuthMethodIdentityToken AuthMethod = "identity_token"
)

// IdentityClaims are the trusted facts extracted from a verified identity token.
// They live for a single request and are never persisted as-is.
type IdentityClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Issuer        string
}

// TokenType differentiates locally issued access and refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)
