package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mutooni/mutooni-api/internal/config"
	"github.com/mutooni/mutooni-api/internal/domain"
)

var (
	ErrAlreadyInitialized = errors.New("identity: client already initialized")
	ErrNotInitialized     = errors.New("identity: client not initialized")
	ErrDisabled           = errors.New("identity: provider disabled")
)

// Client is the process-wide entry point to identity-token verification. It is
// initialized once at startup; later initialization attempts are rejected.
type Client struct {
	mu       sync.RWMutex
	verifier Verifier
	timeout  time.Duration
	closer   func()
	ready    bool
	logger   *zap.Logger
}

// NewClient returns an uninitialized client.
func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{logger: logger}
}

// Init builds the verifier selected by cfg.
func (c *Client) Init(ctx context.Context, cfg config.IdentityConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return ErrAlreadyInitialized
	}

	var (
		verifier Verifier
		closer   func()
	)
	switch cfg.Provider {
	case config.IdentityProviderNone:
	case config.IdentityProviderFirebase:
		projectID := cfg.ProjectID
		if projectID == "" && cfg.CredentialsPath != "" {
			id, err := ProjectIDFromCredentials(cfg.CredentialsPath)
			if err != nil {
				return err
			}
			projectID = id
		}
		if projectID == "" {
			c.logger.Warn("FIREBASE_CREDENTIALS/FIREBASE_PROJECT_ID not provided; identity tokens disabled")
			break
		}
		v, err := NewFirebaseVerifier(ctx, projectID)
		if err != nil {
			return err
		}
		verifier = v
	case config.IdentityProviderJWKS:
		v, err := NewJWKSVerifier(ctx, cfg.JWKSURL, cfg.Issuer, cfg.Audience, cfg.VerifyTimeout(), func(err error) {
			c.logger.Warn("jwks refresh failed", zap.Error(err))
		})
		if err != nil {
			return err
		}
		verifier, closer = v, v.Close
	default:
		return fmt.Errorf("identity: unknown provider %q", cfg.Provider)
	}

	c.verifier = verifier
	c.closer = closer
	c.timeout = cfg.VerifyTimeout()
	c.ready = true
	c.logger.Info("identity verifier initialized", zap.String("provider", string(cfg.Provider)), zap.Bool("enabled", verifier != nil))
	return nil
}

// Use initializes the client with an explicit verifier.
func (c *Client) Use(verifier Verifier, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return ErrAlreadyInitialized
	}
	c.verifier = verifier
	c.timeout = timeout
	c.ready = true
	return nil
}

// Enabled reports whether identity tokens can be verified.
func (c *Client) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready && c.verifier != nil
}

// Verify validates rawToken within the configured timeout. Every failure, including a
// timeout, is reported as ErrInvalidToken.
func (c *Client) Verify(ctx context.Context, rawToken string) (*domain.IdentityClaims, error) {
	c.mu.RLock()
	verifier, timeout, ready := c.verifier, c.timeout, c.ready
	c.mu.RUnlock()

	if !ready {
		return nil, ErrNotInitialized
	}
	if verifier == nil {
		return nil, ErrDisabled
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// the verifier may block on key fetches that ignore ctx; stop waiting at the deadline
	type outcome struct {
		claims *domain.IdentityClaims
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		claims, err := verifier.Verify(ctx, rawToken)
		done <- outcome{claims: claims, err: err}
	}()

	var result outcome
	select {
	case <-ctx.Done():
		c.logger.Debug("identity token verification timed out", zap.Error(ctx.Err()))
		return nil, ErrInvalidToken
	case result = <-done:
	}
	if result.err != nil {
		c.logger.Debug("identity token rejected", zap.Error(result.err))
		return nil, ErrInvalidToken
	}
	if result.claims == nil || result.claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return result.claims, nil
}

// Close releases background resources held by the verifier.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer != nil {
		c.closer()
		c.closer = nil
	}
}
