package jwt

import (
	"context"
	"fmt"
	"time"
)

// Strategy defines which signing algorithm family to use.
type Strategy string

const (
	StrategyHMAC Strategy = "hmac"
)

// Options configures the token manager.
type Options struct {
	// Strategy selects the signing algorithm family.
	Strategy Strategy

	// Secret is the shared key for HMAC-based strategies. Must be at least 32 bytes.
	Secret []byte

	// Algorithm specifies the exact signing algorithm within the strategy.
	// HMAC: "HS256" (default), "HS384", "HS512".
	Algorithm string

	// Issuer sets the default "iss" claim and, when non-empty, is required on verification.
	Issuer string

	// Audience sets the default "aud" claim on generated tokens.
	Audience []string

	// TTL determines the "exp" claim when a token does not carry its own.
	TTL time.Duration

	// Leeway tolerates clock skew between issuer and verifier.
	Leeway time.Duration
}

// Claims carries the registered claims used by the service.
// The app id of an authenticated application travels in Subject.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	NotBefore time.Time

	// ID is the jti claim. If empty, no jti is set.
	ID string
}

// Signer creates signed JWT tokens.
type Signer interface {
	// Sign creates a signed JWT. Zero fields are filled from Options;
	// IssuedAt defaults to time.Now().
	Sign(ctx context.Context, claims Claims) (string, error)
}

// Verifier validates and parses JWT tokens.
type Verifier interface {
	// Verify returns the claims of a valid token, or an error if the token is
	// malformed, expired, issued by someone else or has a bad signature.
	Verify(ctx context.Context, tokenString string) (*Claims, error)
}

// TokenManager combines signing and verification capabilities.
// Implementations must be safe for concurrent use.
type TokenManager interface {
	Signer
	Verifier
}

// New creates a TokenManager based on the provided options.
func New(opts Options) (TokenManager, error) {
	switch opts.Strategy {
	case StrategyHMAC:
		return NewHMAC(opts)
	default:
		return nil, fmt.Errorf("jwt: unknown strategy %q", opts.Strategy)
	}
}
