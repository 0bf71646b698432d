package hash

import (
	"context"
	"errors"
	"fmt"
)

// Strategy defines which hashing algorithm to use.
type Strategy string

const (
	StrategyBcrypt Strategy = "bcrypt"
)

// ErrMismatch is returned by Compare when the plaintext does not match.
var ErrMismatch = errors.New("hash: plaintext does not match")

// Options configures the hasher.
type Options struct {
	Strategy Strategy

	// Cost is the bcrypt work factor. Zero uses bcrypt.DefaultCost.
	Cost int
}

// Hasher hashes application secrets and checks presented secrets against them.
// Implementations must be safe for concurrent use.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)

	// Compare returns nil when plaintext matches hashed, ErrMismatch when it
	// does not, and another error when hashed is not a valid hash.
	Compare(ctx context.Context, hashed, plaintext string) error
}

// New creates a Hasher based on the provided options.
func New(opts Options) (Hasher, error) {
	switch opts.Strategy {
	case StrategyBcrypt, "":
		return NewBcrypt(opts.Cost)
	default:
		return nil, fmt.Errorf("hash: unknown strategy %q", opts.Strategy)
	}
}
