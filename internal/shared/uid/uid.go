package uid

import (
	"context"
	"fmt"
	"strings"
)

// Strategy defines which UID generation algorithm to use.
type Strategy string

const (
	StrategySnowflake Strategy = "snowflake"
	StrategyUUIDv7    Strategy = "uuidv7"
)

// Options configures the UID generator.
type Options struct {
	Strategy Strategy

	// NodeID identifies this instance (Snowflake only). Valid range: 0–1023.
	NodeID int64
}

// UIDGenerator produces unique identifiers, used as token ids.
// Implementations must be safe for concurrent use.
type UIDGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// ParseStrategy maps a configured name to a Strategy. Empty selects UUIDv7.
func ParseStrategy(value string) (Strategy, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "uuidv7", "uuid":
		return StrategyUUIDv7, nil
	case "snowflake":
		return StrategySnowflake, nil
	default:
		return "", fmt.Errorf("uid: unknown strategy %q", value)
	}
}

// New creates a UIDGenerator based on the provided options.
func New(opts Options) (UIDGenerator, error) {
	switch opts.Strategy {
	case StrategySnowflake:
		return NewSnowflake(opts.NodeID)
	case StrategyUUIDv7:
		return NewUUIDv7(), nil
	default:
		return nil, fmt.Errorf("uid: unknown strategy %q", opts.Strategy)
	}
}
