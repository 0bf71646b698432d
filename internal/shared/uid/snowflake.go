package uid

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var _ UIDGenerator = (*snowflakeGenerator)(nil)

type snowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflake creates a Snowflake-based UIDGenerator.
// nodeID must be unique per running instance.
func NewSnowflake(nodeID int64) (UIDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("uid: failed to create snowflake node %d: %w", nodeID, err)
	}
	return &snowflakeGenerator{node: node}, nil
}

// Generate is safe for concurrent use; snowflake.Node serializes internally.
func (g *snowflakeGenerator) Generate(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.node.Generate().Base58(), nil
}
