package gen

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("snowflake", fx.Provide(NewSnowflakeNode))

// NewSnowflakeNode reads the node id from SNOWFLAKE_NODE (default 1).
func NewSnowflakeNode() (*snowflake.Node, error) {
	nodeID := int64(1)
	if v, ok := os.LookupEnv("SNOWFLAKE_NODE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		nodeID = n
	}
	return snowflake.NewNode(nodeID)
}

// ValidID reports whether id is a well-formed snowflake identifier.
func ValidID(id string) bool {
	if id == "" {
		return false
	}
	parsed, err := snowflake.ParseString(id)
	return err == nil && parsed > 0
}
