package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string. Used for record
// ids on tables keyed by opaque strings (applications, contact
// submissions).
func NewKSUID() string {
	return ksuid.New().String()
}

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewSnowflakeID generates a snowflake ID string using a node ID from the
// SNOWFLAKE_NODE environment variable (default 1). The node is created
// once and reused. If node setup fails it falls back to a KSUID string so
// a unique ID is always returned.
func NewSnowflakeID() string {
	nodeOnce.Do(func() {
		nodeID := int64(1)
		if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				nodeID = n
			}
		}
		n, err := snowflake.NewNode(nodeID)
		if err != nil {
			return
		}
		node = n
	})
	if node == nil {
		return NewKSUID()
	}
	return node.Generate().String()
}
