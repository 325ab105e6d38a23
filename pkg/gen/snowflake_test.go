package gen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidID(t *testing.T) {
	node, err := NewSnowflakeNode()
	require.NoError(t, err)

	require.True(t, ValidID(node.Generate().String()))
	require.False(t, ValidID(""))
	require.False(t, ValidID("not-an-id"))
	require.False(t, ValidID("0"))
	require.False(t, ValidID("-12"))
}

func TestNewSnowflakeNodeFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE", "7")
	node, err := NewSnowflakeNode()
	require.NoError(t, err)
	require.EqualValues(t, 7, node.Generate().Node())

	t.Setenv("SNOWFLAKE_NODE", "abc")
	_, err = NewSnowflakeNode()
	require.Error(t, err)
}
