package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db2connector/internal/types"
)

func TestPrepareDSN(t *testing.T) {
	t.Parallel()

	got, err := PrepareDSN("file:test.db", map[string]string{"_pragma": "busy_timeout(5000)", "_txlock": "immediate"})
	require.NoError(t, err)
	assert.Equal(t, "file:test.db?_pragma=busy_timeout(5000)&_txlock=immediate", got)

	got, err = PrepareDSN("file:test.db?mode=memory", map[string]string{"cache": "shared"})
	require.NoError(t, err)
	assert.Equal(t, "file:test.db?mode=memory&cache=shared", got)

	_, err = PrepareDSN("  ", nil)
	assert.Error(t, err)
}

func TestMapType(t *testing.T) {
	t.Parallel()

	cases := map[types.Kind]string{
		types.KindBoolean:   "INTEGER",
		types.KindBigInt:    "INTEGER",
		types.KindDouble:    "REAL",
		types.KindDecimal:   "TEXT",
		types.KindDate:      "TEXT",
		types.KindVarbinary: "BLOB",
	}
	for k, want := range cases {
		got, ok := MapType(types.Type{Kind: k})
		require.True(t, ok, "MapType(%s)", k)
		assert.Equal(t, want, got, "MapType(%s)", k)
	}
}
