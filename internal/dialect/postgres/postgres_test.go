package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db2connector/internal/types"
)

func TestPrepareDSN(t *testing.T) {
	t.Parallel()

	got, err := PrepareDSN("postgres://u:p@localhost:5432/app", map[string]string{"sslmode": "require"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/app?sslmode=require", got)

	got, err = PrepareDSN("postgres://u@localhost/app?sslmode=disable", map[string]string{"sslmode": "require"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u@localhost/app?sslmode=disable", got)

	got, err = PrepareDSN("host=localhost dbname=app", map[string]string{"sslmode": "require", "application_name": "conn"})
	require.NoError(t, err)
	assert.Equal(t, "host=localhost dbname=app application_name=conn sslmode=require", got)

	_, err = PrepareDSN("postgres://u@localhost:notaport/app", nil)
	assert.Error(t, err)
}

func TestMapType(t *testing.T) {
	t.Parallel()

	got, ok := MapType(types.Double)
	assert.True(t, ok)
	assert.Equal(t, "DOUBLE PRECISION", got)

	got, ok = MapType(types.Type{Kind: types.KindTime, Precision: 9})
	assert.True(t, ok)
	assert.Equal(t, "TIME(6)", got)

	_, ok = MapType(types.Type{})
	assert.False(t, ok)
}
