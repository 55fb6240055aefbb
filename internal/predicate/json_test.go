package predicate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db2connector/internal/types"
)

func decodeSpec(t *testing.T, s string) DomainSpec {
	t.Helper()
	var spec DomainSpec
	require.NoError(t, json.Unmarshal([]byte(s), &spec))
	return spec
}

func TestDomainSpec(t *testing.T) {
	t.Parallel()

	dom, err := decodeSpec(t, `{"null_allowed": true, "values": [9, 1, 5]}`).Domain(types.BigInt)
	require.NoError(t, err)
	assert.True(t, dom.NullAllowed)
	assert.True(t, dom.Contains(int64(5)))
	assert.False(t, dom.Contains(int64(2)))

	dom, err = decodeSpec(t, `{"ranges": [{"low": {"value": 3, "bound": "above"}}]}`).Domain(types.BigInt)
	require.NoError(t, err)
	assert.Equal(t, GreaterThan(int64(3)), dom.Values.Ranges[0])

	dom, err = decodeSpec(t, `{"ranges": [{"low": {"value": "2024-01-01"}, "high": {"value": "2024-02-01", "bound": "below"}}]}`).Domain(types.Date)
	require.NoError(t, err)
	assert.True(t, dom.Contains(int64(19723)))

	dom, err = decodeSpec(t, `{"all": true}`).Domain(types.UnboundedVarchar)
	require.NoError(t, err)
	assert.True(t, dom.IsAll())

	dom, err = decodeSpec(t, `{}`).Domain(types.BigInt)
	require.NoError(t, err)
	assert.True(t, dom.IsNone())
}

func TestDomainSpecErrors(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		`{"values": [null]}`,
		`{"values": ["x"]}`,
		`{"ranges": [{"low": {"value": 1, "bound": "sideways"}}]}`,
		`{"ranges": [{"low": {"value": 1, "bound": "below"}}]}`,
	} {
		_, err := decodeSpec(t, s).Domain(types.BigInt)
		assert.Error(t, err, s)
	}
}
