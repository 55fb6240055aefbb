package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONWithCaller(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Out: &buf})
	log.Info().Str("dialect", "db2").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "db2", entry["dialect"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestNew_DebugLevel(t *testing.T) {
	var quiet, loud bytes.Buffer
	quietLog := New(Options{Out: &quiet})
	quietLog.Debug().Msg("hidden")
	loudLog := New(Options{Out: &loud, Debug: true})
	loudLog.Debug().Msg("shown")

	assert.Empty(t, quiet.String())
	assert.Contains(t, loud.String(), "shown")
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("PRETTY", "1")
	t.Setenv("DEBUG", "0")
	o := OptionsFromEnv()
	assert.True(t, o.Pretty)
	assert.False(t, o.Debug)
}
