package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownDialects = []string{"db2", "mssql", "mysql", "postgres", "sqlite"}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "conn.yaml", `
dialect: DB2
connection-url: jdbc:db2://db.example.com:50000/SAMPLE
connection-ssl: true
connection-properties:
  currentSchema: APP
varchar-max-length: 100
unsupported-type-handling: convert_to_varchar
forced-varchar-types: [XML, DECFLOAT]
metrics:
  backend: prompush
  pushgateway-url: http://localhost:9091
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db2", cfg.Dialect)
	assert.Equal(t, "jdbc:db2://db.example.com:50000/SAMPLE", cfg.ConnectionURL)
	assert.True(t, cfg.ConnectionSSL)
	assert.Equal(t, "APP", cfg.ConnectionProperties["currentschema"])
	assert.Equal(t, 100, cfg.VarcharMaxLength)
	assert.Equal(t, HandlingConvertToVarchar, cfg.UnsupportedTypeHandling)
	assert.Equal(t, []string{"XML", "DECFLOAT"}, cfg.ForcedVarcharTypes)
	assert.Equal(t, 1000, cfg.InsertBatchSize)
	assert.Equal(t, "prompush", cfg.Metrics.Backend)
	assert.Equal(t, "db2connector", cfg.Metrics.Job)
	assert.Empty(t, Validate(cfg, knownDialects))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "conn.json", `{"dialect":"postgres","connection-url":"postgres://a@b/c","insert-batch-size":10}`)
	t.Setenv("DB2CONN_INSERT_BATCH_SIZE", "250")
	t.Setenv("DB2CONN_METRICS_BACKEND", "datadog")
	t.Setenv("DB2CONN_METRICS_DATADOG_ADDR", "127.0.0.1:8125")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, 250, cfg.InsertBatchSize)
	assert.Equal(t, "datadog", cfg.Metrics.Backend)
	assert.Equal(t, "127.0.0.1:8125", cfg.Metrics.DatadogAddr)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("DB2CONN_CONNECTION_URL", "file:test.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "db2", cfg.Dialect)
	assert.Equal(t, "file:test.db", cfg.ConnectionURL)
	assert.Equal(t, HandlingIgnore, cfg.UnsupportedTypeHandling)
	assert.Equal(t, Default().InsertBatchSize, cfg.InsertBatchSize)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Default()
	valid.ConnectionURL = "sqlite.db"

	cases := []struct {
		name   string
		mutate func(*Config)
		want   []Issue
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:   "missing url",
			mutate: func(c *Config) { c.ConnectionURL = "" },
			want:   []Issue{{SeverityError, "connection-url", "must not be empty"}},
		},
		{
			name:   "unknown dialect",
			mutate: func(c *Config) { c.Dialect = "oracle" },
			want: []Issue{{SeverityError, "dialect",
				`unknown dialect "oracle"; known: db2, mssql, mysql, postgres, sqlite`}},
		},
		{
			name:   "bad handling",
			mutate: func(c *Config) { c.UnsupportedTypeHandling = "FAIL" },
			want: []Issue{{SeverityError, "unsupported-type-handling",
				`must be one of [IGNORE CONVERT_TO_VARCHAR], got "FAIL"`}},
		},
		{
			name:   "batch size",
			mutate: func(c *Config) { c.InsertBatchSize = 0 },
			want:   []Issue{{SeverityError, "insert-batch-size", "must be > 0"}},
		},
		{
			name:   "negative varchar limit",
			mutate: func(c *Config) { c.VarcharMaxLength = -1 },
			want:   []Issue{{SeverityError, "varchar-max-length", "must be >= 0"}},
		},
		{
			name:   "db2 varchar limit too large",
			mutate: func(c *Config) { c.VarcharMaxLength = 40000 },
			want: []Issue{{SeverityWarning, "varchar-max-length",
				"DB2 rejects VARCHAR longer than 32672; CREATE TABLE will fail for such columns"}},
		},
		{
			name:   "password without ssl",
			mutate: func(c *Config) { c.ConnectionURL = "DATABASE=x;UID=u;PWD=secret" },
			want: []Issue{{SeverityWarning, "connection-ssl",
				"connection-url carries a password but connection-ssl is off"}},
		},
		{
			name:   "prompush without url",
			mutate: func(c *Config) { c.Metrics.Backend = "prompush" },
			want:   []Issue{{SeverityError, "metrics.pushgateway-url", "required when metrics.backend is prompush"}},
		},
		{
			name:   "datadog without addr",
			mutate: func(c *Config) { c.Metrics.Backend = "datadog" },
			want:   []Issue{{SeverityError, "metrics.datadog-addr", "required when metrics.backend is datadog"}},
		},
		{
			name:   "bad pushgateway url",
			mutate: func(c *Config) { c.Metrics.PushgatewayURL = "not a url" },
			want:   []Issue{{SeverityError, "metrics.pushgateway-url", `must be a URL, got "not a url"`}},
		},
		{
			name:   "empty forced type",
			mutate: func(c *Config) { c.ForcedVarcharTypes = []string{"XML", ""} },
			want:   []Issue{{SeverityError, "forced-varchar-types[1]", "must not be empty"}},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tc.mutate(&cfg)
			assert.Equal(t, tc.want, Validate(cfg, knownDialects))
		})
	}
}

func TestErrKeepsOnlyErrors(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Err(nil))
	assert.NoError(t, Err([]Issue{{SeverityWarning, "a", "b"}}))

	err := Err([]Issue{
		{SeverityError, "dialect", "bad"},
		{SeverityWarning, "x", "y"},
		{SeverityError, "connection-url", "must not be empty"},
	})
	require.Error(t, err)
	lines := strings.Split(err.Error(), "\n")
	assert.Equal(t, []string{
		"error at dialect: bad",
		"error at connection-url: must not be empty",
	}, lines)
}
