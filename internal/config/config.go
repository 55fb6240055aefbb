// Package config defines the connector configuration and loads it from a
// YAML/JSON file and DB2CONN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Unsupported-type handling modes.
const (
	HandlingIgnore           = "IGNORE"
	HandlingConvertToVarchar = "CONVERT_TO_VARCHAR"
)

// EnvPrefix prefixes environment overrides, e.g. DB2CONN_CONNECTION_URL.
const EnvPrefix = "DB2CONN"

// Config is the connector configuration.
type Config struct {
	// Dialect selects the SQL dialect and driver ("db2", "postgres", ...).
	Dialect string `mapstructure:"dialect" validate:"required"`
	// ConnectionURL is the driver DSN; db2 also accepts
	// jdbc:db2://host:port/database URLs.
	ConnectionURL string `mapstructure:"connection-url" validate:"required"`
	// ConnectionSSL merges the dialect's TLS properties into the DSN.
	ConnectionSSL bool `mapstructure:"connection-ssl"`
	// ConnectionProperties are extra driver options applied once when the
	// connection factory builds its DSN.
	ConnectionProperties map[string]string `mapstructure:"connection-properties"`

	// VarcharMaxLength overrides the dialect's bounded-string capacity; 0
	// keeps the dialect default (32672 for db2).
	VarcharMaxLength int `mapstructure:"varchar-max-length" validate:"gte=0"`
	// UnsupportedTypeHandling is IGNORE or CONVERT_TO_VARCHAR.
	UnsupportedTypeHandling string `mapstructure:"unsupported-type-handling" validate:"oneof=IGNORE CONVERT_TO_VARCHAR"`
	// ForcedVarcharTypes lists native type names always read as varchar.
	ForcedVarcharTypes []string `mapstructure:"forced-varchar-types" validate:"dive,required"`

	// InsertBatchSize is the number of rows per page-sink batch.
	InsertBatchSize int `mapstructure:"insert-batch-size" validate:"gt=0"`

	Metrics Metrics `mapstructure:"metrics"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	// Backend is "none", "prompush" or "datadog".
	Backend        string   `mapstructure:"backend" validate:"oneof=none prompush datadog"`
	Job            string   `mapstructure:"job"`
	PushgatewayURL string   `mapstructure:"pushgateway-url" validate:"omitempty,url"`
	DatadogAddr    string   `mapstructure:"datadog-addr"`
	Namespace      string   `mapstructure:"namespace"`
	Tags           []string `mapstructure:"tags"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Dialect:                 "db2",
		UnsupportedTypeHandling: HandlingIgnore,
		InsertBatchSize:         1000,
		Metrics:                 Metrics{Backend: "none", Job: "db2connector"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("dialect", d.Dialect)
	v.SetDefault("connection-url", "")
	v.SetDefault("connection-ssl", false)
	v.SetDefault("varchar-max-length", d.VarcharMaxLength)
	v.SetDefault("unsupported-type-handling", d.UnsupportedTypeHandling)
	v.SetDefault("forced-varchar-types", []string{})
	v.SetDefault("insert-batch-size", d.InsertBatchSize)
	v.SetDefault("metrics.backend", d.Metrics.Backend)
	v.SetDefault("metrics.job", d.Metrics.Job)
	v.SetDefault("metrics.pushgateway-url", "")
	v.SetDefault("metrics.datadog-addr", "")
	v.SetDefault("metrics.namespace", "")
}

// Load reads configuration. When path is empty, db2connector.{yaml,json}
// is looked up in the working directory and a missing file is not an error.
// Environment variables override file values: keys are upper-cased, '-'
// and '.' become '_', and DB2CONN_ is prepended (DB2CONN_METRICS_BACKEND).
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("db2connector")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.UnsupportedTypeHandling = strings.ToUpper(strings.TrimSpace(cfg.UnsupportedTypeHandling))
	cfg.Dialect = strings.ToLower(strings.TrimSpace(cfg.Dialect))
	return cfg, nil
}
