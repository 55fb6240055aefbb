package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"db2connector/internal/client"
	"db2connector/internal/config"
	"db2connector/internal/dialect"
	"db2connector/internal/logging"
	"db2connector/internal/metrics"
	"db2connector/internal/metrics/datadog"
	"db2connector/internal/metrics/prompush"
)

// rootOptions holds global flags and the state resolved from them before a
// subcommand runs.
type rootOptions struct {
	configPath string
	dialect    string
	verbose    bool

	cfg config.Config
	log zerolog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "db2connector",
		Short:         "DB2 connector core: predicate compiler, type mapper and schema DDL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if err := metrics.Flush(); err != nil {
				opts.log.Warn().Err(err).Msg("metrics flush")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./db2connector.{yaml,json})")
	cmd.PersistentFlags().StringVar(&opts.dialect, "dialect", "", "override the configured dialect")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newSQLCommand(opts))
	cmd.AddCommand(newTypemapCommand(opts))
	cmd.AddCommand(newWritemapCommand(opts))
	cmd.AddCommand(newRenameCommand(opts))
	cmd.AddCommand(newCopySchemaCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))

	return cmd
}

// setup loads configuration, builds the logger and selects the metrics
// backend.
func (o *rootOptions) setup() error {
	lo := logging.OptionsFromEnv()
	lo.Out = os.Stderr
	if o.verbose {
		lo.Debug = true
	}
	o.log = logging.New(lo)

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.dialect != "" {
		cfg.Dialect = o.dialect
	}
	o.cfg = cfg

	switch cfg.Metrics.Backend {
	case "prompush":
		b, err := prompush.NewBackend(cfg.Metrics.Job, cfg.Metrics.PushgatewayURL)
		if err != nil {
			o.log.Warn().Err(err).Msg("metrics: prom push backend unavailable; using nop")
			return nil
		}
		metrics.SetBackend(b)
		o.log.Debug().Str("url", cfg.Metrics.PushgatewayURL).Str("job", cfg.Metrics.Job).Msg("metrics: prompush")
	case "datadog":
		b, err := datadog.NewBackend(datadog.FromConfig(cfg.Metrics))
		if err != nil {
			o.log.Warn().Err(err).Msg("metrics: datadog backend unavailable; using nop")
			return nil
		}
		metrics.SetBackend(b)
		o.log.Debug().Str("addr", cfg.Metrics.DatadogAddr).Msg("metrics: datadog")
	}
	return nil
}

// lookupDialect returns the configured dialect.
func (o *rootOptions) lookupDialect() (dialect.Dialect, error) {
	return dialect.Lookup(o.cfg.Dialect)
}

// offlineClient returns a client without a connection factory, for the
// commands that never reach the database.
func (o *rootOptions) offlineClient() (*client.SQLClient, error) {
	d, err := o.lookupDialect()
	if err != nil {
		return nil, err
	}
	return client.New(nil, d, o.cfg, o.log), nil
}

// connectedClient validates the configuration and opens a connection
// factory. The caller closes the returned factory.
func (o *rootOptions) connectedClient() (*client.SQLClient, *client.DBFactory, error) {
	if err := config.Err(config.Validate(o.cfg, dialect.Names())); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	d, err := o.lookupDialect()
	if err != nil {
		return nil, nil, err
	}
	f, err := client.NewConnectionFactory(&d, o.cfg)
	if err != nil {
		return nil, nil, err
	}
	return client.New(f, d, o.cfg, o.log), f, nil
}
