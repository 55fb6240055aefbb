package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"db2connector/internal/client"
)

// tableFlags names the source table of a DDL command.
type tableFlags struct {
	catalog string
	schema  string
	table   string
	to      string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "catalog of the table")
	cmd.Flags().StringVar(&f.schema, "schema", "", "schema of the table")
	cmd.Flags().StringVar(&f.table, "table", "", "table name")
	cmd.Flags().StringVar(&f.to, "to", "", "new table name")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("to")
}

func newRenameCommand(opts *rootOptions) *cobra.Command {
	var f tableFlags
	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename a table in place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, factory, err := opts.connectedClient()
			if err != nil {
				return err
			}
			defer factory.Close()
			if err := c.RenameTable(cmd.Context(), f.catalog, f.schema, f.table, f.to); err != nil {
				return err
			}
			opts.log.Info().Str("table", f.table).Str("to", f.to).Msg("table renamed")
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newCopySchemaCommand(opts *rootOptions) *cobra.Command {
	var (
		f       tableFlags
		columns string
	)
	cmd := &cobra.Command{
		Use:   "copy-schema",
		Short: "Create an empty table with the given columns of another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cols := splitColumns(columns)
			if len(cols) == 0 {
				return fmt.Errorf("--columns must name at least one column")
			}
			c, factory, err := opts.connectedClient()
			if err != nil {
				return err
			}
			defer factory.Close()
			return copySchema(cmd.Context(), c, factory, f, cols)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&columns, "columns", "", "comma-separated column list, in order")
	_ = cmd.MarkFlagRequired("columns")
	return cmd
}

// copySchema runs the copy on a connection of its own, closed on return.
func copySchema(ctx context.Context, c *client.SQLClient, factory client.ConnectionFactory, f tableFlags, columns []string) error {
	conn, err := factory.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := c.CopyTableSchema(ctx, conn, f.catalog, f.schema, f.table, f.to, columns); err != nil {
		return err
	}
	return nil
}

func splitColumns(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
