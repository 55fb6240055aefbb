package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"db2connector/internal/typemap"
	"db2connector/internal/types"
)

func newTypemapCommand(opts *rootOptions) *cobra.Command {
	var (
		jdbcType      int
		typeName      string
		columnSize    int
		decimalDigits int
	)
	cmd := &cobra.Command{
		Use:   "typemap",
		Short: "Print the logical type a native column maps to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.offlineClient()
			if err != nil {
				return err
			}
			h := typemap.TypeHandle{JDBCType: jdbcType, TypeName: typeName}
			if cmd.Flags().Changed("column-size") {
				h.ColumnSize = typemap.Int(columnSize)
			}
			if cmd.Flags().Changed("decimal-digits") {
				h.DecimalDigits = typemap.Int(decimalDigits)
			}
			m, ok, err := c.ToColumnMapping(h)
			if err != nil {
				return fmt.Errorf("%s: %w", h, err)
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no mapping\n", h)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", h, m.Type)
			return nil
		},
	}
	cmd.Flags().IntVar(&jdbcType, "jdbc-type", typemap.Varchar, "native type code (e.g. 93 for TIMESTAMP)")
	cmd.Flags().StringVar(&typeName, "type-name", "", "database type name (matched against forced-varchar-types)")
	cmd.Flags().IntVar(&columnSize, "column-size", 0, "declared length or precision")
	cmd.Flags().IntVar(&decimalDigits, "decimal-digits", 0, "scale or fractional-second precision")
	return cmd
}

func newWritemapCommand(opts *rootOptions) *cobra.Command {
	var signature string
	cmd := &cobra.Command{
		Use:   "writemap",
		Short: "Print the DDL type used to store a logical type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := types.Parse(signature)
			if err != nil {
				return err
			}
			c, err := opts.offlineClient()
			if err != nil {
				return err
			}
			wm, err := c.ToWriteMapping(t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", t, wm.DataType)
			return nil
		},
	}
	cmd.Flags().StringVar(&signature, "type", "", "logical type signature, e.g. varchar(40000) or timestamp(9)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
