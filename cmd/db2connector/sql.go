package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"db2connector/internal/predicate"
	"db2connector/internal/querybuilder"
	"db2connector/internal/types"
)

// selectRequest is the JSON input of the sql command:
//
//	{
//	  "schema": "SALES", "table": "ORDERS",
//	  "columns": [{"name": "ID", "type": "bigint"}, {"name": "NOTE", "type": "varchar(200)"}],
//	  "constraints": {"ID": {"values": [1, 5, 9]}}
//	}
//
// "none": true makes the whole constraint set unsatisfiable.
type selectRequest struct {
	Catalog     string                          `json:"catalog"`
	Schema      string                          `json:"schema"`
	Table       string                          `json:"table"`
	Columns     []columnRequest                 `json:"columns"`
	None        bool                            `json:"none"`
	Constraints map[string]predicate.DomainSpec `json:"constraints"`
}

type columnRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func newSQLCommand(opts *rootOptions) *cobra.Command {
	var requestPath string
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SELECT statement for a JSON request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(requestPath)
			if err != nil {
				return fmt.Errorf("read request: %w", err)
			}
			var req selectRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("decode request: %w", err)
			}
			d, err := opts.lookupDialect()
			if err != nil {
				return err
			}
			stmt, err := buildSelect(querybuilder.New(&d, querybuilder.WithLogger(opts.log)), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stmt)
			return nil
		},
	}
	cmd.Flags().StringVar(&requestPath, "request", "", "path to the JSON request")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func buildSelect(b *querybuilder.Builder, req selectRequest) (string, error) {
	columns := make([]querybuilder.Column, len(req.Columns))
	byName := make(map[string]types.Type, len(req.Columns))
	for i, c := range req.Columns {
		t, err := types.Parse(c.Type)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", c.Name, err)
		}
		columns[i] = querybuilder.Column{Name: c.Name, Type: t}
		byName[c.Name] = t
	}

	constraints := predicate.Unconstrained()
	if req.None {
		constraints = predicate.NoneSet()
	} else if len(req.Constraints) > 0 {
		domains := make(map[string]predicate.Domain, len(req.Constraints))
		for name, spec := range req.Constraints {
			t, ok := byName[name]
			if !ok {
				return "", fmt.Errorf("constraint on unknown column %s", name)
			}
			dom, err := spec.Domain(t)
			if err != nil {
				return "", fmt.Errorf("constraint %s: %w", name, err)
			}
			domains[name] = dom
		}
		constraints = predicate.WithColumnDomains(domains)
	}
	return b.BuildSQL(req.Catalog, req.Schema, req.Table, columns, constraints)
}
