// Command db2connector exposes the connector core from the command line:
// compiling constraint requests to SQL, inspecting type mappings and running
// schema-evolution DDL against a configured database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	// register every dialect with the registry; the configuration picks one.
	_ "db2connector/internal/dialect/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
