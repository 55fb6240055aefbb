// Package all registers every built-in dialect with the dialect registry.
//
// Import it for side effects only:
//
//	import _ "db2connector/internal/dialect/all"
//
// Binaries that need a subset can import the individual dialect packages
// instead.
package all

import (
	_ "db2connector/internal/dialect/db2"
	_ "db2connector/internal/dialect/mssql"
	_ "db2connector/internal/dialect/mysql"
	_ "db2connector/internal/dialect/postgres"
	_ "db2connector/internal/dialect/sqlite"
)
