//go:build db2

package main

// The DB2 driver needs the IBM CLI client libraries at build and run time,
// so it is only linked when building with -tags db2.
import _ "github.com/ibmdb/go_ibm_db"
