// Package migrations embeds the PostgreSQL schema so binaries and tests can
// migrate without a migrations directory on disk.
package migrations

import "embed"

// FS holds every *.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
