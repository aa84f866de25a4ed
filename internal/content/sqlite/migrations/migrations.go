// Package migrations embeds the SQL schema for the sqlite content store.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
