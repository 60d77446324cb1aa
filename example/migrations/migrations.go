// Package migrations embeds the SQL migrations of the example application.
package migrations

import "embed"

// FS holds the goose migration files.
//
//go:embed *.sql
var FS embed.FS
