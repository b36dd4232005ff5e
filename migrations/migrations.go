// Package migrations embeds the SQL schema files so the binary can migrate
// the database without shipping a migrations directory next to it.
package migrations

import "embed"

// FS holds the golang-migrate formatted files ({version}_{name}.{up|down}.sql).
//
//go:embed *.sql
var FS embed.FS
