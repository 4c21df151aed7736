// Package migrations embeds the SQL migration files applied by goose during
// worker startup. Files follow the YYYYMMDDHHMMSS_description.sql naming
// convention and run in order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
