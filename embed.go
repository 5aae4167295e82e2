package telegpt

import "embed"

// MigrationsFS holds the SQL migrations for the optional Postgres session dump.
//
//go:embed migrations
var MigrationsFS embed.FS
