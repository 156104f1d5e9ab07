package lunatech

import "embed"

// MigrationFiles contains the SQL migrations applied by NewStore.
//
//go:embed migrations/*.sql
var MigrationFiles embed.FS
