// Package db embeds the SQL migrations so the schema guard and the migration
// command apply the same files without a migrations directory on disk.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the files.
const MigrationsDir = "migrations"
