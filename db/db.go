// Package db embeds the goose SQL migrations so tests and tools can apply
// them without a checkout on disk.
package db

import "embed"

// Migrations holds db/migrations/*.sql; goose reads it with dir "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS
