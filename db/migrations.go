// Package db carries the SQL schema migrations compiled into the binary.
package db

import "embed"

// Migrations holds the golang-migrate source files under migrations/
//
//go:embed migrations/*.sql
var Migrations embed.FS
