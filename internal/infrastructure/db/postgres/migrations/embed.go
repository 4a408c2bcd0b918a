// Package migrations carries the embedded schema migrations for the
// accounts database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
