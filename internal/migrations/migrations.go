// Package migrations embeds the goose SQL migrations for the weavebox
// relational schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
