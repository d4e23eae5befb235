// Package migrations embeds the goose SQL migrations of the habits schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
