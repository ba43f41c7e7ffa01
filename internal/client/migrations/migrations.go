// Package migrations embeds the goose SQL migrations for the local
// message mirror. Schema changes must stay additive so existing cached
// rows never need a destructive migration.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
