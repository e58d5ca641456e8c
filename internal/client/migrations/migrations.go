// Package migrations embeds the SQL migrations for the local history
// database. They are applied with goose by client.RunMigrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
