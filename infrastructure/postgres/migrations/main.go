// Package migrations holds the schema migrations of the rating store.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry applied by the migrate command.
var Migrations = migrate.NewMigrations()

func init() {
	// Derive each migration's ID from the file that registers it.
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
