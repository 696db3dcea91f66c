package migration

import "embed"

//go:embed sql/*.sql
var MigrationsFS embed.FS

// DefaultConfig points the migrator at the embedded SQL files.
func DefaultConfig() Config {
	return Config{
		MigrationsPath: "sql",
		MigrationsFS:   MigrationsFS,
	}
}
