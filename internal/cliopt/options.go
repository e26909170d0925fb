package cliopt

import (
	"github.com/spf13/cobra"
)

// GlobalOptions are parsed once at the CLI root and passed to subcommands.
//
// NOTE: This is a separate package to avoid import cycles between the root
// command and per-command code.
type GlobalOptions struct {
	Backend        string
	SQLitePath     string
	SQLiteDriver   string
	PostgresDSN    string
	PostgresSchema string

	Format string
	Debug  bool
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		Backend:        "sqlite",
		SQLitePath:     "sqlcheck.db",
		SQLiteDriver:   "sqlite",
		PostgresSchema: "public",
		Format:         "pretty",
	}
}

func BindGlobalFlags(cmd *cobra.Command, g *GlobalOptions) {
	fs := cmd.PersistentFlags()
	fs.StringVar(&g.Backend, "backend", g.Backend, "backend: sqlite|postgres (env: SQLCHECK_BACKEND)")

	fs.StringVar(&g.SQLitePath, "sqlite-path", g.SQLitePath, "sqlite database file (env: SQLCHECK_SQLITE_PATH)")
	fs.StringVar(&g.SQLiteDriver, "sqlite-driver", g.SQLiteDriver, "sqlite driver: sqlite (pure Go) or sqlite3 (cgo)")

	fs.StringVar(&g.PostgresDSN, "pg-dsn", g.PostgresDSN, "postgres DSN (env: SQLCHECK_PG_DSN or DATABASE_URL)")
	fs.StringVar(&g.PostgresSchema, "pg-schema", g.PostgresSchema, "postgres schema (env: SQLCHECK_PG_SCHEMA)")

	fs.StringVarP(&g.Format, "format", "o", g.Format, "output format: pretty|json|yaml")
	fs.BoolVar(&g.Debug, "debug", g.Debug, "enable debug logging")
}
