package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sqlcheck/sqlcheck/internal/cliopt"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage/postgres"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage/sqlite"
)

type OutputFormat string

const (
	FormatPretty OutputFormat = "pretty"
	FormatJSON   OutputFormat = "json"
	FormatYAML   OutputFormat = "yaml"
)

func ParseOutputFormat(s string) OutputFormat {
	switch OutputFormat(s) {
	case FormatPretty, FormatJSON, FormatYAML:
		return OutputFormat(s)
	default:
		return FormatPretty
	}
}

func PrintJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

func PrintYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// PrintStructured writes v as JSON or YAML. It reports false for the
// pretty format, which each command renders itself.
func PrintStructured(w io.Writer, f OutputFormat, v any) (bool, error) {
	switch f {
	case FormatJSON:
		PrintJSON(w, v)
		return true, nil
	case FormatYAML:
		return true, PrintYAML(w, v)
	}
	return false, nil
}

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// ApplyEnv fills global options from the environment unless the matching
// flag was set explicitly
func ApplyEnv(cmd *cobra.Command, g *cliopt.GlobalOptions) {
	set := func(flag, env string, dst *string) {
		if cmd.Flags().Changed(flag) {
			return
		}
		*dst = GetEnvWithDefault(env, *dst)
	}
	set("backend", "SQLCHECK_BACKEND", &g.Backend)
	set("sqlite-path", "SQLCHECK_SQLITE_PATH", &g.SQLitePath)
	set("pg-dsn", "DATABASE_URL", &g.PostgresDSN)
	set("pg-dsn", "SQLCHECK_PG_DSN", &g.PostgresDSN)
	set("pg-schema", "SQLCHECK_PG_SCHEMA", &g.PostgresSchema)
}

// NewAdapter builds the storage adapter the global options select
func NewAdapter(g cliopt.GlobalOptions) (storage.Adapter, error) {
	switch strings.ToLower(g.Backend) {
	case "sqlite", "":
		switch g.SQLiteDriver {
		case sqlite.DriverModernc, sqlite.DriverMattn:
		default:
			return nil, fmt.Errorf("unknown sqlite driver %q", g.SQLiteDriver)
		}
		return sqlite.NewWithDriver(g.SQLitePath, g.SQLiteDriver), nil
	case "postgres", "pg":
		if g.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend requires --pg-dsn (env: SQLCHECK_PG_DSN)")
		}
		return postgres.New(g.PostgresDSN, g.PostgresSchema), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", g.Backend)
	}
}
