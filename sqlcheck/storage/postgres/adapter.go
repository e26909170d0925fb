package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage/sqlbuilder"
)

type Adapter struct {
	DSN    string
	Schema string // used as dedicated schema via search_path
}

func New(dsn, schema string) *Adapter {
	return &Adapter{DSN: dsn, Schema: schema}
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendPostgres }

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle { return sqlbuilder.PlaceholderDollar }

func (a *Adapter) ID() string { return "postgres:" + a.Schema }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) SQL() storage.SQL { return SQLTemplates }

var schemaNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Connect makes sure the schema exists, then returns a pool whose
// search_path is pinned to it so bare table names resolve there
func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	if a.Schema == "" || !schemaNameRe.MatchString(a.Schema) {
		return nil, fmt.Errorf("invalid postgres schema name %q (must match %s)", a.Schema, schemaNameRe.String())
	}

	admin, err := a.open(ctx, nil)
	if err != nil {
		return nil, err
	}
	_, err = admin.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+storage.QuoteIdent(a.Schema))
	_ = admin.Close()
	if err != nil {
		return nil, fmt.Errorf("create schema %s: %w", a.Schema, err)
	}

	return a.open(ctx, map[string]string{
		"search_path": storage.QuoteIdent(a.Schema) + ",public",
	})
}

func (a *Adapter) open(ctx context.Context, params map[string]string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, err
	}
	for k, v := range params {
		if cfg.RuntimeParams == nil {
			cfg.RuntimeParams = map[string]string{}
		}
		cfg.RuntimeParams[k] = v
	}
	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) Bootstrap(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, ddlBase)
	return err
}

func (a *Adapter) ColumnType(t expr.Type) (string, error) {
	switch t.Kind {
	case expr.KindBool:
		return "boolean", nil
	case expr.KindInt:
		return "bigint", nil
	case expr.KindUint:
		return "numeric(20,0)", nil
	case expr.KindDecimal:
		return "numeric", nil
	case expr.KindString:
		return "text", nil
	case expr.KindUUID:
		return "uuid", nil
	case expr.KindTime:
		return "timestamp with time zone", nil
	}
	return "", fmt.Errorf("no postgres column type for %s", t)
}
