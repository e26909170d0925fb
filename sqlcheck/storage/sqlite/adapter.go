package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage/sqlbuilder"
)

// DriverModernc and DriverMattn are the database/sql names of the two
// supported SQLite drivers
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

type Adapter struct {
	Path       string
	DriverName string
}

func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: DriverModernc}
}

func NewWithDriver(path, driver string) *Adapter {
	return &Adapter{Path: path, DriverName: driver}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderQuestion
}

func (a *Adapter) ID() string {
	return a.Path
}

// dsn appends busy-timeout and foreign-key settings in the syntax each
// driver understands
func (a *Adapter) dsn() string {
	params := "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if a.DriverName == DriverMattn {
		params = "_busy_timeout=5000&_foreign_keys=on"
	}
	if strings.Contains(a.Path, "?") {
		return a.Path + "&" + params
	}
	return a.Path + "?" + params
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName, a.dsn())
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	if strings.HasPrefix(a.Path, ":memory:") || strings.Contains(a.Path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) SQL() storage.SQL {
	return SQLTemplates
}

func (a *Adapter) Bootstrap(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ddlBase); err != nil {
		return err
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")
	return nil
}

func (a *Adapter) ColumnType(t expr.Type) (string, error) {
	switch t.Kind {
	case expr.KindBool:
		return "BOOLEAN", nil
	case expr.KindInt, expr.KindUint:
		return "INTEGER", nil
	case expr.KindDecimal:
		return "NUMERIC", nil
	case expr.KindString, expr.KindUUID:
		return "TEXT", nil
	case expr.KindTime:
		return "DATETIME", nil
	}
	return "", fmt.Errorf("no sqlite column type for %s", t)
}
