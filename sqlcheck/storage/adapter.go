package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage/sqlbuilder"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Adapter abstracts database-specific operations
type Adapter interface {
	Backend() Backend
	PlaceholderStyle() sqlbuilder.PlaceholderStyle
	ID() string

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	// ColumnType maps a field type onto the backend's column type
	ColumnType(t expr.Type) (string, error)

	// Bootstrap creates the bookkeeping table that records applied
	// constraint bodies
	Bootstrap(ctx context.Context, db *sql.DB) error
	SQL() SQL
}

// SQL holds prepared SQL templates for bookkeeping. TableExists and
// IndexExists take the object name and return a count.
type SQL struct {
	PutConstraint  string
	GetConstraints string
	TableExists    string
	IndexExists    string
}

// Querier is satisfied by *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Column is one table column
type Column struct {
	Name string
	Type expr.Type
}

// Check is a named CHECK constraint body
type Check struct {
	Name string
	SQL  string
}

// Unique is a named unique index over a key expression list
type Unique struct {
	Name string
	Keys string
}

// Table describes everything needed to create one entity's table
type Table struct {
	Name    string
	Columns []Column
	Checks  []Check
	Uniques []Unique
}

// QuoteIdent double-quotes an identifier
func QuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// CreateTableDDL renders the statements creating t: the table with its
// CHECK constraints, then one unique index per key
func CreateTableDDL(a Adapter, t Table) ([]string, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", t.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdent(t.Name))
	lines := make([]string, 0, len(t.Columns)+len(t.Checks))
	for _, c := range t.Columns {
		typ, err := a.ColumnType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s.%s: %w", t.Name, c.Name, err)
		}
		line := "  " + QuoteIdent(c.Name) + " " + typ
		if !c.Type.Nullable {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}
	for _, ck := range t.Checks {
		lines = append(lines, fmt.Sprintf("  CONSTRAINT %s CHECK (%s)", QuoteIdent(ck.Name), ck.SQL))
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")

	stmts := []string{b.String()}
	for _, u := range t.Uniques {
		stmts = append(stmts, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
			QuoteIdent(u.Name), QuoteIdent(t.Name), u.Keys))
	}
	return stmts, nil
}

// Apply creates the parts of t that do not exist yet and records the body
// of every constraint it created. An existing table or index is left as
// it is and its recorded body is not touched. Apply returns the physical
// names it created.
func Apply(ctx context.Context, a Adapter, q Querier, t Table) ([]string, error) {
	stmts, err := CreateTableDDL(a, t)
	if err != nil {
		return nil, err
	}
	tmpl := a.SQL()
	var created []string

	found, err := exists(ctx, q, tmpl.TableExists, t.Name)
	if err != nil {
		return nil, fmt.Errorf("look up table %s: %w", t.Name, err)
	}
	if !found {
		if _, err := q.ExecContext(ctx, stmts[0]); err != nil {
			return nil, fmt.Errorf("create table %s: %w", t.Name, err)
		}
		for _, ck := range t.Checks {
			if _, err := q.ExecContext(ctx, tmpl.PutConstraint, ck.Name, t.Name, ck.SQL); err != nil {
				return nil, fmt.Errorf("record %s: %w", ck.Name, err)
			}
			created = append(created, ck.Name)
		}
	}

	for i, u := range t.Uniques {
		found, err := exists(ctx, q, tmpl.IndexExists, u.Name)
		if err != nil {
			return nil, fmt.Errorf("look up index %s: %w", u.Name, err)
		}
		if found {
			continue
		}
		if _, err := q.ExecContext(ctx, stmts[i+1]); err != nil {
			return nil, fmt.Errorf("create index %s: %w", u.Name, err)
		}
		if _, err := q.ExecContext(ctx, tmpl.PutConstraint, u.Name, t.Name, u.Keys); err != nil {
			return nil, fmt.Errorf("record %s: %w", u.Name, err)
		}
		created = append(created, u.Name)
	}
	return created, nil
}

func exists(ctx context.Context, q Querier, query, name string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Recorded returns the applied constraint bodies keyed by physical name
func Recorded(ctx context.Context, a Adapter, q Querier) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, a.SQL().GetConstraints)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, err
		}
		out[name] = body
	}
	return out, rows.Err()
}
