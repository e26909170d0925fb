package postgres

import "github.com/sqlcheck/sqlcheck/sqlcheck/storage"

const ddlBase = `
CREATE TABLE IF NOT EXISTS sqlcheck_constraints (
  name       TEXT PRIMARY KEY,
  table_name TEXT NOT NULL,
  body       TEXT NOT NULL
);
`

var SQLTemplates = storage.SQL{
	PutConstraint: `INSERT INTO sqlcheck_constraints(name, table_name, body) VALUES($1, $2, $3)
ON CONFLICT(name) DO UPDATE SET table_name = excluded.table_name, body = excluded.body`,
	GetConstraints: `SELECT name, body FROM sqlcheck_constraints ORDER BY name`,
	TableExists: `SELECT count(*) FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = current_schema() AND c.relname = $1 AND c.relkind IN ('r', 'p')`,
	IndexExists: `SELECT count(*) FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = current_schema() AND c.relname = $1 AND c.relkind = 'i'`,
}
