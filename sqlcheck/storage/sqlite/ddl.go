package sqlite

import "github.com/sqlcheck/sqlcheck/sqlcheck/storage"

const ddlBase = `
CREATE TABLE IF NOT EXISTS sqlcheck_constraints (
  name       TEXT PRIMARY KEY,
  table_name TEXT NOT NULL,
  body       TEXT NOT NULL
);
`

var SQLTemplates = storage.SQL{
	PutConstraint: `INSERT INTO sqlcheck_constraints(name, table_name, body) VALUES(?, ?, ?)
ON CONFLICT(name) DO UPDATE SET table_name = excluded.table_name, body = excluded.body`,
	GetConstraints: `SELECT name, body FROM sqlcheck_constraints ORDER BY name`,
	TableExists:    `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	IndexExists:    `SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = ?`,
}
