package violation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlCheckConstraintViolate = 3819
)

// extractor pulls a constraint name out of one driver's error type
type extractor func(err error) (string, bool)

var extractors = []extractor{
	pgxName,
	pqName,
	mysqlName,
	moderncName,
}

// ConstraintName returns the physical constraint name a driver error
// reports, or "" when there is none. Errors from unknown drivers are
// matched on their text.
func ConstraintName(err error) string {
	if err == nil {
		return ""
	}
	for _, ex := range extractors {
		if name, ok := ex(err); ok {
			return name
		}
	}
	name, _ := nameFromText(err.Error())
	return name
}

func pgxName(err error) (string, bool) {
	var e *pgconn.PgError
	if !errors.As(err, &e) {
		return "", false
	}
	return e.ConstraintName, true
}

func pqName(err error) (string, bool) {
	var e *pq.Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Constraint, true
}

func mysqlName(err error) (string, bool) {
	var e *mysql.MySQLError
	if !errors.As(err, &e) {
		return "", false
	}
	switch e.Number {
	case mysqlCheckConstraintViolate, mysqlDuplicateEntry:
		return nameFromText(e.Message)
	}
	return "", true
}

func moderncName(err error) (string, bool) {
	var e *sqlite.Error
	if !errors.As(err, &e) {
		return "", false
	}
	switch e.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_CHECK, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return nameFromText(e.Error())
	}
	return "", true
}

var namePatterns = []*regexp.Regexp{
	// Postgres
	regexp.MustCompile(`violates (?:check|unique) constraint "([^"]+)"`),
	// SQLite, named CHECK and expression indexes
	regexp.MustCompile(`CHECK constraint failed: ([A-Za-z0-9_$]+)`),
	regexp.MustCompile(`UNIQUE constraint failed: index '([^']+)'`),
	// MySQL
	regexp.MustCompile(`Check constraint '([^']+)' is violated`),
	regexp.MustCompile(`Duplicate entry '.*' for key '([^']+)'`),
}

func nameFromText(msg string) (string, bool) {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			name := m[1]
			// MySQL 8 prefixes the key with its table
			if i := strings.LastIndexByte(name, '.'); i >= 0 {
				name = name[i+1:]
			}
			return name, true
		}
	}
	return "", false
}

var uniqueColumnsRe = regexp.MustCompile(`UNIQUE constraint failed: ((?:[A-Za-z0-9_$]+\.[A-Za-z0-9_$]+)(?:, [A-Za-z0-9_$]+\.[A-Za-z0-9_$]+)*)`)

// uniqueColumns parses SQLite's column-list form of a unique violation,
// e.g. "UNIQUE constraint failed: people.Email, people.Tenant"
func uniqueColumns(err error) (table string, cols []string, ok bool) {
	m := uniqueColumnsRe.FindStringSubmatch(err.Error())
	if m == nil {
		return "", nil, false
	}
	for _, part := range strings.Split(m[1], ", ") {
		t, c, _ := strings.Cut(part, ".")
		if table != "" && t != table {
			return "", nil, false
		}
		table = t
		cols = append(cols, c)
	}
	return table, cols, true
}
