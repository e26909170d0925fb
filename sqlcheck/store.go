package sqlcheck

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"github.com/sqlcheck/sqlcheck/internal/logger"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage/sqlbuilder"
	"github.com/sqlcheck/sqlcheck/sqlcheck/violation"
)

// Store writes entity rows and reports constraint violations
type Store struct {
	adapter storage.Adapter
	db      *sql.DB
	model   *Model
}

// Open connects through adapter
func Open(ctx context.Context, adapter storage.Adapter, model *Model) (*Store, error) {
	db, err := adapter.Connect(ctx)
	if err != nil {
		return nil, Wrap(ErrSQL, fmt.Sprintf("connect %s", adapter.ID()), err)
	}
	return NewStore(db, adapter, model), nil
}

// NewStore wraps an open database
func NewStore(db *sql.DB, adapter storage.Adapter, model *Model) *Store {
	return &Store{adapter: adapter, db: db, model: model}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	err := s.db.Close()
	if aerr := s.adapter.Close(); err == nil {
		err = aerr
	}
	return err
}

// DDL renders the statements creating every entity's table
func DDL(adapter storage.Adapter, model *Model) ([]string, error) {
	var out []string
	for _, e := range model.Entities() {
		stmts, err := storage.CreateTableDDL(adapter, e.TableDef())
		if err != nil {
			return nil, Wrap(ErrSchema, fmt.Sprintf("ddl for %s", e.Name), err)
		}
		out = append(out, stmts...)
	}
	return out, nil
}

// Create creates every missing table and unique index inside one
// transaction, recording the constraint bodies it applied. Objects that
// already exist keep their definitions and their recorded bodies.
func (s *Store) Create(ctx context.Context) error {
	_, err := s.Apply(ctx)
	return err
}

// Apply is Create, returning the physical names of the constraints it
// created
func (s *Store) Apply(ctx context.Context) ([]string, error) {
	// column type errors surface as schema errors before any statement runs
	if _, err := DDL(s.adapter, s.model); err != nil {
		return nil, err
	}
	if err := s.adapter.Bootstrap(ctx, s.db); err != nil {
		return nil, Wrap(ErrSQL, "bootstrap", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Wrap(ErrSQL, "begin", err)
	}
	defer tx.Rollback()

	var all []string
	for _, e := range s.model.Entities() {
		t := e.TableDef()
		created, err := storage.Apply(ctx, s.adapter, tx, t)
		if err != nil {
			return nil, Wrap(ErrSQL, fmt.Sprintf("create %s", t.Name), err)
		}
		logger.Get().Debug("applied", "backend", s.adapter.Backend(), "table", t.Name, "constraints", created)
		if kept := len(t.Checks) + len(t.Uniques) - len(created); kept > 0 {
			logger.Get().Warn("existing definitions kept", "table", t.Name, "kept", kept)
		}
		all = append(all, created...)
	}
	if err := tx.Commit(); err != nil {
		return nil, Wrap(ErrSQL, "commit", err)
	}
	return all, nil
}

// Recorded returns the constraint bodies applied by Create
func (s *Store) Recorded(ctx context.Context) (map[string]string, error) {
	got, err := storage.Recorded(ctx, s.adapter, s.db)
	if err != nil {
		return nil, Wrap(ErrSQL, "read recorded constraints", err)
	}
	return got, nil
}

// Insert writes one row. A rejection by a registered constraint is
// returned as a *violation.Error wrapping the driver error.
func (s *Store) Insert(ctx context.Context, entity string, row map[string]any) error {
	e, ok := s.model.Lookup(entity)
	if !ok {
		return UnknownEntityError(entity)
	}
	cols := make([]string, 0, len(row))
	vals := make([]any, 0, len(row))
	// shape order keeps statements stable
	for _, f := range e.Shape.Fields {
		if v, ok := row[f.Name]; ok {
			cols = append(cols, f.Name)
			vals = append(vals, v)
		}
	}
	if len(cols) != len(row) {
		for name := range row {
			if _, ok := e.Shape.Field(name); !ok {
				return UnknownFieldError(e.Name, name)
			}
		}
	}
	if len(cols) == 0 {
		return SchemaError(fmt.Sprintf("insert into %s with no values", e.Name))
	}

	query, args := sqlbuilder.Insert(s.adapter.PlaceholderStyle(), e.Table, cols, vals)
	logger.Get().Debug("insert", "entity", e.Name, "sql", query)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		translated := violation.Translate(s.model.Registry(), err)
		if v, ok := violation.AsViolation(translated); ok {
			logger.Get().Debug("constraint violated", "entity", e.Name, "constraint", v.PhysicalName)
			return v
		}
		if name := violation.ConstraintName(err); name != "" {
			return Wrap(ErrConstraint, fmt.Sprintf("insert into %s rejected by undeclared constraint %s", e.Table, name), err)
		}
		return Wrap(ErrSQL, fmt.Sprintf("insert into %s", e.Table), err)
	}
	return nil
}

// InsertValue writes a struct whose type was declared with EntityOf
func (s *Store) InsertValue(ctx context.Context, v any) error {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return SchemaError(fmt.Sprintf("cannot insert %T", v))
	}
	e, ok := s.model.Lookup(rv.Type().Name())
	if !ok {
		return UnknownEntityError(rv.Type().Name())
	}
	return s.Insert(ctx, e.Name, rowOf(rv, e))
}

// rowOf reads the struct fields the entity's shape declares, honoring db
// tags
func rowOf(rv reflect.Value, e *Entity) map[string]any {
	row := map[string]any{}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("db"); ok && tag != "" {
			name = tag
		}
		if _, ok := e.Shape.Field(name); !ok {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			row[name] = nil
			continue
		}
		row[name] = reflect.Indirect(fv).Interface()
	}
	return row
}
