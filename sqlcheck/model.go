package sqlcheck

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"

	"github.com/sqlcheck/sqlcheck/internal/logger"
	"github.com/sqlcheck/sqlcheck/sqlcheck/compiler"
	"github.com/sqlcheck/sqlcheck/sqlcheck/constraint"
	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage"
)

var validNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CheckName returns the physical name of a check constraint
func CheckName(entity, name string) string {
	return fmt.Sprintf("CK_%s_%s", entity, name)
}

// UniqueName returns the physical name of a unique index
func UniqueName(entity, name string) string {
	return fmt.Sprintf("IX_%s_%s", entity, name)
}

// DefaultCheckMessage is the message used when a check is declared without one
func DefaultCheckMessage(entity, name string) string {
	return fmt.Sprintf("Check constraint '%s' violated while updating entry of type '%s'.", name, entity)
}

// DefaultUniqueMessage is the message used when a unique key is declared without one
func DefaultUniqueMessage(entity, name string) string {
	return fmt.Sprintf("Unique constraint '%s' violated while updating entry of type '%s'.", name, entity)
}

// TableName derives a table name from an entity name, e.g. Person -> people
func TableName(entity string) string {
	return inflect.Tableize(entity)
}

// Model holds declared entities and registers their constraints
type Model struct {
	mu       sync.Mutex
	reg      *constraint.Registry
	entities []*Entity
}

// NewModel creates a model registering into reg, or a fresh registry when
// reg is nil
func NewModel(reg *constraint.Registry) *Model {
	if reg == nil {
		reg = constraint.NewRegistry()
	}
	return &Model{reg: reg}
}

func (m *Model) Registry() *constraint.Registry {
	return m.reg
}

// Entity declares an entity, or returns the existing one with that name
func (m *Model) Entity(name string, shape *expr.Shape) (*Entity, error) {
	if !validNameRe.MatchString(name) {
		return nil, SchemaError(fmt.Sprintf("invalid entity name: %s (must match %s)", name, validNameRe))
	}
	if shape == nil || len(shape.Fields) == 0 {
		return nil, SchemaError(fmt.Sprintf("entity %s must have at least one field", name))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entities {
		if e.Name == name {
			return e, nil
		}
	}
	e := &Entity{Name: name, Table: TableName(name), Shape: shape, model: m}
	m.entities = append(m.entities, e)
	return e, nil
}

// EntityOf declares an entity for the struct type T
func EntityOf[T any](m *Model) (*Entity, error) {
	shape, err := expr.ShapeOf[T]()
	if err != nil {
		return nil, Wrap(ErrSchema, "derive shape", err)
	}
	return m.Entity(shape.Name, shape)
}

// Lookup returns a declared entity by name
func (m *Model) Lookup(name string) (*Entity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entities {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Entities returns declared entities in declaration order
func (m *Model) Entities() []*Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entities)
}

// Entity is one record type and the constraints declared on it
type Entity struct {
	Name  string
	Table string
	Shape *expr.Shape

	// Env holds captured values available to predicates given as source
	Env expr.Env

	model       *Model
	constraints []constraint.Metadata
}

// WithTable overrides the derived table name
func (e *Entity) WithTable(table string) *Entity {
	if table != "" {
		e.Table = table
	}
	return e
}

// Check compiles pred and registers it as a check constraint. An empty
// message selects the default one.
func (e *Entity) Check(name string, pred *expr.Lambda, message string) error {
	if err := e.validName(name); err != nil {
		return err
	}
	sql, err := compiler.Compile(pred)
	if err != nil {
		return declarationError(CheckName(e.Name, name), err)
	}
	if message == "" {
		message = DefaultCheckMessage(e.Name, name)
	}
	e.register(constraint.Metadata{
		Kind:         constraint.KindCheck,
		LogicalName:  name,
		PhysicalName: CheckName(e.Name, name),
		OwnerType:    e.Name,
		Message:      message,
		Fields:       compiler.Fields(pred),
		Table:        e.Table,
		SQL:          sql,
	})
	return nil
}

// CheckSource parses src against the entity's shape and registers it
func (e *Entity) CheckSource(name, src, message string) error {
	pred, err := e.Parse(src)
	if err != nil {
		return err
	}
	return e.Check(name, pred, message)
}

// Unique compiles each key and registers a unique index over them
func (e *Entity) Unique(name string, message string, keys ...*expr.Lambda) error {
	if err := e.validName(name); err != nil {
		return err
	}
	if len(keys) == 0 {
		return SchemaError(fmt.Sprintf("unique %s on %s has no keys", name, e.Name))
	}
	parts := make([]string, 0, len(keys))
	var fields []string
	for _, k := range keys {
		sql, err := compiler.CompileKey(k)
		if err != nil {
			return declarationError(UniqueName(e.Name, name), err)
		}
		parts = append(parts, sql)
		for _, f := range compiler.Fields(k) {
			if !slices.Contains(fields, f) {
				fields = append(fields, f)
			}
		}
	}
	if message == "" {
		message = DefaultUniqueMessage(e.Name, name)
	}
	e.register(constraint.Metadata{
		Kind:         constraint.KindUnique,
		LogicalName:  name,
		PhysicalName: UniqueName(e.Name, name),
		OwnerType:    e.Name,
		Message:      message,
		Fields:       fields,
		Table:        e.Table,
		SQL:          strings.Join(parts, ", "),
	})
	return nil
}

// UniqueSource parses each key source and registers a unique index
func (e *Entity) UniqueSource(name, message string, srcs ...string) error {
	keys := make([]*expr.Lambda, 0, len(srcs))
	for _, src := range srcs {
		k, err := e.Parse(src)
		if err != nil {
			return err
		}
		keys = append(keys, k)
	}
	return e.Unique(name, message, keys...)
}

// Parse parses src against the entity's shape and captured values
func (e *Entity) Parse(src string) (*expr.Lambda, error) {
	l, err := expr.Parse(src, e.Shape, e.Env)
	if err != nil {
		kind := ErrPredicateParse
		if errors.Is(err, expr.ErrUnknownField) {
			kind = ErrUnknownField
		}
		return nil, &Error{Kind: kind, Message: fmt.Sprintf("parse %q on %s", src, e.Name), Cause: err}
	}
	return l, nil
}

// Compile renders src as a CHECK body without registering it, returning
// the fields it references
func (e *Entity) Compile(src string) (string, []string, error) {
	return e.compileWith(src, compiler.Compile)
}

// CompileKey is like Compile for a unique key expression
func (e *Entity) CompileKey(src string) (string, []string, error) {
	return e.compileWith(src, compiler.CompileKey)
}

// Fields parses src and returns the fields it references. Predicates the
// compiler rejects still report their fields.
func (e *Entity) Fields(src string) ([]string, error) {
	l, err := e.Parse(src)
	if err != nil {
		return nil, err
	}
	return compiler.Fields(l), nil
}

func (e *Entity) compileWith(src string, compile func(*expr.Lambda) (string, error)) (string, []string, error) {
	l, err := e.Parse(src)
	if err != nil {
		return "", nil, err
	}
	sql, err := compile(l)
	if err != nil {
		return "", nil, compileError(fmt.Sprintf("compile %q on %s", src, e.Name), err)
	}
	return sql, compiler.Fields(l), nil
}

func (e *Entity) validName(name string) error {
	if !validNameRe.MatchString(name) {
		return SchemaError(fmt.Sprintf("invalid constraint name on %s: %s (must match %s)", e.Name, name, validNameRe))
	}
	return nil
}

func (e *Entity) register(md constraint.Metadata) {
	e.model.mu.Lock()
	// a redeclared name replaces the earlier one
	e.constraints = slices.DeleteFunc(e.constraints, func(c constraint.Metadata) bool {
		return c.PhysicalName == md.PhysicalName
	})
	e.constraints = append(e.constraints, md)
	e.model.mu.Unlock()

	e.model.reg.Register(md)
	logger.Get().Debug("registered constraint",
		"entity", e.Name,
		"name", md.PhysicalName,
		"kind", md.Kind,
		"fields", md.Fields,
		"sql", md.SQL,
	)
}

// Constraints returns the entity's constraints in declaration order
func (e *Entity) Constraints() []constraint.Metadata {
	e.model.mu.Lock()
	defer e.model.mu.Unlock()
	return slices.Clone(e.constraints)
}

// TableDef describes the entity's table for DDL generation
func (e *Entity) TableDef() storage.Table {
	t := storage.Table{Name: e.Table}
	for _, f := range e.Shape.Fields {
		t.Columns = append(t.Columns, storage.Column{Name: f.Name, Type: f.Type})
	}
	for _, c := range e.Constraints() {
		switch c.Kind {
		case constraint.KindCheck:
			t.Checks = append(t.Checks, storage.Check{Name: c.PhysicalName, SQL: c.SQL})
		case constraint.KindUnique:
			t.Uniques = append(t.Uniques, storage.Unique{Name: c.PhysicalName, Keys: c.SQL})
		}
	}
	return t
}
