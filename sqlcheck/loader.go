package sqlcheck

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sqlcheck/sqlcheck/sqlcheck/constraint"
	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
)

// ModelFile is the on-disk form of a model. JSON files decode too.
type ModelFile struct {
	Entities []EntityFile `yaml:"entities" json:"entities"`
}

type EntityFile struct {
	Name   string         `yaml:"name" json:"name"`
	Table  string         `yaml:"table,omitempty" json:"table,omitempty"`
	Fields []FieldFile    `yaml:"fields" json:"fields"`
	Env    map[string]any `yaml:"env,omitempty" json:"env,omitempty"`
	Checks []CheckFile    `yaml:"checks,omitempty" json:"checks,omitempty"`
	Unique []UniqueFile   `yaml:"unique,omitempty" json:"unique,omitempty"`
}

type FieldFile struct {
	Name string `yaml:"name" json:"name"`
	// Type is a kind name, with a trailing ? for nullable
	Type string `yaml:"type" json:"type"`
}

type CheckFile struct {
	Name      string `yaml:"name" json:"name"`
	Predicate string `yaml:"predicate" json:"predicate"`
	Message   string `yaml:"message,omitempty" json:"message,omitempty"`
}

type UniqueFile struct {
	Name    string   `yaml:"name" json:"name"`
	Keys    []string `yaml:"keys" json:"keys"`
	Message string   `yaml:"message,omitempty" json:"message,omitempty"`
}

// LoadModelFile reads and declares the model at path
func LoadModelFile(path string, reg *constraint.Registry) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Wrap(ErrIO, "read model file", err)
	}
	return ParseModel(data, reg)
}

// ParseModel decodes a YAML or JSON model and declares every entity and
// constraint in it
func ParseModel(data []byte, reg *constraint.Registry) (*Model, error) {
	var mf ModelFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, Wrap(ErrSchema, "decode model", err)
	}
	if len(mf.Entities) == 0 {
		return nil, SchemaError("model must declare at least one entity")
	}
	m := NewModel(reg)
	for _, ef := range mf.Entities {
		if err := declare(m, ef); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func declare(m *Model, ef EntityFile) error {
	fields := make([]expr.FieldDef, 0, len(ef.Fields))
	seen := map[string]bool{}
	for _, f := range ef.Fields {
		if !validNameRe.MatchString(f.Name) {
			return SchemaError(fmt.Sprintf("invalid field name on %s: %s", ef.Name, f.Name))
		}
		if seen[f.Name] {
			return SchemaError(fmt.Sprintf("duplicate field %s on %s", f.Name, ef.Name))
		}
		seen[f.Name] = true
		t, err := expr.ParseType(f.Type)
		if err != nil {
			return &Error{Kind: ErrSchema, Message: fmt.Sprintf("field type on %s", ef.Name), Field: f.Name, Cause: err}
		}
		fields = append(fields, expr.FieldDef{Name: f.Name, Type: t})
	}

	e, err := m.Entity(ef.Name, expr.NewShape(ef.Name, fields...))
	if err != nil {
		return err
	}
	e.WithTable(ef.Table)
	if len(ef.Env) > 0 {
		e.Env = expr.Env(ef.Env)
	}

	for _, c := range ef.Checks {
		if err := e.CheckSource(c.Name, c.Predicate, c.Message); err != nil {
			return err
		}
	}
	for _, u := range ef.Unique {
		if err := e.UniqueSource(u.Name, u.Message, u.Keys...); err != nil {
			return err
		}
	}
	return nil
}
