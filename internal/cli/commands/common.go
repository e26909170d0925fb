package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sqlcheck/sqlcheck/sqlcheck"
	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
	"github.com/sqlcheck/sqlcheck/sqlcheck/violation"
)

// Exit codes
const (
	exitError     = 1
	exitUsage     = 2
	exitViolation = 3
)

// errViolations marks a run that completed but saw constraint violations
var errViolations = errors.New("constraint violations reported")

// ExitCode maps a command error onto the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errViolations), violation.IsViolation(err):
		return exitViolation
	case sqlcheck.IsKind(err, sqlcheck.ErrSchema),
		sqlcheck.IsKind(err, sqlcheck.ErrPredicateParse),
		sqlcheck.IsKind(err, sqlcheck.ErrUnsupported),
		sqlcheck.IsKind(err, sqlcheck.ErrUnknownField),
		sqlcheck.IsKind(err, sqlcheck.ErrUnknownEntity):
		return exitUsage
	}
	return exitError
}

// modelFlags selects a model file
type modelFlags struct {
	path string
}

func (f *modelFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "model", "m", "", "model file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("model")
}

func (f *modelFlags) load() (*sqlcheck.Model, error) {
	return sqlcheck.LoadModelFile(f.path, nil)
}

// shapeFlags select the entity a single predicate is written against:
// either one from a model file, or an ad hoc one built from --field flags
type shapeFlags struct {
	model  string
	entity string
	fields []string
	env    []string
}

func (f *shapeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "model file declaring the entity")
	cmd.Flags().StringVarP(&f.entity, "entity", "e", "Row", "entity name")
	cmd.Flags().StringArrayVarP(&f.fields, "field", "f", nil, "field as name:type, type may end in ? (repeatable)")
	cmd.Flags().StringArrayVar(&f.env, "env", nil, "captured value as name=value, value in YAML syntax (repeatable)")
}

func (f *shapeFlags) resolve() (*sqlcheck.Entity, error) {
	env, err := parseEnv(f.env)
	if err != nil {
		return nil, err
	}

	if f.model != "" {
		if len(f.fields) > 0 {
			return nil, sqlcheck.SchemaError("--field cannot be combined with --model")
		}
		m, err := sqlcheck.LoadModelFile(f.model, nil)
		if err != nil {
			return nil, err
		}
		e, ok := m.Lookup(f.entity)
		if !ok {
			return nil, sqlcheck.UnknownEntityError(f.entity)
		}
		for k, v := range env {
			if e.Env == nil {
				e.Env = expr.Env{}
			}
			e.Env[k] = v
		}
		return e, nil
	}

	defs := make([]expr.FieldDef, 0, len(f.fields))
	for _, def := range f.fields {
		name, typ, ok := strings.Cut(def, ":")
		if !ok || name == "" {
			return nil, sqlcheck.SchemaError(fmt.Sprintf("invalid --field %q (expected name:type)", def))
		}
		t, err := expr.ParseType(typ)
		if err != nil {
			return nil, sqlcheck.Wrap(sqlcheck.ErrSchema, fmt.Sprintf("invalid --field %q", def), err)
		}
		defs = append(defs, expr.FieldDef{Name: name, Type: t})
	}
	e, err := sqlcheck.NewModel(nil).Entity(f.entity, expr.NewShape(f.entity, defs...))
	if err != nil {
		return nil, err
	}
	e.Env = env
	return e, nil
}

func parseEnv(pairs []string) (expr.Env, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := expr.Env{}
	for _, kv := range pairs {
		k, raw, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, sqlcheck.SchemaError(fmt.Sprintf("invalid --env %q (expected name=value)", kv))
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, sqlcheck.Wrap(sqlcheck.ErrSchema, fmt.Sprintf("invalid --env %q", kv), err)
		}
		env[k] = v
	}
	return env, nil
}
