// Package pgcheck checks compiled constraint bodies against the Postgres
// parser.
package pgcheck

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"golang.org/x/sync/errgroup"

	"github.com/sqlcheck/sqlcheck/sqlcheck/constraint"
)

func parseTargets(sql string) ([]*pg_query.Node, error) {
	result, err := pg_query.Parse("SELECT " + sql)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", sql, err)
	}
	if len(result.Stmts) != 1 {
		return nil, fmt.Errorf("parse %q: expected a single expression list", sql)
	}
	sel := result.Stmts[0].Stmt.GetSelectStmt()
	if sel == nil || len(sel.FromClause) > 0 || sel.WhereClause != nil {
		return nil, fmt.Errorf("parse %q: not a bare expression list", sql)
	}
	var out []*pg_query.Node
	for _, t := range sel.TargetList {
		if rt := t.GetResTarget(); rt != nil && rt.Val != nil {
			out = append(out, rt.Val)
		}
	}
	return out, nil
}

// Validate reports whether sql is a syntactically valid Postgres
// expression list
func Validate(sql string) error {
	_, err := parseTargets(sql)
	return err
}

// Columns returns the column references in sql, first occurrence first
func Columns(sql string) ([]string, error) {
	targets, err := parseTargets(sql)
	if err != nil {
		return nil, err
	}
	var cols []string
	for _, t := range targets {
		walk(t, func(name string) {
			if !slices.Contains(cols, name) {
				cols = append(cols, name)
			}
		})
	}
	return cols, nil
}

func walk(node *pg_query.Node, visit func(string)) {
	if node == nil {
		return
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_ColumnRef:
		var parts []string
		for _, f := range n.ColumnRef.Fields {
			if s := f.GetString_(); s != nil {
				parts = append(parts, s.Sval)
			}
		}
		if len(parts) > 0 {
			visit(strings.Join(parts, "."))
		}
	case *pg_query.Node_AExpr:
		walk(n.AExpr.Lexpr, visit)
		walk(n.AExpr.Rexpr, visit)
	case *pg_query.Node_BoolExpr:
		for _, a := range n.BoolExpr.Args {
			walk(a, visit)
		}
	case *pg_query.Node_FuncCall:
		for _, a := range n.FuncCall.Args {
			walk(a, visit)
		}
	case *pg_query.Node_TypeCast:
		walk(n.TypeCast.Arg, visit)
	case *pg_query.Node_CaseExpr:
		walk(n.CaseExpr.Arg, visit)
		for _, a := range n.CaseExpr.Args {
			walk(a, visit)
		}
		walk(n.CaseExpr.Defresult, visit)
	case *pg_query.Node_CaseWhen:
		walk(n.CaseWhen.Expr, visit)
		walk(n.CaseWhen.Result, visit)
	case *pg_query.Node_NullTest:
		walk(n.NullTest.Arg, visit)
	case *pg_query.Node_BooleanTest:
		walk(n.BooleanTest.Arg, visit)
	case *pg_query.Node_List:
		for _, item := range n.List.Items {
			walk(item, visit)
		}
	}
}

// Normalize deparses sql into Postgres' canonical spelling, so two bodies
// that differ only in formatting compare equal
func Normalize(sql string) (string, error) {
	result, err := pg_query.Parse("SELECT " + sql)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", sql, err)
	}
	deparsed, err := pg_query.Deparse(result)
	if err != nil {
		return "", fmt.Errorf("deparse %q: %w", sql, err)
	}
	after, ok := strings.CutPrefix(deparsed, "SELECT ")
	if !ok {
		return "", fmt.Errorf("deparse %q: unexpected output %q", sql, deparsed)
	}
	return strings.TrimSpace(after), nil
}

// Result is the outcome of checking one constraint
type Result struct {
	PhysicalName string
	Normalized   string
	Columns      []string
	Err          error
}

// Check validates one constraint body and compares the columns Postgres
// sees with the fields recorded for it
func Check(m constraint.Metadata) Result {
	r := Result{PhysicalName: m.PhysicalName}
	cols, err := Columns(m.SQL)
	if err != nil {
		r.Err = err
		return r
	}
	r.Columns = cols
	if r.Normalized, err = Normalize(m.SQL); err != nil {
		r.Err = err
		return r
	}
	for _, c := range cols {
		if !slices.Contains(m.Fields, c) {
			r.Err = fmt.Errorf("%s: column %q is not a recorded field", m.PhysicalName, c)
			return r
		}
	}
	for _, f := range m.Fields {
		if !slices.Contains(cols, f) {
			r.Err = fmt.Errorf("%s: recorded field %q is not referenced", m.PhysicalName, f)
			return r
		}
	}
	return r
}

// VerifyAll checks every constraint concurrently. Per-constraint problems
// are reported in the results; the error is non-nil only if ctx ends first.
func VerifyAll(ctx context.Context, items []constraint.Metadata) ([]Result, error) {
	results := make([]Result, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Check(m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Failed returns the results that carry an error
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
