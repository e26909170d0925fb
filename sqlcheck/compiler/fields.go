package compiler

import "github.com/sqlcheck/sqlcheck/sqlcheck/expr"

// Fields returns the parameter fields a predicate reads, de-duplicated, in
// order of first occurrence. It agrees with Compile on what is a column.
func Fields(l *expr.Lambda) []string {
	if l == nil {
		return nil
	}
	x := &extractor{seen: make(map[string]bool)}
	x.walk(l.Body)
	return x.fields
}

type extractor struct {
	fields []string
	seen   map[string]bool
}

func (x *extractor) walk(e expr.Expr) {
	switch n := e.(type) {
	case expr.Field:
		if !x.seen[n.Name] {
			x.seen[n.Name] = true
			x.fields = append(x.fields, n.Name)
		}
	case expr.Member:
		x.walk(n.Base)
	case expr.Unary:
		x.walk(n.Operand)
	case expr.Binary:
		x.walk(n.Left)
		x.walk(n.Right)
	case expr.Conditional:
		x.walk(n.Test)
		x.walk(n.IfTrue)
		x.walk(n.IfFalse)
	case expr.Call:
		if n.Receiver != nil {
			x.walk(n.Receiver)
		}
		for _, a := range n.Args {
			x.walk(a)
		}
	case expr.Convert:
		x.walk(n.Operand)
	case expr.Switch:
		x.walk(n.Subject)
		for _, c := range n.Cases {
			for _, v := range c.Values {
				x.walk(v)
			}
			x.walk(c.Body)
		}
		if n.Default != nil {
			x.walk(n.Default)
		}
	}
}
