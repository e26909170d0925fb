package compiler

import (
	"reflect"
	"strings"

	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
)

// Compiler renders one predicate into SQL tokens. A Compiler is used for a
// single call; Compile and CompileKey create a fresh one each time.
type Compiler struct {
	tokens []string
}

// Compile renders a boolean predicate as the body of a CHECK constraint
func Compile(l *expr.Lambda) (string, error) {
	if l == nil || l.Body == nil {
		return "", unsupported(ErrUnsupportedNode, "empty predicate")
	}
	switch t := expr.TypeOf(l.Body); t.Kind {
	case expr.KindBool, expr.KindUnknown:
	default:
		return "", unsupported(ErrNotBoolean, "body has type %s", t)
	}
	return compile(l.Body)
}

// CompileKey renders a derived-value expression, such as a unique index key
func CompileKey(l *expr.Lambda) (string, error) {
	if l == nil || l.Body == nil {
		return "", unsupported(ErrUnsupportedNode, "empty key expression")
	}
	return compile(l.Body)
}

func compile(e expr.Expr) (string, error) {
	c := &Compiler{}
	if err := c.visit(e); err != nil {
		return "", err
	}
	return c.String(), nil
}

// String joins the emitted tokens with single spaces, leaving no space
// just inside parentheses.
func (c *Compiler) String() string {
	var sb strings.Builder
	for i, tok := range c.tokens {
		if i > 0 && tok != ")" && !strings.HasSuffix(c.tokens[i-1], "(") {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok)
	}
	return sb.String()
}

func (c *Compiler) emit(tokens ...string) {
	c.tokens = append(c.tokens, tokens...)
}

// visitBracketed visits e, wrapping it in parentheses when brackets is set
func (c *Compiler) visitBracketed(e expr.Expr, brackets bool) error {
	if brackets {
		c.emit("(")
	}
	if err := c.visit(e); err != nil {
		return err
	}
	if brackets {
		c.emit(")")
	}
	return nil
}

func (c *Compiler) visit(e expr.Expr) error {
	switch n := e.(type) {
	case expr.Const:
		return c.literal(n.Value)

	case expr.Captured:
		return c.literal(n.Value)

	case expr.Field:
		c.emit(doubleQuote(n.Name))
		return nil

	case expr.Member:
		return c.visitMember(n)

	case expr.Unary:
		switch n.Op {
		case expr.OpNot:
			c.emit("NOT")
		case expr.OpNegate:
			c.emit("-")
		default:
			return unsupported(ErrUnsupportedOperator, "unary %s", n.Op)
		}
		return c.visitBracketed(n.Operand, Precedence(n.Operand) < Precedence(n))

	case expr.Binary:
		return c.visitBinary(n)

	case expr.Conditional:
		c.emit("CASE WHEN")
		if err := c.visit(n.Test); err != nil {
			return err
		}
		c.emit("THEN")
		if err := c.visit(n.IfTrue); err != nil {
			return err
		}
		c.emit("ELSE")
		if err := c.visit(n.IfFalse); err != nil {
			return err
		}
		c.emit("END")
		return nil

	case expr.Call:
		return c.visitCall(n)

	case expr.Convert:
		return c.visit(n.Operand)

	case expr.Switch:
		return &Error{Err: ErrUnsupportedSwitch}

	default:
		return unsupported(ErrUnsupportedNode, "%T", e)
	}
}

func (c *Compiler) literal(v any) error {
	lit, err := EncodeLiteral(v)
	if err != nil {
		return err
	}
	c.emit(lit)
	return nil
}

// fold evaluates a parameter-independent subtree and emits it as a literal
func (c *Compiler) fold(e expr.Expr) error {
	v, err := expr.Eval(e)
	if err != nil {
		return unsupported(ErrUnsupportedNode, "cannot evaluate constant: %v", err)
	}
	return c.literal(v)
}

func (c *Compiler) visitMember(n expr.Member) error {
	if !expr.DependsOnParam(n) {
		return c.fold(n)
	}
	if n.Name == "Length" && expr.TypeOf(n.Base).Kind == expr.KindString {
		return c.function("char_length", n.Base)
	}
	return unsupported(ErrUnsupportedNode, "member %s of %s", n.Name, expr.TypeOf(n.Base))
}

func (c *Compiler) visitBinary(n expr.Binary) error {
	op, err := c.binaryOperator(n)
	if err != nil {
		return err
	}
	prec := Precedence(n)

	if err := c.visitBracketed(n.Left, Precedence(n.Left) < prec); err != nil {
		return err
	}
	c.emit(op)
	return c.visitBracketed(n.Right, Precedence(n.Right) <= prec)
}

func (c *Compiler) binaryOperator(n expr.Binary) (string, error) {
	switch n.Op {
	case expr.OpAnd:
		return "&", nil
	case expr.OpOr:
		return "|", nil
	case expr.OpAndAlso:
		return "AND", nil
	case expr.OpOrElse:
		return "OR", nil
	case expr.OpEq:
		if isNull(n.Right) {
			return "IS", nil
		}
		return "=", nil
	case expr.OpNe:
		if isNull(n.Right) {
			return "IS NOT", nil
		}
		return "<>", nil
	case expr.OpLt:
		return "<", nil
	case expr.OpLe:
		return "<=", nil
	case expr.OpGt:
		return ">", nil
	case expr.OpGe:
		return ">=", nil
	case expr.OpAdd:
		l, r := expr.TypeOf(n.Left).Kind, expr.TypeOf(n.Right).Kind
		switch {
		case l == expr.KindString && r == expr.KindString:
			return "||", nil
		case l == expr.KindString || r == expr.KindString:
			return "", unsupported(ErrUnsupportedOperator, "Add of %s and %s", l, r)
		}
		return "+", nil
	case expr.OpSub:
		return "-", nil
	case expr.OpMul:
		return "*", nil
	case expr.OpDiv:
		return "/", nil
	case expr.OpMod:
		return "%", nil
	case expr.OpPow:
		return "^", nil
	}
	return "", unsupported(ErrUnsupportedOperator, "binary %s", n.Op)
}

// isNull reports whether e renders as NULL, looking through conversions
// and folding parameter-free members
func isNull(e expr.Expr) bool {
	for {
		switch n := e.(type) {
		case expr.Convert:
			e = n.Operand
		case expr.Const:
			return nullValue(n.Value)
		case expr.Captured:
			return nullValue(n.Value)
		case expr.Member:
			if expr.DependsOnParam(n) {
				return false
			}
			v, err := expr.Eval(n)
			return err == nil && nullValue(v)
		default:
			return false
		}
	}
}

// nullValue matches the values EncodeLiteral writes as NULL
func nullValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
