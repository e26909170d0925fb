package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
)

const caseInsensitiveFlag = "(?i)"

func (c *Compiler) visitCall(n expr.Call) error {
	if !expr.DependsOnParam(n) {
		return c.fold(n)
	}

	switch {
	case isStatic(n, "Regex", "IsMatch") && (len(n.Args) == 2 || len(n.Args) == 3):
		pattern, err := constString(n.Args[1], "Regex.IsMatch pattern")
		if err != nil {
			return err
		}
		ignoreCase := false
		if len(n.Args) == 3 {
			opt, err := expr.Eval(n.Args[2])
			if err != nil {
				return unsupported(ErrUnsupportedMethod, "Regex.IsMatch options must be constant")
			}
			o, ok := opt.(expr.RegexOption)
			if !ok {
				return unsupported(ErrUnsupportedMethod, "Regex.IsMatch options of type %T", opt)
			}
			ignoreCase = o == expr.RegexIgnoreCase
		}
		return c.match(n.Args[0], pattern, ignoreCase)

	case n.Receiver != nil && (n.Method == "IsMatch" || n.Method == "MatchString") && len(n.Args) == 1:
		if expr.DependsOnParam(n.Receiver) {
			return unsupported(ErrUnsupportedMethod, "regular expression must not depend on the parameter")
		}
		recv, err := expr.Eval(n.Receiver)
		if err != nil {
			return unsupported(ErrUnsupportedMethod, "cannot evaluate receiver of %s: %v", n.Method, err)
		}
		re, ok := recv.(*regexp.Regexp)
		if !ok {
			return unsupported(ErrUnsupportedMethod, "%T.%s", recv, n.Method)
		}
		return c.match(n.Args[0], re.String(), false)

	case n.Receiver != nil && isCaseFold(n.Method) && len(n.Args) == 0 && isString(n.Receiver):
		return c.function(caseFoldFunc(n.Method), n.Receiver)

	case isStatic(n, "strings", n.Method) && isCaseFold(n.Method) && len(n.Args) == 1 && isString(n.Args[0]):
		return c.function(caseFoldFunc(n.Method), n.Args[0])

	case isStatic(n, "", "len") && len(n.Args) == 1 && isString(n.Args[0]):
		return c.function("char_length", n.Args[0])
	}

	return unsupported(ErrUnsupportedMethod, "%s.%s", receiverType(n), n.Method)
}

// match emits `<operand> ~ '<pattern>'`, or ~* when matching ignores case.
// A leading (?i) flag in the pattern also selects ~*.
func (c *Compiler) match(operand expr.Expr, pattern string, ignoreCase bool) error {
	if rest, ok := strings.CutPrefix(pattern, caseInsensitiveFlag); ok {
		pattern = rest
		ignoreCase = true
	}
	op := "~"
	if ignoreCase {
		op = "~*"
	}
	if err := c.visitBracketed(operand, Precedence(operand) < PrecComparison); err != nil {
		return err
	}
	c.emit(op, singleQuote(pattern))
	return nil
}

// function emits name(operand)
func (c *Compiler) function(name string, operand expr.Expr) error {
	c.emit(name + "(")
	if err := c.visitBracketed(operand, Precedence(operand) < PrecComparison); err != nil {
		return err
	}
	c.emit(")")
	return nil
}

// rendersAsFunction reports whether a call compiles to a self-delimited form
func rendersAsFunction(n expr.Call) bool {
	if !expr.DependsOnParam(n) {
		return true
	}
	return isCaseFold(n.Method) || isStatic(n, "", "len")
}

func isStatic(n expr.Call, typ, method string) bool {
	return n.Receiver == nil && n.Type == typ && n.Method == method
}

func isCaseFold(method string) bool {
	return method == "ToLower" || method == "ToUpper"
}

func caseFoldFunc(method string) string {
	if method == "ToLower" {
		return "lower"
	}
	return "upper"
}

func isString(e expr.Expr) bool {
	return expr.TypeOf(e).Kind == expr.KindString
}

func constString(e expr.Expr, what string) (string, error) {
	if expr.DependsOnParam(e) {
		return "", unsupported(ErrUnsupportedMethod, "%s must not depend on the parameter", what)
	}
	v, err := expr.Eval(e)
	if err != nil {
		return "", unsupported(ErrUnsupportedMethod, "cannot evaluate %s: %v", what, err)
	}
	s, ok := v.(string)
	if !ok {
		return "", unsupported(ErrUnsupportedMethod, "%s is %T, not string", what, v)
	}
	return s, nil
}

func receiverType(n expr.Call) string {
	if n.Receiver == nil {
		if n.Type == "" {
			return "builtin"
		}
		return n.Type
	}
	if !expr.DependsOnParam(n.Receiver) {
		if v, err := expr.Eval(n.Receiver); err == nil {
			return fmt.Sprintf("%T", v)
		}
	}
	return expr.TypeOf(n.Receiver).String()
}
