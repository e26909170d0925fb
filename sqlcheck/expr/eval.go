package expr

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrDependsOnParam is returned when evaluation reaches a parameter field
var ErrDependsOnParam = errors.New("expression depends on the lambda parameter")

// RegexOption mirrors the flags accepted by Regex.IsMatch
type RegexOption int

const (
	RegexNone RegexOption = iota
	RegexIgnoreCase
)

func (o RegexOption) String() string {
	if o == RegexIgnoreCase {
		return "RegexOptions.IgnoreCase"
	}
	return "RegexOptions.None"
}

// Eval interprets a parameter-independent expression
func Eval(e Expr) (any, error) {
	switch n := e.(type) {
	case Const:
		return n.Value, nil
	case Captured:
		return n.Value, nil
	case Field:
		return nil, fmt.Errorf("field %s: %w", n.Name, ErrDependsOnParam)
	case Member:
		base, err := Eval(n.Base)
		if err != nil {
			return nil, err
		}
		return member(base, n.Name)
	case Unary:
		v, err := Eval(n.Operand)
		if err != nil {
			return nil, err
		}
		return evalUnary(n.Op, v)
	case Binary:
		return evalBinary(n)
	case Conditional:
		t, err := Eval(n.Test)
		if err != nil {
			return nil, err
		}
		b, ok := t.(bool)
		if !ok {
			return nil, fmt.Errorf("conditional test is %T, not bool", t)
		}
		if b {
			return Eval(n.IfTrue)
		}
		return Eval(n.IfFalse)
	case Call:
		return evalCall(n)
	case Convert:
		v, err := Eval(n.Operand)
		if err != nil {
			return nil, err
		}
		return convert(v, n.To)
	case Switch:
		return nil, errors.New("switch expressions cannot be evaluated")
	default:
		return nil, fmt.Errorf("unknown expression type: %T", e)
	}
}

func member(base any, name string) (any, error) {
	if s, ok := base.(string); ok && name == "Length" {
		return int64(utf8.RuneCountInString(s)), nil
	}
	rv := reflect.ValueOf(base)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("member %s of nil value", name)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		f := rv.FieldByName(name)
		if !f.IsValid() || !f.CanInterface() {
			return nil, fmt.Errorf("%s has no exported member %s", rv.Type(), name)
		}
		return f.Interface(), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, fmt.Errorf("map has no key %q", name)
		}
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("cannot read member %s of %T", name, base)
}

func evalUnary(op UnaryOp, v any) (any, error) {
	switch op {
	case OpNot:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("NOT applied to %T", v)
		}
		return !b, nil
	case OpPlus:
		if _, ok := toDecimal(v); !ok {
			return nil, fmt.Errorf("unary plus applied to %T", v)
		}
		return v, nil
	case OpNegate:
		if i, ok := asInt64(v); ok {
			return -i, nil
		}
		if d, ok := toDecimal(v); ok {
			return d.Neg(), nil
		}
		return nil, fmt.Errorf("negation applied to %T", v)
	}
	return nil, fmt.Errorf("unsupported unary operator %s", op)
}

func evalBinary(n Binary) (any, error) {
	l, err := Eval(n.Left)
	if err != nil {
		return nil, err
	}

	// short-circuit
	if n.Op == OpAndAlso || n.Op == OpOrElse {
		lb, ok := l.(bool)
		if !ok {
			return nil, fmt.Errorf("%s applied to %T", n.Op, l)
		}
		if n.Op == OpAndAlso && !lb {
			return false, nil
		}
		if n.Op == OpOrElse && lb {
			return true, nil
		}
		r, err := Eval(n.Right)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(bool)
		if !ok {
			return nil, fmt.Errorf("%s applied to %T", n.Op, r)
		}
		return rb, nil
	}

	r, err := Eval(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case OpEq:
		return equal(l, r), nil
	case OpNe:
		return !equal(l, r), nil
	case OpLt, OpLe, OpGt, OpGe:
		c, err := compare(l, r)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case OpLt:
			return c < 0, nil
		case OpLe:
			return c <= 0, nil
		case OpGt:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case OpAnd, OpOr, OpXor:
		return bitwise(n.Op, l, r)
	case OpAdd:
		if ls, ok := l.(string); ok {
			rs, ok := r.(string)
			if !ok {
				return nil, fmt.Errorf("cannot add %T to string", r)
			}
			return ls + rs, nil
		}
		return arith(n.Op, l, r)
	case OpSub, OpMul, OpDiv, OpMod, OpPow:
		return arith(n.Op, l, r)
	}
	return nil, fmt.Errorf("unsupported binary operator %s", n.Op)
}

func evalCall(n Call) (any, error) {
	args := make([]any, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := Eval(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	if n.Receiver == nil {
		switch {
		case n.Type == "Regex" && n.Method == "IsMatch" && (len(args) == 2 || len(args) == 3):
			s, ok1 := args[0].(string)
			pat, ok2 := args[1].(string)
			if !ok1 || !ok2 {
				return nil, errors.New("Regex.IsMatch expects string arguments")
			}
			if len(args) == 3 && args[2] == RegexIgnoreCase {
				pat = "(?i)" + pat
			}
			return regexp.MatchString(pat, s)
		case n.Type == "strings" && (n.Method == "ToLower" || n.Method == "ToUpper") && len(args) == 1:
			return foldCase(n.Method, args[0])
		case n.Type == "" && n.Method == "len" && len(args) == 1:
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("len of %T", args[0])
			}
			return int64(utf8.RuneCountInString(s)), nil
		}
		return nil, fmt.Errorf("cannot evaluate %s.%s", n.Type, n.Method)
	}

	recv, err := Eval(n.Receiver)
	if err != nil {
		return nil, err
	}
	switch r := recv.(type) {
	case *regexp.Regexp:
		if (n.Method == "IsMatch" || n.Method == "MatchString") && len(args) == 1 {
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("%s expects a string", n.Method)
			}
			return r.MatchString(s), nil
		}
	case string:
		if (n.Method == "ToLower" || n.Method == "ToUpper") && len(args) == 0 {
			return foldCase(n.Method, r)
		}
	}
	return nil, fmt.Errorf("cannot evaluate %T.%s", recv, n.Method)
}

func foldCase(method string, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%s of %T", method, v)
	}
	// Casers carry state and must not be shared between goroutines.
	if method == "ToLower" {
		return cases.Lower(language.Und).String(s), nil
	}
	return cases.Upper(language.Und).String(s), nil
}

func convert(v any, to Type) (any, error) {
	if v == nil {
		if to.Nullable {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot convert null to %s", to)
	}
	switch to.Kind {
	case KindInt:
		if i, ok := asInt64(v); ok {
			return i, nil
		}
		if u, ok := asUint64(v); ok {
			return int64(u), nil
		}
		if d, ok := v.(decimal.Decimal); ok {
			return d.IntPart(), nil
		}
	case KindUint:
		if u, ok := asUint64(v); ok {
			return u, nil
		}
		if i, ok := asInt64(v); ok && i >= 0 {
			return uint64(i), nil
		}
	case KindDecimal:
		if d, ok := toDecimal(v); ok {
			return d, nil
		}
		if s, ok := v.(string); ok {
			return decimal.NewFromString(s)
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		if st, ok := v.(fmt.Stringer); ok {
			return st.String(), nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindUUID:
		switch x := v.(type) {
		case uuid.UUID:
			return x, nil
		case string:
			return uuid.Parse(x)
		}
	case KindTime:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("cannot convert %T to %s", v, to)
}

func asInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	}
	return 0, false
}

func asUint64(v any) (uint64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	}
	return 0, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	if d, ok := v.(decimal.Decimal); ok {
		return d, true
	}
	if i, ok := asInt64(v); ok {
		return decimal.NewFromInt(i), true
	}
	if u, ok := asUint64(v); ok {
		return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0), true
	}
	return decimal.Decimal{}, false
}

func equal(l, r any) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	if ld, ok := toDecimal(l); ok {
		if rd, ok := toDecimal(r); ok {
			return ld.Equal(rd)
		}
		return false
	}
	if lt, ok := l.(time.Time); ok {
		rt, ok := r.(time.Time)
		return ok && lt.Equal(rt)
	}
	return reflect.DeepEqual(l, r)
}

func compare(l, r any) (int, error) {
	if ld, ok := toDecimal(l); ok {
		if rd, ok := toDecimal(r); ok {
			return ld.Cmp(rd), nil
		}
	}
	switch lv := l.(type) {
	case string:
		if rv, ok := r.(string); ok {
			switch {
			case lv < rv:
				return -1, nil
			case lv > rv:
				return 1, nil
			}
			return 0, nil
		}
	case time.Time:
		if rv, ok := r.(time.Time); ok {
			return lv.Compare(rv), nil
		}
	}
	return 0, fmt.Errorf("cannot compare %T with %T", l, r)
}

func bitwise(op BinaryOp, l, r any) (any, error) {
	if lb, ok := l.(bool); ok {
		rb, ok := r.(bool)
		if !ok {
			return nil, fmt.Errorf("%s applied to bool and %T", op, r)
		}
		switch op {
		case OpAnd:
			return lb && rb, nil
		case OpOr:
			return lb || rb, nil
		default:
			return lb != rb, nil
		}
	}
	li, lok := asInt64(l)
	ri, rok := asInt64(r)
	if !lok || !rok {
		return nil, fmt.Errorf("%s applied to %T and %T", op, l, r)
	}
	switch op {
	case OpAnd:
		return li & ri, nil
	case OpOr:
		return li | ri, nil
	default:
		return li ^ ri, nil
	}
}

func arith(op BinaryOp, l, r any) (any, error) {
	_, ldec := l.(decimal.Decimal)
	_, rdec := r.(decimal.Decimal)
	li, lint := asInt64(l)
	ri, rint := asInt64(r)

	if !ldec && !rdec && lint && rint {
		switch op {
		case OpAdd:
			return li + ri, nil
		case OpSub:
			return li - ri, nil
		case OpMul:
			return li * ri, nil
		case OpDiv:
			if ri == 0 {
				return nil, errors.New("division by zero")
			}
			return li / ri, nil
		case OpMod:
			if ri == 0 {
				return nil, errors.New("division by zero")
			}
			return li % ri, nil
		case OpPow:
			return intPow(li, ri)
		}
	}

	ld, ok1 := toDecimal(l)
	rd, ok2 := toDecimal(r)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%s applied to %T and %T", op, l, r)
	}
	switch op {
	case OpAdd:
		return ld.Add(rd), nil
	case OpSub:
		return ld.Sub(rd), nil
	case OpMul:
		return ld.Mul(rd), nil
	case OpDiv:
		if rd.IsZero() {
			return nil, errors.New("division by zero")
		}
		return ld.Div(rd), nil
	case OpMod:
		if rd.IsZero() {
			return nil, errors.New("division by zero")
		}
		return ld.Mod(rd), nil
	case OpPow:
		if rd.Abs().GreaterThan(decimal.NewFromInt(maxExponent)) {
			return nil, fmt.Errorf("exponent %s out of range", rd)
		}
		return ld.Pow(rd), nil
	}
	return nil, fmt.Errorf("unsupported arithmetic operator %s", op)
}

// maxExponent bounds decimal powers
const maxExponent = 1024

// intPow raises base to exp, failing on int64 overflow
func intPow(base, exp int64) (any, error) {
	if exp < 0 {
		return nil, errors.New("negative integer exponent")
	}
	switch base {
	case 0:
		if exp == 0 {
			return int64(1), nil
		}
		return int64(0), nil
	case 1:
		return int64(1), nil
	case -1:
		if exp%2 == 0 {
			return int64(1), nil
		}
		return int64(-1), nil
	}
	// |base| >= 2 overflows past 2**63
	if exp < 64 {
		out := new(big.Int).Exp(big.NewInt(base), big.NewInt(exp), nil)
		if out.IsInt64() {
			return out.Int64(), nil
		}
	}
	return nil, fmt.Errorf("%d ** %d overflows int64", base, exp)
}
