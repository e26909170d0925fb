package expr

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the static kind of a value
type Kind int

const (
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindUint
	KindDecimal
	KindString
	KindUUID
	KindTime
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindUUID:
		return "uuid"
	case KindTime:
		return "time"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name as written in model files
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "bool", "boolean":
		return KindBool, nil
	case "int", "int8", "int16", "int32", "int64", "integer":
		return KindInt, nil
	case "uint", "uint8", "uint16", "uint32", "uint64", "byte":
		return KindUint, nil
	case "decimal", "numeric":
		return KindDecimal, nil
	case "string", "text":
		return KindString, nil
	case "uuid":
		return KindUUID, nil
	case "time", "date", "datetime", "timestamp":
		return KindTime, nil
	default:
		return KindUnknown, fmt.Errorf("unknown kind %q", s)
	}
}

// Type is a kind plus nullability
type Type struct {
	Kind     Kind
	Nullable bool
}

func (t Type) String() string {
	if t.Nullable {
		return t.Kind.String() + "?"
	}
	return t.Kind.String()
}

// ParseType parses "kind" or "kind?" (nullable)
func ParseType(s string) (Type, error) {
	nullable := strings.HasSuffix(s, "?")
	k, err := ParseKind(strings.TrimSuffix(s, "?"))
	if err != nil {
		return Type{}, err
	}
	return Type{Kind: k, Nullable: nullable}, nil
}

// IsNumeric reports whether the kind supports arithmetic
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindUint || k == KindDecimal
}

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	timeType    = reflect.TypeOf(time.Time{})
)

// TypeFor maps a Go type onto a Type
func TypeFor(rt reflect.Type) Type {
	if rt == nil {
		return Type{Kind: KindNull, Nullable: true}
	}
	if rt.Kind() == reflect.Pointer {
		t := TypeFor(rt.Elem())
		t.Nullable = true
		return t
	}
	switch rt {
	case decimalType:
		return Type{Kind: KindDecimal}
	case uuidType:
		return Type{Kind: KindUUID}
	case timeType:
		return Type{Kind: KindTime}
	}
	switch rt.Kind() {
	case reflect.Bool:
		return Type{Kind: KindBool}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Type{Kind: KindInt}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Type{Kind: KindUint}
	case reflect.String:
		return Type{Kind: KindString}
	}
	return Type{Kind: KindUnknown}
}

// TypeOfValue returns the Type of a runtime value
func TypeOfValue(v any) Type {
	if v == nil {
		return Type{Kind: KindNull, Nullable: true}
	}
	return TypeFor(reflect.TypeOf(v))
}

// FieldDef declares one field of a record shape
type FieldDef struct {
	Name string
	Type Type
}

// Shape describes the record type a predicate is written against
type Shape struct {
	Name   string
	Fields []FieldDef
}

// NewShape creates a shape from explicit field definitions
func NewShape(name string, fields ...FieldDef) *Shape {
	return &Shape{Name: name, Fields: fields}
}

// Field looks up a field by its declared name
func (s *Shape) Field(name string) (FieldDef, bool) {
	if s == nil {
		return FieldDef{}, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// FieldNames returns field names in declaration order
func (s *Shape) FieldNames() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	return out
}

// ShapeFor derives a shape from a struct type. Exported fields are used
// verbatim unless a `db` tag renames them; `db:"-"` skips a field.
func ShapeFor(rt reflect.Type) (*Shape, error) {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("shape: %s is not a struct", rt)
	}
	s := &Shape{Name: rt.Name()}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("db"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		t := TypeFor(sf.Type)
		if t.Kind == KindUnknown {
			return nil, fmt.Errorf("shape: field %s.%s has unsupported type %s", rt.Name(), sf.Name, sf.Type)
		}
		s.Fields = append(s.Fields, FieldDef{Name: name, Type: t})
	}
	return s, nil
}

// ShapeOf derives the shape of T
func ShapeOf[T any]() (*Shape, error) {
	return ShapeFor(reflect.TypeOf((*T)(nil)).Elem())
}

// MustShapeOf is like ShapeOf but panics on error
func MustShapeOf[T any]() *Shape {
	s, err := ShapeOf[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// TypeOf infers the static type of an expression
func TypeOf(e Expr) Type {
	switch n := e.(type) {
	case Const:
		return TypeOfValue(n.Value)
	case Captured:
		return TypeOfValue(n.Value)
	case Field:
		return n.Type
	case Member:
		if n.Name == "Length" && TypeOf(n.Base).Kind == KindString {
			return Type{Kind: KindInt}
		}
		if !DependsOnParam(n) {
			if v, err := Eval(n); err == nil {
				return TypeOfValue(v)
			}
		}
		return Type{Kind: KindUnknown}
	case Unary:
		if n.Op == OpNot {
			return Type{Kind: KindBool}
		}
		return TypeOf(n.Operand)
	case Binary:
		switch {
		case n.Op == OpAndAlso || n.Op == OpOrElse || n.Op.IsComparison():
			return Type{Kind: KindBool}
		}
		l, r := TypeOf(n.Left), TypeOf(n.Right)
		if l.Kind == KindDecimal || r.Kind == KindDecimal {
			return Type{Kind: KindDecimal, Nullable: l.Nullable || r.Nullable}
		}
		if l.Kind == KindNull {
			return r
		}
		return Type{Kind: l.Kind, Nullable: l.Nullable || r.Nullable}
	case Conditional:
		t := TypeOf(n.IfTrue)
		if t.Kind == KindNull {
			return TypeOf(n.IfFalse)
		}
		return t
	case Call:
		switch n.Method {
		case "IsMatch", "MatchString":
			return Type{Kind: KindBool}
		case "ToLower", "ToUpper":
			return Type{Kind: KindString}
		case "len":
			return Type{Kind: KindInt}
		}
		return Type{Kind: KindUnknown}
	case Convert:
		return n.To
	}
	return Type{Kind: KindUnknown}
}

// DependsOnParam reports whether evaluating e requires the lambda parameter
func DependsOnParam(e Expr) bool {
	switch n := e.(type) {
	case Field:
		return true
	case Const, Captured:
		return false
	case Member:
		return DependsOnParam(n.Base)
	case Unary:
		return DependsOnParam(n.Operand)
	case Binary:
		return DependsOnParam(n.Left) || DependsOnParam(n.Right)
	case Conditional:
		return DependsOnParam(n.Test) || DependsOnParam(n.IfTrue) || DependsOnParam(n.IfFalse)
	case Call:
		if n.Receiver != nil && DependsOnParam(n.Receiver) {
			return true
		}
		for _, a := range n.Args {
			if DependsOnParam(a) {
				return true
			}
		}
		return false
	case Convert:
		return DependsOnParam(n.Operand)
	case Switch:
		if DependsOnParam(n.Subject) {
			return true
		}
		for _, c := range n.Cases {
			if DependsOnParam(c.Body) {
				return true
			}
		}
		return n.Default != nil && DependsOnParam(n.Default)
	}
	return false
}
