package compiler

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
)

type status int8

type label string

func TestEncodeLiteral(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-00000000002a")
	ts := time.Date(2024, 3, 1, 12, 30, 0, 500, time.UTC)
	var nilPtr *int
	five := 5

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"true", true, "True"},
		{"false", false, "False"},
		{"int8", int8(-3), "-3"},
		{"int16", int16(300), "300"},
		{"int32", int32(-70000), "-70000"},
		{"int64", int64(math.MinInt64), "-9223372036854775808"},
		{"int", 42, "42"},
		{"uint8", uint8(255), "255"},
		{"uint16", uint16(65535), "65535"},
		{"uint32", uint32(7), "7"},
		{"uint64", uint64(math.MaxUint64), "18446744073709551615"},
		{"named int", status(2), "2"},
		{"decimal", decimal.RequireFromString("12.50"), "12.5"},
		{"string", "hello", "'hello'"},
		{"unescaped quote", "it's", "'it's'"},
		{"named string", label("x"), "'x'"},
		{"uuid", id, "'00000000-0000-0000-0000-00000000002a'"},
		{"time", ts, "'2024-03-01 12:30:00.0000005Z'"},
		{"nil pointer", nilPtr, "NULL"},
		{"pointer", &five, "5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeLiteral(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeLiteralUnsupported(t *testing.T) {
	for _, v := range []any{1.5, float32(2), struct{}{}, []int{1}, map[string]int{}} {
		_, err := EncodeLiteral(v)
		assert.ErrorIs(t, err, ErrUnsupportedConstant, "%T", v)
	}
}

func TestPrecedence(t *testing.T) {
	a := expr.Field{Name: "A", Type: expr.Type{Kind: expr.KindInt}}
	b := expr.Field{Name: "B", Type: expr.Type{Kind: expr.KindInt}}
	str := expr.Field{Name: "S", Type: expr.Type{Kind: expr.KindString}}

	tests := []struct {
		name string
		in   expr.Expr
		want int
	}{
		{"or", expr.Binary{Op: expr.OpOrElse, Left: a, Right: b}, PrecOrElse},
		{"and", expr.Binary{Op: expr.OpAndAlso, Left: a, Right: b}, PrecAndAlso},
		{"not", expr.Unary{Op: expr.OpNot, Operand: a}, PrecNot},
		{"eq", expr.Binary{Op: expr.OpEq, Left: a, Right: b}, PrecComparison},
		{"ge", expr.Binary{Op: expr.OpGe, Left: a, Right: b}, PrecComparison},
		{"bitwise", expr.Binary{Op: expr.OpAnd, Left: a, Right: b}, PrecDefault},
		{"conditional", expr.Conditional{Test: a, IfTrue: a, IfFalse: b}, PrecDefault},
		{"add", expr.Binary{Op: expr.OpAdd, Left: a, Right: b}, PrecAdditive},
		{"mod", expr.Binary{Op: expr.OpMod, Left: a, Right: b}, PrecMultiplicative},
		{"pow", expr.Binary{Op: expr.OpPow, Left: a, Right: b}, PrecPower},
		{"negate", expr.Unary{Op: expr.OpNegate, Operand: a}, PrecUnary},
		{"convert field", expr.Convert{Operand: a, To: expr.Type{Kind: expr.KindInt}}, PrecConvert},
		{"convert sum", expr.Convert{Operand: expr.Binary{Op: expr.OpAdd, Left: a, Right: b}}, PrecAdditive},
		{"field", a, PrecPrimary},
		{"const", expr.Const{Value: 1}, PrecPrimary},
		{"lower", expr.Call{Receiver: str, Method: "ToLower"}, PrecPrimary},
		{"regex", expr.Call{Type: "Regex", Method: "IsMatch", Args: []expr.Expr{str, expr.Const{Value: "x"}}}, PrecDefault},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Precedence(tc.in))
		})
	}
}
