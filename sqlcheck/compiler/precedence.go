package compiler

import "github.com/sqlcheck/sqlcheck/sqlcheck/expr"

// Binding strength, weakest first. Follows the PostgreSQL operator
// precedence table closely enough that one table serves both languages.
const (
	PrecOrElse         = 0
	PrecAndAlso        = 1
	PrecNot            = 2
	PrecComparison     = 3
	PrecDefault        = 4
	PrecAdditive       = 5
	PrecMultiplicative = 6
	PrecPower          = 7
	PrecUnary          = 8
	PrecIndex          = 9
	PrecConvert        = 10
	PrecPrimary        = 11
)

// Precedence returns the binding strength of the node at the root of e
func Precedence(e expr.Expr) int {
	switch n := e.(type) {
	case expr.Const, expr.Captured, expr.Field, expr.Member:
		return PrecPrimary
	case expr.Unary:
		if n.Op == expr.OpNot {
			return PrecNot
		}
		return PrecUnary
	case expr.Binary:
		return binaryPrecedence(n.Op)
	case expr.Convert:
		// conversions emit no SQL, so the operand's own strength shows through
		return min(PrecConvert, Precedence(n.Operand))
	case expr.Call:
		if rendersAsFunction(n) {
			return PrecPrimary
		}
		return PrecDefault
	default:
		return PrecDefault
	}
}

func binaryPrecedence(op expr.BinaryOp) int {
	switch op {
	case expr.OpOrElse:
		return PrecOrElse
	case expr.OpAndAlso:
		return PrecAndAlso
	case expr.OpEq, expr.OpNe, expr.OpLt, expr.OpLe, expr.OpGt, expr.OpGe:
		return PrecComparison
	case expr.OpAdd, expr.OpSub:
		return PrecAdditive
	case expr.OpMul, expr.OpDiv, expr.OpMod:
		return PrecMultiplicative
	case expr.OpPow:
		return PrecPower
	default:
		return PrecDefault
	}
}
