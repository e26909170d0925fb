package expr

// Expr represents a predicate expression
type Expr interface {
	isExpr()
}

// Lambda binds a predicate body to the record shape it is written against
type Lambda struct {
	Param string
	Shape *Shape
	Body  Expr
}

// Const is a literal value
type Const struct {
	Value any
}

func (Const) isExpr() {}

// Field reads a field of the lambda parameter
type Field struct {
	Name string
	Type Type
}

func (Field) isExpr() {}

// Member reads a property of a non-parameter value, e.g. the Length of a
// string field or a field of a captured struct.
type Member struct {
	Base Expr
	Name string
}

func (Member) isExpr() {}

// Captured is a value closed over from the scope the predicate was declared in
type Captured struct {
	Name  string
	Value any
}

func (Captured) isExpr() {}

// UnaryOp is a unary operator
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
	OpPlus
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "Not"
	case OpNegate:
		return "Negate"
	case OpPlus:
		return "UnaryPlus"
	default:
		return "?"
	}
}

// Unary applies a unary operator
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

func (Unary) isExpr() {}

// BinaryOp is a binary operator
type BinaryOp int

const (
	OpAnd BinaryOp = iota // bitwise
	OpOr                  // bitwise
	OpXor
	OpAndAlso
	OpOrElse
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
)

func (op BinaryOp) String() string {
	switch op {
	case OpAnd:
		return "And"
	case OpOr:
		return "Or"
	case OpXor:
		return "ExclusiveOr"
	case OpAndAlso:
		return "AndAlso"
	case OpOrElse:
		return "OrElse"
	case OpEq:
		return "Equal"
	case OpNe:
		return "NotEqual"
	case OpLt:
		return "LessThan"
	case OpLe:
		return "LessThanOrEqual"
	case OpGt:
		return "GreaterThan"
	case OpGe:
		return "GreaterThanOrEqual"
	case OpAdd:
		return "Add"
	case OpSub:
		return "Subtract"
	case OpMul:
		return "Multiply"
	case OpDiv:
		return "Divide"
	case OpMod:
		return "Modulo"
	case OpPow:
		return "Power"
	default:
		return "?"
	}
}

// IsComparison reports whether op is one of = <> < <= > >=
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Binary applies a binary operator
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (Binary) isExpr() {}

// Conditional is a ternary test ? ifTrue : ifFalse
type Conditional struct {
	Test    Expr
	IfTrue  Expr
	IfFalse Expr
}

func (Conditional) isExpr() {}

// Call invokes a method. Receiver is nil for static calls, in which case
// Type names the declaring type ("Regex", "strings") or is empty for builtins.
type Call struct {
	Type     string
	Receiver Expr
	Method   string
	Args     []Expr
}

func (Call) isExpr() {}

// Convert changes the static type of its operand
type Convert struct {
	Operand Expr
	To      Type
}

func (Convert) isExpr() {}

// SwitchCase is one arm of a Switch
type SwitchCase struct {
	Values []Expr
	Body   Expr
}

// Switch is a multi-way branch
type Switch struct {
	Subject Expr
	Cases   []SwitchCase
	Default Expr
}

func (Switch) isExpr() {}
