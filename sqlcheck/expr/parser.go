package expr

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUnknownField is returned when a predicate reads a field the shape does not declare
var ErrUnknownField = errors.New("unknown field")

// Env holds the captured values a predicate may reference by name
type Env map[string]any

// Parse parses a lambda of the form `x => <expr>` against shape
func Parse(input string, shape *Shape, env Env) (*Lambda, error) {
	if shape == nil {
		return nil, errors.New("parse: nil shape")
	}
	tokens, err := Lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, shape: shape, env: env}

	if !p.match(TokIdent) || p.peek(1).Kind != TokArrow {
		return nil, fmt.Errorf("expected '<param> =>', got %v", p.current())
	}
	p.param = p.current().Value
	p.advance()
	p.advance()

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.match(TokEOF) {
		return nil, fmt.Errorf("unexpected %v at %d", p.current(), p.current().Pos)
	}
	return &Lambda{Param: p.param, Shape: shape, Body: body}, nil
}

// MustParse is like Parse but panics on error
func MustParse(input string, shape *Shape, env Env) *Lambda {
	l, err := Parse(input, shape, env)
	if err != nil {
		panic(err)
	}
	return l
}

type parser struct {
	tokens []Token
	pos    int
	shape  *Shape
	env    Env
	param  string
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseConditional()
}

func (p *parser) parseConditional() (Expr, error) {
	test, err := p.parseOrElse()
	if err != nil {
		return nil, err
	}
	if !p.match(TokQuestion) {
		return test, nil
	}
	p.advance()
	ifTrue, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokColon); err != nil {
		return nil, err
	}
	ifFalse, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse}, nil
}

// binaryLevel parses a left-associative chain of the operators in ops
func (p *parser) binaryLevel(next func() (Expr, error), ops map[TokenKind]BinaryOp) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.current().Kind]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
}

var (
	orElseOps   = map[TokenKind]BinaryOp{TokOrOr: OpOrElse}
	andAlsoOps  = map[TokenKind]BinaryOp{TokAndAnd: OpAndAlso}
	bitOrOps    = map[TokenKind]BinaryOp{TokPipe: OpOr}
	bitXorOps   = map[TokenKind]BinaryOp{TokCaret: OpXor}
	bitAndOps   = map[TokenKind]BinaryOp{TokAmp: OpAnd}
	equalityOps = map[TokenKind]BinaryOp{TokEq: OpEq, TokNe: OpNe}
	relationOps = map[TokenKind]BinaryOp{TokLt: OpLt, TokLe: OpLe, TokGt: OpGt, TokGe: OpGe}
	additiveOps = map[TokenKind]BinaryOp{TokPlus: OpAdd, TokMinus: OpSub}
	multiplyOps = map[TokenKind]BinaryOp{TokStar: OpMul, TokSlash: OpDiv, TokPercent: OpMod}
)

func (p *parser) parseOrElse() (Expr, error) {
	return p.binaryLevel(p.parseAndAlso, orElseOps)
}

func (p *parser) parseAndAlso() (Expr, error) {
	return p.binaryLevel(p.parseBitOr, andAlsoOps)
}

func (p *parser) parseBitOr() (Expr, error) {
	return p.binaryLevel(p.parseBitXor, bitOrOps)
}

func (p *parser) parseBitXor() (Expr, error) {
	return p.binaryLevel(p.parseBitAnd, bitXorOps)
}

func (p *parser) parseBitAnd() (Expr, error) {
	return p.binaryLevel(p.parseEquality, bitAndOps)
}

func (p *parser) parseEquality() (Expr, error) {
	return p.binaryLevel(p.parseRelational, equalityOps)
}

func (p *parser) parseRelational() (Expr, error) {
	return p.binaryLevel(p.parseAdditive, relationOps)
}

func (p *parser) parseAdditive() (Expr, error) {
	return p.binaryLevel(p.parseMultiplicative, additiveOps)
}

func (p *parser) parseMultiplicative() (Expr, error) {
	return p.binaryLevel(p.parsePower, multiplyOps)
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if !p.match(TokPow) {
		return base, nil
	}
	p.advance()
	exp, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	return Binary{Op: OpPow, Left: base, Right: exp}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	var op UnaryOp
	switch p.current().Kind {
	case TokNot:
		op = OpNot
	case TokMinus:
		op = OpNegate
	case TokPlus:
		op = OpPlus
	default:
		return p.parsePostfix()
	}
	p.advance()

	// -<literal> is a negative literal, not a negation
	if op == OpNegate && p.match(TokNumber) {
		return p.parseNumber(true)
	}

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return Unary{Op: op, Operand: operand}, nil
}

func (p *parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.match(TokDot) {
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if p.match(TokLParen) {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			e = Call{Receiver: e, Method: name, Args: args}
			continue
		}
		e = Member{Base: e, Name: name}
	}
	return e, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.current()
	switch tok.Kind {
	case TokLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return e, nil
	case TokNumber:
		return p.parseNumber(false)
	case TokString:
		p.advance()
		return Const{Value: tok.Value}, nil
	case TokIdent:
		return p.parseIdent()
	case TokEOF:
		return nil, errors.New("unexpected end of predicate")
	default:
		return nil, fmt.Errorf("unexpected %v at %d", tok, tok.Pos)
	}
}

func (p *parser) parseIdent() (Expr, error) {
	name := p.current().Value
	p.advance()

	switch name {
	case p.param:
		if err := p.expect(TokDot); err != nil {
			return nil, fmt.Errorf("parameter %s must be followed by a field access", name)
		}
		field, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		def, ok := p.shape.Field(field)
		if !ok {
			return nil, fmt.Errorf("%s.%s: %w", p.shape.Name, field, ErrUnknownField)
		}
		return Field{Name: def.Name, Type: def.Type}, nil
	case "null", "nil":
		return Const{Value: nil}, nil
	case "true":
		return Const{Value: true}, nil
	case "false":
		return Const{Value: false}, nil
	case "switch":
		return p.parseSwitch()
	}

	// captured values shadow builtins
	if v, ok := p.env[name]; ok {
		return Captured{Name: name, Value: v}, nil
	}

	if p.match(TokLParen) {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return builtin(name, args)
	}

	if p.match(TokDot) {
		// static member: Type.Method(...) or Type.Constant
		p.advance()
		member, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if name == "RegexOptions" && !p.match(TokLParen) {
			switch member {
			case "IgnoreCase":
				return Const{Value: RegexIgnoreCase}, nil
			case "None":
				return Const{Value: RegexNone}, nil
			}
			return nil, fmt.Errorf("unknown regex option %s", member)
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return Call{Type: name, Method: member, Args: args}, nil
	}

	return nil, fmt.Errorf("unknown identifier %s", name)
}

var conversions = map[string]Kind{
	"int": KindInt, "int8": KindInt, "int16": KindInt, "int32": KindInt, "int64": KindInt,
	"uint": KindUint, "uint8": KindUint, "uint16": KindUint, "uint32": KindUint, "uint64": KindUint, "byte": KindUint,
	"decimal": KindDecimal,
	"string":  KindString,
	"bool":    KindBool,
}

func builtin(name string, args []Expr) (Expr, error) {
	// literal constructors take a single string literal
	if len(args) == 1 {
		if c, ok := args[0].(Const); ok {
			if s, ok := c.Value.(string); ok {
				switch name {
				case "uuid":
					u, err := uuid.Parse(s)
					if err != nil {
						return nil, fmt.Errorf("uuid(%q): %w", s, err)
					}
					return Const{Value: u}, nil
				case "date":
					t, err := time.Parse("2006-01-02", s)
					if err != nil {
						return nil, fmt.Errorf("date(%q): %w", s, err)
					}
					return Const{Value: t}, nil
				case "time":
					t, err := time.Parse(time.RFC3339, s)
					if err != nil {
						return nil, fmt.Errorf("time(%q): %w", s, err)
					}
					return Const{Value: t}, nil
				case "decimal":
					d, err := decimal.NewFromString(s)
					if err != nil {
						return nil, fmt.Errorf("decimal(%q): %w", s, err)
					}
					return Const{Value: d}, nil
				}
			}
		}
	}

	if kind, ok := conversions[name]; ok {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s() takes exactly one argument", name)
		}
		to := Type{Kind: kind, Nullable: TypeOf(args[0]).Nullable}
		return Convert{Operand: args[0], To: to}, nil
	}

	return Call{Method: name, Args: args}, nil
}

func (p *parser) parseSwitch() (Expr, error) {
	subject, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	sw := Switch{Subject: subject}
	for !p.match(TokRBrace) {
		kw, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		switch kw {
		case "case":
			var c SwitchCase
			for {
				v, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				c.Values = append(c.Values, v)
				if !p.match(TokComma) {
					break
				}
				p.advance()
			}
			if err := p.expect(TokColon); err != nil {
				return nil, err
			}
			if c.Body, err = p.parseExpr(); err != nil {
				return nil, err
			}
			sw.Cases = append(sw.Cases, c)
		case "default":
			if err := p.expect(TokColon); err != nil {
				return nil, err
			}
			if sw.Default, err = p.parseExpr(); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("expected case or default, got %s", kw)
		}
	}
	p.advance()
	return sw, nil
}

func (p *parser) parseArgs() ([]Expr, error) {
	if err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var args []Expr
	for !p.match(TokRParen) {
		if len(args) > 0 {
			if err := p.expect(TokComma); err != nil {
				return nil, err
			}
		}
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	p.advance()
	return args, nil
}

func (p *parser) parseNumber(negative bool) (Expr, error) {
	s := p.current().Value
	p.advance()
	if negative {
		s = "-" + s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Const{Value: i}, nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Const{Value: u}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid number %s", s)
	}
	return Const{Value: d}, nil
}

func (p *parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Kind: TokEOF}
}

func (p *parser) peek(offset int) Token {
	pos := p.pos + offset
	if pos < len(p.tokens) {
		return p.tokens[pos]
	}
	return Token{Kind: TokEOF}
}

func (p *parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *parser) match(kind TokenKind) bool {
	return p.current().Kind == kind
}

func (p *parser) expect(kind TokenKind) error {
	if !p.match(kind) {
		return fmt.Errorf("expected %v, got %v", kind, p.current())
	}
	p.advance()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	if !p.match(TokIdent) {
		return "", fmt.Errorf("expected identifier, got %v", p.current())
	}
	v := p.current().Value
	p.advance()
	return v, nil
}
