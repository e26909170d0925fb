package expr

import (
	"fmt"
	"strings"
	"unicode"
)

// Token represents a lexical token
type Token struct {
	Kind  TokenKind
	Value string
	Pos   int
}

// TokenKind is the type of token
type TokenKind int

const (
	TokIdent TokenKind = iota
	TokString
	TokNumber
	TokArrow
	TokDot
	TokComma
	TokLParen
	TokRParen
	TokLBrace
	TokRBrace
	TokQuestion
	TokColon
	TokAndAnd
	TokOrOr
	TokNot
	TokAmp
	TokPipe
	TokCaret
	TokEq
	TokNe
	TokLt
	TokLe
	TokGt
	TokGe
	TokPlus
	TokMinus
	TokStar
	TokPow
	TokSlash
	TokPercent
	TokEOF
)

var tokenNames = [...]string{
	TokIdent:    "Ident",
	TokString:   "String",
	TokNumber:   "Number",
	TokArrow:    "=>",
	TokDot:      ".",
	TokComma:    ",",
	TokLParen:   "(",
	TokRParen:   ")",
	TokLBrace:   "{",
	TokRBrace:   "}",
	TokQuestion: "?",
	TokColon:    ":",
	TokAndAnd:   "&&",
	TokOrOr:     "||",
	TokNot:      "!",
	TokAmp:      "&",
	TokPipe:     "|",
	TokCaret:    "^",
	TokEq:       "==",
	TokNe:       "!=",
	TokLt:       "<",
	TokLe:       "<=",
	TokGt:       ">",
	TokGe:       ">=",
	TokPlus:     "+",
	TokMinus:    "-",
	TokStar:     "*",
	TokPow:      "**",
	TokSlash:    "/",
	TokPercent:  "%",
	TokEOF:      "EOF",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "Unknown"
}

func (t Token) String() string {
	switch t.Kind {
	case TokIdent, TokNumber:
		return t.Value
	case TokString:
		return fmt.Sprintf("%q", t.Value)
	default:
		return t.Kind.String()
	}
}

// Lexer tokenizes predicate source
type Lexer struct {
	input []rune
	pos   int
}

// NewLexer creates a new lexer for the input string
func NewLexer(input string) *Lexer {
	return &Lexer{input: []rune(input)}
}

// Lex tokenizes the entire input
func Lex(input string) ([]Token, error) {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok, err := lexer.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}

	return tokens, nil
}

// two-character operators, checked before single characters
var pairs = map[string]TokenKind{
	"=>": TokArrow,
	"&&": TokAndAnd,
	"||": TokOrOr,
	"==": TokEq,
	"!=": TokNe,
	"<=": TokLe,
	">=": TokGe,
	"**": TokPow,
}

var singles = map[rune]TokenKind{
	'.': TokDot,
	',': TokComma,
	'(': TokLParen,
	')': TokRParen,
	'{': TokLBrace,
	'}': TokRBrace,
	'?': TokQuestion,
	':': TokColon,
	'!': TokNot,
	'&': TokAmp,
	'|': TokPipe,
	'^': TokCaret,
	'<': TokLt,
	'>': TokGt,
	'+': TokPlus,
	'-': TokMinus,
	'*': TokStar,
	'/': TokSlash,
	'%': TokPercent,
}

// Next returns the next token
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	start := l.pos
	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Pos: start}, nil
	}

	ch := l.input[l.pos]

	if l.pos+1 < len(l.input) {
		if kind, ok := pairs[string(l.input[l.pos:l.pos+2])]; ok {
			l.pos += 2
			return Token{Kind: kind, Pos: start}, nil
		}
	}

	switch {
	case ch == '"':
		return l.scanString()
	case ch == '`':
		return l.scanRawString()
	case unicode.IsDigit(ch):
		return l.scanNumber()
	case isIdentStart(ch):
		return l.scanIdent()
	}

	if kind, ok := singles[ch]; ok {
		l.pos++
		return Token{Kind: kind, Pos: start}, nil
	}

	return Token{}, fmt.Errorf("unexpected character %q at %d", ch, start)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos < len(l.input) {
		return l.input[pos]
	}
	return 0
}

func (l *Lexer) scanString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder

	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '"' {
			l.pos++
			return Token{Kind: TokString, Value: sb.String(), Pos: start}, nil
		}
		if ch == '\\' && l.pos+1 < len(l.input) {
			l.pos++
			switch l.input[l.pos] {
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			default:
				// keep unknown escapes so regex classes like \d survive
				sb.WriteRune('\\')
				sb.WriteRune(l.input[l.pos])
			}
			l.pos++
			continue
		}
		sb.WriteRune(ch)
		l.pos++
	}

	return Token{}, fmt.Errorf("unterminated string at %d", start)
}

func (l *Lexer) scanRawString() (Token, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.input) {
		if l.input[l.pos] == '`' {
			v := string(l.input[start+1 : l.pos])
			l.pos++
			return Token{Kind: TokString, Value: v, Pos: start}, nil
		}
		l.pos++
	}
	return Token{}, fmt.Errorf("unterminated raw string at %d", start)
}

func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos

	for l.pos < len(l.input) && unicode.IsDigit(l.input[l.pos]) {
		l.pos++
	}

	// fractional part; a dot followed by a letter is member access
	if l.pos < len(l.input) && l.input[l.pos] == '.' && unicode.IsDigit(l.peek(1)) {
		l.pos++
		for l.pos < len(l.input) && unicode.IsDigit(l.input[l.pos]) {
			l.pos++
		}
	}

	if l.pos < len(l.input) && isIdentStart(l.input[l.pos]) {
		return Token{}, fmt.Errorf("invalid number %q at %d", string(l.input[start:l.pos+1]), start)
	}

	return Token{Kind: TokNumber, Value: string(l.input[start:l.pos]), Pos: start}, nil
}

func (l *Lexer) scanIdent() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokIdent, Value: string(l.input[start:l.pos]), Pos: start}, nil
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}
