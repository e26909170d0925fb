package sqlbuilder

import (
	"strconv"
	"strings"
)

// PlaceholderStyle selects how bound parameters are written
type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota
	PlaceholderDollar
)

// Builder collects bound arguments and hands out their placeholders
type Builder struct {
	Style PlaceholderStyle
	args  []any
}

func New(style PlaceholderStyle) *Builder {
	return &Builder{Style: style}
}

// Arg binds v and returns its placeholder
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	if b.Style == PlaceholderDollar {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

func (b *Builder) Args() []any { return b.args }
func (b *Builder) Len() int    { return len(b.args) }

// Insert renders an INSERT of vals into the quoted columns of table
func Insert(style PlaceholderStyle, table string, cols []string, vals []any) (string, []any) {
	b := New(style)
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(quote(table))
	sb.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quote(c))
	}
	sb.WriteString(") VALUES (")
	for i := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.Arg(vals[i]))
	}
	sb.WriteString(")")
	return sb.String(), b.Args()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
