package sqlcheck

import (
	"errors"
	"fmt"

	"github.com/sqlcheck/sqlcheck/sqlcheck/compiler"
)

type ErrorKind string

const (
	ErrIO             ErrorKind = "io"
	ErrSQL            ErrorKind = "sql"
	ErrSchema         ErrorKind = "schema"
	ErrPredicateParse ErrorKind = "predicate_parse"
	ErrUnsupported    ErrorKind = "unsupported"
	ErrUnknownField   ErrorKind = "unknown_field"
	ErrUnknownEntity  ErrorKind = "unknown_entity"
	ErrConstraint     ErrorKind = "constraint"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func SchemaError(msg string) *Error {
	return &Error{Kind: ErrSchema, Message: msg}
}

func UnknownEntityError(name string) *Error {
	return &Error{Kind: ErrUnknownEntity, Message: fmt.Sprintf("entity not declared: %s", name)}
}

func UnknownFieldError(entity, field string) *Error {
	return &Error{Kind: ErrUnknownField, Message: fmt.Sprintf("unknown field on %s", entity), Field: field}
}

// declarationError classifies a failure to compile a constraint
func declarationError(constraint string, cause error) *Error {
	return compileError(fmt.Sprintf("constraint %s", constraint), cause)
}

func compileError(msg string, cause error) *Error {
	kind := ErrSchema
	if compiler.IsUnsupported(cause) {
		kind = ErrUnsupported
	}
	return Wrap(kind, msg, cause)
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
