package compiler

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedNode     = errors.New("unsupported expression")
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrUnsupportedConstant = errors.New("unsupported constant")
	ErrUnsupportedMethod   = errors.New("unsupported method")
	ErrUnsupportedSwitch   = errors.New("switch expressions are not supported")
	ErrNotBoolean          = errors.New("predicate is not boolean")
)

// Error reports a construct that cannot be rendered as SQL
type Error struct {
	Err    error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func unsupported(kind error, format string, args ...any) *Error {
	return &Error{Err: kind, Detail: fmt.Sprintf(format, args...)}
}

// IsUnsupported reports whether err is any of the compile-time failures
func IsUnsupported(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
