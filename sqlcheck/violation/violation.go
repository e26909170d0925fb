package violation

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sqlcheck/sqlcheck/sqlcheck/constraint"
)

// Lookuper resolves physical constraint names
type Lookuper interface {
	Lookup(physicalName string) (constraint.Metadata, bool)
}

// Catalog is a Lookuper that can also enumerate its constraints
type Catalog interface {
	Lookuper
	All() []constraint.Metadata
}

// Error reports a write rejected by a registered constraint. The
// driver error that carried the rejection is kept as Cause.
type Error struct {
	Kind         constraint.Kind
	LogicalName  string
	PhysicalName string
	OwnerType    string
	Message      string
	Fields       []string
	Cause        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Correlate builds a violation report for physicalName. It reports false
// when the name is empty or unregistered; the caller then keeps cause.
func Correlate(reg Lookuper, physicalName string, cause error) (*Error, bool) {
	if reg == nil || physicalName == "" {
		return nil, false
	}
	m, ok := reg.Lookup(physicalName)
	if !ok {
		return nil, false
	}
	return fromMetadata(m, cause), true
}

func fromMetadata(m constraint.Metadata, cause error) *Error {
	return &Error{
		Kind:         m.Kind,
		LogicalName:  m.LogicalName,
		PhysicalName: m.PhysicalName,
		OwnerType:    m.OwnerType,
		Message:      m.Message,
		Fields:       slices.Clone(m.Fields),
		Cause:        cause,
	}
}

// Translate replaces a driver error with a violation report when it names
// a registered constraint, and returns err unchanged otherwise.
func Translate(reg Catalog, err error) error {
	if err == nil || reg == nil {
		return err
	}
	if _, ok := AsViolation(err); ok {
		return err
	}
	if v, ok := Correlate(reg, ConstraintName(err), err); ok {
		return v
	}
	if table, cols, ok := uniqueColumns(err); ok {
		if m, ok := findUnique(reg, table, cols); ok {
			return fromMetadata(m, err)
		}
	}
	return err
}

func findUnique(reg Catalog, table string, cols []string) (constraint.Metadata, bool) {
	for _, m := range reg.All() {
		if m.Kind != constraint.KindUnique || m.Table != table || len(m.Fields) != len(cols) {
			continue
		}
		match := true
		for _, c := range cols {
			if !slices.Contains(m.Fields, c) {
				match = false
				break
			}
		}
		if match {
			return m, true
		}
	}
	return constraint.Metadata{}, false
}

// IsViolation reports whether err carries a violation report
func IsViolation(err error) bool {
	_, ok := AsViolation(err)
	return ok
}

// AsViolation extracts the violation report from err's chain
func AsViolation(err error) (*Error, bool) {
	var v *Error
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// String is a one-line description for logs
func (e *Error) String() string {
	return fmt.Sprintf("%s %s on %s %v: %s", e.Kind, e.PhysicalName, e.OwnerType, e.Fields, e.Message)
}
