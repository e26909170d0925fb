package compiler

import (
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimeLayout is how timestamps are written inside quoted literals
const TimeLayout = "2006-01-02 15:04:05.999999999Z07:00"

// EncodeLiteral renders a constant as a SQL literal token.
// Quoted values are not escaped; literals come from predicate source, not user input.
func EncodeLiteral(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if x {
			return "True", nil
		}
		return "False", nil
	case decimal.Decimal:
		return x.String(), nil
	case *decimal.Decimal:
		if x == nil {
			return "NULL", nil
		}
		return x.String(), nil
	case string:
		return singleQuote(x), nil
	case uuid.UUID:
		return singleQuote(x.String()), nil
	case time.Time:
		return singleQuote(x.Format(TimeLayout)), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Bool:
		return EncodeLiteral(rv.Bool())
	case reflect.String:
		return singleQuote(rv.String()), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL", nil
		}
		return EncodeLiteral(rv.Elem().Interface())
	}

	return "", unsupported(ErrUnsupportedConstant, "%v (%T)", v, v)
}

func singleQuote(s string) string {
	return "'" + s + "'"
}

func doubleQuote(s string) string {
	return `"` + s + `"`
}
