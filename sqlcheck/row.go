package sqlcheck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
)

// DecodeRow decodes one JSON object into column values typed after the
// entity's fields. Unknown keys are rejected.
func (e *Entity) DecodeRow(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, Wrap(ErrSchema, fmt.Sprintf("decode %s row", e.Name), err)
	}
	row := make(map[string]any, len(raw))
	for name, v := range raw {
		f, ok := e.Shape.Field(name)
		if !ok {
			return nil, UnknownFieldError(e.Name, name)
		}
		cv, err := coerce(f.Type, v)
		if err != nil {
			return nil, &Error{Kind: ErrSchema, Message: fmt.Sprintf("value for %s", e.Name), Field: name, Cause: err}
		}
		row[name] = cv
	}
	return row, nil
}

func coerce(t expr.Type, v any) (any, error) {
	if v == nil {
		if !t.Nullable {
			return nil, fmt.Errorf("null for non-nullable %s", t)
		}
		return nil, nil
	}
	switch t.Kind {
	case expr.KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case expr.KindInt:
		if n, ok := v.(json.Number); ok {
			return n.Int64()
		}
	case expr.KindUint:
		if n, ok := v.(json.Number); ok {
			d, err := decimal.NewFromString(n.String())
			if err != nil || !d.IsInteger() || d.IsNegative() {
				return nil, fmt.Errorf("%s is not an unsigned integer", n)
			}
			b := d.BigInt()
			if !b.IsUint64() {
				return nil, fmt.Errorf("%s overflows uint64", n)
			}
			return b.Uint64(), nil
		}
	case expr.KindDecimal:
		switch x := v.(type) {
		case json.Number:
			return decimal.NewFromString(x.String())
		case string:
			return decimal.NewFromString(x)
		}
	case expr.KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case expr.KindUUID:
		if s, ok := v.(string); ok {
			return uuid.Parse(s)
		}
	case expr.KindTime:
		if s, ok := v.(string); ok {
			return time.Parse(time.RFC3339Nano, s)
		}
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, t)
}
