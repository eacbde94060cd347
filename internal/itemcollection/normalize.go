package itemcollection

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnsupportedType is returned when a value cannot be normalized into the
// closed set of basic types.
type ErrUnsupportedType struct {
	Value any
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("itemcollection: unsupported value type %T", e.Value)
}

// normalizeOne converts a single native Go value into a Value, recursing
// into slices and maps. A nil input removes the item (handled by the caller).
func normalizeOne(v any) (Value, error) {
	switch t := v.(type) {
	case Value:
		return t.Clone(), nil
	case string:
		return VString(t), nil
	case bool:
		return VBool(t), nil
	case int:
		return VInt64(int64(t)), nil
	case int32:
		return VInt64(int64(t)), nil
	case int64:
		return VInt64(t), nil
	case float32:
		return VFloat64(float64(t)), nil
	case float64:
		return VFloat64(t), nil
	case decimal.Decimal:
		return VDecimal(t), nil
	case []byte:
		return VBytes(t), nil
	case time.Time:
		return VInstant(t), nil
	case *time.Time:
		if t == nil {
			return Value{}, &ErrUnsupportedType{Value: v}
		}
		return VInstant(*t), nil
	case []any:
		out := make([]Value, 0, len(t))
		for _, e := range t {
			nv, err := normalizeOne(e)
			if err != nil {
				return Value{}, err
			}
			out = append(out, nv)
		}
		return VList(out), nil
	case map[string]any:
		out := make(map[string][]Value, len(t))
		for k, e := range t {
			list, err := normalizeList(e)
			if err != nil {
				return Value{}, err
			}
			out[NormalizeName(k)] = list
		}
		return VMap(out), nil
	default:
		return Value{}, &ErrUnsupportedType{Value: v}
	}
}

// normalizeList normalizes v into the ordered-list-of-values representation
// an item always stores: a raw slice becomes the list itself, anything else
// becomes a one-element list.
func normalizeList(v any) ([]Value, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []Value:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = e.Clone()
		}
		return out, nil
	case []any:
		out := make([]Value, 0, len(t))
		for _, e := range t {
			nv, err := normalizeOne(e)
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}
		return out, nil
	case []string:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = VString(e)
		}
		return out, nil
	case []int:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = VInt64(int64(e))
		}
		return out, nil
	default:
		nv, err := normalizeOne(v)
		if err != nil {
			return nil, err
		}
		return []Value{nv}, nil
	}
}
