// Package itemcollection implements the engine's schemaless document type:
// a mapping from case-insensitive item name to an ordered list of typed
// values, restricted to a closed set of basic types.
package itemcollection

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the tag of a Value's closed union.
type Kind int

const (
	KindString Kind = iota
	KindInt64
	KindFloat64
	KindDecimal
	KindBool
	KindInstant
	KindBytes
	KindList
	KindMap
)

// Value is the tagged sum every basic-typed item value is normalized into.
// Exactly one of the typed fields is meaningful, selected by Kind.
type Value struct {
	Kind    Kind
	Str     string
	I64     int64
	F64     float64
	Dec     decimal.Decimal
	Boolean bool
	Instant time.Time
	Bytes   []byte
	List    []Value
	Map     map[string][]Value
}

// VString builds a string Value.
func VString(s string) Value { return Value{Kind: KindString, Str: s} }

// VInt64 builds an integer Value.
func VInt64(i int64) Value { return Value{Kind: KindInt64, I64: i} }

// VFloat64 builds a floating-point Value.
func VFloat64(f float64) Value { return Value{Kind: KindFloat64, F64: f} }

// VDecimal builds a big-decimal Value.
func VDecimal(d decimal.Decimal) Value { return Value{Kind: KindDecimal, Dec: d} }

// VBool builds a boolean Value.
func VBool(b bool) Value { return Value{Kind: KindBool, Boolean: b} }

// VInstant builds a timestamp Value, normalized to UTC.
func VInstant(t time.Time) Value { return Value{Kind: KindInstant, Instant: t.UTC()} }

// VBytes builds a byte-array Value.
func VBytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{Kind: KindBytes, Bytes: cp}
}

// VList builds a nested-list Value.
func VList(vs []Value) Value { return Value{Kind: KindList, List: vs} }

// VMap builds a nested-map Value.
func VMap(m map[string][]Value) Value { return Value{Kind: KindMap, Map: m} }

// Clone returns a structural deep copy of v: mutating the result never
// aliases v's nested containers.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindBytes:
		return VBytes(v.Bytes)
	case KindList:
		out := make([]Value, len(v.List))
		for i, e := range v.List {
			out[i] = e.Clone()
		}
		return Value{Kind: KindList, List: out}
	case KindMap:
		out := make(map[string][]Value, len(v.Map))
		for k, vs := range v.Map {
			cp := make([]Value, len(vs))
			for i, e := range vs {
				cp[i] = e.Clone()
			}
			out[k] = cp
		}
		return Value{Kind: KindMap, Map: out}
	default:
		return v
	}
}

// Equal compares two values structurally.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindInt64:
		return v.I64 == o.I64
	case KindFloat64:
		return v.F64 == o.F64
	case KindDecimal:
		return v.Dec.Equal(o.Dec)
	case KindBool:
		return v.Boolean == o.Boolean
	case KindInstant:
		return v.Instant.Equal(o.Instant)
	case KindBytes:
		if len(v.Bytes) != len(o.Bytes) {
			return false
		}
		for i := range v.Bytes {
			if v.Bytes[i] != o.Bytes[i] {
				return false
			}
		}
		return true
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for k, vs := range v.Map {
			ovs, ok := o.Map[k]
			if !ok || len(ovs) != len(vs) {
				return false
			}
			for i := range vs {
				if !vs[i].Equal(ovs[i]) {
					return false
				}
			}
		}
		return true
	}
	return false
}

// String renders the value for generic display / text substitution.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt64:
		return fmt.Sprintf("%d", v.I64)
	case KindFloat64:
		return fmt.Sprintf("%g", v.F64)
	case KindDecimal:
		return v.Dec.String()
	case KindBool:
		return fmt.Sprintf("%t", v.Boolean)
	case KindInstant:
		return v.Instant.Format(time.RFC3339)
	case KindBytes:
		return fmt.Sprintf("<%d bytes>", len(v.Bytes))
	case KindList:
		return fmt.Sprintf("<list:%d>", len(v.List))
	case KindMap:
		return fmt.Sprintf("<map:%d>", len(v.Map))
	default:
		return ""
	}
}

// Float returns the value coerced to float64 for numeric comparisons/formatting.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindInt64:
		return float64(v.I64), true
	case KindFloat64:
		return v.F64, true
	case KindDecimal:
		f, _ := v.Dec.Float64()
		return f, true
	default:
		return 0, false
	}
}
