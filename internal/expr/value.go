package expr

import (
	"fmt"
	"strconv"
)

// Value is a sealed interface representing the scalar types that can flow
// through a pipeline: Null, String, Int, Float, and Bool.
//
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backends.
type Value interface {
	valueNode() // Sealed - only types in this package implement it
}

// Null represents a missing value.
// Using an explicit type ensures all Values satisfy the sealed interface.
type Null struct{}

func (Null) valueNode() {}

// String represents a text value.
type String string

func (String) valueNode() {}

// Int represents an integer value. Always int64.
type Int int64

func (Int) valueNode() {}

// Float represents a floating-point value.
//
// Aggregates such as mean produce fractional results, so unlike an IR meant
// for content addressing this value model admits floats.
type Float float64

func (Float) valueNode() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) valueNode() {}

// FromNative converts a Go native value to a Value.
// Supported inputs: nil, bool, string, all integer widths, float32/64,
// []byte (treated as text). Anything else is an error.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case []byte:
		return String(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case Value:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported native type %T", v)
	}
}

// Native converts a Value back to its Go native representation.
// Null becomes nil.
func Native(v Value) any {
	switch val := v.(type) {
	case Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	default:
		return nil
	}
}

// Format renders a Value for diagnostics and text output.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}

// IsNumeric reports whether v is Int or Float.
func IsNumeric(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	default:
		return false
	}
}

// AsFloat converts a numeric Value to float64.
// Returns false for non-numeric values.
func AsFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case Int:
		return float64(val), true
	case Float:
		return float64(val), true
	default:
		return 0, false
	}
}

// AsInt converts a Value to int64 if it is integral.
// Floats with no fractional part convert; anything else returns false.
func AsInt(v Value) (int64, bool) {
	switch val := v.(type) {
	case Int:
		return int64(val), true
	case Float:
		if float64(val) == float64(int64(val)) {
			return int64(val), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Equal reports deep equality of two Values.
// Int and Float compare numerically, so Int(1) equals Float(1).
func Equal(a, b Value) bool {
	if af, ok := AsFloat(a); ok {
		if bf, bok := AsFloat(b); bok {
			return af == bf
		}
		return false
	}
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	default:
		return false
	}
}

// Compare orders two Values: Null sorts before everything, then Bool
// (false < true), then numbers, then strings by byte order. Backends that
// need locale-aware text ordering apply their own collation on top.
//
// Returns -1, 0, or 1. Cross-kind comparisons order by kind rank so that
// sorting mixed columns stays deterministic.
func Compare(a, b Value) int {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case Null:
		return 0
	case Bool:
		bv := b.(Bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case Int, Float:
		af, _ := AsFloat(a)
		bf, _ := AsFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case String:
		bv := b.(String)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func kindRank(v Value) int {
	switch v.(type) {
	case Null:
		return 0
	case Bool:
		return 1
	case Int, Float:
		return 2
	case String:
		return 3
	default:
		return 4
	}
}
