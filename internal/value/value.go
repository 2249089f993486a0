package value

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface representing leaf values in a data graph.
// Only Null, String, Int, Float, and Bool implement it. Composite shapes
// (objects, arrays) are graph nodes, never Values.
type Value interface {
	leafValue() // Sealed - only these types implement it
}

// Null represents an explicit null leaf.
// Distinct from an absent key: reading a missing key yields nothing at all,
// reading a Null yields a present null.
type Null struct{}

func (Null) leafValue() {}

// String represents a string leaf.
type String string

func (String) leafValue() {}

// Int represents an integer leaf. Always int64.
type Int int64

func (Int) leafValue() {}

// Float represents a floating-point leaf.
// NaN and infinities are rejected at conversion and canonical marshalling
// time because they have no JSON representation.
type Float float64

func (Float) leafValue() {}

// Bool represents a boolean leaf.
type Bool bool

func (Bool) leafValue() {}

// FromGo converts a plain Go scalar to a Value.
// Accepts the types produced by yaml.v3 and encoding/json decoding.
// Composite Go values (maps, slices) are not leaves and return an error;
// callers building graphs handle those shapes themselves.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case json.Number:
		// Produced by decoders running with UseNumber (see internal/journal):
		// integers stay exact instead of rounding through float64.
		if i, err := strconv.ParseInt(string(val), 10, 64); err == nil {
			return Int(i), nil
		}
		f, err := strconv.ParseFloat(string(val), 64)
		if err != nil {
			return nil, fmt.Errorf("unparseable number %q: %w", val, err)
		}
		return Float(f), nil
	case float64:
		// YAML and JSON decode all numbers with a fractional part to float64.
		return Float(val), nil
	case float32:
		return Float(val), nil
	case bool:
		return Bool(val), nil
	default:
		return nil, fmt.Errorf("unsupported leaf type: %T", v)
	}
}

// ToGo converts a Value back to the plain Go scalar used for serialization
// and assertion comparison. Null converts to nil.
func ToGo(v Value) any {
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
		// Sealed interface - unreachable unless a new variant is added.
		panic(fmt.Sprintf("unknown value variant: %T", v))
	}
}

// Equal reports whether two Values hold the same variant and payload.
// Int and Float never compare equal even when numerically identical;
// the variant is part of the value.
func Equal(a, b Value) bool {
	return a == b
}

// SortKeysCanonical sorts keys in place into RFC 8785 canonical order
// (UTF-16 code units). Go's sort.Strings uses UTF-8 byte order, which
// differs for characters outside the BMP.
func SortKeysCanonical(keys []string) {
	slices.SortFunc(keys, compareKeysRFC8785)
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := len(a16)
	if len(b16) < minLen {
		minLen = len(b16)
	}

	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}
