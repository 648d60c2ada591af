package models

import (
	"strconv"
	"strings"
)

// Value is one decoded property. Only the member matching Kind is meaningful.
type Value struct {
	Kind ValueKind
	Bool bool
	Uint uint64
	Bits string
}

func BoolValue(b bool) Value   { return Value{Kind: Boolean, Bool: b} }
func UintValue(n uint64) Value { return Value{Kind: UnsignedInt, Uint: n} }
func BitsValue(s string) Value { return Value{Kind: BitString, Bits: s} }

// String renders the value the way the text form writes it.
func (v Value) String() string {
	switch v.Kind {
	case Boolean:
		return strconv.FormatBool(v.Bool)
	case UnsignedInt:
		return strconv.FormatUint(v.Uint, 10)
	case BitString:
		return v.Bits
	default:
		return "<invalid>"
	}
}

// Raw converts the value to the integer stored in the blob, most
// significant bit first for bit strings. It does not check widths.
func (v Value) Raw() (uint64, error) {
	switch v.Kind {
	case Boolean:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case UnsignedInt:
		return v.Uint, nil
	case BitString:
		if v.Bits == "" || strings.Trim(v.Bits, "01") != "" {
			return 0, &ParseError{Input: v.Bits, Reason: "bitstring should contain only 0 and 1"}
		}
		if len(v.Bits) > MaxBitWidth {
			return 0, &ValueOverflowError{Value: v.Bits, BitWidth: MaxBitWidth}
		}
		return strconv.ParseUint(v.Bits, 2, 64)
	default:
		return 0, &ParseError{Input: v.String(), Reason: "value has no kind"}
	}
}

// PropertyTable maps field names to their current values.
type PropertyTable map[string]Value

// Clone returns an independent copy of the table.
func (t PropertyTable) Clone() PropertyTable {
	out := make(PropertyTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Equal reports whether both tables hold the same names and values.
func (t PropertyTable) Equal(other PropertyTable) bool {
	if len(t) != len(other) {
		return false
	}
	for k, v := range t {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
