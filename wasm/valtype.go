// Package wasm models the parts of a WebAssembly module the wasp back-end
// produces, and encodes them in the binary and text formats.
package wasm

import "fmt"

// ValueType is a WebAssembly numeric value type. The constant values are the
// binary encodings.
type ValueType byte

const (
	I32 ValueType = 0x7F
	I64 ValueType = 0x7E
	F32 ValueType = 0x7D
	F64 ValueType = 0x7C
)

// ValueTypes lists every value type in canonical order.
var ValueTypes = []ValueType{I32, I64, F32, F64}

func (t ValueType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return fmt.Sprintf("ValueType(0x%02x)", byte(t))
	}
}

// IsInteger reports whether t is i32 or i64.
func (t ValueType) IsInteger() bool {
	return t == I32 || t == I64
}

// ParseValueType maps a text-format type name ("i32") to its ValueType.
func ParseValueType(name string) (ValueType, bool) {
	switch name {
	case "i32":
		return I32, true
	case "i64":
		return I64, true
	case "f32":
		return F32, true
	case "f64":
		return F64, true
	default:
		return 0, false
	}
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

func (ft FuncType) Equal(other FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i, p := range ft.Params {
		if p != other.Params[i] {
			return false
		}
	}
	for i, r := range ft.Results {
		if r != other.Results[i] {
			return false
		}
	}
	return true
}

func (ft FuncType) String() string {
	return fmt.Sprintf("%v -> %v", ft.Params, ft.Results)
}
