package resolve

import "github.com/waspc/wasp/wasm"

// operator is a builtin binary function. The instruction for an operand
// type is that type's prefix plus the integer or float suffix; an empty
// float suffix makes the operator integer-only.
type operator struct {
	integer    string
	float      string
	comparison bool
}

var operators = map[string]operator{
	"+":  {integer: "add", float: "add"},
	"-":  {integer: "sub", float: "sub"},
	"*":  {integer: "mul", float: "mul"},
	"/":  {integer: "div_s", float: "div"},
	"%":  {integer: "rem_s"},
	"==": {integer: "eq", float: "eq", comparison: true},
	"!=": {integer: "ne", float: "ne", comparison: true},
	"<":  {integer: "lt_s", float: "lt", comparison: true},
	">":  {integer: "gt_s", float: "gt", comparison: true},
	"<=": {integer: "le_s", float: "le", comparison: true},
	">=": {integer: "ge_s", float: "ge", comparison: true},
	"&":  {integer: "and"},
	"|":  {integer: "or"},
	"^":  {integer: "xor"},
	"<<": {integer: "shl"},
	">>": {integer: "shr_s"},
}

// instruction returns the instruction implementing op on operands of type
// t, or false if op does not accept t.
func (op operator) instruction(t wasm.ValueType) (string, bool) {
	suffix := op.float
	if t.IsInteger() {
		suffix = op.integer
	}
	if suffix == "" {
		return "", false
	}
	return t.String() + "." + suffix, true
}

// result returns the type of op applied to operands of type t.
func (op operator) result(t wasm.ValueType) wasm.ValueType {
	if op.comparison {
		return wasm.I32
	}
	return t
}
