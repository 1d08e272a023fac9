package resolve

import (
	"fmt"

	"github.com/waspc/wasp/sexy"
	"github.com/waspc/wasp/wasm"
)

// Environment maps external function names to their host signatures.
type Environment map[string]wasm.FuncType

// ParseEnvironment reads host signatures written as
//
//	(env
//	  (func "log" (params i32))
//	  (func "now" (results i64)))
//
// Missing params or results clauses mean none.
func ParseEnvironment(input string) (Environment, error) {
	root, err := sexy.Parse(input)
	if err != nil {
		return nil, err
	}
	if root.Head() != "env" {
		return nil, fmt.Errorf("line %d: expected (env ...), got %s", root.Line, root)
	}

	env := make(Environment)
	for _, item := range root.Items[1:] {
		if item.Head() != "func" || len(item.Items) < 2 || item.Items[1].Type != sexy.NodeString {
			return nil, fmt.Errorf("line %d: expected (func \"name\" ...), got %s", item.Line, item)
		}
		name := item.Items[1].Text
		if _, dup := env[name]; dup {
			return nil, fmt.Errorf("line %d: duplicate function '%s'", item.Line, name)
		}

		var ft wasm.FuncType
		for _, clause := range item.Items[2:] {
			var dst *[]wasm.ValueType
			switch clause.Head() {
			case "params":
				dst = &ft.Params
			case "results":
				dst = &ft.Results
			default:
				return nil, fmt.Errorf("line %d: unknown clause %s in function '%s'", clause.Line, clause, name)
			}
			for _, t := range clause.Items[1:] {
				vt, ok := wasm.ParseValueType(t.Text)
				if t.Type != sexy.NodeSymbol || !ok {
					return nil, fmt.Errorf("line %d: unknown value type %s", t.Line, t)
				}
				*dst = append(*dst, vt)
			}
		}
		env[name] = ft
	}
	return env, nil
}
