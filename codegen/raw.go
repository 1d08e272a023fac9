package codegen

import (
	"errors"
	"fmt"

	"github.com/waspc/wasp/ast"
	"github.com/waspc/wasp/wasm"
)

// RawOperationError reports a low-level body whose operations do not form a
// sequence of instructions with their immediates.
type RawOperationError struct {
	Function string
	// Position is the index of the offending operation in the body,
	// counting comments.
	Position int
	Msg      string
}

func (e *RawOperationError) Error() string {
	return fmt.Sprintf("function '%s', operation %d: %s", e.Function, e.Position, e.Msg)
}

// rawToken is a non-comment operation of a low-level body. name is empty
// for numbers.
type rawToken struct {
	pos   int
	name  string
	value int32
}

type tokenizer struct{}

func (tokenizer) VisitComment(*ast.Comment) *rawToken { return nil }

func (tokenizer) VisitIdentifier(id *ast.Identifier) *rawToken {
	return &rawToken{name: id.Name}
}

func (tokenizer) VisitNumber(n *ast.Number) *rawToken {
	return &rawToken{value: n.Value}
}

// rawBody pairs each instruction identifier with the operations that follow
// it as immediates. Instructions are emitted in order without changes.
func (g *generator) rawBody(f *ast.WasmFunctionDefinition) ([]wasm.Instr, error) {
	var tokens []rawToken
	for i, op := range f.Children {
		if tok := ast.VisitOperation[*rawToken](op, tokenizer{}); tok != nil {
			tok.pos = i
			tokens = append(tokens, *tok)
		}
	}

	fail := func(tok rawToken, format string, args ...any) error {
		return &RawOperationError{Function: f.Name, Position: tok.pos, Msg: fmt.Sprintf(format, args...)}
	}

	var body []wasm.Instr
	for i := 0; i < len(tokens); {
		tok := tokens[i]
		i++
		if tok.name == "" {
			return nil, fail(tok, "stray immediate %d", tok.value)
		}
		inst, ok := wasm.LookupInstruction(tok.name)
		if !ok {
			return nil, fail(tok, "'%s' is not an instruction", tok.name)
		}

		imms := make([]int64, 0, len(inst.Immediates))
		for _, kind := range inst.Immediates {
			if i >= len(tokens) {
				return nil, fail(tok, "%s is missing an immediate", inst.Name)
			}
			v, err := g.immediate(kind, tokens[i])
			if errors.Is(err, errNotImmediate) {
				return nil, fail(tok, "%s is missing an immediate", inst.Name)
			}
			if err != nil {
				return nil, fail(tokens[i], "%s: %v", inst.Name, err)
			}
			imms = append(imms, v)
			i++
		}
		body = append(body, wasm.Instr{Op: inst, Imms: imms})
	}
	return body, nil
}

// errNotImmediate is returned by immediate for a token naming an
// instruction: the previous instruction ran out of immediates.
var errNotImmediate = errors.New("instruction in immediate position")

// immediate converts tok to an immediate of the given kind.
func (g *generator) immediate(kind wasm.ImmediateKind, tok rawToken) (int64, error) {
	if tok.name == "" {
		switch kind {
		case wasm.ImmBlockType:
			return 0, fmt.Errorf("block type must be a value type or void, got %d", tok.value)
		case wasm.ImmFunc:
			if tok.value < 0 || int(tok.value) >= len(g.info.Functions) {
				return 0, fmt.Errorf("function index %d out of range", tok.value)
			}
		case wasm.ImmIndex, wasm.ImmAlign, wasm.ImmOffset:
			if tok.value < 0 {
				return 0, fmt.Errorf("immediate %d must not be negative", tok.value)
			}
		}
		return int64(tok.value), nil
	}

	switch kind {
	case wasm.ImmBlockType:
		if tok.name == "void" {
			return wasm.BlockTypeEmpty, nil
		}
		if t, ok := wasm.ParseValueType(tok.name); ok {
			return int64(t), nil
		}
	case wasm.ImmFunc:
		if fn, ok := g.info.Function(tok.name); ok {
			return int64(fn.Index), nil
		}
	default:
		if _, ok := g.globals[tok.name]; ok {
			return int64(g.constant(tok.name)), nil
		}
	}

	if _, ok := wasm.LookupInstruction(tok.name); ok {
		return 0, errNotImmediate
	}
	return 0, fmt.Errorf("unknown immediate '%s'", tok.name)
}
