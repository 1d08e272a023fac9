package codegen

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/nalgeon/be"
	"github.com/rs/zerolog"

	"github.com/waspc/wasp/ast"
	"github.com/waspc/wasp/resolve"
	"github.com/waspc/wasp/wasm"
)

func program(children ...ast.TopLevel) *ast.Program {
	return &ast.Program{Children: children}
}

func global(name string, value ast.GlobalValue) *ast.Global {
	return &ast.Global{Name: name, Value: value}
}

// generate resolves p and generates its module. Resolution must succeed.
func generate(t *testing.T, p *ast.Program, opts ...Option) (*wasm.Module, error) {
	t.Helper()
	info, err := resolve.Resolve(p)
	be.Err(t, err, nil)
	return Generate(p, info, opts...)
}

func mustGenerate(t *testing.T, p *ast.Program, opts ...Option) *wasm.Module {
	t.Helper()
	m, err := generate(t, p, opts...)
	be.Err(t, err, nil)
	return m
}

// text renders a function body one instruction per line.
func text(body []wasm.Instr) []string {
	out := make([]string, len(body))
	for i, instr := range body {
		out[i] = wasm.FormatInstr(instr)
	}
	return out
}

func diff(t *testing.T, got, want any) {
	t.Helper()
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("mismatch (-want +got):\n%s", d)
	}
}

func TestGenerateAddFunction(t *testing.T) {
	t.Parallel()
	add := &ast.FunctionDefinition{
		Name:         "add",
		ExternalName: "add",
		Params:       []ast.Param{{Name: "a"}, {Name: "b"}},
		Output:       "i32",
		Children:     []ast.Expression{ast.Call("+", ast.Ident("a"), ast.Ident("b"))},
	}
	m := mustGenerate(t, program(add))

	be.Equal(t, len(m.Funcs), 1)
	diff(t, text(m.Funcs[0].Body), []string{"local.get 0", "local.get 1", "i32.add"})
	diff(t, m.Types, []wasm.FuncType{{Params: []wasm.ValueType{wasm.I32, wasm.I32}, Results: []wasm.ValueType{wasm.I32}}})
	diff(t, m.Exports, []wasm.Export{
		{Name: "add", Kind: wasm.ExportFunc, Index: 0},
		{Name: "memory", Kind: wasm.ExportMemory, Index: 0},
	})
	be.Equal(t, len(m.Data), 0)
}

func TestGenerateDropsUnusedValues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		fn   *ast.FunctionDefinition
		want []string
	}{
		{
			name: "result keeps only the last value",
			fn: &ast.FunctionDefinition{
				Name:     "f",
				Output:   "i32",
				Children: []ast.Expression{ast.Num(1), ast.Num(2), ast.NewComment("trailing")},
			},
			want: []string{"i32.const 1", "drop", "i32.const 2"},
		},
		{
			name: "no result drops everything",
			fn: &ast.FunctionDefinition{
				Name:     "f",
				Children: []ast.Expression{ast.Num(7)},
			},
			want: []string{"i32.const 7", "drop"},
		},
		{
			name: "empty list emits nothing",
			fn: &ast.FunctionDefinition{
				Name:     "f",
				Children: []ast.Expression{ast.Empty(), ast.NewComment("c")},
			},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := mustGenerate(t, program(tt.fn))
			diff(t, text(m.Funcs[0].Body), tt.want)
		})
	}
}

func TestGenerateDropsEveryResultOfStatement(t *testing.T) {
	t.Parallel()
	pair := &ast.WasmFunctionDefinition{
		Name:     "pair",
		Outputs:  []wasm.ValueType{wasm.I32, wasm.I64},
		Children: ops("i32.const", 1, "i64.const", 2),
	}
	main := &ast.FunctionDefinition{
		Name:   "main",
		Output: "i32",
		Children: []ast.Expression{
			ast.Call("pair"),
			&ast.Let{Expressions: []ast.Expression{ast.Call("pair")}},
			ast.Num(0),
		},
	}
	m := mustGenerate(t, program(pair, main))
	diff(t, text(m.Funcs[1].Body), []string{
		"call 0", "drop", "drop",
		"call 0", "drop", "drop",
		"i32.const 0",
	})
}

func TestGenerateCallsExternalWithoutResult(t *testing.T) {
	t.Parallel()
	p := program(
		&ast.ExternalFunction{Name: "log", Params: []string{"x"}},
		&ast.FunctionDefinition{
			Name:     "main",
			Children: []ast.Expression{ast.Call("log", ast.Num(2)), ast.Call("log", ast.Num(3))},
		},
	)
	m := mustGenerate(t, p)

	diff(t, m.Imports, []wasm.Import{{Module: "env", Name: "log", TypeIdx: 0}})
	diff(t, text(m.Funcs[0].Body), []string{"i32.const 2", "call 0", "i32.const 3", "call 0"})
}

func TestGenerateLetLocals(t *testing.T) {
	t.Parallel()
	f := &ast.FunctionDefinition{
		Name:   "f",
		Params: []ast.Param{{Name: "a"}},
		Output: "i32",
		Children: []ast.Expression{&ast.Let{
			Bindings: []ast.Binding{
				ast.Bind("x", ast.Call("+", ast.Ident("a"), ast.Num(1))),
				ast.Bind("y", ast.Call("*", ast.Ident("x"), ast.Num(2))),
			},
			Expressions: []ast.Expression{ast.Ident("y")},
		}},
	}
	m := mustGenerate(t, program(f))

	diff(t, m.Funcs[0].Locals, []wasm.ValueType{wasm.I32, wasm.I32})
	diff(t, text(m.Funcs[0].Body), []string{
		"local.get 0", "i32.const 1", "i32.add", "local.set 1",
		"local.get 1", "i32.const 2", "i32.mul", "local.set 2",
		"local.get 2",
	})
}

func TestGenerateShadowedLetGetsNewLocal(t *testing.T) {
	t.Parallel()
	f := &ast.FunctionDefinition{
		Name:   "f",
		Output: "i32",
		Children: []ast.Expression{&ast.Let{
			Bindings:    []ast.Binding{ast.Bind("x", ast.Num(1)), ast.Bind("x", ast.Call("+", ast.Ident("x"), ast.Num(1)))},
			Expressions: []ast.Expression{ast.Ident("x")},
		}},
	}
	m := mustGenerate(t, program(f))
	diff(t, text(m.Funcs[0].Body), []string{
		"i32.const 1", "local.set 0",
		"local.get 0", "i32.const 1", "i32.add", "local.set 1",
		"local.get 1",
	})
}

func TestGenerateDataLayout(t *testing.T) {
	t.Parallel()
	p := program(
		global("msg", ast.Text("hi")),
		global("table", ast.NewData(ast.Num(1), ast.Ident("msg"), ast.Text("yo"))),
		global("ref", ast.Ident("table")),
		&ast.FunctionDefinition{Name: "f", Output: "i32", Children: []ast.Expression{ast.Ident("ref")}},
	)
	m := mustGenerate(t, p)

	want := []byte{
		'h', 'i', 0, 0, // msg at 4
		1, 0, 0, 0, // table at 8
		4, 0, 0, 0,
		20, 0, 0, 0,
		'y', 'o', 0, // nested text at 20
	}
	diff(t, m.Data, []wasm.DataSegment{{Offset: DefaultDataOffset, Bytes: want}})
	diff(t, text(m.Funcs[0].Body), []string{"i32.const 8"})
}

func TestGenerateAliasesShareAddress(t *testing.T) {
	t.Parallel()
	p := program(
		global("a", ast.Text("x")),
		global("b", ast.Ident("a")),
		&ast.FunctionDefinition{Name: "f", Children: []ast.Expression{ast.Ident("a"), ast.Ident("b")}},
	)
	m := mustGenerate(t, p)

	diff(t, text(m.Funcs[0].Body), []string{"i32.const 4", "drop", "i32.const 4", "drop"})
	diff(t, m.Data[0].Bytes, []byte{'x', 0})
}

func TestGenerateTextInBody(t *testing.T) {
	t.Parallel()
	text1 := ast.Text("abc")
	f := &ast.FunctionDefinition{Name: "f", Output: "i32", Children: []ast.Expression{text1}}
	m := mustGenerate(t, program(global("n", ast.Num(3)), f))

	diff(t, text(m.Funcs[0].Body), []string{"i32.const 4"})
	diff(t, m.Data[0].Bytes, []byte{'a', 'b', 'c', 0})
}

func TestGenerateMemory(t *testing.T) {
	t.Parallel()
	big := global("big", ast.Text(strings.Repeat("x", PageSize)))

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		m := mustGenerate(t, program())
		be.Equal(t, m.Memory.MinPages, uint32(1))
		diff(t, m.Exports, []wasm.Export{{Name: "memory", Kind: wasm.ExportMemory}})
	})
	t.Run("grows for data", func(t *testing.T) {
		t.Parallel()
		m := mustGenerate(t, program(big))
		be.Equal(t, m.Memory.MinPages, uint32(2))
	})
	t.Run("configured pages", func(t *testing.T) {
		t.Parallel()
		m := mustGenerate(t, program(big), WithMemoryPages(3))
		be.Equal(t, m.Memory.MinPages, uint32(3))
	})
	t.Run("not exported", func(t *testing.T) {
		t.Parallel()
		m := mustGenerate(t, program(), WithoutMemoryExport())
		be.Equal(t, len(m.Exports), 0)
	})
}

func TestGenerateDataOffset(t *testing.T) {
	t.Parallel()
	p := program(global("s", ast.Text("a")), &ast.FunctionDefinition{Name: "f", Output: "i32", Children: []ast.Expression{ast.Ident("s")}})
	m := mustGenerate(t, p, WithDataOffset(6))

	be.Equal(t, m.Data[0].Offset, uint32(8))
	diff(t, text(m.Funcs[0].Body), []string{"i32.const 8"})
}

func TestGenerateImportModule(t *testing.T) {
	t.Parallel()
	m := mustGenerate(t, program(&ast.ExternalFunction{Name: "now"}), WithImportModule("host"))
	diff(t, m.Imports, []wasm.Import{{Module: "host", Name: "now", TypeIdx: 0}})
}

func TestGenerateDuplicateExport(t *testing.T) {
	t.Parallel()
	p := program(
		&ast.FunctionDefinition{Name: "a", ExternalName: "run"},
		&ast.FunctionDefinition{Name: "b", ExternalName: "run"},
	)
	_, err := generate(t, p)
	be.Err(t, err, "duplicate export name 'run'")

	clash := program(&ast.FunctionDefinition{Name: "a", ExternalName: "memory"})
	_, err = generate(t, clash)
	be.Err(t, err, "duplicate export name 'memory'")

	_, err = generate(t, clash, WithoutMemoryExport())
	be.Err(t, err, nil)
}

func TestGenerateIndexSpace(t *testing.T) {
	t.Parallel()
	p := program(
		&ast.FunctionDefinition{Name: "main", ExternalName: "main", Children: []ast.Expression{ast.Call("helper")}},
		&ast.ExternalFunction{Name: "helper"},
		&ast.WasmFunctionDefinition{Name: "raw", Children: []ast.WasmOperation{ast.Ident("nop")}},
	)
	m := mustGenerate(t, p)

	be.Equal(t, len(m.Imports), 1)
	be.Equal(t, len(m.Funcs), 2)
	be.Equal(t, m.Funcs[0].Name, "main")
	be.Equal(t, m.Funcs[1].Name, "raw")
	diff(t, text(m.Funcs[0].Body), []string{"call 0"})
	be.Equal(t, m.Exports[0].Index, uint32(1))
}

func TestGenerateCallsUserFunction(t *testing.T) {
	t.Parallel()
	p := program(
		&ast.FunctionDefinition{Name: "one", Output: "i32", Children: []ast.Expression{ast.Num(1)}},
		&ast.FunctionDefinition{Name: "two", Output: "i32", Children: []ast.Expression{ast.Call("+", ast.Call("one"), ast.Call("one"))}},
	)
	m := mustGenerate(t, p)
	diff(t, text(m.Funcs[1].Body), []string{"call 0", "call 0", "i32.add"})
	be.Equal(t, len(m.Types), 1)
}

func TestGenerateUnresolvedInfo(t *testing.T) {
	t.Parallel()
	f := &ast.FunctionDefinition{Name: "f", Children: []ast.Expression{ast.Ident("x")}}
	p := program(f)
	info := &resolve.Info{
		Types:   map[ast.Expression]wasm.ValueType{},
		Symbols: map[*ast.Identifier]*resolve.Symbol{},
		Functions: []*resolve.Function{
			{Name: "f", Decl: f},
		},
	}
	_, err := Generate(p, info)
	be.Err(t, err, "function 'f': identifier 'x' was not resolved")
}

func TestGenerateWAT(t *testing.T) {
	t.Parallel()
	p := program(
		ast.NewComment("host logging"),
		&ast.ExternalFunction{Name: "log", Params: []string{"msg"}},
		global("greeting", ast.Text("hi")),
		&ast.FunctionDefinition{
			Name:         "main",
			ExternalName: "main",
			Children:     []ast.Expression{ast.Call("log", ast.Ident("greeting"))},
		},
	)
	m := mustGenerate(t, p)

	want := `(module
  (type (;0;) (func (param i32)))
  (type (;1;) (func))
  (import "env" "log" (func $log (type 0)))
  (func $main (type 1)
    i32.const 4
    call 0
  )
  (memory (;0;) 1)
  (export "main" (func 1))
  (export "memory" (memory 0))
  (data (i32.const 4) "hi\00")
)
`
	be.Equal(t, wasm.FormatWAT(m), want)

	bin, err := wasm.Encode(m)
	be.Err(t, err, nil)
	be.True(t, bytes.HasPrefix(bin, []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}))
}

func TestGenerateDoesNotModifyTree(t *testing.T) {
	t.Parallel()
	p := program(
		global("s", ast.NewData(ast.Text("a"), ast.Num(2))),
		&ast.FunctionDefinition{Name: "f", Children: []ast.Expression{ast.NewComment("c"), ast.Ident("s")}},
	)
	before := ast.ToSExpr(p)
	mustGenerate(t, p)
	be.Equal(t, ast.ToSExpr(p), before)
}

func TestGenerateConcurrent(t *testing.T) {
	t.Parallel()
	p := program(
		global("s", ast.Text("shared")),
		&ast.FunctionDefinition{Name: "f", Output: "i32", Children: []ast.Expression{ast.Ident("s")}},
	)
	info, err := resolve.Resolve(p)
	be.Err(t, err, nil)

	want := wasm.FormatWAT(mustGenerate(t, p))
	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := Generate(p, info)
			if err == nil {
				results[i] = wasm.FormatWAT(m)
			}
		}()
	}
	wg.Wait()
	for _, got := range results {
		be.Equal(t, got, want)
	}
}

func TestGenerateLogs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	mustGenerate(t, program(global("s", ast.Text("ab"))), WithLogger(log))

	be.True(t, strings.Contains(buf.String(), `"component":"codegen"`))
	be.True(t, strings.Contains(buf.String(), `"data_bytes":3`))
}

func TestGenerateCollectsErrors(t *testing.T) {
	t.Parallel()
	p := program(
		&ast.WasmFunctionDefinition{Name: "a", Children: []ast.WasmOperation{ast.Num(1)}},
		&ast.WasmFunctionDefinition{Name: "b", Children: []ast.WasmOperation{ast.Ident("local.get")}},
	)
	_, err := generate(t, p)

	var merr *multierror.Error
	be.True(t, errors.As(err, &merr))
	be.Equal(t, len(merr.Errors), 2)
}
