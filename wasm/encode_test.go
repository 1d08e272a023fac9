// Binary and text encoding tests
//
// Covers the LEB128 utilities, single instruction encoding, and whole-module
// output in both formats.

package wasm

import (
	"bytes"
	"testing"

	"github.com/nalgeon/be"
)

// =============================================================================
// WASM UTILITY TESTS
// =============================================================================

func TestWriteByte(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	writeByte(&buf, 0x42)
	writeByte(&buf, 0xFF)

	be.True(t, bytes.Equal(buf.Bytes(), []byte{0x42, 0xFF}))
}

func TestWriteLEB128(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    uint32
		expected []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}

	for _, test := range tests {
		var buf bytes.Buffer
		writeLEB128(&buf, test.input)
		be.Equal(t, buf.Bytes(), test.expected)
	}
}

func TestWriteLEB128Signed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    int64
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7F}},
		{127, []byte{0xFF, 0x00}},
		{-128, []byte{0x80, 0x7F}},
		{128, []byte{0x80, 0x01}},
		{-129, []byte{0xFF, 0x7E}},
	}

	for _, test := range tests {
		var buf bytes.Buffer
		writeLEB128Signed(&buf, test.input)
		be.Equal(t, buf.Bytes(), test.expected)
	}
}

func TestWriteName(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	writeName(&buf, "env")
	be.Equal(t, buf.Bytes(), []byte{0x03, 'e', 'n', 'v'})
}

func TestEmitWASMHeader(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	EmitWASMHeader(&buf)

	// WASM magic number (0x00 0x61 0x73 0x6D) + version (0x01 0x00 0x00 0x00)
	be.Equal(t, buf.Bytes(), []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00})
}

// =============================================================================
// INSTRUCTION TESTS
// =============================================================================

func TestEmitInstr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		instr    Instr
		expected []byte
	}{
		{"local.get", NewInstr("local.get", 0), []byte{LOCAL_GET, 0x00}},
		{"i32.const negative", NewInstr("i32.const", -1), []byte{I32_CONST, 0x7F}},
		{"i32.add", NewInstr("i32.add"), []byte{0x6A}},
		{"i32.load memarg", NewInstr("i32.load", 2, 8), []byte{0x28, 0x02, 0x08}},
		{"memory.grow reserved byte", NewInstr("memory.grow"), []byte{0x40, 0x00}},
		{"f32.const", NewInstr("f32.const", 1), []byte{0x43, 0x00, 0x00, 0x80, 0x3F}},
		{"f64.const", NewInstr("f64.const", 2), []byte{0x44, 0, 0, 0, 0, 0, 0, 0x00, 0x40}},
		{"block with result", NewInstr("block", int64(I32)), []byte{BLOCK, 0x7F}},
		{"call", NewInstr("call", 3), []byte{CALL, 0x03}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := EmitInstr(&buf, test.instr)
			be.Err(t, err, nil)
			be.Equal(t, buf.Bytes(), test.expected)
		})
	}
}

func TestEmitInstrWrongImmediateCount(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := EmitInstr(&buf, Instr{Op: MustLookupInstruction("local.get")})
	be.Err(t, err, "local.get expects 1 immediates, got 0")
}

func TestEmitInstrI32OutOfRange(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := EmitInstr(&buf, NewInstr("i32.const", 1<<40))
	be.Err(t, err, "out of range for i32")
}

func TestLookupInstruction(t *testing.T) {
	t.Parallel()
	inst, ok := LookupInstruction("i64.extend_i32_s")
	be.True(t, ok)
	be.Equal(t, inst.Opcode, byte(0xAC))

	_, ok = LookupInstruction("i32.frobnicate")
	be.Equal(t, ok, false)
}

func TestInstructionTableHasUniqueOpcodes(t *testing.T) {
	t.Parallel()
	seen := map[byte]string{}
	for _, inst := range instructionList {
		if prev, ok := seen[inst.Opcode]; ok {
			t.Errorf("opcode 0x%02x used by both %s and %s", inst.Opcode, prev, inst.Name)
		}
		seen[inst.Opcode] = inst.Name
	}
}

// =============================================================================
// MODULE TESTS
// =============================================================================

func incModule() *Module {
	m := &Module{}
	typeIdx := m.AddType(FuncType{Params: []ValueType{I32}, Results: []ValueType{I32}})
	m.Funcs = append(m.Funcs, Func{
		Name:    "inc",
		TypeIdx: typeIdx,
		Locals:  []ValueType{I32},
		Body: []Instr{
			NewInstr("local.get", 0),
			NewInstr("i32.const", 1),
			NewInstr("i32.add"),
		},
	})
	m.Exports = append(m.Exports, Export{Name: "inc", Kind: ExportFunc, Index: 0})
	return m
}

func TestEncodeModule(t *testing.T) {
	t.Parallel()
	wasmBytes, err := Encode(incModule())
	be.Err(t, err, nil)

	expected := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00, // header
		0x01, 0x06, 0x01, 0x60, 0x01, 0x7F, 0x01, 0x7F, // type section
		0x03, 0x02, 0x01, 0x00, // function section
		0x07, 0x07, 0x01, 0x03, 'i', 'n', 'c', 0x00, 0x00, // export section
		0x0A, 0x0B, 0x01, 0x09, 0x01, 0x01, 0x7F, 0x20, 0x00, 0x41, 0x01, 0x6A, 0x0B, // code section
	}
	be.Equal(t, wasmBytes, expected)
}

func TestEncodeMemoryAndData(t *testing.T) {
	t.Parallel()
	m := &Module{
		Memory: &Memory{MinPages: 1},
		Data:   []DataSegment{{Offset: 4, Bytes: []byte("hi\x00")}},
	}
	wasmBytes, err := Encode(m)
	be.Err(t, err, nil)

	expected := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01, // memory section
		0x0B, 0x09, 0x01, 0x00, 0x41, 0x04, 0x0B, 0x03, 'h', 'i', 0x00, // data section
	}
	be.Equal(t, wasmBytes, expected)
}

func TestAddTypeDeduplicates(t *testing.T) {
	t.Parallel()
	m := &Module{}
	a := m.AddType(FuncType{Params: []ValueType{I32, I32}, Results: []ValueType{I32}})
	b := m.AddType(FuncType{})
	c := m.AddType(FuncType{Params: []ValueType{I32, I32}, Results: []ValueType{I32}})
	be.Equal(t, a, uint32(0))
	be.Equal(t, b, uint32(1))
	be.Equal(t, c, uint32(0))
	be.Equal(t, len(m.Types), 2)
}

func TestGroupLocals(t *testing.T) {
	t.Parallel()
	groups := groupLocals([]ValueType{I32, I32, F64, I32})
	be.Equal(t, groups, []localGroup{{2, I32}, {1, F64}, {1, I32}})
}

func TestFormatWAT(t *testing.T) {
	t.Parallel()
	expected := `(module
  (type (;0;) (func (param i32) (result i32)))
  (func $inc (type 0) (param i32) (result i32)
    (local i32)
    local.get 0
    i32.const 1
    i32.add
  )
  (export "inc" (func 0))
)
`
	be.Equal(t, FormatWAT(incModule()), expected)
}

func TestFormatWATImportsMemoryAndData(t *testing.T) {
	t.Parallel()
	m := &Module{
		Types:   []FuncType{{Params: []ValueType{I32}}},
		Imports: []Import{{Module: "env", Name: "log", TypeIdx: 0}},
		Memory:  &Memory{MinPages: 1},
		Exports: []Export{{Name: "memory", Kind: ExportMemory, Index: 0}},
		Data:    []DataSegment{{Offset: 4, Bytes: []byte("a\"\n\x00")}},
	}
	expected := `(module
  (type (;0;) (func (param i32)))
  (import "env" "log" (func $log (type 0)))
  (memory (;0;) 1)
  (export "memory" (memory 0))
  (data (i32.const 4) "a\"\0a\00")
)
`
	be.Equal(t, FormatWAT(m), expected)
}

func TestFormatInstr(t *testing.T) {
	t.Parallel()
	be.Equal(t, FormatInstr(NewInstr("i32.store", 2, 16)), "i32.store align=4 offset=16")
	be.Equal(t, FormatInstr(NewInstr("block", BlockTypeEmpty)), "block")
	be.Equal(t, FormatInstr(NewInstr("loop", int64(I64))), "loop (result i64)")
	be.Equal(t, FormatInstr(NewInstr("f64.const", 3)), "f64.const 3")
}
