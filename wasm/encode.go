package wasm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Section ids, in the order they must appear.
const (
	sectionType     = 0x01
	sectionImport   = 0x02
	sectionFunction = 0x03
	sectionMemory   = 0x05
	sectionExport   = 0x07
	sectionCode     = 0x0A
	sectionData     = 0x0B
)

// Encode returns the binary encoding of m.
func Encode(m *Module) ([]byte, error) {
	var buf bytes.Buffer

	// Emit WASM module header and sections in streaming fashion
	EmitWASMHeader(&buf)
	EmitTypeSection(&buf, m)
	EmitImportSection(&buf, m)
	EmitFunctionSection(&buf, m)
	EmitMemorySection(&buf, m)
	EmitExportSection(&buf, m)
	if err := EmitCodeSection(&buf, m); err != nil {
		return nil, err
	}
	EmitDataSection(&buf, m)

	return buf.Bytes(), nil
}

// WASM Section Emitters
func EmitWASMHeader(buf *bytes.Buffer) {
	// WASM magic number
	writeBytes(buf, []byte{0x00, 0x61, 0x73, 0x6D})
	// WASM version
	writeBytes(buf, []byte{0x01, 0x00, 0x00, 0x00})
}

func EmitTypeSection(buf *bytes.Buffer, m *Module) {
	if len(m.Types) == 0 {
		return
	}

	// Build section content in temporary buffer to calculate size
	var sectionBuf bytes.Buffer
	writeLEB128(&sectionBuf, uint32(len(m.Types)))
	for _, ft := range m.Types {
		writeByte(&sectionBuf, 0x60) // func type
		writeLEB128(&sectionBuf, uint32(len(ft.Params)))
		for _, p := range ft.Params {
			writeByte(&sectionBuf, byte(p))
		}
		writeLEB128(&sectionBuf, uint32(len(ft.Results)))
		for _, r := range ft.Results {
			writeByte(&sectionBuf, byte(r))
		}
	}

	writeSection(buf, sectionType, &sectionBuf)
}

func EmitImportSection(buf *bytes.Buffer, m *Module) {
	if len(m.Imports) == 0 {
		return
	}

	var sectionBuf bytes.Buffer
	writeLEB128(&sectionBuf, uint32(len(m.Imports)))
	for _, imp := range m.Imports {
		writeName(&sectionBuf, imp.Module)
		writeName(&sectionBuf, imp.Name)
		writeByte(&sectionBuf, 0x00) // import kind: function
		writeLEB128(&sectionBuf, imp.TypeIdx)
	}

	writeSection(buf, sectionImport, &sectionBuf)
}

func EmitFunctionSection(buf *bytes.Buffer, m *Module) {
	if len(m.Funcs) == 0 {
		return
	}

	var sectionBuf bytes.Buffer
	writeLEB128(&sectionBuf, uint32(len(m.Funcs)))
	for _, fn := range m.Funcs {
		writeLEB128(&sectionBuf, fn.TypeIdx)
	}

	writeSection(buf, sectionFunction, &sectionBuf)
}

func EmitMemorySection(buf *bytes.Buffer, m *Module) {
	if m.Memory == nil {
		return
	}

	var sectionBuf bytes.Buffer
	writeLEB128(&sectionBuf, 1)  // 1 memory
	writeByte(&sectionBuf, 0x00) // limits: min only
	writeLEB128(&sectionBuf, m.Memory.MinPages)

	writeSection(buf, sectionMemory, &sectionBuf)
}

func EmitExportSection(buf *bytes.Buffer, m *Module) {
	if len(m.Exports) == 0 {
		return
	}

	var sectionBuf bytes.Buffer
	writeLEB128(&sectionBuf, uint32(len(m.Exports)))
	for _, exp := range m.Exports {
		writeName(&sectionBuf, exp.Name)
		writeByte(&sectionBuf, byte(exp.Kind))
		writeLEB128(&sectionBuf, exp.Index)
	}

	writeSection(buf, sectionExport, &sectionBuf)
}

func EmitCodeSection(buf *bytes.Buffer, m *Module) error {
	if len(m.Funcs) == 0 {
		return nil
	}

	var sectionBuf bytes.Buffer
	writeLEB128(&sectionBuf, uint32(len(m.Funcs)))
	for _, fn := range m.Funcs {
		var bodyBuf bytes.Buffer

		// Emit locals declarations, grouping consecutive locals of one type
		groups := groupLocals(fn.Locals)
		writeLEB128(&bodyBuf, uint32(len(groups)))
		for _, g := range groups {
			writeLEB128(&bodyBuf, g.count)
			writeByte(&bodyBuf, byte(g.typ))
		}

		for _, instr := range fn.Body {
			if err := EmitInstr(&bodyBuf, instr); err != nil {
				return fmt.Errorf("function %q: %w", fn.Name, err)
			}
		}
		writeByte(&bodyBuf, END) // end instruction

		writeLEB128(&sectionBuf, uint32(bodyBuf.Len())) // function body size
		writeBytes(&sectionBuf, bodyBuf.Bytes())
	}

	writeSection(buf, sectionCode, &sectionBuf)
	return nil
}

func EmitDataSection(buf *bytes.Buffer, m *Module) {
	if len(m.Data) == 0 {
		return
	}

	var sectionBuf bytes.Buffer
	writeLEB128(&sectionBuf, uint32(len(m.Data)))
	for _, seg := range m.Data {
		writeLEB128(&sectionBuf, 0) // active, memory 0
		writeByte(&sectionBuf, I32_CONST)
		writeLEB128Signed(&sectionBuf, int64(seg.Offset))
		writeByte(&sectionBuf, END)
		writeLEB128(&sectionBuf, uint32(len(seg.Bytes)))
		writeBytes(&sectionBuf, seg.Bytes)
	}

	writeSection(buf, sectionData, &sectionBuf)
}

// EmitInstr writes one instruction and its immediates.
func EmitInstr(buf *bytes.Buffer, instr Instr) error {
	op := instr.Op
	if len(instr.Imms) != len(op.Immediates) {
		return fmt.Errorf("%s expects %d immediates, got %d", op.Name, len(op.Immediates), len(instr.Imms))
	}

	writeByte(buf, op.Opcode)
	for i, kind := range op.Immediates {
		v := instr.Imms[i]
		switch kind {
		case ImmIndex, ImmFunc, ImmAlign, ImmOffset:
			if v < 0 || v > math.MaxUint32 {
				return fmt.Errorf("%s: immediate %d out of range for an index", op.Name, v)
			}
			writeLEB128(buf, uint32(v))
		case ImmI32:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return fmt.Errorf("%s: immediate %d out of range for i32", op.Name, v)
			}
			writeLEB128Signed(buf, v)
		case ImmI64:
			writeLEB128Signed(buf, v)
		case ImmF32:
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(v)))
			writeBytes(buf, b[:])
		case ImmF64:
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(float64(v)))
			writeBytes(buf, b[:])
		case ImmBlockType:
			writeByte(buf, byte(v))
		}
	}
	if op.Reserved {
		writeByte(buf, 0x00) // memory index
	}
	return nil
}

type localGroup struct {
	count uint32
	typ   ValueType
}

func groupLocals(locals []ValueType) []localGroup {
	var groups []localGroup
	for _, t := range locals {
		if n := len(groups); n > 0 && groups[n-1].typ == t {
			groups[n-1].count++
			continue
		}
		groups = append(groups, localGroup{count: 1, typ: t})
	}
	return groups
}
