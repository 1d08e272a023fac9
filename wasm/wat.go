package wasm

import (
	"fmt"
	"strconv"
	"strings"
)

type watBuilder struct {
	buf    strings.Builder
	indent int
}

func (w *watBuilder) line(s string) {
	w.buf.WriteString(strings.Repeat("  ", w.indent))
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

func (w *watBuilder) String() string {
	return w.buf.String()
}

// FormatWAT renders m in the WebAssembly text format. Instructions are
// printed in flat (non-folded) form, one per line.
func FormatWAT(m *Module) string {
	w := &watBuilder{}
	w.line("(module")
	w.indent++

	for i, ft := range m.Types {
		w.line(fmt.Sprintf("(type (;%d;) (func%s))", i, formatSignature(ft)))
	}
	for _, imp := range m.Imports {
		w.line(fmt.Sprintf("(import %s %s (func $%s (type %d)))", quoteWAT(imp.Module), quoteWAT(imp.Name), imp.Name, imp.TypeIdx))
	}
	for _, fn := range m.Funcs {
		sig := ""
		if int(fn.TypeIdx) < len(m.Types) {
			sig = formatSignature(m.Types[fn.TypeIdx])
		}
		w.line(fmt.Sprintf("(func $%s (type %d)%s", fn.Name, fn.TypeIdx, sig))
		w.indent++
		if len(fn.Locals) > 0 {
			w.line("(local " + joinTypes(fn.Locals) + ")")
		}
		for _, instr := range fn.Body {
			w.line(FormatInstr(instr))
		}
		w.indent--
		w.line(")")
	}
	if m.Memory != nil {
		w.line(fmt.Sprintf("(memory (;0;) %d)", m.Memory.MinPages))
	}
	for _, exp := range m.Exports {
		kind := "func"
		if exp.Kind == ExportMemory {
			kind = "memory"
		}
		w.line(fmt.Sprintf("(export %s (%s %d))", quoteWAT(exp.Name), kind, exp.Index))
	}
	for _, seg := range m.Data {
		w.line(fmt.Sprintf("(data (i32.const %d) %s)", seg.Offset, quoteWATBytes(seg.Bytes)))
	}

	w.indent--
	w.line(")")
	return w.String()
}

// FormatInstr renders one instruction, e.g. "local.get 0".
func FormatInstr(instr Instr) string {
	parts := []string{instr.Op.Name}
	for i, v := range instr.Imms {
		kind := ImmIndex
		if i < len(instr.Op.Immediates) {
			kind = instr.Op.Immediates[i]
		}
		switch kind {
		case ImmF32:
			parts = append(parts, strconv.FormatFloat(float64(float32(v)), 'g', -1, 32))
		case ImmF64:
			parts = append(parts, strconv.FormatFloat(float64(v), 'g', -1, 64))
		case ImmAlign:
			parts = append(parts, fmt.Sprintf("align=%d", uint64(1)<<uint(v)))
		case ImmOffset:
			parts = append(parts, fmt.Sprintf("offset=%d", v))
		case ImmBlockType:
			if v != BlockTypeEmpty {
				parts = append(parts, "(result "+ValueType(v).String()+")")
			}
		default:
			parts = append(parts, strconv.FormatInt(v, 10))
		}
	}
	return strings.Join(parts, " ")
}

func formatSignature(ft FuncType) string {
	s := ""
	if len(ft.Params) > 0 {
		s += " (param " + joinTypes(ft.Params) + ")"
	}
	if len(ft.Results) > 0 {
		s += " (result " + joinTypes(ft.Results) + ")"
	}
	return s
}

func joinTypes(types []ValueType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, " ")
}

func quoteWAT(s string) string {
	return quoteWATBytes([]byte(s))
}

func quoteWATBytes(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range b {
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c >= 0x20 && c < 0x7F:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "\\%02x", c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
