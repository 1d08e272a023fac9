// Package codegen lowers a resolved program tree to a WebAssembly module.
//
// Globals are compile-time constants. Numbers are used as immediates; text
// and data are laid out in linear memory and stand for their address.
// Externals are imported, and definitions with an external name are
// exported.
package codegen

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/waspc/wasp/ast"
	"github.com/waspc/wasp/resolve"
	"github.com/waspc/wasp/wasm"
)

// Generate builds the module for p. info must come from a successful
// resolve.Resolve of the same tree.
func Generate(p *ast.Program, info *resolve.Info, opts ...Option) (*wasm.Module, error) {
	cfg := newConfig(opts)
	g := &generator{
		cfg:     cfg,
		info:    info,
		globals: make(map[string]*ast.Global),
		consts:  make(map[string]int32),
		pending: make(map[string]bool),
		mem:     newLayout(cfg.dataOffset),
		module:  &wasm.Module{},
	}

	for _, child := range p.Children {
		if global, ok := child.(*ast.Global); ok {
			if _, dup := g.globals[global.Name]; !dup {
				g.globals[global.Name] = global
			}
		}
	}
	for _, child := range p.Children {
		if global, ok := child.(*ast.Global); ok && g.globals[global.Name] == global {
			g.constant(global.Name)
		}
	}

	for _, fn := range info.Functions {
		ast.VisitTopLevel[struct{}](fn.Decl, functionEmitter{g: g, fn: fn})
	}
	g.finishMemory()

	if err := g.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	cfg.log.Debug().
		Int("imports", len(g.module.Imports)).
		Int("functions", len(g.module.Funcs)).
		Int("data_bytes", len(g.mem.bytes)).
		Msg("generated module")
	return g.module, nil
}

type generator struct {
	cfg     *config
	info    *resolve.Info
	globals map[string]*ast.Global
	consts  map[string]int32
	pending map[string]bool
	mem     *layout
	module  *wasm.Module
	exports map[string]bool
	errs    *multierror.Error
}

func (g *generator) fail(err error) {
	g.errs = multierror.Append(g.errs, err)
}

// constant returns the value of the global name, placing its data on first
// use.
func (g *generator) constant(name string) int32 {
	if v, ok := g.consts[name]; ok {
		return v
	}
	global, ok := g.globals[name]
	if !ok {
		g.fail(fmt.Errorf("global '%s' is not declared", name))
		return 0
	}
	if g.pending[name] {
		g.fail(fmt.Errorf("global '%s' depends on itself", name))
		return 0
	}

	g.pending[name] = true
	v := ast.VisitGlobalValue[int32](global.Value, constantEvaluator{g})
	delete(g.pending, name)
	g.consts[name] = v
	return v
}

// constantEvaluator computes the i32 a global value stands for.
type constantEvaluator struct {
	g *generator
}

func (c constantEvaluator) VisitNumber(n *ast.Number) int32           { return n.Value }
func (c constantEvaluator) VisitTextLiteral(t *ast.TextLiteral) int32 { return int32(c.g.mem.text(t)) }
func (c constantEvaluator) VisitIdentifier(id *ast.Identifier) int32  { return c.g.constant(id.Name) }

// VisitData lays out one 4-byte cell per element. Nested text and data are
// placed after the block and stored as addresses.
func (c constantEvaluator) VisitData(d *ast.Data) int32 {
	if addr, ok := c.g.mem.placed[d]; ok {
		return int32(addr)
	}
	addr := c.g.mem.reserve(4 * len(d.Values))
	c.g.mem.placed[d] = addr
	for i, v := range d.Values {
		cell := ast.VisitGlobalValue[int32](v, c)
		c.g.mem.putCell(addr+uint32(4*i), cell)
	}
	return int32(addr)
}

func (g *generator) finishMemory() {
	pages := g.cfg.memoryPages
	if need := (g.mem.end() + PageSize - 1) / PageSize; need > pages {
		pages = need
	}
	g.module.Memory = &wasm.Memory{MinPages: pages}
	if g.cfg.exportMemory {
		g.export(wasm.Export{Name: "memory", Kind: wasm.ExportMemory, Index: 0})
	}
	if len(g.mem.bytes) > 0 {
		g.module.Data = append(g.module.Data, wasm.DataSegment{Offset: g.mem.base, Bytes: g.mem.bytes})
	}
}

func (g *generator) export(e wasm.Export) {
	if g.exports == nil {
		g.exports = make(map[string]bool)
	}
	if g.exports[e.Name] {
		g.fail(fmt.Errorf("duplicate export name '%s'", e.Name))
		return
	}
	g.exports[e.Name] = true
	g.module.Exports = append(g.module.Exports, e)
}

// functionEmitter adds one entry of the function index space to the module.
type functionEmitter struct {
	g  *generator
	fn *resolve.Function
}

func (functionEmitter) VisitComment(*ast.Comment) struct{} { return struct{}{} }
func (functionEmitter) VisitGlobal(*ast.Global) struct{}   { return struct{}{} }

func (e functionEmitter) VisitExternalFunction(f *ast.ExternalFunction) struct{} {
	m := e.g.module
	if len(m.Funcs) > 0 {
		e.g.fail(fmt.Errorf("external function '%s' follows a definition in the index space", f.Name))
		return struct{}{}
	}
	m.Imports = append(m.Imports, wasm.Import{
		Module:  e.g.cfg.importModule,
		Name:    f.Name,
		TypeIdx: m.AddType(e.fn.Type),
	})
	return struct{}{}
}

func (e functionEmitter) VisitFunctionDefinition(f *ast.FunctionDefinition) struct{} {
	b := &bodyEmitter{g: e.g, fn: e.fn}
	b.sequence(f.Children, len(e.fn.Type.Results) == 1)
	e.add(f.ExternalName, e.fn.Locals, b.body)
	return struct{}{}
}

func (e functionEmitter) VisitWasmFunctionDefinition(f *ast.WasmFunctionDefinition) struct{} {
	body, err := e.g.rawBody(f)
	if err != nil {
		// Still added so later functions keep their indices.
		e.g.fail(err)
	}
	e.add(f.ExternalName, f.Locals, body)
	return struct{}{}
}

func (e functionEmitter) add(externalName string, locals []wasm.ValueType, body []wasm.Instr) {
	m := e.g.module
	if index := uint32(len(m.Imports) + len(m.Funcs)); index != e.fn.Index {
		e.g.fail(fmt.Errorf("function '%s' has index %d, expected %d", e.fn.Name, index, e.fn.Index))
		return
	}
	m.Funcs = append(m.Funcs, wasm.Func{
		Name:    e.fn.Name,
		TypeIdx: m.AddType(e.fn.Type),
		Locals:  locals,
		Body:    body,
	})
	if externalName != "" {
		e.g.export(wasm.Export{Name: externalName, Kind: wasm.ExportFunc, Index: e.fn.Index})
	}
	e.g.cfg.log.Trace().
		Str("function", e.fn.Name).
		Uint32("index", e.fn.Index).
		Int("instructions", len(body)).
		Msg("generated function")
}

// bodyEmitter emits a high-level body. Each expression leaves at most one
// value on the stack: exactly when the resolver recorded a type for it.
type bodyEmitter struct {
	g    *generator
	fn   *resolve.Function
	body []wasm.Instr
}

func (b *bodyEmitter) emit(name string, imms ...int64) {
	b.body = append(b.body, wasm.NewInstr(name, imms...))
}

// values returns how many values e leaves on the stack.
func (b *bodyEmitter) values(e ast.Expression) int {
	if _, ok := b.g.info.Types[e]; ok {
		return 1
	}
	return b.g.info.MultiValues[e]
}

func (b *bodyEmitter) fail(format string, args ...any) {
	b.g.fail(fmt.Errorf("function '%s': %s", b.fn.Name, fmt.Sprintf(format, args...)))
}

// sequence emits exprs in order, dropping every value except the last one
// when keepLast is set. Comments are skipped.
func (b *bodyEmitter) sequence(exprs []ast.Expression, keepLast bool) {
	last := -1
	for i, e := range exprs {
		if _, isComment := e.(*ast.Comment); !isComment {
			last = i
		}
	}
	for i, e := range exprs {
		ast.VisitExpression[struct{}](e, b)
		if i == last && keepLast {
			continue
		}
		for n := b.values(e); n > 0; n-- {
			b.emit("drop")
		}
	}
}

func (b *bodyEmitter) VisitComment(*ast.Comment) struct{}     { return struct{}{} }
func (b *bodyEmitter) VisitEmptyList(*ast.EmptyList) struct{} { return struct{}{} }

func (b *bodyEmitter) VisitNumber(n *ast.Number) struct{} {
	b.emit("i32.const", int64(n.Value))
	return struct{}{}
}

func (b *bodyEmitter) VisitTextLiteral(t *ast.TextLiteral) struct{} {
	b.emit("i32.const", int64(b.g.mem.text(t)))
	return struct{}{}
}

func (b *bodyEmitter) VisitIdentifier(id *ast.Identifier) struct{} {
	sym, ok := b.g.info.Symbols[id]
	if !ok {
		b.fail("identifier '%s' was not resolved", id.Name)
		return struct{}{}
	}
	switch sym.Kind {
	case resolve.SymbolParam, resolve.SymbolLocal:
		b.emit("local.get", int64(sym.Local))
	case resolve.SymbolGlobal:
		b.emit("i32.const", int64(b.g.constant(sym.Name)))
	}
	return struct{}{}
}

func (b *bodyEmitter) VisitFunctionCall(call *ast.FunctionCall) struct{} {
	for _, arg := range call.Params {
		ast.VisitExpression[struct{}](arg, b)
	}
	if fn, ok := b.g.info.Calls[call]; ok {
		b.emit("call", int64(fn.Index))
	} else if instr, ok := b.g.info.Operators[call]; ok {
		b.emit(instr)
	} else {
		b.fail("call to '%s' was not resolved", call.FunctionName)
	}
	return struct{}{}
}

func (b *bodyEmitter) VisitLet(let *ast.Let) struct{} {
	syms := b.g.info.Bindings[let]
	if len(syms) != len(let.Bindings) {
		b.fail("let bindings were not resolved")
		return struct{}{}
	}
	for i, binding := range let.Bindings {
		ast.VisitExpression[struct{}](binding.Value, b)
		b.emit("local.set", int64(syms[i].Local))
	}
	b.sequence(let.Expressions, true)
	return struct{}{}
}
