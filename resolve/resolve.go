// Package resolve checks a program tree and computes what the code generator
// needs to know about it: concrete types, the function index space, resolved
// global values, and the meaning of every name used in a function body.
//
// Resolve never modifies the tree. Results are keyed by node identity, so a
// node shared between two positions in the tree must mean the same thing in
// both.
package resolve

import (
	"errors"

	"github.com/hashicorp/go-multierror"

	"github.com/waspc/wasp/ast"
	"github.com/waspc/wasp/wasm"
)

// SymbolKind says what a name in a function body refers to.
type SymbolKind int

const (
	SymbolGlobal SymbolKind = iota + 1
	SymbolParam
	SymbolLocal
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolGlobal:
		return "global"
	case SymbolParam:
		return "param"
	case SymbolLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Symbol is the target of an identifier in a high-level body.
type Symbol struct {
	Name string
	Kind SymbolKind
	Type wasm.ValueType
	// Local is the local index of a param or let binding.
	Local uint32
}

// Function is an entry of the function index space.
type Function struct {
	Name  string
	Index uint32
	Type  wasm.FuncType
	// Decl is the *ast.ExternalFunction, *ast.FunctionDefinition or
	// *ast.WasmFunctionDefinition that declared the function.
	Decl ast.TopLevel
	// Locals lists the let-bound locals of a high-level function in
	// allocation order. Their indices start after the params.
	Locals []wasm.ValueType
}

// Imported reports whether f is an external function.
func (f *Function) Imported() bool {
	_, ok := f.Decl.(*ast.ExternalFunction)
	return ok
}

// Info is the result of a successful resolution.
type Info struct {
	// Globals maps each global to its resolved value: never an
	// *ast.Identifier, and Data with every element resolved.
	Globals map[string]ast.GlobalValue
	// Functions lists externals in declaration order, then definitions in
	// declaration order. A function's Index is its position here.
	Functions []*Function
	// Types records the value type of every expression that has one.
	// Expressions with no value (EmptyList, Comment, calls with no result)
	// are absent.
	Types map[ast.Expression]wasm.ValueType
	// MultiValues records the result count of every statement that leaves
	// more than one value: a call to a function with several results, or a
	// Let ending in one.
	MultiValues map[ast.Expression]int
	// Symbols records the target of every identifier in a high-level body.
	Symbols map[*ast.Identifier]*Symbol
	// Bindings records the symbol of each binding of a Let, in order.
	Bindings map[*ast.Let][]*Symbol
	// Calls records the callee of every call to a declared function.
	Calls map[*ast.FunctionCall]*Function
	// Operators records the instruction chosen for every builtin operator
	// call.
	Operators map[*ast.FunctionCall]string

	functions map[string]*Function
}

// Function looks up a function by name.
func (info *Info) Function(name string) (*Function, bool) {
	f, ok := info.functions[name]
	return f, ok
}

// Resolve checks p and returns its Info. All problems found are reported
// together in a *multierror.Error whose members are the typed errors of this
// package.
func Resolve(p *ast.Program, opts ...Option) (*Info, error) {
	r := &resolver{
		cfg:     newConfig(opts),
		globals: NewGlobals(p),
		info: &Info{
			Globals:   make(map[string]ast.GlobalValue),
			Types:       make(map[ast.Expression]wasm.ValueType),
			MultiValues: make(map[ast.Expression]int),
			Symbols:     make(map[*ast.Identifier]*Symbol),
			Bindings:    make(map[*ast.Let][]*Symbol),
			Calls:       make(map[*ast.FunctionCall]*Function),
			Operators:   make(map[*ast.FunctionCall]string),
			functions:   make(map[string]*Function),
		},
		reported: make(map[string]bool),
	}

	r.declare(p)
	r.resolveGlobals(p)
	for _, f := range r.info.Functions {
		ast.VisitTopLevel[struct{}](f.Decl, bodyChecker{r: r, fn: f})
	}

	if err := r.errs.ErrorOrNil(); err != nil {
		r.cfg.log.Debug().Int("errors", len(r.errs.Errors)).Msg("resolution failed")
		return nil, err
	}
	r.cfg.log.Debug().
		Int("globals", len(r.info.Globals)).
		Int("functions", len(r.info.Functions)).
		Msg("resolved program")
	return r.info, nil
}

type resolver struct {
	cfg      *config
	globals  *Globals
	info     *Info
	errs     *multierror.Error
	reported map[string]bool
}

// report records err once; an error reached along several alias chains is
// only reported the first time.
func (r *resolver) report(err error) {
	msg := err.Error()
	if r.reported[msg] {
		return
	}
	r.reported[msg] = true
	r.errs = multierror.Append(r.errs, err)
}

func (r *resolver) lookupType(name, in string) (wasm.ValueType, bool) {
	t, ok := r.cfg.types[name]
	if !ok {
		r.report(&UnknownTypeError{Name: name, In: in})
	}
	return t, ok
}

// declare checks top-level names and builds the function index space.
func (r *resolver) declare(p *ast.Program) {
	d := &declarer{r: r, globals: make(map[string]bool)}
	var externals, definitions []*Function

	for _, child := range p.Children {
		fn := ast.VisitTopLevel[*Function](child, d)
		if fn == nil {
			continue
		}
		if _, dup := r.info.functions[fn.Name]; dup {
			r.report(&DuplicateNameError{Kind: KindFunction, Name: fn.Name})
			continue
		}
		r.info.functions[fn.Name] = fn
		if fn.Imported() {
			externals = append(externals, fn)
		} else {
			definitions = append(definitions, fn)
		}
	}

	r.info.Functions = append(externals, definitions...)
	for i, fn := range r.info.Functions {
		fn.Index = uint32(i)
	}
}

// declarer returns the function a declaration introduces, or nil.
type declarer struct {
	r       *resolver
	globals map[string]bool
}

func (d *declarer) VisitComment(*ast.Comment) *Function { return nil }

func (d *declarer) VisitGlobal(g *ast.Global) *Function {
	if d.globals[g.Name] {
		d.r.report(&DuplicateNameError{Kind: KindGlobal, Name: g.Name})
	}
	d.globals[g.Name] = true
	return nil
}

func (d *declarer) VisitExternalFunction(f *ast.ExternalFunction) *Function {
	return &Function{Name: f.Name, Decl: f, Type: d.r.externalType(f)}
}

func (d *declarer) VisitFunctionDefinition(f *ast.FunctionDefinition) *Function {
	return &Function{Name: f.Name, Decl: f, Type: d.r.definitionType(f)}
}

func (d *declarer) VisitWasmFunctionDefinition(f *ast.WasmFunctionDefinition) *Function {
	return &Function{Name: f.Name, Decl: f, Type: wasm.FuncType{Params: f.Params, Results: f.Outputs}}
}

func (r *resolver) externalType(f *ast.ExternalFunction) wasm.FuncType {
	defaultType := func() wasm.FuncType {
		params := make([]wasm.ValueType, len(f.Params))
		for i := range params {
			params[i] = wasm.I32
		}
		return wasm.FuncType{Params: params}
	}
	if r.cfg.env == nil {
		return defaultType()
	}

	ft, ok := r.cfg.env[f.Name]
	if !ok {
		r.report(&UndefinedError{Kind: KindExternal, Name: f.Name})
		return defaultType()
	}
	if len(ft.Params) != len(f.Params) {
		r.report(&ArityError{Function: f.Name, Want: len(ft.Params), Got: len(f.Params), In: "environment"})
	}
	return ft
}

func (r *resolver) definitionType(f *ast.FunctionDefinition) wasm.FuncType {
	var ft wasm.FuncType
	for _, param := range f.Params {
		name := param.Type
		if name == "" {
			name = DefaultParamType
		}
		t, _ := r.lookupType(name, f.Name)
		ft.Params = append(ft.Params, t)
	}
	if f.Output != "" {
		if t, ok := r.lookupType(f.Output, f.Name); ok {
			ft.Results = []wasm.ValueType{t}
		}
	}
	return ft
}

func (r *resolver) resolveGlobals(p *ast.Program) {
	for _, child := range p.Children {
		global, ok := child.(*ast.Global)
		if !ok || r.globals.byName[global.Name] != global {
			continue
		}

		value, steps, err := r.globals.Resolve(global.Name)
		if err != nil {
			var cycle *AliasCycleError
			if errors.As(err, &cycle) && !r.ownsCycle(global.Name, cycle) {
				continue
			}
			r.report(err)
			continue
		}
		r.info.Globals[global.Name] = value
		r.cfg.log.Trace().Str("global", global.Name).Int("steps", steps).Msg("resolved global")
	}
}

// ownsCycle reports whether name is the earliest declared global of the loop
// in cycle. Each loop is reported once, by that global.
func (r *resolver) ownsCycle(name string, cycle *AliasCycleError) bool {
	loop := cycle.Cycle()
	if len(loop) == 0 || loop[0] != name {
		return false
	}
	for _, other := range loop[1:] {
		if r.globals.position[other] < r.globals.position[name] {
			return false
		}
	}
	return true
}
