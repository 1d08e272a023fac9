package resolve

import (
	"fmt"

	"github.com/waspc/wasp/ast"
	"github.com/waspc/wasp/wasm"
)

// invalid is the type of an expression whose error was already reported.
// Checks involving it are skipped so one mistake yields one error.
const invalid wasm.ValueType = 0

// value is the result of checking an expression. ok is false for
// expressions that produce nothing.
type value struct {
	typ wasm.ValueType
	ok  bool
	// results is set instead of ok for a call to a function returning more
	// than one value, and from names that function.
	results int
	from    string
}

func some(t wasm.ValueType) value { return value{typ: t, ok: true} }

func (v value) multi() bool { return v.results > 1 }

var (
	noValue  = value{}
	errValue = some(invalid)
)

// bodyChecker checks the body of one entry of the function index space.
type bodyChecker struct {
	r  *resolver
	fn *Function
}

func (bodyChecker) VisitComment(*ast.Comment) struct{}                   { return struct{}{} }
func (bodyChecker) VisitGlobal(*ast.Global) struct{}                     { return struct{}{} }
func (bodyChecker) VisitExternalFunction(*ast.ExternalFunction) struct{} { return struct{}{} }

func (b bodyChecker) VisitFunctionDefinition(f *ast.FunctionDefinition) struct{} {
	params := newScope[*Symbol](nil)
	for i, param := range f.Params {
		sym := &Symbol{Name: param.Name, Kind: SymbolParam, Type: b.fn.Type.Params[i], Local: uint32(i)}
		if err := params.insert(param.Name, sym); err != nil {
			b.r.report(&DuplicateNameError{Kind: KindParameter, Name: param.Name})
		}
	}

	c := &exprChecker{r: b.r, fn: b.fn, scope: params}
	result := c.sequence(f.Children)
	if len(b.fn.Type.Results) == 1 {
		c.expect(result, b.fn.Type.Results[0], "result")
	}

	b.r.cfg.log.Trace().
		Str("function", f.Name).
		Int("locals", len(b.fn.Locals)).
		Msg("checked function")
	return struct{}{}
}

func (b bodyChecker) VisitWasmFunctionDefinition(f *ast.WasmFunctionDefinition) struct{} {
	raw := rawChecker{r: b.r, in: f.Name}
	for _, op := range f.Children {
		ast.VisitOperation[struct{}](op, raw)
	}
	return struct{}{}
}

// rawChecker checks that every identifier of a low-level body names an
// instruction, a function, a global or a block type.
type rawChecker struct {
	r  *resolver
	in string
}

func (rawChecker) VisitComment(*ast.Comment) struct{} { return struct{}{} }
func (rawChecker) VisitNumber(*ast.Number) struct{}   { return struct{}{} }

func (c rawChecker) VisitIdentifier(id *ast.Identifier) struct{} {
	if _, ok := wasm.LookupInstruction(id.Name); ok {
		return struct{}{}
	}
	if _, ok := c.r.info.functions[id.Name]; ok {
		return struct{}{}
	}
	if c.r.globals.Has(id.Name) {
		return struct{}{}
	}
	if _, ok := wasm.ParseValueType(id.Name); ok || id.Name == "void" {
		return struct{}{}
	}
	c.r.report(&UndefinedError{Kind: KindInstruction, Name: id.Name, In: c.in})
	return struct{}{}
}

// exprChecker types the expressions of a high-level body in one scope.
type exprChecker struct {
	r     *resolver
	fn    *Function
	scope *scope[*Symbol]
}

func (c *exprChecker) check(e ast.Expression) value {
	v := ast.VisitExpression[value](e, c)
	switch {
	case v.multi():
		c.r.info.MultiValues[e] = v.results
	case v.ok && v.typ != invalid:
		c.r.info.Types[e] = v.typ
	}
	return v
}

// sequence checks exprs in order and returns the value of the last one.
// Comments do not count as the last expression.
func (c *exprChecker) sequence(exprs []ast.Expression) value {
	result := noValue
	for _, e := range exprs {
		v := c.check(e)
		if _, isComment := e.(*ast.Comment); !isComment {
			result = v
		}
	}
	return result
}

func (c *exprChecker) typeError(format string, args ...any) {
	c.r.report(&TypeError{In: c.fn.Name, Msg: fmt.Sprintf(format, args...)})
}

// multiValueError reports v used where exactly one value is needed.
func (c *exprChecker) multiValueError(v value) {
	c.typeError("'%s' returns %d values and cannot be used in an expression", v.from, v.results)
}

// expect reports an error unless v is a value of type want.
func (c *exprChecker) expect(v value, want wasm.ValueType, what string) {
	switch {
	case v.multi():
		c.multiValueError(v)
	case !v.ok:
		c.typeError("%s has no value, want %s", what, want)
	case v.typ == invalid || want == invalid:
	case v.typ != want:
		c.typeError("%s is %s, want %s", what, v.typ, want)
	}
}

func (c *exprChecker) VisitNumber(*ast.Number) value           { return some(wasm.I32) }
func (c *exprChecker) VisitTextLiteral(*ast.TextLiteral) value { return some(wasm.I32) }
func (c *exprChecker) VisitComment(*ast.Comment) value         { return noValue }
func (c *exprChecker) VisitEmptyList(*ast.EmptyList) value     { return noValue }

func (c *exprChecker) VisitIdentifier(id *ast.Identifier) value {
	sym, ok := c.scope.lookup(id.Name)
	if !ok && c.r.globals.Has(id.Name) {
		sym, ok = &Symbol{Name: id.Name, Kind: SymbolGlobal, Type: wasm.I32}, true
	}
	if !ok {
		c.r.report(&UndefinedError{Kind: KindVariable, Name: id.Name, In: c.fn.Name})
		return errValue
	}
	c.r.info.Symbols[id] = sym
	return some(sym.Type)
}

func (c *exprChecker) VisitFunctionCall(call *ast.FunctionCall) value {
	args := withoutComments(call.Params)

	if fn, ok := c.r.info.Function(call.FunctionName); ok {
		c.r.info.Calls[call] = fn
		return c.checkCall(call, fn, args)
	}
	if op, ok := operators[call.FunctionName]; ok {
		return c.checkOperator(call, op, args)
	}

	c.r.report(&UndefinedError{Kind: KindFunction, Name: call.FunctionName, In: c.fn.Name})
	for _, arg := range args {
		c.check(arg)
	}
	return errValue
}

func (c *exprChecker) checkCall(call *ast.FunctionCall, fn *Function, args []ast.Expression) value {
	if len(args) != len(fn.Type.Params) {
		c.r.report(&ArityError{Function: fn.Name, Want: len(fn.Type.Params), Got: len(args), In: c.fn.Name})
		for _, arg := range args {
			c.check(arg)
		}
	} else {
		for i, arg := range args {
			c.expect(c.check(arg), fn.Type.Params[i], fmt.Sprintf("argument %d of '%s'", i+1, fn.Name))
		}
	}

	switch len(fn.Type.Results) {
	case 0:
		return noValue
	case 1:
		return some(fn.Type.Results[0])
	default:
		// Only valid as a statement, where every result is dropped.
		return value{results: len(fn.Type.Results), from: fn.Name}
	}
}

func (c *exprChecker) checkOperator(call *ast.FunctionCall, op operator, args []ast.Expression) value {
	name := call.FunctionName
	if len(args) != 2 {
		c.r.report(&ArityError{Function: name, Want: 2, Got: len(args), In: c.fn.Name})
		for _, arg := range args {
			c.check(arg)
		}
		return errValue
	}

	left, right := c.check(args[0]), c.check(args[1])
	switch {
	case left.multi() || right.multi():
		for _, v := range []value{left, right} {
			if v.multi() {
				c.multiValueError(v)
			}
		}
		return errValue
	case !left.ok || !right.ok:
		c.typeError("operand of '%s' has no value", name)
		return errValue
	case left.typ == invalid || right.typ == invalid:
		return errValue
	case left.typ != right.typ:
		c.typeError("operands of '%s' have different types %s and %s", name, left.typ, right.typ)
		return errValue
	}

	instr, ok := op.instruction(left.typ)
	if !ok {
		c.typeError("'%s' does not accept %s operands", name, left.typ)
		return errValue
	}
	c.r.info.Operators[call] = instr
	return some(op.result(left.typ))
}

// VisitLet checks bindings in order, each in a scope that holds the
// bindings before it. Every binding gets a fresh local.
func (c *exprChecker) VisitLet(let *ast.Let) value {
	sc := c.scope
	syms := make([]*Symbol, 0, len(let.Bindings))
	for _, b := range let.Bindings {
		v := (&exprChecker{r: c.r, fn: c.fn, scope: sc}).check(b.Value)
		typ := v.typ
		switch {
		case v.multi():
			c.multiValueError(v)
			typ = invalid
		case !v.ok:
			c.typeError("binding '%s' has no value", b.Name)
			typ = invalid
		}

		sym := &Symbol{
			Name:  b.Name,
			Kind:  SymbolLocal,
			Type:  typ,
			Local: uint32(len(c.fn.Type.Params) + len(c.fn.Locals)),
		}
		c.fn.Locals = append(c.fn.Locals, typ)
		syms = append(syms, sym)

		sc = newScope(sc)
		// A fresh scope per binding cannot already hold the name.
		_ = sc.insert(b.Name, sym)
	}
	c.r.info.Bindings[let] = syms

	body := &exprChecker{r: c.r, fn: c.fn, scope: sc}
	return body.sequence(let.Expressions)
}

func withoutComments(exprs []ast.Expression) []ast.Expression {
	out := make([]ast.Expression, 0, len(exprs))
	for _, e := range exprs {
		if _, isComment := e.(*ast.Comment); !isComment {
			out = append(out, e)
		}
	}
	return out
}
