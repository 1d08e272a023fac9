package ast

// StripComments returns a copy of p with every Comment removed: top-level
// comments, comments in function bodies, call arguments and let bodies, and
// comments in low-level bodies. p is not modified. Subtrees that contain no
// comments are shared between p and the result.
func StripComments(p *Program) *Program {
	out := &Program{}
	for _, child := range p.Children {
		if stripped := VisitTopLevel[TopLevel](child, topLevelStripper{}); stripped != nil {
			out.Children = append(out.Children, stripped)
		}
	}
	return out
}

type topLevelStripper struct{}

func (topLevelStripper) VisitComment(*Comment) TopLevel { return nil }
func (topLevelStripper) VisitGlobal(g *Global) TopLevel { return g }
func (topLevelStripper) VisitExternalFunction(f *ExternalFunction) TopLevel {
	return f
}

func (topLevelStripper) VisitFunctionDefinition(f *FunctionDefinition) TopLevel {
	stripped := *f
	stripped.Children = stripExpressions(f.Children)
	return &stripped
}

func (topLevelStripper) VisitWasmFunctionDefinition(f *WasmFunctionDefinition) TopLevel {
	stripped := *f
	stripped.Children = nil
	for _, op := range f.Children {
		if kept := VisitOperation[WasmOperation](op, operationStripper{}); kept != nil {
			stripped.Children = append(stripped.Children, kept)
		}
	}
	return &stripped
}

type operationStripper struct{}

func (operationStripper) VisitComment(*Comment) WasmOperation         { return nil }
func (operationStripper) VisitIdentifier(o *Identifier) WasmOperation { return o }
func (operationStripper) VisitNumber(o *Number) WasmOperation         { return o }

func stripExpressions(exprs []Expression) []Expression {
	var out []Expression
	for _, e := range exprs {
		if stripped := VisitExpression[Expression](e, expressionStripper{}); stripped != nil {
			out = append(out, stripped)
		}
	}
	return out
}

type expressionStripper struct{}

func (expressionStripper) VisitTextLiteral(e *TextLiteral) Expression { return e }
func (expressionStripper) VisitIdentifier(e *Identifier) Expression   { return e }
func (expressionStripper) VisitComment(*Comment) Expression           { return nil }
func (expressionStripper) VisitNumber(e *Number) Expression           { return e }
func (expressionStripper) VisitEmptyList(e *EmptyList) Expression     { return e }

func (expressionStripper) VisitFunctionCall(e *FunctionCall) Expression {
	return &FunctionCall{FunctionName: e.FunctionName, Params: stripExpressions(e.Params)}
}

func (expressionStripper) VisitLet(e *Let) Expression {
	let := &Let{Expressions: stripExpressions(e.Expressions)}
	for _, b := range e.Bindings {
		value := VisitExpression[Expression](b.Value, expressionStripper{})
		if value == nil {
			// A comment bound to a name still has to be reported by the
			// resolver, so keep it.
			value = b.Value
		}
		let.Bindings = append(let.Bindings, Binding{Name: b.Name, Value: value})
	}
	return let
}
