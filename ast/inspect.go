package ast

import "fmt"

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// each node. If f returns false, the children of that node are skipped.
// Children are visited in source order.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, child := range children(n) {
		Inspect(child, f)
	}
}

// children returns the direct children of n. Every node except the program
// is dispatched through a visitor, so a new variant cannot be skipped.
func children(n Node) []Node {
	switch n := n.(type) {
	case *Program:
		out := make([]Node, len(n.Children))
		for i, child := range n.Children {
			out[i] = child
		}
		return out
	case TopLevel:
		return VisitTopLevel[[]Node](n, childLister{})
	case Expression:
		return VisitExpression[[]Node](n, childLister{})
	case GlobalValue:
		return VisitGlobalValue[[]Node](n, childLister{})
	case WasmOperation:
		return VisitOperation[[]Node](n, childLister{})
	}
	panic(fmt.Sprintf("ast: unexpected node %T", n))
}

// childLister implements every visitor interface.
type childLister struct{}

var (
	_ TopLevelVisitor[[]Node]    = childLister{}
	_ GlobalValueVisitor[[]Node] = childLister{}
	_ ExpressionVisitor[[]Node]  = childLister{}
	_ OperationVisitor[[]Node]   = childLister{}
)

func (childLister) VisitComment(*Comment) []Node                   { return nil }
func (childLister) VisitIdentifier(*Identifier) []Node             { return nil }
func (childLister) VisitNumber(*Number) []Node                     { return nil }
func (childLister) VisitTextLiteral(*TextLiteral) []Node           { return nil }
func (childLister) VisitEmptyList(*EmptyList) []Node               { return nil }
func (childLister) VisitExternalFunction(*ExternalFunction) []Node { return nil }

func (childLister) VisitGlobal(g *Global) []Node {
	return []Node{g.Value}
}

func (childLister) VisitData(d *Data) []Node {
	out := make([]Node, len(d.Values))
	for i, v := range d.Values {
		out[i] = v
	}
	return out
}

func (childLister) VisitFunctionDefinition(f *FunctionDefinition) []Node {
	out := make([]Node, len(f.Children))
	for i, child := range f.Children {
		out[i] = child
	}
	return out
}

func (childLister) VisitWasmFunctionDefinition(f *WasmFunctionDefinition) []Node {
	out := make([]Node, len(f.Children))
	for i, child := range f.Children {
		out[i] = child
	}
	return out
}

func (childLister) VisitFunctionCall(c *FunctionCall) []Node {
	out := make([]Node, len(c.Params))
	for i, param := range c.Params {
		out[i] = param
	}
	return out
}

func (childLister) VisitLet(l *Let) []Node {
	out := make([]Node, 0, len(l.Bindings)+len(l.Expressions))
	for _, b := range l.Bindings {
		out = append(out, b.Value)
	}
	for _, e := range l.Expressions {
		out = append(out, e)
	}
	return out
}
