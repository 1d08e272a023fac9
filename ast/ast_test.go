package ast

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestStripComments(t *testing.T) {
	t.Parallel()
	p := sampleProgram()
	before := ToSExpr(p)

	stripped := StripComments(p)
	be.Equal(t, ToSExpr(p), before)
	be.Equal(t, len(stripped.Children), len(p.Children)-1)

	Inspect(stripped, func(n Node) bool {
		if _, ok := n.(*Comment); ok {
			t.Errorf("comment left in stripped tree")
		}
		return true
	})
}

func TestStripCommentsSharesCommentFreeNodes(t *testing.T) {
	t.Parallel()
	g := &Global{Name: "x", Value: Num(1)}
	ext := &ExternalFunction{Name: "log"}
	stripped := StripComments(&Program{Children: []TopLevel{NewComment("c"), g, ext}})

	be.Equal(t, len(stripped.Children), 2)
	be.True(t, stripped.Children[0] == TopLevel(g))
	be.True(t, stripped.Children[1] == TopLevel(ext))
}

func TestStripCommentsKeepsCommentBinding(t *testing.T) {
	t.Parallel()
	let := &Let{Bindings: []Binding{Bind("x", NewComment("oops"))}}
	f := &FunctionDefinition{Name: "f", Children: []Expression{let}}
	stripped := StripComments(&Program{Children: []TopLevel{f}})

	got := stripped.Children[0].(*FunctionDefinition).Children[0].(*Let)
	_, isComment := got.Bindings[0].Value.(*Comment)
	be.True(t, isComment)
}

func TestInspectOrder(t *testing.T) {
	t.Parallel()
	p := &Program{Children: []TopLevel{
		&Global{Name: "g", Value: NewData(Num(1), Text("s"))},
		&FunctionDefinition{Name: "f", Children: []Expression{
			Call("+", Num(2), Ident("a")),
			&Let{Bindings: []Binding{Bind("x", Num(3))}, Expressions: []Expression{Ident("x")}},
		}},
	}}

	var got []string
	Inspect(p, func(n Node) bool {
		got = append(got, fmt.Sprintf("%T", n))
		return true
	})
	want := []string{
		"*ast.Program",
		"*ast.Global", "*ast.Data", "*ast.Number", "*ast.TextLiteral",
		"*ast.FunctionDefinition",
		"*ast.FunctionCall", "*ast.Number", "*ast.Identifier",
		"*ast.Let", "*ast.Number", "*ast.Identifier",
	}
	be.Equal(t, got, want)
}

func TestInspectSkipsChildren(t *testing.T) {
	t.Parallel()
	p := &Program{Children: []TopLevel{
		&FunctionDefinition{Name: "f", Children: []Expression{Call("g", Num(1))}},
		&Global{Name: "x", Value: Num(2)},
	}}

	count := 0
	Inspect(p, func(n Node) bool {
		count++
		_, isFunction := n.(*FunctionDefinition)
		return !isFunction
	})
	be.Equal(t, count, 4)
}

func TestInspectWasmFunction(t *testing.T) {
	t.Parallel()
	p := &Program{Children: []TopLevel{
		&ExternalFunction{Name: "log"},
		&WasmFunctionDefinition{Name: "w", Children: []WasmOperation{Ident("i32.const"), NewComment("c"), Num(1)}},
	}}

	var got []string
	Inspect(p, func(n Node) bool {
		got = append(got, fmt.Sprintf("%T", n))
		return true
	})
	want := []string{
		"*ast.Program",
		"*ast.ExternalFunction",
		"*ast.WasmFunctionDefinition", "*ast.Identifier", "*ast.Comment", "*ast.Number",
	}
	be.Equal(t, got, want)
}

// strayNode is a node outside every variant set.
type strayNode struct{}

func (*strayNode) node() {}

func TestInspectPanicsOnUnknownNode(t *testing.T) {
	t.Parallel()
	defer func() {
		r := recover()
		be.True(t, r != nil)
		be.True(t, strings.Contains(fmt.Sprint(r), "unexpected node *ast.strayNode"))
	}()
	Inspect(&strayNode{}, func(Node) bool { return true })
}

// kindNamer returns the variant name of any node.
type kindNamer struct{}

func (kindNamer) VisitComment(*Comment) string                               { return "comment" }
func (kindNamer) VisitGlobal(*Global) string                                 { return "global" }
func (kindNamer) VisitFunctionDefinition(*FunctionDefinition) string         { return "defn" }
func (kindNamer) VisitWasmFunctionDefinition(*WasmFunctionDefinition) string { return "defn-wasm" }
func (kindNamer) VisitExternalFunction(*ExternalFunction) string             { return "extern" }
func (kindNamer) VisitNumber(*Number) string                                 { return "number" }
func (kindNamer) VisitTextLiteral(*TextLiteral) string                       { return "text" }
func (kindNamer) VisitData(*Data) string                                     { return "data" }
func (kindNamer) VisitIdentifier(*Identifier) string                         { return "ident" }
func (kindNamer) VisitFunctionCall(*FunctionCall) string                     { return "call" }
func (kindNamer) VisitEmptyList(*EmptyList) string                           { return "empty" }
func (kindNamer) VisitLet(*Let) string                                       { return "let" }

func TestVisitors(t *testing.T) {
	t.Parallel()
	v := kindNamer{}

	be.Equal(t, VisitTopLevel[string](&ExternalFunction{}, v), "extern")
	be.Equal(t, VisitTopLevel[string](&WasmFunctionDefinition{}, v), "defn-wasm")
	be.Equal(t, VisitGlobalValue[string](NewData(), v), "data")
	be.Equal(t, VisitGlobalValue[string](Ident("x"), v), "ident")
	be.Equal(t, VisitExpression[string](&Let{}, v), "let")
	be.Equal(t, VisitExpression[string](Empty(), v), "empty")
	be.Equal(t, VisitOperation[string](Num(1), v), "number")
	be.Equal(t, VisitOperation[string](NewComment(""), v), "comment")
}
