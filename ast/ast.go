// Package ast defines the program tree produced by the wasp front-end and
// consumed by the resolver and code generator.
//
// The tree is pure data. It performs no validation: duplicate names,
// unresolved references and type errors are all reported by package resolve.
// Nodes must not be modified after construction; passes that rewrite a tree
// (see StripComments) build a new one.
//
// Each variant set (TopLevel, GlobalValue, Expression, WasmOperation) is a
// sealed interface with a matching visitor interface. Consumers dispatch
// through the visitors so that adding a variant breaks every consumer at
// compile time until it handles the new case.
package ast

import "github.com/waspc/wasp/wasm"

// Node is implemented by every tree node.
type Node interface {
	node()
}

// Program is the root of the tree: an ordered list of top-level declarations.
type Program struct {
	Children []TopLevel
}

// TopLevel is a declaration that may appear directly in a Program:
// *Comment, *Global, *FunctionDefinition, *WasmFunctionDefinition or
// *ExternalFunction.
type TopLevel interface {
	Node
	topLevel()
}

// GlobalValue is the initializer of a global: *Number, *TextLiteral, *Data or
// *Identifier.
type GlobalValue interface {
	Node
	globalValue()
}

// Expression is one element of a high-level function body: *TextLiteral,
// *Identifier, *Comment, *FunctionCall, *Number, *EmptyList or *Let.
type Expression interface {
	Node
	expression()
}

// WasmOperation is one element of a low-level function body: *Comment,
// *Identifier or *Number.
type WasmOperation interface {
	Node
	wasmOperation()
}

// Comment is source text with no semantic effect. It is kept so formatters
// can reproduce it; code generation ignores it.
type Comment struct {
	Text string
}

// Identifier names a global, parameter, let binding, function or (inside a
// low-level body) an instruction.
type Identifier struct {
	Name string
}

// Number is a signed 32-bit integer literal. In a low-level body it is an
// instruction immediate.
type Number struct {
	Value int32
}

type TextLiteral struct {
	Value string
}

// Global defines a named constant. Names are unique among globals.
type Global struct {
	Name  string
	Value GlobalValue
}

// Data is an aggregate global initializer laid out as consecutive cells.
type Data struct {
	Values []GlobalValue
}

// Param is a high-level function parameter. Type is a named type reference
// resolved later; an empty Type means the default word type.
type Param struct {
	Name string
	Type string
}

// FunctionDefinition is a high-level function. The value of the last body
// expression is the function result; there is no explicit return.
type FunctionDefinition struct {
	Name string
	// ExternalName is the export name; empty means not exported.
	ExternalName string
	Params       []Param
	// Output is a named type reference; empty means no result.
	Output   string
	Children []Expression
}

// WasmFunctionDefinition is a low-level function whose body is emitted as a
// flat sequence of raw instructions and immediates. All types are concrete.
type WasmFunctionDefinition struct {
	Name         string
	ExternalName string
	Params       []wasm.ValueType
	Outputs      []wasm.ValueType
	Locals       []wasm.ValueType
	Children     []WasmOperation
}

// ExternalFunction declares a host function. Its signature comes from the
// resolver's environment.
type ExternalFunction struct {
	Name   string
	Params []string
}

type FunctionCall struct {
	FunctionName string
	Params       []Expression
}

// EmptyList is the explicit "no value" expression.
type EmptyList struct{}

// Binding is one name = value pair of a Let.
type Binding struct {
	Name  string
	Value Expression
}

// Let binds names sequentially: each binding sees the ones before it. The
// last of Expressions is the value of the whole form.
type Let struct {
	Bindings    []Binding
	Expressions []Expression
}

func (*Program) node()                {}
func (*Comment) node()                {}
func (*Identifier) node()             {}
func (*Number) node()                 {}
func (*TextLiteral) node()            {}
func (*Global) node()                 {}
func (*Data) node()                   {}
func (*FunctionDefinition) node()     {}
func (*WasmFunctionDefinition) node() {}
func (*ExternalFunction) node()       {}
func (*FunctionCall) node()           {}
func (*EmptyList) node()              {}
func (*Let) node()                    {}

func (*Comment) topLevel()                {}
func (*Global) topLevel()                 {}
func (*FunctionDefinition) topLevel()     {}
func (*WasmFunctionDefinition) topLevel() {}
func (*ExternalFunction) topLevel()       {}

func (*Number) globalValue()      {}
func (*TextLiteral) globalValue() {}
func (*Data) globalValue()        {}
func (*Identifier) globalValue()  {}

func (*TextLiteral) expression()  {}
func (*Identifier) expression()   {}
func (*Comment) expression()      {}
func (*FunctionCall) expression() {}
func (*Number) expression()       {}
func (*EmptyList) expression()    {}
func (*Let) expression()          {}

func (*Comment) wasmOperation()    {}
func (*Identifier) wasmOperation() {}
func (*Number) wasmOperation()     {}
