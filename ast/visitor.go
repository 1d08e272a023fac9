package ast

import "fmt"

// TopLevelVisitor has one method per TopLevel variant.
type TopLevelVisitor[R any] interface {
	VisitComment(*Comment) R
	VisitGlobal(*Global) R
	VisitFunctionDefinition(*FunctionDefinition) R
	VisitWasmFunctionDefinition(*WasmFunctionDefinition) R
	VisitExternalFunction(*ExternalFunction) R
}

// GlobalValueVisitor has one method per GlobalValue variant.
type GlobalValueVisitor[R any] interface {
	VisitNumber(*Number) R
	VisitTextLiteral(*TextLiteral) R
	VisitData(*Data) R
	VisitIdentifier(*Identifier) R
}

// ExpressionVisitor has one method per Expression variant.
type ExpressionVisitor[R any] interface {
	VisitTextLiteral(*TextLiteral) R
	VisitIdentifier(*Identifier) R
	VisitComment(*Comment) R
	VisitFunctionCall(*FunctionCall) R
	VisitNumber(*Number) R
	VisitEmptyList(*EmptyList) R
	VisitLet(*Let) R
}

// OperationVisitor has one method per WasmOperation variant.
type OperationVisitor[R any] interface {
	VisitComment(*Comment) R
	VisitIdentifier(*Identifier) R
	VisitNumber(*Number) R
}

// VisitTopLevel calls the method of v matching the variant of n.
func VisitTopLevel[R any](n TopLevel, v TopLevelVisitor[R]) R {
	switch n := n.(type) {
	case *Comment:
		return v.VisitComment(n)
	case *Global:
		return v.VisitGlobal(n)
	case *FunctionDefinition:
		return v.VisitFunctionDefinition(n)
	case *WasmFunctionDefinition:
		return v.VisitWasmFunctionDefinition(n)
	case *ExternalFunction:
		return v.VisitExternalFunction(n)
	}
	panic(fmt.Sprintf("ast: unexpected top-level node %T", n))
}

// VisitGlobalValue calls the method of v matching the variant of n.
func VisitGlobalValue[R any](n GlobalValue, v GlobalValueVisitor[R]) R {
	switch n := n.(type) {
	case *Number:
		return v.VisitNumber(n)
	case *TextLiteral:
		return v.VisitTextLiteral(n)
	case *Data:
		return v.VisitData(n)
	case *Identifier:
		return v.VisitIdentifier(n)
	}
	panic(fmt.Sprintf("ast: unexpected global value %T", n))
}

// VisitExpression calls the method of v matching the variant of n.
func VisitExpression[R any](n Expression, v ExpressionVisitor[R]) R {
	switch n := n.(type) {
	case *TextLiteral:
		return v.VisitTextLiteral(n)
	case *Identifier:
		return v.VisitIdentifier(n)
	case *Comment:
		return v.VisitComment(n)
	case *FunctionCall:
		return v.VisitFunctionCall(n)
	case *Number:
		return v.VisitNumber(n)
	case *EmptyList:
		return v.VisitEmptyList(n)
	case *Let:
		return v.VisitLet(n)
	}
	panic(fmt.Sprintf("ast: unexpected expression %T", n))
}

// VisitOperation calls the method of v matching the variant of n.
func VisitOperation[R any](n WasmOperation, v OperationVisitor[R]) R {
	switch n := n.(type) {
	case *Comment:
		return v.VisitComment(n)
	case *Identifier:
		return v.VisitIdentifier(n)
	case *Number:
		return v.VisitNumber(n)
	}
	panic(fmt.Sprintf("ast: unexpected wasm operation %T", n))
}
