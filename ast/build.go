package ast

// Helper constructors for common node types

func Num(v int32) *Number {
	return &Number{Value: v}
}

func Ident(name string) *Identifier {
	return &Identifier{Name: name}
}

func Text(s string) *TextLiteral {
	return &TextLiteral{Value: s}
}

func NewComment(text string) *Comment {
	return &Comment{Text: text}
}

func Call(name string, args ...Expression) *FunctionCall {
	return &FunctionCall{FunctionName: name, Params: args}
}

func Empty() *EmptyList {
	return &EmptyList{}
}

func NewData(values ...GlobalValue) *Data {
	return &Data{Values: values}
}

func Bind(name string, value Expression) Binding {
	return Binding{Name: name, Value: value}
}
