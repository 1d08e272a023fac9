package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/waspc/wasp/sexy"
	"github.com/waspc/wasp/wasm"
)

// FormatOptions controls the tree dump.
type FormatOptions struct {
	// StripComments drops every Comment from the output.
	StripComments bool
}

// ToSExpr returns the canonical dump of p, one declaration per line.
// ParseSExpr reads it back into an equal tree.
func ToSExpr(p *Program) string {
	return Format(p, FormatOptions{})
}

// Format is ToSExpr with options.
func Format(p *Program, opts FormatOptions) string {
	if opts.StripComments {
		p = StripComments(p)
	}
	if len(p.Children) == 0 {
		return "(program)"
	}

	var sb strings.Builder
	sb.WriteString("(program")
	for _, child := range p.Children {
		sb.WriteString("\n  ")
		sb.WriteString(VisitTopLevel[*sexy.Node](child, printer{}).String())
	}
	sb.WriteString(")")
	return sb.String()
}

// GlobalValueSExpr returns the dump form of a single global value.
func GlobalValueSExpr(v GlobalValue) *sexy.Node {
	return VisitGlobalValue[*sexy.Node](v, printer{})
}

// printer converts tree nodes to sexy nodes. It implements every visitor
// interface of the package.
type printer struct{}

func sym(name string) *sexy.Node  { return sexy.NewSymbol(name) }
func str(value string) *sexy.Node { return sexy.NewString(value) }

func form(head string, items ...*sexy.Node) *sexy.Node {
	return sexy.NewList(append([]*sexy.Node{sym(head)}, items...))
}

func (printer) VisitComment(c *Comment) *sexy.Node         { return form("comment", str(c.Text)) }
func (printer) VisitIdentifier(i *Identifier) *sexy.Node   { return form("ident", str(i.Name)) }
func (printer) VisitTextLiteral(t *TextLiteral) *sexy.Node { return str(t.Value) }
func (printer) VisitEmptyList(*EmptyList) *sexy.Node       { return form("empty") }

func (printer) VisitNumber(n *Number) *sexy.Node {
	return sexy.NewInteger(strconv.FormatInt(int64(n.Value), 10))
}

func (p printer) VisitGlobal(g *Global) *sexy.Node {
	return form("global", str(g.Name), VisitGlobalValue[*sexy.Node](g.Value, p))
}

func (p printer) VisitData(d *Data) *sexy.Node {
	items := make([]*sexy.Node, 0, len(d.Values))
	for _, v := range d.Values {
		items = append(items, VisitGlobalValue[*sexy.Node](v, p))
	}
	return form("data", items...)
}

func (printer) VisitExternalFunction(f *ExternalFunction) *sexy.Node {
	params := make([]*sexy.Node, 0, len(f.Params))
	for _, name := range f.Params {
		params = append(params, str(name))
	}
	return form("extern", str(f.Name), form("params", params...))
}

func (p printer) VisitFunctionDefinition(f *FunctionDefinition) *sexy.Node {
	items := []*sexy.Node{str(f.Name)}
	if f.ExternalName != "" {
		items = append(items, form("export", str(f.ExternalName)))
	}

	params := make([]*sexy.Node, 0, len(f.Params))
	for _, param := range f.Params {
		if param.Type == "" {
			params = append(params, str(param.Name))
		} else {
			params = append(params, sexy.NewList([]*sexy.Node{str(param.Name), str(param.Type)}))
		}
	}
	items = append(items, form("params", params...))

	if f.Output != "" {
		items = append(items, form("output", str(f.Output)))
	}
	items = append(items, form("body", p.expressions(f.Children)...))
	return form("defn", items...)
}

func (p printer) VisitWasmFunctionDefinition(f *WasmFunctionDefinition) *sexy.Node {
	items := []*sexy.Node{str(f.Name)}
	if f.ExternalName != "" {
		items = append(items, form("export", str(f.ExternalName)))
	}
	items = append(items,
		form("params", valueTypes(f.Params)...),
		form("outputs", valueTypes(f.Outputs)...),
		form("locals", valueTypes(f.Locals)...),
	)

	body := make([]*sexy.Node, 0, len(f.Children))
	for _, op := range f.Children {
		body = append(body, VisitOperation[*sexy.Node](op, p))
	}
	items = append(items, form("body", body...))
	return form("defn-wasm", items...)
}

func (p printer) VisitFunctionCall(c *FunctionCall) *sexy.Node {
	return form("call", append([]*sexy.Node{str(c.FunctionName)}, p.expressions(c.Params)...)...)
}

func (p printer) VisitLet(l *Let) *sexy.Node {
	bindings := make([]*sexy.Node, 0, len(l.Bindings))
	for _, b := range l.Bindings {
		bindings = append(bindings, sexy.NewList([]*sexy.Node{str(b.Name), VisitExpression[*sexy.Node](b.Value, p)}))
	}
	return form("let", form("bindings", bindings...), form("body", p.expressions(l.Expressions)...))
}

func (p printer) expressions(exprs []Expression) []*sexy.Node {
	out := make([]*sexy.Node, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, VisitExpression[*sexy.Node](e, p))
	}
	return out
}

func valueTypes(types []wasm.ValueType) []*sexy.Node {
	out := make([]*sexy.Node, 0, len(types))
	for _, t := range types {
		out = append(out, sym(t.String()))
	}
	return out
}

// ParseSExpr reads a program in the form written by ToSExpr.
func ParseSExpr(input string) (*Program, error) {
	root, err := sexy.Parse(input)
	if err != nil {
		return nil, err
	}
	if root.Head() != "program" {
		return nil, formError(root, "expected (program ...), got %s", root)
	}

	p := &Program{}
	for _, item := range root.Items[1:] {
		child, err := readTopLevel(item)
		if err != nil {
			return nil, err
		}
		p.Children = append(p.Children, child)
	}
	return p, nil
}

func formError(n *sexy.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", n.Line, fmt.Sprintf(format, args...))
}

func readTopLevel(n *sexy.Node) (TopLevel, error) {
	switch n.Head() {
	case "comment":
		return readComment(n)
	case "global":
		return readGlobal(n)
	case "extern":
		return readExtern(n)
	case "defn":
		return readDefn(n)
	case "defn-wasm":
		return readDefnWasm(n)
	case "":
		return nil, formError(n, "expected a declaration, got %s", n)
	default:
		return nil, formError(n, "unknown declaration form %q", n.Head())
	}
}

// args returns the items after the head of n, checking that there are
// exactly want of them.
func args(n *sexy.Node, want int) ([]*sexy.Node, error) {
	rest := n.Items[1:]
	if len(rest) != want {
		return nil, formError(n, "(%s ...) takes %d arguments, got %d", n.Head(), want, len(rest))
	}
	return rest, nil
}

func readString(n *sexy.Node) (string, error) {
	if n.Type != sexy.NodeString {
		return "", formError(n, "expected string, got %s", n)
	}
	return n.Text, nil
}

func readNumber(n *sexy.Node) (*Number, error) {
	v, err := strconv.ParseInt(n.Text, 10, 32)
	if err != nil {
		return nil, formError(n, "integer %s out of range for i32", n.Text)
	}
	return &Number{Value: int32(v)}, nil
}

func readComment(n *sexy.Node) (*Comment, error) {
	rest, err := args(n, 1)
	if err != nil {
		return nil, err
	}
	text, err := readString(rest[0])
	if err != nil {
		return nil, err
	}
	return &Comment{Text: text}, nil
}

func readIdent(n *sexy.Node) (*Identifier, error) {
	rest, err := args(n, 1)
	if err != nil {
		return nil, err
	}
	name, err := readString(rest[0])
	if err != nil {
		return nil, err
	}
	return &Identifier{Name: name}, nil
}

func readGlobal(n *sexy.Node) (*Global, error) {
	rest, err := args(n, 2)
	if err != nil {
		return nil, err
	}
	name, err := readString(rest[0])
	if err != nil {
		return nil, err
	}
	value, err := readGlobalValue(rest[1])
	if err != nil {
		return nil, err
	}
	return &Global{Name: name, Value: value}, nil
}

func readGlobalValue(n *sexy.Node) (GlobalValue, error) {
	switch n.Type {
	case sexy.NodeInteger:
		return readNumber(n)
	case sexy.NodeString:
		return &TextLiteral{Value: n.Text}, nil
	}

	switch n.Head() {
	case "ident":
		return readIdent(n)
	case "data":
		d := &Data{}
		for _, item := range n.Items[1:] {
			v, err := readGlobalValue(item)
			if err != nil {
				return nil, err
			}
			d.Values = append(d.Values, v)
		}
		return d, nil
	case "":
		return nil, formError(n, "expected a global value, got %s", n)
	default:
		return nil, formError(n, "unknown global value form %q", n.Head())
	}
}

func readExtern(n *sexy.Node) (*ExternalFunction, error) {
	rest, err := args(n, 2)
	if err != nil {
		return nil, err
	}
	name, err := readString(rest[0])
	if err != nil {
		return nil, err
	}
	if rest[1].Head() != "params" {
		return nil, formError(rest[1], "expected (params ...), got %s", rest[1])
	}

	f := &ExternalFunction{Name: name}
	for _, item := range rest[1].Items[1:] {
		param, err := readString(item)
		if err != nil {
			return nil, err
		}
		f.Params = append(f.Params, param)
	}
	return f, nil
}

// clauses splits the labelled lists following a definition's name by head,
// rejecting unknown and repeated labels.
func clauses(n *sexy.Node, allowed ...string) (map[string]*sexy.Node, error) {
	if len(n.Items) < 2 {
		return nil, formError(n, "(%s ...) requires a name", n.Head())
	}
	out := make(map[string]*sexy.Node)
	for _, item := range n.Items[2:] {
		head := item.Head()
		known := false
		for _, a := range allowed {
			if head == a {
				known = true
				break
			}
		}
		if !known {
			return nil, formError(item, "unknown clause %s in (%s ...)", item, n.Head())
		}
		if _, dup := out[head]; dup {
			return nil, formError(item, "duplicate (%s ...) clause", head)
		}
		out[head] = item
	}
	return out, nil
}

// definitionHeader reads the name and optional export clause shared by defn
// and defn-wasm.
func definitionHeader(n *sexy.Node, cl map[string]*sexy.Node) (name, external string, err error) {
	if name, err = readString(n.Items[1]); err != nil {
		return "", "", err
	}
	if export, ok := cl["export"]; ok {
		rest, err := args(export, 1)
		if err != nil {
			return "", "", err
		}
		if external, err = readString(rest[0]); err != nil {
			return "", "", err
		}
		if external == "" {
			return "", "", formError(export, "(export ...) requires a non-empty name")
		}
	}
	return name, external, nil
}

func readDefn(n *sexy.Node) (*FunctionDefinition, error) {
	cl, err := clauses(n, "export", "params", "output", "body")
	if err != nil {
		return nil, err
	}
	name, external, err := definitionHeader(n, cl)
	if err != nil {
		return nil, err
	}
	f := &FunctionDefinition{Name: name, ExternalName: external}

	if params, ok := cl["params"]; ok {
		for _, item := range params.Items[1:] {
			param, err := readParam(item)
			if err != nil {
				return nil, err
			}
			f.Params = append(f.Params, param)
		}
	}

	if output, ok := cl["output"]; ok {
		rest, err := args(output, 1)
		if err != nil {
			return nil, err
		}
		if f.Output, err = readString(rest[0]); err != nil {
			return nil, err
		}
	}

	if body, ok := cl["body"]; ok {
		if f.Children, err = readExpressions(body.Items[1:]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func readParam(n *sexy.Node) (Param, error) {
	if n.Type == sexy.NodeString {
		return Param{Name: n.Text}, nil
	}
	if n.Type != sexy.NodeList || len(n.Items) != 2 {
		return Param{}, formError(n, "expected \"name\" or (\"name\" \"type\"), got %s", n)
	}
	name, err := readString(n.Items[0])
	if err != nil {
		return Param{}, err
	}
	typ, err := readString(n.Items[1])
	if err != nil {
		return Param{}, err
	}
	return Param{Name: name, Type: typ}, nil
}

func readDefnWasm(n *sexy.Node) (*WasmFunctionDefinition, error) {
	cl, err := clauses(n, "export", "params", "outputs", "locals", "body")
	if err != nil {
		return nil, err
	}
	name, external, err := definitionHeader(n, cl)
	if err != nil {
		return nil, err
	}
	f := &WasmFunctionDefinition{Name: name, ExternalName: external}

	if f.Params, err = readValueTypes(cl["params"]); err != nil {
		return nil, err
	}
	if f.Outputs, err = readValueTypes(cl["outputs"]); err != nil {
		return nil, err
	}
	if f.Locals, err = readValueTypes(cl["locals"]); err != nil {
		return nil, err
	}

	if body, ok := cl["body"]; ok {
		for _, item := range body.Items[1:] {
			op, err := readOperation(item)
			if err != nil {
				return nil, err
			}
			f.Children = append(f.Children, op)
		}
	}
	return f, nil
}

// readValueTypes reads a clause of value type symbols. A missing clause is
// an empty list.
func readValueTypes(n *sexy.Node) ([]wasm.ValueType, error) {
	if n == nil {
		return nil, nil
	}
	var out []wasm.ValueType
	for _, item := range n.Items[1:] {
		if item.Type != sexy.NodeSymbol {
			return nil, formError(item, "expected value type, got %s", item)
		}
		t, ok := wasm.ParseValueType(item.Text)
		if !ok {
			return nil, formError(item, "unknown value type %s", item.Text)
		}
		out = append(out, t)
	}
	return out, nil
}

func readOperation(n *sexy.Node) (WasmOperation, error) {
	if n.Type == sexy.NodeInteger {
		return readNumber(n)
	}
	switch n.Head() {
	case "ident":
		return readIdent(n)
	case "comment":
		return readComment(n)
	case "":
		return nil, formError(n, "expected an operation, got %s", n)
	default:
		return nil, formError(n, "unknown operation form %q", n.Head())
	}
}

func readExpressions(items []*sexy.Node) ([]Expression, error) {
	var out []Expression
	for _, item := range items {
		e, err := readExpression(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func readExpression(n *sexy.Node) (Expression, error) {
	switch n.Type {
	case sexy.NodeInteger:
		return readNumber(n)
	case sexy.NodeString:
		return &TextLiteral{Value: n.Text}, nil
	}

	switch n.Head() {
	case "ident":
		return readIdent(n)
	case "comment":
		return readComment(n)
	case "empty":
		if _, err := args(n, 0); err != nil {
			return nil, err
		}
		return &EmptyList{}, nil
	case "call":
		if len(n.Items) < 2 {
			return nil, formError(n, "(call ...) requires a function name")
		}
		name, err := readString(n.Items[1])
		if err != nil {
			return nil, err
		}
		params, err := readExpressions(n.Items[2:])
		if err != nil {
			return nil, err
		}
		return &FunctionCall{FunctionName: name, Params: params}, nil
	case "let":
		return readLet(n)
	case "":
		return nil, formError(n, "expected an expression, got %s", n)
	default:
		return nil, formError(n, "unknown expression form %q", n.Head())
	}
}

func readLet(n *sexy.Node) (*Let, error) {
	rest, err := args(n, 2)
	if err != nil {
		return nil, err
	}
	if rest[0].Head() != "bindings" {
		return nil, formError(rest[0], "expected (bindings ...), got %s", rest[0])
	}
	if rest[1].Head() != "body" {
		return nil, formError(rest[1], "expected (body ...), got %s", rest[1])
	}

	let := &Let{}
	for _, item := range rest[0].Items[1:] {
		if item.Type != sexy.NodeList || len(item.Items) != 2 {
			return nil, formError(item, "expected (\"name\" value), got %s", item)
		}
		name, err := readString(item.Items[0])
		if err != nil {
			return nil, err
		}
		value, err := readExpression(item.Items[1])
		if err != nil {
			return nil, err
		}
		let.Bindings = append(let.Bindings, Binding{Name: name, Value: value})
	}

	if let.Expressions, err = readExpressions(rest[1].Items[1:]); err != nil {
		return nil, err
	}
	return let, nil
}
