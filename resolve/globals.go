package resolve

import (
	"slices"

	"github.com/waspc/wasp/ast"
)

// Globals indexes the global declarations of a program by name. When a name
// is declared twice the first declaration is used.
type Globals struct {
	byName   map[string]*ast.Global
	position map[string]int
}

// NewGlobals collects the globals of p.
func NewGlobals(p *ast.Program) *Globals {
	g := &Globals{
		byName:   make(map[string]*ast.Global),
		position: make(map[string]int),
	}
	for i, child := range p.Children {
		if global, ok := child.(*ast.Global); ok {
			if _, dup := g.byName[global.Name]; !dup {
				g.byName[global.Name] = global
				g.position[global.Name] = i
			}
		}
	}
	return g
}

// Has reports whether name is a declared global.
func (g *Globals) Has(name string) bool {
	_, ok := g.byName[name]
	return ok
}

// Resolve follows the alias chain starting at the global name and returns
// the value it ends in, along with the number of alias steps taken. Data
// values are returned as new Data with every element resolved the same way.
//
// Chains that revisit a global fail with *AliasCycleError. References to a
// global declared later fail with *ForwardReferenceError.
func (g *Globals) Resolve(name string) (ast.GlobalValue, int, error) {
	decl, ok := g.byName[name]
	if !ok {
		return nil, 0, &UndefinedError{Kind: KindGlobal, Name: name}
	}
	f := &aliasFollower{globals: g, owner: decl, chain: []string{name}}
	r := ast.VisitGlobalValue[followed](decl.Value, f)
	if r.err == nil && f.forward != nil {
		r = followed{err: f.forward}
	}
	return r.value, f.steps, r.err
}

type followed struct {
	value ast.GlobalValue
	err   error
}

// aliasFollower walks one alias chain. chain holds every global visited so
// far; owner is the global whose value is being visited.
type aliasFollower struct {
	globals *Globals
	owner   *ast.Global
	chain   []string
	steps   int
	forward error
}

func (f *aliasFollower) VisitNumber(n *ast.Number) followed           { return followed{value: n} }
func (f *aliasFollower) VisitTextLiteral(t *ast.TextLiteral) followed { return followed{value: t} }

func (f *aliasFollower) VisitIdentifier(id *ast.Identifier) followed {
	target, ok := f.globals.byName[id.Name]
	if !ok {
		return followed{err: &UndefinedError{Kind: KindGlobal, Name: id.Name, In: f.owner.Name}}
	}
	if slices.Contains(f.chain, id.Name) {
		return followed{err: &AliasCycleError{Chain: append(slices.Clip(f.chain), id.Name)}}
	}
	if f.forward == nil && f.globals.position[id.Name] > f.globals.position[f.owner.Name] {
		f.forward = &ForwardReferenceError{Global: f.owner.Name, Target: id.Name}
	}

	f.chain = append(slices.Clip(f.chain), id.Name)
	f.owner = target
	f.steps++
	return ast.VisitGlobalValue[followed](target.Value, f)
}

// VisitData resolves each element as a chain of its own, starting from the
// global that holds the data.
func (f *aliasFollower) VisitData(d *ast.Data) followed {
	out := &ast.Data{Values: make([]ast.GlobalValue, 0, len(d.Values))}
	for _, v := range d.Values {
		elem := &aliasFollower{globals: f.globals, owner: f.owner, chain: f.chain}
		r := ast.VisitGlobalValue[followed](v, elem)
		if r.err != nil {
			return r
		}
		if elem.forward != nil {
			return followed{err: elem.forward}
		}
		out.Values = append(out.Values, r.value)
	}
	return followed{value: out}
}
