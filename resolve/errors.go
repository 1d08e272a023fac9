package resolve

import (
	"fmt"
	"strings"
)

// Name kinds used in error messages.
const (
	KindGlobal      = "global"
	KindFunction    = "function"
	KindParameter   = "parameter"
	KindVariable    = "variable"
	KindInstruction = "instruction"
	KindExternal    = "external function"
)

// DuplicateNameError reports a second declaration of a name within one
// namespace. The first declaration is kept.
type DuplicateNameError struct {
	Kind string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate %s '%s'", e.Kind, e.Name)
}

// UndefinedError reports a reference to a name that is not declared.
type UndefinedError struct {
	Kind string
	Name string
	// In names the function or global containing the reference, if any.
	In string
}

func (e *UndefinedError) Error() string {
	if e.In == "" {
		return fmt.Sprintf("undefined %s '%s'", e.Kind, e.Name)
	}
	return fmt.Sprintf("undefined %s '%s' in '%s'", e.Kind, e.Name, e.In)
}

// AliasCycleError reports a chain of global aliases that revisits a global.
// Chain starts at the global being resolved and ends with the repeated name.
type AliasCycleError struct {
	Chain []string
}

func (e *AliasCycleError) Error() string {
	return "alias cycle: " + strings.Join(e.Chain, " -> ")
}

// Cycle returns the names that form the loop itself, without any lead-in.
func (e *AliasCycleError) Cycle() []string {
	last := e.Chain[len(e.Chain)-1]
	for i, name := range e.Chain {
		if name == last {
			return e.Chain[i : len(e.Chain)-1]
		}
	}
	return nil
}

// ForwardReferenceError reports a global referring to a global declared
// after it.
type ForwardReferenceError struct {
	Global string
	Target string
}

func (e *ForwardReferenceError) Error() string {
	return fmt.Sprintf("global '%s' refers to '%s' before its declaration", e.Global, e.Target)
}

// UnknownTypeError reports a named type that is not in the type table.
type UnknownTypeError struct {
	Name string
	In   string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type '%s' in '%s'", e.Name, e.In)
}

// ArityError reports a call with the wrong number of arguments.
type ArityError struct {
	Function string
	Want     int
	Got      int
	In       string
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("'%s' expects %d arguments, got %d in '%s'", e.Function, e.Want, e.Got, e.In)
}

// TypeError reports a value of the wrong type, or a missing value where one
// is required.
type TypeError struct {
	In  string
	Msg string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error in '%s': %s", e.In, e.Msg)
}
