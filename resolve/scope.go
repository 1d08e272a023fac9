package resolve

import (
	"errors"
	"fmt"
)

var errAlreadyDefined = errors.New("symbol already defined in scope")

// scope is one level of lexical names. Lookups walk up the parent chain, so
// an inner definition hides an outer one.
type scope[V any] struct {
	parent *scope[V]
	nodes  map[string]V
}

func newScope[V any](parent *scope[V]) *scope[V] {
	return &scope[V]{parent: parent, nodes: map[string]V{}}
}

func (s *scope[V]) insert(name string, element V) error {
	if _, ok := s.nodes[name]; ok {
		return fmt.Errorf("%w: %s", errAlreadyDefined, name)
	}
	s.nodes[name] = element
	return nil
}

func (s *scope[V]) lookup(name string) (V, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if node, ok := cur.nodes[name]; ok {
			return node, true
		}
	}
	var empty V
	return empty, false
}
