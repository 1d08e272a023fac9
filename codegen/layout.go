package codegen

import (
	"encoding/binary"

	"github.com/waspc/wasp/ast"
)

func alignUp(n uint32) uint32 {
	return (n + 3) &^ 3
}

// layout places constant data in linear memory, starting at base. Every
// block starts on a 4-byte boundary.
type layout struct {
	base   uint32
	bytes  []byte
	placed map[ast.GlobalValue]uint32
}

func newLayout(base uint32) *layout {
	return &layout{base: base, placed: make(map[ast.GlobalValue]uint32)}
}

// reserve appends n zero bytes and returns their address.
func (l *layout) reserve(n int) uint32 {
	for len(l.bytes)%4 != 0 {
		l.bytes = append(l.bytes, 0)
	}
	addr := l.base + uint32(len(l.bytes))
	l.bytes = append(l.bytes, make([]byte, n)...)
	return addr
}

// text places s followed by a NUL byte. A literal node is placed once.
func (l *layout) text(t *ast.TextLiteral) uint32 {
	if addr, ok := l.placed[t]; ok {
		return addr
	}
	addr := l.reserve(len(t.Value) + 1)
	copy(l.bytes[addr-l.base:], t.Value)
	l.placed[t] = addr
	return addr
}

// putCell stores v little-endian in the 4 bytes at addr.
func (l *layout) putCell(addr uint32, v int32) {
	binary.LittleEndian.PutUint32(l.bytes[addr-l.base:], uint32(v))
}

// end returns the first address past the placed data.
func (l *layout) end() uint32 {
	return l.base + uint32(len(l.bytes))
}
