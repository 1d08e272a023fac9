package wasm

// Module is an in-memory WebAssembly module, ready to be encoded.
//
// Function indices count imports first, then Funcs in order.
type Module struct {
	Types   []FuncType
	Imports []Import
	Funcs   []Func
	Memory  *Memory
	Exports []Export
	Data    []DataSegment
}

// Import is a function imported from the host.
type Import struct {
	Module  string
	Name    string
	TypeIdx uint32
}

// Func is a function defined in the module.
type Func struct {
	// Name is only used by the text format.
	Name    string
	TypeIdx uint32
	Locals  []ValueType
	Body    []Instr
}

// Memory is the module's single linear memory.
type Memory struct {
	MinPages uint32
}

// ExportKind is the kind of an exported item.
type ExportKind byte

const (
	ExportFunc   ExportKind = 0x00
	ExportMemory ExportKind = 0x02
)

type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32
}

// DataSegment is an active data segment for memory 0.
type DataSegment struct {
	Offset uint32
	Bytes  []byte
}

// Instr is one instruction with its immediates. Immediates are stored as
// integers; f32.const and f64.const immediates are converted to floats on
// output.
type Instr struct {
	Op   *Instruction
	Imms []int64
}

// NewInstr builds an Instr from a table name. It panics on unknown names.
func NewInstr(name string, imms ...int64) Instr {
	return Instr{Op: MustLookupInstruction(name), Imms: imms}
}

// AddType returns the index of ft in m.Types, appending it if it is new.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, existing := range m.Types {
		if existing.Equal(ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}
