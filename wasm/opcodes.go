package wasm

// Opcodes referenced outside the instruction table.
const (
	BLOCK     = 0x02
	END       = 0x0B
	CALL      = 0x10
	LOCAL_GET = 0x20
	I32_CONST = 0x41
)

// BlockTypeEmpty is the block type of a block that yields no value.
const BlockTypeEmpty = 0x40

// ImmediateKind describes one immediate operand of an instruction.
type ImmediateKind int

const (
	ImmIndex     ImmediateKind = iota // local, global or label index (u32)
	ImmFunc                           // function index (u32), may be given by name
	ImmI32                            // signed 32-bit constant
	ImmI64                            // signed 64-bit constant
	ImmF32                            // 32-bit float constant
	ImmF64                            // 64-bit float constant
	ImmAlign                          // memarg alignment exponent (u32)
	ImmOffset                         // memarg offset (u32)
	ImmBlockType                      // block result type
)

// Instruction describes one entry of the instruction table.
type Instruction struct {
	Name       string
	Opcode     byte
	Immediates []ImmediateKind
	// Reserved is set for memory.size and memory.grow, which carry a zero
	// memory index byte that is not written in the text format.
	Reserved bool
}

var (
	noImm     []ImmediateKind
	indexImm  = []ImmediateKind{ImmIndex}
	memargImm = []ImmediateKind{ImmAlign, ImmOffset}
	blockImm  = []ImmediateKind{ImmBlockType}
)

var instructionList = []Instruction{
	// Control
	{Name: "unreachable", Opcode: 0x00},
	{Name: "nop", Opcode: 0x01},
	{Name: "block", Opcode: 0x02, Immediates: blockImm},
	{Name: "loop", Opcode: 0x03, Immediates: blockImm},
	{Name: "if", Opcode: 0x04, Immediates: blockImm},
	{Name: "else", Opcode: 0x05},
	{Name: "end", Opcode: 0x0B},
	{Name: "br", Opcode: 0x0C, Immediates: indexImm},
	{Name: "br_if", Opcode: 0x0D, Immediates: indexImm},
	{Name: "return", Opcode: 0x0F},
	{Name: "call", Opcode: 0x10, Immediates: []ImmediateKind{ImmFunc}},
	{Name: "drop", Opcode: 0x1A},
	{Name: "select", Opcode: 0x1B},

	// Variables
	{Name: "local.get", Opcode: 0x20, Immediates: indexImm},
	{Name: "local.set", Opcode: 0x21, Immediates: indexImm},
	{Name: "local.tee", Opcode: 0x22, Immediates: indexImm},
	{Name: "global.get", Opcode: 0x23, Immediates: indexImm},
	{Name: "global.set", Opcode: 0x24, Immediates: indexImm},

	// Memory
	{Name: "i32.load", Opcode: 0x28, Immediates: memargImm},
	{Name: "i64.load", Opcode: 0x29, Immediates: memargImm},
	{Name: "f32.load", Opcode: 0x2A, Immediates: memargImm},
	{Name: "f64.load", Opcode: 0x2B, Immediates: memargImm},
	{Name: "i32.load8_s", Opcode: 0x2C, Immediates: memargImm},
	{Name: "i32.load8_u", Opcode: 0x2D, Immediates: memargImm},
	{Name: "i32.load16_s", Opcode: 0x2E, Immediates: memargImm},
	{Name: "i32.load16_u", Opcode: 0x2F, Immediates: memargImm},
	{Name: "i64.load8_s", Opcode: 0x30, Immediates: memargImm},
	{Name: "i64.load8_u", Opcode: 0x31, Immediates: memargImm},
	{Name: "i64.load16_s", Opcode: 0x32, Immediates: memargImm},
	{Name: "i64.load16_u", Opcode: 0x33, Immediates: memargImm},
	{Name: "i64.load32_s", Opcode: 0x34, Immediates: memargImm},
	{Name: "i64.load32_u", Opcode: 0x35, Immediates: memargImm},
	{Name: "i32.store", Opcode: 0x36, Immediates: memargImm},
	{Name: "i64.store", Opcode: 0x37, Immediates: memargImm},
	{Name: "f32.store", Opcode: 0x38, Immediates: memargImm},
	{Name: "f64.store", Opcode: 0x39, Immediates: memargImm},
	{Name: "i32.store8", Opcode: 0x3A, Immediates: memargImm},
	{Name: "i32.store16", Opcode: 0x3B, Immediates: memargImm},
	{Name: "i64.store8", Opcode: 0x3C, Immediates: memargImm},
	{Name: "i64.store16", Opcode: 0x3D, Immediates: memargImm},
	{Name: "i64.store32", Opcode: 0x3E, Immediates: memargImm},
	{Name: "memory.size", Opcode: 0x3F, Reserved: true},
	{Name: "memory.grow", Opcode: 0x40, Reserved: true},

	// Constants
	{Name: "i32.const", Opcode: 0x41, Immediates: []ImmediateKind{ImmI32}},
	{Name: "i64.const", Opcode: 0x42, Immediates: []ImmediateKind{ImmI64}},
	{Name: "f32.const", Opcode: 0x43, Immediates: []ImmediateKind{ImmF32}},
	{Name: "f64.const", Opcode: 0x44, Immediates: []ImmediateKind{ImmF64}},

	// i32 comparison
	{Name: "i32.eqz", Opcode: 0x45},
	{Name: "i32.eq", Opcode: 0x46},
	{Name: "i32.ne", Opcode: 0x47},
	{Name: "i32.lt_s", Opcode: 0x48},
	{Name: "i32.lt_u", Opcode: 0x49},
	{Name: "i32.gt_s", Opcode: 0x4A},
	{Name: "i32.gt_u", Opcode: 0x4B},
	{Name: "i32.le_s", Opcode: 0x4C},
	{Name: "i32.le_u", Opcode: 0x4D},
	{Name: "i32.ge_s", Opcode: 0x4E},
	{Name: "i32.ge_u", Opcode: 0x4F},

	// i64 comparison
	{Name: "i64.eqz", Opcode: 0x50},
	{Name: "i64.eq", Opcode: 0x51},
	{Name: "i64.ne", Opcode: 0x52},
	{Name: "i64.lt_s", Opcode: 0x53},
	{Name: "i64.lt_u", Opcode: 0x54},
	{Name: "i64.gt_s", Opcode: 0x55},
	{Name: "i64.gt_u", Opcode: 0x56},
	{Name: "i64.le_s", Opcode: 0x57},
	{Name: "i64.le_u", Opcode: 0x58},
	{Name: "i64.ge_s", Opcode: 0x59},
	{Name: "i64.ge_u", Opcode: 0x5A},

	// Float comparison
	{Name: "f32.eq", Opcode: 0x5B},
	{Name: "f32.ne", Opcode: 0x5C},
	{Name: "f32.lt", Opcode: 0x5D},
	{Name: "f32.gt", Opcode: 0x5E},
	{Name: "f32.le", Opcode: 0x5F},
	{Name: "f32.ge", Opcode: 0x60},
	{Name: "f64.eq", Opcode: 0x61},
	{Name: "f64.ne", Opcode: 0x62},
	{Name: "f64.lt", Opcode: 0x63},
	{Name: "f64.gt", Opcode: 0x64},
	{Name: "f64.le", Opcode: 0x65},
	{Name: "f64.ge", Opcode: 0x66},

	// i32 arithmetic
	{Name: "i32.clz", Opcode: 0x67},
	{Name: "i32.ctz", Opcode: 0x68},
	{Name: "i32.popcnt", Opcode: 0x69},
	{Name: "i32.add", Opcode: 0x6A},
	{Name: "i32.sub", Opcode: 0x6B},
	{Name: "i32.mul", Opcode: 0x6C},
	{Name: "i32.div_s", Opcode: 0x6D},
	{Name: "i32.div_u", Opcode: 0x6E},
	{Name: "i32.rem_s", Opcode: 0x6F},
	{Name: "i32.rem_u", Opcode: 0x70},
	{Name: "i32.and", Opcode: 0x71},
	{Name: "i32.or", Opcode: 0x72},
	{Name: "i32.xor", Opcode: 0x73},
	{Name: "i32.shl", Opcode: 0x74},
	{Name: "i32.shr_s", Opcode: 0x75},
	{Name: "i32.shr_u", Opcode: 0x76},
	{Name: "i32.rotl", Opcode: 0x77},
	{Name: "i32.rotr", Opcode: 0x78},

	// i64 arithmetic
	{Name: "i64.clz", Opcode: 0x79},
	{Name: "i64.ctz", Opcode: 0x7A},
	{Name: "i64.popcnt", Opcode: 0x7B},
	{Name: "i64.add", Opcode: 0x7C},
	{Name: "i64.sub", Opcode: 0x7D},
	{Name: "i64.mul", Opcode: 0x7E},
	{Name: "i64.div_s", Opcode: 0x7F},
	{Name: "i64.div_u", Opcode: 0x80},
	{Name: "i64.rem_s", Opcode: 0x81},
	{Name: "i64.rem_u", Opcode: 0x82},
	{Name: "i64.and", Opcode: 0x83},
	{Name: "i64.or", Opcode: 0x84},
	{Name: "i64.xor", Opcode: 0x85},
	{Name: "i64.shl", Opcode: 0x86},
	{Name: "i64.shr_s", Opcode: 0x87},
	{Name: "i64.shr_u", Opcode: 0x88},
	{Name: "i64.rotl", Opcode: 0x89},
	{Name: "i64.rotr", Opcode: 0x8A},

	// f32 arithmetic
	{Name: "f32.abs", Opcode: 0x8B},
	{Name: "f32.neg", Opcode: 0x8C},
	{Name: "f32.ceil", Opcode: 0x8D},
	{Name: "f32.floor", Opcode: 0x8E},
	{Name: "f32.trunc", Opcode: 0x8F},
	{Name: "f32.nearest", Opcode: 0x90},
	{Name: "f32.sqrt", Opcode: 0x91},
	{Name: "f32.add", Opcode: 0x92},
	{Name: "f32.sub", Opcode: 0x93},
	{Name: "f32.mul", Opcode: 0x94},
	{Name: "f32.div", Opcode: 0x95},
	{Name: "f32.min", Opcode: 0x96},
	{Name: "f32.max", Opcode: 0x97},
	{Name: "f32.copysign", Opcode: 0x98},

	// f64 arithmetic
	{Name: "f64.abs", Opcode: 0x99},
	{Name: "f64.neg", Opcode: 0x9A},
	{Name: "f64.ceil", Opcode: 0x9B},
	{Name: "f64.floor", Opcode: 0x9C},
	{Name: "f64.trunc", Opcode: 0x9D},
	{Name: "f64.nearest", Opcode: 0x9E},
	{Name: "f64.sqrt", Opcode: 0x9F},
	{Name: "f64.add", Opcode: 0xA0},
	{Name: "f64.sub", Opcode: 0xA1},
	{Name: "f64.mul", Opcode: 0xA2},
	{Name: "f64.div", Opcode: 0xA3},
	{Name: "f64.min", Opcode: 0xA4},
	{Name: "f64.max", Opcode: 0xA5},
	{Name: "f64.copysign", Opcode: 0xA6},

	// Conversions
	{Name: "i32.wrap_i64", Opcode: 0xA7},
	{Name: "i32.trunc_f32_s", Opcode: 0xA8},
	{Name: "i32.trunc_f32_u", Opcode: 0xA9},
	{Name: "i32.trunc_f64_s", Opcode: 0xAA},
	{Name: "i32.trunc_f64_u", Opcode: 0xAB},
	{Name: "i64.extend_i32_s", Opcode: 0xAC},
	{Name: "i64.extend_i32_u", Opcode: 0xAD},
	{Name: "i64.trunc_f32_s", Opcode: 0xAE},
	{Name: "i64.trunc_f32_u", Opcode: 0xAF},
	{Name: "i64.trunc_f64_s", Opcode: 0xB0},
	{Name: "i64.trunc_f64_u", Opcode: 0xB1},
	{Name: "f32.convert_i32_s", Opcode: 0xB2},
	{Name: "f32.convert_i32_u", Opcode: 0xB3},
	{Name: "f32.convert_i64_s", Opcode: 0xB4},
	{Name: "f32.convert_i64_u", Opcode: 0xB5},
	{Name: "f32.demote_f64", Opcode: 0xB6},
	{Name: "f64.convert_i32_s", Opcode: 0xB7},
	{Name: "f64.convert_i32_u", Opcode: 0xB8},
	{Name: "f64.convert_i64_s", Opcode: 0xB9},
	{Name: "f64.convert_i64_u", Opcode: 0xBA},
	{Name: "f64.promote_f32", Opcode: 0xBB},
	{Name: "i32.reinterpret_f32", Opcode: 0xBC},
	{Name: "i64.reinterpret_f64", Opcode: 0xBD},
	{Name: "f32.reinterpret_i32", Opcode: 0xBE},
	{Name: "f64.reinterpret_i64", Opcode: 0xBF},
}

var instructionsByName = func() map[string]*Instruction {
	m := make(map[string]*Instruction, len(instructionList))
	for i := range instructionList {
		m[instructionList[i].Name] = &instructionList[i]
	}
	return m
}()

// LookupInstruction returns the table entry for a text-format instruction
// name such as "i32.add".
func LookupInstruction(name string) (*Instruction, bool) {
	inst, ok := instructionsByName[name]
	return inst, ok
}

// MustLookupInstruction is like LookupInstruction but panics on unknown
// names. Only use it with names known at compile time.
func MustLookupInstruction(name string) *Instruction {
	inst, ok := instructionsByName[name]
	if !ok {
		panic("unknown instruction: " + name)
	}
	return inst
}
