package codegen

import "github.com/rs/zerolog"

const (
	// DefaultDataOffset keeps address 0 free so it can serve as a null
	// address.
	DefaultDataOffset = 4
	// DefaultImportModule is the module name of every import.
	DefaultImportModule = "env"
	// PageSize is the size of a WebAssembly memory page.
	PageSize = 65536
)

// Option configures Generate.
type Option func(*config)

type config struct {
	dataOffset   uint32
	memoryPages  uint32
	exportMemory bool
	importModule string
	log          zerolog.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		dataOffset:   DefaultDataOffset,
		memoryPages:  1,
		exportMemory: true,
		importModule: DefaultImportModule,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.dataOffset = alignUp(cfg.dataOffset)
	return cfg
}

// WithDataOffset sets the address of the first byte of constant data. It is
// rounded up to a multiple of 4.
func WithDataOffset(offset uint32) Option {
	return func(c *config) {
		c.dataOffset = offset
	}
}

// WithMemoryPages sets the minimum memory size. The memory grows past it
// when the constant data needs more room.
func WithMemoryPages(pages uint32) Option {
	return func(c *config) {
		c.memoryPages = pages
	}
}

// WithoutMemoryExport keeps the memory private to the module.
func WithoutMemoryExport() Option {
	return func(c *config) {
		c.exportMemory = false
	}
}

// WithImportModule sets the module name external functions are imported
// from.
func WithImportModule(name string) Option {
	return func(c *config) {
		c.importModule = name
	}
}

// WithLogger sets the logger for debug output. Entries carry
// component=codegen.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = log.With().Str("component", "codegen").Logger()
	}
}
