package resolve

import (
	"maps"

	"github.com/rs/zerolog"

	"github.com/waspc/wasp/wasm"
)

// DefaultParamType is the type name assumed for a parameter without one.
const DefaultParamType = "i32"

// DefaultTypes returns the named type table used when WithTypes is not
// given. The caller owns the returned map.
func DefaultTypes() map[string]wasm.ValueType {
	types := make(map[string]wasm.ValueType, len(wasm.ValueTypes))
	for _, t := range wasm.ValueTypes {
		types[t.String()] = t
	}
	return types
}

// Option configures Resolve.
type Option func(*config)

type config struct {
	types map[string]wasm.ValueType
	env   Environment
	log   zerolog.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		types: DefaultTypes(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithTypes replaces the named type table. The map is copied.
func WithTypes(types map[string]wasm.ValueType) Option {
	return func(c *config) {
		c.types = maps.Clone(types)
	}
}

// WithEnvironment supplies the signatures of external functions. Without
// it every external parameter is i32 and externals return nothing.
func WithEnvironment(env Environment) Option {
	return func(c *config) {
		c.env = env
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = log.With().Str("component", "resolve").Logger()
	}
}
