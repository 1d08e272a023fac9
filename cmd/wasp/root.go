package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/waspc/wasp/ast"
	"github.com/waspc/wasp/codegen"
	"github.com/waspc/wasp/resolve"
	"github.com/waspc/wasp/wasm"
)

// cli holds the flags shared by every command.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	log    zerolog.Logger

	verbose        bool
	envFile        string
	importModule   string
	memoryPages    uint32
	noMemoryExport bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr, log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "wasp",
		Short: "wasp - compile program trees to WebAssembly",
		Long: `wasp reads a program tree in its s-expression dump form (.tree files),
resolves its names and types, and generates a WebAssembly module.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := zerolog.InfoLevel
			if c.verbose {
				level = zerolog.DebugLevel
			}
			c.log = zerolog.New(zerolog.ConsoleWriter{Out: c.stderr}).
				Level(level).
				With().Timestamp().Logger()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log compilation progress")
	flags.StringVar(&c.envFile, "env", "", "file declaring the signatures of external functions")
	flags.StringVar(&c.importModule, "import-module", codegen.DefaultImportModule, "module name of imported functions")
	flags.Uint32Var(&c.memoryPages, "memory-pages", 1, "minimum size of linear memory in pages")
	flags.BoolVar(&c.noMemoryExport, "no-memory-export", false, "do not export linear memory")

	root.AddCommand(
		c.buildCmd(),
		c.watCmd(),
		c.checkCmd(),
		c.fmtCmd(),
		c.globalsCmd(),
	)
	return root
}

// load reads and parses a tree file.
func (c *cli) load(path string) (*ast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ast.ParseSExpr(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.log.Debug().Str("file", path).Int("declarations", len(p.Children)).Msg("parsed tree")
	return p, nil
}

func (c *cli) resolveOptions() ([]resolve.Option, error) {
	opts := []resolve.Option{resolve.WithLogger(c.log)}
	if c.envFile != "" {
		src, err := os.ReadFile(c.envFile)
		if err != nil {
			return nil, err
		}
		env, err := resolve.ParseEnvironment(string(src))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.envFile, err)
		}
		opts = append(opts, resolve.WithEnvironment(env))
	}
	return opts, nil
}

func (c *cli) codegenOptions() []codegen.Option {
	opts := []codegen.Option{
		codegen.WithLogger(c.log),
		codegen.WithImportModule(c.importModule),
		codegen.WithMemoryPages(c.memoryPages),
	}
	if c.noMemoryExport {
		opts = append(opts, codegen.WithoutMemoryExport())
	}
	return opts
}

// resolve parses and resolves the tree at path.
func (c *cli) resolve(path string) (*ast.Program, *resolve.Info, error) {
	p, err := c.load(path)
	if err != nil {
		return nil, nil, err
	}
	opts, err := c.resolveOptions()
	if err != nil {
		return nil, nil, err
	}
	info, err := resolve.Resolve(p, opts...)
	if err != nil {
		return nil, nil, err
	}
	return p, info, nil
}

// compile runs the whole pipeline on the tree at path.
func (c *cli) compile(path string) (*wasm.Module, error) {
	p, info, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	return codegen.Generate(p, info, c.codegenOptions()...)
}

func defaultOutput(path string) string {
	return strings.TrimSuffix(path, ".tree") + ".wasm"
}
