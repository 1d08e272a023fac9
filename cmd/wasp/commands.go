package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/waspc/wasp/ast"
	"github.com/waspc/wasp/resolve"
	"github.com/waspc/wasp/wasm"
)

func (c *cli) buildCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "build [-o output] <file>",
		Short: "Compile a .tree file to WebAssembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := c.compile(args[0])
			if err != nil {
				return err
			}
			bin, err := wasm.Encode(m)
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultOutput(args[0])
			}
			if err := os.WriteFile(output, bin, 0644); err != nil {
				return err
			}
			c.log.Info().Str("output", output).Int("bytes", len(bin)).Msg("wrote module")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: <file>.wasm)")
	return cmd
}

func (c *cli) watCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wat <file>",
		Short: "Print the generated module in text format",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := c.compile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(c.stdout, wasm.FormatWAT(m))
			return nil
		},
	}
}

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Resolve a .tree file and report every error",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_, _, err := c.resolve(args[0])
			var merr *multierror.Error
			if !errors.As(err, &merr) {
				if err == nil {
					fmt.Fprintln(c.stdout, "no errors found")
				}
				return err
			}
			for _, e := range merr.Errors {
				fmt.Fprintf(c.stdout, "%s: %v\n", args[0], e)
			}
			return fmt.Errorf("%d errors", len(merr.Errors))
		},
	}
}

func (c *cli) fmtCmd() *cobra.Command {
	var (
		write bool
		opts  ast.FormatOptions
	)
	cmd := &cobra.Command{
		Use:   "fmt [-w] [--strip-comments] <file>",
		Short: "Print a .tree file in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := c.load(args[0])
			if err != nil {
				return err
			}
			out := ast.Format(p, opts) + "\n"
			if write {
				return os.WriteFile(args[0], []byte(out), 0644)
			}
			fmt.Fprint(c.stdout, out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result to the file instead of stdout")
	cmd.Flags().BoolVar(&opts.StripComments, "strip-comments", false, "drop comments")
	return cmd
}

func (c *cli) globalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "globals <file>",
		Short: "Print the resolved value of every global",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := c.load(args[0])
			if err != nil {
				return err
			}
			globals := resolve.NewGlobals(p)
			for _, name := range globalNames(p) {
				value, steps, err := globals.Resolve(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.stdout, "%s = %s\n", name, ast.GlobalValueSExpr(value))
				c.log.Debug().Str("global", name).Int("steps", steps).Msg("resolved global")
			}
			return nil
		},
	}
}

// globalNames lists global names in declaration order, without repeats.
func globalNames(p *ast.Program) []string {
	var names []string
	seen := make(map[string]bool)
	for _, child := range p.Children {
		if g, ok := child.(*ast.Global); ok && !seen[g.Name] {
			seen[g.Name] = true
			names = append(names, g.Name)
		}
	}
	return names
}
