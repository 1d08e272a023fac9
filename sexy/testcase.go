package sexy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType is the language tag of a test's input fence.
type InputType string

const (
	// InputTypeWaspTree is a program in the canonical tree dump form.
	InputTypeWaspTree InputType = "wasp-tree"
)

// AssertionType is the language tag of an assertion fence.
type AssertionType string

const (
	AssertionTypeDump         AssertionType = "dump"          // canonical re-print of the input
	AssertionTypeGlobals      AssertionType = "globals"       // resolved global values
	AssertionTypeWAT          AssertionType = "wat"           // generated module, text form
	AssertionTypeResolveError AssertionType = "resolve-error" // one expected error per line
)

// Assertion is one expectation attached to a test case.
type Assertion struct {
	Type    AssertionType
	Content string
	// ParsedSexy is set for assertions whose body is itself a Sexy datum
	// (dump and globals).
	ParsedSexy *Node
}

// TestCase is a "Test: <name>" section of a Markdown document: one input
// fence followed by its assertions.
type TestCase struct {
	Name       string
	Input      string
	InputType  InputType
	Line       int // line of the input fence's first content line
	Assertions []Assertion
}

const testHeadingPrefix = "Test: "

type fenceKind int

const (
	fenceUnknown fenceKind = iota
	fenceInput
	fenceAssertion
)

var fenceKinds = map[string]fenceKind{
	string(InputTypeWaspTree):         fenceInput,
	string(AssertionTypeDump):         fenceAssertion,
	string(AssertionTypeGlobals):      fenceAssertion,
	string(AssertionTypeWAT):          fenceAssertion,
	string(AssertionTypeResolveError): fenceAssertion,
}

// sexyAssertions lists the assertion types whose body is parsed as Sexy.
var sexyAssertions = map[AssertionType]bool{
	AssertionTypeDump:    true,
	AssertionTypeGlobals: true,
}

// ExtractTestCases collects the test cases of a Markdown document. Fences
// tagged with a known language must sit under a test heading; untagged
// fences anywhere are ignored.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	c := &collector{source: []byte(markdownContent)}
	doc := goldmark.New().Parser().Parse(text.NewReader(c.source))

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var err error
		switch n := node.(type) {
		case *ast.Heading:
			if title := headingText(n, c.source); strings.HasPrefix(title, testHeadingPrefix) {
				err = c.open(strings.TrimPrefix(title, testHeadingPrefix))
			}
		case *ast.FencedCodeBlock:
			err = c.fence(n)
		}
		if err != nil {
			return ast.WalkStop, err
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := c.close(); err != nil {
		return nil, err
	}
	return c.cases, nil
}

// collector accumulates test cases while walking a document.
type collector struct {
	source  []byte
	cases   []TestCase
	current *TestCase
}

func (c *collector) open(name string) error {
	if err := c.close(); err != nil {
		return err
	}
	c.current = &TestCase{Name: name, Assertions: []Assertion{}}
	return nil
}

// close finishes the current test case, if any.
func (c *collector) close() error {
	tc := c.current
	if tc == nil {
		return nil
	}
	c.current = nil
	switch {
	case tc.Input == "":
		return fmt.Errorf("test '%s': missing input fence", tc.Name)
	case len(tc.Assertions) == 0:
		return fmt.Errorf("test '%s': missing assertion fence", tc.Name)
	}
	c.cases = append(c.cases, *tc)
	return nil
}

func (c *collector) fence(n *ast.FencedCodeBlock) error {
	language := string(n.Language(c.source))
	if language == "" {
		return nil
	}
	line := fenceLine(n, c.source)
	kind := fenceKinds[language]

	tc := c.current
	if tc == nil {
		if kind == fenceUnknown {
			return fmt.Errorf("line %d: unknown fence language '%s' outside of a test case", line, language)
		}
		return fmt.Errorf("line %d: %s fence outside of a test case", line, language)
	}

	body := strings.TrimRight(fenceBody(n, c.source), "\n")
	switch kind {
	case fenceInput:
		if tc.Input != "" {
			return fmt.Errorf("line %d: test '%s': more than one input fence", line, tc.Name)
		}
		tc.Input = body
		tc.InputType = InputType(language)
		tc.Line = line
	case fenceAssertion:
		a := Assertion{Type: AssertionType(language), Content: body}
		if sexyAssertions[a.Type] {
			node, err := Parse(body)
			if err != nil {
				return fmt.Errorf("line %d: test '%s': bad %s assertion: %w", line, tc.Name, language, err)
			}
			a.ParsedSexy = node
		}
		tc.Assertions = append(tc.Assertions, a)
	default:
		return fmt.Errorf("line %d: test '%s': unknown fence language '%s'", line, tc.Name, language)
	}
	return nil
}

func headingText(h *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(h, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceBody(n *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// fenceLine returns the 1-based line of the fence's first content line, or
// of its info string when the fence is empty.
func fenceLine(n *ast.FencedCodeBlock, source []byte) int {
	start := 0
	switch {
	case n.Lines().Len() > 0:
		start = n.Lines().At(0).Start
	case n.Info != nil:
		start = n.Info.Segment.Start
	}
	return bytes.Count(source[:min(start, len(source))], []byte("\n")) + 1
}
