package sexy

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota + 1
	NodeString
	NodeInteger
	NodeList
)

func (t NodeType) String() string {
	switch t {
	case NodeSymbol:
		return "symbol"
	case NodeString:
		return "string"
	case NodeInteger:
		return "integer"
	case NodeList:
		return "list"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Node represents any Sexy datum
type Node struct {
	Type NodeType

	// Atoms
	Text string // NodeSymbol, NodeString, NodeInteger

	// Collections
	Items []*Node // NodeList

	// Line is the 1-based source line of the datum (0 for constructed nodes).
	Line int
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol:
		return n.Text
	case NodeString:
		return Quote(n.Text)
	case NodeInteger:
		return n.Text
	case NodeList:
		var parts []string
		for _, item := range n.Items {
			parts = append(parts, item.String())
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, " "))
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

// Quote returns s as a Sexy string literal. Bytes that are not valid UTF-8
// are written as \xHH so that Parse returns s unchanged.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&b, "\\x%02x", s[i])
		case r == '\\':
			b.WriteString(`\\`)
		case r == '"':
			b.WriteString(`\"`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
	return b.String()
}

// Helper constructors for common node types
func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewList(items []*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type == NodeSymbol || n.Type == NodeString || n.Type == NodeInteger
}

// Head returns the symbol at the start of a list, or "" if n is not a list
// starting with a symbol.
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

type parser struct {
	lexer        *lexer
	currentToken token
}

// Parse parses the entire input and returns the single top-level datum
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	if err := p.nextToken(); err != nil {
		return nil, err
	}

	result, err := p.ParseDatum()
	if err != nil {
		return nil, err
	}

	if p.currentToken.Type != tokenEOF {
		return nil, fmt.Errorf("line %d: expected EOF but got %s", p.currentToken.Line, p.currentToken.Type)
	}

	return result, nil
}

func (p *parser) nextToken() error {
	tok, err := p.lexer.nextToken()
	if err != nil {
		return err
	}
	p.currentToken = tok
	return nil
}

func (p *parser) ParseDatum() (*Node, error) {
	tok := p.currentToken
	var node *Node
	switch tok.Type {
	case tokenSymbol:
		node = NewSymbol(tok.Value)
	case tokenString:
		node = NewString(tok.Value)
	case tokenInteger:
		node = NewInteger(tok.Value)
	case tokenLParen:
		return p.parseList()
	default:
		return nil, fmt.Errorf("line %d: unexpected token: %s", tok.Line, tok.Type)
	}
	node.Line = tok.Line
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *parser) parseList() (*Node, error) {
	list := NewList(nil)
	list.Line = p.currentToken.Line
	if err := p.nextToken(); err != nil { // consume '('
		return nil, err
	}

	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		item, err := p.ParseDatum()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}

	if p.currentToken.Type != tokenRParen {
		return nil, fmt.Errorf("line %d: expected ')' but got %s", p.currentToken.Line, p.currentToken.Type)
	}
	if err := p.nextToken(); err != nil { // consume ')'
		return nil, err
	}

	return list, nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenLParen
	tokenRParen
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenInteger:
		return "integer"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type  tokenType
	Value string
	Line  int
}

type lexer struct {
	input   string
	offset  int  // byte offset of current
	next    int  // byte offset of the rune after current
	current rune // 0 at end of input
	line    int
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.current == '\n' {
		l.line++
	}
	l.offset = l.next
	if l.next >= len(l.input) {
		l.current = 0
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.next:])
	l.current = r
	l.next += size
}

func (l *lexer) peekChar() rune {
	if l.next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.next:])
	return r
}

func (l *lexer) atEOF() bool {
	return l.offset >= len(l.input)
}

func (l *lexer) skipWhitespace() {
	for unicode.IsSpace(l.current) {
		l.readChar()
	}
}

func (l *lexer) skipComment() {
	for l.current != '\n' && l.current != '\r' && !l.atEOF() {
		l.readChar()
	}
}

func (l *lexer) readSymbol() string {
	start := l.offset
	for isSymbolChar(l.current) {
		l.readChar()
	}
	return l.input[start:l.offset]
}

func (l *lexer) readString() (string, error) {
	var result strings.Builder
	line := l.line
	l.readChar() // skip opening quote

	for !l.atEOF() && l.current != '"' {
		if l.current == '\\' {
			l.readChar()
			switch l.current {
			case '"':
				result.WriteByte('"')
			case '\\':
				result.WriteByte('\\')
			case 'n':
				result.WriteByte('\n')
			case 't':
				result.WriteByte('\t')
			case 'x':
				c, err := l.readHexByte()
				if err != nil {
					return "", err
				}
				result.WriteByte(c)
			default:
				return "", fmt.Errorf("line %d: invalid escape sequence: \\%c", l.line, l.current)
			}
		} else {
			result.WriteString(l.input[l.offset:l.next])
		}
		l.readChar()
	}

	if l.atEOF() {
		return "", fmt.Errorf("line %d: unterminated string", line)
	}
	l.readChar() // skip closing quote

	return result.String(), nil
}

// readHexByte reads the two digits of a \xHH escape, leaving the lexer on
// the second one.
func (l *lexer) readHexByte() (byte, error) {
	var c byte
	for i := 0; i < 2; i++ {
		l.readChar()
		d, ok := hexDigit(l.current)
		if !ok {
			return 0, fmt.Errorf("line %d: invalid \\x escape: expected two hex digits", l.line)
		}
		c = c<<4 | d
	}
	return c, nil
}

func hexDigit(r rune) (byte, bool) {
	switch {
	case '0' <= r && r <= '9':
		return byte(r - '0'), true
	case 'a' <= r && r <= 'f':
		return byte(r-'a') + 10, true
	case 'A' <= r && r <= 'F':
		return byte(r-'A') + 10, true
	}
	return 0, false
}

func (l *lexer) readInteger() string {
	start := l.offset
	if l.current == '+' || l.current == '-' {
		l.readChar()
	}
	for isDigit(l.current) {
		l.readChar()
	}
	return l.input[start:l.offset]
}

func (l *lexer) nextToken() (token, error) {
	for {
		l.skipWhitespace()

		line := l.line
		if l.atEOF() {
			return token{Type: tokenEOF, Line: line}, nil
		}

		switch l.current {
		case ';':
			l.skipComment()
			continue
		case '(':
			l.readChar()
			return token{Type: tokenLParen, Value: "(", Line: line}, nil
		case ')':
			l.readChar()
			return token{Type: tokenRParen, Value: ")", Line: line}, nil
		case '"':
			str, err := l.readString()
			if err != nil {
				return token{}, err
			}
			return token{Type: tokenString, Value: str, Line: line}, nil
		default:
			if unicode.IsLetter(l.current) {
				symbol := l.readSymbol()
				return token{Type: tokenSymbol, Value: symbol, Line: line}, nil
			} else if isDigit(l.current) || l.current == '+' || l.current == '-' {
				if (l.current == '+' || l.current == '-') && !isDigit(l.peekChar()) {
					// Single + or - is a symbol
					symbol := l.readSymbol()
					return token{Type: tokenSymbol, Value: symbol, Line: line}, nil
				}
				integer := l.readInteger()
				return token{Type: tokenInteger, Value: integer, Line: line}, nil
			} else {
				// Unknown character is a syntax error
				return token{}, fmt.Errorf("line %d: unexpected character '%c'", line, l.current)
			}
		}
	}
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isSymbolChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '+'
}
