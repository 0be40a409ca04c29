// Package parser turns one semicolon-terminated .evt chunk into a typed
// descriptor. Each grammar is a small hand-rolled recursive-descent parser
// over an explicit cursor; whitespace is skipped between tokens and any
// unexpected token fails the whole chunk.
package parser

import (
	"strconv"
	"strings"

	"github.com/evtlang/evtc/internal/compiler/ast"
	compilererrors "github.com/evtlang/evtc/internal/compiler/errors"
	"github.com/evtlang/evtc/internal/grammar"
)

// cursor is an explicit position into a chunk being parsed.
type cursor struct {
	chunk string
	pos   int
	loc   ast.Location
}

func newCursor(chunk string, loc ast.Location) *cursor {
	return &cursor{chunk: chunk, loc: loc}
}

func (c *cursor) errorf(format string, args ...any) error {
	return compilererrors.NewSyntax(compilererrors.CodeUnexpectedToken, format, args...).WithLocation(c.loc)
}

func (c *cursor) eatSpaces() {
	for c.pos < len(c.chunk) && isSpace(c.chunk[c.pos]) {
		c.pos++
	}
}

// lookingAt reports whether, after skipping whitespace, the next input
// matches token. The cursor does not advance.
func (c *cursor) lookingAt(token string) bool {
	i := c.pos
	for i < len(c.chunk) && isSpace(c.chunk[i]) {
		i++
	}
	return strings.HasPrefix(c.chunk[i:], token)
}

// eat consumes token, which must be next in the input.
func (c *cursor) eat(token string) error {
	c.eatSpaces()
	if !strings.HasPrefix(c.chunk[c.pos:], token) {
		return c.errorf("expected token '%s'", token)
	}
	c.pos += len(token)
	return nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// isIDByte reports whether the byte at index i continues an identifier.
// Identifiers cover qualified grammar names, including the "::" namespace
// separator, plus '$' for reserved accessors and '%' for hook names.
func (c *cursor) isIDByte(i int) bool {
	b := c.chunk[i]

	if isAlnum(b) || b == '_' || b == '$' || b == '%' {
		return true
	}

	if b == ':' {
		if i+1 < len(c.chunk) && c.chunk[i+1] == ':' {
			return true
		}
		if i > 0 && c.chunk[i-1] == ':' {
			return true
		}
	}

	return false
}

// extractID consumes a (possibly qualified) identifier.
func (c *cursor) extractID() (grammar.ID, error) {
	c.eatSpaces()

	j := c.pos
	for j < len(c.chunk) && c.isIDByte(j) {
		j++
	}

	if j == c.pos {
		return "", c.errorf("expected id")
	}

	id := c.chunk[c.pos:j]
	c.pos = j
	return grammar.NewID(id), nil
}

// extractPath consumes a path-like token: anything up to whitespace, a
// clause separator, or the statement terminator.
func (c *cursor) extractPath() (string, error) {
	c.eatSpaces()

	j := c.pos
	for j < len(c.chunk) && !isSpace(c.chunk[j]) && c.chunk[j] != ';' && c.chunk[j] != ',' {
		j++
	}

	if j == c.pos {
		return "", c.errorf("expected path")
	}

	path := c.chunk[c.pos:j]
	c.pos = j
	return path, nil
}

// extractInt consumes an optionally signed decimal integer.
func (c *cursor) extractInt() (int, error) {
	c.eatSpaces()

	j := c.pos
	if j < len(c.chunk) && (c.chunk[j] == '-' || c.chunk[j] == '+') {
		j++
	}
	for j < len(c.chunk) && isDigit(c.chunk[j]) {
		j++
	}

	v, err := strconv.Atoi(c.chunk[c.pos:j])
	if err != nil {
		return 0, c.errorf("expected integer")
	}

	c.pos = j
	return v, nil
}

// extractExpr consumes an expression up to the first top-level ',' or
// closing ')'. The scan is bracket-depth aware so nested calls inside an
// event argument are captured whole.
func (c *cursor) extractExpr() (string, error) {
	c.eatSpaces()

	level := 0
	j := c.pos

scan:
	for j < len(c.chunk) {
		switch c.chunk[j] {
		case '(', '[', '{':
			level++
		case ')':
			if level == 0 {
				break scan
			}
			level--
		case ']', '}':
			if level == 0 {
				return "", c.errorf("expected expression")
			}
			level--
		case ',':
			if level == 0 {
				break scan
			}
		}
		j++
	}

	expr := strings.TrimSpace(c.chunk[c.pos:j])
	c.pos = j
	return expr, nil
}

// extractPort consumes a "<int>/<proto>" port specification.
func (c *cursor) extractPort() (ast.Port, error) {
	c.eatSpaces()

	j := c.pos
	for j < len(c.chunk) && isDigit(c.chunk[j]) {
		j++
	}
	if j == c.pos {
		return ast.Port{}, c.errorf("cannot parse port specification")
	}

	number, err := strconv.ParseUint(c.chunk[c.pos:j], 10, 64)
	if err != nil || number > 65535 {
		return ast.Port{}, compilererrors.NewSyntax(compilererrors.CodeBadPortSpec, "port outside of valid range").WithLocation(c.loc)
	}

	c.pos = j
	if c.pos >= len(c.chunk) || c.chunk[c.pos] != '/' {
		return ast.Port{}, c.errorf("cannot parse port specification")
	}
	c.pos++

	var proto ast.Protocol
	switch {
	case c.lookingAt("tcp"):
		proto = ast.ProtocolTCP
		_ = c.eat("tcp")
	case c.lookingAt("udp"):
		proto = ast.ProtocolUDP
		_ = c.eat("udp")
	case c.lookingAt("icmp"):
		proto = ast.ProtocolICMP
		_ = c.eat("icmp")
	default:
		return ast.Port{}, c.errorf("cannot parse port specification")
	}

	return ast.Port{Number: uint16(number), Protocol: proto}, nil
}

// extractPorts consumes a port specification with an optional inclusive
// "-"-separated range, expanding the range into individual ports.
func (c *cursor) extractPorts() ([]ast.Port, error) {
	start, err := c.extractPort()
	if err != nil {
		return nil, err
	}

	if !c.lookingAt("-") {
		return []ast.Port{start}, nil
	}

	if err := c.eat("-"); err != nil {
		return nil, err
	}
	end, err := c.extractPort()
	if err != nil {
		return nil, err
	}

	if start.Protocol != end.Protocol {
		return nil, compilererrors.NewSyntax(compilererrors.CodeBadPortSpec, "start and end of port range must have same protocol").WithLocation(c.loc)
	}
	if start.Number > end.Number {
		return nil, compilererrors.NewSyntax(compilererrors.CodeBadPortSpec, "start of port range cannot be after its end").WithLocation(c.loc)
	}

	var ports []ast.Port
	for p := start.Number; ; p++ {
		ports = append(ports, ast.Port{Number: p, Protocol: start.Protocol})
		if p == end.Number {
			break
		}
	}
	return ports, nil
}

// HasKeyword reports whether the chunk begins with the given keyword,
// ignoring leading whitespace. The glue compiler uses this to dispatch a
// chunk to the right declaration parser.
func HasKeyword(chunk, keyword string) bool {
	return newCursor(chunk, ast.Location{}).lookingAt(keyword)
}
