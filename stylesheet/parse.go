package stylesheet

import (
	"fmt"
	"strings"
)

type node interface {
	position() int
}

// variableNode is a "$name: value" assignment.
type variableNode struct {
	line      int
	name      string
	value     string
	global    bool
	isDefault bool
}

// declarationNode is a "property: value" pair.
type declarationNode struct {
	line     int
	property string
	value    string
}

// statementNode is an at-rule without block, e.g. @import or @charset.
type statementNode struct {
	line int
	text string
}

// ruleNode is a selector block.
type ruleNode struct {
	line     int
	selector string
	children []node
}

// atBlockNode is an at-rule with a block, e.g. @media or @font-face.
type atBlockNode struct {
	line     int
	name     string
	prelude  string
	children []node
}

func (n *variableNode) position() int    { return n.line }
func (n *declarationNode) position() int { return n.line }
func (n *statementNode) position() int   { return n.line }
func (n *ruleNode) position() int        { return n.line }
func (n *atBlockNode) position() int     { return n.line }

// sassDirectives are at-rules of the superset language that are not supported.
var sassDirectives = map[string]bool{
	"at-root": true, "content": true, "debug": true, "each": true, "else": true,
	"error": true, "extend": true, "for": true, "forward": true, "function": true,
	"if": true, "include": true, "mixin": true, "return": true, "use": true,
	"warn": true, "while": true,
}

type parser struct {
	src  string
	pos  int
	line int
}

func parse(src string) ([]node, error) {
	p := &parser{src: src, line: 1}

	return p.parseBlock(false)
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
}

// parseBlock parses statements until the end of input or, if nested, the closing brace.
func (p *parser) parseBlock(nested bool) ([]node, error) {
	var nodes []node
	for {
		err := p.skipSpaceAndComments()
		if err != nil {
			return nil, err
		}

		if p.pos >= len(p.src) {
			if nested {
				return nil, p.errorf(p.line, "unexpected end of input, missing '}'")
			}
			return nodes, nil
		}
		if p.src[p.pos] == '}' {
			if !nested {
				return nil, p.errorf(p.line, "unexpected '}'")
			}
			p.pos++
			return nodes, nil
		}

		line := p.line
		text, terminator, err := p.readPrelude()
		if err != nil {
			return nil, err
		}

		if terminator == '{' {
			children, err := p.parseBlock(true)
			if err != nil {
				return nil, err
			}
			n, err := newBlockNode(text, children, line)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
			continue
		}

		if text == "" {
			continue
		}
		n, err := newStatementNode(text, line)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
}

func (p *parser) skipSpaceAndComments() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\n':
			p.line++
			p.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			p.pos++
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			err := p.skipBlockComment()
			if err != nil {
				return err
			}
		case strings.HasPrefix(p.src[p.pos:], "//"):
			p.skipLineComment()
		default:
			return nil
		}
	}

	return nil
}

func (p *parser) skipBlockComment() error {
	line := p.line
	end := strings.Index(p.src[p.pos+2:], "*/")
	if end < 0 {
		return p.errorf(line, "unterminated comment")
	}
	comment := p.src[p.pos : p.pos+2+end+2]
	p.line += strings.Count(comment, "\n")
	p.pos += len(comment)

	return nil
}

func (p *parser) skipLineComment() {
	end := strings.IndexByte(p.src[p.pos:], '\n')
	if end < 0 {
		p.pos = len(p.src)
		return
	}
	p.pos += end
}

// readPrelude reads up to the next '{', ';' or '}' outside of strings, parentheses and interpolations.
// Comments are dropped. A closing brace is not consumed.
func (p *parser) readPrelude() (string, byte, error) {
	var sb strings.Builder
	depth := 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '"' || c == '\'':
			s, err := p.readString()
			if err != nil {
				return "", 0, err
			}
			sb.WriteString(s)
			continue
		case strings.HasPrefix(p.src[p.pos:], "#{"):
			s, err := p.readInterpolation()
			if err != nil {
				return "", 0, err
			}
			sb.WriteString(s)
			continue
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			err := p.skipBlockComment()
			if err != nil {
				return "", 0, err
			}
			sb.WriteByte(' ')
			continue
		case depth == 0 && strings.HasPrefix(p.src[p.pos:], "//"):
			p.skipLineComment()
			continue
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == '\n':
			p.line++
		case depth == 0 && (c == '{' || c == ';'):
			p.pos++
			return strings.TrimSpace(sb.String()), c, nil
		case depth == 0 && c == '}':
			return strings.TrimSpace(sb.String()), c, nil
		}
		sb.WriteByte(c)
		p.pos++
	}

	return strings.TrimSpace(sb.String()), 0, nil
}

func (p *parser) readString() (string, error) {
	line := p.line
	quote := p.src[p.pos]
	for i := p.pos + 1; i < len(p.src); i++ {
		switch p.src[i] {
		case '\\':
			i++
		case '\n':
			return "", p.errorf(line, "unterminated string")
		case quote:
			s := p.src[p.pos : i+1]
			p.pos = i + 1
			return s, nil
		}
	}

	return "", p.errorf(line, "unterminated string")
}

func (p *parser) readInterpolation() (string, error) {
	end := strings.IndexByte(p.src[p.pos:], '}')
	if end < 0 {
		return "", p.errorf(p.line, "unterminated interpolation")
	}
	s := p.src[p.pos : p.pos+end+1]
	p.line += strings.Count(s, "\n")
	p.pos += end + 1

	return s, nil
}

func newBlockNode(header string, children []node, line int) (node, error) {
	if header == "" {
		return nil, fmt.Errorf("%w: line %d: block without selector", ErrSyntax, line)
	}

	if !strings.HasPrefix(header, "@") {
		return &ruleNode{line: line, selector: header, children: children}, nil
	}

	name, prelude := splitAtRule(header)
	if sassDirectives[name] {
		return nil, fmt.Errorf("%w: line %d: @%s", ErrUnsupportedAtRule, line, name)
	}

	return &atBlockNode{line: line, name: name, prelude: prelude, children: children}, nil
}

func newStatementNode(text string, line int) (node, error) {
	switch {
	case strings.HasPrefix(text, "$"):
		return newVariableNode(text, line)
	case strings.HasPrefix(text, "@"):
		name, _ := splitAtRule(text)
		if sassDirectives[name] {
			return nil, fmt.Errorf("%w: line %d: @%s", ErrUnsupportedAtRule, line, name)
		}
		return &statementNode{line: line, text: text}, nil
	}

	property, value, ok := strings.Cut(text, ":")
	property, value = strings.TrimSpace(property), strings.TrimSpace(value)
	if !ok || property == "" || value == "" {
		return nil, fmt.Errorf("%w: line %d: expected declaration, got %q", ErrSyntax, line, text)
	}

	return &declarationNode{line: line, property: property, value: value}, nil
}

func newVariableNode(text string, line int) (*variableNode, error) {
	name, value, ok := strings.Cut(text[1:], ":")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if !ok || !isVariableName(name) {
		return nil, fmt.Errorf("%w: line %d: malformed variable %q", ErrSyntax, line, text)
	}

	n := &variableNode{line: line, name: name}
	for {
		switch {
		case strings.HasSuffix(value, "!default"):
			n.isDefault = true
			value = strings.TrimSpace(strings.TrimSuffix(value, "!default"))
			continue
		case strings.HasSuffix(value, "!global"):
			n.global = true
			value = strings.TrimSpace(strings.TrimSuffix(value, "!global"))
			continue
		}
		break
	}
	if value == "" {
		return nil, fmt.Errorf("%w: line %d: variable $%s without value", ErrSyntax, line, name)
	}
	n.value = value

	return n, nil
}

// splitAtRule splits "@media screen" into "media" and "screen".
func splitAtRule(text string) (name, prelude string) {
	text = strings.TrimPrefix(text, "@")
	i := strings.IndexFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == '"' || r == '\''
	})
	if i < 0 {
		return strings.ToLower(text), ""
	}

	return strings.ToLower(text[:i]), normalizeSpace(text[i:])
}

func isVariableName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !isNameRune(r) {
			return false
		}
	}

	return true
}

func isNameRune(r rune) bool {
	return r == '-' || r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') || r > 0x7f
}

// normalizeSpace collapses whitespace runs outside of strings into a single space.
func normalizeSpace(s string) string {
	var sb strings.Builder
	var quote rune
	space := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f':
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteRune(r)
	}

	return sb.String()
}
