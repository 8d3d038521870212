package stylesheet

import (
	"fmt"
	"strings"
)

// groupingAtRules wrap nested rules and are hoisted out of selector blocks.
var groupingAtRules = map[string]bool{
	"media":     true,
	"supports":  true,
	"container": true,
	"layer":     true,
}

type scope struct {
	vars   map[string]string
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]string), parent: parent}
}

func (s *scope) lookup(name string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		value, ok := cur.vars[name]
		if ok {
			return value, true
		}
	}

	return "", false
}

func (s *scope) root() *scope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}

	return cur
}

// substitute replaces $variable references outside of strings and #{...} interpolations.
func (s *scope) substitute(value string, line int) (string, error) {
	var sb strings.Builder
	var quote byte
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '\\' && i+1 < len(value):
			sb.WriteByte(c)
			i++
			sb.WriteByte(value[i])
			continue
		case strings.HasPrefix(value[i:], "#{"):
			end := strings.IndexByte(value[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: line %d: unterminated interpolation", ErrSyntax, line)
			}
			inner, err := s.substitute(strings.TrimSpace(value[i+2:i+end]), line)
			if err != nil {
				return "", err
			}
			sb.WriteString(unquote(inner))
			i += end
			continue
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '$':
			j := i + 1
			for j < len(value) && isNameRune(rune(value[j])) {
				j++
			}
			name := value[i+1 : j]
			if name == "" {
				break
			}
			resolved, ok := s.lookup(name)
			if !ok {
				return "", fmt.Errorf("%w: line %d: $%s", ErrUndefinedVariable, line, name)
			}
			sb.WriteString(resolved)
			i = j - 1
			continue
		}
		sb.WriteByte(c)
	}

	return sb.String(), nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}

	return s
}

// item is a flattened rule of the output.
type item struct {
	// wrappers are the enclosing at-rule headers, outermost first.
	wrappers []string
	selector string
	decls    []declaration
	// raw is set for block-less at-rules.
	raw string
}

type declaration struct {
	property, value string
}

func (it *item) empty() bool {
	return it.raw == "" && len(it.decls) == 0
}

// frame is the context a block is evaluated in.
type frame struct {
	scope *scope
	// selectors of the enclosing rule, nil outside of rules.
	selectors []string
	wrappers  []string
	// target receives declarations, nil if declarations are not allowed.
	target *item
	root   bool
}

type evaluator struct {
	// condition is the media query whose variable overrides apply, empty for none.
	condition string
	overrides map[string]*variableNode
	items     []*item
}

func (e *evaluator) evalBlock(nodes []node, f frame) error {
	for _, n := range nodes {
		var err error
		switch n := n.(type) {
		case *variableNode:
			err = e.evalVariable(n, f)
		case *declarationNode:
			err = e.evalDeclaration(n, f)
		case *statementNode:
			if !f.root {
				return fmt.Errorf("%w: line %d: %s must be at the top level", ErrUnsupportedAtRule, n.line, n.text)
			}
			e.items = append(e.items, &item{raw: normalizeSpace(n.text)})
		case *ruleNode:
			err = e.evalRule(n, f)
		case *atBlockNode:
			err = e.evalAtBlock(n, f)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *evaluator) evalVariable(n *variableNode, f frame) error {
	raw := n.value
	if override, ok := e.overrides[n.name]; ok && f.root {
		raw = override.value
	} else if n.isDefault {
		if _, defined := f.scope.lookup(n.name); defined {
			return nil
		}
	}

	value, err := f.scope.substitute(raw, n.line)
	if err != nil {
		return err
	}

	target := f.scope
	if n.global {
		target = f.scope.root()
	}
	target.vars[n.name] = value

	return nil
}

func (e *evaluator) evalDeclaration(n *declarationNode, f frame) error {
	if f.target == nil {
		return fmt.Errorf("%w: line %d: declaration %q outside of a rule", ErrSyntax, n.line, n.property)
	}

	property, err := f.scope.substitute(n.property, n.line)
	if err != nil {
		return err
	}
	value, err := f.scope.substitute(n.value, n.line)
	if err != nil {
		return err
	}
	f.target.decls = append(f.target.decls, declaration{property: property, value: value})

	return nil
}

func (e *evaluator) evalRule(n *ruleNode, f frame) error {
	header, err := f.scope.substitute(n.selector, n.line)
	if err != nil {
		return err
	}
	selectors, err := nestSelectors(f.selectors, header)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.line, err)
	}

	it := &item{wrappers: f.wrappers, selector: strings.Join(selectors, ", ")}
	e.items = append(e.items, it)

	return e.evalBlock(n.children, frame{
		scope:     newScope(f.scope),
		selectors: selectors,
		wrappers:  f.wrappers,
		target:    it,
	})
}

func (e *evaluator) evalAtBlock(n *atBlockNode, f frame) error {
	if f.root && isOverride(n) {
		if normalizeSpace(n.prelude) != e.condition {
			return nil
		}
		// Root declarations of overridden variables already use the override value.
		for _, child := range n.children {
			v := child.(*variableNode)
			if _, defined := f.scope.vars[v.name]; defined {
				continue
			}
			value, err := f.scope.substitute(e.overrides[v.name].value, v.line)
			if err != nil {
				return err
			}
			f.scope.vars[v.name] = value
		}
		return nil
	}

	prelude, err := f.scope.substitute(n.prelude, n.line)
	if err != nil {
		return err
	}

	if groupingAtRules[n.name] {
		wrappers := appendWrapper(f.wrappers, n.name, prelude)
		var target *item
		if f.target != nil && f.selectors != nil {
			target = &item{wrappers: wrappers, selector: f.target.selector}
			e.items = append(e.items, target)
		}

		return e.evalBlock(n.children, frame{
			scope:     newScope(f.scope),
			selectors: f.selectors,
			wrappers:  wrappers,
			target:    target,
		})
	}

	if f.selectors != nil {
		return fmt.Errorf("%w: line %d: @%s inside of a rule", ErrUnsupportedAtRule, n.line, n.name)
	}

	header := strings.TrimSpace("@" + n.name + " " + prelude)
	target := &item{wrappers: f.wrappers, selector: header}
	e.items = append(e.items, target)

	return e.evalBlock(n.children, frame{
		scope:    newScope(f.scope),
		wrappers: appendWrapper(f.wrappers, "", header),
		target:   target,
	})
}

// isOverride reports whether n is a media block that only assigns variables.
func isOverride(n *atBlockNode) bool {
	if n.name != "media" || len(n.children) == 0 {
		return false
	}
	for _, child := range n.children {
		if _, ok := child.(*variableNode); !ok {
			return false
		}
	}

	return true
}

// appendWrapper returns a copy of wrappers with the at-rule appended.
// A media query nested directly in another one is combined with "and".
func appendWrapper(wrappers []string, name, prelude string) []string {
	result := make([]string, len(wrappers), len(wrappers)+1)
	copy(result, wrappers)

	if name == "" {
		return append(result, prelude)
	}

	header := "@" + name + " " + prelude
	if name == "media" && len(result) > 0 && strings.HasPrefix(result[len(result)-1], "@media ") {
		result[len(result)-1] += " and " + prelude
		return result
	}

	return append(result, header)
}

// nestSelectors resolves the comma separated selectors of header against the parent selectors.
// '&' refers to the parent selector, otherwise the parent is prepended as descendant combinator.
func nestSelectors(parents []string, header string) ([]string, error) {
	children := splitList(header)
	if len(parents) == 0 {
		for _, child := range children {
			if strings.Contains(child, "&") {
				return nil, fmt.Errorf("%w: parent selector '&' outside of a rule", ErrSyntax)
			}
		}
		return children, nil
	}

	result := make([]string, 0, len(parents)*len(children))
	for _, parent := range parents {
		for _, child := range children {
			if strings.Contains(child, "&") {
				result = append(result, strings.ReplaceAll(child, "&", parent))
				continue
			}
			result = append(result, parent+" "+child)
		}
	}

	return result, nil
}

// splitList splits s at commas outside of parentheses, brackets and strings.
func splitList(s string) []string {
	var parts []string
	var quote byte
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, normalizeSpace(s[start:i]))
			start = i + 1
		}
	}
	parts = append(parts, normalizeSpace(s[start:]))

	result := parts[:0]
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}

	return result
}
