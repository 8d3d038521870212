// Package stylesheet compiles a small superset of CSS to plain CSS.
//
// Supported are $variables, nested rules with the '&' parent selector, media queries nested in rules and
// conditional variables: a top-level @media block that only assigns variables overrides the top-level
// values of these variables if the media query matches.
//
//	$text: #222;
//	@media (prefers-color-scheme: dark) {
//	  $text: #eee;
//	}
//	body { color: $text; }
//
// compiles to
//
//	body {
//	  color: #222;
//	}
//
//	@media (prefers-color-scheme: dark) {
//	  body {
//	    color: #eee;
//	  }
//	}
package stylesheet

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSyntax indicates malformed input.
	ErrSyntax = errors.New("syntax error")
	// ErrUndefinedVariable indicates a reference to a variable that is not in scope.
	ErrUndefinedVariable = errors.New("undefined variable")
	// ErrUnsupportedAtRule indicates an at-rule that can not be compiled, e.g. @mixin.
	ErrUnsupportedAtRule = errors.New("unsupported at-rule")
	// ErrUnknownCondition indicates a condition that no variable override block uses.
	ErrUnknownCondition = errors.New("unknown condition")
	// ErrConditionalStructure indicates a conditional variable that changes selectors or at-rules.
	ErrConditionalStructure = errors.New("conditional variables must only change values")
)

// Stylesheet is a parsed stylesheet source.
type Stylesheet struct {
	nodes      []node
	conditions []string
}

// Parse parses a stylesheet source.
func Parse(src []byte) (*Stylesheet, error) {
	nodes, err := parse(string(src))
	if err != nil {
		return nil, err
	}

	s := &Stylesheet{nodes: nodes}
	seen := make(map[string]bool)
	for _, n := range nodes {
		block, ok := n.(*atBlockNode)
		if !ok || !isOverride(block) || seen[block.prelude] {
			continue
		}
		seen[block.prelude] = true
		s.conditions = append(s.conditions, block.prelude)
	}

	return s, nil
}

// Conditions returns the media queries of all variable override blocks in source order.
func (s *Stylesheet) Conditions() []string {
	return append([]string(nil), s.conditions...)
}

func (s *Stylesheet) evaluate(condition string) ([]*item, error) {
	e := &evaluator{condition: condition, overrides: make(map[string]*variableNode)}
	for _, n := range s.nodes {
		block, ok := n.(*atBlockNode)
		if !ok || !isOverride(block) || block.prelude != condition {
			continue
		}
		for _, child := range block.children {
			v := child.(*variableNode)
			e.overrides[v.name] = v
		}
	}

	err := e.evalBlock(s.nodes, frame{scope: newScope(nil), root: true})
	if err != nil {
		return nil, err
	}

	return e.items, nil
}

// Evaluate compiles the stylesheet as if condition matched.
// The empty condition applies no overrides.
func (s *Stylesheet) Evaluate(condition string) ([]byte, error) {
	condition = normalizeSpace(condition)
	if condition != "" && !s.hasCondition(condition) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCondition, condition)
	}

	items, err := s.evaluate(condition)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(nil)
	writeItems(buf, items)

	return buf.Bytes(), nil
}

func (s *Stylesheet) hasCondition(condition string) bool {
	for _, c := range s.conditions {
		if c == condition {
			return true
		}
	}

	return false
}

// CSS compiles the stylesheet with default values.
// For every condition a media block follows that re-declares the properties whose values change under it.
func (s *Stylesheet) CSS() ([]byte, error) {
	base, err := s.evaluate("")
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(nil)
	writeItems(buf, base)

	for _, condition := range s.conditions {
		variant, err := s.evaluate(condition)
		if err != nil {
			return nil, err
		}

		changed, err := diffItems(base, variant, condition)
		if err != nil {
			return nil, err
		}
		if len(changed) == 0 {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		writeItems(buf, changed)
	}

	return buf.Bytes(), nil
}

// Compile parses and compiles src, see Stylesheet.CSS.
func Compile(src []byte) ([]byte, error) {
	s, err := Parse(src)
	if err != nil {
		return nil, err
	}

	return s.CSS()
}

// diffItems returns the declarations of variant that differ from base, wrapped in a media block for condition.
func diffItems(base, variant []*item, condition string) ([]*item, error) {
	if len(base) != len(variant) {
		return nil, fmt.Errorf("%w: %s", ErrConditionalStructure, condition)
	}

	var changed []*item
	for i, b := range base {
		v := variant[i]
		if b.selector != v.selector || b.raw != v.raw || !equalStrings(b.wrappers, v.wrappers) || len(b.decls) != len(v.decls) {
			return nil, fmt.Errorf("%w: %s", ErrConditionalStructure, condition)
		}

		diff := &item{wrappers: append([]string{"@media " + condition}, v.wrappers...), selector: v.selector}
		for j, decl := range v.decls {
			if b.decls[j].property != decl.property {
				return nil, fmt.Errorf("%w: %s", ErrConditionalStructure, condition)
			}
			if b.decls[j].value != decl.value {
				diff.decls = append(diff.decls, decl)
			}
		}
		if !diff.empty() {
			changed = append(changed, diff)
		}
	}

	return changed, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// writeItems prints items in expanded style.
// Consecutive items sharing their at-rule wrappers are printed in a single block.
func writeItems(buf *bytes.Buffer, items []*item) {
	first := true
	for i := 0; i < len(items); {
		j := i + 1
		for j < len(items) && len(items[i].wrappers) > 0 && equalStrings(items[i].wrappers, items[j].wrappers) {
			j++
		}

		var group []*item
		for _, it := range items[i:j] {
			if !it.empty() {
				group = append(group, it)
			}
		}
		wrappers := items[i].wrappers
		i = j
		if len(group) == 0 {
			continue
		}

		if !first {
			buf.WriteString("\n")
		}
		first = false

		for depth, wrapper := range wrappers {
			buf.WriteString(strings.Repeat("  ", depth) + wrapper + " {\n")
		}
		indent := strings.Repeat("  ", len(wrappers))
		for _, it := range group {
			writeItem(buf, it, indent)
		}
		for depth := len(wrappers) - 1; depth >= 0; depth-- {
			buf.WriteString(strings.Repeat("  ", depth) + "}\n")
		}
	}
}

func writeItem(buf *bytes.Buffer, it *item, indent string) {
	if it.raw != "" {
		buf.WriteString(indent + it.raw + ";\n")
		return
	}

	buf.WriteString(indent + it.selector + " {\n")
	for _, decl := range it.decls {
		buf.WriteString(indent + "  " + decl.property + ": " + decl.value + ";\n")
	}
	buf.WriteString(indent + "}\n")
}
