package model

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrBadRule indicates a classification rule with an invalid pattern or kind.
var ErrBadRule = fmt.Errorf("bad classification rule")

// Rule assigns Kind to every path matching the doublestar glob Pattern.
type Rule struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Kind    Kind   `json:"kind" yaml:"kind"`
}

// DefaultRules classifies everything below _posts as post and below _drafts as draft.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "_posts/**", Kind: KindPost},
		{Pattern: "_drafts/**", Kind: KindDraft},
	}
}

// Classifier maps source paths to document kinds.
type Classifier struct {
	rules []Rule
}

// NewClassifier validates rules and returns a Classifier applying them in order.
func NewClassifier(rules []Rule) (*Classifier, error) {
	for _, rule := range rules {
		if !doublestar.ValidatePattern(rule.Pattern) {
			return nil, fmt.Errorf("%w: pattern %q", ErrBadRule, rule.Pattern)
		}
		if !rule.Kind.Valid() {
			return nil, fmt.Errorf("%w: kind %q", ErrBadRule, rule.Kind)
		}
	}

	return &Classifier{rules: rules}, nil
}

// Classify returns the kind of the first matching rule, or KindPage if no rule matches.
func (c *Classifier) Classify(path string) Kind {
	for _, rule := range c.rules {
		// The pattern was validated in NewClassifier, Match can not fail.
		if ok, _ := doublestar.Match(rule.Pattern, path); ok {
			return rule.Kind
		}
	}

	return KindPage
}

// matchAny reports whether path matches one of patterns.
func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}

	return false
}
