// Package rules implements the declarative detection rule engine for the
// CodeGuardian scanner. Rules are defined in code or loaded from YAML files,
// matched against file content using pluggable matchers, and produce
// canonical Finding values from the core/findings package.
//
// The rule set is deliberately configurable and extensible: the engine makes
// no completeness or soundness claims beyond detecting the patterns it is
// given.
package rules

import (
	"github.com/codeguardian-hq/codeguardian/core/findings"
)

// ValidMatcherTypes enumerates the matcher type strings that a Rule may
// reference. Any value not in this set causes a validation error at load
// time. "ast" and "taint" are reserved for future strategies and currently
// match nothing.
var ValidMatcherTypes = map[string]bool{
	"regex":   true,
	"entropy": true,
	"ast":     true,
	"taint":   true,
}

// Rule is a single declarative detection rule. It describes what to look for
// (Pattern + MatcherType), where to look (FilePatterns), and how to grade a
// match (Type, RiskLevel, Confidence).
type Rule struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	// Type is the vulnerability type tag attached to findings, e.g.
	// "sql_injection" or "hardcoded_secrets".
	Type         string              `yaml:"type"`
	RiskLevel    findings.RiskLevel  `yaml:"risk_level"`
	Confidence   findings.Confidence `yaml:"confidence"`
	MatcherType  string              `yaml:"matcher_type"`
	Pattern      string              `yaml:"pattern"`
	FilePatterns []string            `yaml:"file_patterns"`
	// Keywords is a cheap lowercase substring prefilter; a rule with
	// keywords is only matched against files containing at least one.
	Keywords []string          `yaml:"keywords"`
	Metadata map[string]string `yaml:"metadata"`
}

// RuleSet is an ordered collection of rules with fast lookup by ID and by
// vulnerability type.
type RuleSet struct {
	rules  []Rule
	byID   map[string]int
	byType map[string][]int
}

// NewRuleSet returns an initialised, empty RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		byID:   make(map[string]int),
		byType: make(map[string][]int),
	}
}

// Add appends a rule to the set and updates the lookup indexes.
func (rs *RuleSet) Add(r Rule) {
	idx := len(rs.rules)
	rs.rules = append(rs.rules, r)
	rs.byID[r.ID] = idx
	rs.byType[r.Type] = append(rs.byType[r.Type], idx)
}

// Rules returns all rules in insertion order.
func (rs *RuleSet) Rules() []Rule {
	return rs.rules
}

// HasID reports whether a rule with the given ID exists in the set.
func (rs *RuleSet) HasID(id string) bool {
	_, ok := rs.byID[id]
	return ok
}

// ByID looks up a rule by its unique identifier. The boolean return
// indicates whether a rule with the given ID exists in the set.
func (rs *RuleSet) ByID(id string) (Rule, bool) {
	idx, ok := rs.byID[id]
	if !ok {
		return Rule{}, false
	}
	return rs.rules[idx], true
}

// ByType returns all rules that carry the given vulnerability type. If no
// rules match, an empty slice is returned.
func (rs *RuleSet) ByType(vulnType string) []Rule {
	idxs, ok := rs.byType[vulnType]
	if !ok {
		return nil
	}
	out := make([]Rule, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, rs.rules[idx])
	}
	return out
}
