// Package detect implements pattern-based vulnerability detection. It wraps
// the core/rules engine with a built-in rule set covering the common
// vulnerability families (injection, hardcoded secrets, insecure
// deserialization, weak crypto and friends) and scans discovered source
// files into raw findings.
//
// Detection is purely textual. No parsing or control-flow analysis takes
// place, so both false positives and false negatives are expected.
package detect

import (
	"fmt"
	"os"
	"strconv"

	"github.com/codeguardian-hq/codeguardian/core/discovery"
	"github.com/codeguardian-hq/codeguardian/core/findings"
	"github.com/codeguardian-hq/codeguardian/core/rules"
)

// Analyzer wraps a rules.Engine pre-loaded with the built-in detection
// rules.
type Analyzer struct {
	engine *rules.Engine
}

// NewAnalyzer creates an Analyzer with the built-in rule set.
func NewAnalyzer() *Analyzer {
	rs := rules.NewRuleSet()
	for _, r := range builtinRules() {
		rs.Add(r)
	}
	return &Analyzer{engine: rules.NewEngine(rs)}
}

// NewAnalyzerWithRules creates an Analyzer over an explicit rule set. Used
// when YAML rule files extend or replace the built-ins.
func NewAnalyzerWithRules(rs *rules.RuleSet) *Analyzer {
	return &Analyzer{engine: rules.NewEngine(rs)}
}

// Rules returns the analyzer's RuleSet.
func (a *Analyzer) Rules() *rules.RuleSet { return a.engine.Rules() }

// Overrides adjusts the built-in rules from scan configuration. Disabled
// rules are removed; severity overrides replace a rule's default risk
// level.
type Overrides struct {
	DisabledRules []string
	// Severity maps rule ID to a replacement risk level string.
	Severity map[string]string
}

// ApplyOverrides rebuilds the analyzer's engine with the given overrides
// applied. Unknown rule IDs in the overrides are ignored.
func (a *Analyzer) ApplyOverrides(o Overrides) {
	disabled := make(map[string]bool, len(o.DisabledRules))
	for _, id := range o.DisabledRules {
		disabled[id] = true
	}

	rs := rules.NewRuleSet()
	for _, r := range a.engine.Rules().Rules() {
		if disabled[r.ID] {
			continue
		}
		if s, ok := o.Severity[r.ID]; ok {
			r.RiskLevel = findings.ParseRiskLevel(s)
		}
		rs.Add(r)
	}
	a.engine = rules.NewEngine(rs)
}

// SetEntropyThreshold rebuilds the rule set with the given Shannon entropy
// threshold on every entropy rule.
func (a *Analyzer) SetEntropyThreshold(threshold float64) {
	rs := rules.NewRuleSet()
	for _, r := range a.engine.Rules().Rules() {
		if r.MatcherType == "entropy" {
			meta := make(map[string]string, len(r.Metadata)+1)
			for k, v := range r.Metadata {
				meta[k] = v
			}
			meta["entropy_threshold"] = strconv.FormatFloat(threshold, 'f', -1, 64)
			r.Metadata = meta
		}
		rs.Add(r)
	}
	a.engine = rules.NewEngine(rs)
}

// Merge adds all rules from the given set to the analyzer, replacing any
// built-in rule that shares an ID.
func (a *Analyzer) Merge(extra *rules.RuleSet) {
	if extra == nil || len(extra.Rules()) == 0 {
		return
	}
	replaced := make(map[string]rules.Rule, len(extra.Rules()))
	for _, r := range extra.Rules() {
		replaced[r.ID] = r
	}

	rs := rules.NewRuleSet()
	for _, r := range a.engine.Rules().Rules() {
		if override, ok := replaced[r.ID]; ok {
			rs.Add(override)
			delete(replaced, r.ID)
			continue
		}
		rs.Add(r)
	}
	for _, r := range extra.Rules() {
		if _, stillNew := replaced[r.ID]; stillNew {
			rs.Add(r)
		}
	}
	a.engine = rules.NewEngine(rs)
}

// ScanContent runs the rule set against in-memory file content.
func (a *Analyzer) ScanContent(path string, content []byte) ([]findings.Finding, error) {
	return a.engine.ScanFile(path, content)
}

// ScanFile reads the file behind the given reference and scans it. The
// relative path is used on findings so reports stay stable across
// workspace locations.
func (a *Analyzer) ScanFile(ref discovery.FileRef) ([]findings.Finding, error) {
	content, err := os.ReadFile(ref.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ref.Path, err)
	}
	return a.engine.ScanFile(ref.Path, content)
}

// ScanFiles scans every file reference and collects the results into a
// deduplicated FindingSet. Files that cannot be read are skipped; detection
// of the remaining files proceeds.
func (a *Analyzer) ScanFiles(refs []discovery.FileRef) (*findings.FindingSet, error) {
	fs := findings.NewFindingSet()
	for _, ref := range refs {
		content, err := os.ReadFile(ref.AbsPath)
		if err != nil {
			continue
		}
		matches, err := a.engine.ScanFile(ref.Path, content)
		if err != nil {
			return nil, err
		}
		for _, f := range matches {
			fs.Add(f)
		}
	}
	return fs, nil
}
