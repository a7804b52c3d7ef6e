package rules

import (
	"bytes"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/codeguardian-hq/codeguardian/core/findings"
)

// maxSnippetLen bounds the length of the code snippet stored on a finding.
// Longer matches are truncated; truncation may cause the fix engine to fall
// back to a generic suggestion, which is acceptable.
const maxSnippetLen = 200

// Engine ties a RuleSet and a MatcherRegistry together to scan file content
// and produce findings.
type Engine struct {
	rules    *RuleSet
	matchers *MatcherRegistry
}

// NewEngine creates an Engine with the given rules and the default matcher
// registry.
func NewEngine(rules *RuleSet) *Engine {
	return &Engine{
		rules:    rules,
		matchers: NewDefaultMatcherRegistry(),
	}
}

// Rules returns the engine's RuleSet.
func (e *Engine) Rules() *RuleSet { return e.rules }

// ScanFile runs every applicable rule against the given file content and
// returns the resulting raw findings. A rule applies if its FilePatterns
// list is empty (matches everything) or if at least one of its patterns
// matches the supplied path using filepath.Match semantics. A file producing
// zero matches yields an empty slice, not an error; multiple matches of the
// same rule yield multiple independent findings.
func (e *Engine) ScanFile(path string, content []byte) ([]findings.Finding, error) {
	var out []findings.Finding

	// Lowercased lazily, only when a rule carries keywords.
	var contentLower []byte
	for _, rule := range e.rules.Rules() {
		if !fileMatchesRule(path, rule) {
			continue
		}

		if len(rule.Keywords) > 0 {
			if contentLower == nil {
				contentLower = bytes.ToLower(content)
			}
			if !containsAnyKeyword(contentLower, rule.Keywords) {
				continue
			}
		}

		matcher := e.matchers.Get(rule.MatcherType)
		if matcher == nil {
			return nil, fmt.Errorf("no matcher registered for type %q (rule %s)", rule.MatcherType, rule.ID)
		}

		for _, mr := range matcher.Match(content, rule) {
			snippet := truncateSnippet(mr.MatchText, maxSnippetLen)

			f := findings.Finding{
				FilePath:    path,
				Line:        mr.Line,
				Type:        rule.Type,
				RiskLevel:   rule.RiskLevel,
				Confidence:  rule.Confidence,
				CodeSnippet: snippet,
				RuleID:      rule.ID,
			}
			f.Fingerprint = findings.ComputeFingerprint(f.RuleID, f.FilePath, f.Line, f.CodeSnippet)

			out = append(out, f)
		}
	}
	return out, nil
}

// truncateSnippet caps a snippet at max bytes, backing up to a rune
// boundary so the result stays valid UTF-8.
func truncateSnippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// containsAnyKeyword returns true if content contains at least one of the
// keywords. Both content and keywords must be lowercase.
func containsAnyKeyword(contentLower []byte, keywords []string) bool {
	for _, kw := range keywords {
		if bytes.Contains(contentLower, []byte(kw)) {
			return true
		}
	}
	return false
}

// fileMatchesRule returns true if the file path matches at least one of the
// rule's FilePatterns, or if the rule has no file patterns (applies to all
// files).
func fileMatchesRule(path string, rule Rule) bool {
	if len(rule.FilePatterns) == 0 {
		return true
	}
	// Match against both the full path and the base name so that patterns
	// like "*.py" work as expected even when path contains directories.
	base := filepath.Base(path)
	for _, pattern := range rule.FilePatterns {
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
