package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ruleFile is the top-level structure of a YAML rules file. It expects a
// single key "rules" containing an array of rule definitions.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// validRiskLevels is the set of recognised risk level values.
var validRiskLevels = map[string]bool{
	"critical": true,
	"high":     true,
	"medium":   true,
	"low":      true,
	"info":     true,
	"unknown":  true,
}

// validConfidences is the set of recognised confidence values.
var validConfidences = map[string]bool{
	"high":   true,
	"medium": true,
	"low":    true,
}

// LoadRulesFromFile reads a single YAML file and returns a validated
// RuleSet.
func LoadRulesFromFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file %s: %w", path, err)
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	rs := NewRuleSet()
	for i, r := range rf.Rules {
		if r.MatcherType == "" {
			r.MatcherType = "regex"
		}
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %d in %s: %w", i, path, err)
		}
		rs.Add(r)
	}
	return rs, nil
}

// LoadRulesFromDir reads all .yaml and .yml files in the given directory and
// merges them into a single RuleSet. Files are processed in lexicographic
// order for determinism.
func LoadRulesFromDir(dir string) (*RuleSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	rs := NewRuleSet()
	for _, name := range names {
		fileRS, err := LoadRulesFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for _, r := range fileRS.Rules() {
			rs.Add(r)
		}
	}
	return rs, nil
}

// validateRule checks that a rule satisfies all mandatory constraints.
func validateRule(r Rule) error {
	if r.ID == "" {
		return fmt.Errorf("missing id")
	}
	if r.Type == "" {
		return fmt.Errorf("missing vulnerability type")
	}
	if !validRiskLevels[string(r.RiskLevel)] {
		return fmt.Errorf("invalid risk_level %q", r.RiskLevel)
	}
	if !validConfidences[string(r.Confidence)] {
		return fmt.Errorf("invalid confidence %q", r.Confidence)
	}
	if !ValidMatcherTypes[r.MatcherType] {
		return fmt.Errorf("invalid matcher_type %q", r.MatcherType)
	}
	if r.MatcherType == "regex" {
		if r.Pattern == "" {
			return fmt.Errorf("missing pattern")
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	}
	return nil
}
