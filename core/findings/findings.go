// Package findings defines the canonical vulnerability finding model used
// across the CodeGuardian pipeline. The detector produces Finding values,
// the classifier and fix engine enrich them, and the stats aggregator and
// report builders consume them. Findings are collected into a FindingSet for
// deduplication, deterministic ordering, and downstream serialization.
package findings

import (
	"sort"
	"strings"
)

// RiskLevel indicates how severe a finding is. The values are ordered from
// most to least severe, with Unknown for findings whose severity could not
// be determined.
type RiskLevel string

// Risk level constants ordered from most to least severe.
const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
	RiskInfo     RiskLevel = "info"
	RiskUnknown  RiskLevel = "unknown"
)

// ParseRiskLevel normalizes a risk level string to one of the canonical
// constants. Matching is case-insensitive; empty or unrecognized values map
// to RiskUnknown.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskCritical:
		return RiskCritical
	case RiskHigh:
		return RiskHigh
	case RiskMedium:
		return RiskMedium
	case RiskLow:
		return RiskLow
	case RiskInfo:
		return RiskInfo
	default:
		return RiskUnknown
	}
}

// Confidence expresses how certain the detector is that a finding is a true
// positive rather than a false positive.
type Confidence string

// Confidence level constants for finding certainty.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Score converts a categorical confidence to its numeric equivalent on the
// [0, 1] scale used by aggregation. Unrecognized values score 0 so that a
// malformed confidence drags the average down rather than inflating it.
func (c Confidence) Score() float64 {
	switch c {
	case ConfidenceHigh:
		return 0.9
	case ConfidenceMedium:
		return 0.6
	case ConfidenceLow:
		return 0.3
	default:
		return 0
	}
}

// FixSuggestion is the remediation attached to a finding by the fix template
// engine. The field names match the report wire schema.
type FixSuggestion struct {
	FixedCode   string     `json:"fixed_code"`
	Explanation string     `json:"explanation"`
	Confidence  Confidence `json:"confidence"`
}

// Finding is a single suspected vulnerability in one file. It is created by
// the detector, enriched in place by the classifier (Classification, plus a
// possible RiskLevel adjustment) and the fix engine (SuggestedFix), and
// immutable thereafter.
type Finding struct {
	FilePath       string         `json:"file_path"`
	Line           int            `json:"line,omitempty"`
	Type           string         `json:"type"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	Confidence     Confidence     `json:"confidence"`
	CodeSnippet    string         `json:"code_snippet"`
	Classification string         `json:"classification,omitempty"`
	SuggestedFix   *FixSuggestion `json:"suggested_fix,omitempty"`

	// RuleID identifies the detection rule that produced the finding.
	RuleID string `json:"rule_id,omitempty"`
	// Fingerprint deduplicates findings across pipeline stages. It is not
	// part of the wire schema.
	Fingerprint string `json:"-"`
}

// FindingSet is an ordered, deduplicated collection of findings. It is the
// primary data structure passed between pipeline stages.
type FindingSet struct {
	items []Finding
}

// NewFindingSet returns an empty FindingSet ready for use.
func NewFindingSet() *FindingSet {
	return &FindingSet{}
}

// Add appends a finding to the set. If the finding has an empty Fingerprint,
// one is computed from its rule, location, and snippet so that every finding
// in the set is always fingerprintable.
func (fs *FindingSet) Add(f Finding) {
	if f.Fingerprint == "" {
		f.Fingerprint = ComputeFingerprint(f.RuleID, f.FilePath, f.Line, f.CodeSnippet)
	}
	fs.items = append(fs.items, f)
}

// Deduplicate removes findings that share the same Fingerprint, keeping only
// the first occurrence. Call this after all findings have been added and
// before producing output.
func (fs *FindingSet) Deduplicate() {
	seen := make(map[string]struct{}, len(fs.items))
	unique := make([]Finding, 0, len(fs.items))
	for _, f := range fs.items {
		if _, exists := seen[f.Fingerprint]; exists {
			continue
		}
		seen[f.Fingerprint] = struct{}{}
		unique = append(unique, f)
	}
	fs.items = unique
}

// SortDeterministic orders findings by FilePath, then Line, then Type. This
// guarantees stable, reproducible report output regardless of the order in
// which files were scanned.
func (fs *FindingSet) SortDeterministic() {
	sort.Slice(fs.items, func(i, j int) bool {
		a, b := fs.items[i], fs.items[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Type < b.Type
	})
}

// Len returns the number of findings in the set.
func (fs *FindingSet) Len() int {
	return len(fs.items)
}

// Findings returns the current slice of findings. The caller must not modify
// the returned slice.
func (fs *FindingSet) Findings() []Finding {
	return fs.items
}
