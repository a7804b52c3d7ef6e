// Package classify assigns classification labels to raw findings and
// adjusts their risk level based on detection confidence. Classification is
// a deterministic function of the finding's type and confidence; it
// consults no external state and never fails.
package classify

import (
	"github.com/codeguardian-hq/codeguardian/core/findings"
)

// LabelUnknown is assigned to findings whose vulnerability type is not
// recognised.
const LabelUnknown = "unknown"

// labelByType maps vulnerability type tags to classification family labels.
var labelByType = map[string]string{
	"sql_injection":            "injection",
	"command_injection":        "injection",
	"eval_injection":           "injection",
	"hardcoded_secrets":        "secret-exposure",
	"insecure_deserialization": "unsafe-deserialization",
	"xss":                      "cross-site-scripting",
	"path_traversal":           "path-traversal",
	"weak_crypto":              "weak-cryptography",
	"insecure_random":          "predictable-randomness",
	"debug_enabled":            "insecure-configuration",
}

// injectionFamily marks the types whose high-confidence matches are
// promoted one level.
var injectionFamily = map[string]bool{
	"sql_injection":     true,
	"command_injection": true,
	"eval_injection":    true,
}

// Apply classifies the finding in place: it sets the classification label
// and may promote or demote the risk level.
//
// A hardcoded secret matched with low confidence is demoted to info, since
// those rules are prone to flagging ordinary string assignments. An
// injection-family match with high confidence is promoted from high to
// critical. A finding of an unrecognised type is labelled unknown and its
// confidence forced to low; its risk level is left as the rule set it.
func Apply(f *findings.Finding) {
	label, ok := labelByType[f.Type]
	if !ok {
		f.Classification = LabelUnknown
		f.Confidence = findings.ConfidenceLow
		return
	}
	f.Classification = label

	switch {
	case f.Type == "hardcoded_secrets" && f.Confidence == findings.ConfidenceLow:
		f.RiskLevel = findings.RiskInfo
	case injectionFamily[f.Type] && f.Confidence == findings.ConfidenceHigh && f.RiskLevel == findings.RiskHigh:
		f.RiskLevel = findings.RiskCritical
	}
}

// Label returns the classification label for a vulnerability type without
// touching a finding.
func Label(vulnType string) string {
	if label, ok := labelByType[vulnType]; ok {
		return label
	}
	return LabelUnknown
}
