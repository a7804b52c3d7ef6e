package detect

import (
	"github.com/codeguardian-hq/codeguardian/core/findings"
	"github.com/codeguardian-hq/codeguardian/core/rules"
)

// builtinRule is a compact representation used to define built-in detection
// rules in a table. Each entry is converted to a rules.Rule by
// builtinRules().
type builtinRule struct {
	id          string
	vulnType    string
	risk        findings.RiskLevel
	confidence  findings.Confidence
	matcherType string
	pattern     string
	keywords    []string
	description string
}

// builtinRules returns the default detection rule set. The set is heuristic
// and extensible; YAML rule files loaded at scan time are merged on top of
// it.
func builtinRules() []rules.Rule {
	defs := []builtinRule{
		// -----------------------------------------------------------------
		// Injection (CG-001 to CG-099)
		// -----------------------------------------------------------------
		{
			id: "CG-001", vulnType: "sql_injection",
			risk: findings.RiskHigh, confidence: findings.ConfidenceMedium,
			pattern:     `(?i)\.execute(?:many|script)?\s*\(\s*["'][^"']*["']\s*[%+]`,
			keywords:    []string{"execute"},
			description: "SQL query built by string concatenation or interpolation",
		},
		{
			id: "CG-002", vulnType: "sql_injection",
			risk: findings.RiskHigh, confidence: findings.ConfidenceMedium,
			pattern:     `(?i)\.execute(?:many|script)?\s*\(\s*f["']`,
			keywords:    []string{"execute"},
			description: "SQL query built with an f-string",
		},
		{
			id: "CG-003", vulnType: "command_injection",
			risk: findings.RiskHigh, confidence: findings.ConfidenceHigh,
			pattern:     `os\.system\s*\([^)]*\+[^)]*\)`,
			keywords:    []string{"os.system"},
			description: "shell command built by string concatenation",
		},
		{
			id: "CG-004", vulnType: "command_injection",
			risk: findings.RiskHigh, confidence: findings.ConfidenceMedium,
			pattern:     `(?i)subprocess\.(?:call|run|popen|check_output)\s*\([^)]*shell\s*=\s*True`,
			keywords:    []string{"subprocess"},
			description: "subprocess invoked with shell=True",
		},
		{
			id: "CG-005", vulnType: "eval_injection",
			risk: findings.RiskHigh, confidence: findings.ConfidenceMedium,
			pattern:     `\b(?:eval|exec)\s*\(`,
			keywords:    []string{"eval", "exec"},
			description: "dynamic code evaluation",
		},
		// -----------------------------------------------------------------
		// Secrets (CG-100 to CG-199)
		// -----------------------------------------------------------------
		{
			id: "CG-101", vulnType: "hardcoded_secrets",
			risk: findings.RiskMedium, confidence: findings.ConfidenceLow,
			pattern:     `(?i)\b(?:password|passwd|pwd|secret|api_key|apikey|auth_token|access_token)\s*=\s*["'][^"']{4,}["']`,
			keywords:    []string{"password", "passwd", "pwd", "secret", "api_key", "apikey", "token"},
			description: "credential assigned from a string literal",
		},
		{
			id: "CG-102", vulnType: "hardcoded_secrets",
			risk: findings.RiskMedium, confidence: findings.ConfidenceLow,
			matcherType: "entropy",
			keywords:    []string{"password", "secret", "key", "token", "credential"},
			description: "high entropy string near a secret-suggestive name",
		},
		// -----------------------------------------------------------------
		// Deserialization (CG-200 to CG-299)
		// -----------------------------------------------------------------
		{
			id: "CG-201", vulnType: "insecure_deserialization",
			risk: findings.RiskHigh, confidence: findings.ConfidenceMedium,
			pattern:     `\bpickle\.loads?\s*\(`,
			keywords:    []string{"pickle"},
			description: "pickle deserialization of untrusted data",
		},
		{
			id: "CG-202", vulnType: "insecure_deserialization",
			risk: findings.RiskHigh, confidence: findings.ConfidenceMedium,
			pattern:     `\byaml\.load\s*\(`,
			keywords:    []string{"yaml.load"},
			description: "yaml.load without a safe loader",
		},
		{
			id: "CG-203", vulnType: "insecure_deserialization",
			risk: findings.RiskHigh, confidence: findings.ConfidenceMedium,
			pattern:     `\bmarshal\.loads?\s*\(`,
			keywords:    []string{"marshal"},
			description: "marshal deserialization of untrusted data",
		},
		// -----------------------------------------------------------------
		// Web (CG-300 to CG-399)
		// -----------------------------------------------------------------
		{
			id: "CG-301", vulnType: "xss",
			risk: findings.RiskMedium, confidence: findings.ConfidenceMedium,
			pattern:     `\.innerHTML\s*=`,
			keywords:    []string{"innerhtml"},
			description: "raw assignment to innerHTML",
		},
		{
			id: "CG-302", vulnType: "xss",
			risk: findings.RiskMedium, confidence: findings.ConfidenceMedium,
			pattern:     `document\.write\s*\(`,
			keywords:    []string{"document.write"},
			description: "document.write with dynamic content",
		},
		{
			id: "CG-303", vulnType: "path_traversal",
			risk: findings.RiskMedium, confidence: findings.ConfidenceLow,
			pattern:     `\bopen\s*\([^),]*\+[^)]*\)`,
			keywords:    []string{"open"},
			description: "file path built by string concatenation",
		},
		// -----------------------------------------------------------------
		// Crypto and configuration (CG-400 to CG-499)
		// -----------------------------------------------------------------
		{
			id: "CG-401", vulnType: "weak_crypto",
			risk: findings.RiskMedium, confidence: findings.ConfidenceHigh,
			pattern:     `(?i)hashlib\.(?:md5|sha1)\s*\(`,
			keywords:    []string{"hashlib"},
			description: "weak hash algorithm",
		},
		{
			id: "CG-402", vulnType: "insecure_random",
			risk: findings.RiskLow, confidence: findings.ConfidenceMedium,
			pattern:     `\brandom\.(?:random|randint|choice|randrange)\s*\(`,
			keywords:    []string{"random."},
			description: "non-cryptographic random source",
		},
		{
			id: "CG-403", vulnType: "debug_enabled",
			risk: findings.RiskLow, confidence: findings.ConfidenceHigh,
			pattern:     `(?i)\bdebug\s*=\s*True\b`,
			keywords:    []string{"debug"},
			description: "debug mode enabled",
		},
	}

	out := make([]rules.Rule, 0, len(defs))
	for _, d := range defs {
		matcherType := d.matcherType
		if matcherType == "" {
			matcherType = "regex"
		}
		out = append(out, rules.Rule{
			ID:          d.id,
			Description: d.description,
			Type:        d.vulnType,
			RiskLevel:   d.risk,
			Confidence:  d.confidence,
			MatcherType: matcherType,
			Pattern:     d.pattern,
			Keywords:    d.keywords,
		})
	}
	return out
}
