// Package fix synthesizes remediation suggestions for findings. Each
// vulnerability type may register a template that re-matches the finding's
// stored snippet and builds a concrete replacement; when no template applies
// the engine falls back to a hand-authored generic suggestion keyed on the
// type family. Fix generation never fails: every finding receives some
// suggestion, if only a manual-review note echoing the snippet.
package fix

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codeguardian-hq/codeguardian/core/findings"
)

// template is a static pattern-to-replacement rule for one vulnerability
// type. The build function receives the snippet and the re-match groups and
// returns the fixed code, or false when the match cannot be used.
type template struct {
	pattern     *regexp.Regexp
	explanation string
	build       func(snippet string, groups []string) (string, bool)
}

// templates is the registry of exact-fix templates, keyed by vulnerability
// type. Loaded once at process start, never mutated.
var templates = map[string]template{
	"sql_injection": {
		pattern:     regexp.MustCompile(`cursor\.execute\s*\(\s*['"](.*?)\s*['"]\s*\+\s*(.+?)\s*\)`),
		explanation: "Use parameterized queries to prevent SQL injection.",
		build: func(_ string, groups []string) (string, bool) {
			static := strings.TrimSpace(groups[1])
			param := strings.TrimSpace(groups[2])
			return fmt.Sprintf("cursor.execute('%s%%s', [%s])", static, param), true
		},
	},
	"command_injection": {
		pattern:     regexp.MustCompile(`(os\.system|subprocess\.call|subprocess\.Popen)\s*\(\s*['"].*?\s*['"]\s*\+\s*(.+?)\s*\)`),
		explanation: "Avoid shell commands with concatenated user input.",
		build: func(_ string, _ []string) (string, bool) {
			return "# SECURITY: Avoid shell commands with user input\n" +
				"# Consider using secure alternatives like:\n" +
				"# shlex.quote() or dedicated APIs", true
		},
	},
	"hardcoded_secrets": {
		pattern:     regexp.MustCompile(`(\w+)\s*=\s*['"](.+?)['"]`),
		explanation: "Store secrets in environment variables or a secure vault service.",
		build: func(_ string, groups []string) (string, bool) {
			name := groups[1]
			value := groups[2]
			// Values that already reference a template or env expansion
			// are not literals worth rewriting.
			if strings.Contains(value, "${") || strings.Contains(value, "{{") {
				return "", false
			}
			return fmt.Sprintf("%s = os.environ.get('%s', '')", name, strings.ToUpper(name)), true
		},
	},
	"insecure_deserialization": {
		pattern:     regexp.MustCompile(`pickle\.loads?\s*\(\s*(.+?)\s*\)`),
		explanation: "Pickle is vulnerable to code execution attacks with untrusted data.",
		build: func(_ string, _ []string) (string, bool) {
			return "# SECURITY: Avoid pickle with untrusted data\n" +
				"# Consider JSON or other safer serialization formats", true
		},
	},
}

// Generate produces a fix suggestion for the finding. An exact template
// match yields a medium confidence suggestion; everything else degrades to
// a low confidence generic suggestion for the type family.
func Generate(f findings.Finding) findings.FixSuggestion {
	if tmpl, ok := templates[strings.ToLower(f.Type)]; ok {
		if groups := tmpl.pattern.FindStringSubmatch(f.CodeSnippet); groups != nil {
			if fixed, ok := tmpl.build(f.CodeSnippet, groups); ok {
				return findings.FixSuggestion{
					FixedCode:   fixed,
					Explanation: tmpl.explanation,
					Confidence:  findings.ConfidenceMedium,
				}
			}
		}
	}
	return genericFix(f)
}

// Apply attaches a suggestion to the finding unless one is already present.
func Apply(f *findings.Finding) {
	if f.SuggestedFix != nil {
		return
	}
	suggestion := Generate(*f)
	f.SuggestedFix = &suggestion
}

// genericFix returns a hand-authored suggestion for the finding's type
// family, or a manual-review note echoing the snippet when no family
// matches.
func genericFix(f findings.Finding) findings.FixSuggestion {
	vulnType := strings.ToLower(f.Type)

	switch {
	case strings.Contains(vulnType, "sql"):
		return findings.FixSuggestion{
			FixedCode: "# Use parameterized queries\n" +
				"cursor.execute('SELECT * FROM table WHERE field = %s', [user_input])",
			Explanation: "Use parameterized queries to prevent SQL injection.",
			Confidence:  findings.ConfidenceLow,
		}
	case strings.Contains(vulnType, "command"),
		strings.Contains(vulnType, "os.system"),
		strings.Contains(vulnType, "subprocess"):
		return findings.FixSuggestion{
			FixedCode: "# Avoid shell=True and command concatenation\n" +
				"import shlex\n" +
				"safe_args = [safe_command, shlex.quote(user_input)]\n" +
				"subprocess.run(safe_args, shell=False, check=True)",
			Explanation: "Use subprocess with properly quoted arguments and avoid shell=True.",
			Confidence:  findings.ConfidenceLow,
		}
	case strings.Contains(vulnType, "xss"):
		return findings.FixSuggestion{
			FixedCode: "# Use proper escaping/encoding\n" +
				"from html import escape\n" +
				"safe_output = escape(user_input)\n" +
				"response.write(f'<div>{safe_output}</div>')",
			Explanation: "Always encode/escape user input before rendering in HTML context.",
			Confidence:  findings.ConfidenceLow,
		}
	case strings.Contains(vulnType, "path"), strings.Contains(vulnType, "file"):
		return findings.FixSuggestion{
			FixedCode: "# Validate file paths\n" +
				"import os.path\n" +
				"safe_path = os.path.normpath(os.path.join(safe_base_dir, user_filename))\n" +
				"if not safe_path.startswith(safe_base_dir):\n" +
				"    raise ValueError('Invalid path')",
			Explanation: "Validate and sanitize file paths to prevent directory traversal.",
			Confidence:  findings.ConfidenceLow,
		}
	}

	return findings.FixSuggestion{
		FixedCode:   "# Review and fix this vulnerability\n# " + f.CodeSnippet,
		Explanation: "This requires manual review.",
		Confidence:  findings.ConfidenceLow,
	}
}
