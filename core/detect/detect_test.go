package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codeguardian-hq/codeguardian/core/discovery"
	"github.com/codeguardian-hq/codeguardian/core/findings"
	"github.com/codeguardian-hq/codeguardian/core/rules"
)

// vulnerableFixture exercises the four core vulnerability families.
const vulnerableFixture = `import os
import pickle

password = "hardcoded_secret123"

def run(user_input, user_id, data):
    os.system("echo " + user_input)
    cursor.execute("SELECT * FROM users WHERE id = " + user_id)
    obj = pickle.loads(data)
    return obj
`

func TestAnalyzerVulnerableFixture(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer()
	got, err := a.ScanContent("app.py", []byte(vulnerableFixture))
	if err != nil {
		t.Fatalf("ScanContent returned error: %v", err)
	}
	if len(got) < 3 {
		t.Fatalf("len(findings) = %d, want >= 3", len(got))
	}

	types := make(map[string]bool)
	for _, f := range got {
		types[f.Type] = true
		if f.FilePath != "app.py" {
			t.Errorf("finding file = %q, want app.py", f.FilePath)
		}
		if f.Line == 0 {
			t.Errorf("finding %s has no line number", f.RuleID)
		}
	}
	if !types["command_injection"] {
		t.Error("no command_injection finding")
	}
	if !types["hardcoded_secrets"] {
		t.Error("no hardcoded_secrets finding")
	}
	if !types["sql_injection"] {
		t.Error("no sql_injection finding")
	}
	if !types["insecure_deserialization"] {
		t.Error("no insecure_deserialization finding")
	}
}

func TestAnalyzerCleanFile(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer()
	got, err := a.ScanContent("clean.py", []byte("import json\n\ndef add(a, b):\n    return a + b\n"))
	if err != nil {
		t.Fatalf("ScanContent returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("findings on clean file = %v, want none", got)
	}
}

func TestAnalyzerRuleDefaults(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer()

	// Injection and deserialization families default to high risk,
	// hardcoded secrets to medium risk with low confidence.
	tests := []struct {
		id         string
		risk       findings.RiskLevel
		confidence findings.Confidence
	}{
		{id: "CG-001", risk: findings.RiskHigh, confidence: findings.ConfidenceMedium},
		{id: "CG-003", risk: findings.RiskHigh, confidence: findings.ConfidenceHigh},
		{id: "CG-101", risk: findings.RiskMedium, confidence: findings.ConfidenceLow},
		{id: "CG-201", risk: findings.RiskHigh, confidence: findings.ConfidenceMedium},
	}
	for _, tt := range tests {
		r, ok := a.Rules().ByID(tt.id)
		if !ok {
			t.Errorf("built-in rule %s missing", tt.id)
			continue
		}
		if r.RiskLevel != tt.risk {
			t.Errorf("%s risk = %s, want %s", tt.id, r.RiskLevel, tt.risk)
		}
		if r.Confidence != tt.confidence {
			t.Errorf("%s confidence = %s, want %s", tt.id, r.Confidence, tt.confidence)
		}
	}
}

func TestAnalyzerApplyOverrides(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer()
	a.ApplyOverrides(Overrides{
		DisabledRules: []string{"CG-403"},
		Severity:      map[string]string{"CG-101": "high"},
	})

	if a.Rules().HasID("CG-403") {
		t.Error("disabled rule CG-403 still present")
	}
	r, ok := a.Rules().ByID("CG-101")
	if !ok {
		t.Fatal("rule CG-101 missing after overrides")
	}
	if r.RiskLevel != findings.RiskHigh {
		t.Errorf("CG-101 risk = %s, want high after override", r.RiskLevel)
	}
}

func TestAnalyzerMerge(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer()
	before := len(a.Rules().Rules())

	extra := rules.NewRuleSet()
	extra.Add(rules.Rule{
		ID:          "CG-CUSTOM",
		Type:        "sql_injection",
		RiskLevel:   findings.RiskCritical,
		Confidence:  findings.ConfidenceHigh,
		MatcherType: "regex",
		Pattern:     `raw_query\(`,
	})
	extra.Add(rules.Rule{
		ID:          "CG-003",
		Type:        "command_injection",
		RiskLevel:   findings.RiskCritical,
		Confidence:  findings.ConfidenceHigh,
		MatcherType: "regex",
		Pattern:     `os\.system\(`,
	})
	a.Merge(extra)

	if got := len(a.Rules().Rules()); got != before+1 {
		t.Errorf("rule count after merge = %d, want %d", got, before+1)
	}
	r, _ := a.Rules().ByID("CG-003")
	if r.RiskLevel != findings.RiskCritical {
		t.Errorf("CG-003 risk after merge = %s, want critical", r.RiskLevel)
	}
	if !a.Rules().HasID("CG-CUSTOM") {
		t.Error("merged rule CG-CUSTOM missing")
	}
}

func TestScanFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.py"), []byte(vulnerableFixture), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clean.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	refs := []discovery.FileRef{
		{Path: "app.py", AbsPath: filepath.Join(dir, "app.py")},
		{Path: "clean.py", AbsPath: filepath.Join(dir, "clean.py")},
		{Path: "gone.py", AbsPath: filepath.Join(dir, "gone.py")}, // unreadable, skipped
	}

	a := NewAnalyzer()
	fs, err := a.ScanFiles(refs)
	if err != nil {
		t.Fatalf("ScanFiles returned error: %v", err)
	}
	if fs.Len() < 3 {
		t.Errorf("ScanFiles found %d findings, want >= 3", fs.Len())
	}
	for _, f := range fs.Findings() {
		if f.FilePath != "app.py" {
			t.Errorf("finding from %q, want app.py only", f.FilePath)
		}
	}
}
