package report

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/codeguardian-hq/codeguardian/core/findings"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	fs := findings.NewFindingSet()
	fs.Add(findings.Finding{
		FilePath: "b.py", Line: 5, Type: "sql_injection",
		RiskLevel: findings.RiskHigh, Confidence: findings.ConfidenceMedium,
		CodeSnippet: `cursor.execute("q" + x)`, RuleID: "CG-001",
	})
	fs.Add(findings.Finding{
		FilePath: "a.py", Line: 3, Type: "command_injection",
		RiskLevel: findings.RiskCritical, Confidence: findings.ConfidenceHigh,
		CodeSnippet: `os.system("x " + y)`, RuleID: "CG-003",
	})
	// Duplicate of the first finding.
	fs.Add(findings.Finding{
		FilePath: "b.py", Line: 5, Type: "sql_injection",
		RiskLevel: findings.RiskHigh, Confidence: findings.ConfidenceMedium,
		CodeSnippet: `cursor.execute("q" + x)`, RuleID: "CG-001",
	})

	r := Build("scan-123", fs)

	if r.ScanID != "scan-123" {
		t.Errorf("scan_id = %q", r.ScanID)
	}
	if len(r.Vulnerabilities) != 2 {
		t.Fatalf("len(vulnerabilities) = %d, want 2 after dedup", len(r.Vulnerabilities))
	}
	// Deterministic order: a.py before b.py.
	if r.Vulnerabilities[0].FilePath != "a.py" || r.Vulnerabilities[1].FilePath != "b.py" {
		t.Errorf("order = [%s %s], want [a.py b.py]",
			r.Vulnerabilities[0].FilePath, r.Vulnerabilities[1].FilePath)
	}
	if r.Stats.TotalVulnerabilities != 2 {
		t.Errorf("stats total = %d, want 2", r.Stats.TotalVulnerabilities)
	}
	if r.RiskScore <= 0 || r.RiskScore > 100 {
		t.Errorf("risk score = %v, want in (0, 100]", r.RiskScore)
	}

	if _, err := time.Parse(time.RFC3339, r.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC 3339: %v", r.Timestamp, err)
	}
}

func TestBuildEmptySet(t *testing.T) {
	t.Parallel()

	r := Build("scan-empty", findings.NewFindingSet())

	if r.Vulnerabilities == nil {
		t.Fatal("vulnerabilities slice is nil")
	}
	if r.RiskScore != 0 {
		t.Errorf("risk score = %v, want 0", r.RiskScore)
	}

	data, err := Marshal(r)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if !strings.Contains(string(data), `"vulnerabilities": []`) {
		t.Errorf("empty report renders %s, want empty array", data)
	}
}

func TestMarshalSchema(t *testing.T) {
	t.Parallel()

	fs := findings.NewFindingSet()
	fs.Add(findings.Finding{
		FilePath: "app.py", Line: 4, Type: "hardcoded_secrets",
		RiskLevel: findings.RiskInfo, Confidence: findings.ConfidenceLow,
		CodeSnippet:    `password = "x"`,
		Classification: "secret-exposure",
		SuggestedFix: &findings.FixSuggestion{
			FixedCode:   "password = os.environ.get('PASSWORD', '')",
			Explanation: "Store secrets in environment variables or a secure vault service.",
			Confidence:  findings.ConfidenceMedium,
		},
	})

	data, err := Marshal(Build("scan-1", fs))
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	for _, key := range []string{"scan_id", "timestamp", "vulnerabilities", "stats", "risk_score"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("report missing key %q", key)
		}
	}

	vulns := decoded["vulnerabilities"].([]any)
	vuln := vulns[0].(map[string]any)
	for _, key := range []string{"file_path", "line", "type", "risk_level", "confidence", "code_snippet", "classification", "suggested_fix"} {
		if _, ok := vuln[key]; !ok {
			t.Errorf("finding missing key %q", key)
		}
	}
	fix := vuln["suggested_fix"].(map[string]any)
	for _, key := range []string{"fixed_code", "explanation", "confidence"} {
		if _, ok := fix[key]; !ok {
			t.Errorf("suggested_fix missing key %q", key)
		}
	}
}

func TestWriteAndReadFile(t *testing.T) {
	t.Parallel()

	fs := findings.NewFindingSet()
	fs.Add(findings.Finding{
		FilePath: "a.py", Line: 1, Type: "debug_enabled",
		RiskLevel: findings.RiskLow, Confidence: findings.ConfidenceHigh,
		CodeSnippet: "DEBUG = True",
	})
	r := Build("scan-io", fs)

	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteToFile(r, path); err != nil {
		t.Fatalf("WriteToFile returned error: %v", err)
	}

	got, err := ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile returned error: %v", err)
	}
	if got.ScanID != "scan-io" || len(got.Vulnerabilities) != 1 {
		t.Errorf("round trip = %+v", got)
	}

	if _, err := ReadFromFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("ReadFromFile on missing file did not error")
	}
}
