package stats

import (
	"math"
	"testing"

	"github.com/codeguardian-hq/codeguardian/core/findings"
)

func mkFinding(file string, risk findings.RiskLevel, vulnType string, conf findings.Confidence) findings.Finding {
	return findings.Finding{
		FilePath:   file,
		Type:       vulnType,
		RiskLevel:  risk,
		Confidence: conf,
	}
}

func TestGenerateEmpty(t *testing.T) {
	t.Parallel()

	s := Generate(nil)
	if s.TotalVulnerabilities != 0 {
		t.Errorf("total = %d, want 0", s.TotalVulnerabilities)
	}
	if s.RiskDistribution == nil || s.TypeDistribution == nil ||
		s.TopVulnerabilityTypes == nil || s.TopVulnerableFiles == nil {
		t.Error("empty stats must carry non-nil maps")
	}
	if len(s.RiskDistribution) != 0 {
		t.Errorf("risk distribution = %v, want empty", s.RiskDistribution)
	}
	if s.AverageConfidence != 0 {
		t.Errorf("average confidence = %v, want 0", s.AverageConfidence)
	}
	if s.GeneratedAt == "" {
		t.Error("generated_at not set")
	}
}

func TestGenerateDistributions(t *testing.T) {
	t.Parallel()

	items := []findings.Finding{
		mkFinding("a.py", findings.RiskHigh, "sql_injection", findings.ConfidenceHigh),
		mkFinding("a.py", findings.RiskHigh, "command_injection", findings.ConfidenceMedium),
		mkFinding("b.py", "HIGH", "sql_injection", findings.ConfidenceLow),
		mkFinding("b.py", findings.RiskMedium, "hardcoded_secrets", findings.ConfidenceLow),
		mkFinding("c.py", "", "", findings.ConfidenceMedium),
	}

	s := Generate(items)

	if s.TotalVulnerabilities != 5 {
		t.Errorf("total = %d, want 5", s.TotalVulnerabilities)
	}
	// Case-insensitive risk counting; empty values bucket under unknown.
	if got := s.RiskDistribution["high"]; got != 3 {
		t.Errorf("risk high = %d, want 3", got)
	}
	if got := s.RiskDistribution["unknown"]; got != 1 {
		t.Errorf("risk unknown = %d, want 1", got)
	}
	if got := s.TypeDistribution["sql_injection"]; got != 2 {
		t.Errorf("type sql_injection = %d, want 2", got)
	}
	if got := s.TypeDistribution["unknown"]; got != 1 {
		t.Errorf("type unknown = %d, want 1", got)
	}

	// Distribution totals must equal the finding count.
	var riskSum, typeSum int
	for _, n := range s.RiskDistribution {
		riskSum += n
	}
	for _, n := range s.TypeDistribution {
		typeSum += n
	}
	if riskSum != 5 || typeSum != 5 {
		t.Errorf("distribution sums = %d/%d, want 5/5", riskSum, typeSum)
	}

	if got := s.TopVulnerableFiles["a.py"]; got != 2 {
		t.Errorf("top files a.py = %d, want 2", got)
	}

	// Mean of normalized confidences: (0.9+0.6+0.3+0.3+0.6)/5.
	want := 2.7 / 5
	if math.Abs(s.AverageConfidence-want) > 1e-9 {
		t.Errorf("average confidence = %v, want %v", s.AverageConfidence, want)
	}
}

func TestGenerateTopFive(t *testing.T) {
	t.Parallel()

	var items []findings.Finding
	types := []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"}
	for i, vt := range types {
		for j := 0; j <= i; j++ {
			items = append(items, mkFinding("f.py", findings.RiskLow, vt, findings.ConfidenceLow))
		}
	}

	s := Generate(items)
	if len(s.TopVulnerabilityTypes) != 5 {
		t.Fatalf("len(top types) = %d, want 5", len(s.TopVulnerabilityTypes))
	}
	// The two least common types fall out.
	if _, ok := s.TopVulnerabilityTypes["t1"]; ok {
		t.Error("t1 should not be in top five")
	}
	if got := s.TopVulnerabilityTypes["t7"]; got != 7 {
		t.Errorf("t7 count = %d, want 7", got)
	}
}

func TestRiskScore(t *testing.T) {
	t.Parallel()

	score := func(levels ...findings.RiskLevel) float64 {
		items := make([]findings.Finding, len(levels))
		for i, l := range levels {
			items[i] = mkFinding("f.py", l, "sql_injection", findings.ConfidenceMedium)
		}
		return RiskScore(items)
	}

	if got := score(); got != 0 {
		t.Errorf("score of no findings = %v, want 0", got)
	}

	// One critical finding: weight 10, 100*log2(1 + 10/50) = 26.3.
	if got := score(findings.RiskCritical); got != 26.3 {
		t.Errorf("score of one critical = %v, want 26.3", got)
	}

	// Five criticals reach the reference weight: 100*log2(2) = 100.
	if got := score(findings.RiskCritical, findings.RiskCritical, findings.RiskCritical,
		findings.RiskCritical, findings.RiskCritical); got != 100 {
		t.Errorf("score of five criticals = %v, want 100", got)
	}

	// Monotonic in added findings, capped at 100.
	levels := []findings.RiskLevel{}
	prev := 0.0
	for i := 0; i < 40; i++ {
		levels = append(levels, findings.RiskHigh)
		got := score(levels...)
		if got < prev {
			t.Fatalf("score decreased from %v to %v at %d findings", prev, got, i+1)
		}
		if got > 100 {
			t.Fatalf("score %v exceeds 100", got)
		}
		prev = got
	}
	if prev != 100 {
		t.Errorf("score of 40 high findings = %v, want capped 100", prev)
	}

	// Unrecognized level weighs the same as unknown.
	if got, want := score("bogus"), score(findings.RiskUnknown); got != want {
		t.Errorf("score(bogus) = %v, score(unknown) = %v, want equal", got, want)
	}
}

func TestTrend(t *testing.T) {
	t.Parallel()

	summaries := map[string]ScanSummary{
		"scan-1": {
			Timestamp: "2026-08-01T10:00:00Z",
			Vulnerabilities: []findings.Finding{
				mkFinding("a.py", findings.RiskCritical, "sql_injection", findings.ConfidenceHigh),
				mkFinding("a.py", findings.RiskHigh, "xss", findings.ConfidenceMedium),
			},
			RiskScore: 35.0,
		},
		"scan-2": {
			Timestamp: "2026-08-02T10:00:00Z",
			Vulnerabilities: []findings.Finding{
				mkFinding("a.py", findings.RiskLow, "debug_enabled", findings.ConfidenceHigh),
			},
			RiskScore: 2.9,
		},
	}

	series := Trend([]string{"scan-1", "missing", "scan-2"}, summaries)

	if len(series.Dates) != 2 {
		t.Fatalf("len(dates) = %d, want 2 (missing scan skipped)", len(series.Dates))
	}
	if series.Dates[0] != "2026-08-01T10:00:00Z" {
		t.Errorf("dates[0] = %q", series.Dates[0])
	}
	if series.Critical[0] != 1 || series.High[0] != 1 || series.Low[0] != 0 {
		t.Errorf("scan-1 counts = %d/%d/%d", series.Critical[0], series.High[0], series.Low[0])
	}
	if series.Low[1] != 1 {
		t.Errorf("scan-2 low = %d, want 1", series.Low[1])
	}
	if series.RiskScores[1] != 2.9 {
		t.Errorf("risk_scores[1] = %v", series.RiskScores[1])
	}
}

func TestTrendEmpty(t *testing.T) {
	t.Parallel()

	series := Trend(nil, nil)
	if series.Dates == nil || series.RiskScores == nil {
		t.Error("empty trend series must carry non-nil slices")
	}
	if len(series.Dates) != 0 {
		t.Errorf("len(dates) = %d, want 0", len(series.Dates))
	}
}
