package classify

import (
	"testing"

	"github.com/codeguardian-hq/codeguardian/core/findings"
)

func TestApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		in             findings.Finding
		wantLabel      string
		wantRisk       findings.RiskLevel
		wantConfidence findings.Confidence
	}{
		{
			name: "sql injection keeps defaults",
			in: findings.Finding{
				Type: "sql_injection", RiskLevel: findings.RiskHigh, Confidence: findings.ConfidenceMedium,
			},
			wantLabel: "injection", wantRisk: findings.RiskHigh, wantConfidence: findings.ConfidenceMedium,
		},
		{
			name: "high confidence command injection promoted to critical",
			in: findings.Finding{
				Type: "command_injection", RiskLevel: findings.RiskHigh, Confidence: findings.ConfidenceHigh,
			},
			wantLabel: "injection", wantRisk: findings.RiskCritical, wantConfidence: findings.ConfidenceHigh,
		},
		{
			name: "low confidence secret demoted to info",
			in: findings.Finding{
				Type: "hardcoded_secrets", RiskLevel: findings.RiskMedium, Confidence: findings.ConfidenceLow,
			},
			wantLabel: "secret-exposure", wantRisk: findings.RiskInfo, wantConfidence: findings.ConfidenceLow,
		},
		{
			name: "medium confidence secret keeps risk",
			in: findings.Finding{
				Type: "hardcoded_secrets", RiskLevel: findings.RiskMedium, Confidence: findings.ConfidenceMedium,
			},
			wantLabel: "secret-exposure", wantRisk: findings.RiskMedium, wantConfidence: findings.ConfidenceMedium,
		},
		{
			name: "deserialization not promoted",
			in: findings.Finding{
				Type: "insecure_deserialization", RiskLevel: findings.RiskHigh, Confidence: findings.ConfidenceHigh,
			},
			wantLabel: "unsafe-deserialization", wantRisk: findings.RiskHigh, wantConfidence: findings.ConfidenceHigh,
		},
		{
			name: "unknown type forces low confidence",
			in: findings.Finding{
				Type: "quantum_tunneling", RiskLevel: findings.RiskMedium, Confidence: findings.ConfidenceHigh,
			},
			wantLabel: LabelUnknown, wantRisk: findings.RiskMedium, wantConfidence: findings.ConfidenceLow,
		},
		{
			name:           "zero value finding",
			in:             findings.Finding{},
			wantLabel:      LabelUnknown,
			wantRisk:       "",
			wantConfidence: findings.ConfidenceLow,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := tt.in
			Apply(&f)
			if f.Classification != tt.wantLabel {
				t.Errorf("label = %q, want %q", f.Classification, tt.wantLabel)
			}
			if f.RiskLevel != tt.wantRisk {
				t.Errorf("risk = %q, want %q", f.RiskLevel, tt.wantRisk)
			}
			if f.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %q, want %q", f.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()

	if got := Label("xss"); got != "cross-site-scripting" {
		t.Errorf("Label(xss) = %q", got)
	}
	if got := Label("made_up"); got != LabelUnknown {
		t.Errorf("Label(made_up) = %q, want %q", got, LabelUnknown)
	}
}
