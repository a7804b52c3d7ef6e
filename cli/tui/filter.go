package tui

import (
	"strings"

	"github.com/codeguardian-hq/codeguardian/core/findings"
)

// riskOrder defines the cycle order for the risk level filter toggle.
var riskOrder = []findings.RiskLevel{
	findings.RiskCritical,
	findings.RiskHigh,
	findings.RiskMedium,
	findings.RiskLow,
	findings.RiskInfo,
}

// filterState tracks the active filter configuration.
type filterState struct {
	riskIdx   int    // -1 = all, 0..4 = specific risk level
	search    string // free-text search query
	searching bool   // true when search input is active
}

func newFilterState() filterState {
	return filterState{riskIdx: -1}
}

// cycleRisk advances the risk level filter to the next level.
func (f *filterState) cycleRisk() {
	f.riskIdx++
	if f.riskIdx >= len(riskOrder) {
		f.riskIdx = -1
	}
}

// activeRisk returns the current risk filter, or "all" when unset.
func (f *filterState) activeRisk() string {
	if f.riskIdx < 0 {
		return "all"
	}
	return string(riskOrder[f.riskIdx])
}

// matchesFinding returns true if the finding passes all active filters.
func (f *filterState) matchesFinding(finding findings.Finding) bool {
	// Risk level filter.
	if f.riskIdx >= 0 {
		if finding.RiskLevel != riskOrder[f.riskIdx] {
			return false
		}
	}

	// Search filter.
	if f.search != "" {
		q := strings.ToLower(f.search)
		if !strings.Contains(strings.ToLower(finding.RuleID), q) &&
			!strings.Contains(strings.ToLower(finding.FilePath), q) &&
			!strings.Contains(strings.ToLower(finding.Type), q) &&
			!strings.Contains(strings.ToLower(finding.Classification), q) {
			return false
		}
	}

	return true
}

// filterFindings returns findings that pass the active filters.
func (f *filterState) filterFindings(all []findings.Finding) []findings.Finding {
	var result []findings.Finding
	for _, finding := range all {
		if f.matchesFinding(finding) {
			result = append(result, finding)
		}
	}
	return result
}
