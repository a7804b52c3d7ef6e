// Package report assembles per-scan results into the ScanReport wire
// structure and serializes it to deterministic JSON suitable for the HTTP
// API, CI pipelines, and the terminal viewer.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/codeguardian-hq/codeguardian/core/findings"
	"github.com/codeguardian-hq/codeguardian/core/stats"
)

// ScanReport is the canonical result of one scan. It is the unit persisted
// and served by the orchestration layer.
type ScanReport struct {
	ScanID          string             `json:"scan_id"`
	Timestamp       string             `json:"timestamp"`
	Vulnerabilities []findings.Finding `json:"vulnerabilities"`
	Stats           stats.Stats        `json:"stats"`
	RiskScore       float64            `json:"risk_score"`
}

// Build assembles a ScanReport from a finding set: findings are
// deduplicated and sorted deterministically, statistics and the risk score
// are computed from the final list, and the timestamp is set to now in
// UTC.
func Build(scanID string, fs *findings.FindingSet) ScanReport {
	fs.Deduplicate()
	fs.SortDeterministic()

	items := fs.Findings()
	// Guarantee a non-nil slice so JSON renders "vulnerabilities": []
	// rather than null for a clean scan.
	if items == nil {
		items = []findings.Finding{}
	}

	return ScanReport{
		ScanID:          scanID,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Vulnerabilities: items,
		Stats:           stats.Generate(items),
		RiskScore:       stats.RiskScore(items),
	}
}

// Summary converts the report into the slice trend aggregation consumes.
func (r ScanReport) Summary() stats.ScanSummary {
	return stats.ScanSummary{
		Timestamp:       r.Timestamp,
		Vulnerabilities: r.Vulnerabilities,
		RiskScore:       r.RiskScore,
	}
}

// Marshal serializes the report to pretty-printed JSON with 2-space
// indentation. Output is stable across runs given the same findings, aside
// from the timestamps.
func Marshal(r ScanReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteToFile serializes the report and writes it to the given path with
// 0644 permissions. Parent directories must already exist.
func WriteToFile(r ScanReport, path string) error {
	data, err := Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFromFile loads a previously written report. Used by the terminal
// viewer.
func ReadFromFile(path string) (ScanReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScanReport{}, fmt.Errorf("reading report %s: %w", path, err)
	}
	var r ScanReport
	if err := json.Unmarshal(data, &r); err != nil {
		return ScanReport{}, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return r, nil
}
