// Package stats aggregates findings into per-scan statistics and a single
// 0-100 risk score, and builds cross-scan trend series for the dashboard.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/codeguardian-hq/codeguardian/core/findings"
)

// Stats summarises the findings of a single scan. The field names match the
// report wire schema.
type Stats struct {
	TotalVulnerabilities  int            `json:"total_vulnerabilities"`
	RiskDistribution      map[string]int `json:"risk_distribution"`
	TypeDistribution      map[string]int `json:"type_distribution"`
	TopVulnerabilityTypes map[string]int `json:"top_vulnerability_types"`
	TopVulnerableFiles    map[string]int `json:"top_vulnerable_files"`
	AverageConfidence     float64        `json:"average_confidence"`
	GeneratedAt           string         `json:"generated_at"`
}

// topN bounds the top-types and top-files maps.
const topN = 5

// Generate computes per-scan statistics for the given findings. An empty
// input yields an explicit zero value with non-nil maps, not an absent
// record. Risk levels and types are lowercased before counting; empty
// values count under "unknown".
func Generate(items []findings.Finding) Stats {
	s := Stats{
		RiskDistribution:      make(map[string]int),
		TypeDistribution:      make(map[string]int),
		TopVulnerabilityTypes: make(map[string]int),
		TopVulnerableFiles:    make(map[string]int),
		GeneratedAt:           time.Now().UTC().Format(time.RFC3339),
	}
	if len(items) == 0 {
		return s
	}

	s.TotalVulnerabilities = len(items)

	fileCounts := make(map[string]int)
	var confidenceSum float64
	for _, f := range items {
		s.RiskDistribution[normalizeKey(string(f.RiskLevel))]++
		s.TypeDistribution[normalizeKey(f.Type)]++

		file := f.FilePath
		if file == "" {
			file = "unknown"
		}
		fileCounts[file]++

		confidenceSum += f.Confidence.Score()
	}
	s.AverageConfidence = confidenceSum / float64(len(items))
	s.TopVulnerabilityTypes = topEntries(s.TypeDistribution, topN)
	s.TopVulnerableFiles = topEntries(fileCounts, topN)
	return s
}

// normalizeKey lowercases a distribution key, mapping empty values to
// "unknown".
func normalizeKey(k string) string {
	if k == "" {
		return "unknown"
	}
	return strings.ToLower(k)
}

// topEntries returns the n highest-count entries of counts. Ties break by
// key so the result is deterministic.
func topEntries(counts map[string]int, n int) map[string]int {
	type entry struct {
		key   string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for k, v := range counts {
		entries = append(entries, entry{key: k, count: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.key] = e.count
	}
	return out
}

// riskWeights maps risk levels to their contribution to the weighted sum.
// Unrecognized levels weigh 1, same as unknown.
var riskWeights = map[findings.RiskLevel]float64{
	findings.RiskCritical: 10,
	findings.RiskHigh:     5,
	findings.RiskMedium:   3,
	findings.RiskLow:      1,
	findings.RiskInfo:     0.5,
	findings.RiskUnknown:  1,
}

// maxReasonableWeight is the weighted sum at which the score reaches 100.
// It corresponds to 5 critical or 10 high findings.
const maxReasonableWeight = 50

// RiskScore computes the 0-100 risk score for a set of findings. The score
// is a log-scaled function of the severity-weighted finding count:
//
//	score = min(100, 100 * log2(1 + W/50))
//
// rounded to one decimal. Log scaling keeps large finding counts from
// saturating the scale immediately while staying monotonic in W. Zero
// findings score 0.
func RiskScore(items []findings.Finding) float64 {
	if len(items) == 0 {
		return 0
	}

	var totalWeight float64
	for _, f := range items {
		level := findings.ParseRiskLevel(string(f.RiskLevel))
		w, ok := riskWeights[level]
		if !ok {
			w = 1
		}
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}

	score := math.Min(100, 100*math.Log(1+totalWeight/maxReasonableWeight)/math.Log(2))
	return math.Round(score*10) / 10
}

// ScanSummary is the per-scan slice of a report that trend aggregation
// needs: when it ran, what it found, and how it scored.
type ScanSummary struct {
	Timestamp       string
	Vulnerabilities []findings.Finding
	RiskScore       float64
}

// TrendSeries holds aligned per-scan series for the dashboard trend chart.
// All slices have equal length and are never nil.
type TrendSeries struct {
	Dates      []string  `json:"dates"`
	Critical   []int     `json:"critical"`
	High       []int     `json:"high"`
	Medium     []int     `json:"medium"`
	Low        []int     `json:"low"`
	RiskScores []float64 `json:"risk_scores"`
}

// Trend builds a TrendSeries over the given scan IDs in order. IDs with no
// entry in summaries are skipped without error.
func Trend(scanIDs []string, summaries map[string]ScanSummary) TrendSeries {
	series := TrendSeries{
		Dates:      []string{},
		Critical:   []int{},
		High:       []int{},
		Medium:     []int{},
		Low:        []int{},
		RiskScores: []float64{},
	}

	for _, id := range scanIDs {
		summary, ok := summaries[id]
		if !ok {
			continue
		}

		counts := make(map[findings.RiskLevel]int)
		for _, f := range summary.Vulnerabilities {
			counts[findings.ParseRiskLevel(string(f.RiskLevel))]++
		}

		series.Dates = append(series.Dates, summary.Timestamp)
		series.Critical = append(series.Critical, counts[findings.RiskCritical])
		series.High = append(series.High, counts[findings.RiskHigh])
		series.Medium = append(series.Medium, counts[findings.RiskMedium])
		series.Low = append(series.Low, counts[findings.RiskLow])
		series.RiskScores = append(series.RiskScores, summary.RiskScore)
	}
	return series
}
