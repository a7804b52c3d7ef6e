// Package core provides the shared scan pipeline for CodeGuardian: file
// discovery and metadata extraction, rule-based vulnerability detection,
// classification and fix generation, and statistical aggregation into a
// ScanReport.
package core

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codeguardian-hq/codeguardian/core/classify"
	"github.com/codeguardian-hq/codeguardian/core/detect"
	"github.com/codeguardian-hq/codeguardian/core/discovery"
	"github.com/codeguardian-hq/codeguardian/core/findings"
	"github.com/codeguardian-hq/codeguardian/core/fix"
	"github.com/codeguardian-hq/codeguardian/core/report"
	"github.com/codeguardian-hq/codeguardian/core/rules"
)

// ScanResult holds the complete output of a scan pipeline run.
type ScanResult struct {
	Report report.ScanReport
	// Files carries per-file metadata for every supported file that was
	// scanned.
	Files []discovery.SourceFile
	Rules *rules.RuleSet
}

// ScanOptions holds optional parameters for RunScanWithOptions. The zero
// value applies the target's .codeguardian.yaml config and defaults.
type ScanOptions struct {
	// ScanID identifies the scan in the report. Empty means the caller
	// does not track scans; the report carries an empty ID.
	ScanID string

	// CustomRulesPath is a YAML file or directory of rule files merged
	// with the built-in rules. Takes precedence over the config's
	// rules_dir.
	CustomRulesPath string

	// ScanType selects a profile: "full" (default) runs every rule,
	// "quick" skips entropy analysis, "deep" additionally lowers the
	// entropy threshold.
	ScanType string

	// Concurrency bounds parallel per-file detection. Zero falls back to
	// the config value, then to the CPU count.
	Concurrency int
}

// RunScan executes the full scan pipeline against the given target
// directory with default options.
func RunScan(ctx context.Context, target string) (*ScanResult, error) {
	return RunScanWithOptions(ctx, target, ScanOptions{})
}

// RunScanWithOptions executes the scan pipeline: discover source files,
// extract per-file metadata, detect vulnerabilities in parallel across
// files, classify findings and attach fix suggestions, then aggregate into
// a report. The context cancels detection between files; a cancelled scan
// returns the context error.
func RunScanWithOptions(ctx context.Context, target string, opts ScanOptions) (*ScanResult, error) {
	cfg, err := LoadScanConfig(target)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Phase 1: discovery.
	walker := discovery.NewWalker(target)
	walker.Exclude(cfg.Scan.Exclude...)
	refs, err := walker.Walk()
	if err != nil {
		return nil, err
	}

	supported := make([]discovery.FileRef, 0, len(refs))
	for _, ref := range refs {
		if discovery.IsSupported(ref.Path) {
			supported = append(supported, ref)
		}
	}

	// Phase 2: per-file metadata. Extraction errors are recorded on the
	// file record and never abort the scan.
	files := make([]discovery.SourceFile, 0, len(supported))
	for _, ref := range supported {
		files = append(files, discovery.Extract(ref.Path, ref.AbsPath))
	}

	// Phase 3: detection.
	analyzer, err := buildAnalyzer(cfg, opts)
	if err != nil {
		return nil, err
	}

	fs, err := detectParallel(ctx, analyzer, supported, concurrency(cfg, opts))
	if err != nil {
		return nil, err
	}

	// Phase 4: classification and fix suggestions.
	enriched := findings.NewFindingSet()
	for _, f := range fs.Findings() {
		classify.Apply(&f)
		fix.Apply(&f)
		enriched.Add(f)
	}

	// Phase 5: aggregation.
	return &ScanResult{
		Report: report.Build(opts.ScanID, enriched),
		Files:  files,
		Rules:  analyzer.Rules(),
	}, nil
}

// buildAnalyzer assembles the detection rule set from built-ins, YAML rule
// files, config overrides, and the scan profile.
func buildAnalyzer(cfg *ScanConfig, opts ScanOptions) (*detect.Analyzer, error) {
	analyzer := detect.NewAnalyzer()

	rulesPath := opts.CustomRulesPath
	if rulesPath == "" {
		rulesPath = cfg.Scan.RulesDir
	}
	if rulesPath != "" {
		extra, err := loadRulesPath(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("loading custom rules: %w", err)
		}
		analyzer.Merge(extra)
	}

	analyzer.ApplyOverrides(detect.Overrides{
		DisabledRules: cfg.Scan.Rules.Disable,
		Severity:      cfg.Scan.Rules.SeverityOverride,
	})

	switch opts.ScanType {
	case "quick":
		var disabled []string
		for _, r := range analyzer.Rules().Rules() {
			if r.MatcherType == "entropy" {
				disabled = append(disabled, r.ID)
			}
		}
		analyzer.ApplyOverrides(detect.Overrides{DisabledRules: disabled})
	case "deep":
		analyzer.SetEntropyThreshold(deepEntropyThreshold)
	}
	return analyzer, nil
}

// deepEntropyThreshold is the lowered entropy bar used by the "deep" scan
// profile. More candidates qualify, at the cost of extra false positives.
const deepEntropyThreshold = 4.0

// loadRulesPath loads rules from a YAML file or a directory of YAML files.
func loadRulesPath(path string) (*rules.RuleSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return rules.LoadRulesFromDir(path)
	}
	return rules.LoadRulesFromFile(path)
}

// concurrency resolves the worker bound from options, config, and CPU
// count, in that order.
func concurrency(cfg *ScanConfig, opts ScanOptions) int {
	if opts.Concurrency > 0 {
		return opts.Concurrency
	}
	if cfg.Scan.Concurrency > 0 {
		return cfg.Scan.Concurrency
	}
	return runtime.NumCPU()
}

// detectParallel scans files concurrently. Each file's processing is
// independent and write-only to its own findings, so parallelism across
// files is safe; results are merged under a mutex.
func detectParallel(ctx context.Context, analyzer *detect.Analyzer, refs []discovery.FileRef, workers int) (*findings.FindingSet, error) {
	fs := findings.NewFindingSet()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, ref := range refs {
		ref := ref
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			content, err := os.ReadFile(ref.AbsPath)
			if err != nil {
				// Unreadable files are skipped, not fatal.
				return nil
			}
			// Engine errors signal a broken rule set and abort the scan.
			matches, err := analyzer.ScanContent(ref.Path, content)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, f := range matches {
				fs.Add(f)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs, nil
}
