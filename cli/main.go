// Package main is the entry point for the codeguardian CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	guardian "github.com/codeguardian-hq/codeguardian/core"
	"github.com/codeguardian-hq/codeguardian/core/report"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns the exit code.
// 0 = clean (no findings), 1 = findings detected, 2 = error.
func run(args []string) int {
	fs := flag.NewFlagSet("codeguardian", flag.ContinueOnError)

	var (
		outputDir   string
		rulesPath   string
		scanType    string
		quietFlag   bool
		versionFlag bool
	)

	fs.StringVar(&outputDir, "output", ".", "output directory for report files")
	fs.StringVar(&rulesPath, "rules", "", "YAML rule file or directory merged with built-in rules")
	fs.StringVar(&scanType, "type", "full", "scan profile: full, quick, deep")
	fs.BoolVar(&quietFlag, "quiet", false, "suppress all output except errors")
	fs.BoolVar(&quietFlag, "q", false, "suppress all output except errors (shorthand)")
	fs.BoolVar(&versionFlag, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codeguardian <command> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  scan <path>    Scan a directory for vulnerabilities\n")
		fmt.Fprintf(os.Stderr, "  show [path]    Browse findings in an interactive viewer\n")
		fmt.Fprintf(os.Stderr, "  watch [path]   Re-scan on file changes\n")
		fmt.Fprintf(os.Stderr, "  serve          Start the scan API server\n")
		fmt.Fprintf(os.Stderr, "  version        Print version and exit\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if versionFlag {
		printVersion()
		return 0
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		fs.Usage()
		return 2
	}

	command := remaining[0]
	switch command {
	case "scan":
		if len(remaining) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: codeguardian scan <path> [flags]")
			return 2
		}
		return runScanCmd(remaining[1], scanOptions{
			outputDir: outputDir,
			rulesPath: rulesPath,
			scanType:  scanType,
			quiet:     quietFlag,
		})
	case "show":
		return runShow(remaining[1:])
	case "watch":
		return runWatch(remaining[1:])
	case "serve":
		return runServe(remaining[1:])
	case "version":
		printVersion()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		fmt.Fprintln(os.Stderr, "Usage: codeguardian <command> [flags]")
		return 2
	}
}

func printVersion() {
	fmt.Printf("codeguardian %s (commit: %s, built: %s)\n", version, commit, date)
}

type scanOptions struct {
	outputDir string
	rulesPath string
	scanType  string
	quiet     bool
}

func runScanCmd(target string, opts scanOptions) int {
	if !opts.quiet {
		fmt.Printf("codeguardian %s scanning %s\n", version, target)
	}

	result, err := guardian.RunScanWithOptions(context.Background(), target, guardian.ScanOptions{
		CustomRulesPath: opts.rulesPath,
		ScanType:        opts.scanType,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: scan failed: %v\n", err)
		return 2
	}

	findingCount := len(result.Report.Vulnerabilities)
	if !opts.quiet {
		fmt.Printf("[results] %d findings across %d files, risk score %.1f\n",
			findingCount, len(result.Files), result.Report.RiskScore)
	}

	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: creating output directory: %v\n", err)
		return 2
	}
	path := filepath.Join(opts.outputDir, "report.json")
	if err := report.WriteToFile(result.Report, path); err != nil {
		fmt.Fprintf(os.Stderr, "error: writing %s: %v\n", path, err)
		return 2
	}
	if !opts.quiet {
		fmt.Printf("[report] wrote %s\n", path)
	}

	if findingCount > 0 {
		return 1
	}
	return 0
}
