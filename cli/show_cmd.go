package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/codeguardian-hq/codeguardian/cli/tui"
	guardian "github.com/codeguardian-hq/codeguardian/core"
	"github.com/codeguardian-hq/codeguardian/core/findings"
	"github.com/codeguardian-hq/codeguardian/core/report"
)

// runShow implements the "codeguardian show" command.
func runShow(args []string) int {
	// Extract positional args (paths) before parsing flags so that
	// "codeguardian show . --risk critical" works like "codeguardian show --risk critical .".
	var flagArgs []string
	var positionalArgs []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			flagArgs = append(flagArgs, args[i])
			// If this flag takes a value (not a boolean), consume the next arg too.
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") &&
				!isBoolFlag(args[i]) {
				i++
				flagArgs = append(flagArgs, args[i])
			}
		} else {
			positionalArgs = append(positionalArgs, args[i])
		}
	}

	fs := flag.NewFlagSet("show", flag.ContinueOnError)

	var (
		risk        string
		typePattern string
		filePattern string
		input       string
		jsonOutput  bool
	)

	fs.StringVar(&risk, "risk", "", "filter by risk level: critical,high,medium,low,info (comma-separated)")
	fs.StringVar(&typePattern, "type", "", "filter by vulnerability type substring (e.g., sql_injection)")
	fs.StringVar(&filePattern, "file", "", "filter by file path substring (e.g., src/)")
	fs.StringVar(&input, "input", "", "path to report.json (default: run scan)")
	fs.BoolVar(&jsonOutput, "json", false, "output JSON instead of TUI")

	if err := fs.Parse(flagArgs); err != nil {
		return 2
	}
	// Merge any remaining positional args from flag parse with pre-extracted ones.
	positionalArgs = append(positionalArgs, fs.Args()...)

	// Load or generate the report.
	var rep report.ScanReport
	var source string

	if input != "" {
		var err error
		rep, err = report.ReadFromFile(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 2
		}
		source = input
	} else {
		target := "."
		if len(positionalArgs) > 0 {
			target = positionalArgs[0]
		}

		fmt.Printf("codeguardian scanning %s\n", target)
		result, err := guardian.RunScan(context.Background(), target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: scan failed: %v\n", err)
			return 2
		}
		rep = result.Report
		source = target
	}

	filtered := filterFindings(rep.Vulnerabilities, risk, typePattern, filePattern)

	if len(filtered) == 0 {
		fmt.Println("[show] no findings to display")
		return 0
	}

	// Non-interactive: JSON output.
	if jsonOutput || !isTerminal() {
		return showJSON(filtered)
	}

	// Interactive: TUI.
	m := tui.New(filtered, source, rep.RiskScore)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: TUI failed: %v\n", err)
		return 2
	}
	return 0
}

func filterFindings(ff []findings.Finding, risk, typePattern, filePattern string) []findings.Finding {
	var levels map[findings.RiskLevel]bool
	if risk != "" {
		levels = make(map[findings.RiskLevel]bool)
		for _, s := range strings.Split(risk, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				levels[findings.ParseRiskLevel(s)] = true
			}
		}
	}

	var out []findings.Finding
	for _, f := range ff {
		if levels != nil && !levels[f.RiskLevel] {
			continue
		}
		if typePattern != "" && !strings.Contains(f.Type, typePattern) {
			continue
		}
		if filePattern != "" && !strings.Contains(f.FilePath, filePattern) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func showJSON(ff []findings.Finding) int {
	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: marshalling JSON: %v\n", err)
		return 2
	}
	fmt.Println(string(data))
	return 0
}

// isBoolFlag returns true if the given flag name is a boolean flag
// (i.e., it does not consume a following value argument).
func isBoolFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	switch name {
	case "json":
		return true
	default:
		return false
	}
}

// isTerminal returns true if stdout is connected to a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
