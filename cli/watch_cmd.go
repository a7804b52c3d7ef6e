package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	guardian "github.com/codeguardian-hq/codeguardian/core"
	"github.com/codeguardian-hq/codeguardian/core/report"
)

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	var (
		debounce time.Duration
		jsonFlag bool
	)
	fs.DurationVar(&debounce, "debounce", 500*time.Millisecond, "debounce interval for file changes")
	fs.BoolVar(&jsonFlag, "json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	target := "."
	if fs.NArg() > 0 {
		target = fs.Arg(0)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating watcher: %v\n", err)
		return 2
	}
	defer watcher.Close()

	// Recursively add directories.
	if err := addDirsRecursive(watcher, target); err != nil {
		fmt.Fprintf(os.Stderr, "error: watching directories: %v\n", err)
		return 2
	}

	// Signal handling.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Initial scan.
	fmt.Printf("watch: scanning %s (debounce: %s)\n", target, debounce)
	printScanResults(target, jsonFlag)

	// Debounced event loop.
	var mu sync.Mutex
	var timer *time.Timer

	resetTimer := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			fmt.Print("\033[2J\033[H") // clear terminal
			fmt.Printf("watch: re-scanning %s\n", target)
			printScanResults(target, jsonFlag)
		})
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				// Add new directories if created.
				if event.Has(fsnotify.Create) {
					info, err := os.Stat(event.Name)
					if err == nil && info.IsDir() {
						_ = addDirsRecursive(watcher, event.Name)
					}
				}
				resetTimer()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		case <-sigCh:
			fmt.Println("\nwatch: stopped")
			return 0
		}
	}
}

func printScanResults(target string, jsonOutput bool) {
	result, err := guardian.RunScan(context.Background(), target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: scan failed: %v\n", err)
		return
	}

	if jsonOutput {
		data, err := report.Marshal(result.Report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: encoding report: %v\n", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	vulns := result.Report.Vulnerabilities
	counts := make(map[string]int)
	for _, v := range vulns {
		counts[string(v.RiskLevel)]++
	}

	fmt.Printf("[results] %d finding(s) in %d files", len(vulns), len(result.Files))
	if len(counts) > 0 {
		levels := []string{"critical", "high", "medium", "low", "info"}
		parts := make([]string, 0, len(counts))
		for _, level := range levels {
			if count := counts[level]; count > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", count, level))
			}
		}
		fmt.Printf(": %s", strings.Join(parts, ", "))
	}
	fmt.Println()
	fmt.Printf("[risk] score %.1f\n", result.Report.RiskScore)
}

func addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if base == ".git" || base == "node_modules" || base == "__pycache__" || base == "venv" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
