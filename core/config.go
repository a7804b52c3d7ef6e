package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileName is looked up in the scan target's root directory.
const configFileName = ".codeguardian.yaml"

// ScanConfig holds project-level configuration loaded from
// .codeguardian.yaml in the scanned tree.
type ScanConfig struct {
	Scan   ScanSettings   `yaml:"scan"`
	Output OutputSettings `yaml:"output"`
}

// ScanSettings controls which files are scanned and how rules behave.
type ScanSettings struct {
	// Exclude adds directory names to the default exclusion set.
	Exclude []string `yaml:"exclude"`
	// RulesDir points at a directory of YAML rule files merged on top of
	// the built-in rules.
	RulesDir string      `yaml:"rules_dir"`
	Rules    RulesConfig `yaml:"rules"`
	// Concurrency bounds parallel per-file detection. Zero means one
	// worker per CPU.
	Concurrency int `yaml:"concurrency"`
}

// RulesConfig allows disabling rules or overriding their severity.
type RulesConfig struct {
	Disable          []string          `yaml:"disable"`
	SeverityOverride map[string]string `yaml:"severity_override"`
}

// OutputSettings controls where scan reports are written by the CLI.
type OutputSettings struct {
	Directory string `yaml:"directory"`
}

// LoadScanConfig reads .codeguardian.yaml from root and returns the parsed
// config. A missing file yields a zero-value config with no error; a
// malformed file is an error.
func LoadScanConfig(root string) (*ScanConfig, error) {
	path := filepath.Join(root, configFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ScanConfig{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg ScanConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}
