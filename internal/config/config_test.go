package config

import (
	"os"
	"path/filepath"
	"testing"

	coreerrors "smellwatch/internal/core/errors"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if !cfg.Rules.GodClass || !cfg.Rules.DeadCode || !cfg.Rules.DupCheck {
		t.Error("Expected all rules enabled by default")
	}
	if cfg.Thresholds.MaxMethods != 10 {
		t.Errorf("Expected max_methods 10, got %d", cfg.Thresholds.MaxMethods)
	}
	if cfg.Thresholds.DupSimilarity != 0.85 {
		t.Errorf("Expected dup_similarity 0.85, got %v", cfg.Thresholds.DupSimilarity)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}

func TestLoadOverlay(t *testing.T) {
	content := `
[rules]
dup_check = false

[thresholds]
max_methods = 5
dup_similarity = 0.9

[exclude]
dirs = ["build"]

[dead_code]
allow_names = ["main", "handler"]

[logging]
functions = ["audit"]
`
	path := filepath.Join(t.TempDir(), "smellwatch.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Rules.DupCheck {
		t.Error("Expected dup_check disabled")
	}
	if !cfg.Rules.GodClass {
		t.Error("Expected god_class to keep its default")
	}
	if cfg.Thresholds.MaxMethods != 5 {
		t.Errorf("Expected max_methods 5, got %d", cfg.Thresholds.MaxMethods)
	}
	if cfg.Thresholds.MaxLOC != 100 {
		t.Errorf("Expected max_loc default 100, got %d", cfg.Thresholds.MaxLOC)
	}
	if len(cfg.Exclude.Dirs) != 1 || cfg.Exclude.Dirs[0] != "build" {
		t.Errorf("Expected exclude dirs [build], got %v", cfg.Exclude.Dirs)
	}
	if len(cfg.DeadCode.AllowNames) != 2 {
		t.Errorf("Expected 2 allow names, got %v", cfg.DeadCode.AllowNames)
	}
	if len(cfg.Logging.Functions) != 1 || cfg.Logging.Functions[0] != "audit" {
		t.Errorf("Expected logging functions [audit], got %v", cfg.Logging.Functions)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Expected defaults for missing file, got %v", err)
	}
	if cfg.Thresholds.MaxMethods != 10 {
		t.Errorf("Expected defaults, got %+v", cfg.Thresholds)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Thresholds.MaxMethods = 0 },
		func(c *Config) { c.Thresholds.MaxLogCalls = -1 },
		func(c *Config) { c.Thresholds.DupSimilarity = 1.5 },
		func(c *Config) { c.Thresholds.DupSimilarity = -0.1 },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("case %d: expected validation error", i)
			continue
		}
		if !coreerrors.IsCode(err, coreerrors.CodeValidationError) {
			t.Errorf("case %d: expected validation code, got %v", i, err)
		}
	}
}
