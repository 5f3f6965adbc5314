package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	coreerrors "smellwatch/internal/core/errors"
)

// Config is the resolved rule configuration. Constructed once per run and
// read-only afterwards; the engine never mutates it.
type Config struct {
	Rules      Rules      `toml:"rules"`
	Thresholds Thresholds `toml:"thresholds"`
	Exclude    Exclude    `toml:"exclude"`
	DeadCode   DeadCode   `toml:"dead_code"`
	Logging    Logging    `toml:"logging"`
	History    History    `toml:"history"`
}

// Rules toggles individual smell rules on or off.
type Rules struct {
	LogCheck       bool `toml:"log_check"`
	GodClass       bool `toml:"god_class"`
	DupCheck       bool `toml:"dup_check"`
	LongMethod     bool `toml:"long_method"`
	DeadCode       bool `toml:"dead_code"`
	MutableDefault bool `toml:"mutable_default"`
}

type Thresholds struct {
	MaxMethods       int     `toml:"max_methods"`
	MaxCC            int     `toml:"max_cc"`
	MaxLOC           int     `toml:"max_loc"`
	DupSimilarity    float64 `toml:"dup_similarity"`
	DupMinStatements int     `toml:"dup_min_statements"`
	MethodMaxLOC     int     `toml:"method_max_loc"`
	MaxCyclomatic    int     `toml:"max_cyclomatic"`
	MaxLogCalls      int     `toml:"max_log_calls"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type DeadCode struct {
	// AllowNames are definition names never reported as dead. Names with a
	// leading underscore (dunders included) are always allowed.
	AllowNames []string `toml:"allow_names"`
}

type Logging struct {
	// Functions lists bare callable names treated as logging invocations in
	// addition to the standard attribute pattern (log.debug, log.info, ...).
	Functions []string `toml:"functions"`
}

type History struct {
	Path string `toml:"path"`
}

// Default returns the configuration with every rule enabled and the
// documented default thresholds.
func Default() *Config {
	return &Config{
		Rules: Rules{
			LogCheck:       true,
			GodClass:       true,
			DupCheck:       true,
			LongMethod:     true,
			DeadCode:       true,
			MutableDefault: true,
		},
		Thresholds: Thresholds{
			MaxMethods:       10,
			MaxCC:            35,
			MaxLOC:           100,
			DupSimilarity:    0.85,
			DupMinStatements: 3,
			MethodMaxLOC:     25,
			MaxCyclomatic:    10,
			MaxLogCalls:      3,
		},
		Exclude: Exclude{
			Dirs: []string{"**.git", "**__pycache__", "**.venv", "**venv", "**node_modules"},
		},
		DeadCode: DeadCode{
			AllowNames: []string{"main"},
		},
	}
}

// Load reads a TOML config file on top of the defaults. A missing file is
// not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, "decode config")
	}
	return cfg, nil
}

// Validate enforces the threshold invariants before any analysis starts.
func (c *Config) Validate() error {
	t := c.Thresholds
	checks := []struct {
		option string
		value  int
	}{
		{"max_methods", t.MaxMethods},
		{"max_cc", t.MaxCC},
		{"max_loc", t.MaxLOC},
		{"dup_min_statements", t.DupMinStatements},
		{"method_max_loc", t.MethodMaxLOC},
		{"max_cyclomatic", t.MaxCyclomatic},
		{"max_log_calls", t.MaxLogCalls},
	}
	for _, check := range checks {
		if check.value < 1 {
			return coreerrors.Newf(coreerrors.CodeValidationError,
				"%s must be >= 1, got %d", check.option, check.value)
		}
	}
	if t.DupSimilarity < 0 || t.DupSimilarity > 1 {
		return coreerrors.Newf(coreerrors.CodeValidationError,
			"dup_similarity must be within [0,1], got %v", t.DupSimilarity)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("rules=%+v thresholds=%+v", c.Rules, c.Thresholds)
}
