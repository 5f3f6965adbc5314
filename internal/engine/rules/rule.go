// Package rules holds the smell rule set. The set is closed: each rule is
// one entry in the registry the analyzer builds from configuration, not an
// open subclassing surface.
package rules

import (
	"sort"

	"smellwatch/internal/engine/parser"
)

type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Rule identifiers, stable across runs and formats.
const (
	RuleLogExcessive   = "GCS001"
	RuleGodClass       = "GCS002"
	RuleDuplicatedCode = "GCS003"
	RuleLongMethod     = "GCS004"
	RuleDeadCode       = "GCS005"
	RuleMutableDefault = "GCS006"
)

type Location struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	EndLine int    `json:"endLine"`
}

// Finding is one reported smell instance. Immutable once created; the
// aggregator only reorders findings, never rewrites them.
type Finding struct {
	RuleID   string             `json:"ruleId"`
	Rule     string             `json:"rule"`
	Severity Severity           `json:"severity"`
	File     string             `json:"file"`
	Line     int                `json:"line"`
	EndLine  int                `json:"endLine"`
	Message  string             `json:"message"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
	Related  []Location         `json:"related,omitempty"`
}

// UnitRule evaluates one source unit in isolation. Corpus-wide rules
// (dead code, duplication) live in their own packages and run after the
// per-unit stage barrier.
type UnitRule interface {
	ID() string
	Name() string
	Check(unit *parser.SourceUnit) []Finding
}

// Sort orders findings by (file, start line, rule id) for deterministic
// reports.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.RuleID < b.RuleID
	})
}

// Summarize counts findings per rule name.
func Summarize(findings []Finding) map[string]int {
	summary := make(map[string]int)
	for _, f := range findings {
		summary[f.Rule]++
	}
	return summary
}
