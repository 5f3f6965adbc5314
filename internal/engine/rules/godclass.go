package rules

import (
	"fmt"
	"strings"

	"smellwatch/internal/engine/metrics"
	"smellwatch/internal/engine/parser"
)

// GodClassRule flags classes that accumulate too many responsibilities:
// too many methods, too much code, or too much control flow.
type GodClassRule struct {
	MaxMethods int
	MaxCC      int
	MaxLOC     int
}

func (r *GodClassRule) ID() string   { return RuleGodClass }
func (r *GodClassRule) Name() string { return "GodClass" }

func (r *GodClassRule) Check(unit *parser.SourceUnit) []Finding {
	var findings []Finding
	tree := unit.Tree

	tree.Walk(tree.Root(), func(id parser.NodeID, n *parser.Node) bool {
		if n.Kind != parser.KindClassDef {
			return true
		}

		methodCount := metrics.MethodCount(tree, id)
		loc := metrics.LOC(tree, id)
		cc := metrics.Cyclomatic(tree, id, true)

		var problems []string
		if methodCount > r.MaxMethods {
			problems = append(problems, fmt.Sprintf("%d methods (max: %d)", methodCount, r.MaxMethods))
		}
		if cc > r.MaxCC {
			problems = append(problems, fmt.Sprintf("complexity %d (max: %d)", cc, r.MaxCC))
		}
		if loc > r.MaxLOC {
			problems = append(problems, fmt.Sprintf("%d lines (max: %d)", loc, r.MaxLOC))
		}

		if len(problems) > 0 {
			findings = append(findings, Finding{
				RuleID:   r.ID(),
				Rule:     r.Name(),
				Severity: SeverityHigh,
				File:     unit.Path,
				Line:     n.Span.StartLine,
				EndLine:  n.Span.EndLine,
				Message:  fmt.Sprintf("Class '%s' is a God Class: %s", n.Name, strings.Join(problems, ", ")),
				Metrics: map[string]float64{
					"methods": float64(methodCount),
					"cc":      float64(cc),
					"loc":     float64(loc),
				},
			})
		}
		// Nested classes are measured independently.
		return true
	})

	return findings
}
