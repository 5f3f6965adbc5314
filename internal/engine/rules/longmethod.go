package rules

import (
	"fmt"
	"strings"

	"smellwatch/internal/engine/metrics"
	"smellwatch/internal/engine/parser"
)

// LongMethodRule flags oversized or overcomplex functions. It applies to
// free functions and methods alike and runs independently of GodClass: a
// method inside an oversized class is still measured on its own.
type LongMethodRule struct {
	MaxLOC int
	MaxCC  int
}

func (r *LongMethodRule) ID() string   { return RuleLongMethod }
func (r *LongMethodRule) Name() string { return "LongMethod" }

func (r *LongMethodRule) Check(unit *parser.SourceUnit) []Finding {
	var findings []Finding
	tree := unit.Tree

	tree.Walk(tree.Root(), func(id parser.NodeID, n *parser.Node) bool {
		if n.Kind != parser.KindFunctionDef {
			return true
		}

		loc := metrics.LOC(tree, id)
		cc := metrics.Cyclomatic(tree, id, false)

		var problems []string
		if loc > r.MaxLOC {
			problems = append(problems, fmt.Sprintf("%d lines (max: %d)", loc, r.MaxLOC))
		}
		if cc > r.MaxCC {
			problems = append(problems, fmt.Sprintf("complexity %d (max: %d)", cc, r.MaxCC))
		}

		if len(problems) > 0 {
			findings = append(findings, Finding{
				RuleID:   r.ID(),
				Rule:     r.Name(),
				Severity: SeverityMedium,
				File:     unit.Path,
				Line:     n.Span.StartLine,
				EndLine:  n.Span.EndLine,
				Message:  fmt.Sprintf("Function '%s' is a Long Method: %s", unit.FunctionName(id), strings.Join(problems, ", ")),
				Metrics: map[string]float64{
					"loc": float64(loc),
					"cc":  float64(cc),
				},
			})
		}
		return true
	})

	return findings
}
