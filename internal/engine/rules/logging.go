package rules

import (
	"fmt"

	"smellwatch/internal/engine/metrics"
	"smellwatch/internal/engine/parser"
)

// LogExcessiveRule flags functions with too many logging calls, and
// logging calls placed inside loops where every iteration emits a line.
type LogExcessiveRule struct {
	MaxCalls        int
	LoggerFunctions []string
}

func (r *LogExcessiveRule) ID() string   { return RuleLogExcessive }
func (r *LogExcessiveRule) Name() string { return "LogExcessive" }

func (r *LogExcessiveRule) Check(unit *parser.SourceUnit) []Finding {
	var findings []Finding
	tree := unit.Tree

	tree.Walk(tree.Root(), func(id parser.NodeID, n *parser.Node) bool {
		if n.Kind != parser.KindFunctionDef {
			return true
		}
		count := metrics.LoggingCalls(tree, id, r.LoggerFunctions)
		if count > r.MaxCalls {
			findings = append(findings, Finding{
				RuleID:   r.ID(),
				Rule:     r.Name(),
				Severity: SeverityMedium,
				File:     unit.Path,
				Line:     n.Span.StartLine,
				EndLine:  n.Span.EndLine,
				Message: fmt.Sprintf("Function '%s' has %d logging statements (max: %d)",
					unit.FunctionName(id), count, r.MaxCalls),
				Metrics: map[string]float64{"logCalls": float64(count)},
			})
		}
		return true
	})

	findings = append(findings, r.checkLoops(unit)...)
	return findings
}

// checkLoops reports each logging call lexically inside a for/while body.
// A call nested in several loops is reported once.
func (r *LogExcessiveRule) checkLoops(unit *parser.SourceUnit) []Finding {
	tree := unit.Tree
	reported := make(map[parser.NodeID]bool)
	var findings []Finding

	tree.Walk(tree.Root(), func(id parser.NodeID, n *parser.Node) bool {
		if n.Kind != parser.KindFor && n.Kind != parser.KindWhile {
			return true
		}
		tree.Walk(id, func(cid parser.NodeID, c *parser.Node) bool {
			if c.Kind != parser.KindCall || reported[cid] {
				return true
			}
			if metrics.IsLoggingCall(tree, c, r.LoggerFunctions) {
				reported[cid] = true
				findings = append(findings, Finding{
					RuleID:   r.ID(),
					Rule:     r.Name(),
					Severity: SeverityMedium,
					File:     unit.Path,
					Line:     c.Span.StartLine,
					EndLine:  c.Span.EndLine,
					Message:  "Logging statement inside loop may lead to excessive logging",
				})
			}
			return true
		})
		return true
	})

	return findings
}
