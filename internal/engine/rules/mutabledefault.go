package rules

import (
	"fmt"

	"smellwatch/internal/engine/parser"
)

// MutableDefaultRule flags parameters whose default value is a mutable
// container. The hazard is inherent to the definition site (the default is
// evaluated once and shared across calls), so a pure syntactic match on
// the default expression is sufficient.
type MutableDefaultRule struct{}

func (r *MutableDefaultRule) ID() string   { return RuleMutableDefault }
func (r *MutableDefaultRule) Name() string { return "MutableDefaultArguments" }

var mutableLiterals = map[string]bool{
	"list":                     true,
	"dictionary":               true,
	"set":                      true,
	"list_comprehension":       true,
	"dictionary_comprehension": true,
	"set_comprehension":        true,
}

var mutableConstructors = map[string]bool{
	"list": true,
	"dict": true,
	"set":  true,
}

func (r *MutableDefaultRule) Check(unit *parser.SourceUnit) []Finding {
	var findings []Finding
	tree := unit.Tree

	tree.Walk(tree.Root(), func(id parser.NodeID, n *parser.Node) bool {
		if n.Kind != parser.KindFunctionDef {
			return true
		}
		position := 0
		for _, childID := range n.Children {
			param := tree.Node(childID)
			if param.Kind != parser.KindParameter {
				continue
			}
			position++
			if !hasDefault(param) || len(param.Children) == 0 {
				continue
			}
			// The default value expression is the last child by builder
			// convention.
			value := tree.Node(param.Children[len(param.Children)-1])
			if !r.isMutable(tree, value) {
				continue
			}
			findings = append(findings, Finding{
				RuleID:   r.ID(),
				Rule:     r.Name(),
				Severity: SeverityMedium,
				File:     unit.Path,
				Line:     param.Span.StartLine,
				EndLine:  param.Span.EndLine,
				Message: fmt.Sprintf("Function '%s' parameter '%s' (position %d) has a mutable default value",
					unit.FunctionName(id), param.Name, position),
				Metrics: map[string]float64{"position": float64(position)},
			})
		}
		return true
	})

	return findings
}

func hasDefault(param *parser.Node) bool {
	return param.RawKind == "default_parameter" || param.RawKind == "typed_default_parameter"
}

func (r *MutableDefaultRule) isMutable(tree *parser.Tree, value *parser.Node) bool {
	if mutableLiterals[value.RawKind] {
		return true
	}
	if value.Kind == parser.KindCall && len(value.Children) > 0 {
		callee := tree.Node(value.Children[0])
		return callee.Kind == parser.KindName && mutableConstructors[callee.Name]
	}
	return false
}
