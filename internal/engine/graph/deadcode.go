package graph

import (
	"fmt"
	"strings"

	"smellwatch/internal/engine/parser"
	"smellwatch/internal/engine/rules"
)

// DeadCodeRule reports definitions never referenced anywhere in the
// corpus, plus statements that can never execute. It is intentionally a
// whole-corpus computation: running it over a single file can flag names
// used only elsewhere, a documented limitation of single-file scope.
type DeadCodeRule struct {
	AllowNames []string
}

func (r *DeadCodeRule) ID() string   { return rules.RuleDeadCode }
func (r *DeadCodeRule) Name() string { return "DeadCode" }

// Check evaluates the frozen graph. Eligible symbol kinds are functions,
// classes, and variables; parameters and imports are excluded. Names on
// the allow-list or starting with an underscore (dunder convention) are
// never reported.
func (r *DeadCodeRule) Check(g *Graph) []rules.Finding {
	allowed := make(map[string]bool, len(r.AllowNames))
	for _, name := range r.AllowNames {
		allowed[name] = true
	}

	var findings []rules.Finding
	for _, table := range g.Tables() {
		for _, scope := range table.Scopes {
			for _, name := range scope.Order {
				sym := scope.Symbols[name]
				if !eligible(sym.Kind) || len(sym.Refs) > 0 {
					continue
				}
				if allowed[name] || strings.HasPrefix(name, "_") {
					continue
				}
				node := table.Unit.Tree.Node(sym.Def)
				findings = append(findings, rules.Finding{
					RuleID:   r.ID(),
					Rule:     r.Name(),
					Severity: rules.SeverityMedium,
					File:     sym.Unit,
					Line:     sym.Line,
					EndLine:  node.Span.EndLine,
					Message:  fmt.Sprintf("Unused %s '%s' is never referenced", sym.Kind, name),
				})
			}
		}
		findings = append(findings, r.checkUnreachable(table.Unit)...)
	}

	rules.Sort(findings)
	return findings
}

func eligible(kind parser.SymbolKind) bool {
	switch kind {
	case parser.SymVariable, parser.SymFunction, parser.SymClass:
		return true
	}
	return false
}

// checkUnreachable flags the first statement following a control-flow
// terminator within the same block.
func (r *DeadCodeRule) checkUnreachable(unit *parser.SourceUnit) []rules.Finding {
	tree := unit.Tree
	var findings []rules.Finding

	tree.Walk(tree.Root(), func(id parser.NodeID, n *parser.Node) bool {
		if n.Kind != parser.KindBlock {
			return true
		}
		terminatorLine := 0
		for _, stmtID := range n.Children {
			stmt := tree.Node(stmtID)
			if isTerminator(tree, stmtID) {
				terminatorLine = stmt.Span.StartLine
				continue
			}
			if terminatorLine > 0 {
				findings = append(findings, rules.Finding{
					RuleID:   r.ID(),
					Rule:     r.Name(),
					Severity: rules.SeverityMedium,
					File:     unit.Path,
					Line:     stmt.Span.StartLine,
					EndLine:  stmt.Span.EndLine,
					Message:  fmt.Sprintf("Unreachable code after statement at line %d", terminatorLine),
				})
				// Only the first unreachable statement per block is reported.
				break
			}
		}
		return true
	})

	return findings
}

func isTerminator(tree *parser.Tree, id parser.NodeID) bool {
	node := tree.Node(id)
	switch node.Kind {
	case parser.KindReturn, parser.KindRaise, parser.KindBreak, parser.KindContinue:
		return true
	}
	// Bare exit()/quit()/sys.exit() expression statements.
	if node.RawKind == "expression_statement" && len(node.Children) == 1 {
		call := tree.Node(node.Children[0])
		if call.Kind != parser.KindCall || len(call.Children) == 0 {
			return false
		}
		callee := tree.Node(call.Children[0])
		switch callee.Kind {
		case parser.KindName:
			return callee.Name == "exit" || callee.Name == "quit"
		case parser.KindAttribute:
			if len(callee.Children) > 0 {
				last := tree.Node(callee.Children[len(callee.Children)-1])
				return last.Is(parser.FlagAttr) && last.Name == "exit"
			}
		}
	}
	return false
}
