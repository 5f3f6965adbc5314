// Package metrics computes the size and control-flow measures shared by
// the threshold rules. All counts are syntax-driven approximations over
// the structural tree; none of them require data-flow analysis.
package metrics

import "smellwatch/internal/engine/parser"

// LOC is the raw span line count of a node, end-inclusive. Blank and
// comment-only lines count; the same convention applies to every
// size-based rule.
func LOC(t *parser.Tree, id parser.NodeID) int {
	return t.Node(id).Span.Lines()
}

// Cyclomatic computes cyclomatic complexity for the subtree rooted at id:
// 1 plus one per branch (if/elif/ternary), loop, exception handler,
// boolean short-circuit operator, and match arm beyond the first. Nested
// class definitions are always excluded; crossMethods controls whether
// the walk descends into nested function definitions, which a class-level
// measurement wants and a per-function measurement does not.
func Cyclomatic(t *parser.Tree, id parser.NodeID, crossMethods bool) int {
	cc := 1
	cases, matches := 0, 0
	t.Walk(id, func(nid parser.NodeID, n *parser.Node) bool {
		if nid != id {
			if n.Kind == parser.KindClassDef {
				return false
			}
			if n.Kind == parser.KindFunctionDef && !crossMethods {
				return false
			}
		}
		switch n.Kind {
		case parser.KindIf, parser.KindElif, parser.KindCondExpr,
			parser.KindFor, parser.KindWhile,
			parser.KindExcept, parser.KindBoolOp:
			cc++
		case parser.KindMatch:
			matches++
		case parser.KindCase:
			cases++
		}
		return true
	})
	if cases > matches {
		cc += cases - matches
	}
	return cc
}

// LoggingCalls counts calls in a function body whose callee matches the
// recognized logging pattern: an attribute invocation named after a
// standard logger method, or a bare call to one of the configured logger
// function names. Nested definitions are excluded; they are counted on
// their own.
func LoggingCalls(t *parser.Tree, fn parser.NodeID, extraNames []string) int {
	extra := make(map[string]bool, len(extraNames))
	for _, name := range extraNames {
		extra[name] = true
	}

	count := 0
	t.Walk(fn, func(nid parser.NodeID, n *parser.Node) bool {
		if nid != fn && (n.Kind == parser.KindFunctionDef || n.Kind == parser.KindClassDef) {
			return false
		}
		if n.Kind == parser.KindCall && isLoggingCallee(t, n, extra) {
			count++
		}
		return true
	})
	return count
}

var loggerMethods = map[string]bool{
	"debug":     true,
	"info":      true,
	"warning":   true,
	"error":     true,
	"critical":  true,
	"exception": true,
	"log":       true,
}

// IsLoggingCall reports whether a call node matches the logging pattern.
func IsLoggingCall(t *parser.Tree, call *parser.Node, extraNames []string) bool {
	extra := make(map[string]bool, len(extraNames))
	for _, name := range extraNames {
		extra[name] = true
	}
	return isLoggingCallee(t, call, extra)
}

func isLoggingCallee(t *parser.Tree, call *parser.Node, extra map[string]bool) bool {
	if len(call.Children) == 0 {
		return false
	}
	callee := t.Node(call.Children[0])
	switch callee.Kind {
	case parser.KindAttribute:
		if len(callee.Children) == 0 {
			return false
		}
		last := t.Node(callee.Children[len(callee.Children)-1])
		return last.Is(parser.FlagAttr) && loggerMethods[last.Name]
	case parser.KindName:
		return extra[callee.Name]
	}
	return false
}

// MethodCount counts direct method definitions of a class: FunctionDef
// children of the class body, nested classes excluded.
func MethodCount(t *parser.Tree, class parser.NodeID) int {
	count := 0
	for _, child := range t.Node(class).Children {
		block := t.Node(child)
		if block.Kind != parser.KindBlock {
			continue
		}
		for _, stmt := range block.Children {
			if t.Node(stmt).Kind == parser.KindFunctionDef {
				count++
			}
		}
	}
	return count
}
