package metrics

import (
	"testing"

	"smellwatch/internal/engine/parser"
)

func parseUnit(t *testing.T, code string) *parser.SourceUnit {
	t.Helper()
	p := parser.NewParser(parser.NewGrammarLoader())
	unit, err := p.ParseUnit("test.py", []byte(code))
	if err != nil {
		t.Fatalf("ParseUnit failed: %v", err)
	}
	return unit
}

func firstKind(tree *parser.Tree, kind parser.NodeKind) parser.NodeID {
	found := parser.NoNode
	tree.Walk(tree.Root(), func(id parser.NodeID, n *parser.Node) bool {
		if found != parser.NoNode {
			return false
		}
		if n.Kind == kind {
			found = id
			return false
		}
		return true
	})
	return found
}

func TestCyclomaticStraightLine(t *testing.T) {
	unit := parseUnit(t, `
def f():
    a = 1
    b = 2
    return a + b
`)
	fn := firstKind(unit.Tree, parser.KindFunctionDef)
	if got := Cyclomatic(unit.Tree, fn, false); got != 1 {
		t.Errorf("Expected complexity 1, got %d", got)
	}
}

func TestCyclomaticBranches(t *testing.T) {
	unit := parseUnit(t, `
def f(x):
    if x > 0:
        pass
    elif x < 0:
        pass
    else:
        pass
    for i in range(x):
        while i:
            i -= 1
    try:
        pass
    except ValueError:
        pass
    except KeyError:
        pass
    return x if x else 0
`)
	fn := firstKind(unit.Tree, parser.KindFunctionDef)
	// 1 + if + elif + for + while + 2 excepts + conditional expression = 8
	if got := Cyclomatic(unit.Tree, fn, false); got != 8 {
		t.Errorf("Expected complexity 8, got %d", got)
	}
}

func TestCyclomaticBoolOps(t *testing.T) {
	unit := parseUnit(t, `
def f(a, b, c):
    return a and b or c
`)
	fn := firstKind(unit.Tree, parser.KindFunctionDef)
	// 1 + and + or
	if got := Cyclomatic(unit.Tree, fn, false); got != 3 {
		t.Errorf("Expected complexity 3, got %d", got)
	}
}

func TestCyclomaticMatchArms(t *testing.T) {
	unit := parseUnit(t, `
def f(x):
    match x:
        case 1:
            pass
        case 2:
            pass
        case _:
            pass
`)
	fn := firstKind(unit.Tree, parser.KindFunctionDef)
	// 1 + (3 arms - 1 match)
	if got := Cyclomatic(unit.Tree, fn, false); got != 3 {
		t.Errorf("Expected complexity 3, got %d", got)
	}
}

func TestCyclomaticNestedFunctions(t *testing.T) {
	code := `
def outer(x):
    if x:
        pass
    def inner(y):
        if y:
            pass
        if y > 1:
            pass
    return inner
`
	unit := parseUnit(t, code)
	fn := firstKind(unit.Tree, parser.KindFunctionDef)

	if got := Cyclomatic(unit.Tree, fn, false); got != 2 {
		t.Errorf("Expected per-function complexity 2, got %d", got)
	}
	if got := Cyclomatic(unit.Tree, fn, true); got != 4 {
		t.Errorf("Expected cross-method complexity 4, got %d", got)
	}
}

func TestCyclomaticExcludesNestedClass(t *testing.T) {
	unit := parseUnit(t, `
def f(x):
    if x:
        pass
    class Inner:
        def m(self):
            if x:
                pass
`)
	fn := firstKind(unit.Tree, parser.KindFunctionDef)
	if got := Cyclomatic(unit.Tree, fn, true); got != 2 {
		t.Errorf("Expected nested class to be excluded, got complexity %d", got)
	}
}

func TestMethodCount(t *testing.T) {
	unit := parseUnit(t, `
class C:
    VERSION = 1

    def a(self):
        pass

    def b(self):
        def helper():
            pass
        return helper

    class Inner:
        def not_counted(self):
            pass
`)
	class := firstKind(unit.Tree, parser.KindClassDef)
	if got := MethodCount(unit.Tree, class); got != 2 {
		t.Errorf("Expected 2 direct methods, got %d", got)
	}
}

func TestLoggingCalls(t *testing.T) {
	unit := parseUnit(t, `
def f():
    logger.info("one")
    log.debug("two")
    self.logger.warning("three")
    print("not logging")
    record("not logging either")
`)
	fn := firstKind(unit.Tree, parser.KindFunctionDef)
	if got := LoggingCalls(unit.Tree, fn, nil); got != 3 {
		t.Errorf("Expected 3 logging calls, got %d", got)
	}
	if got := LoggingCalls(unit.Tree, fn, []string{"record"}); got != 4 {
		t.Errorf("Expected 4 with configured bare logger, got %d", got)
	}
}

func TestLoggingCallsSkipNestedDef(t *testing.T) {
	unit := parseUnit(t, `
def outer():
    logger.info("outer")
    def inner():
        logger.info("inner")
        logger.info("inner again")
`)
	fn := firstKind(unit.Tree, parser.KindFunctionDef)
	if got := LoggingCalls(unit.Tree, fn, nil); got != 1 {
		t.Errorf("Expected nested definitions to count separately, got %d", got)
	}
}

func TestLOC(t *testing.T) {
	unit := parseUnit(t, `
def f():
    a = 1

    return a
`)
	fn := firstKind(unit.Tree, parser.KindFunctionDef)
	if got := LOC(unit.Tree, fn); got != 4 {
		t.Errorf("Expected 4 lines, got %d", got)
	}
}
