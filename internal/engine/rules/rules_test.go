package rules

import (
	"strings"
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

func TestGodClassMethodCount(t *testing.T) {
	unit := parseUnit(t, `
class Busy:
    def a(self): pass
    def b(self): pass
    def c(self): pass
`)
	rule := &GodClassRule{MaxMethods: 2, MaxCC: 100, MaxLOC: 1000}
	findings := rule.Check(unit)
	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.RuleID != RuleGodClass || f.Severity != SeverityHigh {
		t.Errorf("Unexpected finding identity: %+v", f)
	}
	if !strings.Contains(f.Message, "Busy") || !strings.Contains(f.Message, "3 methods (max: 2)") {
		t.Errorf("Unexpected message: %s", f.Message)
	}
	if f.Metrics["methods"] != 3 {
		t.Errorf("Expected methods metric 3, got %v", f.Metrics["methods"])
	}
}

func TestGodClassUnderThresholds(t *testing.T) {
	unit := parseUnit(t, `
class Small:
    def a(self): pass
`)
	rule := &GodClassRule{MaxMethods: 10, MaxCC: 35, MaxLOC: 100}
	if findings := rule.Check(unit); len(findings) != 0 {
		t.Errorf("Expected no findings, got %+v", findings)
	}
}

func TestGodClassNestedMeasuredIndependently(t *testing.T) {
	unit := parseUnit(t, `
class Outer:
    def a(self): pass

    class Inner:
        def x(self): pass
        def y(self): pass
        def z(self): pass
`)
	rule := &GodClassRule{MaxMethods: 2, MaxCC: 100, MaxLOC: 1000}
	findings := rule.Check(unit)
	if len(findings) != 1 {
		t.Fatalf("Expected only the nested class flagged, got %d findings", len(findings))
	}
	if !strings.Contains(findings[0].Message, "Inner") {
		t.Errorf("Expected Inner flagged, got %s", findings[0].Message)
	}
}

func TestLongMethodComplexity(t *testing.T) {
	unit := parseUnit(t, `
def tangled(x):
    if x > 0:
        pass
    if x > 1:
        pass
    if x > 2:
        pass
`)
	rule := &LongMethodRule{MaxLOC: 100, MaxCC: 3}
	findings := rule.Check(unit)
	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(findings))
	}
	if !strings.Contains(findings[0].Message, "tangled") || !strings.Contains(findings[0].Message, "complexity 4 (max: 3)") {
		t.Errorf("Unexpected message: %s", findings[0].Message)
	}
}

func TestLongMethodIgnoresNestedFunctionBody(t *testing.T) {
	unit := parseUnit(t, `
def outer(x):
    def inner(y):
        if y: pass
        if y > 1: pass
        if y > 2: pass
    return inner
`)
	rule := &LongMethodRule{MaxLOC: 100, MaxCC: 3}
	findings := rule.Check(unit)
	// inner has its own complexity of 4 and is flagged on its own; outer
	// must not inherit it.
	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(findings))
	}
	if !strings.Contains(findings[0].Message, "inner") {
		t.Errorf("Expected inner flagged, got %s", findings[0].Message)
	}
}

func TestLogExcessiveThreshold(t *testing.T) {
	unit := parseUnit(t, `
def chatty():
    logger.info("a")
    logger.info("b")
    logger.debug("c")

def quiet():
    logger.info("only one")
`)
	rule := &LogExcessiveRule{MaxCalls: 2}
	findings := rule.Check(unit)
	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(findings))
	}
	if !strings.Contains(findings[0].Message, "chatty") || !strings.Contains(findings[0].Message, "3 logging statements (max: 2)") {
		t.Errorf("Unexpected message: %s", findings[0].Message)
	}
}

func TestLogInsideLoop(t *testing.T) {
	unit := parseUnit(t, `
def worker(items):
    for item in items:
        logger.debug("processing %s", item)
`)
	rule := &LogExcessiveRule{MaxCalls: 10}
	findings := rule.Check(unit)
	if len(findings) != 1 {
		t.Fatalf("Expected 1 loop finding, got %d", len(findings))
	}
	if !strings.Contains(findings[0].Message, "inside loop") {
		t.Errorf("Unexpected message: %s", findings[0].Message)
	}
}

func TestLogInsideNestedLoopsReportedOnce(t *testing.T) {
	unit := parseUnit(t, `
def worker(rows):
    for row in rows:
        while row:
            logger.info("row")
            row = row.next
`)
	rule := &LogExcessiveRule{MaxCalls: 10}
	findings := rule.Check(unit)
	if len(findings) != 1 {
		t.Errorf("Expected one finding for a doubly nested call, got %d", len(findings))
	}
}

func TestMutableDefaults(t *testing.T) {
	unit := parseUnit(t, `
def f(a, items=[], mapping={}, tags=set(), name="x", count=0, factory=list):
    pass
`)
	rule := &MutableDefaultRule{}
	findings := rule.Check(unit)
	if len(findings) != 3 {
		t.Fatalf("Expected 3 findings, got %d: %+v", len(findings), findings)
	}

	wantParams := []struct {
		name     string
		position int
	}{
		{"items", 2},
		{"mapping", 3},
		{"tags", 4},
	}
	for i, want := range wantParams {
		f := findings[i]
		if !strings.Contains(f.Message, "'"+want.name+"'") {
			t.Errorf("finding %d: expected parameter %s, got %s", i, want.name, f.Message)
		}
		if f.Metrics["position"] != float64(want.position) {
			t.Errorf("finding %d: expected position %d, got %v", i, want.position, f.Metrics["position"])
		}
	}
}

func TestMutableDefaultTyped(t *testing.T) {
	unit := parseUnit(t, `
def f(items: list = []):
    pass
`)
	rule := &MutableDefaultRule{}
	if findings := rule.Check(unit); len(findings) != 1 {
		t.Errorf("Expected typed default flagged, got %d findings", len(findings))
	}
}

func TestMutableDefaultComprehension(t *testing.T) {
	unit := parseUnit(t, `
def f(squares=[x * x for x in range(3)]):
    pass
`)
	rule := &MutableDefaultRule{}
	if findings := rule.Check(unit); len(findings) != 1 {
		t.Errorf("Expected comprehension default flagged, got %d findings", len(findings))
	}
}

func TestSortOrdering(t *testing.T) {
	findings := []Finding{
		{File: "b.py", Line: 1, RuleID: RuleGodClass},
		{File: "a.py", Line: 9, RuleID: RuleLongMethod},
		{File: "a.py", Line: 9, RuleID: RuleGodClass},
		{File: "a.py", Line: 2, RuleID: RuleDeadCode},
	}
	Sort(findings)

	want := []struct {
		file string
		line int
		rule string
	}{
		{"a.py", 2, RuleDeadCode},
		{"a.py", 9, RuleGodClass},
		{"a.py", 9, RuleLongMethod},
		{"b.py", 1, RuleGodClass},
	}
	for i, w := range want {
		f := findings[i]
		if f.File != w.file || f.Line != w.line || f.RuleID != w.rule {
			t.Errorf("position %d: expected %+v, got %+v", i, w, f)
		}
	}
}

func TestSummarize(t *testing.T) {
	findings := []Finding{
		{Rule: "GodClass"},
		{Rule: "GodClass"},
		{Rule: "DeadCode"},
	}
	summary := Summarize(findings)
	if summary["GodClass"] != 2 || summary["DeadCode"] != 1 {
		t.Errorf("Unexpected summary: %v", summary)
	}
}
