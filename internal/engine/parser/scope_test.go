package parser

import (
	"testing"
)

func buildTable(t *testing.T, code string) *ScopeTable {
	t.Helper()
	unit := mustParse(t, code)
	return BuildScopes(unit)
}

func TestModuleBindings(t *testing.T) {
	st := buildTable(t, `
import os
from pkg import helper

CONST = 1

def work():
    pass

class Thing:
    pass
`)

	module := st.ModuleScope()
	expect := map[string]SymbolKind{
		"os":     SymImport,
		"helper": SymImport,
		"CONST":  SymVariable,
		"work":   SymFunction,
		"Thing":  SymClass,
	}
	for name, kind := range expect {
		sym, ok := module.Symbols[name]
		if !ok {
			t.Errorf("Expected module symbol %q", name)
			continue
		}
		if sym.Kind != kind {
			t.Errorf("Symbol %q: expected kind %s, got %s", name, kind, sym.Kind)
		}
	}
}

func TestFunctionScopeAndPendingRefs(t *testing.T) {
	st := buildTable(t, `
def work(a, b=1):
    total = a + b + bonus
    return total
`)

	var fnScope *Scope
	for _, s := range st.Scopes {
		if s.Kind == ScopeFunction {
			fnScope = s
		}
	}
	if fnScope == nil {
		t.Fatal("function scope not built")
	}
	for _, name := range []string{"a", "b", "total"} {
		if _, ok := fnScope.Symbols[name]; !ok {
			t.Errorf("Expected local %q", name)
		}
	}

	// bonus is never bound: it must survive as a pending reference.
	foundBonus := false
	for _, ref := range st.Refs {
		if ref.Name == "bonus" {
			foundBonus = true
		}
		if ref.Name == "total" {
			// total resolves locally inside the same unit just fine, but it
			// still goes through the pending list like any other load.
			if st.Resolve(ref.Scope, "total") == nil {
				t.Error("Expected total to resolve through the scope chain")
			}
		}
	}
	if !foundBonus {
		t.Error("Expected pending reference for unbound name bonus")
	}
}

func TestResolveWalksScopeChain(t *testing.T) {
	st := buildTable(t, `
LIMIT = 10

def check(n):
    return n > LIMIT
`)

	var fnIdx int
	for i, s := range st.Scopes {
		if s.Kind == ScopeFunction {
			fnIdx = i
		}
	}
	sym := st.Resolve(fnIdx, "LIMIT")
	if sym == nil {
		t.Fatal("Expected LIMIT to resolve from the function scope")
	}
	if sym.Kind != SymVariable {
		t.Errorf("Expected variable, got %s", sym.Kind)
	}
	if st.Resolve(fnIdx, "missing") != nil {
		t.Error("Expected missing name to stay unresolved")
	}
}

func TestFirstBindingWins(t *testing.T) {
	st := buildTable(t, `
x = 1
x = 2
x = 3
`)
	module := st.ModuleScope()
	sym := module.Symbols["x"]
	if sym == nil {
		t.Fatal("x not bound")
	}
	if sym.Line != 2 {
		t.Errorf("Expected definition at first binding line 2, got %d", sym.Line)
	}
	if len(module.Order) != 1 {
		t.Errorf("Expected one ordered name, got %v", module.Order)
	}
}

func TestAttrRefRecorded(t *testing.T) {
	st := buildTable(t, `
import helpers

def run():
    return helpers.compute()
`)

	found := false
	for _, ref := range st.AttrRefs {
		if ref.Base == "helpers" && ref.Attr == "compute" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected attr ref helpers.compute, got %+v", st.AttrRefs)
	}
}

func TestSelfAttributeTargetsNotLexicalRefs(t *testing.T) {
	st := buildTable(t, `
class C:
    def m(self):
        self.value = 1
        return self.value
`)
	for _, ref := range st.Refs {
		if ref.Name == "value" {
			t.Error("attribute name must not appear as a lexical reference")
		}
	}
}

func TestWildcardImport(t *testing.T) {
	st := buildTable(t, "from utils import *\n")
	if len(st.Wildcards) != 1 || st.Wildcards[0] != "utils" {
		t.Errorf("Expected wildcard utils, got %v", st.Wildcards)
	}
}

func TestImportBindingCarriesOrigin(t *testing.T) {
	st := buildTable(t, `
import os.path
from pkg.sub import thing as alias
`)
	module := st.ModuleScope()

	osSym := module.Symbols["os"]
	if osSym == nil || !osSym.IsWholeModule {
		t.Errorf("Expected whole-module binding for os, got %+v", osSym)
	}

	alias := module.Symbols["alias"]
	if alias == nil {
		t.Fatal("alias not bound")
	}
	if alias.FromModule != "pkg.sub" || alias.ImportItem != "thing" {
		t.Errorf("Unexpected import origin: %+v", alias)
	}
}
