// Package graph builds the project-wide definition/reference graph that
// powers dead-code detection. It runs in two corpus-level passes: the
// per-unit definition pass (scope tables, built in parallel by the
// analyzer) and the reference-resolution pass below, which requires read
// access to every unit's scopes and therefore runs after the definition
// barrier.
package graph

import (
	"strings"

	"smellwatch/internal/engine/parser"
)

type Graph struct {
	tables   []*parser.ScopeTable
	byModule map[string]*parser.ScopeTable
	bySuffix map[string][]*parser.ScopeTable

	// attrIndex maps attribute names to class-scope symbols across the
	// corpus. Attribute access is not lexically resolvable, so any
	// obj.name access conservatively counts as usage of every class
	// member named "name". This errs toward fewer false dead-code
	// positives, never more.
	attrIndex map[string][]*parser.Symbol
}

// Build wires the per-unit scope tables into one corpus graph. The tables
// are owned by their units; Build only indexes them.
func Build(tables []*parser.ScopeTable) *Graph {
	g := &Graph{
		tables:    tables,
		byModule:  make(map[string]*parser.ScopeTable, len(tables)),
		bySuffix:  make(map[string][]*parser.ScopeTable),
		attrIndex: make(map[string][]*parser.Symbol),
	}
	for _, table := range tables {
		module := table.Unit.Module
		g.byModule[module] = table
		suffix := module
		if idx := strings.LastIndex(module, "."); idx >= 0 {
			suffix = module[idx+1:]
		}
		g.bySuffix[suffix] = append(g.bySuffix[suffix], table)

		for _, scope := range table.Scopes {
			if scope.Kind != parser.ScopeClass {
				continue
			}
			for _, name := range scope.Order {
				sym := scope.Symbols[name]
				g.attrIndex[name] = append(g.attrIndex[name], sym)
			}
		}
	}
	return g
}

// ResolveReferences runs the corpus-wide reference pass. Every pending
// name load is resolved through its enclosing scope chain; unresolved
// names are ignored, since they may be external. Import bindings forward
// to the defining unit's symbols, so importing a name counts as
// referencing it.
func (g *Graph) ResolveReferences() {
	for _, table := range g.tables {
		g.resolveImportBindings(table)

		for _, ref := range table.Refs {
			sym := table.Resolve(ref.Scope, ref.Name)
			if sym == nil {
				continue
			}
			line := table.Unit.Tree.Node(ref.Node).Span.StartLine
			sym.Refs = append(sym.Refs, parser.Ref{Unit: table.Unit.Path, Node: ref.Node, Line: line})
		}

		for _, ref := range table.AttrRefs {
			g.resolveAttrRef(table, ref)
		}

		for _, module := range table.Wildcards {
			g.markWholeModule(table, module)
		}
	}
}

// resolveImportBindings credits "from X import y" statements as
// references to X.y at the import site.
func (g *Graph) resolveImportBindings(table *parser.ScopeTable) {
	for _, scope := range table.Scopes {
		for _, name := range scope.Order {
			sym := scope.Symbols[name]
			if sym.Kind != parser.SymImport || sym.ImportItem == "" {
				continue
			}
			target := g.moduleTable(sym.FromModule, sym.IsRelative)
			if target == nil {
				continue
			}
			if def, ok := target.ModuleScope().Symbols[sym.ImportItem]; ok {
				def.Refs = append(def.Refs, parser.Ref{Unit: table.Unit.Path, Node: sym.Def, Line: sym.Line})
			}
		}
	}
}

func (g *Graph) resolveAttrRef(table *parser.ScopeTable, ref parser.AttrRef) {
	line := table.Unit.Tree.Node(ref.Node).Span.StartLine
	site := parser.Ref{Unit: table.Unit.Path, Node: ref.Node, Line: line}

	if base := table.Resolve(ref.Scope, ref.Base); base != nil && base.Kind == parser.SymImport && base.IsWholeModule {
		target := g.moduleTable(base.FromModule, base.IsRelative)
		if target != nil {
			if def, ok := target.ModuleScope().Symbols[ref.Attr]; ok {
				def.Refs = append(def.Refs, site)
			}
		}
		return
	}

	// Non-module attribute access: credit class members sharing the name.
	for _, sym := range g.attrIndex[ref.Attr] {
		sym.Refs = append(sym.Refs, site)
	}
}

func (g *Graph) markWholeModule(table *parser.ScopeTable, module string) {
	target := g.moduleTable(module, true)
	if target == nil {
		return
	}
	scope := target.ModuleScope()
	for _, name := range scope.Order {
		if strings.HasPrefix(name, "_") {
			continue
		}
		sym := scope.Symbols[name]
		sym.Refs = append(sym.Refs, parser.Ref{Unit: table.Unit.Path, Node: parser.NoNode})
	}
}

// moduleTable resolves a dotted module path to a corpus unit. Relative
// imports match by trailing segment; absolute imports try the exact path
// first and fall back to the suffix match.
func (g *Graph) moduleTable(module string, relative bool) *parser.ScopeTable {
	if module == "" {
		return nil
	}
	if !relative {
		if table, ok := g.byModule[module]; ok {
			return table
		}
	}
	suffix := module
	if idx := strings.LastIndex(module, "."); idx >= 0 {
		suffix = module[idx+1:]
	}
	candidates := g.bySuffix[suffix]
	if len(candidates) == 1 {
		return candidates[0]
	}
	return nil
}

// Tables exposes the indexed scope tables in input order.
func (g *Graph) Tables() []*parser.ScopeTable {
	return g.tables
}
