package parser

type ScopeKind uint8

const (
	ScopeModule ScopeKind = iota
	ScopeClass
	ScopeFunction
)

type SymbolKind uint8

const (
	SymVariable SymbolKind = iota
	SymParameter
	SymFunction
	SymClass
	SymImport
)

func (k SymbolKind) String() string {
	switch k {
	case SymVariable:
		return "variable"
	case SymParameter:
		return "parameter"
	case SymFunction:
		return "function"
	case SymClass:
		return "class"
	case SymImport:
		return "import"
	}
	return "unknown"
}

// Ref is one recorded reference site.
type Ref struct {
	Unit string
	Node NodeID
	Line int
}

// Symbol is a named definition plus every reference site discovered for
// it. Refs stay empty until the corpus-wide reference pass runs; a symbol
// with no refs after that pass is a dead-code candidate.
type Symbol struct {
	Name string
	Kind SymbolKind
	Unit string
	Def  NodeID
	Line int
	Refs []Ref

	// Import bindings carry their origin for cross-unit resolution.
	FromModule    string
	ImportItem    string
	IsWholeModule bool
	IsRelative    bool
}

type Scope struct {
	Kind    ScopeKind
	Owner   NodeID
	Parent  int // index into ScopeTable.Scopes, -1 for the module scope
	Symbols map[string]*Symbol
	Order   []string // names in binding order, for deterministic iteration
}

// PendingRef is an unresolved name load, resolved by the usage graph after
// every unit's definition pass has completed.
type PendingRef struct {
	Scope int
	Node  NodeID
	Name  string
}

// AttrRef is a qualified access base.attr, used to resolve module-attribute
// references across units (import a; a.f()).
type AttrRef struct {
	Scope int
	Base  string
	Attr  string
	Node  NodeID
}

type ScopeTable struct {
	Unit      *SourceUnit
	Scopes    []*Scope
	Refs      []PendingRef
	AttrRefs  []AttrRef
	Wildcards []string // modules pulled in via "from X import *"
}

// BuildScopes runs the per-unit definition pass: it records a Symbol for
// every name bound by a definition, parameter, assignment target, or
// import, and collects every name load as a pending reference.
func BuildScopes(unit *SourceUnit) *ScopeTable {
	st := &ScopeTable{Unit: unit}
	module := st.push(ScopeModule, unit.Tree.Root(), -1)
	root := unit.Tree.Node(unit.Tree.Root())
	for _, child := range root.Children {
		st.walk(child, module)
	}
	return st
}

func (st *ScopeTable) push(kind ScopeKind, owner NodeID, parent int) int {
	st.Scopes = append(st.Scopes, &Scope{
		Kind:    kind,
		Owner:   owner,
		Parent:  parent,
		Symbols: make(map[string]*Symbol),
	})
	return len(st.Scopes) - 1
}

func (st *ScopeTable) bind(scope int, name string, kind SymbolKind, def NodeID) *Symbol {
	if name == "" {
		return nil
	}
	s := st.Scopes[scope]
	if existing, ok := s.Symbols[name]; ok {
		// First binding wins as the definition site; later rebinds are not
		// new symbols.
		return existing
	}
	sym := &Symbol{
		Name: name,
		Kind: kind,
		Unit: st.Unit.Path,
		Def:  def,
		Line: st.Unit.Tree.Node(def).Span.StartLine,
	}
	s.Symbols[name] = sym
	s.Order = append(s.Order, name)
	return sym
}

func (st *ScopeTable) walk(id NodeID, scope int) {
	tree := st.Unit.Tree
	node := tree.Node(id)

	switch node.Kind {
	case KindFunctionDef:
		st.bind(scope, node.Name, SymFunction, id)
		fnScope := st.push(ScopeFunction, id, scope)
		for _, child := range node.Children {
			childNode := tree.Node(child)
			switch childNode.Kind {
			case KindParameter:
				st.bind(fnScope, childNode.Name, SymParameter, child)
				// Default values and annotations evaluate in the scope that
				// encloses the definition.
				for _, expr := range childNode.Children {
					st.walk(expr, scope)
				}
			case KindBlock:
				st.walk(child, fnScope)
			default:
				// Decorators and return annotations, enclosing scope.
				st.walk(child, scope)
			}
		}

	case KindClassDef:
		st.bind(scope, node.Name, SymClass, id)
		clsScope := st.push(ScopeClass, id, scope)
		for _, child := range node.Children {
			if tree.Node(child).Kind == KindBlock {
				st.walk(child, clsScope)
			} else {
				st.walk(child, scope)
			}
		}

	case KindName:
		switch {
		case node.Is(FlagAttr):
			// Attribute names resolve through their object, not lexically.
		case node.Is(FlagStore):
			st.bind(scope, node.Name, SymVariable, id)
		default:
			st.Refs = append(st.Refs, PendingRef{Scope: scope, Node: id, Name: node.Name})
		}

	case KindAttribute:
		if base, attr, ok := st.attrParts(node); ok {
			st.AttrRefs = append(st.AttrRefs, AttrRef{Scope: scope, Base: base, Attr: attr, Node: id})
		}
		for _, child := range node.Children {
			st.walk(child, scope)
		}

	case KindImport, KindImportFrom:
		st.bindImports(scope, id)

	default:
		for _, child := range node.Children {
			st.walk(child, scope)
		}
	}
}

func (st *ScopeTable) attrParts(node *Node) (base, attr string, ok bool) {
	tree := st.Unit.Tree
	if len(node.Children) < 2 {
		return "", "", false
	}
	obj := tree.Node(node.Children[0])
	last := tree.Node(node.Children[len(node.Children)-1])
	if obj.Kind != KindName || obj.Flags != 0 || !last.Is(FlagAttr) {
		return "", "", false
	}
	return obj.Name, last.Name, true
}

func (st *ScopeTable) bindImports(scope int, node NodeID) {
	for i := range st.Unit.Imports {
		imp := &st.Unit.Imports[i]
		if imp.Node != node {
			continue
		}
		if len(imp.Items) == 0 {
			name := imp.Alias
			if name == "" {
				name = firstSegment(imp.Module)
			}
			if sym := st.bind(scope, name, SymImport, node); sym != nil {
				sym.FromModule = imp.Module
				sym.IsWholeModule = true
				sym.IsRelative = imp.IsRelative
			}
			continue
		}
		for j, item := range imp.Items {
			if item == "*" {
				st.Wildcards = append(st.Wildcards, imp.Module)
				continue
			}
			local := imp.ItemAlias[j]
			if local == "" {
				local = item
			}
			if sym := st.bind(scope, local, SymImport, node); sym != nil {
				sym.FromModule = imp.Module
				sym.ImportItem = item
				sym.IsRelative = imp.IsRelative
			}
		}
	}
}

// Resolve walks outward from a scope to the module scope, returning the
// nearest symbol bound under the name, or nil if the name is unresolved.
func (st *ScopeTable) Resolve(scope int, name string) *Symbol {
	for idx := scope; idx >= 0; {
		s := st.Scopes[idx]
		if sym, ok := s.Symbols[name]; ok {
			return sym
		}
		idx = s.Parent
	}
	return nil
}

// ModuleScope returns the unit's outermost scope.
func (st *ScopeTable) ModuleScope() *Scope {
	return st.Scopes[0]
}

func firstSegment(module string) string {
	for i := 0; i < len(module); i++ {
		if module[i] == '.' {
			return module[:i]
		}
	}
	return module
}
