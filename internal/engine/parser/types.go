package parser

import "time"

// NodeKind classifies structural tree nodes. RawKind keeps the grammar's
// own node name for kinds the rules only need structurally.
type NodeKind uint8

const (
	KindModule NodeKind = iota
	KindClassDef
	KindFunctionDef
	KindParameter
	KindBlock
	KindCall
	KindAttribute
	KindAssign
	KindIf
	KindElif
	KindElse
	KindCondExpr
	KindFor
	KindWhile
	KindTry
	KindExcept
	KindBoolOp
	KindMatch
	KindCase
	KindImport
	KindImportFrom
	KindName
	KindLiteral
	KindReturn
	KindRaise
	KindBreak
	KindContinue
	KindOther
)

// NodeID indexes into the owning Tree's arena. Parent links are indices,
// never pointers, so the tree stays acyclic under Go's ownership rules.
type NodeID int32

const NoNode NodeID = -1

type NodeFlags uint8

const (
	// FlagStore marks an identifier in binding position (assignment target,
	// loop variable, import binding). Store identifiers are definitions,
	// not references.
	FlagStore NodeFlags = 1 << iota
	// FlagAttr marks the attribute name of an attribute access. Attribute
	// names are not lexical references; they resolve through the object.
	FlagAttr
)

type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Lines is the raw span line count, end-inclusive. Blank and comment-only
// lines count; all size thresholds apply to this convention.
func (s Span) Lines() int {
	return s.EndLine - s.StartLine + 1
}

type Node struct {
	Kind     NodeKind
	RawKind  string
	Name     string // identifier text for names, defs, classes, parameters
	Flags    NodeFlags
	Span     Span
	Parent   NodeID
	Children []NodeID
}

func (n *Node) Is(f NodeFlags) bool { return n.Flags&f != 0 }

// Tree is an arena-backed structural tree. Nodes[0] is always the unit's
// Module root.
type Tree struct {
	Nodes []Node
}

func (t *Tree) Root() NodeID { return 0 }

func (t *Tree) Node(id NodeID) *Node { return &t.Nodes[id] }

// Walk visits id and its subtree in preorder. Returning false from fn
// stops descent below the current node.
func (t *Tree) Walk(id NodeID, fn func(NodeID, *Node) bool) {
	node := t.Node(id)
	if !fn(id, node) {
		return
	}
	for _, child := range node.Children {
		t.Walk(child, fn)
	}
}

// Import records one import statement for cross-unit resolution.
type Import struct {
	Module     string   // dotted module path
	Alias      string   // optional alias for plain imports
	Items      []string // names for "from X import a, b"
	ItemAlias  []string // aliases aligned with Items, "" when absent
	IsRelative bool
	Node       NodeID
}

// SourceUnit owns one parsed file: raw text plus its structural tree.
// Immutable after parse.
type SourceUnit struct {
	Path     string
	Module   string // dotted module name derived from Path
	Source   []byte
	Tree     *Tree
	Imports  []Import
	Scopes   *ScopeTable
	ParsedAt time.Time
}

// Text returns the source text covered by a node.
func (u *SourceUnit) Text(id NodeID) string {
	return u.Tree.Node(id).Name
}

// FunctionName reports the name of the function definition node, or the
// placeholder for anonymous bodies.
func (u *SourceUnit) FunctionName(id NodeID) string {
	if name := u.Tree.Node(id).Name; name != "" {
		return name
	}
	return "<lambda>"
}
