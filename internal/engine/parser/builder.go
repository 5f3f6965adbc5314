package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// builder converts a tree-sitter CST into the arena-backed structural tree.
// Only named grammar nodes are kept; comments and punctuation are dropped.
type builder struct {
	source []byte
	tree   *Tree
	unit   *SourceUnit
}

func (b *builder) text(n *sitter.Node) string {
	return string(b.source[n.StartByte():n.EndByte()])
}

func nodeSpan(n *sitter.Node) Span {
	return Span{
		StartLine: int(n.StartPosition().Row) + 1,
		StartCol:  int(n.StartPosition().Column) + 1,
		EndLine:   int(n.EndPosition().Row) + 1,
		EndCol:    int(n.EndPosition().Column) + 1,
	}
}

func (b *builder) add(parent NodeID, kind NodeKind, raw, name string, flags NodeFlags, sp Span) NodeID {
	id := NodeID(len(b.tree.Nodes))
	b.tree.Nodes = append(b.tree.Nodes, Node{
		Kind:    kind,
		RawKind: raw,
		Name:    name,
		Flags:   flags,
		Span:    sp,
		Parent:  parent,
	})
	if parent != NoNode {
		p := b.tree.Node(parent)
		p.Children = append(p.Children, id)
	}
	return id
}

func (b *builder) buildModule(root *sitter.Node) {
	id := b.add(NoNode, KindModule, root.Kind(), b.unit.Module, 0, nodeSpan(root))
	b.convertChildren(root, id)
}

func (b *builder) convertChildren(n *sitter.Node, parent NodeID) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		b.convert(n.NamedChild(i), parent)
	}
}

func (b *builder) convert(n *sitter.Node, parent NodeID) NodeID {
	switch n.Kind() {
	case "comment", "line_continuation":
		return NoNode
	case "decorated_definition":
		return b.buildDecorated(n, parent)
	case "function_definition":
		return b.buildFunction(n, parent)
	case "class_definition":
		return b.buildClass(n, parent)
	case "assignment", "augmented_assignment":
		return b.buildAssignment(n, parent)
	case "for_statement":
		return b.buildFor(n, parent)
	case "for_in_clause":
		return b.buildForInClause(n, parent)
	case "attribute":
		return b.buildAttribute(n, parent)
	case "identifier":
		return b.add(parent, KindName, n.Kind(), b.text(n), 0, nodeSpan(n))
	case "import_statement":
		return b.buildImport(n, parent)
	case "import_from_statement":
		return b.buildImportFrom(n, parent)
	case "named_expression":
		return b.buildNamedExpression(n, parent)
	case "global_statement", "nonlocal_statement":
		// Declared names reference an outer binding; keep them as loads.
		return b.generic(n, parent)
	default:
		return b.generic(n, parent)
	}
}

func (b *builder) generic(n *sitter.Node, parent NodeID) NodeID {
	id := b.add(parent, mapKind(n.Kind()), n.Kind(), "", 0, nodeSpan(n))
	b.convertChildren(n, id)
	return id
}

func mapKind(raw string) NodeKind {
	switch raw {
	case "module":
		return KindModule
	case "block":
		return KindBlock
	case "call":
		return KindCall
	case "if_statement":
		return KindIf
	case "elif_clause":
		return KindElif
	case "else_clause":
		return KindElse
	case "conditional_expression":
		return KindCondExpr
	case "while_statement":
		return KindWhile
	case "try_statement":
		return KindTry
	case "except_clause", "except_group_clause":
		return KindExcept
	case "boolean_operator":
		return KindBoolOp
	case "match_statement":
		return KindMatch
	case "case_clause":
		return KindCase
	case "return_statement":
		return KindReturn
	case "raise_statement":
		return KindRaise
	case "break_statement":
		return KindBreak
	case "continue_statement":
		return KindContinue
	case "integer", "float", "string", "true", "false", "none", "ellipsis":
		return KindLiteral
	default:
		return KindOther
	}
}

func (b *builder) buildDecorated(n *sitter.Node, parent NodeID) NodeID {
	def := n.ChildByFieldName("definition")
	if def == nil {
		return b.generic(n, parent)
	}
	id := b.convert(def, parent)
	if id == NoNode {
		return NoNode
	}
	// Decorator expressions stay visible under the definition so the names
	// they reference count as usage.
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "decorator" {
			b.convertChildren(child, id)
		}
	}
	// The definition span must cover its decorators to keep containment.
	b.tree.Node(id).Span.StartLine = int(n.StartPosition().Row) + 1
	return id
}

func (b *builder) buildFunction(n *sitter.Node, parent NodeID) NodeID {
	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = b.text(nameNode)
	}
	id := b.add(parent, KindFunctionDef, n.Kind(), name, 0, nodeSpan(n))

	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			b.buildParameter(params.NamedChild(i), id)
		}
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		b.convert(ret, id)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		b.convert(body, id)
	}
	return id
}

func (b *builder) buildParameter(p *sitter.Node, fn NodeID) {
	switch p.Kind() {
	case "identifier":
		b.add(fn, KindParameter, p.Kind(), b.text(p), 0, nodeSpan(p))
	case "default_parameter", "typed_default_parameter":
		name := ""
		if nameNode := p.ChildByFieldName("name"); nameNode != nil {
			name = b.text(nameNode)
		}
		id := b.add(fn, KindParameter, p.Kind(), name, 0, nodeSpan(p))
		if typeNode := p.ChildByFieldName("type"); typeNode != nil {
			b.convert(typeNode, id)
		}
		// Default value is always the last child; the mutable-default rule
		// relies on this ordering.
		if value := p.ChildByFieldName("value"); value != nil {
			b.convert(value, id)
		}
	case "typed_parameter":
		name := b.firstIdentifier(p)
		id := b.add(fn, KindParameter, p.Kind(), name, 0, nodeSpan(p))
		if typeNode := p.ChildByFieldName("type"); typeNode != nil {
			b.convert(typeNode, id)
		}
	case "list_splat_pattern", "dictionary_splat_pattern":
		b.add(fn, KindParameter, p.Kind(), b.firstIdentifier(p), 0, nodeSpan(p))
	case "positional_separator", "keyword_separator":
		// "/" and "*" markers bind nothing.
	default:
		b.add(fn, KindParameter, p.Kind(), b.firstIdentifier(p), 0, nodeSpan(p))
	}
}

func (b *builder) firstIdentifier(n *sitter.Node) string {
	if n.Kind() == "identifier" {
		return b.text(n)
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if name := b.firstIdentifier(n.NamedChild(i)); name != "" {
			return name
		}
	}
	return ""
}

func (b *builder) buildClass(n *sitter.Node, parent NodeID) NodeID {
	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = b.text(nameNode)
	}
	id := b.add(parent, KindClassDef, n.Kind(), name, 0, nodeSpan(n))
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		b.convertChildren(supers, id)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		b.convert(body, id)
	}
	return id
}

func (b *builder) buildAssignment(n *sitter.Node, parent NodeID) NodeID {
	id := b.add(parent, KindAssign, n.Kind(), "", 0, nodeSpan(n))
	if left := n.ChildByFieldName("left"); left != nil {
		if n.Kind() == "assignment" {
			b.convertTarget(left, id)
		} else {
			// Augmented assignment reads its target before writing it.
			b.convert(left, id)
		}
	}
	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		b.convert(typeNode, id)
	}
	if right := n.ChildByFieldName("right"); right != nil {
		b.convert(right, id)
	}
	return id
}

// convertTarget marks identifiers in binding position with FlagStore.
// Attribute and subscript targets keep load semantics for their inner
// names (obj.field = x reads obj).
func (b *builder) convertTarget(n *sitter.Node, parent NodeID) {
	switch n.Kind() {
	case "identifier":
		b.add(parent, KindName, n.Kind(), b.text(n), FlagStore, nodeSpan(n))
	case "pattern_list", "tuple_pattern", "list_pattern", "parenthesized_expression":
		id := b.add(parent, KindOther, n.Kind(), "", 0, nodeSpan(n))
		for i := uint(0); i < n.NamedChildCount(); i++ {
			b.convertTarget(n.NamedChild(i), id)
		}
	case "list_splat_pattern":
		id := b.add(parent, KindOther, n.Kind(), "", 0, nodeSpan(n))
		for i := uint(0); i < n.NamedChildCount(); i++ {
			b.convertTarget(n.NamedChild(i), id)
		}
	default:
		b.convert(n, parent)
	}
}

func (b *builder) buildFor(n *sitter.Node, parent NodeID) NodeID {
	id := b.add(parent, KindFor, n.Kind(), "", 0, nodeSpan(n))
	if left := n.ChildByFieldName("left"); left != nil {
		b.convertTarget(left, id)
	}
	if right := n.ChildByFieldName("right"); right != nil {
		b.convert(right, id)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		b.convert(body, id)
	}
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		b.convert(alt, id)
	}
	return id
}

func (b *builder) buildForInClause(n *sitter.Node, parent NodeID) NodeID {
	id := b.add(parent, KindOther, n.Kind(), "", 0, nodeSpan(n))
	if left := n.ChildByFieldName("left"); left != nil {
		b.convertTarget(left, id)
	}
	if right := n.ChildByFieldName("right"); right != nil {
		b.convert(right, id)
	}
	return id
}

func (b *builder) buildNamedExpression(n *sitter.Node, parent NodeID) NodeID {
	id := b.add(parent, KindAssign, n.Kind(), "", 0, nodeSpan(n))
	if name := n.ChildByFieldName("name"); name != nil {
		b.convertTarget(name, id)
	}
	if value := n.ChildByFieldName("value"); value != nil {
		b.convert(value, id)
	}
	return id
}

func (b *builder) buildAttribute(n *sitter.Node, parent NodeID) NodeID {
	id := b.add(parent, KindAttribute, n.Kind(), "", 0, nodeSpan(n))
	if obj := n.ChildByFieldName("object"); obj != nil {
		b.convert(obj, id)
	}
	if attr := n.ChildByFieldName("attribute"); attr != nil {
		b.add(id, KindName, attr.Kind(), b.text(attr), FlagAttr, nodeSpan(attr))
	}
	return id
}

// buildImport handles "import a.b, c as d". Identifiers inside import
// statements never appear as Name nodes; bindings are carried on
// unit.Imports instead so they cannot be mistaken for references.
func (b *builder) buildImport(n *sitter.Node, parent NodeID) NodeID {
	id := b.add(parent, KindImport, n.Kind(), "", 0, nodeSpan(n))
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			b.unit.Imports = append(b.unit.Imports, Import{
				Module: b.text(child),
				Node:   id,
			})
		case "aliased_import":
			imp := Import{Node: id}
			if name := child.ChildByFieldName("name"); name != nil {
				imp.Module = b.text(name)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				imp.Alias = b.text(alias)
			}
			b.unit.Imports = append(b.unit.Imports, imp)
		}
	}
	return id
}

func (b *builder) buildImportFrom(n *sitter.Node, parent NodeID) NodeID {
	id := b.add(parent, KindImportFrom, n.Kind(), "", 0, nodeSpan(n))
	imp := Import{Node: id}

	moduleNode := n.ChildByFieldName("module_name")
	if moduleNode != nil {
		if moduleNode.Kind() == "relative_import" {
			imp.IsRelative = true
			imp.Module = strings.TrimLeft(b.text(moduleNode), ".")
		} else {
			imp.Module = b.text(moduleNode)
		}
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if moduleNode != nil && child.StartByte() == moduleNode.StartByte() {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "identifier":
			imp.Items = append(imp.Items, b.text(child))
			imp.ItemAlias = append(imp.ItemAlias, "")
		case "aliased_import":
			item, alias := "", ""
			if name := child.ChildByFieldName("name"); name != nil {
				item = b.text(name)
			}
			if aliasNode := child.ChildByFieldName("alias"); aliasNode != nil {
				alias = b.text(aliasNode)
			}
			imp.Items = append(imp.Items, item)
			imp.ItemAlias = append(imp.ItemAlias, alias)
		case "wildcard_import":
			imp.Items = append(imp.Items, "*")
			imp.ItemAlias = append(imp.ItemAlias, "")
		}
	}

	b.unit.Imports = append(b.unit.Imports, imp)
	return id
}
