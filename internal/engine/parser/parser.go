package parser

import (
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	coreerrors "smellwatch/internal/core/errors"
)

// Parser turns raw Python source into a SourceUnit. Parse failures are
// per-unit and reported to the caller; they never abort a whole run.
type Parser struct {
	loader *GrammarLoader
}

func NewParser(loader *GrammarLoader) *Parser {
	return &Parser{loader: loader}
}

func (p *Parser) ParseUnit(path string, content []byte) (*SourceUnit, error) {
	grammar := p.loader.Language("python")
	if grammar == nil {
		return nil, coreerrors.New(coreerrors.CodeNotSupported, "python grammar not loaded")
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, coreerrors.AddContext(
			coreerrors.New(coreerrors.CodeParseFailure, "parse failed"),
			coreerrors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, coreerrors.AddContext(
			coreerrors.New(coreerrors.CodeParseFailure, "unit contains syntax errors"),
			coreerrors.CtxPath, path)
	}

	unit := &SourceUnit{
		Path:     path,
		Module:   ModuleName(path),
		Source:   content,
		ParsedAt: time.Now(),
	}

	b := &builder{source: content, unit: unit, tree: &Tree{}}
	b.buildModule(root)
	unit.Tree = b.tree

	if err := unit.Tree.validateSpans(); err != nil {
		return nil, coreerrors.AddContext(err, coreerrors.CtxPath, path)
	}

	return unit, nil
}

// ModuleName derives the dotted module name from a unit path:
// "pkg/sub/mod.py" -> "pkg.sub.mod", "pkg/__init__.py" -> "pkg".
func ModuleName(path string) string {
	clean := filepath.ToSlash(filepath.Clean(path))
	clean = strings.TrimPrefix(clean, "./")
	clean = strings.TrimSuffix(clean, ".py")
	clean = strings.TrimSuffix(clean, "/__init__")
	return strings.ReplaceAll(clean, "/", ".")
}

// validateSpans enforces the containment invariant: every child span lies
// within its parent's span. A breach marks the unit defective.
func (t *Tree) validateSpans() error {
	for id := range t.Nodes {
		node := &t.Nodes[id]
		for _, childID := range node.Children {
			child := &t.Nodes[childID]
			if child.Span.StartLine < node.Span.StartLine || child.Span.EndLine > node.Span.EndLine {
				return coreerrors.Newf(coreerrors.CodeInvariant,
					"child span %d-%d escapes parent span %d-%d",
					child.Span.StartLine, child.Span.EndLine,
					node.Span.StartLine, node.Span.EndLine)
			}
		}
	}
	return nil
}
