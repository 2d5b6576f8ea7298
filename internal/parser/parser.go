// Package parser wraps tree-sitter for the languages that are not
// parsed with the Go standard library.
package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/unbound-force/crapreport/internal/lang"
)

// Parser wraps a tree-sitter parser. A Parser is not safe for
// concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
	lang   lang.Language
}

// Result holds a parsed syntax tree together with its source.
type Result struct {
	Tree   *sitter.Tree
	Root   *sitter.Node
	Source []byte
}

// Close releases the tree.
func (r *Result) Close() {
	if r.Tree != nil {
		r.Tree.Close()
	}
}

// New creates a parser for l. Only languages with a tree-sitter
// grammar are supported.
func New(l lang.Language) (*Parser, error) {
	grammar, err := grammarFor(l)
	if err != nil {
		return nil, err
	}
	p := sitter.NewParser()
	p.SetLanguage(grammar)
	return &Parser{parser: p, lang: l}, nil
}

func grammarFor(l lang.Language) (*sitter.Language, error) {
	switch l {
	case lang.Python:
		return python.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("no tree-sitter grammar for language %q", l)
	}
}

// Parse parses source. Syntax errors do not fail the parse; use
// FirstError on the root node to detect them.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Result, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s source: %w", p.lang, err)
	}
	return &Result{
		Tree:   tree,
		Root:   tree.RootNode(),
		Source: source,
	}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// Visitor is called for every node in pre-order. Returning false
// skips the node's children.
type Visitor func(node *sitter.Node, nodeType string) bool

// Walk traverses the tree rooted at node in pre-order.
func Walk(node *sitter.Node, visit Visitor) {
	if node == nil {
		return
	}
	if !visit(node, node.Type()) {
		return
	}
	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), visit)
	}
}

// FirstError returns the first ERROR or MISSING node under root in
// source order, or nil when the tree is well formed.
func FirstError(root *sitter.Node) *sitter.Node {
	if root == nil || !root.HasError() {
		return nil
	}
	var found *sitter.Node
	Walk(root, func(n *sitter.Node, nodeType string) bool {
		if found != nil {
			return false
		}
		if nodeType == "ERROR" || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	return found
}

// StartLine returns the 1-based line on which node starts.
func StartLine(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// EndLine returns the 1-based line holding the last character of
// node. A node ending at column 0 ends on the previous line.
func EndLine(node *sitter.Node) int {
	end := node.EndPoint()
	if end.Column == 0 && end.Row > node.StartPoint().Row {
		return int(end.Row)
	}
	return int(end.Row) + 1
}

// Text returns the source text spanned by node.
func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
