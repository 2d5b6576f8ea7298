package linemap

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/unbound-force/crapreport/internal/lang"
	"github.com/unbound-force/crapreport/internal/parser"
)

// PythonMapper maps Python source with the tree-sitter grammar.
type PythonMapper struct{}

type pyScope int

const (
	scopeModule pyScope = iota
	scopeClass
	scopeFunction
)

// Map implements Mapper. Any ERROR or MISSING node in the tree makes
// the whole file invalid, as does a Python 2 print or exec statement.
func (PythonMapper) Map(path string, src []byte) ([]FunctionRange, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return nil, nil
	}
	p, err := parser.New(lang.Python)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	res, err := p.Parse(context.Background(), src)
	if err != nil {
		return nil, &ParseError{File: path, Message: err.Error()}
	}
	defer res.Close()

	if bad := parser.FirstError(res.Root); bad != nil {
		msg := "invalid syntax"
		if bad.IsMissing() {
			msg = fmt.Sprintf("missing %q", bad.Type())
		}
		return nil, &ParseError{
			File:    path,
			Line:    parser.StartLine(bad),
			Column:  int(bad.StartPoint().Column) + 1,
			Message: msg,
		}
	}

	if bad := firstLegacyStatement(res.Root); bad != nil {
		return nil, &ParseError{
			File:    path,
			Line:    parser.StartLine(bad),
			Column:  int(bad.StartPoint().Column) + 1,
			Message: fmt.Sprintf("invalid syntax: Python 2 %s", strings.TrimSuffix(bad.Type(), "_statement")),
		}
	}

	var ranges []FunctionRange
	var visit func(n *sitter.Node, scope pyScope)
	visit = func(n *sitter.Node, scope pyScope) {
		inner := scope
		switch n.Type() {
		case "function_definition":
			ranges = append(ranges, FunctionRange{
				Name:      parser.Text(n.ChildByFieldName("name"), src),
				File:      path,
				StartLine: parser.StartLine(n),
				EndLine:   bodyEndLine(n),
				IsMethod:  scope == scopeClass,
				IsAsync:   isAsyncDef(n),
			})
			inner = scopeFunction
		case "class_definition":
			inner = scopeClass
		}
		for i := range int(n.ChildCount()) {
			visit(n.Child(i), inner)
		}
	}
	visit(res.Root, scopeModule)

	return ranges, nil
}

func isAsyncDef(fn *sitter.Node) bool {
	for i := range int(fn.ChildCount()) {
		switch fn.Child(i).Type() {
		case "async":
			return true
		case "def":
			return false
		}
	}
	return false
}

// legacyStatements are accepted by the grammar but rejected by
// Python 3.
var legacyStatements = map[string]bool{
	"print_statement": true,
	"exec_statement":  true,
}

func firstLegacyStatement(root *sitter.Node) *sitter.Node {
	var found *sitter.Node
	parser.Walk(root, func(n *sitter.Node, nodeType string) bool {
		if found != nil {
			return false
		}
		if legacyStatements[nodeType] {
			found = n
			return false
		}
		return true
	})
	return found
}

// bodyEndLine is the last line of the function's body content.
// Comments trailing the last statement belong to the block node in
// the tree but are not part of the function.
func bodyEndLine(fn *sitter.Node) int {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return parser.EndLine(fn)
	}
	if end := lastContentLine(body); end > 0 {
		return end
	}
	return parser.EndLine(fn)
}

// lastContentLine descends through the last non-comment child until
// it reaches a leaf. It returns 0 when n holds only comments.
func lastContentLine(n *sitter.Node) int {
	if n.ChildCount() == 0 {
		if n.Type() == "comment" {
			return 0
		}
		return parser.EndLine(n)
	}
	for i := int(n.ChildCount()) - 1; i >= 0; i-- {
		c := n.Child(i)
		if c.Type() == "comment" {
			continue
		}
		if end := lastContentLine(c); end > 0 {
			return end
		}
	}
	return 0
}
