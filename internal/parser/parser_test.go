package parser

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/unbound-force/crapreport/internal/lang"
)

func parsePython(t *testing.T, src string) *Result {
	t.Helper()
	p, err := New(lang.Python)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	res, err := p.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(res.Close)
	return res
}

func TestNew_UnsupportedLanguage(t *testing.T) {
	if _, err := New(lang.Go); err == nil {
		t.Error("expected error: Go is parsed with go/parser, not tree-sitter")
	}
}

func TestFirstError_ValidSource(t *testing.T) {
	res := parsePython(t, "def f(x):\n    return x\n")
	if n := FirstError(res.Root); n != nil {
		t.Errorf("expected no error node, got %s at line %d", n.Type(), StartLine(n))
	}
}

func TestFirstError_InvalidSource(t *testing.T) {
	res := parsePython(t, "x = 1\ndef broken(:\n    pass\n")
	n := FirstError(res.Root)
	if n == nil {
		t.Fatal("expected an error node")
	}
	if StartLine(n) != 2 {
		t.Errorf("expected error on line 2, got %d", StartLine(n))
	}
}

func TestWalk_PreOrder(t *testing.T) {
	res := parsePython(t, "def a():\n    pass\n\ndef b():\n    pass\n")
	var names []string
	Walk(res.Root, func(n *sitter.Node, nodeType string) bool {
		if nodeType == "function_definition" {
			names = append(names, Text(n.ChildByFieldName("name"), res.Source))
		}
		return true
	})
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("expected [a b], got %v", names)
	}
}

func TestStartEndLine(t *testing.T) {
	res := parsePython(t, "\ndef f():\n    return 1\n")
	var fn *sitter.Node
	Walk(res.Root, func(n *sitter.Node, nodeType string) bool {
		if nodeType == "function_definition" {
			fn = n
		}
		return fn == nil
	})
	if fn == nil {
		t.Fatal("function not found")
	}
	if StartLine(fn) != 2 || EndLine(fn) != 3 {
		t.Errorf("expected lines 2-3, got %d-%d", StartLine(fn), EndLine(fn))
	}
}
