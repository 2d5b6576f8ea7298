package complexity

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/unbound-force/crapreport/internal/lang"
	"github.com/unbound-force/crapreport/internal/parser"
)

// pythonDecisionTypes are the tree-sitter node types that each add
// one independent path.
var pythonDecisionTypes = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"for_statement":          true,
	"while_statement":        true,
	"except_clause":          true,
	"with_statement":         true,
	"conditional_expression": true,
	"assert_statement":       true,
	"for_in_clause":          true,
	"if_clause":              true,
	"case_clause":            true,
	"boolean_operator":       true,
}

// PythonAnalyzer computes complexity as 1 plus the decision points in
// a function's own body. Nested function and class bodies count
// toward their own entries, not the enclosing function.
type PythonAnalyzer struct{}

// Analyze implements Analyzer.
func (PythonAnalyzer) Analyze(path string, src []byte) ([]Stat, error) {
	p, err := parser.New(lang.Python)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	res, err := p.Parse(context.Background(), src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer res.Close()

	var stats []Stat
	parser.Walk(res.Root, func(n *sitter.Node, nodeType string) bool {
		if nodeType == "function_definition" {
			stats = append(stats, Stat{
				Name:       parser.Text(n.ChildByFieldName("name"), src),
				Line:       parser.StartLine(n),
				Complexity: 1 + decisionPoints(n.ChildByFieldName("body")),
			})
		}
		return true
	})
	return stats, nil
}

func decisionPoints(body *sitter.Node) int {
	count := 0
	parser.Walk(body, func(n *sitter.Node, nodeType string) bool {
		switch nodeType {
		case "function_definition", "class_definition":
			return false
		}
		if pythonDecisionTypes[nodeType] || isLoopOrTryElse(n, nodeType) {
			count++
		}
		return true
	})
	return count
}

// isLoopOrTryElse reports an else clause that runs when a loop ends
// without break or a try body raises nothing. An if statement's else
// adds no path.
func isLoopOrTryElse(n *sitter.Node, nodeType string) bool {
	if nodeType != "else_clause" {
		return false
	}
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "for_statement", "while_statement", "try_statement":
		return true
	}
	return false
}
