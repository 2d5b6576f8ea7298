package complexity

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/fzipp/gocyclo"
)

// GoAnalyzer computes complexity with gocyclo. Declarations are
// analyzed by gocyclo (including its //gocyclo:ignore directive);
// function literals get their own entry as well, after all
// declarations. A declaration's value includes the literals nested in
// it.
type GoAnalyzer struct{}

// Analyze implements Analyzer.
func (GoAnalyzer) Analyze(path string, src []byte) ([]Stat, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var stats []Stat
	for _, s := range gocyclo.AnalyzeASTFile(f, fset, nil) {
		stats = append(stats, Stat{
			Name:       s.FuncName,
			Line:       s.Pos.Line,
			Complexity: s.Complexity,
		})
	}

	ast.Inspect(f, func(n ast.Node) bool {
		lit, ok := n.(*ast.FuncLit)
		if !ok {
			return true
		}
		stats = append(stats, Stat{
			Name:       "func literal",
			Line:       fset.Position(lit.Pos()).Line,
			Complexity: gocyclo.Complexity(lit),
		})
		return true
	})

	return stats, nil
}
