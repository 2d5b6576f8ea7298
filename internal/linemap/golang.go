package linemap

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"
)

// GoMapper maps Go source with go/parser.
type GoMapper struct{}

// Map implements Mapper. Declarations without a body (assembly
// stubs) are skipped; function literals are reported after their
// enclosing declaration in source order. Blank input has no
// functions rather than a missing package clause.
func (GoMapper) Map(path string, src []byte) ([]FunctionRange, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return nil, nil
	}
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, goParseError(path, err)
	}

	async := goroutineLiterals(f)
	var ranges []FunctionRange

	addLits := func(root ast.Node, prefix string, counter *int) {
		ast.Inspect(root, func(n ast.Node) bool {
			lit, ok := n.(*ast.FuncLit)
			if !ok {
				return true
			}
			*counter++
			ranges = append(ranges, goRange(fset, path, lit,
				fmt.Sprintf("%s.func%d", prefix, *counter), false, async[lit]))
			return true
		})
	}

	globals := 0
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Body == nil {
				continue
			}
			name := FuncDeclName(d)
			ranges = append(ranges, goRange(fset, path, d, name, d.Recv != nil && d.Recv.NumFields() > 0, false))
			lits := 0
			addLits(d.Body, name, &lits)
		case *ast.GenDecl:
			addLits(d, "glob", &globals)
		}
	}
	return ranges, nil
}

func goRange(fset *token.FileSet, path string, n ast.Node, name string, isMethod, isAsync bool) FunctionRange {
	return FunctionRange{
		Name:      name,
		File:      path,
		StartLine: fset.Position(n.Pos()).Line,
		EndLine:   fset.Position(n.End()).Line,
		IsMethod:  isMethod,
		IsAsync:   isAsync,
	}
}

// goroutineLiterals returns the function literals invoked directly by
// a go statement.
func goroutineLiterals(f *ast.File) map[*ast.FuncLit]bool {
	lits := make(map[*ast.FuncLit]bool)
	ast.Inspect(f, func(n ast.Node) bool {
		if g, ok := n.(*ast.GoStmt); ok {
			if lit, ok := g.Call.Fun.(*ast.FuncLit); ok {
				lits[lit] = true
			}
		}
		return true
	})
	return lits
}

// FuncDeclName returns the display name of a declaration: "Name" for
// functions and "(Recv).Name" or "(*Recv).Name" for methods, matching
// the names gocyclo reports.
func FuncDeclName(fn *ast.FuncDecl) string {
	if fn.Recv != nil && fn.Recv.NumFields() > 0 {
		return "(" + recvTypeString(fn.Recv.List[0].Type) + ")." + fn.Name.Name
	}
	return fn.Name.Name
}

// recvTypeString extracts the receiver type as a string.
func recvTypeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return "*" + recvTypeString(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.ParenExpr:
		return recvTypeString(t.X)
	case *ast.IndexExpr:
		return recvTypeString(t.X) + "[" + recvTypeString(t.Index) + "]"
	case *ast.IndexListExpr:
		params := make([]string, 0, len(t.Indices))
		for _, idx := range t.Indices {
			params = append(params, recvTypeString(idx))
		}
		return recvTypeString(t.X) + "[" + strings.Join(params, ", ") + "]"
	default:
		return "?"
	}
}

func goParseError(path string, err error) error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		return &ParseError{
			File:    path,
			Line:    first.Pos.Line,
			Column:  first.Pos.Column,
			Message: first.Msg,
		}
	}
	return &ParseError{File: path, Message: err.Error()}
}
