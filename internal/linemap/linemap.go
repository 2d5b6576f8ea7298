// Package linemap maps source files to the line ranges of the
// functions they define.
//
// Every function definition is reported, at any nesting depth, as a
// flat list in source (pre-order) order. A range starts at the
// function header itself: Go doc comments and Python decorators are
// never part of it.
package linemap

import (
	"fmt"
	"os"

	"github.com/unbound-force/crapreport/internal/lang"
)

// FunctionRange identifies one function occurrence in a file.
type FunctionRange struct {
	// Name is the function name as written in source. Go methods use
	// the "(*T).Name" form and function literals "Outer.funcN".
	Name string `json:"name"`

	// File is the path the range was mapped from.
	File string `json:"file"`

	// StartLine is the 1-based line of the function header.
	StartLine int `json:"start_line"`

	// EndLine is the 1-based line of the last body line (inclusive).
	EndLine int `json:"end_line"`

	// IsMethod reports whether the direct lexical parent is a type
	// (a Go receiver, a Python class body).
	IsMethod bool `json:"is_method"`

	// IsAsync marks Python async functions and Go function literals
	// started with a go statement.
	IsAsync bool `json:"is_async"`
}

// Lines returns the number of lines spanned by r, never less than 1.
func (r FunctionRange) Lines() int {
	return max(1, r.EndLine-r.StartLine+1)
}

// Mapper turns program text into function ranges.
type Mapper interface {
	Map(path string, src []byte) ([]FunctionRange, error)
}

// For returns the mapper for a language.
func For(l lang.Language) (Mapper, error) {
	switch l {
	case lang.Go:
		return GoMapper{}, nil
	case lang.Python:
		return PythonMapper{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, l)
	}
}

// ReadSource reads a source file. Any failure to read (missing file,
// permissions, a directory) is reported as a NotFoundError.
func ReadSource(path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}
	return src, nil
}

// MapFile reads path and maps it with the mapper for its language.
func MapFile(path string) ([]FunctionRange, error) {
	m, err := For(lang.Detect(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	return m.Map(path, src)
}
