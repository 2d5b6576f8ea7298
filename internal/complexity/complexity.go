// Package complexity reports a cyclomatic complexity value per
// function, keyed by the line on which the function starts.
package complexity

import (
	"fmt"

	"github.com/unbound-force/crapreport/internal/lang"
)

// Stat is the complexity of one function.
type Stat struct {
	// Name is the function name as reported by the analyzer.
	Name string `json:"name"`

	// Line is the 1-based line the analyzer considers the function's
	// start. Zero means unknown.
	Line int `json:"line"`

	// Complexity is the cyclomatic complexity. Negative means unknown.
	Complexity int `json:"complexity"`
}

// Known reports whether s carries both a line and a complexity.
func (s Stat) Known() bool {
	return s.Line > 0 && s.Complexity >= 0
}

// Analyzer computes per-function complexity for program text.
type Analyzer interface {
	Analyze(path string, src []byte) ([]Stat, error)
}

// For returns the analyzer for a language.
func For(l lang.Language) (Analyzer, error) {
	switch l {
	case lang.Go:
		return GoAnalyzer{}, nil
	case lang.Python:
		return PythonAnalyzer{}, nil
	default:
		return nil, fmt.Errorf("no complexity analyzer for language %q", l)
	}
}

// ByLine indexes stats by start line. Entries without a line or a
// complexity value are dropped. When two functions share a start line
// the first one wins, so a Go declaration keeps its own value over a
// function literal opened on the same line.
func ByLine(stats []Stat) map[int]int {
	idx := make(map[int]int, len(stats))
	for _, s := range stats {
		if !s.Known() {
			continue
		}
		if _, ok := idx[s.Line]; ok {
			continue
		}
		idx[s.Line] = s.Complexity
	}
	return idx
}
