// Package crap computes CRAP (Change Risk Anti-Patterns) scores per
// function by combining cyclomatic complexity with line coverage.
//
// The CRAP formula: CRAP(m) = comp^2 * (1 - cov/100)^3 + comp
// where comp = cyclomatic complexity and cov = coverage percentage.
package crap

import (
	"math"
)

// FunctionScore is the CRAP score of one function.
type FunctionScore struct {
	// Name is the function name as reported by the line mapper.
	Name string `json:"name"`

	// File is the source file path, in the coverage data's convention.
	File string `json:"file"`

	// StartLine and EndLine bound the function (1-based, inclusive).
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`

	// Complexity is the cyclomatic complexity, 0 when the analyzer
	// reported nothing for StartLine.
	Complexity int `json:"complexity"`

	// Coverage is the percentage (0-100) of the function's lines that
	// were executed.
	Coverage float64 `json:"coverage"`

	// CRAP is the score computed by Formula.
	CRAP float64 `json:"crap"`

	// Matched reports whether a complexity value was found.
	Matched bool `json:"matched"`
}

// Unmatched records a function whose start line had no complexity
// entry. Its score was computed with complexity 0.
type Unmatched struct {
	File      string `json:"file"`
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
}

// Formula computes CRAP(m) = comp^2 * (1 - cov/100)^3 + comp.
// comp is cyclomatic complexity (>= 0).
// coveragePct is line coverage as a percentage (0-100).
func Formula(complexity int, coveragePct float64) float64 {
	comp := float64(complexity)
	uncov := 1.0 - coveragePct/100.0
	return comp*comp*math.Pow(uncov, 3) + comp
}

// CoveragePercent returns 100*covered/total with total floored at 1.
func CoveragePercent(covered, total int) float64 {
	total = max(1, total)
	return 100 * float64(covered) / float64(total)
}
