package crap

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/unbound-force/crapreport/internal/complexity"
	"github.com/unbound-force/crapreport/internal/coverage"
	"github.com/unbound-force/crapreport/internal/lang"
	"github.com/unbound-force/crapreport/internal/linemap"
)

// ErrGenerated is returned for Go files carrying a generated-code
// header when the calculator is configured to ignore them.
var ErrGenerated = errors.New("generated file")

// FileResult holds the scores of one file in mapper order.
type FileResult struct {
	File      string          `json:"file"`
	Language  lang.Language   `json:"language"`
	Scores    []FunctionScore `json:"scores"`
	Unmatched []Unmatched     `json:"unmatched,omitempty"`
}

// Calculator scores the functions of a single file. The zero value
// dispatches mapper and analyzer by file extension.
type Calculator struct {
	// Mapper and Analyzer replace extension-based dispatch when set.
	Mapper   linemap.Mapper
	Analyzer complexity.Analyzer

	// IgnoreGenerated makes Go files with a
	// "// Code generated ... DO NOT EDIT." header fail with ErrGenerated.
	IgnoreGenerated bool
}

// Calculate reads path once and scores every function in it against
// the executed lines in covered.
func (c *Calculator) Calculate(path string, covered coverage.Lines) (*FileResult, error) {
	if _, _, err := c.collaborators(path); err != nil {
		return nil, err
	}
	src, err := linemap.ReadSource(path)
	if err != nil {
		return nil, err
	}
	return c.CalculateSource(path, src, covered)
}

// CalculateSource scores in-memory program text. path is used for
// language dispatch and is carried into every score unchanged.
func (c *Calculator) CalculateSource(path string, src []byte, covered coverage.Lines) (*FileResult, error) {
	m, a, err := c.collaborators(path)
	if err != nil {
		return nil, err
	}
	l := lang.Detect(path)
	if c.IgnoreGenerated && l == lang.Go && isGenerated(src) {
		return nil, fmt.Errorf("%s: %w", path, ErrGenerated)
	}

	ranges, err := m.Map(path, src)
	if err != nil {
		return nil, err
	}

	// Analyzer failures mean "no data": every function falls back to
	// complexity 0 and is listed as unmatched.
	var byLine map[int]int
	if stats, err := a.Analyze(path, src); err == nil {
		byLine = complexity.ByLine(stats)
	}

	res := &FileResult{
		File:     path,
		Language: l,
		Scores:   make([]FunctionScore, 0, len(ranges)),
	}
	for _, r := range ranges {
		pct := CoveragePercent(covered.CountIn(r.StartLine, r.EndLine), r.Lines())
		cc, ok := byLine[r.StartLine]
		if !ok {
			res.Unmatched = append(res.Unmatched, Unmatched{
				File:      path,
				Name:      r.Name,
				StartLine: r.StartLine,
			})
		}
		res.Scores = append(res.Scores, FunctionScore{
			Name:       r.Name,
			File:       path,
			StartLine:  r.StartLine,
			EndLine:    r.EndLine,
			Complexity: cc,
			Coverage:   pct,
			CRAP:       Formula(cc, pct),
			Matched:    ok,
		})
	}
	return res, nil
}

func (c *Calculator) collaborators(path string) (linemap.Mapper, complexity.Analyzer, error) {
	l := lang.Detect(path)
	m := c.Mapper
	if m == nil {
		var err error
		if m, err = linemap.For(l); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	a := c.Analyzer
	if a == nil {
		var err error
		if a, err = complexity.For(l); err != nil {
			return nil, nil, fmt.Errorf("%s: %w: %v", path, linemap.ErrUnsupported, err)
		}
	}
	return m, a, nil
}

// generatedRegexp matches the Go convention for generated file headers:
// "^// Code generated .* DO NOT EDIT\.$"
var generatedRegexp = regexp.MustCompile(`^// Code generated .* DO NOT EDIT\.$`)

// isGenerated looks for the generated-code comment before the package
// clause.
func isGenerated(src []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(src))
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(trimmed, "package ") {
			return false
		}
		if generatedRegexp.MatchString(trimmed) {
			return true
		}
	}
	return false
}
