// Package report renders CRAP rankings as terminal text, JSON and
// Markdown.
package report

import (
	"path/filepath"
	"strings"

	"github.com/unbound-force/crapreport/internal/aggregate"
	"github.com/unbound-force/crapreport/internal/crap"
)

// Version is the JSON output schema version.
const Version = "1.0.0"

// Report is everything the writers render.
type Report struct {
	Version   string             `json:"version"`
	Rankings  aggregate.Rankings `json:"rankings"`
	Totals    Totals             `json:"totals"`
	Skipped   []crap.Skipped     `json:"skipped"`
	Unmatched []crap.Unmatched   `json:"unmatched"`

	// Root, when set, makes text and markdown output show paths
	// relative to it.
	Root string `json:"-"`
}

// Totals holds aggregate statistics over every scored function,
// independent of TopN.
type Totals struct {
	Functions     int     `json:"functions"`
	Files         int     `json:"files"`
	Skipped       int     `json:"skipped"`
	Unmatched     int     `json:"unmatched"`
	AvgComplexity float64 `json:"avg_complexity"`
	AvgCoverage   float64 `json:"avg_coverage"`
	AvgCRAP       float64 `json:"avg_crap"`
	CRAPload      int     `json:"crapload"`
}

// New builds a report from a batch result.
func New(res *crap.Result, opts aggregate.Options) *Report {
	r := &Report{
		Version:   Version,
		Rankings:  aggregate.Build(res.Scores, opts),
		Totals:    ComputeTotals(res.Scores, opts.Threshold),
		Skipped:   res.Skipped,
		Unmatched: res.Unmatched,
	}
	if r.Skipped == nil {
		r.Skipped = []crap.Skipped{}
	}
	if r.Unmatched == nil {
		r.Unmatched = []crap.Unmatched{}
	}
	r.Totals.Files = res.Files
	r.Totals.Skipped = len(res.Skipped)
	r.Totals.Unmatched = len(res.Unmatched)
	return r
}

// ComputeTotals averages complexity, coverage and CRAP over scores and
// counts the CRAPload at threshold. Files is the number of distinct
// files among scores.
func ComputeTotals(scores []crap.FunctionScore, threshold float64) Totals {
	t := Totals{Functions: len(scores)}
	if len(scores) == 0 {
		return t
	}
	files := make(map[string]struct{})
	var totalComp, totalCov, totalCRAP float64
	for _, s := range scores {
		files[s.File] = struct{}{}
		totalComp += float64(s.Complexity)
		totalCov += s.Coverage
		totalCRAP += s.CRAP
		if s.CRAP >= threshold {
			t.CRAPload++
		}
	}
	n := float64(len(scores))
	t.Files = len(files)
	t.AvgComplexity = totalComp / n
	t.AvgCoverage = totalCov / n
	t.AvgCRAP = totalCRAP / n
	return t
}

// displayPath returns path relative to root when it lies inside root.
func displayPath(path, root string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// truncateLeft keeps the tail of s, which is the informative part of
// a path, prefixing "..." when it had to cut.
func truncateLeft(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-n+3:])
}

// truncateRight keeps the head of s.
func truncateRight(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
