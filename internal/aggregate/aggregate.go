// Package aggregate ranks function scores and rolls them up into
// per-file and per-folder summaries.
//
// All operations are pure: inputs are never mutated and every call
// recomputes from scratch.
package aggregate

import (
	"path/filepath"
	"slices"

	"github.com/unbound-force/crapreport/internal/crap"
)

// Default values for Options.
const (
	DefaultThreshold = 30.0
	DefaultTopN      = 20
)

// Options carries the reporting parameters.
type Options struct {
	// Threshold is the CRAP value at or above which a function counts
	// toward a summary's AboveThreshold.
	Threshold float64

	// TopN limits every ranking. 0 means unlimited.
	TopN int
}

// DefaultOptions returns threshold 30 and top 20.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, TopN: DefaultTopN}
}

// Summary aggregates the functions of one file or folder.
type Summary struct {
	// Scope is the file path or folder path.
	Scope string `json:"scope"`

	// MaxCRAP is the highest CRAP score among the scope's functions.
	MaxCRAP float64 `json:"max_crap"`

	// AboveThreshold counts functions with CRAP >= threshold.
	AboveThreshold int `json:"above_threshold"`

	// Functions is the number of functions in the scope.
	Functions int `json:"functions"`
}

// Rankings is the output handed to the presentation layer.
type Rankings struct {
	Functions []crap.FunctionScore `json:"functions"`
	Files     []Summary            `json:"files"`
	Folders   []Summary            `json:"folders"`
	Threshold float64              `json:"threshold"`
	TopN      int                  `json:"top_n"`
}

// Rank returns a copy of items sorted by key in descending order and
// truncated to topN (0 or less keeps everything). Equal keys keep
// their input order.
func Rank[T any](items []T, key func(T) float64, topN int) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		ka, kb := key(a), key(b)
		switch {
		case ka > kb:
			return -1
		case ka < kb:
			return 1
		default:
			return 0
		}
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// Group partitions scores by scopeOf and summarizes each partition.
// Groups appear in order of first appearance.
func Group(scores []crap.FunctionScore, scopeOf func(crap.FunctionScore) string, threshold float64) []Summary {
	index := make(map[string]int)
	groups := []Summary{}
	for _, s := range scores {
		scope := scopeOf(s)
		i, ok := index[scope]
		if !ok {
			i = len(groups)
			index[scope] = i
			groups = append(groups, Summary{Scope: scope, MaxCRAP: s.CRAP})
		}
		g := &groups[i]
		g.Functions++
		g.MaxCRAP = max(g.MaxCRAP, s.CRAP)
		if s.CRAP >= threshold {
			g.AboveThreshold++
		}
	}
	return groups
}

// FileOf groups by exact file path.
func FileOf(s crap.FunctionScore) string { return s.File }

// FolderOf groups by the file's immediate parent directory.
func FolderOf(s crap.FunctionScore) string { return filepath.Dir(s.File) }

func byCRAP(s crap.FunctionScore) float64 { return s.CRAP }

func byMaxCRAP(s Summary) float64 { return s.MaxCRAP }

// Functions ranks individual function scores.
func Functions(scores []crap.FunctionScore, opts Options) []crap.FunctionScore {
	return Rank(scores, byCRAP, opts.TopN)
}

// Files ranks per-file summaries by MaxCRAP.
func Files(scores []crap.FunctionScore, opts Options) []Summary {
	return Rank(Group(scores, FileOf, opts.Threshold), byMaxCRAP, opts.TopN)
}

// Folders ranks per-folder summaries by MaxCRAP. A file contributes
// only to its own directory, not to ancestors.
func Folders(scores []crap.FunctionScore, opts Options) []Summary {
	return Rank(Group(scores, FolderOf, opts.Threshold), byMaxCRAP, opts.TopN)
}

// Build computes all three rankings from the same input.
func Build(scores []crap.FunctionScore, opts Options) Rankings {
	return Rankings{
		Functions: Functions(scores, opts),
		Files:     Files(scores, opts),
		Folders:   Folders(scores, opts),
		Threshold: opts.Threshold,
		TopN:      opts.TopN,
	}
}
