package crap

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/unbound-force/crapreport/internal/coverage"
	"github.com/unbound-force/crapreport/internal/linemap"
)

// DefaultWorkerMultiplier is applied to NumCPU when Options.Workers
// is not set.
const DefaultWorkerMultiplier = 2

// Options configures a batch analysis.
type Options struct {
	// Workers bounds concurrent file scoring. <= 0 means
	// DefaultWorkerMultiplier * NumCPU.
	Workers int

	// Filter, when set, drops files for which it returns false
	// before any work is scheduled.
	Filter func(path string) bool

	// OnProgress is called once per scored or skipped file. It may be
	// called from several goroutines but never concurrently.
	OnProgress func()

	// IgnoreGenerated skips Go files with a generated-code header.
	// Default: true.
	IgnoreGenerated bool
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{IgnoreGenerated: true}
}

// SkipReason classifies why a file was not scored.
type SkipReason string

const (
	SkipParseError  SkipReason = "parse_error"
	SkipNotFound    SkipReason = "not_found"
	SkipUnsupported SkipReason = "unsupported"
	SkipGenerated   SkipReason = "generated"
	SkipOther       SkipReason = "error"
)

// Skipped records a file the batch could not score.
type Skipped struct {
	File    string     `json:"file"`
	Reason  SkipReason `json:"reason"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
}

// Result is the deterministic join of every per-file result.
type Result struct {
	// Scores lists all function scores, files in sorted path order and
	// functions in mapper order within a file.
	Scores []FunctionScore `json:"scores"`

	// Files is the number of files that were scored.
	Files int `json:"files"`

	Unmatched []Unmatched `json:"unmatched"`
	Skipped   []Skipped   `json:"skipped"`
}

// Analyze scores every file in profile that passes opts.Filter.
// Per-file failures are collected in Result.Skipped and never abort
// the batch. Cancelling ctx stops scheduling new files; Analyze then
// returns ctx.Err().
func Analyze(ctx context.Context, profile coverage.Profile, opts Options) (*Result, error) {
	var files []string
	for _, f := range profile.Files() {
		if opts.Filter == nil || opts.Filter(f) {
			files = append(files, f)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	type outcome struct {
		res *FileResult
		err error
	}
	outcomes := make([]outcome, len(files))

	var progressMu sync.Mutex
	progress := func() {
		if opts.OnProgress == nil {
			return
		}
		progressMu.Lock()
		opts.OnProgress()
		progressMu.Unlock()
	}

	p := pool.New().WithMaxGoroutines(workers)
	for i, path := range files {
		if ctx.Err() != nil {
			break
		}
		p.Go(func() {
			defer progress()
			if ctx.Err() != nil {
				return
			}
			calc := Calculator{IgnoreGenerated: opts.IgnoreGenerated}
			res, err := calc.Calculate(path, profile[path])
			outcomes[i] = outcome{res: res, err: err}
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{}
	for i, o := range outcomes {
		if o.err != nil {
			result.Skipped = append(result.Skipped, Skipped{
				File:    files[i],
				Reason:  skipReason(o.err),
				Message: o.err.Error(),
				Err:     o.err,
			})
			continue
		}
		result.Files++
		result.Scores = append(result.Scores, o.res.Scores...)
		result.Unmatched = append(result.Unmatched, o.res.Unmatched...)
	}
	return result, nil
}

func skipReason(err error) SkipReason {
	var perr *linemap.ParseError
	switch {
	case errors.As(err, &perr):
		return SkipParseError
	case errors.Is(err, linemap.ErrNotFound):
		return SkipNotFound
	case errors.Is(err, linemap.ErrUnsupported):
		return SkipUnsupported
	case errors.Is(err, ErrGenerated):
		return SkipGenerated
	default:
		return SkipOther
	}
}
