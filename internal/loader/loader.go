// Package loader resolves Go package patterns to the source files a
// report should cover.
package loader

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"
)

// LoadMode is the minimum set of flags needed to list package files.
const LoadMode = packages.NeedName | packages.NeedFiles

// GoFiles loads the packages matched by patterns (relative to dir) and
// returns their absolute, non-test .go file paths, sorted and
// de-duplicated. Packages with load errors make the call fail.
func GoFiles(dir string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	cfg := &packages.Config{
		Mode:  LoadMode,
		Dir:   dir,
		Tests: false,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages %v: %w", patterns, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for patterns %v", patterns)
	}

	var files []string
	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e.Error())
		}
		for _, f := range pkg.GoFiles {
			if !strings.HasSuffix(f, "_test.go") {
				files = append(files, f)
			}
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("packages %v have errors:\n  %s",
			patterns, strings.Join(errs, "\n  "))
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

// Set returns files as a lookup set.
func Set(files []string) map[string]bool {
	set := make(map[string]bool, len(files))
	for _, f := range files {
		set[f] = true
	}
	return set
}
