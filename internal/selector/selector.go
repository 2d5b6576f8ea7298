// Package selector decides which source files take part in a report.
package selector

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/unbound-force/crapreport/internal/lang"
)

// Policy is the file-selection policy.
type Policy struct {
	// Extensions lists accepted source extensions, e.g. ".py".
	Extensions []string

	// Include, when non-empty, restricts selection to paths matching
	// at least one glob.
	Include []string

	// Exclude drops paths matching any glob.
	Exclude []string

	// Root makes globs match paths relative to it. Paths outside Root
	// are matched as given.
	Root string
}

// New builds a policy for the given languages and validates globs.
func New(langs []lang.Language, include, exclude []string, root string) (Policy, error) {
	p := Policy{Include: include, Exclude: exclude, Root: root}
	for _, l := range langs {
		if ext := l.Extension(); ext != "" && !slices.Contains(p.Extensions, ext) {
			p.Extensions = append(p.Extensions, ext)
		}
	}
	for _, pattern := range slices.Concat(include, exclude) {
		if !doublestar.ValidatePattern(pattern) {
			return Policy{}, fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	return p, nil
}

// Allow reports whether path should be analyzed.
//
// Logic:
//  1. A base name containing "test" (any case) is never analyzed.
//  2. The path must end in one of Extensions.
//  3. If Include patterns are set, the path must match at least one.
//  4. If the path matches any Exclude pattern, it is excluded.
func (p Policy) Allow(path string) bool {
	base := filepath.Base(path)
	if strings.Contains(strings.ToLower(base), "test") {
		return false
	}
	if !slices.ContainsFunc(p.Extensions, func(ext string) bool {
		return strings.HasSuffix(path, ext)
	}) {
		return false
	}

	rel := p.relative(path)
	if len(p.Include) > 0 && !slices.ContainsFunc(p.Include, func(pattern string) bool {
		return matchGlob(pattern, rel)
	}) {
		return false
	}
	return !slices.ContainsFunc(p.Exclude, func(pattern string) bool {
		return matchGlob(pattern, rel)
	})
}

func (p Policy) relative(path string) string {
	if p.Root != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(p.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

// matchGlob matches a slash-separated path against a doublestar
// pattern. Patterns without a separator also match the base name, so
// "*_pb2.py" excludes generated files in any directory.
func matchGlob(pattern, rel string) bool {
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		ok, _ := doublestar.Match(pattern, filepath.Base(filepath.FromSlash(rel)))
		return ok
	}
	return false
}
