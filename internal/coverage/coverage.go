// Package coverage loads line-level coverage data produced by test
// runs and exposes, per file, the set of executed line numbers.
//
// Supported inputs are Go cover profiles (go test -coverprofile),
// coverage.py data files (.coverage), coverage.py JSON reports
// (coverage json) and LCOV tracefiles.
package coverage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Lines is a set of 1-based executed line numbers.
type Lines map[int]struct{}

// NewLines builds a set from line numbers.
func NewLines(lines ...int) Lines {
	l := make(Lines, len(lines))
	for _, n := range lines {
		l.Add(n)
	}
	return l
}

// Add marks line as executed. Non-positive lines are ignored.
func (l Lines) Add(line int) {
	if line > 0 {
		l[line] = struct{}{}
	}
}

// Has reports whether line was executed.
func (l Lines) Has(line int) bool {
	_, ok := l[line]
	return ok
}

// CountIn returns how many lines in [start, end] were executed.
func (l Lines) CountIn(start, end int) int {
	n := 0
	if end-start+1 > len(l) {
		for line := range l {
			if line >= start && line <= end {
				n++
			}
		}
		return n
	}
	for line := start; line <= end; line++ {
		if l.Has(line) {
			n++
		}
	}
	return n
}

// Sorted returns the executed lines in ascending order.
func (l Lines) Sorted() []int {
	out := make([]int, 0, len(l))
	for line := range l {
		out = append(out, line)
	}
	slices.Sort(out)
	return out
}

// Profile maps a file path to its executed lines. Paths follow the
// convention of the coverage source after resolution.
type Profile map[string]Lines

// Files returns the profile's file paths in sorted order.
func (p Profile) Files() []string {
	files := make([]string, 0, len(p))
	for f := range p {
		files = append(files, f)
	}
	slices.Sort(files)
	return files
}

// lines returns the set for file, creating it when absent.
func (p Profile) lines(file string) Lines {
	l, ok := p[file]
	if !ok {
		l = make(Lines)
		p[file] = l
	}
	return l
}

// Format identifies a coverage file format.
type Format string

const (
	FormatAuto       Format = ""
	FormatGo         Format = "go"
	FormatCoveragePy Format = "coveragepy"
	FormatCoverageDB Format = "coveragedb"
	FormatLCOV       Format = "lcov"
)

// ErrUnknownFormat is returned when the format cannot be detected.
var ErrUnknownFormat = errors.New("unrecognized coverage format")

// ParseFormat converts a format name from a flag or config file.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatAuto, "auto":
		return FormatAuto, nil
	case FormatGo, FormatCoveragePy, FormatCoverageDB, FormatLCOV:
		return f, nil
	case "json", "coverage.py":
		return FormatCoveragePy, nil
	case "sqlite", ".coverage":
		return FormatCoverageDB, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Options configures Load.
type Options struct {
	// Format forces the input format. FormatAuto sniffs the content.
	Format Format

	// Dir is the directory relative paths are resolved against. For
	// Go profiles it is the module root holding go.mod. Defaults to
	// the working directory for Go profiles and to leaving relative
	// paths untouched otherwise.
	Dir string
}

// Load reads a coverage file and returns its executed lines per file.
func Load(path string, opts Options) (Profile, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("coverage file %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("coverage file %q is a directory, not a file", path)
	}

	format := opts.Format
	if format == FormatAuto {
		format, err = DetectFormat(path)
		if err != nil {
			return nil, err
		}
	}

	switch format {
	case FormatGo:
		return LoadGoProfile(path, opts.Dir)
	case FormatCoveragePy:
		return LoadCoveragePy(path, opts.Dir)
	case FormatCoverageDB:
		return LoadCoverageDB(path, opts.Dir)
	case FormatLCOV:
		return LoadLCOV(path, opts.Dir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DetectFormat sniffs the SQLite header or the first meaningful line
// of a coverage file.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatAuto, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if head, _ := br.Peek(len(sqliteHeader)); bytes.Equal(head, sqliteHeader) {
		return FormatCoverageDB, nil
	}

	scanner := bufio.NewScanner(br)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		switch {
		case bytes.HasPrefix(line, []byte("mode:")):
			return FormatGo, nil
		case line[0] == '{':
			return FormatCoveragePy, nil
		case bytes.HasPrefix(line, []byte("TN:")), bytes.HasPrefix(line, []byte("SF:")):
			return FormatLCOV, nil
		}
		break
	}
	if err := scanner.Err(); err != nil {
		return FormatAuto, err
	}
	return FormatAuto, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// resolve joins a relative path onto dir when dir is set.
func resolve(path, dir string) string {
	if dir == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}
