package coverage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadLCOV reads an LCOV tracefile. Only SF and DA records are used;
// a DA record with a positive hit count marks its line executed.
func LoadLCOV(path, dir string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ParseLCOV(f, dir)
	if err != nil {
		return nil, fmt.Errorf("parsing lcov %s: %w", path, err)
	}
	return p, nil
}

// ParseLCOV parses LCOV records from r.
func ParseLCOV(r io.Reader, dir string) (Profile, error) {
	out := make(Profile)
	var current Lines

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "SF:"):
			current = out.lines(resolve(strings.TrimPrefix(line, "SF:"), dir))
		case line == "end_of_record":
			current = nil
		case strings.HasPrefix(line, "DA:"):
			if current == nil {
				return nil, fmt.Errorf("line %d: DA record outside of SF block", lineNo)
			}
			fields := strings.Split(strings.TrimPrefix(line, "DA:"), ",")
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: malformed DA record %q", lineNo, line)
			}
			n, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad line number: %w", lineNo, err)
			}
			hits, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad hit count: %w", lineNo, err)
			}
			if hits > 0 {
				current.Add(n)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
