package coverage

import (
	"encoding/json"
	"fmt"
	"os"
)

// coveragePyReport is the subset of `coverage json` output we read.
type coveragePyReport struct {
	Files map[string]struct {
		ExecutedLines []int `json:"executed_lines"`
	} `json:"files"`
}

// LoadCoveragePy reads a coverage.py JSON report. Relative file keys
// are joined onto dir when dir is non-empty.
func LoadCoveragePy(path, dir string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report coveragePyReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing coverage.py report %s: %w", path, err)
	}
	if report.Files == nil {
		return nil, fmt.Errorf("parsing coverage.py report %s: missing \"files\" object", path)
	}

	out := make(Profile, len(report.Files))
	for file, entry := range report.Files {
		lines := out.lines(resolve(file, dir))
		for _, n := range entry.ExecutedLines {
			lines.Add(n)
		}
	}
	return out, nil
}
