package coverage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/cover"
)

// LoadGoProfile reads a Go cover profile. Every line spanned by a
// block with a non-zero count is executed. Import-path file names
// are resolved to filesystem paths using the go.mod in moduleDir.
// Files that cannot be located on disk are dropped.
func LoadGoProfile(path, moduleDir string) (Profile, error) {
	profiles, err := cover.ParseProfiles(path)
	if err != nil {
		return nil, fmt.Errorf("parsing go cover profile: %w", err)
	}

	if moduleDir == "" {
		moduleDir, _ = os.Getwd()
	}
	modulePath := readModulePath(moduleDir)

	out := make(Profile, len(profiles))
	for _, p := range profiles {
		file := resolveFilePath(p.FileName, moduleDir, modulePath)
		if file == "" {
			continue
		}
		lines := out.lines(file)
		for _, b := range p.Blocks {
			if b.Count == 0 {
				continue
			}
			for line := b.StartLine; line <= b.EndLine; line++ {
				lines.Add(line)
			}
		}
	}
	return out, nil
}

// resolveFilePath maps a profile file name to a path on disk. Profiles
// normally use import paths such as "example.com/m/pkg/file.go";
// absolute and module-relative names are accepted as well.
func resolveFilePath(profileName, moduleDir, modulePath string) string {
	if filepath.IsAbs(profileName) {
		if _, err := os.Stat(profileName); err == nil {
			return profileName
		}
	}

	if modulePath != "" && strings.HasPrefix(profileName, modulePath+"/") {
		rel := strings.TrimPrefix(profileName, modulePath+"/")
		abs := filepath.Join(moduleDir, filepath.FromSlash(rel))
		if _, err := os.Stat(abs); err == nil {
			return abs
		}
	}

	if !filepath.IsAbs(profileName) {
		abs := filepath.Join(moduleDir, filepath.FromSlash(profileName))
		if _, err := os.Stat(abs); err == nil {
			return abs
		}
	}
	return ""
}

// readModulePath returns the module path declared in dir/go.mod, or
// "" when there is none.
func readModulePath(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

// HasGoModule reports whether dir contains a go.mod.
func HasGoModule(dir string) bool {
	return readModulePath(dir) != ""
}

// TestRunError reports a go test invocation that exited non-zero.
// A profile may still have been written for the packages that built.
type TestRunError struct {
	Err    error
	Output string
}

func (e *TestRunError) Error() string {
	return fmt.Sprintf("go test failed: %v\n%s", e.Err, e.Output)
}

func (e *TestRunError) Unwrap() error { return e.Err }

// GenerateGoProfile runs go test with coverage enabled in moduleDir and
// returns the path of the temporary profile it wrote. The caller owns
// the file. When the tests fail but a profile was still produced, the
// path is returned together with a *TestRunError.
func GenerateGoProfile(ctx context.Context, moduleDir string, patterns []string) (string, error) {
	tmpFile, err := os.CreateTemp("", "crapreport-cover-*.out")
	if err != nil {
		return "", fmt.Errorf("creating temp cover profile: %w", err)
	}
	profilePath := tmpFile.Name()
	tmpFile.Close()

	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	// go test does not accept a "--" separator before patterns.
	args := []string{"test", "-coverprofile=" + profilePath}
	args = append(args, patterns...)

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = moduleDir
	output, runErr := cmd.CombinedOutput()
	if runErr == nil {
		return profilePath, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && profileWritten(profilePath) {
		return profilePath, &TestRunError{Err: runErr, Output: string(output)}
	}
	os.Remove(profilePath)
	return "", &TestRunError{Err: runErr, Output: string(output)}
}

func profileWritten(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
