package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unbound-force/crapreport/internal/config"
)

const modelsPy = `def area(w, h):
    if w < 0 or h < 0:
        raise ValueError("negative")
    return w * h


class Shape:
    def describe(self):
        return "shape"
`

const utilPy = `def risky(x):
    for i in range(x):
        if i % 2:
            print(i)
        elif i % 3:
            print(-i)
    return x
`

const coverageJSON = `{
  "meta": {"version": "7.4.0"},
  "files": {
    "app/models.py": {"executed_lines": [1, 2, 4]},
    "app/sub/util.py": {"executed_lines": []},
    "app/test_models.py": {"executed_lines": [1]},
    "app/broken.py": {"executed_lines": [1]}
  }
}`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func pythonProject(t *testing.T) string {
	return writeTree(t, map[string]string{
		"app/models.py":      modelsPy,
		"app/sub/util.py":    utilPy,
		"app/test_models.py": "def test_area():\n    assert True\n",
		"app/broken.py":      "def broken(:\n",
		"coverage.json":      coverageJSON,
	})
}

func pythonConfig(format string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.CoverProfile = "coverage.json"
	cfg.Format = format
	return cfg
}

// jsonReport mirrors the parts of the JSON output the tests inspect.
type jsonReport struct {
	Rankings struct {
		Functions []struct {
			Name       string  `json:"name"`
			File       string  `json:"file"`
			Complexity int     `json:"complexity"`
			Coverage   float64 `json:"coverage"`
			CRAP       float64 `json:"crap"`
		} `json:"functions"`
		Files []struct {
			Scope string `json:"scope"`
		} `json:"files"`
		Folders []struct {
			Scope          string  `json:"scope"`
			MaxCRAP        float64 `json:"max_crap"`
			AboveThreshold int     `json:"above_threshold"`
		} `json:"folders"`
	} `json:"rankings"`
	Totals struct {
		Functions int `json:"functions"`
		Files     int `json:"files"`
		Skipped   int `json:"skipped"`
	} `json:"totals"`
	Skipped []struct {
		File   string `json:"file"`
		Reason string `json:"reason"`
	} `json:"skipped"`
}

func runJSON(t *testing.T, p reportParams) jsonReport {
	t.Helper()
	var stdout, stderr bytes.Buffer
	p.stdout, p.stderr = &stdout, &stderr
	if err := runReport(p); err != nil {
		t.Fatalf("runReport() failed: %v", err)
	}
	var parsed jsonReport
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput:\n%s", err, stdout.String())
	}
	return parsed
}

// ---------------------------------------------------------------------------
// runReport tests
// ---------------------------------------------------------------------------

func TestRunReport_InvalidFormat(t *testing.T) {
	err := runReport(reportParams{
		cfg:    pythonConfig("yaml"),
		dir:    t.TempDir(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), `"yaml"`) {
		t.Errorf("unexpected error message: %s", err)
	}
}

func TestRunReport_NoCoverageOutsideGoModule(t *testing.T) {
	cfg := config.DefaultConfig()
	err := runReport(reportParams{
		cfg:    cfg,
		dir:    t.TempDir(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	})
	if err == nil || !strings.Contains(err.Error(), "no coverage file") {
		t.Fatalf("expected missing coverage error, got %v", err)
	}
}

func TestRunReport_MissingCoverageFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CoverProfile = "nope.json"
	err := runReport(reportParams{
		cfg:    cfg,
		dir:    t.TempDir(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected error for missing coverage file")
	}
}

func TestRunReport_PythonJSON(t *testing.T) {
	dir := pythonProject(t)
	got := runJSON(t, reportParams{cfg: pythonConfig("json"), dir: dir})

	fns := got.Rankings.Functions
	if len(fns) != 3 {
		t.Fatalf("expected 3 functions, got %d: %+v", len(fns), fns)
	}
	if fns[0].Name != "risky" || fns[0].Complexity != 4 || fns[0].CRAP != 20 {
		t.Errorf("expected risky (cc 4, crap 20) first, got %+v", fns[0])
	}
	if fns[1].Name != "area" || fns[1].Coverage != 75 {
		t.Errorf("expected area at 75%% coverage second, got %+v", fns[1])
	}
	if fns[2].Name != "describe" {
		t.Errorf("expected describe last, got %+v", fns[2])
	}
	if want := filepath.Join(dir, "app", "sub", "util.py"); fns[0].File != want {
		t.Errorf("expected file %q, got %q", want, fns[0].File)
	}

	if len(got.Rankings.Files) != 2 {
		t.Errorf("expected 2 files, got %+v", got.Rankings.Files)
	}
	folders := got.Rankings.Folders
	if len(folders) != 2 || folders[0].Scope != filepath.Join(dir, "app", "sub") || folders[1].Scope != filepath.Join(dir, "app") {
		t.Errorf("expected folders app/sub then app, got %+v", folders)
	}

	// The test module is filtered out; the broken file is skipped but
	// does not fail the command.
	if got.Totals.Functions != 3 || got.Totals.Files != 2 || got.Totals.Skipped != 1 {
		t.Errorf("unexpected totals %+v", got.Totals)
	}
	if len(got.Skipped) != 1 || got.Skipped[0].Reason != "parse_error" {
		t.Errorf("expected broken.py skipped as parse_error, got %+v", got.Skipped)
	}
}

func TestRunReport_ThresholdAndTopN(t *testing.T) {
	dir := pythonProject(t)
	cfg := pythonConfig("json")
	cfg.Threshold = 20
	cfg.TopN = 1

	got := runJSON(t, reportParams{cfg: cfg, dir: dir})
	if len(got.Rankings.Functions) != 1 || len(got.Rankings.Files) != 1 || len(got.Rankings.Folders) != 1 {
		t.Fatalf("expected one row per ranking, got %+v", got.Rankings)
	}
	if got.Rankings.Folders[0].AboveThreshold != 1 {
		t.Errorf("expected crap 20 to count at threshold 20, got %+v", got.Rankings.Folders[0])
	}
}

func TestRunReport_PathArguments(t *testing.T) {
	dir := pythonProject(t)
	got := runJSON(t, reportParams{cfg: pythonConfig("json"), dir: dir, args: []string{"app/sub"}})

	if len(got.Rankings.Functions) != 1 || got.Rankings.Functions[0].Name != "risky" {
		t.Errorf("expected only risky, got %+v", got.Rankings.Functions)
	}
}

func TestRunReport_ExcludeGlob(t *testing.T) {
	dir := pythonProject(t)
	cfg := pythonConfig("json")
	cfg.Exclude = []string{"app/sub/**"}

	got := runJSON(t, reportParams{cfg: cfg, dir: dir})
	for _, f := range got.Rankings.Functions {
		if f.Name == "risky" {
			t.Errorf("expected app/sub to be excluded, got %+v", got.Rankings.Functions)
		}
	}
}

func TestRunReport_TextFormat(t *testing.T) {
	dir := pythonProject(t)
	var stdout, stderr bytes.Buffer
	err := runReport(reportParams{
		cfg:      pythonConfig("text"),
		dir:      dir,
		progress: true,
		stdout:   &stdout,
		stderr:   &stderr,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"CRAP by Function", "CRAP by File", "CRAP by Folder", "risky", "app/sub/util.py:1", "app/broken.py"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRunReport_MarkdownFormat(t *testing.T) {
	dir := pythonProject(t)
	var stdout bytes.Buffer
	err := runReport(reportParams{
		cfg:    pythonConfig("markdown"),
		dir:    dir,
		stdout: &stdout,
		stderr: &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "## CRAP by Folder") {
		t.Errorf("expected markdown headings, got:\n%s", stdout.String())
	}
}

func TestRunReport_NothingToScore(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"coverage.json": `{"files": {}}`,
	})
	var stdout bytes.Buffer
	err := runReport(reportParams{
		cfg:    pythonConfig("text"),
		dir:    dir,
		stdout: &stdout,
		stderr: &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "No functions analyzed.") {
		t.Errorf("expected empty notice, got:\n%s", stdout.String())
	}
}

const calcGo = `package calc

func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
`

func goProject(t *testing.T) string {
	return writeTree(t, map[string]string{
		"go.mod":            "module example.com/demo\n\ngo 1.21\n",
		"calc/calc.go":      calcGo,
		"calc/calc_test.go": "package calc\n",
		"util/util.go":      "package util\n\nfunc Nop() {}\n",
		"cover.out": "mode: set\n" +
			"example.com/demo/calc/calc.go:3.21,4.11 1 1\n" +
			"example.com/demo/calc/calc.go:4.11,6.3 1 0\n" +
			"example.com/demo/calc/calc.go:7.2,7.10 1 1\n" +
			"example.com/demo/util/util.go:3.13,3.15 0 0\n",
	})
}

func TestRunReport_GoProfile(t *testing.T) {
	dir := goProject(t)
	cfg := config.DefaultConfig()
	cfg.CoverProfile = "cover.out"
	cfg.Format = "json"

	got := runJSON(t, reportParams{cfg: cfg, dir: dir})
	fns := got.Rankings.Functions
	if len(fns) != 2 {
		t.Fatalf("expected Abs and Nop, got %+v", fns)
	}
	if fns[0].Name != "Abs" || fns[0].Complexity != 2 || fns[0].Coverage != 50 || fns[0].CRAP != 2.5 {
		t.Errorf("unexpected Abs score %+v", fns[0])
	}
}

func TestRunReport_GoPackageArguments(t *testing.T) {
	dir := goProject(t)
	cfg := config.DefaultConfig()
	cfg.CoverProfile = "cover.out"
	cfg.Format = "json"

	got := runJSON(t, reportParams{cfg: cfg, dir: dir, args: []string{"./util"}})
	fns := got.Rankings.Functions
	if len(fns) != 1 || fns[0].Name != "Nop" {
		t.Errorf("expected only Nop, got %+v", fns)
	}
}

func TestGoPatterns(t *testing.T) {
	if got := goPatterns(nil); len(got) != 1 || got[0] != "./..." {
		t.Errorf("expected default ./..., got %v", got)
	}
	got := goPatterns([]string{"./internal/...", "scripts/run.py"})
	if len(got) != 1 || got[0] != "./internal/..." {
		t.Errorf("expected python paths dropped, got %v", got)
	}
}

// ---------------------------------------------------------------------------
// config resolution tests
// ---------------------------------------------------------------------------

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	dir := writeTree(t, map[string]string{
		".crapreport.yaml": "top_n: 7\nthreshold: 12\nformat: markdown\n",
	})

	cmd := newReportCmd()
	if err := cmd.Flags().Set("top-n", "3"); err != nil {
		t.Fatal(err)
	}
	cfg, err := resolveConfig(cmd, dir, reportFlags{topN: 3, threshold: 99})
	if err != nil {
		t.Fatalf("resolveConfig() failed: %v", err)
	}
	if cfg.TopN != 3 {
		t.Errorf("expected flag top-n 3, got %d", cfg.TopN)
	}
	if cfg.Threshold != 12 {
		t.Errorf("expected file threshold 12 (flag not set), got %v", cfg.Threshold)
	}
	if cfg.Format != "markdown" {
		t.Errorf("expected file format markdown, got %q", cfg.Format)
	}
}

func TestResolveConfig_ExplicitPath(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"ci.toml": "top_n = 0\n",
	})

	cmd := newReportCmd()
	cfg, err := resolveConfig(cmd, t.TempDir(), reportFlags{configPath: filepath.Join(dir, "ci.toml")})
	if err != nil {
		t.Fatalf("resolveConfig() failed: %v", err)
	}
	if cfg.TopN != 0 {
		t.Errorf("expected top_n 0 from explicit config, got %d", cfg.TopN)
	}
}

// ---------------------------------------------------------------------------
// schema and init tests
// ---------------------------------------------------------------------------

func TestSchemaCmd_OutputsValidJSON(t *testing.T) {
	var stdout bytes.Buffer
	cmd := newSchemaCmd()
	cmd.SetOut(&stdout)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("schema command failed: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("schema output is not valid JSON: %v", err)
	}
	if parsed["title"] != "CRAP Report" {
		t.Errorf("unexpected schema title %v", parsed["title"])
	}
}

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer

	if err := runInit(initParams{dir: dir, stdout: &stdout}); err != nil {
		t.Fatalf("runInit() failed: %v", err)
	}
	path := filepath.Join(dir, ".crapreport.yaml")
	if !strings.Contains(stdout.String(), path) {
		t.Errorf("expected confirmation with path, got %q", stdout.String())
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.TopN != 20 || cfg.Threshold != 30 {
		t.Errorf("expected defaults in written config, got %+v", cfg)
	}

	if err := runInit(initParams{dir: dir, stdout: &stdout}); err == nil {
		t.Error("expected refusal to overwrite without --force")
	}
	if err := runInit(initParams{dir: dir, force: true, stdout: &stdout}); err != nil {
		t.Errorf("expected --force to overwrite, got %v", err)
	}
}
