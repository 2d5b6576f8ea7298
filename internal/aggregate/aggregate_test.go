package aggregate

import (
	"slices"
	"testing"

	"github.com/unbound-force/crapreport/internal/crap"
)

func score(file, name string, crapValue float64) crap.FunctionScore {
	return crap.FunctionScore{Name: name, File: file, CRAP: crapValue}
}

func names(scores []crap.FunctionScore) []string {
	out := make([]string, 0, len(scores))
	for _, s := range scores {
		out = append(out, s.Name)
	}
	return out
}

func scopes(summaries []Summary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.Scope)
	}
	return out
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Threshold != 30 {
		t.Errorf("expected threshold 30, got %v", opts.Threshold)
	}
	if opts.TopN != 20 {
		t.Errorf("expected top-n 20, got %d", opts.TopN)
	}
}

func TestRank_SortsDescendingAndTruncates(t *testing.T) {
	in := []int{3, 9, 1, 7, 5}
	key := func(v int) float64 { return float64(v) }

	tests := []struct {
		topN int
		want []int
	}{
		{0, []int{9, 7, 5, 3, 1}},
		{2, []int{9, 7}},
		{10, []int{9, 7, 5, 3, 1}},
	}
	for _, tt := range tests {
		if got := Rank(in, key, tt.topN); !slices.Equal(got, tt.want) {
			t.Errorf("Rank(topN=%d) = %v, want %v", tt.topN, got, tt.want)
		}
	}
	if !slices.Equal(in, []int{3, 9, 1, 7, 5}) {
		t.Errorf("input must not be mutated, got %v", in)
	}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	in := []crap.FunctionScore{
		score("a.py", "first", 10),
		score("a.py", "big", 50),
		score("b.py", "second", 10),
		score("c.py", "third", 10),
	}
	got := names(Rank(in, func(s crap.FunctionScore) float64 { return s.CRAP }, 0))
	if want := []string{"big", "first", "second", "third"}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRank_Empty(t *testing.T) {
	got := Rank[crap.FunctionScore](nil, func(s crap.FunctionScore) float64 { return s.CRAP }, 5)
	if got == nil || len(got) != 0 {
		t.Errorf("expected non-nil empty slice, got %#v", got)
	}
}

func TestGroup_ThresholdIsInclusive(t *testing.T) {
	in := []crap.FunctionScore{
		score("pkg/f.py", "a", 25),
		score("pkg/f.py", "b", 30),
		score("pkg/f.py", "c", 35),
	}
	got := Group(in, FileOf, 30)
	want := []Summary{{Scope: "pkg/f.py", MaxCRAP: 35, AboveThreshold: 2, Functions: 3}}
	if !slices.Equal(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestGroup_FirstAppearanceOrder(t *testing.T) {
	in := []crap.FunctionScore{
		score("b.py", "x", 1),
		score("a.py", "y", 2),
		score("b.py", "z", 3),
	}
	if got := scopes(Group(in, FileOf, 30)); !slices.Equal(got, []string{"b.py", "a.py"}) {
		t.Errorf("got %v, want [b.py a.py]", got)
	}
}

func TestGroup_ZeroScoresStillGrouped(t *testing.T) {
	in := []crap.FunctionScore{score("a.py", "unmatched", 0)}
	got := Group(in, FileOf, 0)
	want := []Summary{{Scope: "a.py", MaxCRAP: 0, AboveThreshold: 1, Functions: 1}}
	if !slices.Equal(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFolders_SingleLevelParent(t *testing.T) {
	in := []crap.FunctionScore{
		score("pkg/sub/f2.py", "deep", 40),
		score("pkg/f1.py", "shallow", 10),
	}
	got := Folders(in, DefaultOptions())
	if s := scopes(got); !slices.Equal(s, []string{"pkg/sub", "pkg"}) {
		t.Fatalf("got %v, want [pkg/sub pkg]", s)
	}
	if got[0].Functions != 1 || got[1].Functions != 1 {
		t.Errorf("expected one function per folder, got %+v", got)
	}
	if got[1].MaxCRAP != 10 {
		t.Errorf("parent folder must not absorb sub-folder scores, got max %v", got[1].MaxCRAP)
	}
}

func TestFiles_ExactPathKey(t *testing.T) {
	in := []crap.FunctionScore{
		score("pkg/f.py", "a", 5),
		score("./pkg/f.py", "b", 6),
	}
	if got := Files(in, Options{Threshold: 30}); len(got) != 2 {
		t.Errorf("expected 2 distinct files, got %+v", got)
	}
}

func TestBuild_RankingsAndTopN(t *testing.T) {
	in := []crap.FunctionScore{
		score("a/one.py", "low", 2),
		score("a/one.py", "high", 90),
		score("b/two.py", "mid", 20),
		score("c/three.py", "edge", 30),
	}
	snapshot := slices.Clone(in)

	r := Build(in, Options{Threshold: 30, TopN: 2})

	if got := names(r.Functions); !slices.Equal(got, []string{"high", "edge"}) {
		t.Errorf("functions = %v, want [high edge]", got)
	}
	if got := scopes(r.Files); !slices.Equal(got, []string{"a/one.py", "c/three.py"}) {
		t.Errorf("files = %v, want [a/one.py c/three.py]", got)
	}
	if got := scopes(r.Folders); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("folders = %v, want [a c]", got)
	}
	if r.Files[0].AboveThreshold != 1 || r.Files[1].AboveThreshold != 1 {
		t.Errorf("expected one function at or above threshold per file, got %+v", r.Files)
	}
	if r.Threshold != 30 || r.TopN != 2 {
		t.Errorf("expected threshold 30 and top-n 2 carried, got %v and %d", r.Threshold, r.TopN)
	}
	if !slices.Equal(in, snapshot) {
		t.Error("input must not be mutated")
	}

	all := Build(in, Options{Threshold: 30})
	if len(all.Functions) != 4 || len(all.Files) != 3 || len(all.Folders) != 3 {
		t.Errorf("expected unlimited rankings 4/3/3, got %d/%d/%d",
			len(all.Functions), len(all.Files), len(all.Folders))
	}
}

func TestBuild_Empty(t *testing.T) {
	r := Build(nil, DefaultOptions())
	if len(r.Functions) != 0 || len(r.Files) != 0 || len(r.Folders) != 0 {
		t.Errorf("expected empty rankings, got %+v", r)
	}
}

func TestBuild_SingleElement(t *testing.T) {
	r := Build([]crap.FunctionScore{score("x.py", "only", 12)}, DefaultOptions())
	if got := names(r.Functions); !slices.Equal(got, []string{"only"}) {
		t.Errorf("functions = %v", got)
	}
	if got := scopes(r.Files); !slices.Equal(got, []string{"x.py"}) {
		t.Errorf("files = %v", got)
	}
	if got := scopes(r.Folders); !slices.Equal(got, []string{"."}) {
		t.Errorf("folders = %v", got)
	}
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		crap float64
		want Severity
	}{
		{0, SeverityLow},
		{15, SeverityLow},
		{15.01, SeverityMedium},
		{30, SeverityMedium},
		{30.5, SeverityHigh},
		{930, SeverityHigh},
	}
	for _, tt := range tests {
		if got := SeverityOf(tt.crap); got != tt.want {
			t.Errorf("SeverityOf(%v) = %q, want %q", tt.crap, got, tt.want)
		}
	}
}
