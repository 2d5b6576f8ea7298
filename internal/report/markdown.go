package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/unbound-force/crapreport/internal/aggregate"
)

// WriteMarkdown writes the rankings as GitHub-flavoured Markdown
// tables, suitable for pull request comments.
func WriteMarkdown(w io.Writer, r *Report) error {
	fmt.Fprintln(w, "# CRAP report")
	fmt.Fprintln(w)

	if len(r.Rankings.Functions) == 0 {
		fmt.Fprintln(w, "No functions analyzed.")
		writeMarkdownSkipped(w, r)
		return nil
	}

	fmt.Fprintf(w, "## %s\n\n", title("CRAP by Function", r.Rankings.TopN))
	rows := make([][]string, 0, len(r.Rankings.Functions))
	for _, f := range r.Rankings.Functions {
		rows = append(rows, []string{
			fmt.Sprintf("%.1f", f.CRAP),
			string(aggregate.SeverityOf(f.CRAP)),
			fmt.Sprintf("%d", f.Complexity),
			fmt.Sprintf("%.1f%%", f.Coverage),
			"`" + f.Name + "`",
			fmt.Sprintf("%s:%d", displayPath(f.File, r.Root), f.StartLine),
		})
	}
	markdownTable(w, []string{"CRAP", "Severity", "CC", "Coverage", "Function", "Location"}, rows)

	for _, section := range []struct {
		heading string
		scope   string
		sums    []aggregate.Summary
	}{
		{"CRAP by File", "File", r.Rankings.Files},
		{"CRAP by Folder", "Folder", r.Rankings.Folders},
	} {
		fmt.Fprintf(w, "\n## %s\n\n", section.heading)
		rows := make([][]string, 0, len(section.sums))
		for _, s := range section.sums {
			rows = append(rows, []string{
				fmt.Sprintf("%.1f", s.MaxCRAP),
				string(aggregate.SeverityOf(s.MaxCRAP)),
				fmt.Sprintf("%d", s.AboveThreshold),
				fmt.Sprintf("%d", s.Functions),
				displayPath(s.Scope, r.Root),
			})
		}
		markdownTable(w, []string{"Max CRAP", "Severity", "Above", "Functions", section.scope}, rows)
	}

	t := r.Totals
	fmt.Fprintf(w, "\n%d functions in %d files, average CRAP %.1f, CRAPload %d at threshold %g.\n",
		t.Functions, t.Files, t.AvgCRAP, t.CRAPload, r.Rankings.Threshold)
	writeMarkdownSkipped(w, r)
	return nil
}

func markdownTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.AppendBulk(rows)
	table.Render()
}

func writeMarkdownSkipped(w io.Writer, r *Report) {
	if len(r.Skipped) == 0 {
		return
	}
	fmt.Fprintf(w, "\n## Skipped files (%d)\n\n", len(r.Skipped))
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "- `%s`: %s\n", displayPath(s.File, r.Root), s.Reason)
	}
}
