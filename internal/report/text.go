package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/crapreport/internal/aggregate"
)

// Column budgets keep every table within an 80-column terminal.
const (
	maxFunctionWidth = 24
	maxLocationWidth = 26
	maxScopeWidth    = 44
)

// WriteText writes the three rankings as styled tables followed by a
// summary and the list of skipped files.
func WriteText(w io.Writer, r *Report) error {
	s := DefaultStyles()

	if len(r.Rankings.Functions) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No functions analyzed."))
		writeSkipped(w, r, s)
		return nil
	}

	writeFunctionTable(w, r, s)
	fmt.Fprintln(w)
	writeSummaryTable(w, "CRAP by File", "FILE", r.Rankings.Files, r.Root, s)
	fmt.Fprintln(w)
	writeSummaryTable(w, "CRAP by Folder", "FOLDER", r.Rankings.Folders, r.Root, s)
	fmt.Fprintln(w)
	writeTotals(w, r, s)
	writeSkipped(w, r, s)
	return nil
}

func writeFunctionTable(w io.Writer, r *Report, s Styles) {
	fns := r.Rankings.Functions
	rows := make([][]string, 0, len(fns))
	for _, f := range fns {
		rows = append(rows, []string{
			fmt.Sprintf("%.1f", f.CRAP),
			fmt.Sprintf("%d", f.Complexity),
			fmt.Sprintf("%.1f%%", f.Coverage),
			truncateRight(f.Name, maxFunctionWidth),
			truncateLeft(fmt.Sprintf("%s:%d", displayPath(f.File, r.Root), f.StartLine), maxLocationWidth),
		})
	}

	fmt.Fprintln(w, s.Header.Render(title("CRAP by Function", r.Rankings.TopN)))
	t := newTable(s, func(row int) aggregate.Severity {
		return aggregate.SeverityOf(fns[row].CRAP)
	}, len(rows)).
		Headers("CRAP", "CC", "COV", "FUNCTION", "LOCATION").
		Rows(rows...)
	fmt.Fprintln(w, t)
}

func writeSummaryTable(w io.Writer, heading, scopeHeader string, sums []aggregate.Summary, root string, s Styles) {
	rows := make([][]string, 0, len(sums))
	for _, sum := range sums {
		rows = append(rows, []string{
			fmt.Sprintf("%.1f", sum.MaxCRAP),
			fmt.Sprintf("%d", sum.AboveThreshold),
			fmt.Sprintf("%d", sum.Functions),
			truncateLeft(displayPath(sum.Scope, root), maxScopeWidth),
		})
	}

	fmt.Fprintln(w, s.Header.Render(heading))
	t := newTable(s, func(row int) aggregate.Severity {
		return aggregate.SeverityOf(sums[row].MaxCRAP)
	}, len(rows)).
		Headers("MAX CRAP", "ABOVE", "FUNCS", scopeHeader).
		Rows(rows...)
	fmt.Fprintln(w, t)
}

// newTable colors column 0 by the severity of each row.
func newTable(s Styles, severity func(row int) aggregate.Severity, n int) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 0 && row >= 0 && row < n {
				return s.SeverityStyle(severity(row))
			}
			return s.TableCell
		})
}

func title(heading string, topN int) string {
	if topN > 0 {
		return fmt.Sprintf("%s (top %d)", heading, topN)
	}
	return heading
}

func writeTotals(w io.Writer, r *Report, s Styles) {
	t := r.Totals
	fmt.Fprintln(w, s.Header.Render("--- Summary ---"))
	fmt.Fprintf(w, "%s  %d\n", s.SummaryLabel.Render("Functions analyzed:"), t.Functions)
	fmt.Fprintf(w, "%s  %d\n", s.SummaryLabel.Render("Files analyzed:"), t.Files)
	fmt.Fprintf(w, "%s  %.1f\n", s.SummaryLabel.Render("Avg complexity:"), t.AvgComplexity)
	fmt.Fprintf(w, "%s  %.1f%%\n", s.SummaryLabel.Render("Avg line coverage:"), t.AvgCoverage)
	fmt.Fprintf(w, "%s  %.1f\n", s.SummaryLabel.Render("Avg CRAP score:"), t.AvgCRAP)
	fmt.Fprintf(w, "%s  %g\n", s.SummaryLabel.Render("CRAP threshold:"), r.Rankings.Threshold)

	crapload := fmt.Sprintf("%d", t.CRAPload)
	if t.CRAPload > 0 {
		crapload = s.High.UnsetPaddingRight().Render(crapload) + s.Muted.Render(" (functions at or above threshold)")
	}
	fmt.Fprintf(w, "%s  %s\n", s.SummaryLabel.Render("CRAPload:"), crapload)

	if t.Unmatched > 0 {
		fmt.Fprintf(w, "%s  %d %s\n", s.SummaryLabel.Render("Unmatched functions:"), t.Unmatched,
			s.Muted.Render("(no complexity data, scored as 0)"))
	}
}

func writeSkipped(w io.Writer, r *Report, s Styles) {
	if len(r.Skipped) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("--- Skipped files (%d) ---", len(r.Skipped))))
	for _, sk := range r.Skipped {
		fmt.Fprintf(w, "  %s  %s\n",
			truncateLeft(displayPath(sk.File, r.Root), 60),
			s.Muted.Render(string(sk.Reason)))
	}
}
