package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/crapreport/internal/aggregate"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for table titles.
	Header lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// High, Medium and Low color CRAP values by severity.
	High   lipgloss.Style
	Medium lipgloss.Style
	Low    lipgloss.Style

	// SummaryLabel styles summary line labels.
	SummaryLabel lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).PaddingRight(1),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		High:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).PaddingRight(1),
		Medium: lipgloss.NewStyle().Foreground(lipgloss.Color("220")).PaddingRight(1),
		Low:    lipgloss.NewStyle().Foreground(lipgloss.Color("40")).PaddingRight(1),

		SummaryLabel: lipgloss.NewStyle().Bold(true).Width(22),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// SeverityStyle returns the style for a severity level.
func (s Styles) SeverityStyle(sev aggregate.Severity) lipgloss.Style {
	switch sev {
	case aggregate.SeverityHigh:
		return s.High
	case aggregate.SeverityMedium:
		return s.Medium
	default:
		return s.Low
	}
}
