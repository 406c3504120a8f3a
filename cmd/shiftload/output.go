package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"shiftload/pkg/report"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

func severityLabel(s report.Severity) string {
	switch s {
	case report.SeverityError:
		return errorStyle.Render(string(s))
	case report.SeverityWarning:
		return warningStyle.Render(string(s))
	default:
		return infoStyle.Render(string(s))
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func printSummary(w io.Writer, s *report.Summary, outPath string) {
	c := s.Counts
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Wrote %d rows to %s", c.Rows, outPath)))
	fmt.Fprintf(w, "Names: %d exact, %d fuzzy, %d corrected, %d ambiguous, %d unresolved, %d skipped\n",
		c.Names.Exact, c.Names.Fuzzy, c.Names.Corrected, c.Names.Ambiguous, c.Names.Unresolved, c.Names.Skipped)
	fmt.Fprintf(w, "Shifts: %d records over %d dates, %d unmapped keys, %d format errors, %d duplicate cells\n",
		c.Records, c.Dates, c.Unmapped, c.FormatErrors, c.Duplicates)

	if len(s.Findings) == 0 {
		return
	}
	t := newTable("Severity", "Kind", "Subject", "Detail")
	for _, f := range s.Findings {
		t.Row(severityLabel(f.Severity), f.Kind, f.Subject, f.Detail)
	}
	fmt.Fprintln(w, t)
}
