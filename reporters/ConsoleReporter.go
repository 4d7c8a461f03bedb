package reporters

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/reaandrew/secscanner/core"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00CEC9"))
	metaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#636e72"))

	severityStyles = map[core.SeverityLevel]lipgloss.Style{
		core.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D63031")),
		core.SeverityHigh:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E17055")),
		core.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FDCB6E")),
		core.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("#0984E3")),
		core.SeverityInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("#636e72")),
	}
)

// ConsoleReporter prints each result with its summary and its findings
// grouped by severity, most severe first.
type ConsoleReporter struct {
	Writer io.Writer
}

func (c ConsoleReporter) Report(results []core.ScanResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(c.Writer, metaStyle.Render("No scan results"))
		return err
	}

	var b strings.Builder
	for i, result := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		writeResult(&b, result)
	}

	_, err := io.WriteString(c.Writer, b.String())
	return err
}

func writeResult(b *strings.Builder, result core.ScanResult) {
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s@%s", result.Repository, result.Branch)))
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("%s  %s  %s", result.Id, result.Timestamp, result.Status)))
	b.WriteString("\n")

	counts := make([]string, 0, len(core.AllSeverities))
	for _, level := range core.AllSeverities {
		counts = append(counts, severityStyles[level].Render(fmt.Sprintf("%s: %d", level, result.Summary.Count(level))))
	}
	b.WriteString(strings.Join(counts, "  "))
	b.WriteString("\n")

	if len(result.Findings) == 0 {
		b.WriteString("  No findings\n")
		return
	}

	for _, level := range core.AllSeverities {
		findings := result.FindingsBySeverity(level)
		if len(findings) == 0 {
			continue
		}
		b.WriteString(severityStyles[level].Render(strings.ToUpper(string(level))))
		b.WriteString("\n")
		for _, finding := range findings {
			fmt.Fprintf(b, "  - %s", finding.Title)
			if finding.Location != "" {
				fmt.Fprintf(b, " (%s)", finding.Location)
			}
			b.WriteString("\n")
			if finding.Recommendation != "" {
				b.WriteString(metaStyle.Render("    fix: " + finding.Recommendation))
				b.WriteString("\n")
			}
		}
	}
}
