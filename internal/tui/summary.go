package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"optipix/internal/optimizer"
	"optipix/internal/scanner"
)

// RenderSummary formats the final batch summary as an aligned table.
func RenderSummary(s optimizer.Summary) string {
	rows := []struct {
		label string
		value string
	}{
		{"Files found", fmt.Sprintf("%d", s.Found)},
		{"Optimized", fmt.Sprintf("%d", s.Optimized)},
		{"Skipped (would not shrink)", fmt.Sprintf("%d", s.Skipped)},
		{"Failed", fmt.Sprintf("%d", s.Failed)},
		{"Space saved", humanize.Bytes(clampUint64(s.Saved()))},
	}

	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.label) > labelWidth {
			labelWidth = len(row.label)
		}
		if len(row.value) > valueWidth {
			valueWidth = len(row.value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%s | %s",
			labelStyle.Render(padRight(row.label, labelWidth)),
			valueStyle.Render(padRight(row.value, valueWidth))))
	}
	lines = append(lines, hline)

	return strings.Join(lines, "\n")
}

// RenderFailures lists every failed file with its cause. Returns an empty
// string when nothing failed.
func RenderFailures(failures []optimizer.Failure) string {
	if len(failures) == 0 {
		return ""
	}

	lines := []string{failHeadStyle.Render(fmt.Sprintf("%d file(s) failed:", len(failures)))}
	for _, f := range failures {
		lines = append(lines, fmt.Sprintf("  %s %s: %v",
			failBulletStyle.Render("-"),
			failPathStyle.Render(f.Path),
			f.Err))
	}
	return strings.Join(lines, "\n")
}

// RenderWarnings lists unreadable entries skipped during the scan.
func RenderWarnings(warnings []scanner.Warning) string {
	if len(warnings) == 0 {
		return ""
	}

	lines := []string{warnStyle.Render(fmt.Sprintf("%d entries could not be read:", len(warnings)))}
	for _, w := range warnings {
		lines = append(lines, fmt.Sprintf("  %s %s: %v", failBulletStyle.Render("-"), w.Path, w.Err))
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	valueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	failHeadStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorWarn)
	failPathStyle   = lipgloss.NewStyle().Foreground(ColorAccent)
	failBulletStyle = lipgloss.NewStyle().Foreground(ColorDim)
	warnStyle       = lipgloss.NewStyle().Foreground(ColorWarn)
)
