package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"optipix/internal/optimizer"
)

// Model renders live batch progress from the orchestrator's update
// channel. Updates arrive in completion order, not discovery order.
type Model struct {
	updates   <-chan optimizer.ProgressUpdate
	cancel    func()
	started   time.Time
	width     int
	found     int
	optimized int
	skipped   int
	failed    int
	saved     int64
	lastFile  string
	lastLine  string
	quitting  bool
}

type doneMsg struct{}

type updateMsg optimizer.ProgressUpdate

// NewModel builds the progress display. cancel is invoked when the user
// interrupts from the keyboard; the display keeps running until the
// update channel closes, so in-flight files still report their outcome.
func NewModel(updates <-chan optimizer.ProgressUpdate, cancel func()) Model {
	return Model{updates: updates, cancel: cancel, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.found += msg.FoundDelta
		m.optimized += msg.OptimizedDelta
		m.skipped += msg.SkippedDelta
		m.failed += msg.FailedDelta
		m.saved += msg.SavedDelta
		if msg.File != "" {
			m.lastFile = msg.File
			m.lastLine = describeOutcome(optimizer.ProgressUpdate(msg))
		}
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		// The program owns the terminal, so ctrl+c arrives here instead of
		// as SIGINT. Cancel the batch but keep rendering; the channel close
		// after the last in-flight file delivers doneMsg.
		if msg.String() == "ctrl+c" && m.cancel != nil {
			m.cancel()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	processed := m.optimized + m.skipped + m.failed
	ratio := 0.0
	if m.found > 0 {
		ratio = float64(processed) / float64(m.found)
		if ratio > 1 {
			ratio = 1
		}
	}

	bar := renderBar(barWidth, ratio)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("optipix"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", processed, m.found)) +
			dimStyle.Render(fmt.Sprintf("  skipped:%d failed:%d", m.skipped, m.failed)),
		labelStyle.Render(fmt.Sprintf("Saved: %s", humanize.Bytes(clampUint64(m.saved)))),
		dimStyle.Render(m.lastLine),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(bar),
	}

	return strings.Join(lines, "\n")
}

// DescribeOutcome formats one completed file for plain (non-TUI) output.
func DescribeOutcome(u optimizer.ProgressUpdate) string {
	return describeOutcome(u)
}

func describeOutcome(u optimizer.ProgressUpdate) string {
	switch {
	case u.FailedDelta > 0:
		return fmt.Sprintf("%s: failed", u.File)
	case u.SkippedDelta > 0:
		return fmt.Sprintf("%s: skipped (already minimal)", u.File)
	default:
		pct := 0.0
		if u.Before > 0 {
			pct = float64(u.Before-u.After) / float64(u.Before) * 100
		}
		return fmt.Sprintf("%s: %s -> %s (-%.1f%%)",
			u.File,
			humanize.Bytes(clampUint64(u.Before)),
			humanize.Bytes(clampUint64(u.After)),
			pct)
	}
}

func clampUint64(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

func listenForUpdates(updates <-chan optimizer.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
