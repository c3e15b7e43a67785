package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorDim    = lipgloss.Color("#7A8291")
	ColorAccent = lipgloss.Color("#88C0D0")
	ColorWarn   = lipgloss.Color("#EBCB8B")
)
