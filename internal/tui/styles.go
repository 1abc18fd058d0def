package tui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Styles used across the explorer.
var Styles = struct {
	Header   lipgloss.Style
	Subtle   lipgloss.Style
	Selected lipgloss.Style
	Normal   lipgloss.Style
	Active   lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Box      lipgloss.Style
	BoxWarn  lipgloss.Style
	Title    lipgloss.Style
	Label    lipgloss.Style
	Locked   lipgloss.Style
	Help     lipgloss.Style
}{
	Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
	Subtle:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
	Normal:   lipgloss.NewStyle(),
	Active:   lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("86")).Padding(0, 1),
	Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("205")).
		Padding(1, 2),
	BoxWarn: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(1, 2),
	Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
	Label:  lipgloss.NewStyle().Width(26),
	Locked: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
	Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
