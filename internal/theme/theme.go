package theme

import "github.com/charmbracelet/lipgloss"

// Styles describes the Lip Gloss styles used by the preview editor.
type Styles struct {
	Header      *lipgloss.Style
	Prompt      *lipgloss.Style
	Input       *lipgloss.Style
	Placeholder *lipgloss.Style
	Ruler       *lipgloss.Style
	StatusFrame *lipgloss.Style
	Label       *lipgloss.Style
	Backtick    *lipgloss.Style
	Footer      *lipgloss.Style
	Info        *lipgloss.Style
	Error       *lipgloss.Style
}

var defaultStyles = Styles{
	Header: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	),
	Prompt: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
	),
	Input: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
	),
	Placeholder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	),
	Ruler: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	),
	StatusFrame: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	),
	Label: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	),
	Backtick: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	),
	Footer: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Info: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Italic(true),
	),
	Error: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	),
}

// Default exposes the standard style set used across the application.
func Default() *Styles {
	return &defaultStyles
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	return &style
}
