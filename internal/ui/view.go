package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const footerHelp = "enter save · ctrl+r revert · ctrl+u clear · esc quit"

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	lines := make([]string, 0, 12)
	lines = append(lines, render(styles.Header, fmt.Sprintf("status preview · %d columns", m.width)))
	lines = append(lines, m.input.View())
	lines = append(lines, "")
	lines = append(lines, render(styles.Ruler, ruler(m.width)))
	lines = append(lines, m.statusLine())
	lines = append(lines, render(styles.StatusFrame, strings.Repeat("─", m.width)))
	lines = append(lines, m.backtickLines()...)
	lines = append(lines, "")
	if info := m.currentInfo(); info != "" {
		lines = append(lines, render(styles.Info, info))
	}
	lines = append(lines, render(styles.Footer, ansi.Truncate(footerHelp, m.width, "…")))
	return strings.Join(lines, "\n")
}

// statusLine fits the rendered output to exactly m.width columns.
func (m *Model) statusLine() string {
	line := ansi.Truncate(m.rendered, m.width, "")
	if w := ansi.StringWidth(line); w < m.width {
		line += strings.Repeat(" ", m.width-w)
	}
	return line
}

func (m *Model) backtickLines() []string {
	if m.src == nil || m.src.Registry() == nil {
		return nil
	}
	infos := m.src.Registry().List()
	if len(infos) == 0 {
		return nil
	}
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		label := render(styles.Label, fmt.Sprintf("%%%d`", info.ID))
		text := fmt.Sprintf(" %s %q", info.Mode, info.Result)
		if info.Running {
			text += " (running)"
		}
		out = append(out, label+render(styles.Backtick, ansi.Truncate(text, m.width-lipgloss.Width(label), "…")))
	}
	return out
}

// ruler labels every tenth column.
func ruler(width int) string {
	if width <= 0 {
		return ""
	}
	b := []byte(strings.Repeat(".", width))
	for col := 0; col < width; col += 10 {
		label := strconv.Itoa(col)
		if col+len(label) > width {
			break
		}
		copy(b[col:], label)
	}
	return string(b)
}

func render(style *lipgloss.Style, text string) string {
	if style == nil {
		return text
	}
	return style.Render(text)
}
