package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tmux-winmsg/internal/logging/events"
)

type (
	loopMsg     struct{ fn func() }
	loopDoneMsg struct{}
	tickMsg     time.Time
)

// waitForLoop hands the next queued loop callback to Update, which runs it on
// the program goroutine.
func waitForLoop(src Source) tea.Cmd {
	if src == nil {
		return nil
	}
	next := src.Next()
	if next == nil {
		return nil
	}
	return func() tea.Msg {
		fn, ok := <-next
		if !ok {
			return loopDoneMsg{}
		}
		return loopMsg{fn: fn}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) handleLoopMsg(msg tea.Msg) tea.Cmd {
	lm, ok := msg.(loopMsg)
	if !ok {
		return nil
	}
	if lm.fn != nil {
		lm.fn()
	}
	return waitForLoop(m.src)
}

func (m *Model) handleLoopDoneMsg(tea.Msg) tea.Cmd {
	m.src = nil
	return nil
}

func (m *Model) handleTickMsg(tea.Msg) tea.Cmd {
	return tickCmd()
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	m.height = resize.Height
	if !m.fixedWidth && resize.Width > 0 {
		m.width = resize.Width
	}
	m.input.Width = m.width - len(m.input.Prompt) - 1
	events.Preview.Resize(resize.Width, resize.Height)
	return nil
}

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return nil
	case "enter":
		m.committed = m.input.Value()
		events.Preview.Commit(m.committed)
		m.setInfo("template saved")
		return nil
	case "ctrl+r":
		m.input.SetValue(m.committed)
		m.input.CursorEnd()
		m.setInfo("template reverted")
		return nil
	case "ctrl+u":
		if m.input.Value() != "" {
			m.input.SetValue("")
			m.input.CursorStart()
			events.Preview.Edit("")
		}
		return nil
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	if after := m.input.Value(); after != before {
		events.Preview.Edit(after)
	}
	return cmd
}
