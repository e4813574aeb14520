package ui

import tea "github.com/charmbracelet/bubbletea"

// Harness drives the preview model programmatically for tests.
type Harness struct {
	model *Model
}

// NewHarness creates a harness for the provided model.
func NewHarness(model *Model) *Harness {
	return &Harness{model: model}
}

// Send routes a message through the model. Commands are not executed; use
// Drain to run queued loop callbacks.
func (h *Harness) Send(msg tea.Msg) {
	if h.model == nil {
		return
	}
	mdl, _ := h.model.Update(msg)
	if updated, ok := mdl.(*Model); ok {
		h.model = updated
	}
}

// Type sends each rune of s as a key press.
func (h *Harness) Type(s string) {
	for _, r := range s {
		h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// Drain runs loop callbacks that are already queued.
func (h *Harness) Drain() {
	if h.model == nil || h.model.src == nil {
		return
	}
	next := h.model.src.Next()
	for {
		select {
		case fn, ok := <-next:
			if !ok {
				h.Send(loopDoneMsg{})
				return
			}
			h.Send(loopMsg{fn: fn})
		default:
			return
		}
	}
}

// View returns the current view string.
func (h *Harness) View() string {
	if h.model == nil {
		return ""
	}
	return h.model.View()
}

// Model exposes the underlying model.
func (h *Harness) Model() *Model {
	return h.model
}
