package ui

import (
	"reflect"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tmux-winmsg/internal/theme"
	"github.com/atomicstack/tmux-winmsg/internal/winmsg"
)

const (
	defaultWidth    = 80
	refreshInterval = time.Second
	templateLimit   = 1024
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Source renders templates for the preview. Functions received from Next
// must be run on the goroutine that calls RenderTemplate.
type Source interface {
	RenderTemplate(tmpl string, width int) string
	Next() <-chan func()
	Registry() *winmsg.Registry
}

// Options configures the preview.
type Options struct {
	Template string
	// Width fixes the render width; 0 follows the terminal.
	Width int
}

// Model implements the Bubble Tea model for the template preview.
type Model struct {
	src        Source
	input      textinput.Model
	width      int
	height     int
	fixedWidth bool
	rendered   string
	committed  string
	infoMsg    string
	infoExpire time.Time
	quitting   bool

	handlers map[reflect.Type]msgHandler
}

// NewModel builds the preview model for src.
func NewModel(src Source, opts Options) *Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "%-w%n %t%+w"
	ti.CharLimit = templateLimit
	if styles.Prompt != nil {
		ti.PromptStyle = *styles.Prompt
	}
	if styles.Input != nil {
		ti.TextStyle = *styles.Input
	}
	if styles.Placeholder != nil {
		ti.PlaceholderStyle = *styles.Placeholder
	}
	ti.SetValue(opts.Template)
	ti.CursorEnd()
	ti.Focus()

	m := &Model{
		src:       src,
		input:     ti,
		width:     defaultWidth,
		committed: opts.Template,
	}
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	m.registerHandlers()
	m.refresh()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForLoop(m.src), tickCmd())
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if handler := m.handlerFor(msg); handler != nil {
		cmd = handler(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	m.refresh()
	if m.quitting {
		return m, tea.Quit
	}
	return m, cmd
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(loopMsg{}):           m.handleLoopMsg,
		reflect.TypeOf(loopDoneMsg{}):       m.handleLoopDoneMsg,
		reflect.TypeOf(tickMsg{}):           m.handleTickMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

// Template is the template currently in the editor.
func (m *Model) Template() string {
	return m.input.Value()
}

// Committed is the last template accepted with enter.
func (m *Model) Committed() string {
	return m.committed
}

// Rendered is the encoded output for the current template.
func (m *Model) Rendered() string {
	return m.rendered
}

func (m *Model) refresh() {
	if m.src == nil {
		m.rendered = ""
		return
	}
	m.rendered = m.src.RenderTemplate(m.input.Value(), m.width)
}

func (m *Model) setInfo(msg string) {
	m.infoMsg = msg
	m.infoExpire = time.Now().Add(2 * time.Second)
}

func (m *Model) currentInfo() string {
	if m.infoMsg == "" || time.Now().After(m.infoExpire) {
		return ""
	}
	return m.infoMsg
}
