// Package status turns rendered lines into text for a particular consumer:
// plain text, tmux status-line markup, or ANSI escape sequences.
package status

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/atomicstack/tmux-winmsg/internal/winmsg"
)

// Format names an output encoding.
type Format string

const (
	FormatPlain Format = "plain"
	FormatTmux  Format = "tmux"
	FormatANSI  Format = "ansi"
)

// Formats lists the accepted encodings.
var Formats = []Format{FormatPlain, FormatTmux, FormatANSI}

// ParseFormat validates name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatPlain, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q", name)
}

// Encoder writes lines in one Format.
type Encoder struct {
	format   Format
	renderer *lipgloss.Renderer
}

// NewEncoder returns an encoder for f. ANSI output is produced for w with the
// given color profile.
func NewEncoder(f Format, w io.Writer, profile termenv.Profile) *Encoder {
	e := &Encoder{format: f}
	if f == FormatANSI {
		e.renderer = lipgloss.NewRenderer(w)
		e.renderer.SetColorProfile(profile)
	}
	return e
}

// Encode renders line.
func (e *Encoder) Encode(line winmsg.Line) string {
	switch e.format {
	case FormatTmux:
		return Tmux(line)
	case FormatANSI:
		return ANSI(line, e.renderer)
	default:
		return Plain(line)
	}
}

// Plain drops all renditions.
func Plain(line winmsg.Line) string {
	return line.Text
}

// Tmux emits tmux #[...] style markup. Literal '#' is doubled.
func Tmux(line winmsg.Line) string {
	var b strings.Builder
	styled := false
	for _, span := range line.Spans() {
		if span.Style != winmsg.DefaultStyle || styled {
			b.WriteString(tmuxStyle(span.Style))
			styled = span.Style != winmsg.DefaultStyle
		}
		b.WriteString(strings.ReplaceAll(span.Text, "#", "##"))
	}
	if styled {
		b.WriteString("#[default]")
	}
	return b.String()
}

func tmuxStyle(s winmsg.Style) string {
	parts := []string{"default"}
	if s.Fg != winmsg.ColorDefault {
		parts = append(parts, "fg=colour"+strconv.Itoa(int(s.Fg)))
	}
	if s.Bg != winmsg.ColorDefault {
		parts = append(parts, "bg=colour"+strconv.Itoa(int(s.Bg)))
	}
	for _, a := range attrNames {
		if s.Attrs&a.attr != 0 {
			parts = append(parts, a.tmux)
		}
	}
	return "#[" + strings.Join(parts, ",") + "]"
}

var attrNames = []struct {
	attr winmsg.Attr
	tmux string
}{
	{winmsg.AttrBold, "bold"},
	{winmsg.AttrDim, "dim"},
	{winmsg.AttrUnderline, "underscore"},
	{winmsg.AttrReverse, "reverse"},
	{winmsg.AttrStandout, "reverse"},
	{winmsg.AttrBlink, "blink"},
}

// ANSI styles each span with lipgloss using r's color profile.
func ANSI(line winmsg.Line, r *lipgloss.Renderer) string {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	var b strings.Builder
	for _, span := range line.Spans() {
		if span.Style == winmsg.DefaultStyle {
			b.WriteString(span.Text)
			continue
		}
		b.WriteString(lipglossStyle(r, span.Style).Render(span.Text))
	}
	return b.String()
}

func lipglossStyle(r *lipgloss.Renderer, s winmsg.Style) lipgloss.Style {
	st := r.NewStyle()
	if s.Fg != winmsg.ColorDefault {
		st = st.Foreground(lipgloss.Color(strconv.Itoa(int(s.Fg))))
	}
	if s.Bg != winmsg.ColorDefault {
		st = st.Background(lipgloss.Color(strconv.Itoa(int(s.Bg))))
	}
	a := s.Attrs
	if a&winmsg.AttrBold != 0 {
		st = st.Bold(true)
	}
	if a&winmsg.AttrDim != 0 {
		st = st.Faint(true)
	}
	if a&winmsg.AttrUnderline != 0 {
		st = st.Underline(true)
	}
	if a&(winmsg.AttrReverse|winmsg.AttrStandout) != 0 {
		st = st.Reverse(true)
	}
	if a&winmsg.AttrBlink != 0 {
		st = st.Blink(true)
	}
	return st
}
