package winmsg

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	r    *Renderer
	sess *Session
	zsh  *Window
	vim  *Window
	htop *Window
}

func newFixture() *fixture {
	f := &fixture{
		zsh:  &Window{Number: 0, Title: "zsh"},
		vim:  &Window{Number: 1, Title: "vim", Width: 80, Height: 24, CmdArgs: []string{"vim", "main.go"}},
		htop: &Window{Number: 2, Title: "htop"},
	}
	f.sess = &Session{
		Host:    "box",
		Name:    "work",
		Pid:     42,
		Windows: []*Window{f.zsh, f.vim, f.htop},
	}
	f.r = NewRenderer(nil)
	f.r.Now = func() time.Time { return time.Unix(1000, 0) }
	f.r.SetSession(f.sess)
	return f
}

func (f *fixture) attach() {
	f.sess.Display = &Display{Fore: f.vim, Other: f.zsh, UserPid: 7}
}

func (f *fixture) text(tmpl string) string {
	return f.r.Render(tmpl, f.vim, DefaultEscape, 0).Text
}

func TestRenderLiteralText(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "hello world", f.text("hello world"))
	assert.Equal(t, "", f.text(""))
	assert.Len(t, f.text(strings.Repeat("x", 1000)), MaxStr-1)
}

func TestRenderDoubledEscape(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "100%", f.text("100%%"))
	assert.Equal(t, "%%", f.text("%%%%"))
	assert.Equal(t, "a\005b", f.r.Render("a\005\005b", f.vim, NestedEscape, 0).Text)
}

func TestRenderCaretControls(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "a\x07b", f.text("a^Gb"))
	assert.Equal(t, "^", f.text("^^"))
	assert.Equal(t, "\x01", f.text("^a"))
	assert.Equal(t, "\x1b[1m", f.text("^[[1m"))
	// carets are literal in nested templates
	assert.Equal(t, "a^Gb", f.r.Render("a^Gb", f.vim, NestedEscape, 0).Text)
}

func TestRenderUnknownSelectorPrintsWindowNumber(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "1j", f.text("%j"))
	assert.Equal(t, "  1j", f.text("%3j"))
	assert.Equal(t, "ab1", f.text("ab%"))
	assert.Equal(t, "-j", f.r.Render("%j", nil, DefaultEscape, 0).Text)
	assert.Equal(t, "  --", f.r.Render("%4n", nil, DefaultEscape, 0).Text)
}

func TestRenderWindowDirectives(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "1 vim", f.text("%n %t"))
	assert.Equal(t, "  1", f.text("%3n"))
	assert.Equal(t, "vim", f.text("%x"))
	assert.Equal(t, "vim main.go", f.text("%X"))
	assert.Equal(t, "80x24", f.text("%s"))
	assert.Equal(t, "--x--", f.r.Render("%s", nil, DefaultEscape, 0).Text)
	assert.Equal(t, "box work 42", f.text("%H %S %p"))
}

func TestRenderDisplayDirectives(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "42", f.text("%+p"))
	f.attach()
	assert.Equal(t, "7", f.text("%+p"))
	assert.Equal(t, "1*", f.text("%n%f"))
	assert.Equal(t, "0-", f.r.Render("%n%f", f.zsh, DefaultEscape, 0).Text)
}

func TestRenderWindowLists(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "0 zsh  1 vim  2 htop", f.text("%w"))
	assert.Equal(t, "0 zsh  ", f.text("%-w"))
	assert.Equal(t, "  2 htop", f.text("%+w"))
	assert.Equal(t, "0 zsh  1 vim  2 htop", f.text("%-w%n %t%+w"))

	f.attach()
	assert.Equal(t, "0 zsh  2 htop", f.text("%W"))
	assert.Equal(t, "0- zsh  1* vim  2 htop", f.text("%Lw"))
}

func TestRenderWindowListClipsTitles(t *testing.T) {
	f := newFixture()
	f.zsh.Title = strings.Repeat("t", 30)
	assert.Equal(t, "0 "+strings.Repeat("t", 20)+"  ", f.text("%-w"))
}

func TestRenderWindowListRenditions(t *testing.T) {
	f := newFixture()
	bell := ParseAttrColor("r")
	f.sess.Renditions = WindowListRenditions{Bell: bell}
	f.htop.Bell = true
	line := f.r.Render("%w", f.vim, DefaultEscape, 0)
	assert.Equal(t, "0 zsh  1 vim  2 htop", line.Text)
	assert.Equal(t, []Rend{{Pos: 14, Code: bell}, {Pos: 20}}, line.Rends)
}

func TestRenderConditionals(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "vim", f.text("%?%t%?"))
	assert.Equal(t, "[vim]", f.text("[%?%t%:none%?]"))

	f.vim.Title = ""
	assert.Equal(t, "", f.text("%?<%t>%?"))
	assert.Equal(t, "[none]", f.text("[%?%t%:none%?]"))
	// literal text alone never triggers a block
	assert.Equal(t, "", f.text("%?text%?"))
	// %x does not trigger a block either
	assert.Equal(t, "", f.text("%?%x%?"))
}

func TestRenderConditionalDropsElseRenditions(t *testing.T) {
	f := newFixture()
	line := f.r.Render("%?%t%:%{r}none%?", f.vim, DefaultEscape, 0)
	assert.Equal(t, "vim", line.Text)
	assert.Empty(t, line.Rends)

	f.vim.Title = ""
	line = f.r.Render("%?%t%:%{r}none%?", f.vim, DefaultEscape, 0)
	assert.Equal(t, "none", line.Text)
	assert.Len(t, line.Rends, 1)
}

func TestRenderUnclosedConditional(t *testing.T) {
	f := newFixture()
	f.sess.Name = ""
	assert.Equal(t, "a", f.text("a%?%Sb"))
	f.sess.Name = "x"
	assert.Equal(t, "axb", f.text("a%?%Sb"))
}

func TestRenderConditionalDropsRenditions(t *testing.T) {
	f := newFixture()
	line := f.r.Render("a%?%{r}b%?c", f.vim, DefaultEscape, 0)
	assert.Equal(t, "ac", line.Text)
	assert.Empty(t, line.Rends)
}

func TestRenderRenditionBlocks(t *testing.T) {
	f := newFixture()
	line := f.r.Render("a%{+b}b%{-}c", f.vim, DefaultEscape, 0)
	assert.Equal(t, "abc", line.Text)
	assert.Equal(t, []Rend{{Pos: 1, Code: ParseAttrColor("+b")}, {Pos: 2}}, line.Rends)

	line = f.r.Render("%{zz}x", f.vim, DefaultEscape, 0)
	assert.Equal(t, "x", line.Text)
	assert.Empty(t, line.Rends)

	line = f.r.Render("a%{+b", f.vim, DefaultEscape, 0)
	assert.Equal(t, "a", line.Text)
	assert.Empty(t, line.Rends)

	// an unterminated block swallows the rest of the template
	assert.Equal(t, "", f.text("%{= title %n"))
}

func TestRenderCustomRenditionParser(t *testing.T) {
	f := newFixture()
	var seen []string
	f.r.ParseRendition = func(spec string) Code {
		seen = append(seen, spec)
		return 5
	}
	line := f.r.Render("%{anything}x", f.vim, DefaultEscape, 0)
	assert.Equal(t, []string{"anything"}, seen)
	assert.Equal(t, []Rend{{Pos: 0, Code: 5}}, line.Rends)
}

func TestRenderFocusCopyModeEscSeen(t *testing.T) {
	f := newFixture()
	caption := &Event{Canvas: &Canvas{Focused: true, CopyMode: true}}
	render := func(tmpl string, ev *Event) string {
		return f.r.RenderEv(tmpl, f.vim, DefaultEscape, 0, ev, 0).Text
	}

	assert.Equal(t, "", render("%?%Fon%?", caption))
	assert.Equal(t, "off", render("%?%-Foff%?", caption))

	f.attach()
	assert.Equal(t, "on", render("%?%Fon%?", caption))
	assert.Equal(t, "", render("%?%-Foff%?", caption))
	assert.Equal(t, "on", render("%?%Fon%?", nil))
	assert.Equal(t, "copy", render("%?%Pcopy%?", caption))
	assert.Equal(t, "", render("%?%Pcopy%?", nil))

	assert.Equal(t, "", render("%?%Eesc%?", nil))
	f.sess.Display.EscSeen = true
	assert.Equal(t, "esc", render("%?%Eesc%?", nil))
}

func TestRenderHardstatusNesting(t *testing.T) {
	f := newFixture()
	f.vim.Hardstatus = "[\005t %n]"
	assert.Equal(t, "[vim %n]", f.text("%h"))
	assert.Equal(t, "x[vim %n]", f.text("x%?%h%?"))

	f.vim.Hardstatus = ""
	assert.Equal(t, "", f.text("%?%h%?"))
}

func TestRenderDepthLimit(t *testing.T) {
	f := newFixture()
	f.vim.Hardstatus = "a\005h"
	assert.Equal(t, strings.Repeat("a", maxDepth), f.text("%h"))
}

func TestRenderDepthLimitSelfReferencingBacktick(t *testing.T) {
	f := newFixture()
	spawner := &countingSpawner{output: "a\0051`\n"}
	reg := NewRegistry(spawner, nil)
	reg.Now = f.r.Now
	require.NoError(t, reg.Set(1, 30, 0, []string{"loop"}))
	f.r.Backticks = reg

	assert.Equal(t, strings.Repeat("a", maxDepth), f.text("%1`"))
	assert.Equal(t, 1, spawner.n)
}

func TestRenderPads(t *testing.T) {
	f := newFixture()
	pad := func(tmpl string, padlen int) string {
		return f.r.Render(tmpl, f.vim, DefaultEscape, padlen).Text
	}
	assert.Equal(t, "a b", pad("a%=b", 0))
	assert.Equal(t, "a"+strings.Repeat(" ", 8)+"b", pad("a%=b", 10))
	// the rightmost pad takes the larger share
	assert.Equal(t, "a"+strings.Repeat(" ", 3)+"b"+strings.Repeat(" ", 4)+"c", pad("a%=b%=c", 10))
	assert.Equal(t, "abc  xyz", pad("abc%50=xyz", 10))
	// a pad never collapses below one space
	assert.Equal(t, "ab ", pad("ab%=", 2))
}

func TestRenderPadMovesRenditions(t *testing.T) {
	f := newFixture()
	line := f.r.Render("a%=%{r}b", f.vim, DefaultEscape, 6)
	assert.Equal(t, "a    b", line.Text)
	require.Len(t, line.Rends, 1)
	assert.Equal(t, 5, line.Rends[0].Pos)
}

func TestRenderTruncation(t *testing.T) {
	f := newFixture()
	trunc := func(tmpl string) string {
		return f.r.Render(tmpl, f.vim, DefaultEscape, 10).Text
	}
	assert.Equal(t, "0123456789", trunc("0123456789abcdef%<"))
	assert.Equal(t, "6789abcdef", trunc("0123456789%>abcdef%<"))
	assert.Equal(t, "...9abcdef", trunc("0123456789%L>abcdef%<"))
	// a long width fix does not cut
	assert.Equal(t, "0123456789abcdef", trunc("0123456789abcdef%L<"))
}

func TestRenderTruncationShiftsRenditions(t *testing.T) {
	f := newFixture()
	line := f.r.Render("ab%10=01234%{r}56789abcdef%L>%<", f.vim, DefaultEscape, 14)
	assert.Equal(t, "a...6789abcdef", line.Text)
	require.Len(t, line.Rends, 1)
	assert.Equal(t, 3, line.Rends[0].Pos)
}

func TestRenderTruncationKeepsTextBeforeLastPad(t *testing.T) {
	f := newFixture()
	line := f.r.Render("ab%10=0123456789abcdef%<", f.vim, DefaultEscape, 12)
	assert.Equal(t, "a0123456789a", line.Text)
}

func TestRendererZeroValue(t *testing.T) {
	var r Renderer
	assert.Equal(t, "-", r.Render("%n", nil, DefaultEscape, 0).Text)
	r.SetSession(&Session{Name: "s"})
	assert.Equal(t, "s", r.Render("%S", nil, DefaultEscape, 0).Text)
}

type recordingTimer struct {
	armed    []time.Time
	disarmed int
}

func (t *recordingTimer) Arm(at time.Time) { t.armed = append(t.armed, at) }
func (t *recordingTimer) Disarm()          { t.disarmed++ }

func TestRearmAlignsToTick(t *testing.T) {
	now := time.Unix(1002, int64(500*time.Millisecond))
	cases := []struct {
		tick int
		want time.Time
	}{
		{1, time.Unix(1003, int64(100*time.Millisecond))},
		{5, time.Unix(1005, int64(100*time.Millisecond))},
		{10, time.Unix(1010, int64(100*time.Millisecond))},
	}
	for _, tc := range cases {
		timer := &recordingTimer{}
		rearm(timer, tc.tick, now)
		require.Len(t, timer.armed, 1)
		assert.True(t, tc.want.Equal(timer.armed[0]), "tick %d: got %v", tc.tick, timer.armed[0])
		assert.Equal(t, 1, timer.disarmed)
	}

	timer := &recordingTimer{}
	rearm(timer, 0, now)
	assert.Empty(t, timer.armed)
	assert.Equal(t, 1, timer.disarmed)
}

func TestRenderEvArmsTimerForTickingBacktick(t *testing.T) {
	f := newFixture()
	spawner := &countingSpawner{output: "load 0.5\n"}
	reg := NewRegistry(spawner, nil)
	reg.Now = f.r.Now
	require.NoError(t, reg.Set(1, 30, 5, []string{"uptime"}))
	f.r.Backticks = reg

	timer := &recordingTimer{}
	line := f.r.RenderEv("[%1`]", f.vim, DefaultEscape, 0, &Event{Timer: timer}, 0)
	assert.Equal(t, "[load 0.5]", line.Text)
	assert.Equal(t, 5, line.Tick)
	require.Len(t, timer.armed, 1)
	assert.True(t, time.Unix(1005, int64(100*time.Millisecond)).Equal(timer.armed[0]))
}

func TestRendererSessionDefaults(t *testing.T) {
	r := NewRenderer(nil)
	r.SetSession(nil)
	require.NotNil(t, r.Session())
	assert.Equal(t, "", r.Render("%S%H", nil, DefaultEscape, 0).Text)
	assert.Equal(t, "", r.Render("%`", nil, DefaultEscape, 0).Text)
}
