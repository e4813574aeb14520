package winmsg

import (
	"time"

	"github.com/atomicstack/tmux-winmsg/internal/logging/events"
)

const (
	// DefaultEscape introduces directives in top-level templates.
	DefaultEscape byte = '%'
	// NestedEscape introduces directives in hardstatus and backtick output.
	NestedEscape byte = '\005'

	maxDepth = 10
)

// Renderer expands templates against a session snapshot. It is not safe for
// concurrent use; callers serialise renders on their event loop.
type Renderer struct {
	// Backticks resolves %` directives. A nil registry renders them empty.
	Backticks *Registry
	// ParseRendition turns a {...} body into a Code; 0 rejects it.
	ParseRendition func(spec string) Code
	// Now is the clock used for backtick caching and timer alignment.
	Now func() time.Time

	session *Session
}

// NewRenderer returns a Renderer using ParseAttrColor and the wall clock.
func NewRenderer(reg *Registry) *Renderer {
	return &Renderer{
		Backticks:      reg,
		ParseRendition: ParseAttrColor,
		Now:            time.Now,
		session:        &Session{},
	}
}

// SetSession replaces the snapshot used by subsequent renders.
func (r *Renderer) SetSession(s *Session) {
	if s == nil {
		s = &Session{}
	}
	r.session = s
}

// Session returns the current snapshot.
func (r *Renderer) Session() *Session {
	if r.session == nil {
		return &Session{}
	}
	return r.session
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Renderer) parseRendition(spec string) Code {
	if r.ParseRendition == nil {
		return ParseAttrColor(spec)
	}
	return r.ParseRendition(spec)
}

// Render expands tmpl for win. padlen is the target width for %= pads; 0
// disables padding.
func (r *Renderer) Render(tmpl string, win *Window, esc byte, padlen int) Line {
	return r.RenderEv(tmpl, win, esc, padlen, nil, 0)
}

// RenderEv is Render on behalf of an event. When ev carries a Timer it is
// disarmed and, if a ticking backtick was expanded, armed for the next tick
// boundary.
func (r *Renderer) RenderEv(tmpl string, win *Window, esc byte, padlen int, ev *Event, depth int) Line {
	now := r.now()
	line := r.renderPass(tmpl, win, esc, padlen, ev, depth, now)
	if ev != nil && ev.Timer != nil {
		rearm(ev.Timer, line.Tick, now)
	}
	if depth == 0 {
		events.Render.Pass(len(tmpl), len(line.Text), len(line.Rends), line.Tick)
	}
	return line
}

func (r *Renderer) renderPass(tmpl string, win *Window, esc byte, padlen int, ev *Event, depth int, now time.Time) Line {
	if padlen < 0 {
		padlen = 0
	}
	ps := &pass{
		r:        r,
		sess:     r.Session(),
		win:      win,
		ev:       ev,
		esc:      esc,
		padlen:   padlen,
		depth:    depth,
		now:      now,
		truncpos: -1,
	}
	ps.run(tmpl)
	return ps.finish()
}

// rearm schedules t 100ms after the next second divisible by tick.
func rearm(t Timer, tick int, now time.Time) {
	t.Disarm()
	if tick <= 0 {
		return
	}
	sec := now.Unix()
	if tick == 1 {
		sec++
	} else {
		sec += int64(tick) - sec%int64(tick)
	}
	t.Arm(time.Unix(sec, int64(100*time.Millisecond)))
}

// pass is the state of one render. Nested expansions get their own pass.
type pass struct {
	r    *Renderer
	sess *Session
	buf  Buffer

	win    *Window
	ev     *Event
	esc    byte
	padlen int
	depth  int
	now    time.Time

	// l is the room left when the current directive started.
	l    int
	cond cond
	tick int

	numpad    int
	lastpad   int
	truncpos  int
	truncper  int
	trunclong bool
}

func (ps *pass) run(tmpl string) {
	b := &ps.buf
	ctrl := false
	for i := 0; i < len(tmpl); i++ {
		ps.l = b.Remaining()
		if ps.l <= 0 {
			break
		}
		c := tmpl[i]
		if ctrl {
			ctrl = false
			if c != '^' && c >= 64 {
				c &= 0x1f
			}
			b.putByte(c)
			continue
		}
		if c != ps.esc {
			if c == '^' && ps.esc == DefaultEscape {
				ctrl = true
				continue
			}
			b.putByte(c)
			continue
		}
		i++
		if i < len(tmpl) && tmpl[i] == ps.esc {
			b.putByte(c)
			continue
		}
		d := parseDirective(tmpl, i)
		ps.dispatch(&d)
		i = d.pos
	}
}

// finish drops an unresolved conditional, resolves outstanding pads and
// snapshots the buffer.
func (ps *pass) finish() Line {
	b := &ps.buf
	if ps.cond.active && !ps.cond.set && ps.cond.pos <= b.p {
		ps.rewind(ps.cond.pos, ps.cond.rend)
	}
	ps.cond = cond{}
	if ps.numpad > 0 {
		target := ps.padlen
		if target > MaxStr-1 {
			target = MaxStr - 1
		}
		b.p = padExpand(b, b.p, ps.numpad, target)
		ps.numpad = 0
	}
	return b.line(ps.tick)
}

// rewind discards output written since pos along with renditions recorded
// after the first rend.
func (ps *pass) rewind(pos, rend int) {
	b := &ps.buf
	if pos < b.p {
		ps.numpad -= countPads(b.buf[pos:b.p])
		if ps.numpad < 0 {
			ps.numpad = 0
		}
		b.p = pos
	}
	b.truncRends(rend)
	if ps.lastpad > b.p {
		ps.lastpad = b.p
	}
	if ps.truncpos > b.p {
		ps.truncpos = b.p
	}
}

func (ps *pass) depthExceeded() bool {
	if ps.depth < maxDepth {
		return false
	}
	events.Render.DepthLimit(ps.depth)
	return true
}

// expand renders text as a nested template and splices it in when it fits.
func (ps *pass) expand(text string) {
	inner := ps.r.renderPass(text, ps.win, NestedEscape, 0, nil, ps.depth+1, ps.now)
	if inner.Tick != 0 && (ps.tick == 0 || inner.Tick < ps.tick) {
		ps.tick = inner.Tick
	}
	if len(inner.Text) >= ps.l {
		return
	}
	ps.buf.splice(inner)
	if inner.Text != "" {
		ps.cond.mark()
	}
}
