package winmsg

import (
	"fmt"
	"strconv"
)

// Selector characters of the escape language.
const (
	SelCond          = '?'
	SelCondElse      = ':'
	SelBacktick      = '`'
	SelHardstatus    = 'h'
	SelCmd           = 'x'
	SelCmdArgs       = 'X'
	SelWinNames      = 'w'
	SelWinNamesNoCur = 'W'
	SelWinFlags      = 'f'
	SelWinTitle      = 't'
	SelRendStart     = '{'
	SelRendEnd       = '}'
	SelRendPop       = '-'
	SelHost          = 'H'
	SelSessName      = 'S'
	SelPid           = 'p'
	SelFocus         = 'F'
	SelCopyMode      = 'P'
	SelEscSeen       = 'E'
	SelSize          = 's'
	SelTrunc         = '>'
	SelPadFill       = '='
	SelPadTrunc      = '<'
	SelWinNum        = 'n'
)

const (
	rendBufSize = 128
	maxNum      = 100000
)

// Kind classifies a directive by its selector.
type Kind uint8

const (
	KindDefault Kind = iota
	KindCond
	KindCondElse
	KindBacktick
	KindHardstatus
	KindCmd
	KindWinNames
	KindWinFlags
	KindWinTitle
	KindRend
	KindHost
	KindSessName
	KindPid
	KindFocus
	KindCopyMode
	KindEscSeen
	KindTrunc
	KindPad
	KindSize
	KindWinNum
	kindCount
)

func kindOf(sel byte) Kind {
	switch sel {
	case SelCond:
		return KindCond
	case SelCondElse:
		return KindCondElse
	case SelBacktick:
		return KindBacktick
	case SelHardstatus:
		return KindHardstatus
	case SelCmd, SelCmdArgs:
		return KindCmd
	case SelWinNames, SelWinNamesNoCur:
		return KindWinNames
	case SelWinFlags:
		return KindWinFlags
	case SelWinTitle:
		return KindWinTitle
	case SelRendStart:
		return KindRend
	case SelHost:
		return KindHost
	case SelSessName:
		return KindSessName
	case SelPid:
		return KindPid
	case SelFocus:
		return KindFocus
	case SelCopyMode:
		return KindCopyMode
	case SelEscSeen:
		return KindEscSeen
	case SelTrunc:
		return KindTrunc
	case SelPadFill, SelPadTrunc:
		return KindPad
	case SelSize:
		return KindSize
	case SelWinNum:
		return KindWinNum
	default:
		return KindDefault
	}
}

// Directive is one parsed escape: <esc>[+][-][0][digits][L]<sel>.
type Directive struct {
	Sel   byte
	Num   int
	Plus  bool
	Minus bool
	Zero  bool
	Long  bool

	src string
	// pos is the index of the last template byte consumed by the directive.
	pos int
}

// parseDirective reads the flags, argument and selector starting at src[i].
// A selector past the end of src reads as 0.
func parseDirective(src string, i int) Directive {
	at := func(i int) byte {
		if i < len(src) {
			return src[i]
		}
		return 0
	}
	d := Directive{src: src}
	if at(i) == '+' {
		d.Plus = true
		i++
	}
	if at(i) == '-' {
		d.Minus = true
		i++
	}
	if at(i) == '0' {
		d.Zero = true
		i++
	}
	for c := at(i); c >= '0' && c <= '9'; c = at(i) {
		if d.Num < maxNum {
			d.Num = d.Num*10 + int(c-'0')
		}
		i++
	}
	if at(i) == 'L' {
		d.Long = true
		i++
	}
	d.Sel = at(i)
	d.pos = i
	return d
}

type handler func(*pass, *Directive)

// handlers is indexed by Kind. It is filled in init because the handlers
// recurse back into the interpreter.
var handlers [kindCount]handler

func init() {
	handlers = [kindCount]handler{
		KindDefault:    (*pass).escWinNum,
		KindCond:       (*pass).escCond,
		KindCondElse:   (*pass).escCondElse,
		KindBacktick:   (*pass).escBacktick,
		KindHardstatus: (*pass).escHardstatus,
		KindCmd:        (*pass).escCmd,
		KindWinNames:   (*pass).escWinNames,
		KindWinFlags:   (*pass).escWinFlags,
		KindWinTitle:   (*pass).escWinTitle,
		KindRend:       (*pass).escRend,
		KindHost:       (*pass).escHost,
		KindSessName:   (*pass).escSessName,
		KindPid:        (*pass).escPid,
		KindFocus:      (*pass).escFocus,
		KindCopyMode:   (*pass).escCopyMode,
		KindEscSeen:    (*pass).escEscSeen,
		KindTrunc:      (*pass).escTrunc,
		KindPad:        (*pass).escPad,
		KindSize:       (*pass).escSize,
		KindWinNum:     (*pass).escWinNum,
	}
}

func (ps *pass) dispatch(d *Directive) {
	handlers[kindOf(d.Sel)](ps, d)
}

func (ps *pass) escCond(d *Directive) {
	b := &ps.buf
	if ps.cond.active {
		if pos, rend, ok := ps.cond.end(b.p, b.NumRend()); ok {
			ps.rewind(pos, rend)
		}
		return
	}
	ps.cond.open(b.p, b.NumRend())
}

func (ps *pass) escCondElse(d *Directive) {
	if pos, rend, ok := ps.cond.elseArm(ps.buf.p, ps.buf.NumRend()); ok {
		ps.rewind(pos, rend)
	}
}

func (ps *pass) escBacktick(d *Directive) {
	if ps.depthExceeded() || ps.r.Backticks == nil {
		return
	}
	text, ok := ps.r.Backticks.run(d.Num, &ps.tick, ps.now)
	if !ok {
		return
	}
	ps.expand(text)
}

func (ps *pass) escHardstatus(d *Directive) {
	if ps.depthExceeded() || ps.win == nil || ps.win.Hardstatus == "" {
		return
	}
	ps.expand(ps.win.Hardstatus)
}

func (ps *pass) escCmd(d *Directive) {
	if ps.win == nil || len(ps.win.CmdArgs) == 0 || ps.win.CmdArgs[0] == "" {
		return
	}
	b := &ps.buf
	b.writeString(ps.win.CmdArgs[0], ps.l)
	if d.Sel != SelCmdArgs {
		return
	}
	for _, arg := range ps.win.CmdArgs[1:] {
		b.writeString(" "+arg, b.Remaining())
	}
}

func (ps *pass) escWinNames(d *Directive) {
	text, rends := windowList(ps.sess, ps.win, listOptions{
		hideCur: d.Sel == SelWinNamesNoCur,
		flags:   d.Long,
		after:   d.Plus,
		before:  d.Minus,
		limit:   ps.l - 1,
	})
	b := &ps.buf
	at := b.p
	n := b.writeString(text, ps.l-1)
	for _, r := range rends {
		if r.Pos > n {
			break
		}
		if b.AddRend(at+r.Pos, r.Code) != nil {
			break
		}
	}
	if n > 0 {
		ps.cond.mark()
	}
}

func (ps *pass) escWinFlags(d *Directive) {
	if ps.win == nil {
		return
	}
	var fore, other *Window
	disp := ps.sess.Display
	if disp != nil {
		fore, other = disp.Fore, disp.Other
	}
	if ps.buf.writeString(windowFlags(ps.win, fore, other, disp != nil), ps.l-1) > 0 {
		ps.cond.mark()
	}
}

func (ps *pass) escWinTitle(d *Directive) {
	if ps.win == nil || len(ps.win.Title) >= ps.l {
		return
	}
	if ps.buf.writeString(ps.win.Title, ps.l) > 0 {
		ps.cond.mark()
	}
}

// escRend consumes a {spec} block. An unterminated or oversized block records
// nothing.
func (ps *pass) escRend(d *Directive) {
	start := d.pos + 1
	i := 0
	for ; i < rendBufSize-1; i++ {
		if start+i >= len(d.src) || d.src[start+i] == SelRendEnd {
			break
		}
	}
	end := start + i
	b := &ps.buf
	if end < len(d.src) && d.src[end] == SelRendEnd && b.NumRend() < MaxRend {
		spec := d.src[start:end]
		pop := len(spec) == 1 && spec[0] == SelRendPop
		var code Code
		if !pop {
			code = ps.r.parseRendition(spec)
		}
		if code != 0 || pop {
			_ = b.AddRend(b.p, code)
		}
	}
	if end > len(d.src) {
		end = len(d.src)
	}
	d.pos = end
}

func (ps *pass) escHost(d *Directive) {
	ps.writeMarked(ps.sess.Host)
}

func (ps *pass) escSessName(d *Directive) {
	ps.writeMarked(ps.sess.Name)
}

// writeMarked writes s only when it fits entirely and marks the conditional
// when anything was written.
func (ps *pass) writeMarked(s string) {
	if len(s) >= ps.l {
		return
	}
	if ps.buf.writeString(s, ps.l) > 0 {
		ps.cond.mark()
	}
}

func (ps *pass) escPid(d *Directive) {
	pid := ps.sess.Pid
	if d.Plus && ps.sess.Display != nil {
		pid = ps.sess.Display.UserPid
	}
	ps.buf.writeString(strconv.Itoa(pid), ps.l)
}

func (ps *pass) escFocus(d *Directive) {
	minus := d.Minus
	if disp := ps.sess.Display; disp != nil {
		captionFocused := ps.ev != nil && ps.ev.Canvas != nil && ps.ev.Canvas.Focused
		foreWindow := ps.ev == nil && ps.win != nil && ps.win == disp.Fore
		if captionFocused || foreWindow {
			minus = !minus
		}
	}
	if minus {
		ps.cond.mark()
	}
}

func (ps *pass) escCopyMode(d *Directive) {
	if ps.sess.Display != nil && ps.ev != nil && ps.ev.Canvas != nil && ps.ev.Canvas.CopyMode {
		ps.cond.mark()
	}
}

func (ps *pass) escEscSeen(d *Directive) {
	if ps.sess.Display != nil && ps.sess.Display.EscSeen {
		ps.cond.mark()
	}
}

func (ps *pass) escTrunc(d *Directive) {
	ps.truncpos = ps.buf.p
	ps.truncper = d.Num
	if ps.truncper > 100 {
		ps.truncper = 100
	}
	ps.trunclong = d.Long
}

// escPad either fixes the field width now or leaves a pad marker to be
// resolved later. Without a fixed width a bare %= is a single space.
func (ps *pass) escPad(d *Directive) {
	if d.Num != 0 || d.Zero || d.Plus || d.Long || d.Sel != SelPadFill {
		ps.fixWidth(d)
		return
	}
	if ps.padlen != 0 {
		ps.buf.putByte(chrPad)
		ps.numpad++
		return
	}
	ps.buf.putByte(' ')
}

func (ps *pass) escSize(d *Directive) {
	s := "--x--"
	if ps.win != nil {
		s = fmt.Sprintf("%dx%d", ps.win.Width, ps.win.Height)
	}
	ps.buf.writeString(s, ps.l)
}

// escWinNum prints the window number right-aligned in a field of d.Num
// columns. Apart from 'n' the selector is not consumed and is re-read as
// literal text.
func (ps *pass) escWinNum(d *Directive) {
	if d.Sel != SelWinNum {
		d.pos--
	}
	if ps.l <= 10+d.Num {
		return
	}
	width := d.Num
	if width == 0 {
		width = 1
	}
	var s string
	if ps.win == nil {
		dash := "-"
		if width > 1 {
			dash = "--"
		}
		s = fmt.Sprintf("%*s", width, dash)
	} else {
		s = fmt.Sprintf("%*d", width, ps.win.Number)
	}
	ps.buf.writeString(s, ps.l)
	ps.cond.mark()
}
