// Package dispatcher applies watcher events to a render target and reports
// which parts of the session changed.
package dispatcher

import (
	"fmt"
	"slices"

	"github.com/atomicstack/tmux-winmsg/internal/backend"
	"github.com/atomicstack/tmux-winmsg/internal/logging"
	"github.com/atomicstack/tmux-winmsg/internal/tmux"
	"github.com/atomicstack/tmux-winmsg/internal/winmsg"
)

// Target receives snapshots.
type Target interface {
	Apply(tmux.Snapshot) error
}

type Result struct {
	SessionUpdated bool
	WindowsUpdated bool
	ActiveUpdated  bool
	Err            error
}

// Changed reports whether anything a template can show moved.
func (r Result) Changed() bool {
	return r.SessionUpdated || r.WindowsUpdated || r.ActiveUpdated
}

type Dispatcher struct {
	target Target
	seen   bool
	last   fingerprint
}

func New(t Target) *Dispatcher {
	return &Dispatcher{target: t}
}

// Handle applies evt. The first successful event always reports a change.
func (d *Dispatcher) Handle(evt backend.Event) Result {
	if evt.Err != nil {
		logging.Error(fmt.Errorf("tmux snapshot: %w", evt.Err))
		return Result{Err: evt.Err}
	}
	if err := d.target.Apply(evt.Snapshot); err != nil {
		logging.Error(err)
		return Result{Err: err}
	}
	fp := fingerprintOf(evt.Snapshot)
	if !d.seen {
		d.seen = true
		d.last = fp
		return Result{SessionUpdated: true, WindowsUpdated: true, ActiveUpdated: true}
	}
	res := Result{
		SessionUpdated: !fp.session.equal(d.last.session),
		WindowsUpdated: !slices.EqualFunc(fp.windows, d.last.windows, windowEqual),
		ActiveUpdated:  fp.active != d.last.active,
	}
	d.last = fp
	return res
}

type sessionInfo struct {
	host, name string
	pid        int
	attached   bool
	fore       int
	other      int
	userPid    int
}

func (s sessionInfo) equal(o sessionInfo) bool { return s == o }

type fingerprint struct {
	session sessionInfo
	windows []winmsg.Window
	active  int
}

func fingerprintOf(snap tmux.Snapshot) fingerprint {
	fp := fingerprint{active: -1}
	if snap.Active != nil {
		fp.active = snap.Active.Number
	}
	s := snap.Session
	if s == nil {
		return fp
	}
	fp.session = sessionInfo{host: s.Host, name: s.Name, pid: s.Pid, fore: -1, other: -1}
	if disp := s.Display; disp != nil {
		fp.session.attached = true
		fp.session.userPid = disp.UserPid
		if disp.Fore != nil {
			fp.session.fore = disp.Fore.Number
		}
		if disp.Other != nil {
			fp.session.other = disp.Other.Number
		}
	}
	fp.windows = make([]winmsg.Window, 0, len(s.Windows))
	for _, w := range s.Windows {
		if w != nil {
			fp.windows = append(fp.windows, *w)
		}
	}
	return fp
}

func windowEqual(a, b winmsg.Window) bool {
	return a.Number == b.Number &&
		a.Title == b.Title &&
		a.Hardstatus == b.Hardstatus &&
		slices.Equal(a.CmdArgs, b.CmdArgs) &&
		a.Width == b.Width && a.Height == b.Height &&
		a.Activity == b.Activity && a.Bell == b.Bell && a.Silence == b.Silence &&
		a.Shared == b.Shared && a.LoggedIn == b.LoggedIn &&
		a.Logging == b.Logging && a.Zombie == b.Zombie
}
