package events

import (
	"time"

	"github.com/atomicstack/tmux-winmsg/internal/logging"
)

type LoopTracer struct{}

type TmuxTracer struct{}

var (
	Loop = LoopTracer{}
	Tmux = TmuxTracer{}
)

func (LoopTracer) TimerArm(name string, at time.Time) {
	logging.Trace("loop.timer.arm", map[string]interface{}{"timer": name, "at": at})
}

func (LoopTracer) TimerFire(name string) {
	logging.Trace("loop.timer.fire", map[string]interface{}{"timer": name})
}

func (LoopTracer) Stop(reason string) {
	logging.Trace("loop.stop", map[string]interface{}{"reason": reason})
}

func (TmuxTracer) Snapshot(session string, windows int, attached bool) {
	logging.Trace("tmux.snapshot", map[string]interface{}{
		"session":  session,
		"windows":  windows,
		"attached": attached,
	})
}

func (TmuxTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("tmux.error", map[string]interface{}{"error": err.Error()})
}
