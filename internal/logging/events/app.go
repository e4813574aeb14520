package events

import "github.com/atomicstack/tmux-winmsg/internal/logging"

type AppTracer struct{}

var App = AppTracer{}

func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

func (AppTracer) Mode(mode string) {
	logging.Trace("app.mode", map[string]interface{}{"mode": mode})
}

func (AppTracer) Output(line string) {
	logging.Trace("app.output", map[string]interface{}{"line": line})
}
