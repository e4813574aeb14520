package events

import "github.com/atomicstack/tmux-winmsg/internal/logging"

type BacktickTracer struct{}

var Backtick = BacktickTracer{}

func (BacktickTracer) Set(id, lifespan, tick int, argv []string) {
	logging.Trace("backtick.set", map[string]interface{}{
		"id":       id,
		"lifespan": lifespan,
		"tick":     tick,
		"argv":     argv,
	})
}

func (BacktickTracer) Remove(id int) {
	logging.Trace("backtick.remove", map[string]interface{}{"id": id})
}

func (BacktickTracer) Spawn(id int, argv []string) {
	logging.Trace("backtick.spawn", map[string]interface{}{"id": id, "argv": argv})
}

func (BacktickTracer) SpawnError(id int, err error) {
	if err == nil {
		return
	}
	logging.Trace("backtick.spawn.error", map[string]interface{}{"id": id, "error": err.Error()})
}

func (BacktickTracer) Line(id int, line string) {
	logging.Trace("backtick.line", map[string]interface{}{"id": id, "line": line})
}

func (BacktickTracer) EOF(id int) {
	logging.Trace("backtick.eof", map[string]interface{}{"id": id})
}

func (BacktickTracer) Run(id int, result string) {
	logging.Trace("backtick.run", map[string]interface{}{"id": id, "result": result})
}
