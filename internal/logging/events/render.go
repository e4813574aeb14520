package events

import "github.com/atomicstack/tmux-winmsg/internal/logging"

type RenderTracer struct{}

var Render = RenderTracer{}

func (RenderTracer) Pass(templateLen, textLen, rends, tick int) {
	logging.Trace("render.pass", map[string]interface{}{
		"template": templateLen,
		"text":     textLen,
		"rends":    rends,
		"tick":     tick,
	})
}

func (RenderTracer) DepthLimit(depth int) {
	logging.Trace("render.depth-limit", map[string]interface{}{"depth": depth})
}
