package events

import "github.com/atomicstack/tmux-winmsg/internal/logging"

type PreviewTracer struct{}

var Preview = PreviewTracer{}

func (PreviewTracer) Edit(template string) {
	logging.Trace("preview.edit", map[string]interface{}{"template": template})
}

func (PreviewTracer) Resize(width, height int) {
	logging.Trace("preview.resize", map[string]interface{}{"width": width, "height": height})
}

func (PreviewTracer) Commit(template string) {
	logging.Trace("preview.commit", map[string]interface{}{"template": template})
}
