package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atomicstack/tmux-winmsg/internal/backend"
	"github.com/atomicstack/tmux-winmsg/internal/format/status"
	"github.com/atomicstack/tmux-winmsg/internal/logging"
	"github.com/atomicstack/tmux-winmsg/internal/tmux"
	"github.com/atomicstack/tmux-winmsg/internal/winmsg"
)

var newSpawner = func() winmsg.Spawner { return backend.ExecSpawner{} }

// Output is one render of the configured lines.
type Output struct {
	Status     winmsg.Line
	Caption    winmsg.Line
	HasCaption bool
}

// Runtime owns the render state: the event loop every callback runs on, the
// backtick registry, the renderer and the latest tmux snapshot. Apart from
// construction and Close, its methods must run on the loop.
type Runtime struct {
	cfg      Config
	loop     *backend.Loop
	registry *winmsg.Registry
	renderer *winmsg.Renderer
	encoder  *status.Encoder

	rends  winmsg.WindowListRenditions
	snap   tmux.Snapshot
	window *winmsg.Window

	statusTimer  *backend.Timer
	captionTimer *backend.Timer
	refresh      *backend.Timer
	onChange     func()
}

// NewRuntime builds a runtime for cfg. Backtick registration errors are
// logged and the offending entry skipped.
func NewRuntime(cfg Config, enc *status.Encoder) *Runtime {
	loop := backend.NewLoop()
	rt := &Runtime{
		cfg:     cfg,
		loop:    loop,
		encoder: enc,
		rends: winmsg.WindowListRenditions{
			Monitor: winmsg.ParseAttrColor(cfg.Renditions.Monitor),
			Bell:    winmsg.ParseAttrColor(cfg.Renditions.Bell),
			Silence: winmsg.ParseAttrColor(cfg.Renditions.Silence),
		},
	}
	rt.registry = winmsg.NewRegistry(newSpawner(), loop)
	rt.renderer = winmsg.NewRenderer(rt.registry)
	rt.renderer.SetSession(&winmsg.Session{Renditions: rt.rends})

	changed := func() {
		if rt.onChange != nil {
			rt.onChange()
		}
	}
	rt.statusTimer = loop.NewTimer("status", changed)
	rt.captionTimer = loop.NewTimer("caption", changed)
	// coalesces bursts of backtick output into one refresh
	rt.refresh = loop.NewTimer("refresh", changed)
	rt.registry.OnUpdate = func(int) {
		rt.refresh.Arm(time.Now().Add(10 * time.Millisecond))
	}

	for _, bt := range cfg.Backticks {
		if err := rt.registry.Set(bt.ID, bt.Lifespan, bt.Tick, bt.Command); err != nil {
			logging.Error(fmt.Errorf("backtick %d: %w", bt.ID, err))
		}
	}
	return rt
}

// OnChange sets the function called on the loop when a re-render is due.
func (rt *Runtime) OnChange(fn func()) {
	rt.onChange = fn
}

// Loop exposes the event loop.
func (rt *Runtime) Loop() *backend.Loop {
	return rt.loop
}

// Next exposes the loop queue to callers that drain it themselves.
func (rt *Runtime) Next() <-chan func() {
	return rt.loop.Next()
}

// Registry exposes the backtick registry.
func (rt *Runtime) Registry() *winmsg.Registry {
	return rt.registry
}

// Apply installs snap and resolves the configured window against it.
func (rt *Runtime) Apply(snap tmux.Snapshot) error {
	var sess winmsg.Session
	if snap.Session != nil {
		// the watcher keeps comparing against the snapshot it sent
		sess = *snap.Session
	}
	sess.Renditions = rt.rends
	snap.Session = &sess
	win, err := tmux.ResolveWindow(snap, rt.cfg.Window)
	if err != nil {
		return err
	}
	rt.snap = snap
	rt.window = win
	rt.renderer.SetSession(snap.Session)
	return nil
}

// Window is the window templates are rendered for.
func (rt *Runtime) Window() *winmsg.Window {
	return rt.window
}

// Render renders the configured template and caption.
func (rt *Runtime) Render() Output {
	out := Output{
		Status: rt.renderer.RenderEv(rt.cfg.Template, rt.window, winmsg.DefaultEscape, rt.cfg.Width, &winmsg.Event{Timer: rt.statusTimer}, 0),
	}
	if rt.cfg.Caption != "" {
		ev := &winmsg.Event{
			Timer:  rt.captionTimer,
			Canvas: &winmsg.Canvas{Focused: true},
		}
		out.Caption = rt.renderer.RenderEv(rt.cfg.Caption, rt.window, winmsg.DefaultEscape, rt.cfg.Width, ev, 0)
		out.HasCaption = true
	}
	return out
}

// RenderTemplate renders tmpl once at width and encodes it.
func (rt *Runtime) RenderTemplate(tmpl string, width int) string {
	line := rt.renderer.Render(tmpl, rt.window, winmsg.DefaultEscape, width)
	return rt.encoder.Encode(line)
}

// Encode renders out in the configured format, one line per rendered
// template.
func (rt *Runtime) Encode(out Output) string {
	lines := []string{rt.encoder.Encode(out.Status)}
	if out.HasCaption {
		lines = append(lines, rt.encoder.Encode(out.Caption))
	}
	return strings.Join(lines, "\n")
}

// Settle runs the loop for d so continuous backticks can produce output.
func (rt *Runtime) Settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	_ = rt.loop.Run(ctx)
}

// Close disarms timers, releases backticks and stops the loop.
func (rt *Runtime) Close() {
	rt.statusTimer.Disarm()
	rt.captionTimer.Disarm()
	rt.refresh.Disarm()
	rt.registry.Close()
	rt.loop.Close()
}
