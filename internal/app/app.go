package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/muesli/termenv"

	"github.com/atomicstack/tmux-winmsg/internal/backend"
	"github.com/atomicstack/tmux-winmsg/internal/data/dispatcher"
	"github.com/atomicstack/tmux-winmsg/internal/format/status"
	"github.com/atomicstack/tmux-winmsg/internal/format/table"
	"github.com/atomicstack/tmux-winmsg/internal/logging"
	"github.com/atomicstack/tmux-winmsg/internal/logging/events"
	"github.com/atomicstack/tmux-winmsg/internal/tmux"
	"github.com/atomicstack/tmux-winmsg/internal/ui"
	"github.com/atomicstack/tmux-winmsg/internal/winmsg"
)

const (
	ModeRender    = "render"
	ModeWatch     = "watch"
	ModePreview   = "preview"
	ModeBackticks = "backticks"
)

// Modes lists the accepted run modes.
var Modes = []string{ModeRender, ModeWatch, ModePreview, ModeBackticks}

// Config describes user-provided application options.
type Config struct {
	Mode       string
	SocketPath string
	Session    string
	Window     string
	Template   string
	Caption    string
	Width      int
	Format     string
	Interval   time.Duration
	Settle     time.Duration
	// Count stops watch mode after that many lines; 0 runs until interrupted.
	Count      int
	Backticks  []Backtick
	Renditions Renditions
}

// Backtick is a command registered under a numeric id, as with screen's
// backtick command.
type Backtick struct {
	ID       int      `toml:"id" yaml:"id"`
	Lifespan int      `toml:"lifespan" yaml:"lifespan"`
	Tick     int      `toml:"tick" yaml:"tick"`
	Command  []string `toml:"command" yaml:"command"`
}

// Renditions are the attribute/color specs wrapped around flagged entries of
// the window list.
type Renditions struct {
	Monitor string `toml:"monitor" yaml:"monitor"`
	Bell    string `toml:"bell" yaml:"bell"`
	Silence string `toml:"silence" yaml:"silence"`
}

var (
	stdout        io.Writer = os.Stdout
	fetchSnapshot           = tmux.FetchSnapshot
	runPreview              = ui.Run
	startWatcher            = func(socketPath, session string, interval time.Duration) (<-chan backend.Event, func()) {
		w := backend.NewWatcher(socketPath, session, interval)
		return w.Events(), w.Stop
	}
	colorProfile            = func() termenv.Profile { return termenv.NewOutput(os.Stdout).EnvColorProfile() }
)

// defaultWidth sizes pads when no width was configured or detected.
const defaultWidth = 80

// Run executes the configured mode.
func Run(cfg Config) error {
	events.App.Mode(cfg.Mode)
	if cfg.Mode == ModeBackticks {
		return listBackticks(stdout, cfg)
	}

	format, err := status.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	if cfg.Mode == ModePreview {
		format = status.FormatANSI
	}
	socketPath, err := tmux.ResolveSocketPath(cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("resolve socket path: %w", err)
	}

	if cfg.Width <= 0 && cfg.Mode != ModePreview {
		cfg.Width = defaultWidth
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := NewRuntime(cfg, status.NewEncoder(format, stdout, colorProfile()))
	defer rt.Close()

	switch cfg.Mode {
	case ModeWatch:
		return watch(ctx, rt, socketPath, cfg)
	case ModePreview:
		return preview(rt, socketPath, cfg)
	default:
		return render(ctx, rt, socketPath, cfg)
	}
}

func render(ctx context.Context, rt *Runtime, socketPath string, cfg Config) error {
	snap, err := fetchSnapshot(socketPath, cfg.Session)
	if err != nil {
		if cfg.Session != "" || cfg.Window != "" {
			return fmt.Errorf("tmux snapshot: %w", err)
		}
		// without tmux the template still renders, minus window state
		logging.Error(fmt.Errorf("tmux snapshot: %w", err))
		snap = tmux.Snapshot{}
	}
	if err := rt.Apply(snap); err != nil {
		return err
	}
	rt.Settle(ctx, cfg.Settle)
	line := rt.Encode(rt.Render())
	events.App.Output(line)
	_, err = fmt.Fprintln(stdout, line)
	return err
}

func watch(ctx context.Context, rt *Runtime, socketPath string, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var last string
	emitted := 0
	emit := func() {
		line := rt.Encode(rt.Render())
		if line == last && emitted > 0 {
			return
		}
		last = line
		emitted++
		events.App.Output(line)
		if _, err := fmt.Fprintln(stdout, line); err != nil {
			logging.Error(err)
			cancel()
			return
		}
		if cfg.Count > 0 && emitted >= cfg.Count {
			cancel()
		}
	}
	rt.OnChange(emit)

	snapshots, stopWatcher := startWatcher(socketPath, cfg.Session, cfg.Interval)
	defer stopWatcher()
	go forwardSnapshots(snapshots, rt, emit)

	err := rt.Loop().Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// forwardSnapshots applies watcher events on the loop and calls then after
// each one that changed what templates can show.
func forwardSnapshots(snapshots <-chan backend.Event, rt *Runtime, then func()) {
	d := dispatcher.New(rt)
	for evt := range snapshots {
		evt := evt
		if !rt.Loop().Post(func() {
			if d.Handle(evt).Changed() {
				then()
			}
		}) {
			return
		}
	}
}

func preview(rt *Runtime, socketPath string, cfg Config) error {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	snapshots, stopWatcher := startWatcher(socketPath, cfg.Session, interval)
	defer stopWatcher()
	go forwardSnapshots(snapshots, rt, func() {})
	return runPreview(rt, ui.Options{
		Template: cfg.Template,
		Width:    cfg.Width,
	})
}

func listBackticks(w io.Writer, cfg Config) error {
	rows := [][]string{{"ID", "MODE", "LIFESPAN", "TICK", "COMMAND"}}
	reg := winmsg.NewRegistry(nil, nil)
	for _, bt := range cfg.Backticks {
		if err := reg.Set(bt.ID, bt.Lifespan, bt.Tick, bt.Command); err != nil {
			return fmt.Errorf("backtick %d: %w", bt.ID, err)
		}
	}
	for _, info := range reg.List() {
		rows = append(rows, []string{
			strconv.Itoa(info.ID),
			string(info.Mode),
			strconv.Itoa(info.Lifespan),
			strconv.Itoa(info.Tick),
			strings.Join(info.Argv, " "),
		})
	}
	for _, line := range table.Format(rows, []table.Alignment{table.AlignRight, table.AlignLeft, table.AlignRight, table.AlignRight, table.AlignLeft}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
