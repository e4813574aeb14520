package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/atomicstack/tmux-winmsg/internal/app"
	"github.com/atomicstack/tmux-winmsg/internal/config"
	"github.com/atomicstack/tmux-winmsg/internal/logging"
	"github.com/atomicstack/tmux-winmsg/internal/logging/events"
)

func main() {
	cfg := config.MustLoad()
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	logging.Configure(cfg.Logging.FilePath)
	logging.SetTraceEnabled(cfg.Logging.Trace)

	tty := probeTerminal()
	applyTerminalWidth(&cfg.App, tty)
	events.App.Start(startupTracePayload(cfg, tty))

	if err := app.Run(cfg.App); err != nil {
		logging.Error(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// terminal is what the renderer needs to know about where its output goes.
type terminal struct {
	Stdout ttyProbe `json:"stdout"`
	Stderr ttyProbe `json:"stderr"`
}

type ttyProbe struct {
	IsTerminal bool   `json:"is_terminal"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Error      string `json:"error,omitempty"`
}

func probeTerminal() terminal {
	return terminal{
		Stdout: probeFile(os.Stdout),
		Stderr: probeFile(os.Stderr),
	}
}

func probeFile(f *os.File) ttyProbe {
	fd := int(f.Fd())
	if fd < 0 || !term.IsTerminal(fd) {
		return ttyProbe{}
	}
	p := ttyProbe{IsTerminal: true}
	if w, h, err := term.GetSize(fd); err == nil {
		p.Width, p.Height = w, h
	} else {
		p.Error = err.Error()
	}
	return p
}

// applyTerminalWidth sizes status output to the terminal it is printed on
// unless a width was configured. The preview tracks its own window size.
func applyTerminalWidth(cfg *app.Config, tty terminal) {
	if cfg.Width > 0 || cfg.Mode == app.ModePreview {
		return
	}
	if tty.Stdout.Width > 0 {
		cfg.Width = tty.Stdout.Width
	}
}

func startupTracePayload(cfg config.Config, tty terminal) map[string]interface{} {
	flags := make(map[string]interface{}, len(cfg.Flags)+2)
	for k, v := range cfg.Flags {
		flags[k] = v
	}
	flags["trace"] = cfg.Logging.Trace
	flags["logFile"] = cfg.Logging.FilePath
	payload := map[string]interface{}{
		"argv":      cfg.Args,
		"flags":     flags,
		"mode":      cfg.App.Mode,
		"width":     cfg.App.Width,
		"backticks": len(cfg.App.Backticks),
		"tty":       tty,
	}
	if cfg.File != "" {
		payload["configFile"] = cfg.File
	}
	if exe, err := os.Executable(); err == nil {
		payload["executable"] = exe
	}
	return payload
}
