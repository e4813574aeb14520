package main

import (
	"testing"

	"github.com/atomicstack/tmux-winmsg/internal/app"
	"github.com/atomicstack/tmux-winmsg/internal/config"
)

func TestApplyTerminalWidth(t *testing.T) {
	tty := terminal{Stdout: ttyProbe{IsTerminal: true, Width: 132, Height: 40}}

	cfg := app.Config{Mode: app.ModeRender}
	applyTerminalWidth(&cfg, tty)
	if cfg.Width != 132 {
		t.Fatalf("expected terminal width 132, got %d", cfg.Width)
	}

	cfg = app.Config{Mode: app.ModeWatch, Width: 60}
	applyTerminalWidth(&cfg, tty)
	if cfg.Width != 60 {
		t.Fatalf("configured width should win, got %d", cfg.Width)
	}

	cfg = app.Config{Mode: app.ModePreview}
	applyTerminalWidth(&cfg, tty)
	if cfg.Width != 0 {
		t.Fatalf("preview should follow its own window, got %d", cfg.Width)
	}

	cfg = app.Config{Mode: app.ModeRender}
	applyTerminalWidth(&cfg, terminal{})
	if cfg.Width != 0 {
		t.Fatalf("piped output should leave the width unset, got %d", cfg.Width)
	}
}

func TestStartupTracePayloadIncludesFlags(t *testing.T) {
	cfg := config.Config{
		App: app.Config{
			Mode:       app.ModeWatch,
			SocketPath: "socket-path",
			Template:   "%n %t",
			Width:      80,
		},
		Logging: config.Logging{
			FilePath: "trace.log",
			Trace:    true,
		},
		Flags: map[string]string{
			"mode":     "watch",
			"socket":   "socket-path",
			"template": "%n %t",
			"width":    "80",
		},
		Args: []string{"--socket", "socket-path", "watch", "%n %t"},
		File: "winmsg.toml",
	}

	tty := terminal{Stdout: ttyProbe{IsTerminal: true, Width: 80}}
	payload := startupTracePayload(cfg, tty)

	flagsValue, ok := payload["flags"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected flags map in payload")
	}
	if flagsValue["socket"] != "socket-path" {
		t.Fatalf("expected socket flag %q, got %v", "socket-path", flagsValue["socket"])
	}
	if flagsValue["mode"] != "watch" {
		t.Fatalf("expected mode watch, got %v", flagsValue["mode"])
	}
	if flagsValue["width"] != "80" {
		t.Fatalf("expected width 80, got %v", flagsValue["width"])
	}
	if flagsValue["trace"] != true {
		t.Fatalf("expected trace flag true, got %v", flagsValue["trace"])
	}
	if flagsValue["logFile"] != "trace.log" {
		t.Fatalf("expected log file trace.log, got %v", flagsValue["logFile"])
	}
	if payload["configFile"] != "winmsg.toml" {
		t.Fatalf("expected config file in payload, got %v", payload["configFile"])
	}

	if got, ok := payload["tty"].(terminal); !ok || got.Stdout.Width != 80 {
		t.Fatalf("expected tty probe in payload, got %v", payload["tty"])
	}
	if payload["mode"] != app.ModeWatch || payload["width"] != 80 {
		t.Fatalf("expected mode and width in payload, got %v %v", payload["mode"], payload["width"])
	}
}
