package winmsg

import "time"

// Window is the per-window state a template can refer to.
type Window struct {
	Number     int
	Title      string
	Hardstatus string
	CmdArgs    []string
	Width      int
	Height     int

	Activity bool
	Bell     bool
	Silence  bool
	Shared   bool
	LoggedIn bool
	Logging  bool
	Zombie   bool
}

// Display is the attached client. A nil *Display means no client is attached.
type Display struct {
	Fore    *Window
	Other   *Window
	UserPid int
	EscSeen bool
}

// WindowListRenditions are wrapped around flagged entries of the window list
// when non-zero.
type WindowListRenditions struct {
	Monitor Code
	Bell    Code
	Silence Code
}

// Session is the snapshot of multiplexer state consumed by the renderer.
type Session struct {
	Host       string
	Name       string
	Pid        int
	Windows    []*Window
	Display    *Display
	Renditions WindowListRenditions
}

// Canvas identifies a caption being rendered.
type Canvas struct {
	Focused  bool
	CopyMode bool
}

// Timer is a one-shot timer the renderer rearms for periodic refreshes.
type Timer interface {
	Arm(at time.Time)
	Disarm()
}

// Event carries the context of an event-driven render. A nil Canvas denotes
// the hardstatus line.
type Event struct {
	Timer  Timer
	Canvas *Canvas
}
