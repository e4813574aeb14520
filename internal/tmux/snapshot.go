package tmux

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/atomicstack/tmux-winmsg/internal/logging/events"
	"github.com/atomicstack/tmux-winmsg/internal/winmsg"
)

// Snapshot is the state of one tmux session as seen by the renderer.
type Snapshot struct {
	Session *winmsg.Session
	// Active is the session's current window, also set when no client is
	// attached.
	Active *winmsg.Window
}

const windowFields = 12

var windowFormat = strings.Join([]string{
	"#{session_name}",
	"#{window_index}",
	"#{window_flags}",
	"#{window_width}",
	"#{window_height}",
	"#{?window_linked,1,0}",
	"#{?pane_pipe,1,0}",
	"#{?pane_dead,1,0}",
	"#{pane_current_command}",
	"#{pane_start_command}",
	"#{window_name}",
	"#{pane_title}",
}, "\t")

type windowLine struct {
	session string
	flags   string
	window  winmsg.Window
}

// FetchSnapshot reads the windows of session (the current session when
// empty) from the server at socketPath.
func FetchSnapshot(socketPath, session string) (Snapshot, error) {
	client, err := newTmux(socketPath)
	if err != nil {
		return Snapshot{}, err
	}
	defer client.Close()

	if session == "" {
		session = currentSessionName(client)
	}
	raw, err := client.ListWindowsFormat("", "", windowFormat)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list windows: %w", err)
	}
	lines := parseWindowLines(raw)
	if session == "" && len(lines) > 0 {
		session = lines[0].session
	}

	sess := &winmsg.Session{Name: stripDEL(session)}
	var active, last *winmsg.Window
	for _, line := range lines {
		if line.session != session {
			continue
		}
		w := line.window
		win := &w
		if strings.ContainsRune(line.flags, '*') {
			active = win
		}
		if strings.ContainsRune(line.flags, '-') {
			last = win
		}
		sess.Windows = append(sess.Windows, win)
	}
	if len(sess.Windows) == 0 {
		return Snapshot{}, fmt.Errorf("session %q not found", session)
	}
	sort.SliceStable(sess.Windows, func(i, j int) bool {
		return sess.Windows[i].Number < sess.Windows[j].Number
	})

	target := session + ":"
	sess.Host, sess.Pid = serverInfo(client, target)
	sess.Host = stripDEL(sess.Host)
	if clients := realAttachedClients(client); len(clients[session]) > 0 {
		sess.Display = &winmsg.Display{
			Fore:    active,
			Other:   last,
			UserPid: clientPid(client, target),
		}
	}
	events.Tmux.Snapshot(session, len(sess.Windows), sess.Display != nil)
	return Snapshot{Session: sess, Active: active}, nil
}

func parseWindowLines(raw []string) []windowLine {
	out := make([]windowLine, 0, len(raw))
	for _, line := range raw {
		parts := strings.SplitN(line, "\t", windowFields)
		if len(parts) < windowFields {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		width, _ := strconv.Atoi(strings.TrimSpace(parts[3]))
		height, _ := strconv.Atoi(strings.TrimSpace(parts[4]))
		flags := parts[2]
		out = append(out, windowLine{
			session: parts[0],
			flags:   flags,
			window: winmsg.Window{
				Number:     index,
				Width:      width,
				Height:     height,
				Shared:     parts[5] == "1",
				Logging:    parts[6] == "1",
				Zombie:     parts[7] == "1",
				CmdArgs:    commandArgs(stripDEL(parts[8]), stripDEL(parts[9])),
				Title:      stripDEL(parts[10]),
				Hardstatus: stripDEL(parts[11]),
				Activity:   strings.ContainsRune(flags, '#'),
				Bell:       strings.ContainsRune(flags, '!'),
				Silence:    strings.ContainsRune(flags, '~'),
			},
		})
	}
	return out
}

// stripDEL removes 0x7f, which the renderer reserves as its pad marker.
func stripDEL(s string) string {
	return strings.ReplaceAll(s, "\x7f", "")
}

// commandArgs prefers the command the pane was started with, falling back to
// the name of the foreground process.
func commandArgs(current, start string) []string {
	start = strings.Trim(strings.TrimSpace(start), `"`)
	if args := strings.Fields(start); len(args) > 0 {
		return args
	}
	if current = strings.TrimSpace(current); current != "" {
		return []string{current}
	}
	return nil
}

func serverInfo(client tmuxClient, target string) (string, int) {
	var host string
	var pid int
	if out, err := client.DisplayMessage(target, "#{host_short}\t#{pid}"); err == nil {
		parts := strings.SplitN(strings.TrimSpace(out), "\t", 2)
		host = parts[0]
		if len(parts) == 2 {
			pid, _ = strconv.Atoi(parts[1])
		}
	} else {
		events.Tmux.Error(err)
	}
	if host == "" {
		if h, err := os.Hostname(); err == nil {
			host, _, _ = strings.Cut(h, ".")
		}
	}
	return host, pid
}

func clientPid(client tmuxClient, target string) int {
	out, err := client.DisplayMessage(target, "#{client_pid}")
	if err != nil {
		return 0
	}
	pid, _ := strconv.Atoi(strings.TrimSpace(out))
	return pid
}
