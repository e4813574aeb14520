package tmux

import (
	"path/filepath"
	"testing"

	testutil "github.com/atomicstack/tmux-winmsg/internal/testutil"
)

func TestFetchSnapshotIntegration(t *testing.T) {
	socket, cleanup, logDir := testutil.StartTmuxServer(t)
	defer cleanup()
	t.Cleanup(func() {
		testutil.AssertNoServerCrash(t, logDir)
	})
	t.Setenv("TMUX_TMPDIR", filepath.Dir(socket))
	t.Setenv("TMUX_PANE", "")

	if err := testutil.Tmux(socket, "rename-window", "-t", testutil.SessionName+":0", "first"); err != nil {
		t.Skipf("skipping: rename-window failed: %v", err)
	}
	if err := testutil.Tmux(socket, "new-window", "-d", "-t", testutil.SessionName+":3", "-n", "second", "sleep", "600"); err != nil {
		t.Skipf("skipping: new-window failed: %v", err)
	}

	snap, err := FetchSnapshot(socket, testutil.SessionName)
	if err != nil {
		t.Fatalf("FetchSnapshot failed: %v", err)
	}
	if snap.Session.Name != testutil.SessionName {
		t.Fatalf("expected session %q, got %q", testutil.SessionName, snap.Session.Name)
	}
	if len(snap.Session.Windows) != 2 {
		t.Fatalf("expected 2 windows, got %+v", snap.Session.Windows)
	}
	if snap.Session.Windows[1].Number != 3 || snap.Session.Windows[1].Title != "second" {
		t.Fatalf("unexpected second window %+v", snap.Session.Windows[1])
	}
	if snap.Active == nil || snap.Active.Title != "first" {
		t.Fatalf("expected first window active, got %+v", snap.Active)
	}
	if snap.Session.Pid == 0 {
		t.Fatalf("expected server pid")
	}
	if snap.Session.Display != nil {
		t.Fatalf("expected detached test session")
	}

	w, err := ResolveWindow(snap, "secnd")
	if err != nil || w.Number != 3 {
		t.Fatalf("expected fuzzy match on window 3, got %+v (%v)", w, err)
	}
}
