package backend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atomicstack/tmux-winmsg/internal/tmux"
	"github.com/atomicstack/tmux-winmsg/internal/winmsg"
)

func withStubFetch(t *testing.T, fn func(socket, session string) (tmux.Snapshot, error)) {
	t.Helper()
	prev := fetchSnapshot
	fetchSnapshot = fn
	t.Cleanup(func() { fetchSnapshot = prev })
}

func TestWatcherSkipsUnchangedSnapshots(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	withStubFetch(t, func(socket, session string) (tmux.Snapshot, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		name := "one"
		if calls >= 3 {
			name = "two"
		}
		return tmux.Snapshot{Session: &winmsg.Session{Name: name}}, nil
	})

	w := NewWatcher("sock", "dev", 5*time.Millisecond)
	defer func() {
		w.Stop()
		w.Wait()
	}()

	var names []string
	for len(names) < 2 {
		select {
		case evt := <-w.Events():
			if evt.Err != nil {
				t.Fatalf("unexpected error: %v", evt.Err)
			}
			names = append(names, evt.Snapshot.Session.Name)
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out, got %v", names)
		}
	}
	if names[0] != "one" || names[1] != "two" {
		t.Fatalf("expected [one two], got %v", names)
	}
}

func TestWatcherReportsErrors(t *testing.T) {
	boom := errors.New("boom")
	withStubFetch(t, func(string, string) (tmux.Snapshot, error) {
		return tmux.Snapshot{}, boom
	})
	w := NewWatcher("sock", "", 0)
	select {
	case evt := <-w.Events():
		if !errors.Is(evt.Err, boom) {
			t.Fatalf("expected boom, got %v", evt.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for error event")
	}
	w.Stop()
	w.Wait()
	if _, ok := <-w.Events(); ok {
		t.Fatalf("expected events channel to be closed")
	}
}

func TestThrottleHonoursContext(t *testing.T) {
	th := newThrottle(time.Hour)
	if !th.wait(context.Background()) {
		t.Fatalf("first wait should pass immediately")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if th.wait(ctx) {
		t.Fatalf("expected cancelled wait to fail")
	}
	var nilThrottle *throttle
	if !nilThrottle.wait(context.Background()) {
		t.Fatalf("nil throttle should not block")
	}
}
