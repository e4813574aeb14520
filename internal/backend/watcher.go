package backend

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/atomicstack/tmux-winmsg/internal/logging/events"
	"github.com/atomicstack/tmux-winmsg/internal/tmux"
)

// Event conveys an updated snapshot or an error from a poll.
type Event struct {
	Snapshot tmux.Snapshot
	Err      error
}

// fetchSnapshot is swapped by tests.
var fetchSnapshot = tmux.FetchSnapshot

// Watcher polls tmux at a fixed interval and publishes snapshots that differ
// from the previous one.
type Watcher struct {
	socketPath string
	session    string
	interval   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	wg     sync.WaitGroup
}

// NewWatcher starts polling session on the server at socketPath. An empty
// session follows the current one.
func NewWatcher(socketPath, session string, interval time.Duration) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		socketPath: socketPath,
		session:    session,
		interval:   interval,
		ctx:        ctx,
		cancel:     cancel,
		events:     make(chan Event, 16),
	}

	throttle := newThrottle(250 * time.Millisecond)
	w.wg.Add(1)
	go w.poll(func(ctx context.Context) (tmux.Snapshot, error) {
		if !throttle.wait(ctx) {
			return tmux.Snapshot{}, ctx.Err()
		}
		return fetchSnapshot(w.socketPath, w.session)
	})

	go func() {
		w.wg.Wait()
		close(w.events)
	}()

	return w
}

// Events returns a channel of snapshot events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop cancels the watcher. The poller exits after its current fetch
// completes; use Wait if a clean drain is required.
func (w *Watcher) Stop() {
	w.cancel()
}

// Wait blocks until the poller has exited and the events channel is closed.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) poll(fetch func(context.Context) (tmux.Snapshot, error)) {
	defer w.wg.Done()

	var last *tmux.Snapshot
	emit := func() bool {
		snap, err := fetch(w.ctx)
		if w.ctx.Err() != nil {
			return false
		}
		if err == nil {
			if last != nil && reflect.DeepEqual(*last, snap) {
				return true
			}
			last = &snap
		} else {
			events.Tmux.Error(err)
		}
		select {
		case <-w.ctx.Done():
			return false
		case w.events <- Event{Snapshot: snap, Err: err}:
			return true
		}
	}

	if !emit() {
		return
	}
	if w.interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if !emit() {
				return
			}
		}
	}
}
