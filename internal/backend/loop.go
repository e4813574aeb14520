package backend

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atomicstack/tmux-winmsg/internal/logging/events"
	"github.com/atomicstack/tmux-winmsg/internal/winmsg"
)

const readChunk = 4096

// Loop runs callbacks one at a time. Readers, timers and pollers only ever
// post work to it, so everything they trigger runs on a single goroutine:
// either Run, or whoever drains Next.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop returns an idle loop.
func NewLoop() *Loop {
	return &Loop{
		queue: make(chan func(), 64),
		done:  make(chan struct{}),
	}
}

// Post queues fn. It reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Next exposes the queue for callers that run callbacks themselves.
func (l *Loop) Next() <-chan func() {
	return l.queue
}

// Done is closed by Close.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run executes queued callbacks until ctx is cancelled or the loop closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			events.Loop.Stop("context")
			return ctx.Err()
		case <-l.done:
			events.Loop.Stop("closed")
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Close stops the loop. Pending callbacks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Watch reads r on its own goroutine and posts every chunk to fn. The final
// callback carries the read error (io.EOF at end of stream).
func (l *Loop) Watch(r io.Reader, fn func(chunk []byte, err error)) winmsg.Watch {
	w := &readWatch{stop: make(chan struct{})}
	go w.read(l, r, fn)
	return w
}

type readWatch struct {
	stopped atomic.Bool
	stop    chan struct{}
	once    sync.Once
}

func (w *readWatch) read(l *Loop, r io.Reader, fn func([]byte, error)) {
	buf := make([]byte, readChunk)
	idle := 0
	for {
		select {
		case <-w.stop:
			return
		default:
		}
		n, err := r.Read(buf)
		if n == 0 && err == nil {
			idle++
			select {
			case <-w.stop:
				return
			case <-time.After(idleBackoff(idle)):
			}
			continue
		}
		idle = 0
		chunk := append([]byte(nil), buf[:n]...)
		deliver := func() {
			if w.stopped.Load() {
				return
			}
			fn(chunk, err)
		}
		select {
		case <-w.stop:
			return
		default:
		}
		if !l.Post(deliver) || err != nil {
			return
		}
	}
}

// idleBackoff grows the pause after consecutive empty reads up to 100ms.
func idleBackoff(idle int) time.Duration {
	d := time.Millisecond << min(idle-1, 7)
	return min(d, 100*time.Millisecond)
}

// Stop must be called from the loop goroutine; fn is not called afterwards.
func (w *readWatch) Stop() {
	w.once.Do(func() {
		w.stopped.Store(true)
		close(w.stop)
	})
}

// Timer is a one-shot timer whose callback runs on the loop. Every Arm or
// Disarm invalidates the previous schedule, including a callback already
// queued.
type Timer struct {
	loop *Loop
	name string
	fn   func()

	mu  sync.Mutex
	t   *time.Timer
	gen uint64
}

// NewTimer returns a disarmed timer calling fn on the loop.
func (l *Loop) NewTimer(name string, fn func()) *Timer {
	return &Timer{loop: l, name: name, fn: fn}
}

// Arm schedules the timer at the given wall-clock time.
func (t *Timer) Arm(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	gen := t.gen
	if t.t != nil {
		t.t.Stop()
	}
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	t.t = time.AfterFunc(d, func() {
		t.loop.Post(func() {
			if !t.live(gen) {
				return
			}
			events.Loop.TimerFire(t.name)
			t.fn()
		})
	})
	events.Loop.TimerArm(t.name, at)
}

// Disarm cancels any pending schedule.
func (t *Timer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}

func (t *Timer) live(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen == gen
}
