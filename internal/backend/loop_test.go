package backend

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func runLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l, cancel
}

func TestLoopRunsPostedInOrder(t *testing.T) {
	l, _ := runLoop(t)
	got := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		if !l.Post(func() { got <- i }) {
			t.Fatalf("post %d rejected", i)
		}
	}
	for want := 1; want <= 3; want++ {
		select {
		case v := <-got:
			if v != want {
				t.Fatalf("expected %d, got %d", want, v)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for callback %d", want)
		}
	}
}

func TestLoopPostAfterClose(t *testing.T) {
	l := NewLoop()
	l.Close()
	l.Close()
	if l.Post(func() {}) {
		t.Fatalf("expected post to fail on closed loop")
	}
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("expected nil error from closed loop, got %v", err)
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type chunkReader struct {
	chunks []string
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.chunks = c.chunks[1:]
	return n, nil
}

func TestWatchDeliversChunksThenEOF(t *testing.T) {
	l, _ := runLoop(t)
	type call struct {
		chunk string
		err   error
	}
	calls := make(chan call, 8)
	l.Watch(&chunkReader{chunks: []string{"first\nsec", "ond\n"}}, func(chunk []byte, err error) {
		calls <- call{string(chunk), err}
	})
	var got []call
	for len(got) < 3 {
		select {
		case c := <-calls:
			got = append(got, c)
		case <-time.After(time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}
	if got[0].chunk != "first\nsec" || got[1].chunk != "ond\n" {
		t.Fatalf("unexpected chunks %v", got)
	}
	if got[2].chunk != "" || !errors.Is(got[2].err, io.EOF) {
		t.Fatalf("expected EOF call, got %+v", got[2])
	}
}

func TestWatchStopSuppressesCallbacks(t *testing.T) {
	l := NewLoop()
	pr, pw := io.Pipe()
	called := false
	w := l.Watch(pr, func([]byte, error) { called = true })

	go func() { _, _ = pw.Write([]byte("data")) }()
	var fn func()
	select {
	case fn = <-l.Next():
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for posted chunk")
	}
	w.Stop()
	fn()
	if called {
		t.Fatalf("callback ran after Stop")
	}
	pr.Close()
	l.Close()
}

type emptyReader struct{ reads atomic.Int64 }

func (r *emptyReader) Read([]byte) (int, error) {
	r.reads.Add(1)
	return 0, nil
}

func TestWatchBacksOffOnEmptyReadsAndStops(t *testing.T) {
	l := NewLoop()
	defer l.Close()
	r := &emptyReader{}
	w := l.Watch(r, func([]byte, error) { t.Errorf("unexpected callback") })

	time.Sleep(100 * time.Millisecond)
	if n := r.reads.Load(); n == 0 || n > 50 {
		t.Fatalf("expected a handful of reads with backoff, got %d", n)
	}
	w.Stop()
	time.Sleep(150 * time.Millisecond)
	before := r.reads.Load()
	time.Sleep(150 * time.Millisecond)
	if after := r.reads.Load(); after != before {
		t.Fatalf("reader kept polling after Stop: %d -> %d", before, after)
	}
}

func TestIdleBackoffCaps(t *testing.T) {
	if d := idleBackoff(1); d != time.Millisecond {
		t.Fatalf("expected 1ms first backoff, got %v", d)
	}
	if d := idleBackoff(50); d != 100*time.Millisecond {
		t.Fatalf("expected 100ms cap, got %v", d)
	}
}

func TestTimerFiresOnLoop(t *testing.T) {
	l, _ := runLoop(t)
	fired := make(chan struct{}, 1)
	timer := l.NewTimer("test", func() { fired <- struct{}{} })
	timer.Arm(time.Now().Add(10 * time.Millisecond))
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("timer did not fire")
	}
}

func TestTimerDisarmAndRearm(t *testing.T) {
	l, _ := runLoop(t)
	fired := make(chan string, 2)
	var label string
	timer := l.NewTimer("test", func() { fired <- label })

	label = "stale"
	timer.Arm(time.Now().Add(20 * time.Millisecond))
	timer.Disarm()
	select {
	case v := <-fired:
		t.Fatalf("disarmed timer fired (%s)", v)
	case <-time.After(60 * time.Millisecond):
	}

	timer.Arm(time.Now().Add(time.Hour))
	l.Post(func() { label = "fresh" })
	timer.Arm(time.Now().Add(10 * time.Millisecond))
	select {
	case v := <-fired:
		if v != "fresh" {
			t.Fatalf("expected fresh fire, got %q", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("rearmed timer did not fire")
	}
}

func TestExecSpawnerReadsOutput(t *testing.T) {
	sh := lookPath(t, "sh")
	rc, err := ExecSpawner{}.Start([]string{sh, "-c", "printf 'one\\ntwo\\n'"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if strings.TrimSpace(string(data)) != "one\ntwo" {
		t.Fatalf("unexpected output %q", data)
	}
}

func TestExecSpawnerCloseKillsLongRunning(t *testing.T) {
	sh := lookPath(t, "sh")
	rc, err := ExecSpawner{}.Start([]string{sh, "-c", "while :; do sleep 1; done"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- rc.Close() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("close: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("close did not return")
	}
}

func TestExecSpawnerRejectsEmpty(t *testing.T) {
	if _, err := (ExecSpawner{}).Start(nil); err == nil {
		t.Fatalf("expected error for empty argv")
	}
	if _, err := (ExecSpawner{}).Start([]string{"/nonexistent/winmsg-test-binary"}); err == nil {
		t.Fatalf("expected error for missing binary")
	}
}

func lookPath(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}
