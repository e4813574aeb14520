package winmsg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/atomicstack/tmux-winmsg/internal/logging"
	"github.com/atomicstack/tmux-winmsg/internal/logging/events"
)

// ErrInvalidBacktick is returned by Registry.Set for unusable registrations.
var ErrInvalidBacktick = errors.New("winmsg: invalid backtick")

// Spawner starts an external command and returns its standard output.
type Spawner interface {
	Start(argv []string) (io.ReadCloser, error)
}

// Poller delivers the output of r to fn as it becomes available. fn receives
// a non-nil error once the stream ends; it is never called after Stop returns.
type Poller interface {
	Watch(r io.Reader, fn func(chunk []byte, err error)) Watch
}

// Watch is a registration made with a Poller.
type Watch interface {
	Stop()
}

// BacktickMode tells how a backtick is refreshed.
type BacktickMode string

const (
	ModeContinuous BacktickMode = "continuous"
	ModeCached     BacktickMode = "cached"
)

// BacktickInfo describes a registered backtick.
type BacktickInfo struct {
	ID       int
	Lifespan int
	Tick     int
	Argv     []string
	Mode     BacktickMode
	Result   string
	Running  bool
}

type backtick struct {
	id       int
	lifespan int
	tick     int
	argv     []string

	result     string
	bestBefore time.Time

	// continuous mode
	src   io.ReadCloser
	watch Watch
	buf   []byte
	bufi  int
	gen   uint64
}

func (bt *backtick) continuous() bool {
	return bt.tick == 0 && bt.lifespan == 0
}

// Registry maps backtick ids to commands. Like the Renderer it must only be
// used from one goroutine at a time.
type Registry struct {
	spawner Spawner
	poller  Poller
	// Now is the clock used for cache expiry.
	Now func() time.Time
	// OnUpdate is called after a continuous backtick produced a new line.
	OnUpdate func(id int)

	entries map[int]*backtick
	gen     uint64
}

// NewRegistry returns an empty registry.
func NewRegistry(spawner Spawner, poller Poller) *Registry {
	return &Registry{
		spawner: spawner,
		poller:  poller,
		Now:     time.Now,
		entries: make(map[int]*backtick),
	}
}

func (r *Registry) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Set registers argv under id, replacing and releasing any previous entry. A
// nil argv removes the entry. With tick and lifespan both zero the command is
// started immediately and streamed; otherwise it is run on demand and its
// output cached for lifespan seconds.
func (r *Registry) Set(id, lifespan, tick int, argv []string) error {
	if id < 0 || lifespan < 0 || tick < 0 {
		return fmt.Errorf("%w: id=%d lifespan=%d tick=%d", ErrInvalidBacktick, id, lifespan, tick)
	}
	if argv != nil && (len(argv) == 0 || argv[0] == "") {
		return fmt.Errorf("%w: id=%d: empty command", ErrInvalidBacktick, id)
	}
	bt, ok := r.entries[id]
	if !ok && argv == nil {
		return nil
	}
	if ok {
		r.release(bt)
	}
	if argv == nil {
		delete(r.entries, id)
		events.Backtick.Remove(id)
		return nil
	}
	r.gen++
	bt = &backtick{
		id:       id,
		lifespan: lifespan,
		tick:     tick,
		argv:     append([]string(nil), argv...),
		gen:      r.gen,
	}
	r.entries[id] = bt
	events.Backtick.Set(id, lifespan, tick, argv)
	if bt.continuous() {
		r.start(bt)
	}
	return nil
}

// Result returns the cached output of id without running anything.
func (r *Registry) Result(id int) (string, bool) {
	bt, ok := r.entries[id]
	if !ok {
		return "", false
	}
	return bt.result, true
}

// List returns the registered backticks ordered by id.
func (r *Registry) List() []BacktickInfo {
	out := make([]BacktickInfo, 0, len(r.entries))
	for _, bt := range r.entries {
		mode := ModeCached
		if bt.continuous() {
			mode = ModeContinuous
		}
		out = append(out, BacktickInfo{
			ID:       bt.id,
			Lifespan: bt.lifespan,
			Tick:     bt.tick,
			Argv:     append([]string(nil), bt.argv...),
			Mode:     mode,
			Result:   bt.result,
			Running:  bt.src != nil,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close releases every entry.
func (r *Registry) Close() {
	for id, bt := range r.entries {
		r.release(bt)
		delete(r.entries, id)
	}
}

func (r *Registry) release(bt *backtick) {
	bt.gen = 0
	r.stop(bt)
	bt.buf = nil
	bt.bufi = 0
}

func (r *Registry) stop(bt *backtick) {
	if bt.watch != nil {
		bt.watch.Stop()
		bt.watch = nil
	}
	if bt.src != nil {
		if err := bt.src.Close(); err != nil {
			logging.Error(fmt.Errorf("backtick %d: close: %w", bt.id, err))
		}
		bt.src = nil
	}
}

func (r *Registry) start(bt *backtick) {
	if r.spawner == nil || r.poller == nil {
		return
	}
	src, err := r.spawner.Start(bt.argv)
	if err != nil {
		events.Backtick.SpawnError(bt.id, err)
		logging.Error(fmt.Errorf("backtick %d: %w", bt.id, err))
		return
	}
	events.Backtick.Spawn(bt.id, bt.argv)
	bt.src = src
	bt.buf = make([]byte, MaxStr)
	bt.bufi = 0
	gen := bt.gen
	bt.watch = r.poller.Watch(src, func(chunk []byte, err error) {
		if cur, ok := r.entries[bt.id]; !ok || cur != bt || bt.gen != gen {
			return
		}
		r.readable(bt, chunk, err)
	})
}

// readable feeds a chunk of continuous output into the assembly buffer, in
// pieces no larger than the free space.
func (r *Registry) readable(bt *backtick, chunk []byte, err error) {
	for len(chunk) > 0 && bt.buf != nil {
		n := len(chunk)
		if free := MaxStr - bt.bufi; n > free {
			n = free
		}
		r.absorb(bt, chunk[:n])
		chunk = chunk[n:]
	}
	if err != nil {
		if !errors.Is(err, io.EOF) {
			logging.Error(fmt.Errorf("backtick %d: read: %w", bt.id, err))
		}
		events.Backtick.EOF(bt.id)
		r.stop(bt)
	}
}

// absorb appends piece and publishes the newest complete line it finishes.
// Without a newline a full buffer keeps its trailing half.
func (r *Registry) absorb(bt *backtick, piece []byte) {
	i := bt.bufi
	l := copy(bt.buf[i:], piece)
	i += l
	// j counts bytes after the last newline of the new piece
	j := 0
	for ; j < l; j++ {
		if bt.buf[i-j-1] == '\n' {
			break
		}
	}
	if j < l {
		k := i - j - 2
		for ; k >= 0; k-- {
			if bt.buf[k] == '\n' {
				break
			}
		}
		k++
		bt.result = filterLine(bt.buf[k : i-j-1])
		events.Backtick.Line(bt.id, bt.result)
		if r.OnUpdate != nil {
			r.OnUpdate(bt.id)
		}
	}
	if j == l && i == MaxStr {
		j = MaxStr / 2
		l = j + 1
	}
	if j < l {
		if j > 0 {
			copy(bt.buf, bt.buf[i-j:i])
		}
		i = j
	}
	bt.bufi = i
}

// run returns the output of id for a render, running a cached backtick
// whose result has expired. tick is lowered to the entry's tick when that is
// smaller.
func (r *Registry) run(id int, tick *int, now time.Time) (string, bool) {
	bt, ok := r.entries[id]
	if !ok {
		return "", false
	}
	if bt.tick != 0 && (*tick == 0 || bt.tick < *tick) {
		*tick = bt.tick
	}
	if bt.continuous() || now.Before(bt.bestBefore) {
		return bt.result, true
	}
	if r.spawner == nil {
		return bt.result, true
	}
	src, err := r.spawner.Start(bt.argv)
	if err != nil {
		events.Backtick.SpawnError(bt.id, err)
		logging.Error(fmt.Errorf("backtick %d: %w", bt.id, err))
		return bt.result, true
	}
	bt.result = readLastLine(src)
	if err := src.Close(); err != nil {
		logging.Error(fmt.Errorf("backtick %d: close: %w", bt.id, err))
	}
	bt.bestBefore = r.now().Add(time.Duration(bt.lifespan) * time.Second)
	events.Backtick.Run(bt.id, bt.result)
	return bt.result, true
}

// readLastLine reads rd to the end and returns its last line. A trailing
// newline does not start a new line.
func readLastLine(rd io.Reader) string {
	var res [MaxStr]byte
	i := 0
	idle := 0
	for {
		n, err := rd.Read(res[i:])
		if n > 0 {
			idle = 0
			i += n
			if q := bytes.LastIndexByte(res[:i-1], '\n'); q >= 0 {
				i = copy(res[:], res[q+1:i])
			} else if i == MaxStr {
				i = copy(res[:], res[MaxStr/2:i])
			}
		} else if err == nil {
			if idle++; idle > 100 {
				break
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logging.Error(fmt.Errorf("backtick read: %w", err))
			}
			break
		}
	}
	if i > 0 && res[i-1] == '\n' {
		i--
	}
	if i > MaxStr-1 {
		i = MaxStr - 1
	}
	return filterLine(res[:i])
}

// filterLine turns tabs into spaces and drops control bytes other than the
// nested escape.
func filterLine(p []byte) string {
	out := make([]byte, 0, len(p))
	for _, c := range p {
		if c == '\t' {
			c = ' '
		}
		if (c >= ' ' && c != 0x7f) || c == NestedEscape {
			out = append(out, c)
		}
	}
	return string(out)
}
