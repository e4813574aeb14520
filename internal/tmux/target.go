package tmux

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/atomicstack/tmux-winmsg/internal/winmsg"
)

var ErrWindowNotFound = errors.New("window not found")

// ResolveWindow picks the window named by target: an index, an exact title,
// or the closest fuzzy title match. An empty target selects the active
// window.
func ResolveWindow(snap Snapshot, target string) (*winmsg.Window, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return snap.Active, nil
	}
	if snap.Session == nil || len(snap.Session.Windows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrWindowNotFound, target)
	}
	windows := snap.Session.Windows
	if n, err := strconv.Atoi(strings.TrimPrefix(target, ":")); err == nil {
		for _, w := range windows {
			if w.Number == n {
				return w, nil
			}
		}
		return nil, fmt.Errorf("%w: index %d", ErrWindowNotFound, n)
	}
	for _, w := range windows {
		if strings.EqualFold(w.Title, target) {
			return w, nil
		}
	}
	titles := make([]string, len(windows))
	for i, w := range windows {
		titles[i] = w.Title
	}
	ranks := fuzzy.RankFindNormalizedFold(target, titles)
	if len(ranks) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrWindowNotFound, target)
	}
	best := ranks[0]
	for _, rank := range ranks[1:] {
		if rank.Distance < best.Distance {
			best = rank
		}
	}
	return windows[best.OriginalIndex], nil
}
