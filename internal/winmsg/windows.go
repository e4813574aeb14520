package winmsg

import (
	"strconv"
	"strings"
)

const maxListTitle = 20

type listOptions struct {
	hideCur bool
	flags   bool
	after   bool
	before  bool
	limit   int
}

// windowList builds the "N title  N title" list. Renditions are returned
// relative to the start of the text.
func windowList(sess *Session, cur *Window, o listOptions) (string, []Rend) {
	where := -1
	if cur != nil {
		where = cur.Number
	}
	disp := sess.Display
	// the list is drawn as if cur were in the foreground
	var fore, other *Window
	if disp != nil {
		fore, other = cur, disp.Other
	}

	var sb strings.Builder
	var rends []Rend
	for _, w := range sess.Windows {
		if w == nil {
			continue
		}
		if o.after && where >= 0 && w.Number <= where {
			continue
		}
		if o.hideCur && disp != nil && w == fore {
			continue
		}
		title := w.Title
		if len(title) > maxListTitle {
			title = title[:maxListTitle]
		}
		if sb.Len()+len(title) > o.limit-24 {
			break
		}
		if sb.Len() > 0 || o.after {
			sb.WriteString("  ")
		}
		if w.Number == where && o.before {
			break
		}
		var code Code
		if !o.after || where < w.Number {
			code = sess.Renditions.pick(w)
		}
		if code != 0 {
			rends = append(rends, Rend{Pos: sb.Len(), Code: code})
		}
		sb.WriteString(strconv.Itoa(w.Number))
		if o.flags {
			sb.WriteString(windowFlags(w, fore, other, disp != nil))
		}
		sb.WriteByte(' ')
		sb.WriteString(title)
		if code != 0 {
			rends = append(rends, Rend{Pos: sb.Len()})
		}
	}
	return sb.String(), rends
}

func (wr WindowListRenditions) pick(w *Window) Code {
	switch {
	case w.Activity && wr.Monitor != 0:
		return wr.Monitor
	case w.Bell && wr.Bell != 0:
		return wr.Bell
	case w.Silence && wr.Silence != 0:
		return wr.Silence
	}
	return 0
}

// windowFlags renders the flag characters of w.
func windowFlags(w, fore, other *Window, hasDisplay bool) string {
	var sb strings.Builder
	if hasDisplay && w == fore {
		sb.WriteByte('*')
	}
	if hasDisplay && w == other {
		sb.WriteByte('-')
	}
	if w.Shared {
		sb.WriteByte('&')
	}
	if w.Activity {
		sb.WriteByte('@')
	}
	if w.Bell {
		sb.WriteByte('!')
	}
	if w.LoggedIn {
		sb.WriteByte('$')
	}
	if w.Logging {
		sb.WriteString("(L)")
	}
	if w.Zombie {
		sb.WriteByte('Z')
	}
	return sb.String()
}
