package winmsg

import "sort"

// Line is the result of a render: bounded text plus the rendition changes
// recorded against it.
type Line struct {
	Text  string
	Rends []Rend
	// Tick is the smallest refresh interval (seconds) requested by the
	// backticks that were expanded, or 0.
	Tick int
}

// Span is a run of text sharing one resolved style.
type Span struct {
	Text  string
	Style Style
}

// Spans resolves the rendition list into styled runs. Renditions form a
// stack: each code pushes a style derived from the one below it, the pop
// code removes exactly the most recent entry and is ignored on an empty stack.
func (l Line) Spans() []Span {
	rends := make([]Rend, len(l.Rends))
	copy(rends, l.Rends)
	sort.SliceStable(rends, func(i, j int) bool { return rends[i].Pos < rends[j].Pos })

	stack := []Style{DefaultStyle}
	current := func() Style { return stack[len(stack)-1] }

	var spans []Span
	emit := func(from, to int) {
		if to <= from {
			return
		}
		st := current()
		if n := len(spans); n > 0 && spans[n-1].Style == st {
			spans[n-1].Text += l.Text[from:to]
			return
		}
		spans = append(spans, Span{Text: l.Text[from:to], Style: st})
	}

	pos := 0
	for _, r := range rends {
		at := r.Pos
		if at > len(l.Text) {
			at = len(l.Text)
		}
		emit(pos, at)
		if at > pos {
			pos = at
		}
		if r.Code.IsPop() {
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		stack = append(stack, current().Apply(r.Code.Decode()))
	}
	emit(pos, len(l.Text))
	return spans
}
