package winmsg

// chrPad is the in-buffer placeholder for a deferred pad.
const chrPad = 0x7f

// padExpand distributes target-p spaces over the numpad markers found in
// buf[:p] and returns the new content length. The content is walked from the
// end so it can be shifted in place; each marker turns into one space plus
// ceil(remaining/markersLeft) more, so markers met first (rightmost) take the
// larger share when the split is uneven. Rendition offsets follow the bytes
// they were recorded against; a rendition on a marker moves to the start of
// its expansion.
func padExpand(b *Buffer, p, numpad, target int) int {
	// a discarded conditional may have taken markers with it
	if n := countPads(b.buf[:p]); numpad > n {
		numpad = n
	}
	extra := target - p
	if extra < 0 {
		extra = 0
	}
	end := p + extra
	if end > MaxStr-1 {
		end = MaxStr - 1
		extra = end - p
	}
	// newPos[i] is where source byte i starts after expansion; newPos[p] is
	// the new end.
	newPos := make([]int, p+1)
	newPos[p] = end
	dst := end
	for src := p - 1; src >= 0; src-- {
		c := b.buf[src]
		if c != chrPad {
			dst--
			b.buf[dst] = c
			newPos[src] = dst
			continue
		}
		share := 0
		if numpad > 0 {
			share = (extra + numpad - 1) / numpad
		}
		extra -= share
		numpad--
		for i := 0; i <= share && dst > 0; i++ {
			dst--
			b.buf[dst] = ' '
		}
		newPos[src] = dst
	}
	for i := range b.rends {
		pos := b.rends[i].Pos
		if pos < 0 {
			pos = 0
		}
		if pos > p {
			b.rends[i].Pos = pos + (end - p)
			continue
		}
		b.rends[i].Pos = newPos[pos]
	}
	return end
}

func countPads(buf []byte) int {
	n := 0
	for _, c := range buf {
		if c == chrPad {
			n++
		}
	}
	return n
}

// fixWidth resolves pending pads and applies truncation for a width-fixing
// directive (% = or %<). It implements the reference arithmetic: the span
// between lastpad and the truncation point is shortened from the left so the
// truncation point lands truncper percent into the field, then the tail is cut
// at the target width.
func (ps *pass) fixWidth(d *Directive) {
	b := &ps.buf
	num := d.Num
	plus := d.Plus
	if d.Minus {
		base := ps.padlen
		if plus {
			base = ps.lastpad
		}
		num = base - num
		if !plus && ps.padlen == 0 {
			num = b.p
		}
		plus = false
	} else if !d.Zero {
		if d.Sel != '=' && num == 0 && !plus {
			num = 100
		}
		if num > 100 {
			num = 100
		}
		if ps.padlen == 0 {
			num = b.p
		} else {
			base := ps.padlen
			if plus {
				base -= ps.lastpad
			}
			num = base * num / 100
		}
	}
	if num < 0 {
		num = 0
	}
	if plus {
		num += ps.lastpad
	}
	if num > MaxStr-1 {
		num = MaxStr - 1
	}

	if ps.numpad > 0 {
		b.p = padExpand(b, b.p, ps.numpad, num)
	}
	ps.numpad = 0

	if b.p > num && !d.Long {
		ps.truncate(num)
	}
	if d.Sel == '=' {
		for b.p < num {
			b.buf[b.p] = ' '
			b.p++
		}
		ps.lastpad = b.p
		ps.truncpos = -1
		ps.trunclong = false
	}
	ps.cond.clamp(b.p)
}

func (ps *pass) truncate(num int) {
	b := &ps.buf
	lastpad := ps.lastpad
	if ps.truncpos == -1 {
		ps.truncpos = lastpad
		ps.truncper = 0
	}
	trunc := lastpad + ps.truncper*(num-lastpad)/100
	if trunc > num {
		trunc = num
	}
	if trunc < lastpad {
		trunc = lastpad
	}
	left := ps.truncpos - trunc
	if over := b.p - num; left > over {
		left = over
	}
	if left > 0 {
		if left+lastpad > b.p {
			left = b.p - lastpad
		}
		if n := b.p - lastpad - left; n > 0 {
			copy(b.buf[lastpad:], b.buf[lastpad+left:b.p])
		}
		b.p -= left
		for i := range b.rends {
			if b.rends[i].Pos <= lastpad {
				continue
			}
			b.rends[i].Pos -= left
			if b.rends[i].Pos < lastpad {
				b.rends[i].Pos = lastpad
			}
		}
		if ps.trunclong {
			for i := lastpad; i < lastpad+3 && i < b.p; i++ {
				b.buf[i] = '.'
			}
		}
	}
	if b.p > num {
		b.p = num
		if ps.trunclong {
			for i := num - 1; i >= num-3 && i >= lastpad; i-- {
				b.buf[i] = '.'
			}
		}
		for i := range b.rends {
			if b.rends[i].Pos > num {
				b.rends[i].Pos = num
			}
		}
	}
	ps.truncpos = -1
	ps.trunclong = false
	if ps.lastpad > b.p {
		ps.lastpad = b.p
	}
}
