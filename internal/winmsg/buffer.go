package winmsg

import "errors"

const (
	// MaxStr is the capacity of a render buffer; one byte is always kept free.
	MaxStr = 768
	// MaxRend bounds the number of rendition changes recorded per line.
	MaxRend = 256
)

var (
	ErrRenditionFull  = errors.New("winmsg: rendition list full")
	ErrRenditionRange = errors.New("winmsg: rendition offset outside buffer")
)

// Rend records a rendition change taking effect at byte offset Pos.
type Rend struct {
	Pos  int
	Code Code
}

// Buffer is the fixed-capacity output of a single render pass together with
// the rendition changes recorded against it.
type Buffer struct {
	buf   [MaxStr]byte
	p     int
	rends []Rend
}

// Reset empties the buffer and its rendition list.
func (b *Buffer) Reset() {
	b.p = 0
	b.rends = b.rends[:0]
}

// Len reports the number of bytes written so far.
func (b *Buffer) Len() int {
	return b.p
}

// Remaining is the room left before the reserved terminator slot.
func (b *Buffer) Remaining() int {
	return MaxStr - 1 - b.p
}

// Bytes returns the written content. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.buf[:b.p]
}

// Rends returns the recorded renditions. The slice aliases the buffer.
func (b *Buffer) Rends() []Rend {
	return b.rends
}

// NumRend reports how many renditions are recorded.
func (b *Buffer) NumRend() int {
	return len(b.rends)
}

// AddRend records code at offset pos.
func (b *Buffer) AddRend(pos int, code Code) error {
	if len(b.rends) >= MaxRend {
		return ErrRenditionFull
	}
	if pos < 0 || pos >= MaxStr {
		return ErrRenditionRange
	}
	b.rends = append(b.rends, Rend{Pos: pos, Code: code})
	return nil
}

// truncRends drops renditions recorded after the first n.
func (b *Buffer) truncRends(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(b.rends) {
		b.rends = b.rends[:n]
	}
}

// putByte appends c if there is room and reports whether it was written.
func (b *Buffer) putByte(c byte) bool {
	if b.p >= MaxStr-1 {
		return false
	}
	b.buf[b.p] = c
	b.p++
	return true
}

// writeString appends at most limit bytes of s (and never past capacity),
// returning the number of bytes written.
func (b *Buffer) writeString(s string, limit int) int {
	if room := b.Remaining(); limit > room {
		limit = room
	}
	if limit <= 0 {
		return 0
	}
	if len(s) > limit {
		s = s[:limit]
	}
	n := copy(b.buf[b.p:], s)
	b.p += n
	return n
}

// splice appends a nested line at the cursor, shifting its renditions by the
// insertion point. Renditions beyond MaxRend are dropped.
func (b *Buffer) splice(line Line) {
	at := b.p
	n := b.writeString(line.Text, len(line.Text))
	for _, r := range line.Rends {
		if r.Pos > n {
			continue
		}
		if b.AddRend(at+r.Pos, r.Code) != nil {
			break
		}
	}
}

// line snapshots the buffer into an immutable Line.
func (b *Buffer) line(tick int) Line {
	rends := make([]Rend, len(b.rends))
	copy(rends, b.rends)
	for i := range rends {
		if rends[i].Pos > b.p {
			rends[i].Pos = b.p
		}
	}
	return Line{Text: string(b.buf[:b.p]), Rends: rends, Tick: tick}
}
