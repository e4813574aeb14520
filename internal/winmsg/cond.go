package winmsg

// cond tracks the single open conditional block of a render pass. Nesting is
// only possible through recursive passes, each of which owns its own cond.
type cond struct {
	active bool
	pos    int
	rend   int
	set    bool
	// locked freezes set once an else arm has decided which span survives.
	locked bool
}

func (c *cond) open(pos, rend int) {
	*c = cond{active: true, pos: pos, rend: rend}
}

// mark records that a directive inside the block produced output.
func (c *cond) mark() {
	if c.active && !c.locked {
		c.set = true
	}
}

// elseArm switches to the else arm. If the first arm was triggered the else
// arm becomes the span to discard; otherwise the first arm is discarded and
// the else arm is kept unconditionally. It returns the position and rendition
// count to rewind to, and whether a rewind is needed.
func (c *cond) elseArm(pos, rend int) (int, int, bool) {
	if !c.active || c.locked {
		return pos, rend, false
	}
	c.locked = true
	if c.set {
		c.set = false
		c.pos, c.rend = pos, rend
		return pos, rend, false
	}
	c.set = true
	return c.pos, c.rend, c.pos < pos
}

// end closes the block, returning where the cursor and rendition list must be
// rewound to when the block is to be discarded.
func (c *cond) end(pos, rend int) (int, int, bool) {
	defer func() { *c = cond{} }()
	if !c.active || c.set || c.pos > pos {
		return pos, rend, false
	}
	return c.pos, c.rend, true
}

// clamp keeps the saved start inside the buffer after truncation shrank it.
func (c *cond) clamp(pos int) {
	if c.active && c.pos > pos {
		c.pos = pos
	}
}
