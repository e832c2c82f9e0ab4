package arp

// randomizeAttempts bounds how often Randomize redraws a colliding position
const randomizeAttempts = 5

// Rand is the random source used to reorder a note table.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Cursor holds one generated note table and a read position into it
type Cursor struct {
	table NoteTable
	index int
	start int
}

// NewCursor generates the table for shape and positions the cursor at
// the configured start offset.
func NewCursor(shape Shape, p Params) Cursor {
	var c Cursor
	c.Load(shape, p)
	return c
}

// Load replaces the table wholesale and moves to the start offset
func (c *Cursor) Load(shape Shape, p Params) {
	c.table = Generate(shape, p)
	c.start = 0
	if n := c.table.Len(); n > 0 {
		c.start = p.Offset % n
		if c.start < 0 {
			c.start += n
		}
	}
	c.index = c.start
}

// Advance moves to the next entry. There is no upper bound; reads past
// the end return 0.
func (c *Cursor) Advance() {
	c.index++
}

// Reset returns to the configured start offset, not to zero
func (c *Cursor) Reset() {
	c.index = c.start
}

// Offset returns the semitone offset at the current position
func (c Cursor) Offset() int {
	return c.table.At(c.index)
}

// Finished reports whether the cursor is on (or past) the last entry
func (c Cursor) Finished() bool {
	return c.index >= c.table.Len()-1
}

// Index returns the current read position
func (c Cursor) Index() int {
	return c.index
}

// Start returns the configured start position (offset mod table length)
func (c Cursor) Start() int {
	return c.start
}

// Len returns the table length
func (c Cursor) Len() int {
	return c.table.Len()
}

// Table returns a copy of the note table
func (c Cursor) Table() NoteTable {
	return c.table
}

// Randomize swaps two entries drawn from [start, len-1]. A colliding draw
// is retried a few times; if it still collides the swap is a no-op.
func (c *Cursor) Randomize(r Rand) {
	n := c.table.Len() - c.start
	if n <= 0 || r == nil {
		return
	}

	p1 := c.start + r.IntN(n)
	p2 := c.start + r.IntN(n)
	for i := 0; p1 == p2 && i < randomizeAttempts; i++ {
		p2 = c.start + r.IntN(n)
	}
	c.table.swap(p1, p2)
}
