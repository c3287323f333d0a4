package pdf

// cursor tracks the vertical write position on the current page. Every
// block measures itself and calls ensure before drawing, so a block is
// never split across pages.
type cursor struct {
	top   float64
	limit float64
	y     float64
	pages int

	addPage func()
}

func newCursor(top, limit float64, addPage func()) *cursor {
	return &cursor{top: top, limit: limit, y: top, addPage: addPage}
}

func (c *cursor) newPage() {
	c.addPage()
	c.pages++
	c.y = c.top
}

// ensure starts a new page when a block of height h does not fit in what
// is left of the current one. A block taller than a whole page is placed
// on a fresh page and allowed to overflow rather than looping.
// Reports whether a page was added.
func (c *cursor) ensure(h float64) bool {
	if c.pages > 0 && (c.y+h <= c.limit || c.y == c.top) {
		return false
	}
	c.newPage()
	return true
}

func (c *cursor) advance(h float64) {
	c.y += h
}

func (c *cursor) usable() float64 {
	return c.limit - c.top
}
