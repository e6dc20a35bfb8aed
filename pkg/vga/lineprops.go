//go:build !noextracolors

package vga

// extraColors reports whether per-line colour outputs are compiled in.
// Build with -tags=noextracolors to drop them.
const extraColors = true

// Line property bits.
const (
	PropColor1 uint8 = 1 << iota
	PropColor2
)

// Props is the per-scanline property table. It covers the whole sync cycle
// so the generator can index it with any physical line, but only visible
// lines are writable.
type Props struct {
	lines [TotalLines]uint8
}

// Set stores mask for visible line y. Lines outside [0, VisibleLines) are
// ignored.
func (p *Props) Set(y int, mask uint8) {
	if y < 0 || y >= VisibleLines {
		return
	}
	p.lines[y] = mask
}

// SetRange stores mask for every line in [start, end), clamped to the
// visible area.
func (p *Props) SetRange(start, end int, mask uint8) {
	if start < 0 {
		start = 0
	}
	if end > VisibleLines {
		end = VisibleLines
	}
	for y := start; y < end; y++ {
		p.lines[y] = mask
	}
}

// Get returns the mask of visible line y, 0 outside the visible area.
func (p *Props) Get(y int) uint8 {
	if y < 0 || y >= VisibleLines {
		return 0
	}
	return p.lines[y]
}

// At is the generator's read, bounds-checked against the full cycle.
func (p *Props) At(line int) uint8 {
	if line < 0 || line >= TotalLines {
		return 0
	}
	return p.lines[line]
}

// Visible returns the visible part of the table. The slice aliases the
// table and is used to snapshot or restore a line profile.
func (p *Props) Visible() []uint8 {
	return p.lines[:VisibleLines]
}

// Reset clears every entry.
func (p *Props) Reset() {
	p.lines = [TotalLines]uint8{}
}
