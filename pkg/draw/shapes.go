package draw

import (
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
)

// HLine draws the span [x0, x1] on row y a byte at a time.
func (c *Canvas) HLine(x0, x1, y int, v uint8, op Op) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if framebuffer.IsYOutside(y) || x1 < 0 || x0 >= framebuffer.Width {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 >= framebuffer.Width {
		x1 = framebuffer.Width - 1
	}

	var bits byte
	if v&1 != 0 {
		bits = 0xFF
	}

	row := c.fb.Row(y)
	for xb := x0 >> 3; xb <= x1>>3; xb++ {
		mask := byte(0xFF)
		if xb == x0>>3 {
			mask &= 0xFF >> uint(x0&7)
		}
		if xb == x1>>3 {
			mask &= 0xFF << uint(7-(x1&7))
		}
		apply(&row[xb], bits, mask, op)
	}
}

// DrawLine draws from (x0, y0) to (x1, y1) inclusive. Every pixel is plotted
// once, so OpXor lines can be erased by drawing them again.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, v uint8, op Op) {
	if y0 == y1 {
		c.HLine(x0, x1, y0, v, op)
		return
	}

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		c.PutPixel(x0, y0, v, op)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawRect draws a w x h rectangle with its top left corner at (x, y).
func (c *Canvas) DrawRect(x, y, w, h int, v uint8, fill bool, op Op) {
	if w <= 0 || h <= 0 {
		return
	}
	x1 := x + w - 1
	y1 := y + h - 1

	if fill {
		for yy := y; yy <= y1; yy++ {
			c.HLine(x, x1, yy, v, op)
		}
		return
	}

	c.HLine(x, x1, y, v, op)
	if h > 1 {
		c.HLine(x, x1, y1, v, op)
	}
	for yy := y + 1; yy < y1; yy++ {
		c.PutPixel(x, yy, v, op)
		if w > 1 {
			c.PutPixel(x1, yy, v, op)
		}
	}
}

// DrawCircle draws a circle of radius r centred on (cx, cy). A negative
// radius draws nothing, radius 0 a single pixel.
func (c *Canvas) DrawCircle(cx, cy, r int, v uint8, fill bool, op Op) {
	if r < 0 {
		return
	}

	if fill {
		for dy := -r; dy <= r; dy++ {
			half := isqrt(r*r - dy*dy)
			c.HLine(cx-half, cx+half, cy+dy, v, op)
		}
		return
	}

	x, y := r, 0
	err := 1 - r
	for x >= y {
		c.plot4(cx, cy, x, y, v, op)
		if x != y {
			c.plot4(cx, cy, y, x, v, op)
		}
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
}

// plot4 plots the mirror images of (a, b) around the centre without
// plotting any pixel twice.
func (c *Canvas) plot4(cx, cy, a, b int, v uint8, op Op) {
	c.PutPixel(cx+a, cy+b, v, op)
	if a != 0 {
		c.PutPixel(cx-a, cy+b, v, op)
	}
	if b != 0 {
		c.PutPixel(cx+a, cy-b, v, op)
		if a != 0 {
			c.PutPixel(cx-a, cy-b, v, op)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
