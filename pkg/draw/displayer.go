package draw

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/pixel"
	"tinygo.org/x/tinydraw"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
)

var (
	White = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	Black = color.RGBA{A: 0xFF}
)

// Displayer lets TinyGo driver code (tinyfont, tinydraw) render into a
// Canvas. Colours are reduced to on or off and written with Op.
type Displayer struct {
	canvas *Canvas
	Op     Op
}

var _ drivers.Displayer = (*Displayer)(nil)

// Displayer returns an adapter writing with op.
func (c *Canvas) Displayer(op Op) *Displayer {
	return &Displayer{canvas: c, Op: op}
}

func (d *Displayer) Size() (x, y int16) {
	return framebuffer.Width, framebuffer.Height
}

// SetPixel writes one pixel. Off pixels are only written by OpSet, OR and
// XOR with zero change nothing.
func (d *Displayer) SetPixel(x, y int16, c color.RGBA) {
	var v uint8
	if pixel.NewMonochrome(c.R, c.G, c.B) {
		v = 1
	} else if d.Op != OpSet {
		return
	}
	d.canvas.PutPixel(int(x), int(y), v, d.Op)
}

// Display is a no-op, the framebuffer is scanned out continuously.
func (d *Displayer) Display() error {
	return nil
}

// DrawTriangle draws the triangle through three points. With OpXor the
// outline vertices are shared by two edges and cancel out.
func (c *Canvas) DrawTriangle(x0, y0, x1, y1, x2, y2 int, v uint8, fill bool, op Op) {
	col := Black
	if v&1 != 0 {
		col = White
	}
	d := c.Displayer(op)
	if fill {
		tinydraw.FilledTriangle(d, int16(x0), int16(y0), int16(x1), int16(y1), int16(x2), int16(y2), col)
		return
	}
	tinydraw.Triangle(d, int16(x0), int16(y0), int16(x1), int16(y1), int16(x2), int16(y2), col)
}
