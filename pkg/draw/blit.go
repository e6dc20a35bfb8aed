package draw

import (
	"tinygo.org/x/drivers/pixel"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
)

// Source is read-only 1bpp image data, MSB first, rows packed back to back.
type Source interface {
	Len() int
	At(i int) byte
}

// Bytes is image data in RAM.
type Bytes []byte

func (b Bytes) Len() int      { return len(b) }
func (b Bytes) At(i int) byte { return b[i] }

// ROM is image data held in a string constant. TinyGo places string
// constants in flash, so large bitmaps and fonts cost no RAM.
type ROM string

func (r ROM) Len() int      { return len(r) }
func (r ROM) At(i int) byte { return r[i] }

// Blit copies a srcW x srcH image to (dx, dy). srcW must be a positive
// multiple of 8, otherwise nothing is drawn.
//
// Each source row occupies srcW/8 + stride bytes, so a non-zero stride blits
// the left part of a wider image. Rows and columns outside the framebuffer
// are skipped, and the blit stops early if src is shorter than its
// dimensions claim.
func (c *Canvas) Blit(src Source, srcW, srcH, dx, dy int, op Op, stride int) {
	if srcW <= 0 || srcW%8 != 0 || srcH <= 0 {
		return
	}
	bw := srcW / 8
	pitch := bw + stride
	if pitch < bw {
		return
	}

	// first source byte column that can touch the framebuffer
	first := 0
	if dx < 0 {
		first = (-dx - 1) / 8
	}

	shift := uint(dx & 7)
	n := src.Len()

	for sy := 0; sy < srcH; sy++ {
		y := dy + sy
		if y < 0 {
			continue
		}
		if y >= framebuffer.Height {
			return
		}
		row := c.fb.Row(y)
		base := sy * pitch

		for sb := first; sb < bw; sb++ {
			x := dx + sb*8
			if x >= framebuffer.Width {
				break
			}
			if base+sb >= n {
				return
			}
			b := src.At(base + sb)

			// x>>3 floors for negative x, so the left byte may be off-screen
			// while the right part still lands on byte 0
			xb := x >> 3
			if xb >= 0 {
				apply(&row[xb], b>>shift, 0xFF>>shift, op)
			}
			if shift != 0 && xb+1 < framebuffer.BWidth {
				apply(&row[xb+1], b<<(8-shift), 0xFF<<(8-shift), op)
			}
		}
	}
}

// BlitImage draws a TinyGo monochrome image at (dx, dy). Set pixels are on.
func (c *Canvas) BlitImage(img pixel.Image[pixel.Monochrome], dx, dy int, op Op) {
	w, h := img.Size()
	if w%8 == 0 {
		c.Blit(Bytes(img.RawBuffer()), w, h, dx, dy, op, 0)
		return
	}

	// rows are not byte aligned, go pixel by pixel
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			if img.Get(x, y) {
				v = 1
			} else if op != OpSet {
				continue
			}
			c.PutPixel(dx+x, dy+y, v, op)
		}
	}
}
