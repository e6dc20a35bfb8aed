package text

import (
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/draw"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
)

// Options controls Print. Use DefaultOptions and override fields.
type Options struct {
	// Wrap starts a new line when a glyph would cross the right edge.
	Wrap bool
	// Len limits the number of characters, -1 prints until the end of the
	// string or the first NUL.
	Len int
	Op  draw.Op
	// Bold draws every glyph twice, one pixel apart.
	Bold bool
	// X0 is the x of every line after the first. -1 uses the start x.
	X0 int
	// Measure lays the text out without drawing.
	Measure bool
}

func DefaultOptions() Options {
	return Options{Len: -1, Op: draw.OpSet, X0: -1}
}

// Info is where printing stopped and the width of the widest line.
type Info struct {
	X, Y int
	W    int
}

// Printer renders text with one font.
type Printer struct {
	canvas *draw.Canvas
	font   Font
}

func NewPrinter(canvas *draw.Canvas, font Font) *Printer {
	return &Printer{canvas: canvas, font: font}
}

// SetFont changes the font used by subsequent prints.
func (p *Printer) SetFont(font Font) {
	p.font = font
}

func (p *Printer) Font() Font {
	return p.font
}

// Print draws str with its top left corner at (dx, dy). '\n' starts a new
// line, a NUL byte ends the string.
func (p *Printer) Print(str string, dx, dy int, opts Options) Info {
	f := p.font
	op := opts.Op
	if op == 0 {
		op = draw.OpSet
	}
	x0 := dx
	if opts.X0 >= 0 {
		x0 = opts.X0
	}
	lineHeight := f.Height() + f.VSpace()
	extra := 0
	if opts.Bold {
		extra = 1
	}

	x, y := dx, dy
	lineStart, lineEnd := dx, dx
	w := 0
	newline := func() {
		if lineEnd-lineStart > w {
			w = lineEnd - lineStart
		}
		x = x0
		y += lineHeight
		lineStart, lineEnd = x, x
	}

	for i := 0; i < len(str); i++ {
		if opts.Len >= 0 && i >= opts.Len {
			break
		}
		ch := str[i]
		if ch == 0 {
			break
		}
		if ch == '\n' {
			newline()
			continue
		}

		g, ok := f.Glyph(ch)
		advance := f.Blank()
		if ok {
			advance = g.Width
		}
		advance += extra

		if opts.Wrap && x+advance > framebuffer.Width && x != lineStart {
			newline()
		}

		if ok && !opts.Measure {
			p.blit(g, x, y, op)
			if opts.Bold {
				p.blit(g, x+1, y, op)
			}
		}

		lineEnd = x + advance
		x = lineEnd + f.HSpace()
	}

	if lineEnd-lineStart > w {
		w = lineEnd - lineStart
	}
	return Info{X: x, Y: y, W: w}
}

func (p *Printer) blit(g Glyph, x, y int, op draw.Op) {
	src := window{src: g.Src, off: g.Offset}
	p.canvas.Blit(src, g.BWidth*8, p.font.Height(), x, y, op, g.Pitch-g.BWidth)
}
