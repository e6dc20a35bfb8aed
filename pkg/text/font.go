// Package text prints strings into a framebuffer using 1bpp bitmap fonts.
package text

import (
	"errors"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/draw"
)

var (
	ErrInvalidFont = errors.New("invalid font geometry")
	ErrShortFont   = errors.New("font data too short")
)

// FirstGlyph is the first character stored in a GlyphFont.
const FirstGlyph = '!'

// Glyph locates one character inside a font bitmap.
type Glyph struct {
	Src    draw.Source
	Offset int // first byte of the glyph
	Width  int // advance in pixels
	BWidth int // bytes per glyph row
	Pitch  int // bytes between two rows in Src
}

// Font is anything Printer can render.
type Font interface {
	// Glyph returns the bitmap of ch, or false when ch has none.
	Glyph(ch byte) (Glyph, bool)
	// Blank is the advance of a character without a glyph.
	Blank() int
	Height() int
	HSpace() int
	VSpace() int
}

// GlyphFont is a variable width font. Every glyph is stored as a 4 byte
// header, whose first byte is the glyph width, followed by Height rows of
// BWidth bytes. Glyphs start at '!'.
type GlyphFont struct {
	data   draw.Source
	count  int
	height int
	bwidth int
	hspace int
	vspace int

	// Space is the advance of ' ' and of characters outside the table.
	Space int
}

// NewGlyphFont validates the table and returns a font. Space defaults to half
// the height.
func NewGlyphFont(data draw.Source, count, height, bwidth, hspace, vspace int) (*GlyphFont, error) {
	if count <= 0 || height <= 0 || bwidth <= 0 {
		return nil, ErrInvalidFont
	}
	if data.Len() < count*(4+height*bwidth) {
		return nil, ErrShortFont
	}
	return &GlyphFont{
		data:   data,
		count:  count,
		height: height,
		bwidth: bwidth,
		hspace: hspace,
		vspace: vspace,
		Space:  (height + 1) / 2,
	}, nil
}

func (f *GlyphFont) Glyph(ch byte) (Glyph, bool) {
	i := int(ch) - FirstGlyph
	if i < 0 || i >= f.count {
		return Glyph{}, false
	}
	off := i * (4 + f.height*f.bwidth)
	return Glyph{
		Src:    f.data,
		Offset: off + 4,
		Width:  int(f.data.At(off)),
		BWidth: f.bwidth,
		Pitch:  f.bwidth,
	}, true
}

func (f *GlyphFont) Blank() int  { return f.Space }
func (f *GlyphFont) Height() int { return f.height }
func (f *GlyphFont) HSpace() int { return f.hspace }
func (f *GlyphFont) VSpace() int { return f.vspace }

// BitmapFont is a fixed width font stored as one image holding a 16 x 16 grid
// of glyphs, one for every byte value.
type BitmapFont struct {
	data   draw.Source
	height int
	bwidth int

	HSpacing int
	VSpacing int
}

// NewBitmapFont returns a font over a 16*bwidth*8 pixels wide bitmap.
func NewBitmapFont(data draw.Source, height, bwidth int) (*BitmapFont, error) {
	if height <= 0 || bwidth <= 0 {
		return nil, ErrInvalidFont
	}
	if data.Len() < 256*height*bwidth {
		return nil, ErrShortFont
	}
	return &BitmapFont{data: data, height: height, bwidth: bwidth}, nil
}

func (f *BitmapFont) Glyph(ch byte) (Glyph, bool) {
	pitch := 16 * f.bwidth
	return Glyph{
		Src:    f.data,
		Offset: int(ch/16)*f.height*pitch + int(ch%16)*f.bwidth,
		Width:  f.bwidth * 8,
		BWidth: f.bwidth,
		Pitch:  pitch,
	}, true
}

func (f *BitmapFont) Blank() int  { return f.bwidth * 8 }
func (f *BitmapFont) Height() int { return f.height }
func (f *BitmapFont) HSpace() int { return f.HSpacing }
func (f *BitmapFont) VSpace() int { return f.VSpacing }

// window exposes src starting at off.
type window struct {
	src draw.Source
	off int
}

func (w window) Len() int      { return w.src.Len() - w.off }
func (w window) At(i int) byte { return w.src.At(w.off + i) }
