package text

import (
	"image/color"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/draw"
)

// DefaultTinyFont is used by the console and the status overlay.
var DefaultTinyFont tinyfont.Fonter = &proggy.TinySZ8pt7b

// TinyFonts maps names accepted by the console to tinyfont fonts.
var TinyFonts = map[string]tinyfont.Fonter{
	"proggy":    &proggy.TinySZ8pt7b,
	"tomthumb":  &tinyfont.TomThumb,
	"picopixel": &tinyfont.Picopixel,
	"org01":     &tinyfont.Org01,
}

// WriteTinyFont draws str with a tinyfont font. y is the baseline, as in
// tinyfont.
func WriteTinyFont(c *draw.Canvas, font tinyfont.Fonter, x, y int, str string, op draw.Op) {
	tinyfont.WriteLine(c.Displayer(op), font, int16(x), int16(y), str, draw.White)
}

// TinyFontWidth returns the advance width of str in pixels.
func TinyFontWidth(font tinyfont.Fonter, str string) int {
	_, outbox := tinyfont.LineWidth(font, str)
	return int(outbox)
}

// glyphCell captures one tinyfont glyph as packed rows.
type glyphCell struct {
	rows   []byte
	bwidth int
	height int
}

func (g *glyphCell) Size() (x, y int16) {
	return int16(g.bwidth * 8), int16(g.height)
}

func (g *glyphCell) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || int(x) >= g.bwidth*8 || int(y) >= g.height {
		return
	}
	if c.R|c.G|c.B == 0 {
		return
	}
	g.rows[int(y)*g.bwidth+(int(x)>>3)] |= 0x80 >> (x & 7)
}

func (g *glyphCell) Display() error { return nil }

// RasterizeTinyFont renders the printable ASCII glyphs of font into a
// GlyphFont, so tinyfont faces can be used with Printer.
func RasterizeTinyFont(font tinyfont.Fonter, hspace, vspace int) (*GlyphFont, error) {
	const count = '~' - FirstGlyph + 1

	ascent, descent, advance := 0, 0, 0
	for ch := rune(FirstGlyph); ch <= '~'; ch++ {
		info := font.GetGlyph(ch).Info()
		ascent = max(ascent, -int(info.YOffset))
		descent = max(descent, int(info.YOffset)+int(info.Height))
		advance = max(advance, int(info.XAdvance), int(info.XOffset)+int(info.Width))
	}
	height := ascent + descent
	if height <= 0 || advance <= 0 {
		return nil, ErrInvalidFont
	}
	bwidth := (advance + 7) / 8

	size := 4 + height*bwidth
	data := make([]byte, count*size)
	for i := 0; i < count; i++ {
		g := font.GetGlyph(rune(FirstGlyph + i))
		entry := data[i*size : (i+1)*size]
		entry[0] = g.Info().XAdvance
		cell := &glyphCell{rows: entry[4:], bwidth: bwidth, height: height}
		g.Draw(cell, 0, int16(ascent), draw.White)
	}

	f, err := NewGlyphFont(draw.Bytes(data), count, height, bwidth, hspace, vspace)
	if err != nil {
		return nil, err
	}
	if sp := font.GetGlyph(' ').Info().XAdvance; sp > 0 {
		f.Space = int(sp)
	}
	return f, nil
}
