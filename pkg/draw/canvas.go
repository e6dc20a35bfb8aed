// Package draw renders into a framebuffer: single pixels, bytes and words of
// pixels, bit blits, lines, rectangles and circles.
//
// Every primitive clips silently. Pixels that fall outside the framebuffer are
// dropped, never wrapped.
package draw

import (
	"encoding/binary"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
)

// Op is the bitwise operation used to combine new pixels with the framebuffer.
type Op uint8

const (
	OpOr  Op = 1
	OpXor Op = 2
	OpSet Op = 3
)

func (op Op) String() string {
	switch op {
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpSet:
		return "set"
	}
	return "unknown"
}

// ParseOp maps a name to an Op.
func ParseOp(s string) (Op, bool) {
	switch s {
	case "or":
		return OpOr, true
	case "xor":
		return OpXor, true
	case "set":
		return OpSet, true
	}
	return 0, false
}

// Unit is the granularity of a Put or Get. Bit addresses pixels, Byte
// addresses groups of 8 pixels and Word groups of 32.
type Unit uint8

const (
	Bit Unit = iota
	Byte
	Word
)

// Canvas draws into a framebuffer.
type Canvas struct {
	fb *framebuffer.Framebuffer
}

func New(fb *framebuffer.Framebuffer) *Canvas {
	return &Canvas{fb: fb}
}

// Framebuffer returns the target framebuffer.
func (c *Canvas) Framebuffer() *framebuffer.Framebuffer {
	return c.fb
}

// apply combines the bits of src selected by mask into dst.
func apply(dst *byte, src, mask byte, op Op) {
	switch op {
	case OpOr:
		*dst |= src & mask
	case OpXor:
		*dst ^= src & mask
	case OpSet:
		*dst = *dst&^mask | src&mask
	}
}

// Put writes v at (x, y). For Bit x is in pixels and only bit 0 of v is used,
// for Byte x counts bytes and the low 8 bits are used, for Word x counts
// words and v is a logical word whose MSB is the leftmost pixel.
func (c *Canvas) Put(unit Unit, x, y int, v uint32, op Op) {
	if framebuffer.IsYOutside(y) {
		return
	}
	row := c.fb.Row(y)

	switch unit {
	case Bit:
		if framebuffer.IsXOutside(x) {
			return
		}
		mask := byte(0x80) >> (x & 7)
		var bits byte
		if v&1 != 0 {
			bits = mask
		}
		apply(&row[x>>3], bits, mask, op)
	case Byte:
		if framebuffer.IsXOutside8(x) {
			return
		}
		apply(&row[x], byte(v), 0xFF, op)
	case Word:
		if framebuffer.IsXOutside32(x) {
			return
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		for i := range b {
			apply(&row[x*4+i], b[i], 0xFF, op)
		}
	}
}

// Get reads the value at (x, y) with the same addressing as Put. Out of range
// reads return 0.
func (c *Canvas) Get(unit Unit, x, y int) uint32 {
	if framebuffer.IsYOutside(y) {
		return 0
	}
	row := c.fb.Row(y)

	switch unit {
	case Bit:
		if framebuffer.IsXOutside(x) {
			return 0
		}
		return uint32(row[x>>3]>>(7-(x&7))) & 1
	case Byte:
		if framebuffer.IsXOutside8(x) {
			return 0
		}
		return uint32(row[x])
	case Word:
		if framebuffer.IsXOutside32(x) {
			return 0
		}
		return binary.BigEndian.Uint32(row[x*4:])
	}
	return 0
}

func (c *Canvas) PutPixel(x, y int, v uint8, op Op) { c.Put(Bit, x, y, uint32(v), op) }

func (c *Canvas) PutPixel8(x8, y int, v uint8, op Op) { c.Put(Byte, x8, y, uint32(v), op) }

func (c *Canvas) PutPixel32(x32, y int, v uint32, op Op) { c.Put(Word, x32, y, v, op) }

func (c *Canvas) GetPixel(x, y int) uint8 { return uint8(c.Get(Bit, x, y)) }

func (c *Canvas) GetPixel8(x8, y int) uint8 { return uint8(c.Get(Byte, x8, y)) }

func (c *Canvas) GetPixel32(x32, y int) uint32 { return c.Get(Word, x32, y) }

// Clear fills the framebuffer with fill.
func (c *Canvas) Clear(fill byte) {
	c.fb.Clear(fill)
}
