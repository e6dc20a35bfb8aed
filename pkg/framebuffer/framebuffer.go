// Package framebuffer owns the 1bpp pixel memory scanned out by the VGA
// generator. The same backing array is exposed as 32-bit words, as bytes and
// (through the draw package) as individual bits.
//
// Bits are stored MSB first: bit 7 of byte 0 is the leftmost pixel of a row.
// Because the serializer shifts bytes out in memory order, the word view is
// big-endian inside every word no matter what the host byte order is. Use
// ToWord and FromWord when writing literal word constants through Words().
package framebuffer

import (
	"encoding/binary"
	"errors"
	"unsafe"
)

const (
	Width  = 512
	Height = 480

	// BWidth is the number of bytes in a row, WWidth the number of 32-bit words.
	BWidth = Width / 8
	WWidth = Width / 32

	// Size is the framebuffer size in bytes.
	Size = Height * BWidth
)

var (
	ErrInvalidSize = errors.New("invalid framebuffer size")
)

// Framebuffer is allocated once and never resized.
//
// It is shared with the scanline interrupt without locks: the interrupt only
// reads rows, writers do plain read-modify-write. A write that races the
// scanout may show a torn row for a single frame.
type Framebuffer struct {
	words [Height * WWidth]uint32
}

// New allocates a cleared framebuffer.
func New() *Framebuffer {
	return &Framebuffer{}
}

// Words returns the word view, WWidth words per row, in stored byte order.
func (fb *Framebuffer) Words() []uint32 {
	return fb.words[:]
}

// Bytes returns the byte view, BWidth bytes per row.
func (fb *Framebuffer) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&fb.words[0])), Size)
}

// Row returns the bytes of scanline y, or nil if y is outside the framebuffer.
func (fb *Framebuffer) Row(y int) []byte {
	if IsYOutside(y) {
		return nil
	}
	off := y * BWidth
	return fb.Bytes()[off : off+BWidth : off+BWidth]
}

// WordRow returns the words of scanline y, or nil if y is outside.
func (fb *Framebuffer) WordRow(y int) []uint32 {
	if IsYOutside(y) {
		return nil
	}
	off := y * WWidth
	return fb.words[off : off+WWidth : off+WWidth]
}

// Clear fills every byte with fill. 0xFF turns all pixels on, 0xF0 sets the
// left four pixels of every byte.
func (fb *Framebuffer) Clear(fill byte) {
	b := fb.Bytes()
	for i := range b {
		b[i] = fill
	}
}

// Copy replaces the whole framebuffer with src. A nil src is a no-op.
func (fb *Framebuffer) Copy(src []byte) error {
	if src == nil {
		return nil
	}
	if len(src) != Size {
		return ErrInvalidSize
	}
	copy(fb.Bytes(), src)
	return nil
}

// ToWord converts a logical word, whose most significant bit is the leftmost
// pixel, into the form stored in Words().
func ToWord(v uint32) uint32 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return binary.NativeEndian.Uint32(b[:])
}

// FromWord is the inverse of ToWord.
func FromWord(w uint32) uint32 {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], w)
	return binary.BigEndian.Uint32(b[:])
}

func IsYOutside(y int) bool { return y < 0 || y >= Height }

func IsXOutside(x int) bool { return x < 0 || x >= Width }

// IsXOutside8 takes x in bytes (pixel 9 is byte 1).
func IsXOutside8(x8 int) bool { return x8 < 0 || x8 >= BWidth }

// IsXOutside32 takes x in words (pixel 64 is word 2).
func IsXOutside32(x32 int) bool { return x32 < 0 || x32 >= WWidth }
