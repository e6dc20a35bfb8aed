// Package imageconv turns ordinary images into packed 1bpp framebuffers for
// upload, and framebuffers back into images. It runs on the host.
package imageconv

import (
	"errors"
	"image"
	"image/color"
	"io"

	// formats accepted by Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
)

var ErrEmptyImage = errors.New("empty image")

// Mode selects how grey levels become pixels.
type Mode uint8

const (
	Threshold Mode = iota
	Dither
)

// Options controls Convert. The zero value thresholds at 128 after a
// bilinear stretch to the full screen.
type Options struct {
	Mode Mode
	// Threshold is the grey level at or above which a pixel is lit. Zero
	// means 128.
	Threshold uint8
	Invert    bool
	// Fit keeps the aspect ratio and centres the image on black.
	Fit bool
	// Scaler defaults to xdraw.BiLinear.
	Scaler xdraw.Scaler
}

// Decode reads a PNG, JPEG, GIF or BMP image. The bmp package registers
// itself on import.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

// Convert scales src to the framebuffer size and packs it MSB first.
func Convert(src image.Image, opts Options) ([]byte, error) {
	if src.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	grey := Scale(src, opts)

	threshold := int(opts.Threshold)
	if threshold == 0 {
		threshold = 128
	}

	var lum []int
	if opts.Mode == Dither {
		lum = floydSteinberg(grey, threshold)
	} else {
		lum = make([]int, len(grey.Pix))
		for i, v := range grey.Pix {
			lum[i] = int(v)
		}
	}

	out := make([]byte, framebuffer.Size)
	for y := 0; y < framebuffer.Height; y++ {
		for x := 0; x < framebuffer.Width; x++ {
			on := lum[y*framebuffer.Width+x] >= threshold
			if on != opts.Invert {
				out[y*framebuffer.BWidth+(x>>3)] |= 0x80 >> (x & 7)
			}
		}
	}
	return out, nil
}

// Scale draws src onto a framebuffer sized grey image.
func Scale(src image.Image, opts Options) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, framebuffer.Width, framebuffer.Height))

	scaler := opts.Scaler
	if scaler == nil {
		scaler = xdraw.BiLinear
	}

	target := dst.Bounds()
	if opts.Fit {
		target = fit(src.Bounds(), target)
	}
	scaler.Scale(dst, target, src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// fit returns the largest rectangle with src's aspect ratio centred in dst.
func fit(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()

	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// floydSteinberg diffuses the quantisation error of each pixel to its
// unvisited neighbours. The result holds 0 or 255 per pixel.
func floydSteinberg(grey *image.Gray, threshold int) []int {
	w, h := framebuffer.Width, framebuffer.Height
	lum := make([]int, w*h)
	for i, v := range grey.Pix {
		lum[i] = int(v)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			old := lum[i]
			q := 0
			if old >= threshold {
				q = 255
			}
			lum[i] = q
			e := old - q

			if x+1 < w {
				lum[i+1] += e * 7 / 16
			}
			if y+1 < h {
				if x > 0 {
					lum[i+w-1] += e * 3 / 16
				}
				lum[i+w] += e * 5 / 16
				if x+1 < w {
					lum[i+w+1] += e * 1 / 16
				}
			}
		}
	}
	return lum
}

// ToImage unpacks framebuffer bytes into a black and white image.
func ToImage(data []byte) (*image.Paletted, error) {
	if len(data) != framebuffer.Size {
		return nil, framebuffer.ErrInvalidSize
	}

	img := image.NewPaletted(
		image.Rect(0, 0, framebuffer.Width, framebuffer.Height),
		color.Palette{color.Black, color.White},
	)
	for y := 0; y < framebuffer.Height; y++ {
		for x := 0; x < framebuffer.Width; x++ {
			if data[y*framebuffer.BWidth+(x>>3)]&(0x80>>(x&7)) != 0 {
				img.Pix[y*img.Stride+x] = 1
			}
		}
	}
	return img, nil
}

// EncodeBMP writes framebuffer bytes as a BMP file.
func EncodeBMP(w io.Writer, data []byte) error {
	img, err := ToImage(data)
	if err != nil {
		return err
	}
	return bmp.Encode(w, img)
}
