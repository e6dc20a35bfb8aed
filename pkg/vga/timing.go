// Package vga generates a 512x480 monochrome VGA signal from a periodic timer
// interrupt. Each interrupt (tick) emits one scanline: an HSYNC pulse, the
// pending VSYNC level, the optional line colours and the pixel bytes of the
// current row handed to a serializer.
package vga

import (
	"time"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
)

// Video timing. These are fixed; a monitor locks onto exactly this geometry.
const (
	VisibleLines  = framebuffer.Height
	BlankingLines = 45
	TotalLines    = VisibleLines + BlankingLines // 525

	// The tick that advances onto VSyncBeginLine schedules VSYNC low for the
	// following tick, VSyncEndLine schedules it high again.
	VSyncBeginLine = 490
	VSyncEndLine   = 492

	// LinePeriod is the timer period, one scanline.
	LinePeriod = 32 * time.Microsecond

	// HSyncPulse is the nominal HSYNC low time. The real dead time is a
	// cycle-counted busy wait calibrated per board.
	HSyncPulse = 2 * time.Microsecond
)

// Level of a sync output. Both syncs are negative-going.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}
