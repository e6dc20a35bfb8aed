package vga

import (
	"sync/atomic"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
)

// Signals drives the sync and line colour outputs.
type Signals interface {
	HSync(level Level)
	VSync(level Level)
	LineColors(color1, color2 bool)
}

// Serializer shifts one row of pixels out, MSB first. Prepare must not be
// called while Busy reports true.
type Serializer interface {
	Prepare(line []byte)
	Transmit()
	Busy() bool
}

// Timer calls the handler once per LinePeriod. A one-shot timer must be
// re-armed at the start of every handler call.
type Timer interface {
	Start(handler func()) error
	Stop()
	Rearm()
	OneShot() bool
}

// Keepalive is fed once per tick so a watchdog never fires while the
// generator owns the CPU.
type Keepalive interface {
	Feed()
}

// blankRow is scanned out during vertical blanking.
var blankRow [framebuffer.BWidth]byte

// Cursor is the scanline state carried between ticks.
type Cursor struct {
	// Line is the physical line the next tick emits.
	Line int
	// VSync is the level applied by the next tick.
	VSync Level
	// Row holds the pixels the next tick transmits.
	Row []byte
}

// Reset returns the cursor every generator starts from.
func Reset(fb *framebuffer.Framebuffer) Cursor {
	return Cursor{Line: 0, VSync: High, Row: rowFor(fb, 0)}
}

// Advance moves c to the next line, wrapping at TotalLines. Arriving on
// VSyncBeginLine schedules VSYNC low, arriving on VSyncEndLine schedules it
// high. Any other line leaves the pending level unchanged.
func Advance(c Cursor, fb *framebuffer.Framebuffer) Cursor {
	c.Line++
	switch c.Line {
	case TotalLines:
		c.Line = 0
	case VSyncBeginLine:
		c.VSync = Low
	case VSyncEndLine:
		c.VSync = High
	}
	c.Row = rowFor(fb, c.Line)
	return c
}

func rowFor(fb *framebuffer.Framebuffer, line int) []byte {
	if line < VisibleLines {
		if row := fb.Row(line); row != nil {
			return row
		}
	}
	return blankRow[:]
}

// Config wires a Generator to its hardware. Signals, Serializer and Timer are
// required; DeadTime and Keepalive may be nil.
type Config struct {
	Signals    Signals
	Serializer Serializer
	Timer      Timer

	// DeadTime busy-waits for the HSYNC pulse width.
	DeadTime  func()
	Keepalive Keepalive

	// ExtraColors enables the line colour outputs at runtime. It has no
	// effect in noextracolors builds.
	ExtraColors bool
}

// Generator emits one scanline per timer tick.
//
// Tick runs in interrupt context and never allocates, logs or returns an
// error. The cursor is only written by Tick and Start; every value read from
// the foreground is atomic.
type Generator struct {
	fb    *framebuffer.Framebuffer
	props Props

	signals    Signals
	serializer Serializer
	timer      Timer
	deadTime   func()
	keepalive  Keepalive
	extra      bool

	cursor Cursor

	running atomic.Bool
	armed   atomic.Bool
	line    atomic.Int32
	frames  atomic.Uint32
}

// NewGenerator creates a stopped generator scanning out fb.
func NewGenerator(fb *framebuffer.Framebuffer, cfg Config) *Generator {
	g := &Generator{
		fb:         fb,
		signals:    cfg.Signals,
		serializer: cfg.Serializer,
		timer:      cfg.Timer,
		deadTime:   cfg.DeadTime,
		keepalive:  cfg.Keepalive,
		extra:      extraColors && cfg.ExtraColors,
	}
	if g.deadTime == nil {
		g.deadTime = func() {}
	}
	if g.keepalive == nil {
		g.keepalive = nopKeepalive{}
	}
	g.cursor = Reset(fb)
	return g
}

// Framebuffer returns the scanned-out framebuffer.
func (g *Generator) Framebuffer() *framebuffer.Framebuffer {
	return g.fb
}

// Props returns the line property table.
func (g *Generator) Props() *Props {
	return &g.props
}

// Tick emits the current line and advances the cursor.
func (g *Generator) Tick() {
	if g.timer.OneShot() {
		g.timer.Rearm()
	}

	g.signals.HSync(Low)
	if g.extra {
		p := g.props.At(g.cursor.Line)
		g.signals.LineColors(p&PropColor1 != 0, p&PropColor2 != 0)
	}
	g.deadTime()
	g.signals.HSync(High)

	g.signals.VSync(g.cursor.VSync)

	if g.running.Load() {
		for g.serializer.Busy() {
		}
		g.serializer.Prepare(g.cursor.Row)
		g.serializer.Transmit()
	}

	g.cursor = Advance(g.cursor, g.fb)
	g.line.Store(int32(g.cursor.Line))
	if g.cursor.Line == 0 {
		g.frames.Add(1)
	}

	g.keepalive.Feed()
}

// Start resets the cursor and line properties and arms the timer. Calling
// Start on a running generator restarts it from line 0.
func (g *Generator) Start() error {
	g.Stop()

	g.cursor = Reset(g.fb)
	g.line.Store(0)
	g.props.Reset()
	g.running.Store(true)

	if err := g.timer.Start(g.Tick); err != nil {
		g.running.Store(false)
		return err
	}
	g.armed.Store(true)
	return nil
}

// Stop disarms the timer. The sync outputs stay at their last level.
func (g *Generator) Stop() {
	if g.armed.Swap(false) {
		g.timer.Stop()
	}
	g.running.Store(false)
}

// Pause stops pixel output. Sync pulses keep the monitor locked.
func (g *Generator) Pause() {
	g.running.Store(false)
}

// Resume restarts pixel output after Pause. It does nothing if the timer is
// not armed.
func (g *Generator) Resume() {
	if g.armed.Load() {
		g.running.Store(true)
	}
}

// Running reports whether pixels are being transmitted.
func (g *Generator) Running() bool {
	return g.running.Load()
}

// Armed reports whether the line timer is active.
func (g *Generator) Armed() bool {
	return g.armed.Load()
}

// Line returns the physical line the next tick will emit.
func (g *Generator) Line() int {
	return int(g.line.Load())
}

// Frames returns the number of completed 525-line frames since boot.
func (g *Generator) Frames() uint32 {
	return g.frames.Load()
}

type nopKeepalive struct{}

func (nopKeepalive) Feed() {}
