//go:build rp2040

package main

import (
	"machine"
	"time"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/board"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/console"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/display"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/draw"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/logger"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/protocol"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/storage"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/text"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/timing"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/vga"
	"github.com/tuffrabit/tinygo-vgax-rp2040/serial"
)

// MAIN THREAD DUTIES
//
// The scanline interrupt does the video. The main goroutine boots, then
// feeds the watchdog and refreshes the debug display; the serial goroutine
// runs protocol frames and console commands.

var fb = framebuffer.New()

func main() {
	board.ConfigurePins()

	wd, err := board.StartWatchdog(board.WatchdogTimeoutMs)
	if err != nil {
		logger.Logf("main", "watchdog: %v", err)
	}
	clock := timing.Clock{
		Counter:        board.TimerCounter{},
		CyclesPerMicro: 1,
		Keepalive:      wd,
	}

	sm, err := storage.New(machine.Flash, true)
	if err != nil {
		logger.Logf("main", "storage: %v", err)
		sm = nil
	}

	cfg := config.DefaultVideoConfig()
	if sm != nil {
		if err := sm.LoadConfig(&cfg); err != nil {
			cfg = config.DefaultVideoConfig()
		}
	}
	timing.Seed(cfg.Seed)

	ser, err := board.NewPIOSerializer(board.PixelPin, board.PixelClock)
	if err != nil {
		// nothing to show without a serializer
		panic(err)
	}

	gen := vga.NewGenerator(fb, vga.Config{
		Signals:     board.Signals{},
		Serializer:  ser,
		Timer:       board.NewAlarmTimer(vga.LinePeriod),
		DeadTime:    board.DeadTime(cfg.HSyncTrim),
		Keepalive:   wd,
		ExtraColors: cfg.Has(config.FlagExtraColors),
	})

	canvas := draw.New(fb)
	if !loadBootFrame(sm, &cfg) && cfg.Has(config.FlagSplash) {
		drawSplash(canvas)
	}

	clock.DelayMs(board.BootSettleMs)
	if err := gen.Start(); err != nil {
		logger.Logf("main", "start: %v", err)
	}
	applyLineProfile(sm, &cfg, gen)
	if cfg.Has(config.FlagStartPaused) {
		gen.Pause()
	}
	logger.Logf("main", "video started, flags 0x%x", cfg.Flags)

	disp := display.NewManager()
	con := console.New(gen, sm, machine.Serial)
	mainSerial := serial.NewSerial(machine.Serial, protocol.NewHandler(sm, gen), con, disp)

	go mainSerial.Handle()

	formatter := display.NewFrameFormatter()
	for {
		wd.Feed()
		if disp != nil {
			disp.ShowStatus(formatter.FormatStatus(gen.Running(), gen.Armed(), gen.Line(), gen.Frames()))
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// loadBootFrame restores the configured snapshot. It reports whether the
// framebuffer was filled.
func loadBootFrame(sm *storage.Manager, cfg *config.VideoConfig) bool {
	if sm == nil || cfg.BootFrame == config.NoSlot {
		return false
	}
	if err := sm.LoadFrame(cfg.BootFrame, fb); err != nil {
		logger.Logf("main", "boot frame %d: %v", cfg.BootFrame, err)
		return false
	}
	return true
}

// applyLineProfile must run after Start, which zeroes the line properties.
func applyLineProfile(sm *storage.Manager, cfg *config.VideoConfig, gen *vga.Generator) {
	if sm == nil || cfg.LineProfile == config.NoSlot {
		return
	}
	var profile config.LineProfile
	if err := sm.LoadLineProfile(cfg.LineProfile, &profile); err != nil {
		logger.Logf("main", "line profile %d: %v", cfg.LineProfile, err)
		return
	}
	props := gen.Props()
	for y, mask := range profile.Props {
		props.Set(y, mask)
	}
}

func drawSplash(c *draw.Canvas) {
	c.Clear(0)
	c.DrawRect(0, 0, framebuffer.Width, framebuffer.Height, 1, false, draw.OpSet)
	c.DrawRect(4, 4, framebuffer.Width-8, framebuffer.Height-8, 1, false, draw.OpSet)

	title := "VGAX 512x480"
	w := text.TinyFontWidth(text.DefaultTinyFont, title)
	text.WriteTinyFont(c, text.DefaultTinyFont, (framebuffer.Width-w)/2, framebuffer.Height/2, title, draw.OpOr)

	hint := "type help on the serial console"
	w = text.TinyFontWidth(text.DefaultTinyFont, hint)
	text.WriteTinyFont(c, text.DefaultTinyFont, (framebuffer.Width-w)/2, framebuffer.Height/2+24, hint, draw.OpOr)

	c.DrawCircle(framebuffer.Width/2, framebuffer.Height/2-60, 30, 1, false, draw.OpSet)
	c.DrawTriangle(framebuffer.Width/2, 150, framebuffer.Width/2-26, 195, framebuffer.Width/2+26, 195, 1, true, draw.OpXor)
}
