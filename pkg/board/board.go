//go:build rp2040

// Package board binds the VGA generator to RP2040 peripherals.
//
// Wiring (through the usual series resistors):
//
//	GP16  HSYNC  (VGA pin 13)
//	GP17  VSYNC  (VGA pin 14)
//	GP18  pixels (VGA pin 2, green)
//	GP19  line colour 1 (VGA pin 1, red)
//	GP20  line colour 2 (VGA pin 3, blue)
package board

import (
	"machine"
	"time"

	"device/arm"
	"device/rp"

	"tinygo.org/x/drivers/delay"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/vga"
)

const (
	HSyncPin  = machine.GPIO16
	VSyncPin  = machine.GPIO17
	PixelPin  = machine.GPIO18
	Color1Pin = machine.GPIO19
	Color2Pin = machine.GPIO20

	// PixelClock shifts 512 pixels in about 25.6us of the 32us line.
	PixelClock = 20_000_000

	// WatchdogTimeoutMs must cover a flash erase with the generator stopped.
	WatchdogTimeoutMs = 2000

	// BootSettleMs gives the monitor time to wake before sync starts.
	BootSettleMs = 250
)

// ConfigurePins sets the sync and colour pins as outputs, idle high for the
// syncs and low for the colours.
func ConfigurePins() {
	for _, pin := range []machine.Pin{HSyncPin, VSyncPin, Color1Pin, Color2Pin} {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	HSyncPin.High()
	VSyncPin.High()
	Color1Pin.Low()
	Color2Pin.Low()
}

// Signals drives the sync and colour pins through the SIO set/clear
// registers, one store per edge.
type Signals struct{}

func setPin(pin machine.Pin, high bool) {
	if high {
		rp.SIO.GPIO_OUT_SET.Set(1 << uint32(pin))
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(1 << uint32(pin))
	}
}

func (Signals) HSync(level vga.Level) { setPin(HSyncPin, bool(level)) }

func (Signals) VSync(level vga.Level) { setPin(VSyncPin, bool(level)) }

func (Signals) LineColors(color1, color2 bool) {
	setPin(Color1Pin, color1)
	setPin(Color2Pin, color2)
}

// Watchdog feeds the hardware watchdog.
type Watchdog struct{}

// StartWatchdog arms the watchdog. After this something must call Feed at
// least every timeoutMs.
func StartWatchdog(timeoutMs uint32) (Watchdog, error) {
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: timeoutMs})
	return Watchdog{}, machine.Watchdog.Start()
}

func (Watchdog) Feed() {
	machine.Watchdog.Update()
}

// TimerCounter reads the free running 1 MHz system timer. Use it with
// CyclesPerMicro 1.
type TimerCounter struct{}

func (TimerCounter) Cycles() uint32 {
	return rp.TIMER.TIMERAWL.Get()
}

// cyclesPerLoop is the cost of one spin iteration on the M0+.
const cyclesPerLoop = 4

// DeadTime returns the HSYNC pulse wait. Without trim it is the
// cycle-counted delay for vga.HSyncPulse; trim adds or removes spin loop
// iterations around the same nominal length.
func DeadTime(trim int16) func() {
	if trim == 0 {
		return hsyncPulse
	}

	loops := int32(machine.CPUFrequency()/uint32(time.Second/vga.HSyncPulse)/cyclesPerLoop) + int32(trim)
	if loops < 0 {
		loops = 0
	}
	return func() { spin(loops) }
}

func hsyncPulse() {
	delay.Sleep(vga.HSyncPulse)
}

//go:noinline
func spin(n int32) {
	for ; n > 0; n-- {
		arm.Asm("nop")
	}
}
