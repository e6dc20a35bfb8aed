//go:build rp2040

package board

import (
	"encoding/binary"
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
)

// vgaPixels shifts one bit per PIO cycle onto a single pin.
//
//	.program vga_pixels
//	.wrap_target
//	    out pins, 1
//	.wrap
const (
	vgaPixelsWrapTarget = 0
	vgaPixelsWrap       = 0
	vgaPixelsOrigin     = -1
)

var vgaPixelsInstructions = []uint16{
	0x6001, //  0: out    pins, 1
}

func vgaPixelsProgramDefaultConfig(offset uint8) pio.StateMachineConfig {
	cfg := pio.DefaultStateMachineConfig()
	cfg.SetWrap(offset+vgaPixelsWrapTarget, offset+vgaPixelsWrap)
	return cfg
}

// PIOSerializer shifts a framebuffer row out of a PIO state machine, MSB
// first. A trailing zero word leaves the pin black after the last pixel.
type PIOSerializer struct {
	sm    pio.StateMachine
	words [framebuffer.WWidth + 1]uint32
}

// NewPIOSerializer claims a state machine on PIO0 and starts it on pin.
func NewPIOSerializer(pin machine.Pin, pixelClock uint32) (*PIOSerializer, error) {
	sm, err := pio.PIO0.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	Pio := sm.PIO()

	offset, err := Pio.AddProgram(vgaPixelsInstructions, vgaPixelsOrigin)
	if err != nil {
		return nil, err
	}

	whole, frac, err := pio.ClkDivFromFrequency(pixelClock, machine.CPUFrequency())
	if err != nil {
		return nil, err
	}

	pin.Configure(machine.PinConfig{Mode: Pio.PinMode()})

	cfg := vgaPixelsProgramDefaultConfig(offset)
	cfg.SetOutPins(pin, 1)
	// shift left, autopull every 32 bits
	cfg.SetOutShift(false, true, 32)
	cfg.SetFIFOJoin(pio.FifoJoinTx)
	cfg.SetClkDivIntFrac(whole, frac)

	sm.Init(offset, cfg)
	sm.SetPindirsConsecutive(pin, 1, true)
	sm.SetEnabled(true)

	return &PIOSerializer{sm: sm}, nil
}

// Prepare copies row into the word buffer.
func (s *PIOSerializer) Prepare(row []byte) {
	for i := 0; i < framebuffer.WWidth; i++ {
		s.words[i] = binary.BigEndian.Uint32(row[i*4:])
	}
}

// Transmit feeds the prepared words to the FIFO. The first eight go in at
// once; the other nine wait for room while the line is being shifted, one
// word per 1.6 µs at a 20 MHz pixel clock. Transmit therefore returns about
// 14 µs into the row, and that wait is spent inside the 32 µs line period.
func (s *PIOSerializer) Transmit() {
	for _, w := range s.words {
		for s.sm.IsTxFIFOFull() {
		}
		s.sm.TxPut(w)
	}
}

// Busy reports whether words of the previous line are still queued.
func (s *PIOSerializer) Busy() bool {
	return !s.sm.IsTxFIFOEmpty()
}
