// Package serial multiplexes the USB CDC port between the binary protocol and
// the text console. A sync byte at the start of a line begins a protocol
// frame; anything else is collected into a console line.
package serial

import (
	"time"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/console"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/display"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/logger"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/protocol"
)

// FrameTimeout bounds the gap between bytes of one protocol frame.
const FrameTimeout = 500 * time.Millisecond

// Port is the byte stream the device is reached on. machine.Serialer
// satisfies it.
type Port interface {
	ReadByte() (byte, error)
	Write(data []byte) (n int, err error)
	Buffered() int
}

type Serial struct {
	port      Port
	handler   *protocol.Handler
	console   *console.Console
	display   *display.Manager
	formatter *display.FrameFormatter
	reader    portReader

	inIndex  int
	inBuffer [128]byte
}

// NewSerial creates the port multiplexer. con and disp may be nil.
func NewSerial(port Port, handler *protocol.Handler, con *console.Console, disp *display.Manager) *Serial {
	return &Serial{
		port:      port,
		handler:   handler,
		console:   con,
		display:   disp,
		formatter: display.NewFrameFormatter(),
		reader:    portReader{port: port, timeout: FrameTimeout},
	}
}

// Handle services the port forever.
func (s *Serial) Handle() {
	for {
		if !s.Poll() {
			time.Sleep(time.Millisecond)
		}
	}
}

// Poll consumes one byte, running a frame or a console line when one is
// complete. It returns false when no byte was waiting.
func (s *Serial) Poll() bool {
	b, err := s.port.ReadByte()
	if err != nil {
		return false
	}

	switch {
	case b == protocol.SyncByte && s.inIndex == 0:
		s.handleFrame()
	case b == '\n' || b == '\r':
		line := string(s.inBuffer[:s.inIndex])
		s.inIndex = 0
		if line != "" {
			s.handleLine(line)
		}
	default:
		// overlong lines are dropped
		if s.inIndex == len(s.inBuffer) {
			s.inIndex = 0
		}
		s.inBuffer[s.inIndex] = b
		s.inIndex++
	}
	return true
}

func (s *Serial) handleFrame() {
	frame, err := protocol.ReadFrameAfterSync(&s.reader)
	if err != nil {
		logger.Logf("serial", "frame: %v", err)
		if s.display != nil {
			s.display.ShowError(s.formatter.FormatError(err))
		}

		// a reply to a garbled frame lets the host retry at once
		switch err {
		case protocol.ErrCRCMismatch:
			s.respond(&protocol.Response{Status: protocol.StatusCRCError})
		case protocol.ErrInvalidFrame:
			s.respond(&protocol.Response{Status: protocol.StatusInvalidData})
		}
		return
	}

	if s.display != nil {
		s.display.ShowIncomingFrame(s.formatter.FormatIncoming(frame))
	}

	s.respond(s.handler.Handle(frame))
}

func (s *Serial) respond(resp *protocol.Response) {
	if err := protocol.WriteResponse(s.port, resp); err != nil {
		logger.Logf("serial", "write: %v", err)
		return
	}
	if s.display != nil {
		s.display.ShowOutgoingResponse(s.formatter.FormatOutgoing(resp))
	}
}

func (s *Serial) handleLine(line string) {
	if s.display != nil {
		s.display.ShowConsole(line)
	}
	if s.console == nil {
		return
	}
	s.console.Run(line)
}

// portReader adapts a polled Port to io.Reader for frame decoding. A read
// waits up to timeout for the first byte and then returns what is buffered.
type portReader struct {
	port    Port
	timeout time.Duration
}

func (r *portReader) Read(p []byte) (int, error) {
	deadline := time.Now().Add(r.timeout)
	n := 0
	for n < len(p) {
		b, err := r.port.ReadByte()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			if time.Now().After(deadline) {
				return 0, protocol.ErrTimeout
			}
			time.Sleep(100 * time.Microsecond)
			continue
		}
		p[n] = b
		n++
		if r.port.Buffered() == 0 {
			break
		}
	}
	return n, nil
}
