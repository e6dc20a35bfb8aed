package serial

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/console"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/protocol"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/storage"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/vga"

	"tinygo.org/x/tinyfs"
)

// fakePort serves bytes from in and collects writes in out.
type fakePort struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (p *fakePort) ReadByte() (byte, error) {
	if p.in.Len() == 0 {
		return 0, io.EOF
	}
	return p.in.ReadByte()
}

func (p *fakePort) Write(data []byte) (int, error) { return p.out.Write(data) }

func (p *fakePort) Buffered() int { return p.in.Len() }

func newTestSerial(t *testing.T) (*Serial, *fakePort, *vga.Generator) {
	t.Helper()

	sm, err := storage.New(tinyfs.NewMemoryDevice(256, 4096, 64), true)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { sm.Close() })

	rec := vga.NewLineRecorder()
	gen := vga.NewGenerator(framebuffer.New(), vga.Config{
		Signals:    rec,
		Serializer: rec,
		Timer:      &vga.ManualTimer{},
	})

	port := &fakePort{}
	s := NewSerial(port, protocol.NewHandler(sm, gen), console.New(gen, sm, port), nil)
	s.reader.timeout = 10 * time.Millisecond
	return s, port, gen
}

func drain(s *Serial) {
	for s.Poll() {
	}
}

func TestConsoleLine(t *testing.T) {
	s, port, gen := newTestSerial(t)

	port.in.WriteString("pixel 0 0\r\nping\n")
	drain(s)

	if port.out.String() != "pong\n" {
		t.Errorf("Expected pong, got %q", port.out.String())
	}
	if gen.Framebuffer().Bytes()[0] != 0x80 {
		t.Error("Expected pixel command to run")
	}
}

func TestProtocolFrame(t *testing.T) {
	s, port, _ := newTestSerial(t)

	protocol.WriteFrame(&port.in, &protocol.Frame{Cmd: protocol.CmdPing, Payload: []byte{1, 2, 3}})
	drain(s)

	resp, err := protocol.ReadResponse(&port.out)
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if resp.Status != protocol.StatusOK || !bytes.Equal(resp.Payload, []byte{1, 2, 3}) {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestFrameThenLine(t *testing.T) {
	s, port, _ := newTestSerial(t)

	protocol.WriteFrame(&port.in, &protocol.Frame{Cmd: protocol.CmdPause})
	port.in.WriteString("ping\n")
	drain(s)

	if _, err := protocol.ReadResponse(&port.out); err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if port.out.String() != "pong\n" {
		t.Errorf("Expected pong after the frame, got %q", port.out.String())
	}
}

func TestCRCErrorResponse(t *testing.T) {
	s, port, _ := newTestSerial(t)

	var frame bytes.Buffer
	protocol.WriteFrame(&frame, &protocol.Frame{Cmd: protocol.CmdPing, Payload: []byte{9}})
	data := frame.Bytes()
	data[len(data)-1] ^= 0xFF
	port.in.Write(data)
	drain(s)

	resp, err := protocol.ReadResponse(&port.out)
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if resp.Status != protocol.StatusCRCError {
		t.Errorf("Expected StatusCRCError, got 0x%x", resp.Status)
	}
}

func TestTruncatedFrameTimesOut(t *testing.T) {
	s, port, _ := newTestSerial(t)

	port.in.Write([]byte{protocol.SyncByte, protocol.CmdPing, 0x05})
	drain(s)

	if port.out.Len() != 0 {
		t.Errorf("Expected no response to a truncated frame, got % x", port.out.Bytes())
	}
}

func TestSyncByteInsideLine(t *testing.T) {
	s, port, _ := newTestSerial(t)

	// 0xAA only starts a frame at the beginning of a line
	port.in.Write([]byte{'x', protocol.SyncByte, '\n'})
	drain(s)

	if !bytes.HasPrefix(port.out.Bytes(), []byte("error: unknown command")) {
		t.Errorf("Expected console error, got %q", port.out.String())
	}
}
