package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
)

// DeviceError is returned by Client calls when the device answers with a
// non-OK status.
type DeviceError struct {
	Cmd    uint8
	Status uint8
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("command 0x%02x failed: status 0x%02x", e.Cmd, e.Status)
}

// Status is the decoded CmdGetStatus reply.
type Status struct {
	Running bool
	Armed   bool
	Line    int
	Frames  uint32
}

// Client drives a device over any byte stream (PC side).
type Client struct {
	rw io.ReadWriter
}

// NewClient wraps an open serial port or pipe.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{rw: rw}
}

// Call sends one command and waits for its response.
func (c *Client) Call(cmd uint8, payload []byte) ([]byte, error) {
	if err := WriteFrame(c.rw, &Frame{Cmd: cmd, Payload: payload}); err != nil {
		return nil, err
	}
	resp, err := ReadResponse(c.rw)
	if err != nil {
		return nil, err
	}
	if resp.Status != StatusOK {
		return nil, &DeviceError{Cmd: cmd, Status: resp.Status}
	}
	return resp.Payload, nil
}

func (c *Client) Ping(payload []byte) ([]byte, error) {
	return c.Call(CmdPing, payload)
}

func (c *Client) Start() error {
	_, err := c.Call(CmdStart, nil)
	return err
}

func (c *Client) Stop() error {
	_, err := c.Call(CmdStop, nil)
	return err
}

func (c *Client) Pause() error {
	_, err := c.Call(CmdPause, nil)
	return err
}

func (c *Client) Resume() error {
	_, err := c.Call(CmdResume, nil)
	return err
}

func (c *Client) Status() (Status, error) {
	payload, err := c.Call(CmdGetStatus, nil)
	if err != nil {
		return Status{}, err
	}
	if len(payload) != StatusSize {
		return Status{}, ErrInvalidFrame
	}
	return Status{
		Running: payload[0] != 0,
		Armed:   payload[1] != 0,
		Line:    int(binary.LittleEndian.Uint16(payload[2:])),
		Frames:  binary.LittleEndian.Uint32(payload[4:]),
	}, nil
}

func (c *Client) Clear(fill byte) error {
	_, err := c.Call(CmdClear, []byte{fill})
	return err
}

// WriteFramebuffer uploads a whole packed framebuffer in MaxRows chunks.
func (c *Client) WriteFramebuffer(data []byte) error {
	if len(data) != framebuffer.Size {
		return framebuffer.ErrInvalidSize
	}
	for y := 0; y < framebuffer.Height; y += MaxRows {
		count := min(MaxRows, framebuffer.Height-y)
		payload := make([]byte, 3, 3+count*framebuffer.BWidth)
		binary.LittleEndian.PutUint16(payload, uint16(y))
		payload[2] = uint8(count)
		payload = append(payload, data[y*framebuffer.BWidth:(y+count)*framebuffer.BWidth]...)
		if _, err := c.Call(CmdWriteRows, payload); err != nil {
			return err
		}
	}
	return nil
}

// ReadFramebuffer downloads the whole framebuffer.
func (c *Client) ReadFramebuffer() ([]byte, error) {
	out := make([]byte, 0, framebuffer.Size)
	for y := 0; y < framebuffer.Height; y += MaxRows {
		count := min(MaxRows, framebuffer.Height-y)
		payload := []byte{0, 0, uint8(count)}
		binary.LittleEndian.PutUint16(payload, uint16(y))
		rows, err := c.Call(CmdReadRows, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// SetLineProps writes masks starting at visible line start.
func (c *Client) SetLineProps(start int, masks []uint8) error {
	payload := binary.LittleEndian.AppendUint16(nil, uint16(start))
	payload = append(payload, masks...)
	_, err := c.Call(CmdSetLineProps, payload)
	return err
}

func (c *Client) slotCall(cmd, slot uint8) error {
	_, err := c.Call(cmd, []byte{slot})
	return err
}

func (c *Client) SaveFrame(slot uint8) error   { return c.slotCall(CmdSaveFrame, slot) }
func (c *Client) LoadFrame(slot uint8) error   { return c.slotCall(CmdLoadFrame, slot) }
func (c *Client) DeleteFrame(slot uint8) error { return c.slotCall(CmdDeleteFrame, slot) }

// Log fetches the device log text.
func (c *Client) Log() (string, error) {
	payload, err := c.Call(CmdGetLog, nil)
	return string(payload), err
}

// Loopback is an in-process link between a Client and a Handler. Each
// request written is answered when the response is read.
type Loopback struct {
	handler *Handler
	in      bytes.Buffer
	out     bytes.Buffer
}

func NewLoopback(h *Handler) *Loopback {
	return &Loopback{handler: h}
}

func (l *Loopback) Write(p []byte) (int, error) {
	return l.in.Write(p)
}

func (l *Loopback) Read(p []byte) (int, error) {
	for l.out.Len() == 0 {
		if l.in.Len() == 0 {
			return 0, io.EOF
		}
		var resp *Response
		frame, err := ReadFrame(&l.in)
		switch {
		case errors.Is(err, ErrCRCMismatch):
			resp = &Response{Status: StatusCRCError}
		case err != nil:
			return 0, err
		default:
			resp = l.handler.Handle(frame)
		}
		if err := WriteResponse(&l.out, resp); err != nil {
			return 0, err
		}
	}
	return l.out.Read(p)
}
