package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/vga"
)

func newTestClient(t *testing.T) (*Client, *testRig) {
	t.Helper()
	rig := newTestRig(t)
	return NewClient(NewLoopback(rig.handler)), rig
}

func TestClientFramebufferRoundTrip(t *testing.T) {
	c, rig := newTestClient(t)

	data := make([]byte, framebuffer.Size)
	for i := range data {
		data[i] = uint8(i*7 + i/framebuffer.BWidth)
	}

	if err := c.WriteFramebuffer(data); err != nil {
		t.Fatalf("WriteFramebuffer failed: %v", err)
	}
	if !bytes.Equal(rig.gen.Framebuffer().Bytes(), data) {
		t.Fatal("Framebuffer does not match uploaded data")
	}

	back, err := c.ReadFramebuffer()
	if err != nil {
		t.Fatalf("ReadFramebuffer failed: %v", err)
	}
	if !bytes.Equal(back, data) {
		t.Error("Downloaded framebuffer does not match")
	}

	if err := c.WriteFramebuffer(data[:100]); err != framebuffer.ErrInvalidSize {
		t.Errorf("Expected ErrInvalidSize, got %v", err)
	}
}

func TestClientStatus(t *testing.T) {
	c, rig := newTestClient(t)

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	rig.timer.Fire(vga.TotalLines + 3)

	st, err := c.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	expected := Status{Running: true, Armed: true, Line: 3, Frames: 1}
	if st != expected {
		t.Errorf("Expected %+v, got %+v", expected, st)
	}

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	st, _ = c.Status()
	if st.Running || !st.Armed {
		t.Errorf("Expected paused and armed, got %+v", st)
	}

	c.Stop()
	st, _ = c.Status()
	if st.Running || st.Armed {
		t.Errorf("Expected stopped, got %+v", st)
	}
}

func TestClientDeviceError(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.LoadFrame(5)
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("Expected DeviceError, got %v", err)
	}
	if devErr.Cmd != CmdLoadFrame || devErr.Status != StatusNotFound {
		t.Errorf("Expected LoadFrame/NotFound, got 0x%x/0x%x", devErr.Cmd, devErr.Status)
	}
}

func TestClientCommands(t *testing.T) {
	c, rig := newTestClient(t)

	reply, err := c.Ping([]byte("hi"))
	if err != nil || string(reply) != "hi" {
		t.Errorf("Expected echo, got %q (%v)", reply, err)
	}

	if err := c.Clear(0xFF); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if rig.gen.Framebuffer().Bytes()[0] != 0xFF {
		t.Error("Expected cleared framebuffer")
	}

	if err := c.SaveFrame(2); err != nil {
		t.Fatalf("SaveFrame failed: %v", err)
	}
	rig.gen.Framebuffer().Clear(0)
	if err := c.LoadFrame(2); err != nil {
		t.Fatalf("LoadFrame failed: %v", err)
	}
	if rig.gen.Framebuffer().Bytes()[framebuffer.Size-1] != 0xFF {
		t.Error("Expected restored framebuffer")
	}
	if err := c.DeleteFrame(2); err != nil {
		t.Fatalf("DeleteFrame failed: %v", err)
	}

	if _, err := c.Log(); err != nil {
		t.Errorf("Log failed: %v", err)
	}
}
