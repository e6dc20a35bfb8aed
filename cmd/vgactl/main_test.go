//go:build linux || darwin

package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/protocol"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/vga"
)

func newTestDevice(t *testing.T) (*protocol.Client, *vga.Generator, *bytes.Buffer) {
	t.Helper()
	rec := vga.NewLineRecorder()
	rec.KeepEvents = false
	gen := vga.NewGenerator(framebuffer.New(), vga.Config{
		Signals:    rec,
		Serializer: rec,
		Timer:      &vga.ManualTimer{},
	})

	var out bytes.Buffer
	old := stdout
	stdout = &out
	t.Cleanup(func() { stdout = old })

	return protocol.NewClient(protocol.NewLoopback(protocol.NewHandler(nil, gen))), gen, &out
}

func run(c *protocol.Client, line string) error {
	args := strings.Fields(line)
	return commands[args[0]].run(c, args[1:])
}

func TestStatusCommand(t *testing.T) {
	c, gen, out := newTestDevice(t)

	tests := []struct {
		setup    func()
		expected string
	}{
		{func() {}, "stopped"},
		{func() { gen.Start() }, "running"},
		{func() { gen.Pause() }, "paused"},
		{func() { gen.Resume() }, "running"},
		{func() { gen.Stop() }, "stopped"},
	}

	for _, tt := range tests {
		tt.setup()
		out.Reset()
		if err := run(c, "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.HasPrefix(out.String(), tt.expected+" ") {
			t.Errorf("Expected %s, got %q", tt.expected, out.String())
		}
	}
}

func TestClearCommand(t *testing.T) {
	c, gen, _ := newTestDevice(t)
	fb := gen.Framebuffer().Bytes()

	tests := []struct {
		line     string
		expected byte
	}{
		{"clear 1", 0xFF},
		{"clear 0", 0x00},
		{"clear 1", 0xFF},
		{"clear", 0x00},
	}

	for _, tt := range tests {
		if err := run(c, tt.line); err != nil {
			t.Fatalf("%s failed: %v", tt.line, err)
		}
		if fb[0] != tt.expected || fb[framebuffer.Size-1] != tt.expected {
			t.Errorf("%s: expected 0x%02x, got 0x%02x", tt.line, tt.expected, fb[0])
		}
	}

	for _, line := range []string{"clear 2", "clear 0xFF", "clear 1 1"} {
		if err := run(c, line); !errors.Is(err, errUsage) {
			t.Errorf("%s: expected usage error, got %v", line, err)
		}
	}
}

func TestPropsAndPing(t *testing.T) {
	c, gen, out := newTestDevice(t)

	if err := run(c, "ping"); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "pong") {
		t.Errorf("Expected pong, got %q", out.String())
	}

	if err := run(c, "props 10 1 2"); err != nil {
		t.Fatalf("props failed: %v", err)
	}
	if vgaPropsCompiled(gen) && (gen.Props().Get(10) != 1 || gen.Props().Get(11) != 2) {
		t.Errorf("Expected masks 1 2, got %d %d", gen.Props().Get(10), gen.Props().Get(11))
	}

	if err := run(c, "props 10"); !errors.Is(err, errUsage) {
		t.Errorf("Expected usage error, got %v", err)
	}
	if err := run(c, "save x"); !errors.Is(err, errUsage) {
		t.Errorf("Expected usage error, got %v", err)
	}
}

func TestDownloadCommand(t *testing.T) {
	c, gen, _ := newTestDevice(t)
	gen.Framebuffer().Clear(0xFF)

	path := filepath.Join(t.TempDir(), "screen.bmp")
	if err := run(c, "download "+path); err != nil {
		t.Fatalf("download failed: %v", err)
	}

	gen.Framebuffer().Clear(0)
	if err := run(c, "upload "+path); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if gen.Framebuffer().Bytes()[framebuffer.Size-1] != 0xFF {
		t.Errorf("Expected white after round trip, got 0x%02x", gen.Framebuffer().Bytes()[framebuffer.Size-1])
	}
}

// vgaPropsCompiled reports whether line properties are kept, which is false
// in noextracolors builds.
func vgaPropsCompiled(gen *vga.Generator) bool {
	p := gen.Props()
	old := p.Get(0)
	p.Set(0, vga.PropColor1)
	ok := p.Get(0) == vga.PropColor1
	p.Set(0, old)
	return ok
}
