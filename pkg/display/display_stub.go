//go:build !tinygo || nodebug

// Package display provides a no-op stub when built with the nodebug tag or
// for the host. This excludes the SSD1306 driver and display code.
//
// To build without display support, use:
//
//	tinygo build -tags=nodebug -target=pico -o firmware.uf2 .
package display

// Manager is a no-op stub when nodebug build tag is used.
type Manager struct{}

// NewManager returns nil when nodebug build tag is used.
// The serial handler will handle nil display gracefully.
func NewManager() *Manager {
	return nil
}

func (m *Manager) ShowStatus(status string) {}

func (m *Manager) ShowIncomingFrame(bytesStr, parsedStr string) {}

func (m *Manager) ShowOutgoingResponse(bytesStr, parsedStr string) {}

func (m *Manager) ShowConsole(line string) {}

func (m *Manager) ShowError(msg string) {}
