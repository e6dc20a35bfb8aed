//go:build tinygo && !nodebug

// Package display provides SSD1306 OLED display support for debug output.
// The top row shows the generator state, the next rows show serial activity:
// incoming frames, outgoing responses and the last console line.
//
// To build without display support, use:
//
//	tinygo build -tags=nodebug -target=pico -o firmware.uf2 .
package display

import (
	"fmt"
	"image/color"
	"machine"
	"time"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
)

const (
	// I2C configuration
	i2cAddress = 0x3C
	sclPin     = machine.GPIO1
	sdaPin     = machine.GPIO0

	screenWidth  = 128
	screenHeight = 64

	// TomThumb cells, 3x5 glyphs with spacing
	charWidth = 4
	rowHeight = 8
	baseline  = 6
	cols      = screenWidth / charWidth // 32 columns
	rows      = screenHeight / rowHeight

	rowStatus    = 0
	rowInBytes   = 1
	rowInParsed  = 2
	rowOutBytes  = 3
	rowOutParsed = 4
	rowConsole   = 6
	rowError     = 7
)

var (
	black = color.RGBA{0, 0, 0, 0}
	white = color.RGBA{255, 255, 255, 255}
)

// Manager handles the SSD1306 display for debug output.
type Manager struct {
	device *ssd1306.Device
	font   tinyfont.Fonter
	status string
}

// NewManager creates and initializes the display manager.
// Returns nil if display initialization fails (non-fatal for debug).
func NewManager() *Manager {
	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400000,
		SCL:       sclPin,
		SDA:       sdaPin,
	}); err != nil {
		fmt.Printf("I2C config failed: %v\n", err)
		return nil
	}

	// bus stabilization
	time.Sleep(10 * time.Millisecond)

	dev := ssd1306.NewI2C(i2c)
	dev.Configure(ssd1306.Config{
		Address: i2cAddress,
		Width:   screenWidth,
		Height:  screenHeight,
	})
	dev.ClearDisplay()

	mgr := &Manager{
		device: dev,
		font:   &tinyfont.TomThumb,
	}

	mgr.drawString(rowStatus, "VGAX 512x480")
	mgr.drawString(rowInBytes, "Waiting for data...")
	mgr.refresh()

	return mgr
}

// ShowStatus displays the generator state on the top row. The panel is only
// redrawn when the text changes.
func (m *Manager) ShowStatus(status string) {
	if status == m.status {
		return
	}
	m.status = status
	m.clearRow(rowStatus)
	m.drawString(rowStatus, status)
	m.refresh()
}

// ShowIncomingFrame displays an incoming serial frame.
func (m *Manager) ShowIncomingFrame(bytesStr, parsedStr string) {
	m.clearRow(rowInBytes)
	m.clearRow(rowInParsed)
	m.drawString(rowInBytes, "I:"+bytesStr)
	m.drawString(rowInParsed, " "+parsedStr)
	m.refresh()
}

// ShowOutgoingResponse displays an outgoing serial response.
func (m *Manager) ShowOutgoingResponse(bytesStr, parsedStr string) {
	m.clearRow(rowOutBytes)
	m.clearRow(rowOutParsed)
	m.drawString(rowOutBytes, "O:"+bytesStr)
	m.drawString(rowOutParsed, " "+parsedStr)
	m.refresh()
}

// ShowConsole displays the last console command line.
func (m *Manager) ShowConsole(line string) {
	m.clearRow(rowConsole)
	m.drawString(rowConsole, "> "+line)
	m.refresh()
}

// ShowError displays an error message on the bottom row.
func (m *Manager) ShowError(msg string) {
	m.clearRow(rowError)
	m.drawString(rowError, "ERR:"+msg)
	m.refresh()
}

// clearRow blanks one text row on the panel.
func (m *Manager) clearRow(row int) {
	if row < 0 || row >= rows {
		return
	}
	yStart := int16(row * rowHeight)
	for y := yStart; y < yStart+rowHeight; y++ {
		for x := int16(0); x < screenWidth; x++ {
			m.device.SetPixel(x, y, black)
		}
	}
}

// drawString writes s on a text row, cut to the row width.
func (m *Manager) drawString(row int, s string) {
	if row < 0 || row >= rows {
		return
	}
	y := int16(row*rowHeight + baseline)
	tinyfont.WriteLine(m.device, m.font, 0, y, truncate(s, cols), white)
}

func (m *Manager) refresh() {
	m.device.Display()
}
