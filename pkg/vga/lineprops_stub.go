//go:build noextracolors

package vga

// extraColors is false when built with the noextracolors tag. The table keeps
// its API so callers compile unchanged; every read returns 0.
const extraColors = false

const (
	PropColor1 uint8 = 1 << iota
	PropColor2
)

// Props is a no-op stub in noextracolors builds.
type Props struct{}

func (p *Props) Set(y int, mask uint8) {}

func (p *Props) SetRange(start, end int, mask uint8) {}

func (p *Props) Get(y int) uint8 { return 0 }

func (p *Props) At(line int) uint8 { return 0 }

// Visible returns nil, there is nothing to snapshot.
func (p *Props) Visible() []uint8 { return nil }

func (p *Props) Reset() {}
