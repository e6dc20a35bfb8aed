// Package config defines the persistent configuration records of the VGA
// generator. All structs are fixed size and use hand written little-endian
// binary serialization.
package config

import (
	"encoding/binary"
	"errors"
	"io"
)

// CurrentVersion is the config format version.
// Bump this when making breaking changes to the config format.
// When firmware boots and finds a different version in flash, configs are wiped.
const CurrentVersion uint16 = 1

const (
	// MaxFrameSlots is the number of framebuffer snapshots kept in flash.
	MaxFrameSlots = 8
	// MaxLineProfiles is the number of stored line property profiles.
	MaxLineProfiles = 8

	// NoSlot disables BootFrame or LineProfile.
	NoSlot uint8 = 0xFF

	// Lines is the number of line property bytes in a LineProfile.
	Lines = 480

	VideoConfigSize = 16
	LineProfileSize = 18 + Lines
)

// Video flags
const (
	FlagExtraColors uint32 = 1 << iota // drive the line colour pins
	FlagStartPaused                    // boot with pixel output paused
	FlagSplash                         // draw the splash screen when no boot frame loads
)

// HSyncTrim bounds, in timer cycles.
const (
	MinHSyncTrim = -200
	MaxHSyncTrim = 200
)

// Errors
var (
	ErrInvalidSize  = errors.New("invalid config size")
	ErrInvalidValue = errors.New("invalid config value")
)

// VideoConfig holds boot-time settings.
// Total size: 16 bytes
// Layout:
//
//	[0-1]:   Version (uint16)
//	[2-5]:   Flags (uint32)
//	[6]:     BootFrame (uint8, NoSlot for none)
//	[7]:     LineProfile (uint8, NoSlot for none)
//	[8-9]:   HSyncTrim (int16)
//	[10-13]: Seed (uint32)
//	[14-15]: Reserved
type VideoConfig struct {
	Version     uint16
	Flags       uint32
	BootFrame   uint8 // frame slot loaded into the framebuffer on boot
	LineProfile uint8 // line profile applied on boot
	HSyncTrim   int16 // added to the calibrated HSYNC dead time
	Seed        uint32
	Reserved    uint16
}

// DefaultVideoConfig is used when flash holds no config.
func DefaultVideoConfig() VideoConfig {
	return VideoConfig{
		Version:     CurrentVersion,
		Flags:       FlagExtraColors | FlagSplash,
		BootFrame:   NoSlot,
		LineProfile: NoSlot,
		Seed:        1,
	}
}

// Has reports whether flag is set.
func (v *VideoConfig) Has(flag uint32) bool {
	return v.Flags&flag != 0
}

// Validate checks slot numbers and the trim range.
func (v *VideoConfig) Validate() error {
	if v.BootFrame != NoSlot && v.BootFrame >= MaxFrameSlots {
		return ErrInvalidValue
	}
	if v.LineProfile != NoSlot && v.LineProfile >= MaxLineProfiles {
		return ErrInvalidValue
	}
	if v.HSyncTrim < MinHSyncTrim || v.HSyncTrim > MaxHSyncTrim {
		return ErrInvalidValue
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler for VideoConfig.
func (v *VideoConfig) MarshalBinary() ([]byte, error) {
	buf := make([]byte, VideoConfigSize)
	binary.LittleEndian.PutUint16(buf[0:], v.Version)
	binary.LittleEndian.PutUint32(buf[2:], v.Flags)
	buf[6] = v.BootFrame
	buf[7] = v.LineProfile
	binary.LittleEndian.PutUint16(buf[8:], uint16(v.HSyncTrim))
	binary.LittleEndian.PutUint32(buf[10:], v.Seed)
	binary.LittleEndian.PutUint16(buf[14:], v.Reserved)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for VideoConfig.
func (v *VideoConfig) UnmarshalBinary(data []byte) error {
	if len(data) < VideoConfigSize {
		return ErrInvalidSize
	}

	v.Version = binary.LittleEndian.Uint16(data[0:])
	v.Flags = binary.LittleEndian.Uint32(data[2:])
	v.BootFrame = data[6]
	v.LineProfile = data[7]
	v.HSyncTrim = int16(binary.LittleEndian.Uint16(data[8:]))
	v.Seed = binary.LittleEndian.Uint32(data[10:])
	v.Reserved = binary.LittleEndian.Uint16(data[14:])
	return nil
}

// LineProfile is a named snapshot of the line property table.
// Total size: 498 bytes
// Layout:
//
//	[0-1]:    Version (uint16)
//	[2-17]:   Name ([16]byte)
//	[18-497]: Props ([480]uint8)
type LineProfile struct {
	Version uint16
	Name    [16]byte // UTF-8 name (null-terminated if shorter)
	Props   [Lines]uint8
}

// Marshal writes the profile to w.
// Returns the number of bytes written.
func (p *LineProfile) Marshal(w io.Writer) (int, error) {
	header := make([]byte, 18)
	binary.LittleEndian.PutUint16(header[0:], p.Version)
	copy(header[2:], p.Name[:])

	if _, err := w.Write(header); err != nil {
		return 0, err
	}
	if _, err := w.Write(p.Props[:]); err != nil {
		return 18, err
	}

	return LineProfileSize, nil
}

// Unmarshal reads the profile from r.
func (p *LineProfile) Unmarshal(r io.Reader) error {
	header := make([]byte, 18)
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}

	p.Version = binary.LittleEndian.Uint16(header[0:])
	copy(p.Name[:], header[2:])

	_, err := io.ReadFull(r, p.Props[:])
	return err
}

// MarshalBinary implements encoding.BinaryMarshaler for LineProfile.
func (p *LineProfile) MarshalBinary() ([]byte, error) {
	buf := make([]byte, LineProfileSize)
	binary.LittleEndian.PutUint16(buf[0:], p.Version)
	copy(buf[2:18], p.Name[:])
	copy(buf[18:], p.Props[:])
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for LineProfile.
func (p *LineProfile) UnmarshalBinary(data []byte) error {
	if len(data) < LineProfileSize {
		return ErrInvalidSize
	}

	p.Version = binary.LittleEndian.Uint16(data[0:])
	copy(p.Name[:], data[2:18])
	copy(p.Props[:], data[18:LineProfileSize])
	return nil
}

// GetName returns the profile name as a string (up to null terminator).
func (p *LineProfile) GetName() string {
	for i, b := range p.Name {
		if b == 0 {
			return string(p.Name[:i])
		}
	}
	return string(p.Name[:])
}

// SetName sets the profile name from a string.
// If the name is longer than 15 bytes, it is truncated.
// The name is always null-terminated.
func (p *LineProfile) SetName(name string) {
	b := []byte(name)
	if len(b) > 15 {
		b = b[:15]
	}
	p.Name = [16]byte{}
	copy(p.Name[:], b)
}
