package config

import (
	"bytes"
	"testing"
)

func TestVideoConfigLayout(t *testing.T) {
	original := VideoConfig{
		Version:     1,
		Flags:       FlagExtraColors | FlagStartPaused,
		BootFrame:   3,
		LineProfile: NoSlot,
		HSyncTrim:   -12,
		Seed:        0xDEADBEEF,
	}

	data, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if len(data) != VideoConfigSize {
		t.Fatalf("Expected %d bytes, got %d", VideoConfigSize, len(data))
	}

	// spot check the little-endian layout
	if data[2] != 0x03 || data[6] != 3 || data[7] != 0xFF {
		t.Errorf("Unexpected header bytes % x", data[:8])
	}
	if data[8] != 0xF4 || data[9] != 0xFF {
		t.Errorf("Expected HSyncTrim f4 ff, got %02x %02x", data[8], data[9])
	}
	if data[10] != 0xEF || data[13] != 0xDE {
		t.Errorf("Expected seed little-endian, got % x", data[10:14])
	}

	var decoded VideoConfig
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if decoded != original {
		t.Errorf("Expected %+v, got %+v", original, decoded)
	}
}

func TestDefaultVideoConfig(t *testing.T) {
	cfg := DefaultVideoConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Expected version %d, got %d", CurrentVersion, cfg.Version)
	}
	if !cfg.Has(FlagExtraColors) || !cfg.Has(FlagSplash) || cfg.Has(FlagStartPaused) {
		t.Errorf("Unexpected default flags 0x%x", cfg.Flags)
	}
	if cfg.BootFrame != NoSlot || cfg.LineProfile != NoSlot {
		t.Error("Expected no boot frame and no line profile")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}

func TestVideoConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*VideoConfig)
		want error
	}{
		{"boot frame in range", func(c *VideoConfig) { c.BootFrame = MaxFrameSlots - 1 }, nil},
		{"boot frame out of range", func(c *VideoConfig) { c.BootFrame = MaxFrameSlots }, ErrInvalidValue},
		{"line profile out of range", func(c *VideoConfig) { c.LineProfile = MaxLineProfiles }, ErrInvalidValue},
		{"trim at max", func(c *VideoConfig) { c.HSyncTrim = MaxHSyncTrim }, nil},
		{"trim too low", func(c *VideoConfig) { c.HSyncTrim = MinHSyncTrim - 1 }, ErrInvalidValue},
	}

	for _, tt := range tests {
		cfg := DefaultVideoConfig()
		tt.mod(&cfg)
		if err := cfg.Validate(); err != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestLineProfileMarshalWriter(t *testing.T) {
	profile := LineProfile{Version: CurrentVersion}
	profile.SetName("stripes")
	for i := range profile.Props {
		profile.Props[i] = uint8(i % 4)
	}

	var buf bytes.Buffer
	n, err := profile.Marshal(&buf)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if n != LineProfileSize || buf.Len() != LineProfileSize {
		t.Errorf("Expected %d bytes, got n=%d len=%d", LineProfileSize, n, buf.Len())
	}

	data, _ := profile.MarshalBinary()
	if !bytes.Equal(data, buf.Bytes()) {
		t.Error("Marshal and MarshalBinary disagree")
	}

	var decoded LineProfile
	if err := decoded.Unmarshal(bytes.NewReader(data)); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded != profile {
		t.Error("Decoded profile does not match")
	}
	if decoded.GetName() != "stripes" {
		t.Errorf("Expected name 'stripes', got '%s'", decoded.GetName())
	}
}

func TestLineProfileUnmarshalShortReader(t *testing.T) {
	var p LineProfile
	if err := p.Unmarshal(bytes.NewReader(make([]byte, 100))); err == nil {
		t.Error("Expected error for short reader")
	}
}

func TestLineProfileNameHandling(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Short", "Short"},
		{"ExactlyFifteen!", "ExactlyFifteen!"},
		{"ThisIsAVeryLongNameThatExceeds", "ThisIsAVeryLong"},
		{"", ""},
	}

	for _, tt := range tests {
		p := LineProfile{}
		p.SetName("previous long name")
		p.SetName(tt.name)

		if result := p.GetName(); result != tt.expected {
			t.Errorf("SetName('%s'): expected '%s', got '%s'", tt.name, tt.expected, result)
		}
		if p.Name[15] != 0 {
			t.Errorf("Name '%s' not null-terminated", tt.name)
		}
	}
}

func TestUnmarshalInvalidSize(t *testing.T) {
	var profile LineProfile
	if err := profile.UnmarshalBinary([]byte{1, 2, 3}); err != ErrInvalidSize {
		t.Errorf("Expected ErrInvalidSize, got %v", err)
	}

	var video VideoConfig
	if err := video.UnmarshalBinary([]byte{1, 2}); err != ErrInvalidSize {
		t.Errorf("Expected ErrInvalidSize, got %v", err)
	}
}

func BenchmarkLineProfileMarshal(b *testing.B) {
	profile := LineProfile{Version: 1}
	profile.SetName("Benchmark")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := profile.MarshalBinary(); err != nil {
			b.Fatal(err)
		}
	}
}
