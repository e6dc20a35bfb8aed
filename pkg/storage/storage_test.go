package storage

import (
	"bytes"
	"os"
	"testing"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"

	"tinygo.org/x/tinyfs"
)

func newTestStorage(t *testing.T) (*Manager, *tinyfs.MemBlockDevice) {
	// Memory-backed block device simulating RP2040 flash
	// 256 byte page size, 4096 byte block size, 64 blocks = 256KB
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	return mgr, blockDev
}

func patternFrame(seed byte) *framebuffer.Framebuffer {
	fb := framebuffer.New()
	for i, b := 0, fb.Bytes(); i < len(b); i++ {
		b[i] = byte(i) ^ seed
	}
	return fb
}

func TestConfigSaveLoad(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	original := config.DefaultVideoConfig()
	original.Version = 0
	original.BootFrame = 2
	original.HSyncTrim = 17
	original.Seed = 99

	if err := mgr.SaveConfig(&original); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	var loaded config.VideoConfig
	if err := mgr.LoadConfig(&loaded); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Version != config.CurrentVersion {
		t.Errorf("Version not set: expected %d, got %d", config.CurrentVersion, loaded.Version)
	}
	if loaded.BootFrame != 2 || loaded.HSyncTrim != 17 || loaded.Seed != 99 {
		t.Errorf("Unexpected config %+v", loaded)
	}
}

func TestConfigRejectsInvalid(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	cfg := config.DefaultVideoConfig()
	cfg.BootFrame = config.MaxFrameSlots
	if err := mgr.SaveConfig(&cfg); err != config.ErrInvalidValue {
		t.Errorf("Expected ErrInvalidValue, got %v", err)
	}
}

func TestConfigNotFound(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	var cfg config.VideoConfig
	if err := mgr.LoadConfig(&cfg); !isNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestLineProfileSaveLoad(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	original := config.LineProfile{}
	original.SetName("bands")
	for i := range original.Props {
		original.Props[i] = uint8(i/60) & 3
	}

	if err := mgr.SaveLineProfile(3, &original); err != nil {
		t.Fatalf("SaveLineProfile failed: %v", err)
	}

	var loaded config.LineProfile
	if err := mgr.LoadLineProfile(3, &loaded); err != nil {
		t.Fatalf("LoadLineProfile failed: %v", err)
	}
	if loaded.GetName() != "bands" {
		t.Errorf("Expected name 'bands', got '%s'", loaded.GetName())
	}
	if loaded.Props != original.Props {
		t.Error("Props do not match")
	}

	if err := mgr.LoadLineProfile(4, &loaded); err != ErrProfileNotFound {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
	if err := mgr.SaveLineProfile(config.MaxLineProfiles, &original); err != ErrInvalidSlot {
		t.Errorf("Expected ErrInvalidSlot, got %v", err)
	}

	slots, err := mgr.ListLineProfiles()
	if err != nil {
		t.Fatalf("ListLineProfiles failed: %v", err)
	}
	if len(slots) != 1 || slots[0] != 3 {
		t.Errorf("Expected [3], got %v", slots)
	}

	if err := mgr.DeleteLineProfile(3); err != nil {
		t.Fatalf("DeleteLineProfile failed: %v", err)
	}
	if err := mgr.LoadLineProfile(3, &loaded); err != ErrProfileNotFound {
		t.Errorf("Expected ErrProfileNotFound after delete, got %v", err)
	}
}

func TestFrameSaveLoad(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	src := patternFrame(0x5A)
	if err := mgr.SaveFrame(1, src); err != nil {
		t.Fatalf("SaveFrame failed: %v", err)
	}
	if !mgr.FrameExists(1) {
		t.Error("Frame should exist after save")
	}

	dst := framebuffer.New()
	if err := mgr.LoadFrame(1, dst); err != nil {
		t.Fatalf("LoadFrame failed: %v", err)
	}
	if !bytes.Equal(src.Bytes(), dst.Bytes()) {
		t.Error("Loaded frame does not match")
	}
}

func TestFrameNotFound(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	fb := framebuffer.New()
	if err := mgr.LoadFrame(0, fb); err != ErrFrameNotFound {
		t.Errorf("Expected ErrFrameNotFound, got %v", err)
	}
	if err := mgr.DeleteFrame(0); err != ErrFrameNotFound {
		t.Errorf("Expected ErrFrameNotFound, got %v", err)
	}
	if err := mgr.LoadFrame(config.MaxFrameSlots, fb); err != ErrInvalidSlot {
		t.Errorf("Expected ErrInvalidSlot, got %v", err)
	}
}

func TestMultipleFrames(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	for _, slot := range []uint8{0, 5} {
		if err := mgr.SaveFrame(slot, patternFrame(slot)); err != nil {
			t.Fatalf("SaveFrame slot %d failed: %v", slot, err)
		}
	}

	slots, err := mgr.ListFrames()
	if err != nil {
		t.Fatalf("ListFrames failed: %v", err)
	}

	slotMap := make(map[uint8]bool)
	for _, s := range slots {
		slotMap[s] = true
	}
	if len(slots) != 2 || !slotMap[0] || !slotMap[5] {
		t.Errorf("Expected slots 0 and 5, got %v", slots)
	}

	fb := framebuffer.New()
	if err := mgr.LoadFrame(5, fb); err != nil {
		t.Fatalf("LoadFrame failed: %v", err)
	}
	if !bytes.Equal(fb.Bytes(), patternFrame(5).Bytes()) {
		t.Error("Slot 5 content mismatch")
	}
}

func TestAtomicWrite(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	mgr.SaveFrame(0, patternFrame(1))
	mgr.SaveFrame(0, patternFrame(2))

	fb := framebuffer.New()
	if err := mgr.LoadFrame(0, fb); err != nil {
		t.Fatalf("LoadFrame failed: %v", err)
	}
	if !bytes.Equal(fb.Bytes(), patternFrame(2).Bytes()) {
		t.Error("Expected the second write to replace the first")
	}
}

func TestBootCleanupRemovesTemp(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)
	mgr, err := New(blockDev, true)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	profile := config.LineProfile{}
	mgr.SaveLineProfile(0, &profile)

	// simulate a write interrupted before the rename
	f, err := mgr.fs.OpenFile(linesDir+"/1.bin"+tempSuffix, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	f.Write([]byte{1, 2, 3})
	f.Close()
	mgr.Close()

	mgr2, err := New(blockDev, false)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	entries, err := mgr2.readDir(linesDir)
	if err != nil {
		t.Fatalf("readDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "0.bin" {
		names := []string{}
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only 0.bin, got %v", names)
	}
}

func TestVersionMismatchWipe(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	mgr.SaveFrame(0, patternFrame(0))
	mgr.SaveLineProfile(0, &config.LineProfile{})

	// write a config from an another firmware
	old := config.DefaultVideoConfig()
	old.Version = config.CurrentVersion + 1
	data, _ := old.MarshalBinary()
	if err := mgr.atomicWrite(configFile, data); err != nil {
		t.Fatalf("atomicWrite failed: %v", err)
	}
	mgr.Close()

	mgr2, err := New(blockDev, false)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	if mgr2.FrameExists(0) {
		t.Error("Frame should be wiped on version mismatch")
	}
	if slots, _ := mgr2.ListLineProfiles(); len(slots) != 0 {
		t.Errorf("Expected line profiles wiped, got %v", slots)
	}
	var cfg config.VideoConfig
	if err := mgr2.LoadConfig(&cfg); err == nil {
		t.Error("Expected config to be wiped")
	}
}

func TestVersionMatchKeepsData(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	cfg := config.DefaultVideoConfig()
	mgr.SaveConfig(&cfg)
	mgr.SaveFrame(2, patternFrame(2))
	mgr.Close()

	mgr2, err := New(blockDev, false)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	if !mgr2.FrameExists(2) {
		t.Error("Frame should survive a reboot when the version matches")
	}
}

func TestFactoryReset(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	cfg := config.DefaultVideoConfig()
	mgr.SaveConfig(&cfg)
	mgr.SaveLineProfile(0, &config.LineProfile{})
	mgr.SaveFrame(0, framebuffer.New())

	if err := mgr.ForceWipe(); err != nil {
		t.Fatalf("ForceWipe failed: %v", err)
	}

	if slots, _ := mgr.ListFrames(); len(slots) != 0 {
		t.Errorf("Expected 0 frames after reset, got %d", len(slots))
	}
	if slots, _ := mgr.ListLineProfiles(); len(slots) != 0 {
		t.Errorf("Expected 0 profiles after reset, got %d", len(slots))
	}
	var loaded config.VideoConfig
	if err := mgr.LoadConfig(&loaded); err == nil {
		t.Error("Expected config to be wiped")
	}
}

func TestStorageStats(t *testing.T) {
	mgr, blockDev := newTestStorage(t)
	defer mgr.Close()

	stats1, err := mgr.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats1.FrameCount != 0 || stats1.ProfileCount != 0 {
		t.Errorf("Expected empty storage, got %+v", stats1)
	}
	if stats1.TotalSpace != blockDev.Size() {
		t.Errorf("Expected total %d, got %d", blockDev.Size(), stats1.TotalSpace)
	}

	mgr.SaveFrame(0, framebuffer.New())
	mgr.SaveLineProfile(1, &config.LineProfile{})

	stats2, err := mgr.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats2.FrameCount != 1 || stats2.ProfileCount != 1 {
		t.Errorf("Expected 1 frame and 1 profile, got %+v", stats2)
	}
	if stats2.UsedSpace <= stats1.UsedSpace {
		t.Error("Expected used space to grow")
	}
	if !mgr.CanFitFrame() {
		t.Error("CanFitFrame should return true with available space")
	}
}

func BenchmarkFrameSave(b *testing.B) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)
	mgr, err := New(blockDev, true)
	if err != nil {
		b.Fatalf("Failed to create storage: %v", err)
	}
	defer mgr.Close()

	fb := patternFrame(3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := mgr.SaveFrame(0, fb); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFrameLoad(b *testing.B) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)
	mgr, err := New(blockDev, true)
	if err != nil {
		b.Fatalf("Failed to create storage: %v", err)
	}
	defer mgr.Close()

	fb := patternFrame(3)
	mgr.SaveFrame(0, fb)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := mgr.LoadFrame(0, fb); err != nil {
			b.Fatal(err)
		}
	}
}
