// Package storage persists the video config, line property profiles and
// framebuffer snapshots using LittleFS.
// It handles atomic writes, version checking, and cleanup of temporary files.
package storage

import (
	"errors"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/logger"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

const (
	rootDir    = "/vga"
	linesDir   = "/vga/lines"
	framesDir  = "/vga/frames"
	configFile = "/vga/config.bin"
	tempSuffix = ".tmp"
	slotSuffix = ".bin"

	// usage estimates: per-file LittleFS overhead in bytes, and blocks held
	// by the superblock, the three directories and the config file
	fileOverhead = 32
	metaBlocks   = 10
)

var (
	ErrProfileNotFound = errors.New("line profile not found")
	ErrFrameNotFound   = errors.New("frame not found")
	ErrInvalidSlot     = errors.New("invalid slot")
	ErrInvalidProfile  = errors.New("invalid profile data")
	ErrInvalidFrame    = errors.New("invalid frame data")
	ErrFlashFull       = errors.New("insufficient flash space")
	ErrVersionMismatch = errors.New("config version mismatch")
)

// Manager handles persistence using LittleFS.
type Manager struct {
	fs       *littlefs.LFS
	blockDev tinyfs.BlockDevice
	mounted  bool
}

// Stats provides information about storage usage.
type Stats struct {
	TotalSpace   int64
	UsedSpace    int64
	FreeSpace    int64
	ProfileCount int
	FrameCount   int
}

// New initializes the storage system with the given block device.
// It mounts the filesystem and performs boot-time cleanup.
// If format is true and mount fails, it will format the filesystem.
func New(blockDev tinyfs.BlockDevice, format bool) (*Manager, error) {
	lfs := littlefs.New(blockDev)

	// Conservative settings for RP2040 flash
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 128,
	})

	err := lfs.Mount()
	if err != nil {
		if !format {
			return nil, err
		}
		logger.Log("storage", "mount failed, formatting")
		if err := lfs.Format(); err != nil {
			return nil, err
		}
		if err := lfs.Mount(); err != nil {
			return nil, err
		}
	}

	m := &Manager{
		fs:       lfs,
		blockDev: blockDev,
		mounted:  true,
	}

	// we can still operate with stale temp files around
	if err := m.bootCleanup(); err != nil {
		logger.Logf("storage", "boot cleanup: %v", err)
	}

	needsWipe, err := m.checkVersion()
	if err != nil {
		// unreadable config on first boot is not a mismatch
		logger.Logf("storage", "version check: %v", err)
		needsWipe = false
	}

	if needsWipe {
		// the host tool restores frames and profiles after a firmware update
		logger.Log("storage", "config version mismatch, wiping")
		if err := m.wipeAll(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Close unmounts the filesystem.
func (m *Manager) Close() error {
	if m.mounted {
		m.mounted = false
		return m.fs.Unmount()
	}
	return nil
}

// bootCleanup removes temporary files left over from interrupted writes.
func (m *Manager) bootCleanup() error {
	for _, dir := range []string{rootDir, linesDir, framesDir} {
		entries, err := m.readDir(dir)
		if err != nil {
			if isNotExist(err) {
				continue
			}
			return err
		}

		for _, entry := range entries {
			name := entry.Name()
			if strings.HasSuffix(name, tempSuffix) {
				m.fs.Remove(path.Join(dir, name))
			}
		}
	}
	return nil
}

// readDir reads the directory entries at the given path.
func (m *Manager) readDir(dirPath string) ([]os.FileInfo, error) {
	f, err := m.fs.Open(dirPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !f.IsDir() {
		return nil, errors.New("not a directory")
	}

	return f.Readdir(-1)
}

// checkVersion reads the video config and checks if its version matches.
// Returns true if stored data should be wiped.
func (m *Manager) checkVersion() (bool, error) {
	var cfg config.VideoConfig
	if err := m.LoadConfig(&cfg); err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return cfg.Version != config.CurrentVersion, nil
}

// wipeAll removes all stored files.
func (m *Manager) wipeAll() error {
	if slots, err := m.ListLineProfiles(); err == nil {
		for _, slot := range slots {
			m.fs.Remove(m.slotPath(linesDir, slot))
		}
	}
	if slots, err := m.ListFrames(); err == nil {
		for _, slot := range slots {
			m.fs.Remove(m.slotPath(framesDir, slot))
		}
	}

	m.fs.Remove(configFile)

	return nil
}

// ensureDirs creates the directories if they don't exist.
func (m *Manager) ensureDirs() error {
	for _, dir := range []string{rootDir, linesDir, framesDir} {
		if err := m.fs.Mkdir(dir, 0755); err != nil && !isExist(err) {
			return err
		}
	}
	return nil
}

// isExist checks if an error is "already exists".
// LittleFS errors don't always match os.IsExist, so we check the message too.
func isExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}

// isNotExist is the missing-file counterpart of isExist.
func isNotExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsNotExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "No directory entry")
}

// LoadConfig loads the video configuration.
func (m *Manager) LoadConfig(cfg *config.VideoConfig) error {
	buf := make([]byte, config.VideoConfigSize)
	if err := m.readFile(configFile, buf); err != nil {
		return err
	}
	return cfg.UnmarshalBinary(buf)
}

// SaveConfig saves the video configuration atomically.
func (m *Manager) SaveConfig(cfg *config.VideoConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := m.ensureDirs(); err != nil {
		return err
	}

	cfg.Version = config.CurrentVersion

	data, err := cfg.MarshalBinary()
	if err != nil {
		return err
	}

	return m.atomicWrite(configFile, data)
}

// LoadLineProfile loads a line profile from the given slot.
func (m *Manager) LoadLineProfile(slot uint8, profile *config.LineProfile) error {
	if slot >= config.MaxLineProfiles {
		return ErrInvalidSlot
	}

	buf := make([]byte, config.LineProfileSize)
	if err := m.readFile(m.slotPath(linesDir, slot), buf); err != nil {
		if isNotExist(err) {
			return ErrProfileNotFound
		}
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return ErrInvalidProfile
		}
		return err
	}

	return profile.UnmarshalBinary(buf)
}

// SaveLineProfile saves a line profile to the given slot atomically.
func (m *Manager) SaveLineProfile(slot uint8, profile *config.LineProfile) error {
	if slot >= config.MaxLineProfiles {
		return ErrInvalidSlot
	}
	if err := m.ensureDirs(); err != nil {
		return err
	}

	profile.Version = config.CurrentVersion

	data, err := profile.MarshalBinary()
	if err != nil {
		return err
	}

	return m.atomicWrite(m.slotPath(linesDir, slot), data)
}

// DeleteLineProfile removes a line profile.
func (m *Manager) DeleteLineProfile(slot uint8) error {
	if slot >= config.MaxLineProfiles {
		return ErrInvalidSlot
	}
	return m.fs.Remove(m.slotPath(linesDir, slot))
}

// ListLineProfiles returns the occupied line profile slots.
func (m *Manager) ListLineProfiles() ([]uint8, error) {
	return m.listSlots(linesDir)
}

// SaveFrame stores a snapshot of fb in the given slot atomically.
func (m *Manager) SaveFrame(slot uint8, fb *framebuffer.Framebuffer) error {
	if slot >= config.MaxFrameSlots {
		return ErrInvalidSlot
	}
	if !m.FrameExists(slot) && !m.CanFitFrame() {
		return ErrFlashFull
	}
	if err := m.ensureDirs(); err != nil {
		return err
	}

	return m.atomicWrite(m.slotPath(framesDir, slot), fb.Bytes())
}

// LoadFrame reads a snapshot straight into fb. The frame being scanned out
// may show a mix of old and new rows until the read completes.
func (m *Manager) LoadFrame(slot uint8, fb *framebuffer.Framebuffer) error {
	if slot >= config.MaxFrameSlots {
		return ErrInvalidSlot
	}

	if err := m.readFile(m.slotPath(framesDir, slot), fb.Bytes()); err != nil {
		if isNotExist(err) {
			return ErrFrameNotFound
		}
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return ErrInvalidFrame
		}
		return err
	}
	return nil
}

// DeleteFrame removes a snapshot.
func (m *Manager) DeleteFrame(slot uint8) error {
	if slot >= config.MaxFrameSlots {
		return ErrInvalidSlot
	}
	if err := m.fs.Remove(m.slotPath(framesDir, slot)); err != nil {
		if isNotExist(err) {
			return ErrFrameNotFound
		}
		return err
	}
	return nil
}

// FrameExists checks if a snapshot exists in the given slot.
func (m *Manager) FrameExists(slot uint8) bool {
	f, err := m.fs.Open(m.slotPath(framesDir, slot))
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// ListFrames returns the occupied frame slots.
func (m *Manager) ListFrames() ([]uint8, error) {
	return m.listSlots(framesDir)
}

// GetStats returns storage statistics.
func (m *Manager) GetStats() (*Stats, error) {
	profiles, err := m.ListLineProfiles()
	if err != nil {
		return nil, err
	}
	frames, err := m.ListFrames()
	if err != nil {
		return nil, err
	}

	// LittleFS has no free space call, estimate in erase blocks from what
	// we wrote. Every directory pair and small file costs whole blocks.
	block := m.blockDev.EraseBlockSize()
	used := metaBlocks*block +
		int64(len(profiles))*blocksFor(config.LineProfileSize, block)*block +
		int64(len(frames))*m.frameCost()

	total := m.blockDev.Size()

	return &Stats{
		TotalSpace:   total,
		UsedSpace:    used,
		FreeSpace:    total - used,
		ProfileCount: len(profiles),
		FrameCount:   len(frames),
	}, nil
}

// CanFitFrame estimates if a new snapshot can be stored.
// The atomic write needs room for a full temp copy, so this is conservative.
func (m *Manager) CanFitFrame() bool {
	stats, err := m.GetStats()
	if err != nil {
		return false
	}
	return stats.FreeSpace > 2*m.frameCost()
}

// frameCost is the estimated flash footprint of one snapshot, including a
// block of skip-list and metadata slack.
func (m *Manager) frameCost() int64 {
	block := m.blockDev.EraseBlockSize()
	return (blocksFor(framebuffer.Size, block) + 1) * block
}

func blocksFor(size int, block int64) int64 {
	return (int64(size+fileOverhead) + block - 1) / block
}

// ForceWipe completely erases all stored data.
func (m *Manager) ForceWipe() error {
	return m.wipeAll()
}

func (m *Manager) listSlots(dir string) ([]uint8, error) {
	entries, err := m.readDir(dir)
	if err != nil {
		if isNotExist(err) {
			return []uint8{}, nil
		}
		return nil, err
	}

	slots := []uint8{}
	for _, entry := range entries {
		name := entry.Name()
		// "N.bin", temp files end in .tmp and are skipped
		if !strings.HasSuffix(name, slotSuffix) {
			continue
		}
		if slot, err := strconv.ParseUint(strings.TrimSuffix(name, slotSuffix), 10, 8); err == nil {
			slots = append(slots, uint8(slot))
		}
	}

	return slots, nil
}

// slotPath returns the filesystem path for a numbered slot.
func (m *Manager) slotPath(dir string, slot uint8) string {
	return path.Join(dir, strconv.Itoa(int(slot))+slotSuffix)
}

// readFile fills buf from the start of the file.
func (m *Manager) readFile(filepath string, buf []byte) error {
	f, err := m.fs.Open(filepath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.ReadFull(f, buf)
	return err
}

// atomicWrite writes data to a temporary file, syncs it, then renames.
// The original file is never in a partially written state.
func (m *Manager) atomicWrite(filepath string, data []byte) error {
	tempPath := filepath + tempSuffix

	// from an interrupted previous write
	m.fs.Remove(tempPath)

	f, err := m.fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		m.fs.Remove(tempPath)
		return err
	}

	// Sync ensures data hits flash
	if syncer, ok := f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			f.Close()
			m.fs.Remove(tempPath)
			return err
		}
	}

	if err := f.Close(); err != nil {
		m.fs.Remove(tempPath)
		return err
	}

	// LittleFS rename doesn't replace
	m.fs.Remove(filepath)

	if err := m.fs.Rename(tempPath, filepath); err != nil {
		m.fs.Remove(tempPath)
		return err
	}

	return nil
}
