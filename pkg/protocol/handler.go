package protocol

import (
	"bytes"
	"encoding/binary"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/logger"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/storage"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/timing"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/vga"
)

const (
	FirmwareMajor = 0
	FirmwareMinor = 1

	// MaxRows is the largest WriteRows/ReadRows transfer that fits one frame.
	MaxRows = (MaxPayload - 3) / framebuffer.BWidth

	StatusSize = 8

	// DiscoverReply identifies the device to host tools scanning ports.
	DiscoverReply = "vgax"
)

// Video is the generator surface driven by the protocol.
type Video interface {
	Start() error
	Stop()
	Pause()
	Resume()
	Running() bool
	Armed() bool
	Line() int
	Frames() uint32
	Framebuffer() *framebuffer.Framebuffer
	Props() *vga.Props
}

// Handler processes protocol commands.
type Handler struct {
	storage *storage.Manager
	video   Video
}

// NewHandler creates a new protocol handler. sm may be nil when the flash
// could not be mounted; storage commands then fail with StatusError.
func NewHandler(sm *storage.Manager, video Video) *Handler {
	return &Handler{
		storage: sm,
		video:   video,
	}
}

// storageCommands need a mounted filesystem.
var storageCommands = map[uint8]bool{
	CmdGetConfig:         true,
	CmdSetConfig:         true,
	CmdGetLineProfile:    true,
	CmdSetLineProfile:    true,
	CmdDeleteLineProfile: true,
	CmdListLineProfiles:  true,
	CmdApplyLineProfile:  true,
	CmdGetStorageStats:   true,
	CmdFactoryReset:      true,
	CmdSaveFrame:         true,
	CmdLoadFrame:         true,
	CmdDeleteFrame:       true,
	CmdListFrames:        true,
}

// Handle processes a command frame and returns a response.
func (h *Handler) Handle(frame *Frame) *Response {
	if h.storage == nil && storageCommands[frame.Cmd] {
		return &Response{Status: StatusError}
	}

	switch frame.Cmd {
	case CmdPing:
		return h.handlePing(frame.Payload)
	case CmdDiscover:
		return &Response{Status: StatusOK, Payload: []byte(DiscoverReply)}
	case CmdGetConfig:
		return h.handleGetConfig()
	case CmdSetConfig:
		return h.handleSetConfig(frame.Payload)
	case CmdGetLineProfile:
		return h.handleGetLineProfile(frame.Payload)
	case CmdSetLineProfile:
		return h.handleSetLineProfile(frame.Payload)
	case CmdDeleteLineProfile:
		return h.withSlot(frame.Payload, h.storage.DeleteLineProfile)
	case CmdListLineProfiles:
		return slotList(h.storage.ListLineProfiles())
	case CmdGetStorageStats:
		return h.handleGetStorageStats()
	case CmdFactoryReset:
		return h.handleFactoryReset()
	case CmdGetVersion:
		return h.handleGetVersion()
	case CmdStart:
		return h.handleStart()
	case CmdStop:
		h.video.Stop()
		return &Response{Status: StatusOK}
	case CmdPause:
		h.video.Pause()
		return &Response{Status: StatusOK}
	case CmdResume:
		h.video.Resume()
		return &Response{Status: StatusOK}
	case CmdGetStatus:
		return h.handleGetStatus()
	case CmdClear:
		return h.handleClear(frame.Payload)
	case CmdWriteRows:
		return h.handleWriteRows(frame.Payload)
	case CmdReadRows:
		return h.handleReadRows(frame.Payload)
	case CmdSetLineProps:
		return h.handleSetLineProps(frame.Payload)
	case CmdGetLineProps:
		return h.handleGetLineProps(frame.Payload)
	case CmdApplyLineProfile:
		return h.handleApplyLineProfile(frame.Payload)
	case CmdSaveFrame:
		return h.withSlot(frame.Payload, func(slot uint8) error {
			return h.storage.SaveFrame(slot, h.video.Framebuffer())
		})
	case CmdLoadFrame:
		return h.withSlot(frame.Payload, func(slot uint8) error {
			return h.storage.LoadFrame(slot, h.video.Framebuffer())
		})
	case CmdDeleteFrame:
		return h.withSlot(frame.Payload, h.storage.DeleteFrame)
	case CmdListFrames:
		return slotList(h.storage.ListFrames())
	case CmdGetLog:
		return h.handleGetLog(frame.Payload)
	default:
		return &Response{Status: StatusInvalidCmd}
	}
}

// statusFor maps storage and config errors to a status byte.
func statusFor(err error) uint8 {
	switch err {
	case nil:
		return StatusOK
	case storage.ErrProfileNotFound, storage.ErrFrameNotFound:
		return StatusNotFound
	case storage.ErrInvalidSlot, config.ErrInvalidValue:
		return StatusInvalidData
	case storage.ErrFlashFull:
		return StatusNoSpace
	}
	return StatusError
}

// withSlot runs fn for a single slot byte payload.
func (h *Handler) withSlot(payload []byte, fn func(slot uint8) error) *Response {
	if len(payload) != 1 {
		return &Response{Status: StatusInvalidData}
	}
	if err := fn(payload[0]); err != nil {
		logger.Logf("protocol", "slot %d: %v", payload[0], err)
		return &Response{Status: statusFor(err)}
	}
	return &Response{Status: StatusOK}
}

// slotList encodes occupied slots.
// Response: [Count:1 byte][Slot1:1 byte][Slot2:1 byte]...
func slotList(slots []uint8, err error) *Response {
	if err != nil {
		return &Response{Status: StatusError}
	}

	payload := make([]byte, 1+len(slots))
	payload[0] = uint8(len(slots))
	copy(payload[1:], slots)

	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handlePing responds with the same payload (echo).
func (h *Handler) handlePing(payload []byte) *Response {
	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handleGetConfig returns the stored video configuration.
func (h *Handler) handleGetConfig() *Response {
	var cfg config.VideoConfig
	if err := h.storage.LoadConfig(&cfg); err != nil {
		return &Response{Status: StatusNotFound}
	}

	data, err := cfg.MarshalBinary()
	if err != nil {
		return &Response{Status: StatusError}
	}

	return &Response{
		Status:  StatusOK,
		Payload: data,
	}
}

// handleSetConfig stores the video configuration and reseeds the random
// generator. Other fields take effect on the next boot.
// Payload: [VideoConfig:16 bytes]
func (h *Handler) handleSetConfig(payload []byte) *Response {
	if len(payload) != config.VideoConfigSize {
		return &Response{Status: StatusInvalidData}
	}

	var cfg config.VideoConfig
	if err := cfg.UnmarshalBinary(payload); err != nil {
		return &Response{Status: StatusInvalidData}
	}
	if cfg.Version != config.CurrentVersion {
		return &Response{Status: StatusVersionMismatch}
	}

	if err := h.storage.SaveConfig(&cfg); err != nil {
		return &Response{Status: statusFor(err)}
	}
	timing.Seed(cfg.Seed)
	logger.Logf("protocol", "config saved, flags 0x%x", cfg.Flags)

	return &Response{Status: StatusOK}
}

// handleGetLineProfile returns a line profile by slot number.
// Payload: [Slot:1 byte]
func (h *Handler) handleGetLineProfile(payload []byte) *Response {
	if len(payload) != 1 {
		return &Response{Status: StatusInvalidData}
	}

	var profile config.LineProfile
	if err := h.storage.LoadLineProfile(payload[0], &profile); err != nil {
		return &Response{Status: statusFor(err)}
	}

	data, err := profile.MarshalBinary()
	if err != nil {
		return &Response{Status: StatusError}
	}

	return &Response{
		Status:  StatusOK,
		Payload: data,
	}
}

// handleSetLineProfile saves a line profile to a slot.
// Payload: [Slot:1 byte][LineProfile:498 bytes]
func (h *Handler) handleSetLineProfile(payload []byte) *Response {
	if len(payload) != 1+config.LineProfileSize {
		return &Response{Status: StatusInvalidData}
	}

	var profile config.LineProfile
	if err := profile.UnmarshalBinary(payload[1:]); err != nil {
		return &Response{Status: StatusInvalidData}
	}
	if profile.Version != config.CurrentVersion {
		return &Response{Status: StatusVersionMismatch}
	}

	if err := h.storage.SaveLineProfile(payload[0], &profile); err != nil {
		return &Response{Status: statusFor(err)}
	}

	return &Response{Status: StatusOK}
}

// handleApplyLineProfile copies a stored profile into the live table.
// Payload: [Slot:1 byte]
func (h *Handler) handleApplyLineProfile(payload []byte) *Response {
	if len(payload) != 1 {
		return &Response{Status: StatusInvalidData}
	}

	var profile config.LineProfile
	if err := h.storage.LoadLineProfile(payload[0], &profile); err != nil {
		return &Response{Status: statusFor(err)}
	}

	props := h.video.Props()
	for y, mask := range profile.Props {
		props.Set(y, mask)
	}

	return &Response{Status: StatusOK}
}

// handleGetStorageStats returns storage statistics.
// Response: [Total:4][Used:4][Free:4][ProfileCount:1][FrameCount:1]
func (h *Handler) handleGetStorageStats() *Response {
	stats, err := h.storage.GetStats()
	if err != nil {
		return &Response{Status: StatusError}
	}

	payload := make([]byte, 14)
	binary.LittleEndian.PutUint32(payload[0:], uint32(stats.TotalSpace))
	binary.LittleEndian.PutUint32(payload[4:], uint32(stats.UsedSpace))
	binary.LittleEndian.PutUint32(payload[8:], uint32(stats.FreeSpace))
	payload[12] = uint8(stats.ProfileCount)
	payload[13] = uint8(stats.FrameCount)

	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handleFactoryReset wipes all stored data.
func (h *Handler) handleFactoryReset() *Response {
	if err := h.storage.ForceWipe(); err != nil {
		return &Response{Status: StatusError}
	}
	logger.Log("protocol", "factory reset")
	return &Response{Status: StatusOK}
}

// handleGetVersion returns firmware and config version info.
// Response: [FirmwareVersionMajor:1][FirmwareVersionMinor:1][ConfigVersion:2]
func (h *Handler) handleGetVersion() *Response {
	payload := make([]byte, 4)
	payload[0] = FirmwareMajor
	payload[1] = FirmwareMinor
	binary.LittleEndian.PutUint16(payload[2:], config.CurrentVersion)

	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

func (h *Handler) handleStart() *Response {
	if err := h.video.Start(); err != nil {
		logger.Logf("protocol", "start: %v", err)
		return &Response{Status: StatusError}
	}
	return &Response{Status: StatusOK}
}

// handleGetStatus reports the generator state.
// Response: [Running:1][Armed:1][Line:2][Frames:4]
func (h *Handler) handleGetStatus() *Response {
	payload := make([]byte, StatusSize)
	if h.video.Running() {
		payload[0] = 1
	}
	if h.video.Armed() {
		payload[1] = 1
	}
	binary.LittleEndian.PutUint16(payload[2:], uint16(h.video.Line()))
	binary.LittleEndian.PutUint32(payload[4:], h.video.Frames())

	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handleClear fills the framebuffer.
// Payload: empty or [Fill:1]
func (h *Handler) handleClear(payload []byte) *Response {
	var fill byte
	switch len(payload) {
	case 0:
	case 1:
		fill = payload[0]
	default:
		return &Response{Status: StatusInvalidData}
	}

	h.video.Framebuffer().Clear(fill)
	return &Response{Status: StatusOK}
}

// rowRange decodes [Y:2][Count:1] and checks it against the framebuffer.
func rowRange(payload []byte) (y, count int, ok bool) {
	if len(payload) < 3 {
		return 0, 0, false
	}
	y = int(binary.LittleEndian.Uint16(payload[0:]))
	count = int(payload[2])
	if count == 0 || count > MaxRows || y+count > framebuffer.Height {
		return 0, 0, false
	}
	return y, count, true
}

// handleWriteRows copies whole rows into the framebuffer.
// Payload: [Y:2][Count:1][Rows:Count*64]
func (h *Handler) handleWriteRows(payload []byte) *Response {
	y, count, ok := rowRange(payload)
	if !ok || len(payload) != 3+count*framebuffer.BWidth {
		return &Response{Status: StatusInvalidData}
	}

	fb := h.video.Framebuffer()
	data := payload[3:]
	for i := 0; i < count; i++ {
		copy(fb.Row(y+i), data[i*framebuffer.BWidth:(i+1)*framebuffer.BWidth])
	}

	return &Response{Status: StatusOK}
}

// handleReadRows returns whole rows of the framebuffer.
// Payload: [Y:2][Count:1]
// Response: [Rows:Count*64]
func (h *Handler) handleReadRows(payload []byte) *Response {
	y, count, ok := rowRange(payload)
	if !ok || len(payload) != 3 {
		return &Response{Status: StatusInvalidData}
	}

	start := y * framebuffer.BWidth
	out := make([]byte, count*framebuffer.BWidth)
	copy(out, h.video.Framebuffer().Bytes()[start:])

	return &Response{
		Status:  StatusOK,
		Payload: out,
	}
}

// handleSetLineProps writes consecutive line property masks.
// Payload: [Start:2][Masks:N]
func (h *Handler) handleSetLineProps(payload []byte) *Response {
	if len(payload) < 3 {
		return &Response{Status: StatusInvalidData}
	}
	start := int(binary.LittleEndian.Uint16(payload[0:]))
	masks := payload[2:]
	if start+len(masks) > vga.VisibleLines {
		return &Response{Status: StatusInvalidData}
	}

	props := h.video.Props()
	for i, mask := range masks {
		props.Set(start+i, mask)
	}

	return &Response{Status: StatusOK}
}

// handleGetLineProps reads consecutive line property masks.
// Payload: [Start:2][Count:2]
// Response: [Masks:Count]
func (h *Handler) handleGetLineProps(payload []byte) *Response {
	if len(payload) != 4 {
		return &Response{Status: StatusInvalidData}
	}
	start := int(binary.LittleEndian.Uint16(payload[0:]))
	count := int(binary.LittleEndian.Uint16(payload[2:]))
	if count == 0 || start+count > vga.VisibleLines {
		return &Response{Status: StatusInvalidData}
	}

	props := h.video.Props()
	out := make([]byte, count)
	for i := range out {
		out[i] = props.Get(start + i)
	}

	return &Response{
		Status:  StatusOK,
		Payload: out,
	}
}

// handleGetLog returns the most recent log lines as text.
// Payload: empty or [Count:1]
func (h *Handler) handleGetLog(payload []byte) *Response {
	n := logger.MaxEntries
	if len(payload) == 1 {
		n = int(payload[0])
	}

	var buf bytes.Buffer
	logger.Tail(&buf, n)

	out := buf.Bytes()
	if len(out) > MaxPayload {
		out = out[len(out)-MaxPayload:]
	}

	return &Response{
		Status:  StatusOK,
		Payload: out,
	}
}
