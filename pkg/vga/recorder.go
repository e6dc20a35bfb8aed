package vga

import "github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"

// EventKind identifies one recorded output action.
type EventKind uint8

const (
	EventHSync EventKind = iota
	EventVSync
	EventColors
	EventPrepare
	EventTransmit
	EventFeed
)

func (k EventKind) String() string {
	switch k {
	case EventHSync:
		return "hsync"
	case EventVSync:
		return "vsync"
	case EventColors:
		return "colors"
	case EventPrepare:
		return "prepare"
	case EventTransmit:
		return "transmit"
	case EventFeed:
		return "feed"
	}
	return "unknown"
}

// Event is one recorded action. Level is set for sync events, Color1 and
// Color2 for colour events.
type Event struct {
	Kind   EventKind
	Level  Level
	Color1 bool
	Color2 bool
}

// LineRecorder implements Signals, Serializer and Keepalive without hardware.
// It keeps the ordered event trace of the current line and a copy of every
// transmitted row. It is used by host builds and tests.
type LineRecorder struct {
	Events []Event
	Lines  [][]byte

	// KeepEvents records the trace. When false only lines are kept.
	KeepEvents bool
	// BusyFor makes Busy report true this many times after each Transmit.
	BusyFor    int
	BusyPolls  int
	busyRemain int

	HSyncLevel Level
	VSyncLevel Level
	prepared   [framebuffer.BWidth]byte
}

// NewLineRecorder returns a recorder with both sync outputs idle high.
func NewLineRecorder() *LineRecorder {
	return &LineRecorder{KeepEvents: true, HSyncLevel: High, VSyncLevel: High}
}

func (r *LineRecorder) event(e Event) {
	if r.KeepEvents {
		r.Events = append(r.Events, e)
	}
}

func (r *LineRecorder) HSync(level Level) {
	r.HSyncLevel = level
	r.event(Event{Kind: EventHSync, Level: level})
}

func (r *LineRecorder) VSync(level Level) {
	r.VSyncLevel = level
	r.event(Event{Kind: EventVSync, Level: level})
}

func (r *LineRecorder) LineColors(color1, color2 bool) {
	r.event(Event{Kind: EventColors, Color1: color1, Color2: color2})
}

func (r *LineRecorder) Prepare(line []byte) {
	copy(r.prepared[:], line)
	r.event(Event{Kind: EventPrepare})
}

func (r *LineRecorder) Transmit() {
	row := make([]byte, len(r.prepared))
	copy(row, r.prepared[:])
	r.Lines = append(r.Lines, row)
	r.busyRemain = r.BusyFor
	r.event(Event{Kind: EventTransmit})
}

func (r *LineRecorder) Busy() bool {
	if r.busyRemain > 0 {
		r.busyRemain--
		r.BusyPolls++
		return true
	}
	return false
}

func (r *LineRecorder) Feed() {
	r.event(Event{Kind: EventFeed})
}

// Reset drops the recorded events and lines.
func (r *LineRecorder) Reset() {
	r.Events = r.Events[:0]
	r.Lines = r.Lines[:0]
}

// ManualTimer is a Timer driven by calling Fire.
type ManualTimer struct {
	Single  bool
	Rearms  int
	Started int
	Stopped int
	Err     error

	handler func()
}

func (t *ManualTimer) Start(handler func()) error {
	if t.Err != nil {
		return t.Err
	}
	t.handler = handler
	t.Started++
	return nil
}

func (t *ManualTimer) Stop() {
	t.handler = nil
	t.Stopped++
}

func (t *ManualTimer) Rearm() { t.Rearms++ }

func (t *ManualTimer) OneShot() bool { return t.Single }

// Fire calls the handler n times. It does nothing while stopped.
func (t *ManualTimer) Fire(n int) {
	for i := 0; i < n && t.handler != nil; i++ {
		t.handler()
	}
}

// Armed reports whether a handler is installed.
func (t *ManualTimer) Armed() bool { return t.handler != nil }
