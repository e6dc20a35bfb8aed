package display

import (
	"fmt"
	"strings"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/protocol"
)

// maxPayloadBytes is how many payload bytes fit next to the header on one
// OLED row.
const maxPayloadBytes = 4

// FrameFormatter formats protocol frames and generator state for the debug
// OLED. Strings are kept short enough for a 32 column row.
type FrameFormatter struct{}

// NewFrameFormatter creates a new frame formatter.
func NewFrameFormatter() *FrameFormatter {
	return &FrameFormatter{}
}

// FormatIncoming formats an incoming request frame.
// Returns bytes string and parsed string.
func (f *FrameFormatter) FormatIncoming(frame *protocol.Frame) (bytesStr, parsedStr string) {
	bytesStr = f.formatBytes(frame.Cmd, frame.Payload)
	parsedStr = fmt.Sprintf("%s[%d]", f.CommandName(frame.Cmd), len(frame.Payload))
	return bytesStr, parsedStr
}

// FormatOutgoing formats an outgoing response frame.
// Returns bytes string and parsed string.
func (f *FrameFormatter) FormatOutgoing(resp *protocol.Response) (bytesStr, parsedStr string) {
	bytesStr = f.formatBytes(resp.Status, resp.Payload)
	parsedStr = fmt.Sprintf("%s[%d]", f.StatusName(resp.Status), len(resp.Payload))
	return bytesStr, parsedStr
}

// FormatError formats an error for display.
func (f *FrameFormatter) FormatError(err error) string {
	return truncate(err.Error(), 16)
}

// FormatStatus formats the generator state as "RUN L123 F4567".
func (f *FrameFormatter) FormatStatus(running, armed bool, line int, frames uint32) string {
	state := "STOP"
	switch {
	case running:
		state = "RUN"
	case armed:
		state = "PAUSE"
	}
	return fmt.Sprintf("%s L%d F%d", state, line, frames)
}

// formatBytes formats the head of a packet as hex.
// Format: AA CODE LENLO LENHI PAYLOAD.. ..
func (f *FrameFormatter) formatBytes(code uint8, payload []byte) string {
	var b strings.Builder

	n := len(payload)
	fmt.Fprintf(&b, "%02X %02X %02X%02X ", protocol.SyncByte, code, uint8(n), uint8(n>>8))

	for i := 0; i < n && i < maxPayloadBytes; i++ {
		fmt.Fprintf(&b, "%02X", payload[i])
	}
	if n > maxPayloadBytes {
		b.WriteString(".. ")
	} else if n > 0 {
		b.WriteString(" ")
	}

	// CRC is not recomputed here
	b.WriteString("..")

	return b.String()
}

var commandNames = map[uint8]string{
	protocol.CmdGetConfig:         "GetCfg",
	protocol.CmdSetConfig:         "SetCfg",
	protocol.CmdGetLineProfile:    "GetProf",
	protocol.CmdSetLineProfile:    "SetProf",
	protocol.CmdDeleteLineProfile: "DelProf",
	protocol.CmdListLineProfiles:  "LstProf",
	protocol.CmdGetStorageStats:   "GetStor",
	protocol.CmdPing:              "Ping",
	protocol.CmdFactoryReset:      "FctRst",
	protocol.CmdDiscover:          "Discvr",
	protocol.CmdGetVersion:        "GetVer",
	protocol.CmdStart:             "Start",
	protocol.CmdStop:              "Stop",
	protocol.CmdPause:             "Pause",
	protocol.CmdResume:            "Resume",
	protocol.CmdGetStatus:         "Status",
	protocol.CmdClear:             "Clear",
	protocol.CmdWriteRows:         "WrRows",
	protocol.CmdReadRows:          "RdRows",
	protocol.CmdSetLineProps:      "SetProps",
	protocol.CmdGetLineProps:      "GetProps",
	protocol.CmdApplyLineProfile:  "ApplyProf",
	protocol.CmdSaveFrame:         "SaveFrm",
	protocol.CmdLoadFrame:         "LoadFrm",
	protocol.CmdDeleteFrame:       "DelFrm",
	protocol.CmdListFrames:        "LstFrm",
	protocol.CmdGetLog:            "GetLog",
}

// CommandName returns a short name for a command code.
func (f *FrameFormatter) CommandName(cmd uint8) string {
	if name, ok := commandNames[cmd]; ok {
		return name
	}
	return fmt.Sprintf("Cmd%02X", cmd)
}

// StatusName returns a short name for a status code.
func (f *FrameFormatter) StatusName(status uint8) string {
	switch status {
	case protocol.StatusOK:
		return "OK"
	case protocol.StatusError:
		return "Err"
	case protocol.StatusInvalidCmd:
		return "InvCmd"
	case protocol.StatusInvalidData:
		return "InvData"
	case protocol.StatusNotFound:
		return "NotFnd"
	case protocol.StatusNoSpace:
		return "NoSpace"
	case protocol.StatusVersionMismatch:
		return "VerMis"
	case protocol.StatusCRCError:
		return "CRC"
	default:
		return fmt.Sprintf("Sts%02X", status)
	}
}

// truncate limits a string to maxLen characters, adding ".." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 2 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
