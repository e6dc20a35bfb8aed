// Package protocol implements the binary serial protocol used by the host
// tool to configure the VGA generator and move pixels.
// The protocol is designed to be simple, efficient, and suitable for TinyGo.
//
// Frame format:
//
//	[SYNC:1][CMD:1][LEN:2][PAYLOAD:LEN][CRC:2]
//	- SYNC: 0xAA (frame start marker)
//	- CMD: Command byte
//	- LEN: Payload length (uint16, little-endian)
//	- PAYLOAD: Variable length data
//	- CRC: CRC16-CCITT of [CMD][LEN][PAYLOAD]
//
// Response format is identical, with a status byte in place of CMD.
package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	SyncByte = 0xAA

	// MaxPayload bounds LEN. Longer frames are rejected unread.
	MaxPayload = 4096

	// Storage commands (PC → Device)
	CmdGetConfig         = 0x01
	CmdSetConfig         = 0x02
	CmdGetLineProfile    = 0x03
	CmdSetLineProfile    = 0x04
	CmdDeleteLineProfile = 0x05
	CmdListLineProfiles  = 0x06
	CmdGetStorageStats   = 0x07
	CmdPing              = 0x08
	CmdFactoryReset      = 0x09
	CmdDiscover          = 0x0A
	CmdGetVersion        = 0x10

	// Video control
	CmdStart     = 0x20
	CmdStop      = 0x21
	CmdPause     = 0x22
	CmdResume    = 0x23
	CmdGetStatus = 0x24

	// Pixels and line properties
	CmdClear            = 0x30
	CmdWriteRows        = 0x31
	CmdReadRows         = 0x32
	CmdSetLineProps     = 0x33
	CmdGetLineProps     = 0x34
	CmdApplyLineProfile = 0x35

	// Framebuffer snapshots
	CmdSaveFrame   = 0x40
	CmdLoadFrame   = 0x41
	CmdDeleteFrame = 0x42
	CmdListFrames  = 0x43

	CmdGetLog = 0x50

	// Response status codes (Device → PC)
	StatusOK              = 0x00
	StatusError           = 0x01
	StatusInvalidCmd      = 0x02
	StatusInvalidData     = 0x03
	StatusNotFound        = 0x04
	StatusNoSpace         = 0x05
	StatusVersionMismatch = 0x06
	StatusCRCError        = 0x07
)

var (
	ErrInvalidFrame = errors.New("invalid frame")
	ErrCRCMismatch  = errors.New("CRC mismatch")
	ErrTimeout      = errors.New("timeout")
)

// Frame represents a protocol frame.
type Frame struct {
	Cmd     uint8
	Payload []byte
}

// Response represents a protocol response.
type Response struct {
	Status  uint8
	Payload []byte
}

// ReadFrame reads and validates a request frame from the reader.
func ReadFrame(r io.Reader) (*Frame, error) {
	cmd, payload, err := readPacket(r)
	if err != nil {
		return nil, err
	}
	return &Frame{Cmd: cmd, Payload: payload}, nil
}

// ReadResponse reads and validates a response frame (PC side).
func ReadResponse(r io.Reader) (*Response, error) {
	status, payload, err := readPacket(r)
	if err != nil {
		return nil, err
	}
	return &Response{Status: status, Payload: payload}, nil
}

// ReadFrameAfterSync is ReadFrame for a caller that already consumed the
// sync byte while sniffing the stream.
func ReadFrameAfterSync(r io.Reader) (*Frame, error) {
	cmd, payload, err := readBody(r)
	if err != nil {
		return nil, err
	}
	return &Frame{Cmd: cmd, Payload: payload}, nil
}

func readPacket(r io.Reader) (uint8, []byte, error) {
	sync := make([]byte, 1)
	if _, err := io.ReadFull(r, sync); err != nil {
		return 0, nil, err
	}
	if sync[0] != SyncByte {
		return 0, nil, ErrInvalidFrame
	}
	return readBody(r)
}

func readBody(r io.Reader) (uint8, []byte, error) {
	// code + len
	header := make([]byte, 3)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}

	code := header[0]
	length := binary.LittleEndian.Uint16(header[1:])

	if length > MaxPayload {
		return 0, nil, ErrInvalidFrame
	}

	var payload []byte
	if length > 0 {
		payload = make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, err
		}
	}

	crcBytes := make([]byte, 2)
	if _, err := io.ReadFull(r, crcBytes); err != nil {
		return 0, nil, err
	}
	receivedCRC := binary.LittleEndian.Uint16(crcBytes)

	crc := updateCRC(0xFFFF, header)
	crc = updateCRC(crc, payload)
	if receivedCRC != crc {
		return 0, nil, ErrCRCMismatch
	}

	return code, payload, nil
}

// WriteResponse writes a response frame to the writer.
func WriteResponse(w io.Writer, resp *Response) error {
	return writePacket(w, resp.Status, resp.Payload)
}

// WriteFrame writes a request frame (PC side and tests).
func WriteFrame(w io.Writer, frame *Frame) error {
	return writePacket(w, frame.Cmd, frame.Payload)
}

func writePacket(w io.Writer, code uint8, payload []byte) error {
	payloadLen := uint16(len(payload))
	frameLen := 1 + 1 + 2 + int(payloadLen) + 2 // sync + code + len + payload + crc

	buf := make([]byte, 0, frameLen)
	buf = append(buf, SyncByte, code)
	buf = binary.LittleEndian.AppendUint16(buf, payloadLen)
	buf = append(buf, payload...)

	// CRC skips the sync byte
	buf = binary.LittleEndian.AppendUint16(buf, calcCRC(buf[1:]))

	_, err := w.Write(buf)
	return err
}

// calcCRC calculates CRC16-CCITT.
// Polynomial: 0x1021, Initial: 0xFFFF
func calcCRC(data []byte) uint16 {
	return updateCRC(0xFFFF, data)
}

func updateCRC(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
