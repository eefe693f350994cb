package wire

import (
	"encoding/binary"
	"errors"

	"github.com/oxbowlabs/smb1d/internal/smb1/types"
)

var (
	ErrInvalidProtocolID = errors.New("smb1: invalid protocol id")
	ErrMessageTooShort    = errors.New("smb1: message too short for header")
	ErrTruncatedBody      = errors.New("smb1: truncated wordCount/byteCount body")
)

// ParseHeader decodes the fixed 32-byte SMB1 header from the front of data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrMessageTooShort
	}
	if !IsSMB1(data) {
		return nil, ErrInvalidProtocolID
	}

	h := &Header{
		Command: Command(data[4]),
		Status:  binary.LittleEndian.Uint32(data[5:9]),
		Flags:   types.DecodeFlags(data[9]),
		Flags2:  types.DecodeFlags2(binary.LittleEndian.Uint16(data[10:12])),
		PIDHigh: binary.LittleEndian.Uint16(data[12:14]),
		TID:     binary.LittleEndian.Uint16(data[24:26]),
		PID:     binary.LittleEndian.Uint16(data[26:28]),
		UID:     binary.LittleEndian.Uint16(data[28:30]),
		MID:     binary.LittleEndian.Uint16(data[30:32]),
	}
	copy(h.Signature[:], data[14:22])
	return h, nil
}

// EncodeHeader writes h into a fresh 32-byte buffer.
func EncodeHeader(h *Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], ProtocolID[:])
	buf[4] = byte(h.Command)
	binary.LittleEndian.PutUint32(buf[5:9], h.Status)
	buf[9] = h.Flags.Encode()
	binary.LittleEndian.PutUint16(buf[10:12], h.Flags2.Encode())
	binary.LittleEndian.PutUint16(buf[12:14], h.PIDHigh)
	copy(buf[14:22], h.Signature[:])
	// buf[22:24] reserved, left zero
	binary.LittleEndian.PutUint16(buf[24:26], h.TID)
	binary.LittleEndian.PutUint16(buf[26:28], h.PID)
	binary.LittleEndian.PutUint16(buf[28:30], h.UID)
	binary.LittleEndian.PutUint16(buf[30:32], h.MID)
	return buf
}
