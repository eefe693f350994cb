// Package wire implements the SMB1 message codec: the 32-byte header, the
// WordCount/ByteCount body shape, and the AndX chain linkage, per spec §4.1.
package wire

import "github.com/oxbowlabs/smb1d/internal/smb1/types"

// HeaderSize is the fixed size of the SMB1 header.
const HeaderSize = 32

// ProtocolID is the 4-byte SMB1 signature, 0xFF 'SMB'.
var ProtocolID = [4]byte{0xFF, 'S', 'M', 'B'}

// SMB2ProtocolID is the signature that indicates an SMB2+ message arrived
// instead; the connection manager sniffs on this to reject SMB2/3 cleanly.
var SMB2ProtocolID = [4]byte{0xFE, 'S', 'M', 'B'}

// Header is the decoded 32-byte SMB1 header, per spec §4.1.
type Header struct {
	Command Command
	Status  uint32
	Flags   types.HeaderFlags
	Flags2  types.HeaderFlags2
	PIDHigh uint16
	// Signature is the 8-byte field used for message signing (unused —
	// signing is an explicit non-goal, spec §1) and for the extended
	// security session key echo during SESSION_SETUP_ANDX chains.
	Signature [8]byte
	TID       uint16
	PID       uint16
	UID       uint16
	MID       uint16
}

// Command aliases types.Command for readability within this package.
type Command = types.Command

// IsSMB1 reports whether data begins with the SMB1 protocol signature.
func IsSMB1(data []byte) bool {
	return len(data) >= 4 && data[0] == ProtocolID[0] && data[1] == ProtocolID[1] &&
		data[2] == ProtocolID[2] && data[3] == ProtocolID[3]
}

// IsSMB2OrLater reports whether data begins with the SMB2+ signature; the
// connection manager uses this to reject newer dialects cleanly at the
// NetBIOS layer (spec §4.4).
func IsSMB2OrLater(data []byte) bool {
	return len(data) >= 4 && data[0] == SMB2ProtocolID[0] && data[1] == SMB2ProtocolID[1] &&
		data[2] == SMB2ProtocolID[2] && data[3] == SMB2ProtocolID[3]
}
