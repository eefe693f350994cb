package auth

import (
	"bytes"
	"encoding/binary"
	"errors"
	"unicode/utf16"
)

// NTLMSSP message type ids carried in the SMB security blob during the
// extended-security SESSION_SETUP_ANDX dance, per spec §4.3.
const (
	NTLMSSPNegotiate    uint32 = 1
	NTLMSSPChallenge    uint32 = 2
	NTLMSSPAuthenticate uint32 = 3
)

var ntlmsspSignature = []byte("NTLMSSP\x00")

// Negotiate flags this server understands/sets; only the bits the handler
// contract cares about are named.
const (
	NegotiateUnicode         uint32 = 0x00000001
	NegotiateOEM             uint32 = 0x00000002
	NegotiateNTLM            uint32 = 0x00000200
	NegotiateAlwaysSign      uint32 = 0x00008000
	NegotiateExtendedSession uint32 = 0x00080000
	NegotiateTargetInfo      uint32 = 0x00800000
	Negotiate128             uint32 = 0x20000000
	Negotiate56              uint32 = 0x80000000
)

var ErrMalformedNTLMSSP = errors.New("auth: malformed NTLMSSP message")

// ParseNegotiateMessage extracts the negotiate flags from a Type-1 message.
func ParseNegotiateMessage(msg []byte) (flags uint32, err error) {
	if len(msg) < 16 || !bytes.HasPrefix(msg, ntlmsspSignature) {
		return 0, ErrMalformedNTLMSSP
	}
	if binary.LittleEndian.Uint32(msg[8:12]) != NTLMSSPNegotiate {
		return 0, ErrMalformedNTLMSSP
	}
	return binary.LittleEndian.Uint32(msg[12:16]), nil
}

// BuildChallengeMessage builds a Type-2 NTLMSSP_CHALLENGE message carrying
// the server challenge and a target-info AV pair list, per spec §4.3 step 1.
func BuildChallengeMessage(serverChallenge []byte, targetName string, targetInfo []byte, flags uint32) []byte {
	targetNameBytes := utf16LEBytes(targetName)

	const fixedLen = 48
	buf := make([]byte, fixedLen)
	copy(buf[0:8], ntlmsspSignature)
	binary.LittleEndian.PutUint32(buf[8:12], NTLMSSPChallenge)

	// TargetNameFields: len, maxlen, offset
	binary.LittleEndian.PutUint16(buf[12:14], uint16(len(targetNameBytes)))
	binary.LittleEndian.PutUint16(buf[14:16], uint16(len(targetNameBytes)))
	binary.LittleEndian.PutUint32(buf[16:20], fixedLen)

	binary.LittleEndian.PutUint32(buf[20:24], flags|NegotiateTargetInfo)
	copy(buf[24:32], serverChallenge)
	// buf[32:40] reserved

	targetInfoOffset := fixedLen + len(targetNameBytes)
	binary.LittleEndian.PutUint16(buf[40:42], uint16(len(targetInfo)))
	binary.LittleEndian.PutUint16(buf[42:44], uint16(len(targetInfo)))
	binary.LittleEndian.PutUint32(buf[44:48], uint32(targetInfoOffset))

	buf = append(buf, targetNameBytes...)
	buf = append(buf, targetInfo...)
	return buf
}

// AuthenticateMessage is the parsed Type-3 NTLMSSP_AUTHENTICATE message.
type AuthenticateMessage struct {
	LMResponse           []byte
	NTResponse           []byte
	Domain               string
	User                 string
	Workstation          string
	EncryptedSessionKey  []byte
	Flags                uint32
}

// ParseAuthenticateMessage extracts the fields of a Type-3 message. Each
// variable-length field is described by a {len, maxlen, offset} triple at
// a fixed position in the header, per MS-NLMP 2.2.1.3.
func ParseAuthenticateMessage(msg []byte) (*AuthenticateMessage, error) {
	if len(msg) < 12 || !bytes.HasPrefix(msg, ntlmsspSignature) {
		return nil, ErrMalformedNTLMSSP
	}
	if binary.LittleEndian.Uint32(msg[8:12]) != NTLMSSPAuthenticate {
		return nil, ErrMalformedNTLMSSP
	}

	readField := func(fieldOffset int) ([]byte, error) {
		if fieldOffset+8 > len(msg) {
			return nil, ErrMalformedNTLMSSP
		}
		length := int(binary.LittleEndian.Uint16(msg[fieldOffset : fieldOffset+2]))
		offset := int(binary.LittleEndian.Uint32(msg[fieldOffset+4 : fieldOffset+8]))
		if length == 0 {
			return nil, nil
		}
		if offset < 0 || offset+length > len(msg) {
			return nil, ErrMalformedNTLMSSP
		}
		return msg[offset : offset+length], nil
	}

	lm, err := readField(12)
	if err != nil {
		return nil, err
	}
	nt, err := readField(20)
	if err != nil {
		return nil, err
	}
	domain, err := readField(28)
	if err != nil {
		return nil, err
	}
	user, err := readField(36)
	if err != nil {
		return nil, err
	}
	workstation, err := readField(44)
	if err != nil {
		return nil, err
	}
	sessionKey, err := readField(52)
	if err != nil {
		return nil, err
	}

	var flags uint32
	if len(msg) >= 64 {
		flags = binary.LittleEndian.Uint32(msg[60:64])
	}

	return &AuthenticateMessage{
		LMResponse:          lm,
		NTResponse:          nt,
		Domain:              decodeField(domain, flags),
		User:                decodeField(user, flags),
		Workstation:         decodeField(workstation, flags),
		EncryptedSessionKey: sessionKey,
		Flags:               flags,
	}, nil
}

func decodeField(raw []byte, flags uint32) string {
	if len(raw) == 0 {
		return ""
	}
	if flags&NegotiateUnicode != 0 {
		return decodeUTF16LE(raw)
	}
	return string(raw)
}

// decodeUTF16LE decodes a UTF-16LE byte slice. Kept local to auth rather
// than shared with the wire package's string helpers, since auth must not
// import wire (wire sits above types/auth in the dependency order).
func decodeUTF16LE(raw []byte) string {
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = uint16(raw[i*2]) | uint16(raw[i*2+1])<<8
	}
	return string(utf16.Decode(units))
}
