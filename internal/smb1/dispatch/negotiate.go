package dispatch

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/oxbowlabs/smb1d/internal/smb1/auth"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

const negotiatedDialect = "NT LM 0.12"

// handleNegotiate implements spec §4.5's NEGOTIATE contract: parse the
// NUL-delimited dialect list, pick NT LM 0.12 if present, and return the
// 17-word capability response plus the challenge/domain data block.
func handleNegotiate(hc *HandlerContext) (*HandlerResult, error) {
	dialects := parseDialectList(hc.Body.Data)

	dialectIndex := indexOf(dialects, negotiatedDialect)
	if dialectIndex < 0 {
		params := make([]byte, 2)
		binary.LittleEndian.PutUint16(params, 0xFFFF)
		return &HandlerResult{Body: wire.Body{Params: params}, Status: types.StatusSuccess}, nil
	}

	challenge, err := auth.GenerateChallenge()
	if err != nil {
		return errorResult(types.StatusUnsuccessful), nil
	}
	hc.Conn.Challenge = challenge

	params := make([]byte, 34) // 17 words
	binary.LittleEndian.PutUint16(params[0:2], uint16(dialectIndex))
	params[2] = types.SecurityModeUser | types.SecurityModeEncryptPasswords
	binary.LittleEndian.PutUint16(params[3:5], 50)    // max mpx
	binary.LittleEndian.PutUint16(params[5:7], 1)     // max vc
	binary.LittleEndian.PutUint32(params[7:11], 33028) // max buffer
	binary.LittleEndian.PutUint32(params[11:15], 65536) // max raw
	binary.LittleEndian.PutUint32(params[15:19], 0)    // session key
	binary.LittleEndian.PutUint32(params[19:23], uint32(types.NegotiateCapabilities))
	binary.LittleEndian.PutUint64(params[23:31], types.TimeToFiletime(time.Now()))
	binary.LittleEndian.PutUint16(params[31:33], 0) // timezone offset minutes
	params[33] = byte(len(challenge))

	data := append([]byte{}, challenge...)
	data = append(data, wire.WriteUTF16String("WORKGROUP")...)

	return &HandlerResult{Body: wire.Body{Params: params, Data: data}, Status: types.StatusSuccess}, nil
}

func parseDialectList(data []byte) []string {
	var dialects []string
	for _, chunk := range bytes.Split(data, []byte{0x00}) {
		if len(chunk) == 0 {
			continue
		}
		// each entry is prefixed with a 0x02 buffer-format byte.
		trimmed := bytes.TrimPrefix(chunk, []byte{0x02})
		if len(trimmed) > 0 {
			dialects = append(dialects, string(trimmed))
		}
	}
	return dialects
}

func indexOf(ss []string, target string) int {
	for i, s := range ss {
		if s == target {
			return i
		}
	}
	return -1
}
