package rpc

import (
	"encoding/binary"
	"strings"

	"github.com/oxbowlabs/smb1d/internal/logger"
)

// NetShareEnumAll opnum.
const OpNetShareEnumAll uint16 = 0x0F

// ShareType flags for SHARE_INFO_1.Type, per the srvsvc contract: 0 for
// disk, IPC$ gets the IPC bit OR'd with the special-share bit, and any
// name ending '$' gets the special-share bit.
const (
	shareTypeDisk    uint32 = 0x00000000
	shareTypeIPC     uint32 = 0x00000003
	shareTypeSpecial uint32 = 0x80000000
)

// ShareInfo1 is one SHARE_INFO_1 entry NetShareEnumAll reports.
type ShareInfo1 struct {
	Name    string
	Type    uint32
	Comment string
}

// ShareTypeFor computes a share's NDR Type field from its name, per the
// bind/request contract: IPC$ is IPC|special, any "$"-suffixed name is
// OR'd with the special bit, everything else is a plain disk share.
func ShareTypeFor(name string) uint32 {
	if strings.EqualFold(name, "IPC$") {
		return shareTypeIPC | shareTypeSpecial
	}
	if strings.HasSuffix(name, "$") {
		return shareTypeDisk | shareTypeSpecial
	}
	return shareTypeDisk
}

// SrvsvcHandler implements the srvsvc interface's one real operation,
// NetShareEnumAll; every other opnum faults.
type SrvsvcHandler struct {
	shares func() []ShareInfo1
}

func newSrvsvcHandler(shares func() []ShareInfo1) *SrvsvcHandler {
	return &SrvsvcHandler{shares: shares}
}

// HandleRequest dispatches a parsed Request PDU to NetShareEnumAll, or
// faults on any other opnum.
func (h *SrvsvcHandler) HandleRequest(req *Request) []byte {
	switch req.Opnum {
	case OpNetShareEnumAll:
		return h.handleNetShareEnumAll(req)
	default:
		return BuildFault(req.Header.CallID, NCAUnspecReject)
	}
}

// handleNetShareEnumAll parses the NDR-encoded server name, info level,
// preferred-max-length and resume handle, then emits an NDR-encoded
// SHARE_INFO_1_CONTAINER of every configured share.
func (h *SrvsvcHandler) handleNetShareEnumAll(req *Request) []byte {
	level := uint32(1)
	if len(req.StubData) >= 8 {
		level = binary.LittleEndian.Uint32(req.StubData[4:8])
	}
	logger.Debug("srvsvc NetShareEnumAll", "level", level)

	shares := h.shares()
	stub := encodeShareInfo1Container(shares)
	return BuildResponse(req.Header.CallID, req.ContextID, stub)
}

// encodeShareInfo1Container builds the NDR wire form of
// SHARE_INFO_1_CONTAINER: level, switch, container pointer, entry count,
// the fixed-size SHARE_INFO_1 array (name/type/comment pointers), then the
// conformant/varying string data for each name and comment, followed by
// TotalEntries, a null ResumeHandle, and NERR_Success.
func encodeShareInfo1Container(shares []ShareInfo1) []byte {
	n := len(shares)
	buf := make([]byte, 0, 256+64*n)

	buf = putU32(buf, 1) // level
	buf = putU32(buf, 1) // switch
	buf = putU32(buf, 0x00020000) // container pointer, non-null
	buf = putU32(buf, uint32(n)) // EntriesRead

	if n == 0 {
		buf = putU32(buf, 0) // buffer pointer, null
		buf = putU32(buf, uint32(n))  // TotalEntries
		buf = putU32(buf, 0)          // ResumeHandle, null
		buf = putU32(buf, 0)          // NERR_Success
		return buf
	}

	buf = putU32(buf, 0x00020004) // buffer pointer
	buf = putU32(buf, uint32(n))  // conformant array max count

	ptr := uint32(0x00020008)
	for i, s := range shares {
		buf = putU32(buf, ptr+uint32(i*8)) // name pointer
		buf = putU32(buf, s.Type)
		buf = putU32(buf, ptr+uint32(i*8)+4) // comment pointer
	}

	for _, s := range shares {
		buf = appendNDRString(buf, s.Name)
		buf = appendNDRString(buf, s.Comment)
	}

	buf = putU32(buf, uint32(n)) // TotalEntries
	buf = putU32(buf, 0)         // ResumeHandle, null
	buf = putU32(buf, 0)         // NERR_Success
	return buf
}

func appendNDRString(buf []byte, s string) []byte {
	withNul := s + "\x00"
	count := uint32(len(withNul))
	buf = putU32(buf, count) // MaxCount
	buf = putU32(buf, 0)     // Offset
	buf = putU32(buf, count) // ActualCount
	for _, r := range withNul {
		buf = append(buf, byte(r), byte(r>>8))
	}
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

func putU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
