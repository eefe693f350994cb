// Package rpc implements the minimal DCE/RPC PDU layer carried over the
// \PIPE\ named-pipe file: the common header, bind/bind_ack/bind_nak, and
// request/response/fault, plus the srvsvc share-enumeration and lsarpc
// stub interfaces. Grounded on dittofs's internal/protocol/smb/rpc
// package, generalized with a bind_nak path and a multi-interface bind
// table instead of dittofs's single hard-wired srvsvc handler.
package rpc

import (
	"encoding/binary"
	"fmt"
)

// PDU types this server produces or consumes.
const (
	PDURequest  uint8 = 0x00
	PDUResponse uint8 = 0x02
	PDUFault    uint8 = 0x03
	PDUBind     uint8 = 0x0B
	PDUBindAck  uint8 = 0x0C
	PDUBindNak  uint8 = 0x0D
)

// PDU flags.
const (
	FlagFirstFrag uint8 = 0x01
	FlagLastFrag  uint8 = 0x02
)

// NCAUnspecReject is the fault status this server returns for any
// unsupported or malformed operation.
const NCAUnspecReject uint32 = 0x1C010002

// HeaderSize is the size of the common 16-byte DCE/RPC PDU header.
const HeaderSize = 16

// Header is the common DCE/RPC PDU header carried by every PDU type.
type Header struct {
	VersionMajor uint8
	VersionMinor uint8
	PacketType   uint8
	Flags        uint8
	DataRep      [4]byte
	FragLength   uint16
	AuthLength   uint16
	CallID       uint32
}

func defaultDataRep() [4]byte { return [4]byte{0x10, 0x00, 0x00, 0x00} }

// ParseHeader decodes the common 16-byte header from the front of data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("rpc: data too short for common header: %d bytes", len(data))
	}
	h := &Header{
		VersionMajor: data[0],
		VersionMinor: data[1],
		PacketType:   data[2],
		Flags:        data[3],
		FragLength:   binary.LittleEndian.Uint16(data[8:10]),
		AuthLength:   binary.LittleEndian.Uint16(data[10:12]),
		CallID:       binary.LittleEndian.Uint32(data[12:16]),
	}
	copy(h.DataRep[:], data[4:8])
	return h, nil
}

// IsFragmented reports whether the PDU is missing either fragment-boundary
// flag, i.e. is one fragment among several. Fragment reassembly is not
// implemented; such PDUs are rejected at the SMB layer.
func (h *Header) IsFragmented() bool {
	return h.Flags&FlagFirstFrag == 0 || h.Flags&FlagLastFrag == 0
}

func (h *Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = h.VersionMajor
	buf[1] = h.VersionMinor
	buf[2] = h.PacketType
	buf[3] = h.Flags
	copy(buf[4:8], h.DataRep[:])
	binary.LittleEndian.PutUint16(buf[8:10], h.FragLength)
	binary.LittleEndian.PutUint16(buf[10:12], h.AuthLength)
	binary.LittleEndian.PutUint32(buf[12:16], h.CallID)
	return buf
}

// SyntaxID is a UUID plus a major.minor version, identifying either an
// abstract (interface) or transfer syntax.
type SyntaxID struct {
	UUID         [16]byte
	VersionMajor uint16
	VersionMinor uint16
}

// PresentationContext is one {abstract syntax, transfer syntaxes} entry in
// a Bind PDU.
type PresentationContext struct {
	ContextID      uint16
	AbstractSyntax SyntaxID
	TransferSyntax SyntaxID // only the first offered syntax is kept
}

// BindRequest is a parsed Bind PDU.
type BindRequest struct {
	Header       Header
	MaxXmitFrag  uint16
	MaxRecvFrag  uint16
	AssocGroupID uint32
	Contexts     []PresentationContext
}

// ParseBindRequest parses a Bind PDU, keeping only the first presentation
// context (the only one any client used against this server needs).
func ParseBindRequest(data []byte) (*BindRequest, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if hdr.PacketType != PDUBind {
		return nil, fmt.Errorf("rpc: not a bind PDU: type %d", hdr.PacketType)
	}
	if len(data) < HeaderSize+9 {
		return nil, fmt.Errorf("rpc: bind request too short")
	}

	req := &BindRequest{
		Header:       *hdr,
		MaxXmitFrag:  binary.LittleEndian.Uint16(data[16:18]),
		MaxRecvFrag:  binary.LittleEndian.Uint16(data[18:20]),
		AssocGroupID: binary.LittleEndian.Uint32(data[20:24]),
	}

	numContexts := data[24]
	if numContexts == 0 || len(data) < 28+24 {
		return req, nil
	}

	// context list starts at offset 28 (24 + 1 byte count + 3 reserved)
	const ctxStart = 28
	if len(data) < ctxStart+4+32 {
		return req, nil
	}
	ctx := PresentationContext{ContextID: binary.LittleEndian.Uint16(data[ctxStart : ctxStart+2])}
	numTransfer := data[ctxStart+2]
	copy(ctx.AbstractSyntax.UUID[:], data[ctxStart+4:ctxStart+20])
	abstractVersion := binary.LittleEndian.Uint32(data[ctxStart+20 : ctxStart+24])
	ctx.AbstractSyntax.VersionMajor = uint16(abstractVersion)
	ctx.AbstractSyntax.VersionMinor = uint16(abstractVersion >> 16)

	if numTransfer > 0 && len(data) >= ctxStart+24+20 {
		copy(ctx.TransferSyntax.UUID[:], data[ctxStart+24:ctxStart+40])
		transferVersion := binary.LittleEndian.Uint32(data[ctxStart+40 : ctxStart+44])
		ctx.TransferSyntax.VersionMajor = uint16(transferVersion)
	}

	req.Contexts = append(req.Contexts, ctx)
	return req, nil
}

// BuildBindAck encodes a bind_ack PDU: secondary address plus the
// transfer syntax passed in. PipeManager.Transact always passes
// NDRTransferSyntaxUUID, whatever syntax the client offered first.
func BuildBindAck(callID uint32, secAddr string, transferSyntax SyntaxID) []byte {
	secAddrLen := len(secAddr) + 1
	offsetAfterSecAddr := 16 + 8 + 2 + secAddrLen
	pad := (4 - offsetAfterSecAddr%4) % 4

	bodyLen := 8 + 2 + secAddrLen + pad + 4 + 24
	fragLen := HeaderSize + bodyLen

	hdr := Header{
		VersionMajor: 5, PacketType: PDUBindAck,
		Flags:      FlagFirstFrag | FlagLastFrag,
		DataRep:    defaultDataRep(),
		FragLength: uint16(fragLen),
		CallID:     callID,
	}

	buf := make([]byte, fragLen)
	copy(buf[0:16], hdr.encode())
	off := 16
	binary.LittleEndian.PutUint16(buf[off:], 4280) // max xmit frag
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], 4280) // max recv frag
	off += 2
	binary.LittleEndian.PutUint32(buf[off:], 0) // assoc group id
	off += 4
	binary.LittleEndian.PutUint16(buf[off:], uint16(secAddrLen))
	off += 2
	copy(buf[off:], secAddr)
	off += secAddrLen + pad

	buf[off] = 1 // num results
	off += 4

	binary.LittleEndian.PutUint16(buf[off:], 0) // p_result.result = 0 (acceptance)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], 0) // reason
	off += 2
	copy(buf[off:], transferSyntax.UUID[:])
	off += 16
	version := uint32(transferSyntax.VersionMajor) | uint32(transferSyntax.VersionMinor)<<16
	binary.LittleEndian.PutUint32(buf[off:], version)

	return buf
}

// BuildBindNak encodes a bind_nak PDU with the given rejection reason.
func BuildBindNak(callID uint32, reason uint16) []byte {
	fragLen := HeaderSize + 2
	hdr := Header{
		VersionMajor: 5, PacketType: PDUBindNak,
		Flags:      FlagFirstFrag | FlagLastFrag,
		DataRep:    defaultDataRep(),
		FragLength: uint16(fragLen),
		CallID:     callID,
	}
	buf := make([]byte, fragLen)
	copy(buf[0:16], hdr.encode())
	binary.LittleEndian.PutUint16(buf[16:18], reason)
	return buf
}

// Request is a parsed Request PDU.
type Request struct {
	Header    Header
	AllocHint uint32
	ContextID uint16
	Opnum     uint16
	StubData  []byte
}

// ParseRequest parses a Request PDU.
func ParseRequest(data []byte) (*Request, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if hdr.PacketType != PDURequest {
		return nil, fmt.Errorf("rpc: not a request PDU: type %d", hdr.PacketType)
	}
	if len(data) < HeaderSize+8 {
		return nil, fmt.Errorf("rpc: request PDU too short")
	}

	req := &Request{
		Header:    *hdr,
		AllocHint: binary.LittleEndian.Uint32(data[16:20]),
		ContextID: binary.LittleEndian.Uint16(data[20:22]),
		Opnum:     binary.LittleEndian.Uint16(data[22:24]),
	}
	stubEnd := int(hdr.FragLength) - int(hdr.AuthLength)
	if stubEnd > 24 && stubEnd <= len(data) {
		req.StubData = data[24:stubEnd]
	}
	return req, nil
}

// BuildResponse encodes a Response PDU carrying stubData.
func BuildResponse(callID uint32, contextID uint16, stubData []byte) []byte {
	fragLen := HeaderSize + 8 + len(stubData)
	hdr := Header{
		VersionMajor: 5, PacketType: PDUResponse,
		Flags:      FlagFirstFrag | FlagLastFrag,
		DataRep:    defaultDataRep(),
		FragLength: uint16(fragLen),
		CallID:     callID,
	}
	buf := make([]byte, fragLen)
	copy(buf[0:16], hdr.encode())
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(stubData)))
	binary.LittleEndian.PutUint16(buf[20:22], contextID)
	copy(buf[24:], stubData)
	return buf
}

// BuildFault encodes a Fault PDU carrying the given NCA status.
func BuildFault(callID uint32, status uint32) []byte {
	fragLen := HeaderSize + 16
	hdr := Header{
		VersionMajor: 5, PacketType: PDUFault,
		Flags:      FlagFirstFrag | FlagLastFrag,
		DataRep:    defaultDataRep(),
		FragLength: uint16(fragLen),
		CallID:     callID,
	}
	buf := make([]byte, fragLen)
	copy(buf[0:16], hdr.encode())
	binary.LittleEndian.PutUint32(buf[24:28], status)
	return buf
}
