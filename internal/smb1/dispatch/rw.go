package dispatch

import (
	"encoding/binary"

	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// handleReadAndx is a thin pass-through to the SPI file's read, per
// spec §4.5.
func handleReadAndx(hc *HandlerContext) (*HandlerResult, error) {
	params := hc.CommandParams()
	if len(params) < 16 {
		return errorResult(types.StatusInvalidSMB), nil
	}
	fid := binary.LittleEndian.Uint16(params[0:2])
	offset := int64(binary.LittleEndian.Uint32(params[2:6]))
	maxCount := int(binary.LittleEndian.Uint16(params[6:8]))

	file, ok := hc.Tree.LookupFile(fid)
	if !ok {
		return errorResult(types.StatusSMBBadFID), nil
	}
	providerFile, ok := file.Provider.(spi.File)
	if !ok {
		return errorResult(types.StatusNotImplemented), nil
	}

	buf := make([]byte, maxCount)
	n, err := providerFile.ReadAt(buf, offset)
	if err != nil && n == 0 {
		return errorResult(types.FromSystemError(err)), nil
	}
	buf = buf[:n]

	respParams := make([]byte, 24)
	binary.LittleEndian.PutUint16(respParams[4:6], uint16(n))
	binary.LittleEndian.PutUint16(respParams[10:12], uint16(n))

	return &HandlerResult{Body: wire.Body{Params: respParams, Data: buf}, Status: types.StatusSuccess}, nil
}

// handleWriteAndx is a thin pass-through to the SPI file's write, per
// spec §4.5.
func handleWriteAndx(hc *HandlerContext) (*HandlerResult, error) {
	params := hc.CommandParams()
	if len(params) < 24 {
		return errorResult(types.StatusInvalidSMB), nil
	}
	fid := binary.LittleEndian.Uint16(params[0:2])
	offset := int64(binary.LittleEndian.Uint32(params[2:6]))
	dataLen := int(binary.LittleEndian.Uint16(params[20:22]))

	file, ok := hc.Tree.LookupFile(fid)
	if !ok {
		return errorResult(types.StatusSMBBadFID), nil
	}
	providerFile, ok := file.Provider.(spi.File)
	if !ok {
		return errorResult(types.StatusNotImplemented), nil
	}

	if dataLen > len(hc.Body.Data) {
		dataLen = len(hc.Body.Data)
	}
	n, err := providerFile.WriteAt(hc.Body.Data[:dataLen], offset)
	if err != nil {
		return errorResult(types.FromSystemError(err)), nil
	}

	respParams := make([]byte, 12)
	binary.LittleEndian.PutUint16(respParams[2:4], uint16(n))

	return &HandlerResult{Body: wire.Body{Params: respParams}, Status: types.StatusSuccess}, nil
}
