package dispatch

import (
	"encoding/binary"

	"github.com/oxbowlabs/smb1d/internal/smb1/rpc"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// handleNTCreate implements NT_CREATE_ANDX per spec §4.5: delegate to the
// SPI's openOrCreate, then report the new FID, createAction, timestamps,
// and sizes.
func handleNTCreate(hc *HandlerContext) (*HandlerResult, error) {
	params := hc.CommandParams()
	if len(params) < 46 {
		return errorResult(types.StatusInvalidSMB), nil
	}

	nameLen := int(binary.LittleEndian.Uint16(params[0:2]))
	createOptions := binary.LittleEndian.Uint32(params[10:14])
	desiredAccess := binary.LittleEndian.Uint32(params[14:18])
	extFileAttributes := binary.LittleEndian.Uint32(params[30:34])
	disposition := binary.LittleEndian.Uint32(params[38:42])

	name, _ := wire.ReadUTF16String(hc.Body.Data, 0)
	if nameLen == 0 {
		name, _ = wire.ReadASCIIString(hc.Body.Data, 0)
	}

	directoryHint := types.CreateOptions(createOptions).Has(types.OptionDirectoryFile)

	if hc.Tree.ServiceKind == types.ShareTypeIPC {
		return handleNTCreatePipe(hc, name)
	}

	result, err := hc.Conn.Provider.OpenOrCreate(hc.Ctx, hc.Tree.Share, name, disposition, directoryHint)
	if err != nil {
		return errorResult(types.FromSystemError(err)), nil
	}

	attrs := types.FileAttributes(0)
	if result.Info.IsDir {
		attrs |= types.AttrDirectory
	}
	if result.Info.ReadOnly {
		attrs |= types.AttrReadOnly
	}
	if result.Info.Hidden {
		attrs |= types.AttrHidden
	}

	file := hc.Tree.CreateFile(name, result.File, result.CreateAction, attrs)
	file.DeleteOnClose = types.CreateOptions(createOptions).Has(types.OptionDeleteOnClose)

	respParams := make([]byte, 70)
	respParams[0] = 0 // oplock level: none
	binary.LittleEndian.PutUint16(respParams[1:3], file.FID)
	binary.LittleEndian.PutUint32(respParams[3:7], result.CreateAction)
	binary.LittleEndian.PutUint64(respParams[7:15], types.TimeToFiletime(result.Info.CreatedAt))
	binary.LittleEndian.PutUint64(respParams[15:23], types.TimeToFiletime(result.Info.AccessedAt))
	binary.LittleEndian.PutUint64(respParams[23:31], types.TimeToFiletime(result.Info.WrittenAt))
	binary.LittleEndian.PutUint64(respParams[31:39], types.TimeToFiletime(result.Info.ChangedAt))
	binary.LittleEndian.PutUint32(respParams[39:43], uint32(extFileAttributes))
	binary.LittleEndian.PutUint64(respParams[43:51], uint64(result.Info.AllocatedSize))
	binary.LittleEndian.PutUint64(respParams[51:59], uint64(result.Info.Size))
	resourceType := uint16(0) // FileTypeDisk
	binary.LittleEndian.PutUint16(respParams[59:61], resourceType)
	binary.LittleEndian.PutUint16(respParams[61:63], 0) // NMPipe status
	if result.Info.IsDir {
		respParams[63] = 1
	}
	_ = desiredAccess

	return &HandlerResult{Body: wire.Body{Params: respParams}, Status: types.StatusSuccess}, nil
}

// handleOpenAndx implements the legacy OPEN_ANDX: an always-open-existing
// variant of NT_CREATE_ANDX with a narrower response, per spec §3.
func handleOpenAndx(hc *HandlerContext) (*HandlerResult, error) {
	params := hc.CommandParams()
	if len(params) < 2 {
		return errorResult(types.StatusInvalidSMB), nil
	}
	name, _ := wire.ReadASCIIString(hc.Body.Data, 0)

	if hc.Tree.ServiceKind == types.ShareTypeIPC {
		return handleOpenAndxPipe(hc, name)
	}

	const dispOpen = 1
	result, err := hc.Conn.Provider.OpenOrCreate(hc.Ctx, hc.Tree.Share, name, dispOpen, false)
	if err != nil {
		return errorResult(types.FromSystemError(err)), nil
	}

	file := hc.Tree.CreateFile(name, result.File, result.CreateAction, 0)

	respParams := make([]byte, 30)
	binary.LittleEndian.PutUint16(respParams[0:2], file.FID)
	binary.LittleEndian.PutUint32(respParams[4:8], uint32(types.TimeToFiletime(result.Info.WrittenAt)>>32))
	binary.LittleEndian.PutUint32(respParams[8:12], uint32(result.Info.Size))

	return &HandlerResult{Body: wire.Body{Params: respParams}, Status: types.StatusSuccess}, nil
}

// handleNTCreatePipe and handleOpenAndxPipe open a named-pipe FID against
// the connection's PipeManager instead of the storage Provider, used when
// the tree is the IPC$ share (\PIPE\srvsvc, \PIPE\lsarpc). The FID is
// reserved first so the pipe's lookup key — (TID<<16)|FID — is known before
// the PipeManager registers it.
func handleNTCreatePipe(hc *HandlerContext, name string) (*HandlerResult, error) {
	file := hc.Tree.CreateFile(name, nil, 1 /* FileOpened */, 0)
	pipe := hc.Conn.Pipes.OpenPipe(pipeKey(hc.Tree.TID, file.FID), rpc.PipeNameFromPath(name))
	file.Provider = pipe

	respParams := make([]byte, 70)
	binary.LittleEndian.PutUint16(respParams[1:3], file.FID)
	binary.LittleEndian.PutUint32(respParams[3:7], 1 /* FileOpened */)
	resourceType := uint16(2) // FileTypeMessageModePipe
	binary.LittleEndian.PutUint16(respParams[59:61], resourceType)

	return &HandlerResult{Body: wire.Body{Params: respParams}, Status: types.StatusSuccess}, nil
}

func handleOpenAndxPipe(hc *HandlerContext, name string) (*HandlerResult, error) {
	file := hc.Tree.CreateFile(name, nil, 1 /* FileOpened */, 0)
	pipe := hc.Conn.Pipes.OpenPipe(pipeKey(hc.Tree.TID, file.FID), rpc.PipeNameFromPath(name))
	file.Provider = pipe

	respParams := make([]byte, 30)
	binary.LittleEndian.PutUint16(respParams[0:2], file.FID)

	return &HandlerResult{Body: wire.Body{Params: respParams}, Status: types.StatusSuccess}, nil
}
