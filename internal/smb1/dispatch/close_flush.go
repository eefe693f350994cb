package dispatch

import (
	"context"
	"encoding/binary"

	"github.com/oxbowlabs/smb1d/internal/logger"
	"github.com/oxbowlabs/smb1d/internal/smb1/registry"
	"github.com/oxbowlabs/smb1d/internal/smb1/rpc"
	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// pipeKey composites a tree/FID pair into the PipeManager's lookup key.
func pipeKey(tid, fid uint16) uint64 {
	return uint64(tid)<<16 | uint64(fid)
}

// handleClose closes the file and, if deleteOnClose was set, deletes its
// path through the SPI, per spec §4.5. Change-listeners on the parent
// directory see that deletion as a REMOVED event from the provider's
// watch source.
func handleClose(hc *HandlerContext) (*HandlerResult, error) {
	params := hc.Body.Params
	if len(params) < 2 {
		return errorResult(types.StatusInvalidSMB), nil
	}
	fid := binary.LittleEndian.Uint16(params[0:2])

	file, ok := hc.Tree.LookupFile(fid)
	if !ok {
		return errorResult(types.StatusSMBBadFID), nil
	}

	if _, ok := file.Provider.(*rpc.PipeState); ok {
		hc.Conn.Pipes.ClosePipe(pipeKey(hc.Tree.TID, fid))
	} else if c, ok := file.Provider.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return errorResult(types.FromSystemError(err)), nil
		}
	}
	hc.Tree.CloseFile(fid)

	if file.DeleteOnClose {
		logger.DebugCtx(hc.Ctx, "deleting file on close", "fid", fid)
		del := hc.Conn.Provider.Delete
		if file.Attributes.Has(types.AttrDirectory) {
			del = hc.Conn.Provider.DeleteDirectory
		}
		if err := del(hc.Ctx, hc.Tree.Share, file.Path); err != nil {
			return errorResult(types.FromSystemError(err)), nil
		}
	}

	return &HandlerResult{Body: wire.Body{}, Status: types.StatusSuccess}, nil
}

// handleFlush flushes one file, or every file in the tree when FID is
// 0xFFFF, per spec §3/§4.5.
func handleFlush(hc *HandlerContext) (*HandlerResult, error) {
	params := hc.Body.Params
	if len(params) < 2 {
		return errorResult(types.StatusInvalidSMB), nil
	}
	fid := binary.LittleEndian.Uint16(params[0:2])

	if fid == registry.AllFilesFID {
		for _, f := range hc.Tree.AllFiles() {
			flushOne(hc.Ctx, f)
		}
		return &HandlerResult{Body: wire.Body{}, Status: types.StatusSuccess}, nil
	}

	file, ok := hc.Tree.LookupFile(fid)
	if !ok {
		return errorResult(types.StatusSMBBadFID), nil
	}
	flushOne(hc.Ctx, file)
	return &HandlerResult{Body: wire.Body{}, Status: types.StatusSuccess}, nil
}

func flushOne(ctx context.Context, f *registry.File) {
	if flusher, ok := f.Provider.(spi.File); ok {
		_ = flusher.Flush(ctx)
	}
}
