package trans2

import (
	"encoding/binary"

	"github.com/oxbowlabs/smb1d/internal/smb1/registry"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// handleNTTransactCreate mirrors NT_CREATE_ANDX's delegation to the SPI,
// generalized to the wider extended-attribute/security-descriptor request
// shape NT_TRANSACT_CREATE carries; this server has no EA/SD support, so
// only the path, disposition, and directory hint are honored.
func handleNTTransactCreate(c *Context, subParams, subData []byte) *subResult {
	if len(subParams) < 53 {
		return subError(types.StatusInvalidSMB)
	}
	nameLen := int(binary.LittleEndian.Uint32(subParams[8:12]))
	createOptions := binary.LittleEndian.Uint32(subParams[12:16])
	disposition := binary.LittleEndian.Uint32(subParams[44:48])
	_ = nameLen

	name, _ := wire.ReadUTF16String(subData, 0)
	if !c.Header.Flags2.Unicode {
		name, _ = wire.ReadASCIIString(subData, 0)
	}

	directoryHint := types.CreateOptions(createOptions).Has(types.OptionDirectoryFile)
	result, err := c.Provider.OpenOrCreate(c.Ctx, c.Tree.Share, name, disposition, directoryHint)
	if err != nil {
		return subError(types.FromSystemError(err))
	}

	attrs := types.FileAttributes(0)
	if result.Info.IsDir {
		attrs |= types.AttrDirectory
	}
	file := c.Tree.CreateFile(name, result.File, result.CreateAction, attrs)
	file.DeleteOnClose = types.CreateOptions(createOptions).Has(types.OptionDeleteOnClose)

	respParams := make([]byte, 69)
	binary.LittleEndian.PutUint16(respParams[1:3], file.FID)
	binary.LittleEndian.PutUint32(respParams[3:7], result.CreateAction)
	binary.LittleEndian.PutUint64(respParams[7:15], types.TimeToFiletime(result.Info.CreatedAt))
	binary.LittleEndian.PutUint64(respParams[15:23], types.TimeToFiletime(result.Info.AccessedAt))
	binary.LittleEndian.PutUint64(respParams[23:31], types.TimeToFiletime(result.Info.WrittenAt))
	binary.LittleEndian.PutUint64(respParams[31:39], types.TimeToFiletime(result.Info.ChangedAt))
	binary.LittleEndian.PutUint64(respParams[43:51], uint64(result.Info.AllocatedSize))
	binary.LittleEndian.PutUint64(respParams[51:59], uint64(result.Info.Size))
	if result.Info.IsDir {
		respParams[62] = 1
	}

	return subSuccess(respParams, nil)
}

// handleNTTransactIoctl is a stub: this server implements no FSCTL/IOCTL
// codes, so every request is rejected.
func handleNTTransactIoctl(_ *Context, _ []byte, _ []byte) *subResult {
	return subError(types.StatusNotImplemented)
}

// handleNTTransactNotifyChange parses the FID and completion-filter mask
// and registers a listener with the notify engine. Per the protocol's
// asynchronous-delivery contract, the immediate reply is the null marker
// (nil, nil); the engine invokes send later, out of band, reusing this
// request's MID/TID/UID/PID.
func handleNTTransactNotifyChange(c *Context, subParams, _ []byte) *subResult {
	if len(subParams) < 9 {
		return subError(types.StatusInvalidSMB)
	}
	completionFilter := binary.LittleEndian.Uint32(subParams[0:4])
	fid := binary.LittleEndian.Uint16(subParams[4:6])
	watchTree := subParams[6] != 0

	file, ok := c.Tree.LookupFile(fid)
	if !ok {
		return subError(types.StatusSMBBadFID)
	}

	mid := c.Header.MID
	tid := c.Header.TID
	uid := c.Header.UID
	pid := c.Header.PID

	send := func(chunks []byte) {
		if c.SendFrame == nil {
			return
		}
		header := *c.Header
		header.MID, header.TID, header.UID, header.PID = mid, tid, uid, pid
		header.Status = uint32(types.StatusSuccess)
		_ = c.SendFrame(&header, wire.Body{Data: chunks})
	}

	path := fidPath(file)
	err := c.Notify.Register(c.Ctx, c.Provider, c.ConnectionID, tid, mid, uid, pid, c.Tree.Share, path, watchTree, completionFilter, send)
	if err != nil {
		return subError(types.FromSystemError(err))
	}

	listener := &registry.ChangeListener{
		TID: tid, MID: mid, UID: uid, PID: pid,
		FileFID: fid, WatchTree: watchTree, CompletionFilter: completionFilter,
	}
	c.Tree.RegisterListener(listener)

	return &subResult{noResponse: true}
}

// handleNTTransactRename renames the open FID's underlying path to
// newName, sharing the RENAME command's SPI delegation.
func handleNTTransactRename(c *Context, subParams, subData []byte) *subResult {
	if len(subParams) < 4 {
		return subError(types.StatusInvalidSMB)
	}
	fid := binary.LittleEndian.Uint16(subParams[0:2])
	file, ok := c.Tree.LookupFile(fid)
	if !ok {
		return subError(types.StatusSMBBadFID)
	}
	newName, _ := wire.ReadUTF16String(subData, 0)
	if !c.Header.Flags2.Unicode {
		newName, _ = wire.ReadASCIIString(subData, 0)
	}

	oldName := fidPath(file)
	if err := c.Provider.Rename(c.Ctx, c.Tree.Share, oldName, newName); err != nil {
		return subError(types.FromSystemError(err))
	}
	return subSuccess(nil, nil)
}

// fidPath recovers the share-relative path an open FID refers to.
func fidPath(f *registry.File) string {
	return f.Path
}
