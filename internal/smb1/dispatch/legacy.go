package dispatch

import (
	"encoding/binary"

	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// readInfoPath reads the single buffer-format-prefixed path string legacy
// commands (DELETE, DELETE_DIRECTORY, CHECK_DIRECTORY, QUERY/SET_INFORMATION)
// carry in their data block: a one-byte buffer format (0x04) followed by
// the string itself.
func readInfoPath(data []byte, unicode bool) string {
	if len(data) < 1 {
		return ""
	}
	if unicode {
		s, _ := wire.ReadUTF16String(data, 1)
		return s
	}
	s, _ := wire.ReadASCIIString(data, 1)
	return s
}

// handleDelete implements DELETE: remove the file named in the data block.
func handleDelete(hc *HandlerContext) (*HandlerResult, error) {
	name := readInfoPath(hc.Body.Data, hc.Header.Flags2.Unicode)
	if err := hc.Conn.Provider.Delete(hc.Ctx, hc.Tree.Share, name); err != nil {
		return errorResult(types.FromSystemError(err)), nil
	}
	return &HandlerResult{Status: types.StatusSuccess}, nil
}

// handleDeleteDirectory implements DELETE_DIRECTORY.
func handleDeleteDirectory(hc *HandlerContext) (*HandlerResult, error) {
	name := readInfoPath(hc.Body.Data, hc.Header.Flags2.Unicode)
	if err := hc.Conn.Provider.DeleteDirectory(hc.Ctx, hc.Tree.Share, name); err != nil {
		return errorResult(types.FromSystemError(err)), nil
	}
	return &HandlerResult{Status: types.StatusSuccess}, nil
}

// handleRename implements both RENAME and NT_RENAME: two buffer-format-
// prefixed path strings back to back in the data block.
func handleRename(hc *HandlerContext) (*HandlerResult, error) {
	data := hc.Body.Data
	if len(data) < 1 {
		return errorResult(types.StatusInvalidSMB), nil
	}
	unicode := hc.Header.Flags2.Unicode
	oldName, next := readPathAt(data, 0, unicode)
	newName, _ := readPathAt(data, next, unicode)
	if err := hc.Conn.Provider.Rename(hc.Ctx, hc.Tree.Share, oldName, newName); err != nil {
		return errorResult(types.FromSystemError(err)), nil
	}
	return &HandlerResult{Status: types.StatusSuccess}, nil
}

// readPathAt reads one buffer-format-prefixed path string (the leading
// format byte at off, the string starting at off+1) and reports the
// absolute offset of the format byte for the next field.
func readPathAt(data []byte, off int, unicode bool) (string, int) {
	if unicode {
		s, n := wire.ReadUTF16String(data, off+1)
		return s, off + 1 + n + 2
	}
	s, n := wire.ReadASCIIString(data, off+1)
	return s, off + 1 + n + 1
}

// handleCheckDirectory verifies the named path exists and is a directory.
func handleCheckDirectory(hc *HandlerContext) (*HandlerResult, error) {
	name := readInfoPath(hc.Body.Data, hc.Header.Flags2.Unicode)
	info, err := hc.Conn.Provider.Stat(hc.Ctx, hc.Tree.Share, name)
	if err != nil {
		return errorResult(types.FromSystemError(err)), nil
	}
	if !info.IsDir {
		return errorResult(types.StatusNotADirectory), nil
	}
	return &HandlerResult{Status: types.StatusSuccess}, nil
}

// handleLockingAndx is a no-op success: byte-range locks are neither
// recorded nor enforced, so every lock/unlock request succeeds, including
// two clients locking the same range.
func handleLockingAndx(hc *HandlerContext) (*HandlerResult, error) {
	return &HandlerResult{Status: types.StatusSuccess}, nil
}

// handleQueryInformation implements the legacy SMB_COM_QUERY_INFORMATION:
// attributes, last-write time, and size for the named path.
func handleQueryInformation(hc *HandlerContext) (*HandlerResult, error) {
	name := readInfoPath(hc.Body.Data, hc.Header.Flags2.Unicode)
	info, err := hc.Conn.Provider.Stat(hc.Ctx, hc.Tree.Share, name)
	if err != nil {
		return errorResult(types.FromSystemError(err)), nil
	}

	attrs := types.FileAttributes(0)
	if info.IsDir {
		attrs |= types.AttrDirectory
	}
	if info.ReadOnly {
		attrs |= types.AttrReadOnly
	}
	if info.Hidden {
		attrs |= types.AttrHidden
	}

	respParams := make([]byte, 20)
	binary.LittleEndian.PutUint16(respParams[0:2], uint16(attrs))
	binary.LittleEndian.PutUint32(respParams[2:6], uint32(types.TimeToFiletime(info.WrittenAt)>>32))
	binary.LittleEndian.PutUint32(respParams[6:10], uint32(info.Size))

	return &HandlerResult{Body: wire.Body{Params: respParams}, Status: types.StatusSuccess}, nil
}

// handleSetInformation accepts the legacy SET_INFORMATION request but
// cannot act on it, matching the TRANSACTION2 SET_*_INFORMATION handlers:
// the SPI has no path-level attribute/time setter.
func handleSetInformation(hc *HandlerContext) (*HandlerResult, error) {
	return &HandlerResult{Status: types.StatusSuccess}, nil
}

// handleFindClose2 discards a TRANS2_FIND_FIRST2 search's server-side
// state.
func handleFindClose2(hc *HandlerContext) (*HandlerResult, error) {
	params := hc.Body.Params
	if len(params) < 2 {
		return errorResult(types.StatusInvalidSMB), nil
	}
	sid := binary.LittleEndian.Uint16(params[0:2])
	hc.Session.CloseSearch(sid)
	return &HandlerResult{Status: types.StatusSuccess}, nil
}
