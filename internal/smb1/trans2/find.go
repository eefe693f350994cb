package trans2

import (
	"encoding/binary"
	"path"
	"strings"

	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// handleFindFirst2 opens a directory listing against the tree's share,
// matches it against the requested pattern, stores the matched entries in
// a new per-session Search, and serializes up to searchCount entries at
// the requested information level.
func handleFindFirst2(c *Context, subParams, subData []byte) *subResult {
	if len(subParams) < 12 {
		return subError(types.StatusInvalidSMB)
	}
	searchCount := int(binary.LittleEndian.Uint16(subParams[2:4]))
	flags := binary.LittleEndian.Uint16(subParams[4:6])
	level := types.InfoLevel(binary.LittleEndian.Uint16(subParams[6:8]))

	pattern, _ := wire.ReadASCIIString(subData, 0)
	if c.Header.Flags2.Unicode {
		pattern, _ = wire.ReadUTF16String(subData, 0)
	}

	dir, base := path.Split(strings.ReplaceAll(pattern, `\`, "/"))
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		dir = "."
	}

	listResult, err := c.Provider.OpenOrCreate(c.Ctx, c.Tree.Share, dir, 1 /* FILE_OPEN */, true)
	if err != nil {
		return subError(types.FromSystemError(err))
	}
	entries, err := listResult.File.ReadDir(c.Ctx)
	if err != nil {
		return subError(types.FromSystemError(err))
	}
	_ = listResult.File.Close()

	matched := make([]spi.FileInfo, 0, len(entries))
	for _, e := range entries {
		if matchesPattern(base, e.Name) {
			matched = append(matched, e)
		}
	}

	search := c.Session.CreateSearch(pattern, uint16(level), matched)

	n := searchCount
	if n > len(matched) {
		n = len(matched)
	}
	page := matched[:n]
	search.Cursor = n
	eos := n == len(matched)

	respData := encodeFindEntries(page, level, eos)
	respParams := make([]byte, 10)
	binary.LittleEndian.PutUint16(respParams[0:2], search.SID)
	binary.LittleEndian.PutUint16(respParams[2:4], uint16(n))
	if eos {
		binary.LittleEndian.PutUint16(respParams[4:6], 1) // EndOfSearch
	}
	_ = flags

	return subSuccess(respParams, respData)
}

// handleFindNext2 continues a previously created search from its stored
// cursor.
func handleFindNext2(c *Context, subParams, subData []byte) *subResult {
	if len(subParams) < 8 {
		return subError(types.StatusInvalidSMB)
	}
	sid := binary.LittleEndian.Uint16(subParams[0:2])
	searchCount := int(binary.LittleEndian.Uint16(subParams[2:4]))
	level := types.InfoLevel(binary.LittleEndian.Uint16(subParams[4:6]))

	search, ok := c.Session.LookupSearch(sid)
	if !ok {
		return subError(types.StatusInvalidHandle)
	}

	remaining := search.Entries[search.Cursor:]
	n := searchCount
	if n > len(remaining) {
		n = len(remaining)
	}
	page := remaining[:n]
	search.Cursor += n
	eos := search.Cursor >= len(search.Entries)

	respData := encodeFindEntries(page, level, eos)
	respParams := make([]byte, 8)
	binary.LittleEndian.PutUint16(respParams[0:2], uint16(n))
	if eos {
		binary.LittleEndian.PutUint16(respParams[2:4], 1) // EndOfSearch
	}

	return subSuccess(respParams, respData)
}

func matchesPattern(pattern, name string) bool {
	if pattern == "" || pattern == "*" || pattern == "*.*" {
		return true
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

// encodeFindEntries serializes entries per the requested information
// level, chaining NextEntryOffset between records (0 on the last).
func encodeFindEntries(entries []spi.FileInfo, level types.InfoLevel, _ bool) []byte {
	var out []byte
	for i, e := range entries {
		var record []byte
		switch level {
		case types.FindFileBothDirectoryInfo:
			record = encodeBothDirectoryInfo(e)
		case types.FindFileFullDirectoryInfo:
			record = encodeFullDirectoryInfo(e)
		case types.FindFileDirectoryInfo:
			record = encodeFileDirectoryInfo(e)
		case types.FindFileNamesInfo:
			record = encodeFileNamesInfo(e)
		default:
			record = encodeFindInfoStandard(e)
		}
		pad := wire.AlignPad(len(record), 4)
		record = append(record, make([]byte, pad)...)
		if i < len(entries)-1 {
			binary.LittleEndian.PutUint32(record[0:4], uint32(len(record)))
		}
		out = append(out, record...)
	}
	return out
}

func attrsOf(e spi.FileInfo) types.FileAttributes {
	attrs := types.FileAttributes(0)
	if e.IsDir {
		attrs |= types.AttrDirectory
	}
	if e.ReadOnly {
		attrs |= types.AttrReadOnly
	}
	if e.Hidden {
		attrs |= types.AttrHidden
	}
	if e.System {
		attrs |= types.AttrSystem
	}
	return attrs
}

// encodeFindInfoStandard lays out SMB_FIND_FILE_STANDARD-equivalent used
// for both legacy standard-info levels: resume key omitted (4 zero bytes),
// dates, size, allocation size, attributes, then the filename length byte
// and the name itself.
func encodeFindInfoStandard(e spi.FileInfo) []byte {
	name := wire.WriteASCIIString(e.Name)
	record := make([]byte, 27+len(name))
	binary.LittleEndian.PutUint32(record[4:8], uint32(types.TimeToFiletime(e.CreatedAt)>>32))
	binary.LittleEndian.PutUint32(record[8:12], uint32(types.TimeToFiletime(e.AccessedAt)>>32))
	binary.LittleEndian.PutUint32(record[12:16], uint32(types.TimeToFiletime(e.WrittenAt)>>32))
	binary.LittleEndian.PutUint32(record[16:20], uint32(e.Size))
	binary.LittleEndian.PutUint32(record[20:24], uint32(e.AllocatedSize))
	binary.LittleEndian.PutUint16(record[24:26], uint16(attrsOf(e)))
	record[26] = byte(len(name))
	copy(record[27:], name)
	return record
}

// encodeFileDirectoryInfo lays out FILE_DIRECTORY_INFORMATION:
// {NextEntryOffset, FileIndex, Created, Accessed, Written, Changed, Size,
// AllocSize, Attributes, FileNameLength, FileName(UTF-16LE)}.
func encodeFileDirectoryInfo(e spi.FileInfo) []byte {
	name := wire.WriteUTF16String(e.Name)
	name = name[:len(name)-2] // FILE_DIRECTORY_INFORMATION's name is not NUL-terminated
	record := make([]byte, 64+len(name))
	binary.LittleEndian.PutUint64(record[8:16], types.TimeToFiletime(e.CreatedAt))
	binary.LittleEndian.PutUint64(record[16:24], types.TimeToFiletime(e.AccessedAt))
	binary.LittleEndian.PutUint64(record[24:32], types.TimeToFiletime(e.WrittenAt))
	binary.LittleEndian.PutUint64(record[32:40], types.TimeToFiletime(e.ChangedAt))
	binary.LittleEndian.PutUint64(record[40:48], uint64(e.Size))
	binary.LittleEndian.PutUint64(record[48:56], uint64(e.AllocatedSize))
	binary.LittleEndian.PutUint32(record[56:60], uint32(attrsOf(e)))
	binary.LittleEndian.PutUint32(record[60:64], uint32(len(name)))
	copy(record[64:], name)
	return record
}

// encodeFullDirectoryInfo adds the EaSize field FILE_FULL_DIR_INFORMATION
// carries ahead of the filename, always 0 here (no EA support).
func encodeFullDirectoryInfo(e spi.FileInfo) []byte {
	name := wire.WriteUTF16String(e.Name)
	name = name[:len(name)-2]
	record := make([]byte, 68+len(name))
	binary.LittleEndian.PutUint64(record[8:16], types.TimeToFiletime(e.CreatedAt))
	binary.LittleEndian.PutUint64(record[16:24], types.TimeToFiletime(e.AccessedAt))
	binary.LittleEndian.PutUint64(record[24:32], types.TimeToFiletime(e.WrittenAt))
	binary.LittleEndian.PutUint64(record[32:40], types.TimeToFiletime(e.ChangedAt))
	binary.LittleEndian.PutUint64(record[40:48], uint64(e.Size))
	binary.LittleEndian.PutUint64(record[48:56], uint64(e.AllocatedSize))
	binary.LittleEndian.PutUint32(record[56:60], uint32(attrsOf(e)))
	binary.LittleEndian.PutUint32(record[60:64], uint32(len(name)))
	binary.LittleEndian.PutUint32(record[64:68], 0) // EaSize
	copy(record[68:], name)
	return record
}

// encodeBothDirectoryInfo adds the fixed 8.3 short-name field
// FILE_BOTH_DIR_INFORMATION carries, left empty (clients fall back to the
// long name).
func encodeBothDirectoryInfo(e spi.FileInfo) []byte {
	name := wire.WriteUTF16String(e.Name)
	name = name[:len(name)-2]
	record := make([]byte, 94+len(name))
	binary.LittleEndian.PutUint64(record[8:16], types.TimeToFiletime(e.CreatedAt))
	binary.LittleEndian.PutUint64(record[16:24], types.TimeToFiletime(e.AccessedAt))
	binary.LittleEndian.PutUint64(record[24:32], types.TimeToFiletime(e.WrittenAt))
	binary.LittleEndian.PutUint64(record[32:40], types.TimeToFiletime(e.ChangedAt))
	binary.LittleEndian.PutUint64(record[40:48], uint64(e.Size))
	binary.LittleEndian.PutUint64(record[48:56], uint64(e.AllocatedSize))
	binary.LittleEndian.PutUint32(record[56:60], uint32(attrsOf(e)))
	binary.LittleEndian.PutUint32(record[60:64], uint32(len(name)))
	// EaSize(4) at 64, ShortNameLength(1) at 68, reserved(1) at 69,
	// ShortName(24) at 70..94, then the long name.
	copy(record[94:], name)
	return record
}

// encodeFileNamesInfo lays out FILE_NAMES_INFORMATION:
// {NextEntryOffset, FileIndex, FileNameLength, FileName(UTF-16LE)}.
func encodeFileNamesInfo(e spi.FileInfo) []byte {
	name := wire.WriteUTF16String(e.Name)
	name = name[:len(name)-2]
	record := make([]byte, 12+len(name))
	binary.LittleEndian.PutUint32(record[8:12], uint32(len(name)))
	copy(record[12:], name)
	return record
}
