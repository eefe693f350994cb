package trans2

import (
	"encoding/binary"

	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// handleQueryFSInformation answers volume-level queries. The SPI names no
// free-space or volume-identity operation (storage back-ends are opaque
// here), so the fixed, always-online figures below stand in for it; every
// real client treats these as advisory.
func handleQueryFSInformation(c *Context, subParams, _ []byte) *subResult {
	if len(subParams) < 2 {
		return subError(types.StatusInvalidSMB)
	}
	level := types.InfoLevel(binary.LittleEndian.Uint16(subParams[0:2]))

	const bytesPerSector = 512
	const sectorsPerUnit = 64
	const totalUnits = 1 << 20
	const freeUnits = 1 << 18

	switch level {
	case types.InfoFSAllocation:
		data := make([]byte, 18)
		binary.LittleEndian.PutUint32(data[0:4], 0) // FSID
		binary.LittleEndian.PutUint32(data[4:8], sectorsPerUnit)
		binary.LittleEndian.PutUint32(data[8:12], totalUnits)
		binary.LittleEndian.PutUint32(data[12:16], freeUnits)
		binary.LittleEndian.PutUint16(data[16:18], bytesPerSector)
		return subSuccess(nil, data)

	case types.InfoFSVolume:
		name := wire.WriteASCIIString(c.Tree.Share)
		data := make([]byte, 5+len(name))
		data[4] = byte(len(name) - 1)
		copy(data[5:], name)
		return subSuccess(nil, data)

	case types.InfoFSVolumeInfo:
		name := wire.WriteUTF16String(c.Tree.Share)
		name = name[:len(name)-2]
		data := make([]byte, 18+len(name))
		binary.LittleEndian.PutUint32(data[12:16], uint32(len(name)))
		copy(data[18:], name)
		return subSuccess(nil, data)

	case types.InfoFSSizeInfo:
		data := make([]byte, 24)
		binary.LittleEndian.PutUint64(data[0:8], uint64(totalUnits))
		binary.LittleEndian.PutUint64(data[8:16], uint64(freeUnits))
		binary.LittleEndian.PutUint32(data[16:20], sectorsPerUnit)
		binary.LittleEndian.PutUint32(data[20:24], bytesPerSector)
		return subSuccess(nil, data)

	case types.InfoFSDeviceInfo:
		data := make([]byte, 8)
		binary.LittleEndian.PutUint32(data[0:4], 0x00000007) // FILE_DEVICE_DISK
		binary.LittleEndian.PutUint32(data[4:8], 0)
		return subSuccess(nil, data)

	case types.InfoFSAttributeInfo:
		name := wire.WriteUTF16String("NTFS")
		name = name[:len(name)-2]
		data := make([]byte, 12+len(name))
		binary.LittleEndian.PutUint32(data[0:4], 0x0000006F) // case-sensitive+unicode+persistent ACLs
		binary.LittleEndian.PutUint32(data[4:8], 255)        // max component length
		binary.LittleEndian.PutUint32(data[8:12], uint32(len(name)))
		copy(data[12:], name)
		return subSuccess(nil, data)

	default:
		return subError(types.StatusOS2InvalidLevel)
	}
}

// handleQueryPathInformation stats the share-relative path and serializes
// its metadata per the requested level.
func handleQueryPathInformation(c *Context, subParams, subData []byte) *subResult {
	if len(subParams) < 6 {
		return subError(types.StatusInvalidSMB)
	}
	level := types.InfoLevel(binary.LittleEndian.Uint16(subParams[0:2]))
	if level.RequiresLongNames() && !c.Header.Flags2.PathnamesLongSupported {
		return subError(types.StatusInvalidParameter)
	}

	path := readPathString(subData, 0, c.Header.Flags2.Unicode)
	info, err := c.Provider.Stat(c.Ctx, c.Tree.Share, path)
	if err != nil {
		return subError(types.FromSystemError(err))
	}
	return encodeQueryInfoLevel(level, info)
}

// handleQueryFileInformation stats an already-open FID and serializes its
// metadata per the requested level.
func handleQueryFileInformation(c *Context, subParams, _ []byte) *subResult {
	if len(subParams) < 4 {
		return subError(types.StatusInvalidSMB)
	}
	fid := binary.LittleEndian.Uint16(subParams[0:2])
	level := types.InfoLevel(binary.LittleEndian.Uint16(subParams[2:4]))
	if level.RequiresLongNames() && !c.Header.Flags2.PathnamesLongSupported {
		return subError(types.StatusInvalidParameter)
	}

	file, ok := c.Tree.LookupFile(fid)
	if !ok {
		return subError(types.StatusSMBBadFID)
	}
	pf, ok := file.Provider.(spi.File)
	if !ok {
		return subError(types.StatusSMBNoSupport)
	}
	info, err := pf.Stat(c.Ctx)
	if err != nil {
		return subError(types.FromSystemError(err))
	}
	return encodeQueryInfoLevel(level, info)
}

func encodeQueryInfoLevel(level types.InfoLevel, info spi.FileInfo) *subResult {
	attrs := uint32(attrsOf(info))
	switch level {
	case types.InfoStandard:
		data := make([]byte, 22)
		binary.LittleEndian.PutUint32(data[0:4], uint32(types.TimeToFiletime(info.CreatedAt)>>32))
		binary.LittleEndian.PutUint32(data[4:8], uint32(types.TimeToFiletime(info.AccessedAt)>>32))
		binary.LittleEndian.PutUint32(data[8:12], uint32(types.TimeToFiletime(info.WrittenAt)>>32))
		binary.LittleEndian.PutUint32(data[12:16], uint32(info.Size))
		binary.LittleEndian.PutUint32(data[16:20], uint32(info.AllocatedSize))
		binary.LittleEndian.PutUint16(data[20:22], uint16(attrs))
		return subSuccess(nil, data)

	case types.InfoBasic:
		data := make([]byte, 40)
		binary.LittleEndian.PutUint64(data[0:8], types.TimeToFiletime(info.CreatedAt))
		binary.LittleEndian.PutUint64(data[8:16], types.TimeToFiletime(info.AccessedAt))
		binary.LittleEndian.PutUint64(data[16:24], types.TimeToFiletime(info.WrittenAt))
		binary.LittleEndian.PutUint64(data[24:32], types.TimeToFiletime(info.ChangedAt))
		binary.LittleEndian.PutUint32(data[32:36], attrs)
		return subSuccess(nil, data)

	case types.InfoStandardFile:
		data := make([]byte, 24)
		binary.LittleEndian.PutUint64(data[0:8], uint64(info.AllocatedSize))
		binary.LittleEndian.PutUint64(data[8:16], uint64(info.Size))
		if info.IsDir {
			data[20] = 1
		}
		return subSuccess(nil, data)

	case types.InfoEA:
		data := make([]byte, 4)
		return subSuccess(nil, data)

	case types.InfoName:
		name := wire.WriteUTF16String(info.Name)
		name = name[:len(name)-2]
		data := make([]byte, 4+len(name))
		binary.LittleEndian.PutUint32(data[0:4], uint32(len(name)))
		copy(data[4:], name)
		return subSuccess(nil, data)

	case types.InfoAll:
		basic := make([]byte, 40)
		binary.LittleEndian.PutUint64(basic[0:8], types.TimeToFiletime(info.CreatedAt))
		binary.LittleEndian.PutUint64(basic[8:16], types.TimeToFiletime(info.AccessedAt))
		binary.LittleEndian.PutUint64(basic[16:24], types.TimeToFiletime(info.WrittenAt))
		binary.LittleEndian.PutUint64(basic[24:32], types.TimeToFiletime(info.ChangedAt))
		binary.LittleEndian.PutUint32(basic[32:36], attrs)

		standard := make([]byte, 24)
		binary.LittleEndian.PutUint64(standard[0:8], uint64(info.AllocatedSize))
		binary.LittleEndian.PutUint64(standard[8:16], uint64(info.Size))
		if info.IsDir {
			standard[20] = 1
		}

		ea := make([]byte, 4)
		name := wire.WriteUTF16String(info.Name)
		name = name[:len(name)-2]
		nameBlock := make([]byte, 4+len(name))
		binary.LittleEndian.PutUint32(nameBlock[0:4], uint32(len(name)))
		copy(nameBlock[4:], name)

		data := append(append(append(basic, standard...), ea...), nameBlock...)
		return subSuccess(nil, data)

	default:
		return subError(types.StatusOS2InvalidLevel)
	}
}

// handleSetPathInformation and handleSetFileInformation accept the
// InfoBasic attribute/time-change request but cannot act on it: the SPI
// exposes no path- or handle-level attribute/time setter (only
// read/write/truncate/stat), so these report success without changing
// anything, matching how many minimal SMB1 servers treat attribute sets
// as advisory.
func handleSetPathInformation(c *Context, subParams, _ []byte) *subResult {
	if len(subParams) < 2 {
		return subError(types.StatusInvalidSMB)
	}
	level := types.InfoLevel(binary.LittleEndian.Uint16(subParams[0:2]))
	if level.RequiresLongNames() && !c.Header.Flags2.PathnamesLongSupported {
		return subError(types.StatusInvalidParameter)
	}
	return subSuccess(make([]byte, 2), nil)
}

func handleSetFileInformation(c *Context, subParams, _ []byte) *subResult {
	if len(subParams) < 4 {
		return subError(types.StatusInvalidSMB)
	}
	fid := binary.LittleEndian.Uint16(subParams[0:2])
	level := types.InfoLevel(binary.LittleEndian.Uint16(subParams[2:4]))
	if level.RequiresLongNames() && !c.Header.Flags2.PathnamesLongSupported {
		return subError(types.StatusInvalidParameter)
	}
	if _, ok := c.Tree.LookupFile(fid); !ok {
		return subError(types.StatusSMBBadFID)
	}
	return subSuccess(make([]byte, 2), nil)
}

// handleCreateDirectory creates a new directory at the share-relative
// path named in subData.
func handleCreateDirectory(c *Context, _ []byte, subData []byte) *subResult {
	path := readPathString(subData, 0, c.Header.Flags2.Unicode)
	result, err := c.Provider.OpenOrCreate(c.Ctx, c.Tree.Share, path, uint32(types.DispositionCreate), true)
	if err != nil {
		return subError(types.FromSystemError(err))
	}
	_ = result.File.Close()
	return subSuccess(make([]byte, 2), nil)
}

// handleGetDFSReferral reports DFS as unimplemented: this server never
// advertises itself as DFS-aware in NEGOTIATE, so a well-behaved client
// never sends this, but a misbehaving one gets a deterministic answer.
func handleGetDFSReferral(_ *Context, _ []byte, _ []byte) *subResult {
	return subError(types.StatusNotImplemented)
}

func readPathString(data []byte, off int, unicode bool) string {
	if unicode {
		s, _ := wire.ReadUTF16String(data, off)
		return s
	}
	s, _ := wire.ReadASCIIString(data, off)
	return s
}
