package registry

import "github.com/oxbowlabs/smb1d/internal/smb1/types"

// AllFilesFID is the reserved FID meaning "all files in this tree", used
// by FLUSH, per spec §3.
const AllFilesFID uint16 = 0xFFFF

// File is an SMB-level handle created by OPEN_ANDX, NT_CREATE_ANDX, or
// NT_TRANSACT_CREATE.
type File struct {
	FID           uint16
	TreeTID       uint16
	Path          string // share-relative path this FID was opened against
	Provider      any    // delegate SPI file handle (or *rpc.PipeState for IPC pipes)
	CreateAction  uint32
	Attributes    types.FileAttributes
	DeleteOnClose bool
}
