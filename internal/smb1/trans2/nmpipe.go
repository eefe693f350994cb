package trans2

import (
	"encoding/binary"

	"github.com/oxbowlabs/smb1d/internal/smb1/rpc"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
)

// routeTransaction dispatches one reassembled legacy SMB_COM_TRANSACTION
// request. This server names only the named-pipe transact subcommand;
// mailslot and other TRANSACTION subcommands are not implemented.
func routeTransaction(c *Context, subcommand uint16, setup, subParams, subData []byte) *subResult {
	switch types.TransactionSubcommand(subcommand) {
	case types.TransTransactNmpipe:
		return handleTransactNmpipe(c, setup, subData)
	default:
		return subError(types.StatusNotImplemented)
	}
}

// handleTransactNmpipe looks up the FID carried in the second setup word
// and feeds the request data through its bound DCE/RPC pipe state. A
// fragmented or malformed PDU is rejected with STATUS_INVALID_SMB, per the
// bind/request contract the rpc package enforces.
func handleTransactNmpipe(c *Context, setup, subData []byte) *subResult {
	if len(setup) < 4 {
		return subError(types.StatusInvalidSMB)
	}
	fid := binary.LittleEndian.Uint16(setup[2:4])

	file, ok := c.Tree.LookupFile(fid)
	if !ok {
		return subError(types.StatusSMBBadFID)
	}
	pipe, ok := file.Provider.(*rpc.PipeState)
	if !ok {
		return subError(types.StatusSMBNoSupport)
	}

	output, status := c.Pipes.Transact(pipe, subData)
	if !status.IsSuccess() {
		return subError(status)
	}
	return subSuccess(nil, output)
}
