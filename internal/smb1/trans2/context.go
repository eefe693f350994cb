// Package trans2 implements the TRANSACTION2, NT_TRANSACT, and legacy
// TRANSACTION subcommand dispatchers: outer parameter/data block parsing,
// secondary-message reassembly, and the individual subcommand handlers
// (find, query/set information, notify-change, and named-pipe transacts
// routed into the rpc package). There is no direct teacher analogue — SMB2
// carries no equivalent multiplexed-transaction command — so this package
// is built fresh in the style of the dispatch package's handler-result
// pipeline, with its own Context/Result pair so dispatch can import trans2
// without creating an import cycle.
package trans2

import (
	"context"

	"github.com/oxbowlabs/smb1d/internal/smb1/notify"
	"github.com/oxbowlabs/smb1d/internal/smb1/registry"
	"github.com/oxbowlabs/smb1d/internal/smb1/rpc"
	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// Context carries everything one TRANSACTION2/NT_TRANSACT/TRANSACTION
// invocation needs. It mirrors dispatch.HandlerContext/ConnState field for
// field but is defined independently so this package has no dependency on
// the dispatch package.
type Context struct {
	Ctx          context.Context
	Header       *wire.Header
	Body         wire.Body
	Raw          []byte
	ConnectionID uint64
	Sessions     *registry.SessionRegistry
	Trees        *registry.TreeRegistry
	Provider     spi.Provider
	Notify       *notify.Engine
	Pipes        *rpc.PipeManager
	Reassembler  *Reassembler
	Session      *registry.Session
	Tree         *registry.Tree

	// SendFrame emits a full SMB1 response out of band, used by the
	// notify-change subcommand's delayed delivery.
	SendFrame func(header *wire.Header, body wire.Body) error
}

// Result is what a subcommand handler returns: the response body plus the
// status to place in the SMB header. A nil *Result, like
// dispatch.HandlerResult's convention, means no response frame should be
// sent now: used by notify-change registration (the engine sends one
// later out of band) and by secondary messages still awaiting more
// reassembly chunks.
type Result struct {
	Body   wire.Body
	Status types.Status
}

func errorResult(status types.Status) *Result {
	return &Result{Status: status}
}

func successResult(params, data []byte) *Result {
	return &Result{Body: wire.Body{Params: params, Data: data}, Status: types.StatusSuccess}
}
