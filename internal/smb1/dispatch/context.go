// Package dispatch implements the SMB1 command dispatch table and the
// per-command handlers, following dittofs's DispatchTable + generic
// handleRequest pipeline, generalized from SMB2's fixed-header commands to
// SMB1's AndX-chained, WordCount/ByteCount-shaped commands.
package dispatch

import (
	"context"

	"github.com/oxbowlabs/smb1d/internal/smb1/notify"
	"github.com/oxbowlabs/smb1d/internal/smb1/registry"
	"github.com/oxbowlabs/smb1d/internal/smb1/rpc"
	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
	"github.com/oxbowlabs/smb1d/internal/smb1/trans2"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// ConnState is the per-connection state a HandlerContext is built from:
// the registries and provider are server-wide, but login/session lookups
// are scoped to the connection that authenticated them.
type ConnState struct {
	ConnectionID uint64
	Logins       *registry.LoginRegistry
	Sessions     *registry.SessionRegistry
	Trees        *registry.TreeRegistry
	Provider     spi.Provider
	Notify       *notify.Engine
	Pipes        *rpc.PipeManager
	Trans2       *trans2.Reassembler
	Challenge    []byte // this connection's NEGOTIATE challenge, nil until negotiated
	PendingLogin uint64 // login key from NEGOTIATE, consumed by SESSION_SETUP_ANDX

	// SendFrame emits a full SMB1 response out of band, used by ECHO
	// (multiple responses) and by notify's delayed NT_TRANSACT_NOTIFY_CHANGE
	// delivery. Injected by the connection adapter to avoid dispatch
	// importing it.
	SendFrame func(header *wire.Header, body wire.Body) error

	// OnSessionCreated/OnSessionDestroyed let the connection adapter track
	// which UIDs were authenticated on this socket, so it can cascade a
	// LOGOFF_ANDX-equivalent cleanup if the client disconnects without
	// logging off, per spec §5's "connection close destroys every
	// resource it owns" invariant. Both are optional; nil is a no-op.
	OnSessionCreated   func(uid uint16)
	OnSessionDestroyed func(uid uint16)
}

// HandlerContext carries everything one command invocation needs: the
// parsed header, the raw AndX body, and the connection/server state.
type HandlerContext struct {
	Ctx    context.Context
	Header *wire.Header
	Body   wire.Body
	// Raw is the whole NetBIOS-framed SMB message (header + every AndX
	// command in the chain), needed by TRANSACTION2/NT_TRANSACT handlers to
	// slice subParams/subData at the absolute offsets the outer block
	// names, per the message's own offset convention.
	Raw     []byte
	Conn    *ConnState
	Session *registry.Session // nil until resolved by UID, if NeedsSession
	Tree    *registry.Tree    // nil until resolved by TID, if NeedsTree
}

// HandlerResult is what a command handler returns: the response body plus
// the status to place in the SMB header.
type HandlerResult struct {
	Body   wire.Body
	Status types.Status
}

func errorResult(status types.Status) *HandlerResult {
	return &HandlerResult{Body: wire.Body{}, Status: status}
}

// CommandParams returns the command-specific parameter words, skipping
// the 4-byte {next_cmd, reserved, next_offset} AndX linkage the wire layer
// leaves at the front of Params for chaining commands. Handlers never
// need to see or reconstruct that linkage themselves.
func (hc *HandlerContext) CommandParams() []byte {
	if hc.Header.Command.IsAndX() && len(hc.Body.Params) >= 4 {
		return hc.Body.Params[4:]
	}
	return hc.Body.Params
}
