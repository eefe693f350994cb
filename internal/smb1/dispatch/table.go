package dispatch

import (
	"github.com/oxbowlabs/smb1d/internal/logger"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
)

// CommandHandler processes one decoded command body and returns its
// result, or a nil result meaning "response already sent / none needed",
// per spec §4.5 (used by ECHO and NT_CANCEL).
type CommandHandler func(hc *HandlerContext) (*HandlerResult, error)

// CommandEntry is one command's dispatch metadata, mirroring dittofs's
// Command{Name, Handler, NeedsSession, NeedsTree} shape.
type CommandEntry struct {
	Name         string
	Handler      CommandHandler
	NeedsSession bool
	NeedsTree    bool
}

// DispatchTable maps SMB1 command ids to their handler metadata.
var DispatchTable = map[types.Command]*CommandEntry{
	types.CmdNegotiate: {Name: "NEGOTIATE", Handler: handleNegotiate},
	types.CmdSessionSetupAndx: {Name: "SESSION_SETUP_ANDX", Handler: handleSessionSetup},
	types.CmdLogoffAndx: {Name: "LOGOFF_ANDX", Handler: handleLogoff, NeedsSession: true},
	types.CmdTreeConnectAndx: {Name: "TREE_CONNECT_ANDX", Handler: handleTreeConnect, NeedsSession: true},
	types.CmdTreeDisconnect: {Name: "TREE_DISCONNECT", Handler: handleTreeDisconnect, NeedsSession: true, NeedsTree: true},
	types.CmdNTCreateAndx: {Name: "NT_CREATE_ANDX", Handler: handleNTCreate, NeedsSession: true, NeedsTree: true},
	types.CmdOpenAndx: {Name: "OPEN_ANDX", Handler: handleOpenAndx, NeedsSession: true, NeedsTree: true},
	types.CmdReadAndx: {Name: "READ_ANDX", Handler: handleReadAndx, NeedsSession: true, NeedsTree: true},
	types.CmdWriteAndx: {Name: "WRITE_ANDX", Handler: handleWriteAndx, NeedsSession: true, NeedsTree: true},
	types.CmdClose: {Name: "CLOSE", Handler: handleClose, NeedsSession: true, NeedsTree: true},
	types.CmdFlush: {Name: "FLUSH", Handler: handleFlush, NeedsSession: true, NeedsTree: true},
	types.CmdEcho: {Name: "ECHO", Handler: handleEcho},
	types.CmdNTCancel: {Name: "NT_CANCEL", Handler: handleNTCancel, NeedsSession: true},
	types.CmdDelete: {Name: "DELETE", Handler: handleDelete, NeedsSession: true, NeedsTree: true},
	types.CmdDeleteDirectory: {Name: "DELETE_DIRECTORY", Handler: handleDeleteDirectory, NeedsSession: true, NeedsTree: true},
	types.CmdRename: {Name: "RENAME", Handler: handleRename, NeedsSession: true, NeedsTree: true},
	types.CmdNTRename: {Name: "NT_RENAME", Handler: handleRename, NeedsSession: true, NeedsTree: true},
	types.CmdCheckDirectory: {Name: "CHECK_DIRECTORY", Handler: handleCheckDirectory, NeedsSession: true, NeedsTree: true},
	types.CmdLockingAndx: {Name: "LOCKING_ANDX", Handler: handleLockingAndx, NeedsSession: true, NeedsTree: true},
	types.CmdQueryInformation: {Name: "QUERY_INFORMATION", Handler: handleQueryInformation, NeedsSession: true, NeedsTree: true},
	types.CmdSetInformation: {Name: "SET_INFORMATION", Handler: handleSetInformation, NeedsSession: true, NeedsTree: true},
	types.CmdFindClose2: {Name: "FIND_CLOSE2", Handler: handleFindClose2, NeedsSession: true, NeedsTree: true},
	types.CmdTransaction2: {Name: "TRANSACTION2", Handler: handleTransaction2, NeedsSession: true, NeedsTree: true},
	types.CmdTransaction2Second: {Name: "TRANSACTION2_SECONDARY", Handler: handleTransaction2Secondary, NeedsSession: true, NeedsTree: true},
	types.CmdTransaction: {Name: "TRANSACTION", Handler: handleTransaction, NeedsSession: true, NeedsTree: true},
	types.CmdTransactionSecond: {Name: "TRANSACTION_SECONDARY", Handler: handleTransactionSecondary, NeedsSession: true, NeedsTree: true},
	types.CmdNTTransact: {Name: "NT_TRANSACT", Handler: handleNTTransact, NeedsSession: true, NeedsTree: true},
	types.CmdNTTransactSecondary: {Name: "NT_TRANSACT_SECONDARY", Handler: handleNTTransactSecondary, NeedsSession: true, NeedsTree: true},
}

// Dispatch resolves and invokes the handler for hc.Header.Command,
// enforcing the NeedsSession/NeedsTree preconditions before the handler
// runs, per spec §4.5.
func Dispatch(hc *HandlerContext) (*HandlerResult, error) {
	entry, ok := DispatchTable[hc.Header.Command]
	if !ok {
		logger.DebugCtx(hc.Ctx, "dispatch: unknown command", "command", hc.Header.Command)
		return errorResult(types.StatusSMBBadCommand), nil
	}
	if entry.Handler == nil {
		return errorResult(types.StatusNotImplemented), nil
	}

	if entry.NeedsSession {
		sess, ok := hc.Conn.Sessions.Lookup(hc.Header.UID)
		if !ok {
			return errorResult(types.StatusSMBBadUID), nil
		}
		hc.Session = sess
	}
	if entry.NeedsTree {
		tree, ok := hc.Conn.Trees.Lookup(hc.Header.TID)
		if !ok {
			return errorResult(types.StatusSMBBadTID), nil
		}
		hc.Tree = tree
	}

	return entry.Handler(hc)
}
