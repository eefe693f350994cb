package dispatch

import (
	"context"

	"github.com/oxbowlabs/smb1d/internal/logger"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// HandleMessage decodes one complete NetBIOS-framed SMB1 payload, walks
// its AndX chain strictly in order (spec §4.5), and returns the bytes of
// the response frame to write back — or nil if the message's handlers
// already emitted every response themselves (ECHO) or none is ever sent
// (NT_CANCEL).
//
// On the first non-success status the chain walk stops immediately and
// the dispatcher emits a single error response whose body is empty,
// carrying that status; on full success every command's result is
// re-encoded into one response chain with all statuses collapsed to
// STATUS_SUCCESS, per spec §4.5.
func HandleMessage(ctx context.Context, conn *ConnState, raw []byte) ([]byte, error) {
	header, err := wire.ParseHeader(raw)
	if err != nil {
		return nil, err
	}

	commands, err := wire.DecodeChain(raw, header)
	if err != nil {
		logger.DebugCtx(ctx, "dispatch: malformed andx chain", "error", err)
		return nil, err
	}

	respHeader := *header
	respCommands := make([]wire.CommandEntry, 0, len(commands))

	// The header's Command field always carries the chain's first (primary)
	// command id on the wire; entryHeader is a scratch copy used to give
	// each handler its own entry's command id (for AndX-linkage stripping
	// in CommandParams) without disturbing that invariant.
	for _, entry := range commands {
		entryHeader := respHeader
		entryHeader.Command = entry.Command
		hc := &HandlerContext{
			Ctx:    ctx,
			Header: &entryHeader,
			Body:   wire.Body{Params: entry.Params, Data: entry.Data},
			Raw:    raw,
			Conn:   conn,
		}

		result, err := Dispatch(hc)
		if err != nil {
			return nil, err
		}

		// SESSION_SETUP_ANDX/TREE_CONNECT_ANDX assign the newly issued
		// UID/TID onto the handler's header copy; carry those forward so
		// later commands in the same chain (and the final response
		// header) see them.
		respHeader.UID = entryHeader.UID
		respHeader.TID = entryHeader.TID

		if result == nil {
			// Null marker: the handler already emitted every response it
			// owes (ECHO) or none is ever sent (NT_CANCEL, an
			// asynchronously-delivered NOTIFY_CHANGE registration). Either
			// way the primary frame for this message is suppressed.
			return nil, nil
		}

		if result.Status != types.StatusSuccess {
			respHeader.Status = uint32(result.Status)
			normalizeResponseFlags(&respHeader)
			body := wire.EncodeBody(wire.Body{})
			return append(wire.EncodeHeader(&respHeader), body...), nil
		}

		respCommands = append(respCommands, wire.CommandEntry{
			Command: entry.Command,
			Params:  result.Body.Params,
			Data:    result.Body.Data,
		})
	}

	respHeader.Status = uint32(types.StatusSuccess)
	normalizeResponseFlags(&respHeader)

	out := wire.EncodeHeader(&respHeader)
	out = append(out, wire.EncodeChain(respCommands)...)
	return out, nil
}

// normalizeResponseFlags enforces the fixed set of response-side flag
// bits the dispatcher guarantees before sending, per spec §4.5.
func normalizeResponseFlags(h *wire.Header) {
	h.Flags.Reply = true
	h.Flags2.Status = types.StatusKindNT
	h.Flags2.Unicode = true
	h.Flags2.PathnamesLongSupported = true
}
