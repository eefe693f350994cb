package trans2

import (
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

func bodyToResult(body wire.Body) *Result {
	return &Result{Body: body, Status: types.StatusSuccess}
}

// routeTrans2 dispatches one reassembled TRANSACTION2 request to its
// subcommand handler.
func routeTrans2(c *Context, subcommand uint16, subParams, subData []byte) *subResult {
	switch types.Trans2Subcommand(subcommand) {
	case types.Trans2FindFirst2:
		return handleFindFirst2(c, subParams, subData)
	case types.Trans2FindNext2:
		return handleFindNext2(c, subParams, subData)
	case types.Trans2QueryFSInformation:
		return handleQueryFSInformation(c, subParams, subData)
	case types.Trans2QueryPathInformation:
		return handleQueryPathInformation(c, subParams, subData)
	case types.Trans2SetPathInformation:
		return handleSetPathInformation(c, subParams, subData)
	case types.Trans2QueryFileInformation:
		return handleQueryFileInformation(c, subParams, subData)
	case types.Trans2SetFileInformation:
		return handleSetFileInformation(c, subParams, subData)
	case types.Trans2CreateDirectory:
		return handleCreateDirectory(c, subParams, subData)
	case types.Trans2GetDFSReferral:
		return handleGetDFSReferral(c, subParams, subData)
	default:
		return subError(types.StatusOS2InvalidLevel)
	}
}

// routeNTTransact dispatches one reassembled NT_TRANSACT request.
func routeNTTransact(c *Context, subcommand uint16, subParams, subData []byte) *subResult {
	switch types.NTTransactSubcommand(subcommand) {
	case types.NTTransactCreate:
		return handleNTTransactCreate(c, subParams, subData)
	case types.NTTransactIoctl:
		return handleNTTransactIoctl(c, subParams, subData)
	case types.NTTransactNotifyChange:
		return handleNTTransactNotifyChange(c, subParams, subData)
	case types.NTTransactRename:
		return handleNTTransactRename(c, subParams, subData)
	default:
		return subError(types.StatusNotImplemented)
	}
}

// DispatchTransaction2 handles one SMB_COM_TRANSACTION2 primary message: it
// parses the outer block, feeds it through the reassembler, and — once
// every chunk has arrived — routes to the matching subcommand handler and
// repacks its response. A nil Result means more *_SECONDARY chunks are
// still expected.
func DispatchTransaction2(c *Context) *Result {
	o, err := parseTransaction2Outer(c.Body.Params)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	subcommand, _, subParams, subData, ok, err := c.Reassembler.beginOrComplete(c.Header.MID, types.CmdTransaction2, o, c.Raw)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	if !ok {
		return nil
	}
	sr := routeTrans2(c, subcommand, subParams, subData)
	return finishTransaction2(sr)
}

// DispatchTransaction2Secondary handles one SMB_COM_TRANSACTION2_SECONDARY
// continuation message.
func DispatchTransaction2Secondary(c *Context) *Result {
	ch, err := parseTransaction2SecondaryOuter(c.Body.Params)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	subcommand, _, subParams, subData, ok, err := c.Reassembler.continueWith(c.Header.MID, ch, c.Raw)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	if !ok {
		return nil
	}
	sr := routeTrans2(c, subcommand, subParams, subData)
	return finishTransaction2(sr)
}

// DispatchTransaction handles one legacy SMB_COM_TRANSACTION primary
// message, the named-pipe transact family.
func DispatchTransaction(c *Context) *Result {
	o, err := parseTransactionOuter(c.Body.Params)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	subcommand, setup, subParams, subData, ok, err := c.Reassembler.beginOrComplete(c.Header.MID, types.CmdTransaction, o, c.Raw)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	if !ok {
		return nil
	}
	sr := routeTransaction(c, subcommand, setup, subParams, subData)
	return finishTransaction2(sr)
}

// DispatchTransactionSecondary handles one SMB_COM_TRANSACTION_SECONDARY
// continuation message.
func DispatchTransactionSecondary(c *Context) *Result {
	ch, err := parseTransactionSecondaryOuter(c.Body.Params)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	subcommand, setup, subParams, subData, ok, err := c.Reassembler.continueWith(c.Header.MID, ch, c.Raw)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	if !ok {
		return nil
	}
	sr := routeTransaction(c, subcommand, setup, subParams, subData)
	return finishTransaction2(sr)
}

// DispatchNTTransact handles one SMB_COM_NT_TRANSACT primary message.
func DispatchNTTransact(c *Context) *Result {
	o, err := parseNTTransactOuter(c.Body.Params)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	subcommand, _, subParams, subData, ok, err := c.Reassembler.beginOrComplete(c.Header.MID, types.CmdNTTransact, o, c.Raw)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	if !ok {
		return nil
	}
	sr := routeNTTransact(c, subcommand, subParams, subData)
	return finishNTTransact(sr)
}

// DispatchNTTransactSecondary handles one SMB_COM_NT_TRANSACT_SECONDARY
// continuation message.
func DispatchNTTransactSecondary(c *Context) *Result {
	ch, err := parseNTTransactSecondaryOuter(c.Body.Params)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	subcommand, _, subParams, subData, ok, err := c.Reassembler.continueWith(c.Header.MID, ch, c.Raw)
	if err != nil {
		return errorResult(types.StatusInvalidSMB)
	}
	if !ok {
		return nil
	}
	sr := routeNTTransact(c, subcommand, subParams, subData)
	return finishNTTransact(sr)
}

func finishTransaction2(sr *subResult) *Result {
	if sr.noResponse {
		return nil
	}
	if !sr.status.IsSuccess() {
		return errorResult(sr.status)
	}
	return bodyToResult(repackOuter(sr.params, sr.data))
}

func finishNTTransact(sr *subResult) *Result {
	if sr.noResponse {
		return nil
	}
	if !sr.status.IsSuccess() {
		return errorResult(sr.status)
	}
	return bodyToResult(repackNTTransactOuter(sr.params, sr.data))
}
