package dispatch

import (
	"github.com/oxbowlabs/smb1d/internal/smb1/trans2"
)

// trans2Context builds a trans2.Context from a HandlerContext, the shared
// shape every TRANSACTION2/NT_TRANSACT/TRANSACTION adapter below
// constructs before delegating.
func trans2Context(hc *HandlerContext) *trans2.Context {
	return &trans2.Context{
		Ctx:          hc.Ctx,
		Header:       hc.Header,
		Body:         hc.Body,
		Raw:          hc.Raw,
		ConnectionID: hc.Conn.ConnectionID,
		Sessions:     hc.Conn.Sessions,
		Trees:        hc.Conn.Trees,
		Provider:     hc.Conn.Provider,
		Notify:       hc.Conn.Notify,
		Pipes:        hc.Conn.Pipes,
		Reassembler:  hc.Conn.Trans2,
		Session:      hc.Session,
		Tree:         hc.Tree,
		SendFrame:    hc.Conn.SendFrame,
	}
}

// toHandlerResult translates a trans2.Result back into the dispatch
// layer's HandlerResult, preserving the nil "no response yet" marker used
// by reassembly-in-progress and by NT_TRANSACT_NOTIFY_CHANGE registration.
func toHandlerResult(r *trans2.Result) (*HandlerResult, error) {
	if r == nil {
		return nil, nil
	}
	return &HandlerResult{Body: r.Body, Status: r.Status}, nil
}

func handleTransaction2(hc *HandlerContext) (*HandlerResult, error) {
	return toHandlerResult(trans2.DispatchTransaction2(trans2Context(hc)))
}

func handleTransaction2Secondary(hc *HandlerContext) (*HandlerResult, error) {
	return toHandlerResult(trans2.DispatchTransaction2Secondary(trans2Context(hc)))
}

func handleTransaction(hc *HandlerContext) (*HandlerResult, error) {
	return toHandlerResult(trans2.DispatchTransaction(trans2Context(hc)))
}

func handleTransactionSecondary(hc *HandlerContext) (*HandlerResult, error) {
	return toHandlerResult(trans2.DispatchTransactionSecondary(trans2Context(hc)))
}

func handleNTTransact(hc *HandlerContext) (*HandlerResult, error) {
	return toHandlerResult(trans2.DispatchNTTransact(trans2Context(hc)))
}

func handleNTTransactSecondary(hc *HandlerContext) (*HandlerResult, error) {
	return toHandlerResult(trans2.DispatchNTTransactSecondary(trans2Context(hc)))
}
