package rpc

import (
	"sync"

	"github.com/oxbowlabs/smb1d/internal/smb1/types"
)

// PipeState is one \PIPE\srvsvc or \PIPE\lsarpc file's DCE/RPC binding
// state: whether bind has completed yet, and which interface it is bound
// to.
type PipeState struct {
	mu      sync.Mutex
	Name    string
	bound   bool
	iface   *Interface
}

// PipeManager owns every open named-pipe file's PipeState and the
// server's share table used to answer NetShareEnumAll. One PipeManager is
// shared server-wide; pipe state itself is scoped to the FID that opened
// it, keyed by the caller (an *registry.File via its FID, passed in as a
// uint64 composite key by the caller).
type PipeManager struct {
	mu     sync.RWMutex
	pipes  map[uint64]*PipeState
	srvsvc *SrvsvcHandler
}

// NewPipeManager constructs a PipeManager. shares is called lazily on
// every NetShareEnumAll so configuration changes are reflected without
// restarting the pipe state.
func NewPipeManager(shares func() []ShareInfo1) *PipeManager {
	m := &PipeManager{pipes: make(map[uint64]*PipeState)}
	m.srvsvc = newSrvsvcHandler(shares)
	return m
}

// OpenPipe registers a new pipe state for key (typically (TID<<16)|FID),
// named by the trailing component of its \PIPE\ path.
func (m *PipeManager) OpenPipe(key uint64, name string) *PipeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &PipeState{Name: name}
	m.pipes[key] = p
	return p
}

// Lookup resolves a previously opened pipe by key.
func (m *PipeManager) Lookup(key uint64) (*PipeState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pipes[key]
	return p, ok
}

// ClosePipe drops a pipe's bound state; called on CLOSE of its FID.
func (m *PipeManager) ClosePipe(key uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pipes, key)
}

// Transact processes one TRANS_TRANSACT_NMPIPE call's input PDU against
// the pipe's bind state and returns the output PDU, per the bind/request
// contract: a bind PDU transitions the pipe to bound and selects an
// interface from the table; a request PDU is routed to that interface's
// handler. Fragmented or unparsable PDUs are rejected here with
// STATUS_INVALID_SMB, which the trans2 caller returns as the SMB status.
func (m *PipeManager) Transact(p *PipeState, input []byte) ([]byte, types.Status) {
	hdr, err := ParseHeader(input)
	if err != nil {
		return nil, types.StatusInvalidSMB
	}
	if hdr.IsFragmented() {
		return nil, types.StatusInvalidSMB
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch hdr.PacketType {
	case PDUBind:
		bindReq, err := ParseBindRequest(input)
		if err != nil {
			return nil, types.StatusInvalidSMB
		}
		table := m.interfaceTable()
		if len(bindReq.Contexts) == 0 {
			return BuildBindNak(hdr.CallID, 0), types.StatusSuccess
		}
		iface, ok := matchInterface(table, bindReq.Contexts[0].AbstractSyntax)
		if !ok {
			return BuildBindNak(hdr.CallID, 0), types.StatusSuccess
		}
		p.bound = true
		p.iface = iface
		return BuildBindAck(hdr.CallID, `\PIPE\`+iface.PipeName, NDRTransferSyntaxUUID), types.StatusSuccess

	case PDURequest:
		if !p.bound || p.iface == nil {
			return BuildFault(hdr.CallID, NCAUnspecReject), types.StatusSuccess
		}
		req, err := ParseRequest(input)
		if err != nil {
			return nil, types.StatusInvalidSMB
		}
		return p.iface.Handle(req), types.StatusSuccess

	default:
		return BuildFault(hdr.CallID, NCAUnspecReject), types.StatusSuccess
	}
}

// PipeNameFromPath extracts the trailing pipe name from a \PIPE\name (or
// bare name) path, case-preserving.
func PipeNameFromPath(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '\\' || path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
