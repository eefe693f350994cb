package trans2

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/oxbowlabs/smb1d/internal/smb1/types"
)

// outer is one parsed primary TRANSACTION2/NT_TRANSACT/TRANSACTION request's
// multiplexing header: the subcommand, its total and present
// parameter/data byte counts, and where those bytes sit within the raw
// message.
type outer struct {
	subcommand        uint16
	totalParamCount    int
	totalDataCount     int
	paramCount         int
	paramOffset        int
	dataCount          int
	dataOffset         int
	setup              []byte
}

// chunk is a parsed *_SECONDARY message's continuation of an in-flight
// reassembly: its slice of the total parameter/data block and where that
// slice lands in the combined buffer.
type chunk struct {
	totalParamCount int
	totalDataCount  int
	paramCount      int
	paramOffset     int
	paramDisp       int
	dataCount       int
	dataOffset      int
	dataDisp        int
}

// parseTransaction2Outer parses an SMB_COM_TRANSACTION2 request's
// parameter block (2-byte counts, one setup word carrying the subcommand).
func parseTransaction2Outer(params []byte) (*outer, error) {
	if len(params) < 32 {
		return nil, fmt.Errorf("trans2: transaction2 params too short: %d bytes", len(params))
	}
	setupCount := int(params[26])
	setupStart := 28
	setupEnd := setupStart + setupCount*2
	if len(params) < setupEnd+2 {
		return nil, fmt.Errorf("trans2: transaction2 setup truncated")
	}
	o := &outer{
		totalParamCount: int(binary.LittleEndian.Uint16(params[0:2])),
		totalDataCount:  int(binary.LittleEndian.Uint16(params[2:4])),
		paramCount:      int(binary.LittleEndian.Uint16(params[18:20])),
		paramOffset:     int(binary.LittleEndian.Uint16(params[20:22])),
		dataCount:       int(binary.LittleEndian.Uint16(params[22:24])),
		dataOffset:      int(binary.LittleEndian.Uint16(params[24:26])),
		setup:           params[setupStart:setupEnd],
	}
	if setupCount >= 1 {
		o.subcommand = binary.LittleEndian.Uint16(params[setupStart : setupStart+2])
	}
	return o, nil
}

// parseTransaction2SecondaryOuter parses an SMB_COM_TRANSACTION2_SECONDARY
// request's parameter block.
func parseTransaction2SecondaryOuter(params []byte) (*chunk, error) {
	if len(params) < 16 {
		return nil, fmt.Errorf("trans2: transaction2_secondary params too short: %d bytes", len(params))
	}
	return &chunk{
		totalParamCount: int(binary.LittleEndian.Uint16(params[0:2])),
		totalDataCount:  int(binary.LittleEndian.Uint16(params[2:4])),
		paramCount:      int(binary.LittleEndian.Uint16(params[4:6])),
		paramOffset:     int(binary.LittleEndian.Uint16(params[6:8])),
		paramDisp:       int(binary.LittleEndian.Uint16(params[8:10])),
		dataCount:       int(binary.LittleEndian.Uint16(params[10:12])),
		dataOffset:      int(binary.LittleEndian.Uint16(params[12:14])),
		dataDisp:        int(binary.LittleEndian.Uint16(params[14:16])),
	}, nil
}

// parseTransactionOuter parses an SMB_COM_TRANSACTION request's parameter
// block; it is byte-identical in shape to TRANSACTION2's, with the setup
// word(s) carrying a named-pipe-set subcommand instead of a TRANS2 one (and,
// for TRANS_TRANSACT_NMPIPE, a second setup word carrying the pipe's FID).
func parseTransactionOuter(params []byte) (*outer, error) {
	return parseTransaction2Outer(params)
}

// parseTransactionSecondaryOuter parses an SMB_COM_TRANSACTION_SECONDARY
// request's parameter block, identical in shape to TRANSACTION2_SECONDARY.
func parseTransactionSecondaryOuter(params []byte) (*chunk, error) {
	return parseTransaction2SecondaryOuter(params)
}

// parseNTTransactOuter parses an SMB_COM_NT_TRANSACT request's parameter
// block (4-byte counts, a one-byte setup count, and the subcommand in its
// own Function field ahead of the setup words).
func parseNTTransactOuter(params []byte) (*outer, error) {
	if len(params) < 38 {
		return nil, fmt.Errorf("trans2: nt_transact params too short: %d bytes", len(params))
	}
	setupCount := int(params[35])
	setupStart := 38
	setupEnd := setupStart + setupCount*2
	if len(params) < setupEnd {
		return nil, fmt.Errorf("trans2: nt_transact setup truncated")
	}
	return &outer{
		subcommand:      binary.LittleEndian.Uint16(params[36:38]),
		totalParamCount: int(binary.LittleEndian.Uint32(params[3:7])),
		totalDataCount:  int(binary.LittleEndian.Uint32(params[7:11])),
		paramCount:      int(binary.LittleEndian.Uint32(params[19:23])),
		paramOffset:     int(binary.LittleEndian.Uint32(params[23:27])),
		dataCount:       int(binary.LittleEndian.Uint32(params[27:31])),
		dataOffset:      int(binary.LittleEndian.Uint32(params[31:35])),
		setup:           params[setupStart:setupEnd],
	}, nil
}

// parseNTTransactSecondaryOuter parses an SMB_COM_NT_TRANSACT_SECONDARY
// request's parameter block.
func parseNTTransactSecondaryOuter(params []byte) (*chunk, error) {
	if len(params) < 35 {
		return nil, fmt.Errorf("trans2: nt_transact_secondary params too short: %d bytes", len(params))
	}
	return &chunk{
		totalParamCount: int(binary.LittleEndian.Uint32(params[3:7])),
		totalDataCount:  int(binary.LittleEndian.Uint32(params[7:11])),
		paramCount:      int(binary.LittleEndian.Uint32(params[11:15])),
		paramOffset:     int(binary.LittleEndian.Uint32(params[15:19])),
		paramDisp:       int(binary.LittleEndian.Uint32(params[19:23])),
		dataCount:       int(binary.LittleEndian.Uint32(params[23:27])),
		dataOffset:      int(binary.LittleEndian.Uint32(params[27:31])),
		dataDisp:        int(binary.LittleEndian.Uint32(params[31:35])),
	}, nil
}

// pending is one in-flight multi-chunk reassembly, keyed by MID.
type pending struct {
	command    types.Command
	subcommand uint16
	setup      []byte
	params     []byte
	data       []byte
	gotParams  int
	gotData    int
}

func (p *pending) ready() bool {
	return p.gotParams >= len(p.params) && p.gotData >= len(p.data)
}

// Reassembler accumulates TRANSACTION2/NT_TRANSACT/TRANSACTION chunks
// across primary and *_SECONDARY messages, keyed by MID, per the
// multi-part reassembly the outer block's parameterCount/totalParameterCount
// and dataCount/totalDataCount fields describe. One Reassembler is held per
// connection, since MIDs are only unique within a connection.
type Reassembler struct {
	mu      sync.Mutex
	pending map[uint16]*pending
}

func NewReassembler() *Reassembler {
	return &Reassembler{pending: make(map[uint16]*pending)}
}

// beginOrComplete starts (or, if already complete in one message, skips)
// reassembly for a primary message, copying in its chunk of params/data
// sliced from raw. It returns the combined subParams/subData and true once
// every chunk has arrived, or ok=false if more *_SECONDARY messages are
// still expected.
func (r *Reassembler) beginOrComplete(mid uint16, command types.Command, o *outer, raw []byte) (subcommand uint16, setup, subParams, subData []byte, ok bool, err error) {
	if o.paramOffset+o.paramCount > len(raw) || o.dataOffset+o.dataCount > len(raw) {
		return 0, nil, nil, nil, false, fmt.Errorf("trans2: outer offsets exceed message length")
	}
	paramChunk := raw[o.paramOffset : o.paramOffset+o.paramCount]
	dataChunk := raw[o.dataOffset : o.dataOffset+o.dataCount]

	if o.paramCount >= o.totalParamCount && o.dataCount >= o.totalDataCount {
		return o.subcommand, o.setup, paramChunk, dataChunk, true, nil
	}

	p := &pending{
		command:    command,
		subcommand: o.subcommand,
		setup:      append([]byte(nil), o.setup...),
		params:     make([]byte, o.totalParamCount),
		data:       make([]byte, o.totalDataCount),
	}
	p.gotParams = copy(p.params[0:], paramChunk)
	p.gotData = copy(p.data[0:], dataChunk)

	r.mu.Lock()
	r.pending[mid] = p
	r.mu.Unlock()

	return 0, nil, nil, nil, false, nil
}

// continueWith applies one *_SECONDARY message's chunk to the pending
// reassembly under mid. It returns the combined subParams/subData and
// true once complete, or ok=false if more chunks are still expected. An
// unknown MID (a secondary with no matching primary) is reported as an
// error.
func (r *Reassembler) continueWith(mid uint16, c *chunk, raw []byte) (subcommand uint16, setup, subParams, subData []byte, ok bool, err error) {
	r.mu.Lock()
	p, found := r.pending[mid]
	r.mu.Unlock()
	if !found {
		return 0, nil, nil, nil, false, fmt.Errorf("trans2: secondary message for unknown MID %d", mid)
	}

	if c.paramOffset+c.paramCount > len(raw) || c.dataOffset+c.dataCount > len(raw) {
		return 0, nil, nil, nil, false, fmt.Errorf("trans2: secondary outer offsets exceed message length")
	}
	paramChunk := raw[c.paramOffset : c.paramOffset+c.paramCount]
	dataChunk := raw[c.dataOffset : c.dataOffset+c.dataCount]

	if c.paramDisp+len(paramChunk) <= len(p.params) {
		n := copy(p.params[c.paramDisp:], paramChunk)
		p.gotParams += n
	}
	if c.dataDisp+len(dataChunk) <= len(p.data) {
		n := copy(p.data[c.dataDisp:], dataChunk)
		p.gotData += n
	}

	if !p.ready() {
		return 0, nil, nil, nil, false, nil
	}

	r.mu.Lock()
	delete(r.pending, mid)
	r.mu.Unlock()

	return p.subcommand, p.setup, p.params, p.data, true, nil
}

// Abandon drops any pending reassembly for mid, used by NT_CANCEL and
// connection teardown so a never-completed transaction doesn't leak.
func (r *Reassembler) Abandon(mid uint16) {
	r.mu.Lock()
	delete(r.pending, mid)
	r.mu.Unlock()
}
