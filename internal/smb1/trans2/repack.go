package trans2

import (
	"encoding/binary"

	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// fixedTransaction2ParamsLen is the 20-byte outer parameter block every
// TRANSACTION2/TRANSACTION response carries ahead of its setup words (of
// which this server's responses never carry any), per the repacking rule.
const fixedTransaction2ParamsLen = 20

// fixedNTTransactParamsLen is NT_TRANSACT's corresponding 36-byte outer
// parameter block.
const fixedNTTransactParamsLen = 36

// repackOuter builds a TRANSACTION2/TRANSACTION-shaped response: the fixed
// outer parameter block plus a Data section holding subParams and subData,
// each aligned to the next 4-byte boundary of its absolute position within
// the message, per the repacking rule.
func repackOuter(subParams, subData []byte) wire.Body {
	outerParams := make([]byte, fixedTransaction2ParamsLen)

	absAfterOuter := wire.HeaderSize + 1 + fixedTransaction2ParamsLen + 2
	padBeforeParams := wire.AlignPad(absAfterOuter, 4)
	paramAbsOffset := absAfterOuter + padBeforeParams

	absAfterParams := paramAbsOffset + len(subParams)
	padBeforeData := wire.AlignPad(absAfterParams, 4)
	dataAbsOffset := absAfterParams + padBeforeData

	binary.LittleEndian.PutUint16(outerParams[0:2], uint16(len(subParams)))
	binary.LittleEndian.PutUint16(outerParams[2:4], uint16(len(subData)))
	binary.LittleEndian.PutUint16(outerParams[6:8], uint16(len(subParams)))
	binary.LittleEndian.PutUint16(outerParams[8:10], uint16(paramAbsOffset))
	binary.LittleEndian.PutUint16(outerParams[12:14], uint16(len(subData)))
	binary.LittleEndian.PutUint16(outerParams[14:16], uint16(dataAbsOffset))

	data := make([]byte, dataAbsOffset+len(subData)-absAfterOuter)
	copy(data[paramAbsOffset-absAfterOuter:], subParams)
	copy(data[dataAbsOffset-absAfterOuter:], subData)

	return wire.Body{Params: outerParams, Data: data}
}

// repackNTTransactOuter is NT_TRANSACT's analogue of repackOuter, using the
// wider 36-byte fixed outer block and 4-byte counts/offsets.
func repackNTTransactOuter(subParams, subData []byte) wire.Body {
	outerParams := make([]byte, fixedNTTransactParamsLen)

	absAfterOuter := wire.HeaderSize + 1 + fixedNTTransactParamsLen + 2
	padBeforeParams := wire.AlignPad(absAfterOuter, 4)
	paramAbsOffset := absAfterOuter + padBeforeParams

	absAfterParams := paramAbsOffset + len(subParams)
	padBeforeData := wire.AlignPad(absAfterParams, 4)
	dataAbsOffset := absAfterParams + padBeforeData

	binary.LittleEndian.PutUint32(outerParams[3:7], uint32(len(subParams)))
	binary.LittleEndian.PutUint32(outerParams[7:11], uint32(len(subData)))
	binary.LittleEndian.PutUint32(outerParams[11:15], uint32(len(subParams)))
	binary.LittleEndian.PutUint32(outerParams[15:19], uint32(paramAbsOffset))
	binary.LittleEndian.PutUint32(outerParams[23:27], uint32(len(subData)))
	binary.LittleEndian.PutUint32(outerParams[27:31], uint32(dataAbsOffset))

	data := make([]byte, dataAbsOffset+len(subData)-absAfterOuter)
	copy(data[paramAbsOffset-absAfterOuter:], subParams)
	copy(data[dataAbsOffset-absAfterOuter:], subData)

	return wire.Body{Params: outerParams, Data: data}
}

// subResult is what one TRANSACTION2/NT_TRANSACT/TRANSACTION subcommand
// handler returns, before outer repacking.
type subResult struct {
	params     []byte
	data       []byte
	status     types.Status
	noResponse bool
}

func subError(status types.Status) *subResult {
	return &subResult{status: status}
}

func subSuccess(params, data []byte) *subResult {
	return &subResult{params: params, data: data, status: types.StatusSuccess}
}
