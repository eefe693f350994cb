package dispatch

import (
	"encoding/binary"

	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// handleEcho re-sends the request body echoCount times with a sequence
// number in the first param word, driving the writes itself and
// returning the null marker, per spec §4.5.
func handleEcho(hc *HandlerContext) (*HandlerResult, error) {
	params := hc.Body.Params
	if len(params) < 2 {
		return errorResult(types.StatusInvalidSMB), nil
	}
	echoCount := binary.LittleEndian.Uint16(params[0:2])
	if echoCount == 0 {
		echoCount = 1
	}

	for seq := uint16(1); seq <= echoCount; seq++ {
		respParams := make([]byte, 2)
		binary.LittleEndian.PutUint16(respParams, seq)
		body := wire.Body{Params: respParams, Data: hc.Body.Data}

		if hc.Conn.SendFrame != nil {
			header := *hc.Header
			header.Status = uint32(types.StatusSuccess)
			if err := hc.Conn.SendFrame(&header, body); err != nil {
				return nil, err
			}
		}
	}

	return nil, nil // null marker: responses already sent
}

// handleNTCancel removes at most one pending change-listener registered
// under the request's MID and abandons any in-flight TRANSACTION2/
// NT_TRANSACT reassembly under the same MID; unknown MID is silently
// ignored.
func handleNTCancel(hc *HandlerContext) (*HandlerResult, error) {
	hc.Conn.Notify.Cancel(hc.Conn.ConnectionID, hc.Header.MID)
	hc.Conn.Trans2.Abandon(hc.Header.MID)
	return nil, nil // no response is ever produced
}
