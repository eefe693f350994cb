package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxbowlabs/smb1d/internal/smb1/notify"
	"github.com/oxbowlabs/smb1d/internal/smb1/registry"
	"github.com/oxbowlabs/smb1d/internal/smb1/rpc"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

func newTestConn() *ConnState {
	return &ConnState{
		ConnectionID: 1,
		Logins:       registry.NewLoginRegistry(),
		Sessions:     registry.NewSessionRegistry(),
		Trees:        registry.NewTreeRegistry(),
		Notify:       notify.NewEngine(),
		Pipes:        rpc.NewPipeManager(func() []rpc.ShareInfo1 { return nil }),
	}
}

// buildMessage encodes a single-command (non-AndX) SMB1 request frame.
func buildMessage(cmd types.Command, uid, tid, mid uint16, body wire.Body) []byte {
	h := &wire.Header{Command: cmd, UID: uid, TID: tid, MID: mid}
	out := wire.EncodeHeader(h)
	out = append(out, wire.EncodeBody(body)...)
	return out
}

func TestHandleMessage_UnknownCommandReturnsErrorFrame(t *testing.T) {
	conn := newTestConn()
	raw := buildMessage(types.Command(0xFE), 0, 0, 7, wire.Body{})

	out, err := HandleMessage(context.Background(), conn, raw)
	require.NoError(t, err)
	require.NotNil(t, out)

	respHeader, err := wire.ParseHeader(out)
	require.NoError(t, err)
	require.Equal(t, uint32(types.StatusSMBBadCommand), respHeader.Status)
	require.True(t, respHeader.Flags.Reply)
	require.Equal(t, uint16(7), respHeader.MID)
}

func TestHandleMessage_SessionRequiredShortCircuits(t *testing.T) {
	conn := newTestConn()
	// LOGOFF_ANDX needs a session; UID 0 was never issued by Sessions.Create.
	raw := buildMessage(types.CmdLogoffAndx, 0, 0, 1, wire.Body{Params: make([]byte, 4)})

	out, err := HandleMessage(context.Background(), conn, raw)
	require.NoError(t, err)
	require.NotNil(t, out)

	respHeader, err := wire.ParseHeader(out)
	require.NoError(t, err)
	require.Equal(t, uint32(types.StatusSMBBadUID), respHeader.Status)

	// The short-circuited response carries an empty WordCount=0/ByteCount=0 body.
	body, _, err := wire.ParseBody(out[wire.HeaderSize:])
	require.NoError(t, err)
	require.Empty(t, body.Params)
	require.Empty(t, body.Data)
}

func TestHandleMessage_EchoSuppressesPrimaryResponse(t *testing.T) {
	conn := newTestConn()

	var sent [][]byte
	conn.SendFrame = func(h *wire.Header, body wire.Body) error {
		sent = append(sent, append(wire.EncodeHeader(h), wire.EncodeBody(body)...))
		return nil
	}

	params := make([]byte, 2) // echoCount = 1
	params[0] = 1
	raw := buildMessage(types.CmdEcho, 0, 0, 9, wire.Body{Params: params, Data: []byte("ping")})

	out, err := HandleMessage(context.Background(), conn, raw)
	require.NoError(t, err)
	require.Nil(t, out, "ECHO sends its own frames and suppresses the dispatcher's primary response")
	require.Len(t, sent, 1)
}

func TestHandleMessage_NegotiateAcceptsNTLM012(t *testing.T) {
	conn := newTestConn()

	var data []byte
	data = append(data, 0x02) // dialect buffer format
	data = append(data, []byte("NT LM 0.12")...)
	data = append(data, 0x00)

	raw := buildMessage(types.CmdNegotiate, 0, 0, 3, wire.Body{Data: data})

	out, err := HandleMessage(context.Background(), conn, raw)
	require.NoError(t, err)
	require.NotNil(t, out)

	respHeader, err := wire.ParseHeader(out)
	require.NoError(t, err)
	require.Equal(t, uint32(types.StatusSuccess), respHeader.Status)
	require.Equal(t, types.CmdNegotiate, respHeader.Command)
	require.NotNil(t, conn.Challenge, "NEGOTIATE must store a challenge for SESSION_SETUP_ANDX to validate against")
}

func TestHandleMessage_SessionSetupAndxChainedWithTreeConnect(t *testing.T) {
	conn := newTestConn()
	originalShares := Shares
	Shares = map[string]ShareConfig{"ipc$": {Name: "IPC$", Kind: types.ShareTypeIPC}}
	AllowAnonymous = true
	defer func() {
		AllowAnonymous = false
		Shares = originalShares
	}()

	// First negotiate so hc.Conn.Challenge is populated.
	negData := append([]byte{0x02}, append([]byte("NT LM 0.12"), 0x00)...)
	negRaw := buildMessage(types.CmdNegotiate, 0, 0, 1, wire.Body{Data: negData})
	_, err := HandleMessage(context.Background(), conn, negRaw)
	require.NoError(t, err)

	// SESSION_SETUP_ANDX chained with TREE_CONNECT_ANDX, anonymous login.
	ssParams := make([]byte, 4+22) // andx linkage (patched by encodeTwoCommandChain) + fixed session setup params
	ssHeader := &wire.Header{Command: types.CmdSessionSetupAndx, MID: 2}
	ssBody := wire.Body{Params: ssParams} // zero-length LM/NTLM blobs, empty account/domain strings

	tcParams := make([]byte, 4)
	setAndxLink(tcParams, types.AndXNone, 0)
	tcData := append(wire.WriteASCIIString(`\\SERVER\IPC$`), wire.WriteASCIIString("IPC")...)
	tcBody := wire.Body{Params: tcParams, Data: tcData}

	raw := append(wire.EncodeHeader(ssHeader), encodeTwoCommandChain(ssBody, tcBody)...)

	out, err := HandleMessage(context.Background(), conn, raw)
	require.NoError(t, err)
	require.NotNil(t, out)

	respHeader, err := wire.ParseHeader(out)
	require.NoError(t, err)
	require.Equal(t, uint32(types.StatusSuccess), respHeader.Status)
	require.NotZero(t, respHeader.UID, "SESSION_SETUP_ANDX's issued UID must be carried onto the response header")
	require.NotZero(t, respHeader.TID, "TREE_CONNECT_ANDX's issued TID must be carried onto the response header")
}

func setAndxLink(params []byte, nextCmd types.Command, nextOffset int) {
	params[0] = byte(nextCmd)
	params[1] = 0
	params[2] = byte(nextOffset)
	params[3] = byte(nextOffset >> 8)
}

// encodeTwoCommandChain mirrors wire.EncodeChain for exactly two commands,
// used here to build a request (EncodeChain itself only targets responses).
func encodeTwoCommandChain(first, second wire.Body) []byte {
	encFirst := wire.EncodeBody(first)
	encSecond := wire.EncodeBody(second)
	nextOffset := wire.HeaderSize + len(encFirst)
	encFirst[1] = byte(types.CmdTreeConnectAndx)
	encFirst[2] = 0
	encFirst[3] = byte(nextOffset)
	encFirst[4] = byte(nextOffset >> 8)
	out := append([]byte(nil), encFirst...)
	out = append(out, encSecond...)
	return out
}
