package wire

import (
	"testing"

	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/stretchr/testify/require"
)

func sampleHeader() *Header {
	return &Header{
		Command: types.CmdNegotiate,
		Status:  0,
		Flags:   types.HeaderFlags{Reply: true, LockRead: true},
		Flags2:  types.HeaderFlags2{Unicode: true, PathnamesLongSupported: true, Status: types.StatusKindNT},
		PIDHigh: 0,
		TID:     7,
		PID:     1234,
		UID:     42,
		MID:     9,
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := sampleHeader()
	buf := EncodeHeader(h)
	require.Len(t, buf, HeaderSize)

	got, err := ParseHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestParseHeaderRejectsBadSignature(t *testing.T) {
	buf := EncodeHeader(sampleHeader())
	buf[0] = 0x00
	_, err := ParseHeader(buf)
	require.ErrorIs(t, err, ErrInvalidProtocolID)
}

func TestBodyRoundTrip(t *testing.T) {
	b := Body{Params: []byte{1, 2, 3, 4}, Data: []byte("hello")}
	encoded := EncodeBody(b)

	got, consumed, err := ParseBody(encoded)
	require.NoError(t, err)
	require.Equal(t, len(encoded), consumed)
	require.Equal(t, b.Params, got.Params)
	require.Equal(t, b.Data, got.Data)
}

func TestAndXChainRoundTrip(t *testing.T) {
	commands := []CommandEntry{
		{Command: types.CmdSessionSetupAndx, Params: make([]byte, 4+10), Data: []byte("sess")},
		{Command: types.CmdTreeConnectAndx, Params: make([]byte, 4+6), Data: []byte("tree")},
		{Command: types.CmdNTCreateAndx, Params: make([]byte, 4+20), Data: []byte("create")},
	}

	body := EncodeChain(commands)
	h := sampleHeader()
	h.Command = commands[0].Command

	full := append(EncodeHeader(h), body...)

	decoded, err := DecodeChain(full, h)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i, c := range decoded {
		require.Equal(t, commands[i].Command, c.Command)
		require.Equal(t, commands[i].Data, c.Data)
	}
}

func TestAlignPad(t *testing.T) {
	require.Equal(t, 0, AlignPad(4, 2))
	require.Equal(t, 1, AlignPad(5, 2))
	require.Equal(t, 0, AlignPad(8, 4))
	require.Equal(t, 2, AlignPad(6, 4))
}

func TestUTF16StringRoundTrip(t *testing.T) {
	buf := WriteUTF16String("hello")
	got, n := ReadUTF16String(buf, 0)
	require.Equal(t, "hello", got)
	require.Equal(t, len(buf)-2, n)
}
