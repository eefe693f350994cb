package smb1

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oxbowlabs/smb1d/internal/netbios"
	"github.com/oxbowlabs/smb1d/internal/smb1/rpc"
	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

func newTestServer() *Server {
	provider := spi.NewLocalProvider(nil)
	return New(Config{}, provider, func() []rpc.ShareInfo1 { return nil })
}

func negotiateFrame(mid uint16) []byte {
	h := &wire.Header{Command: types.CmdNegotiate, MID: mid}
	data := append([]byte{0x02}, append([]byte("NT LM 0.12"), 0x00)...)
	out := wire.EncodeHeader(h)
	out = append(out, wire.EncodeBody(wire.Body{Data: data})...)
	return out
}

func TestConnection_ServeRespondsToNegotiate(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	srv := newTestServer()
	c := newConnection(srv, server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Serve(ctx)

	writeMu := &netbios.LockedWriter{}
	require.NoError(t, netbios.WriteFrame(client, writeMu, 0, negotiateFrame(1)))

	payload, err := netbios.ReadFrame(context.Background(), client, time.Second)
	require.NoError(t, err)

	respHeader, err := wire.ParseHeader(payload)
	require.NoError(t, err)
	require.Equal(t, uint32(types.StatusSuccess), respHeader.Status)
	require.Equal(t, types.CmdNegotiate, respHeader.Command)
	require.Equal(t, uint16(1), respHeader.MID)
}

func TestConnection_ServeClosesOnSMB2Signature(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	srv := newTestServer()
	c := newConnection(srv, server)

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		c.Serve(ctx)
		close(done)
	}()

	smb2Payload := make([]byte, 40)
	copy(smb2Payload, []byte{0xFE, 'S', 'M', 'B'})
	writeMu := &netbios.LockedWriter{}
	require.NoError(t, netbios.WriteFrame(client, writeMu, 0, smb2Payload))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after an SMB2 signature frame")
	}
}

func TestConnection_SessionTrackedAndCleanedUpOnClose(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	srv := newTestServer()
	c := newConnection(srv, server)

	c.state.OnSessionCreated(7)
	c.sessionsMu.Lock()
	_, tracked := c.sessions[7]
	c.sessionsMu.Unlock()
	require.True(t, tracked, "OnSessionCreated must register the session on the connection")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Serve(ctx)

	c.sessionsMu.Lock()
	count := len(c.sessions)
	c.sessionsMu.Unlock()
	require.Zero(t, count, "handleClose must cascade-cleanup every session still open")
}
