package netbios

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	payload := make([]byte, 40)
	for i := range payload {
		payload[i] = byte(i)
	}

	writeMu := &LockedWriter{}
	go func() {
		_ = WriteFrame(client, writeMu, 0, payload)
	}()

	got, err := ReadFrame(context.Background(), server, time.Second)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReadFrameRejectsUndersizedLength(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		// length field below MinPayloadLength
		_, _ = client.Write([]byte{0x00, 0x00, 0x00, 0x01})
	}()

	_, err := ReadFrame(context.Background(), server, time.Second)
	require.Error(t, err)
}

func TestReadFrameSplitAcrossChunks(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	payload := make([]byte, 64)
	frame := append([]byte{0x00, 0x00, 0x00, byte(len(payload))}, payload...)

	go func() {
		_, _ = client.Write(frame[:3])
		time.Sleep(5 * time.Millisecond)
		_, _ = client.Write(frame[3:])
	}()

	got, err := ReadFrame(context.Background(), server, time.Second)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}
