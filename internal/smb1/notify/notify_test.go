package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oxbowlabs/smb1d/internal/smb1/registry"
	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
)

func TestEncodeChunksSingleEventHasZeroNextOffset(t *testing.T) {
	out := EncodeChunks([]registry.ChangeEvent{{Action: registry.ActionAdded, FileName: "a.txt"}})
	require.NotEmpty(t, out)
	require.Equal(t, uint32(0), leU32(out[0:4]))
}

func TestEncodeChunksRenamePairChains(t *testing.T) {
	events := []registry.ChangeEvent{
		{Action: registry.ActionRenamedOldName, FileName: "old.txt"},
		{Action: registry.ActionRenamedNewName, FileName: "new.txt"},
	}
	out := EncodeChunks(events)
	firstNext := leU32(out[0:4])
	require.NotZero(t, firstNext)
	require.Less(t, int(firstNext), len(out))
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func TestEngineRegisterFiresOnceAndDeregisters(t *testing.T) {
	dir := t.TempDir()
	provider := spi.NewLocalProvider([]spi.LocalShare{{Name: "data", Root: dir}})
	engine := NewEngine()

	received := make(chan []byte, 1)
	err := engine.Register(context.Background(), provider, 1, 5, 9, 2, 3, "data", "/", false, 0,
		func(chunks []byte) { received <- chunks })
	require.NoError(t, err)

	f, err := os.Create(dir + "/x.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case chunks := <-received:
		require.NotEmpty(t, chunks)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notify delivery")
	}

	require.Eventually(t, func() bool {
		engine.mu.Lock()
		defer engine.mu.Unlock()
		return len(engine.watches) == 0
	}, 2*time.Second, 10*time.Millisecond, "listener must deregister itself after firing")
}

func TestEngineCancelRemovesListener(t *testing.T) {
	dir := t.TempDir()
	provider := spi.NewLocalProvider([]spi.LocalShare{{Name: "data", Root: dir}})
	engine := NewEngine()

	err := engine.Register(context.Background(), provider, 1, 5, 9, 2, 3, "data", "/", false, 0, func([]byte) {})
	require.NoError(t, err)

	require.True(t, engine.Cancel(1, 9))
	require.False(t, engine.Cancel(1, 9))
}
