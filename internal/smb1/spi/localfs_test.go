package spi

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalProviderOpenOrCreateThenStat(t *testing.T) {
	dir := t.TempDir()
	p := NewLocalProvider([]LocalShare{{Name: "DATA", Root: dir}})
	ctx := context.Background()

	const dispOpenIf = 3
	result, err := p.OpenOrCreate(ctx, "data", "/hello.txt", dispOpenIf, false)
	require.NoError(t, err)
	require.Equal(t, uint32(2), result.CreateAction) // Created
	require.NoError(t, result.File.Close())

	info, err := p.Stat(ctx, "DATA", "/hello.txt")
	require.NoError(t, err)
	require.Equal(t, "hello.txt", info.Name)
	require.False(t, info.IsDir)
}

func TestLocalProviderUnknownShare(t *testing.T) {
	p := NewLocalProvider(nil)
	_, err := p.Stat(context.Background(), "nope", "/x")
	require.ErrorIs(t, err, ErrUnknownShare)
}

func TestLocalProviderRename(t *testing.T) {
	dir := t.TempDir()
	p := NewLocalProvider([]LocalShare{{Name: "data", Root: dir}})
	ctx := context.Background()

	const dispCreate = 2
	result, err := p.OpenOrCreate(ctx, "data", "/a.txt", dispCreate, false)
	require.NoError(t, err)
	require.NoError(t, result.File.Close())

	require.NoError(t, p.Rename(ctx, "data", "/a.txt", "/b.txt"))

	_, err = p.Stat(ctx, "data", "/a.txt")
	require.True(t, os.IsNotExist(err))

	_, err = p.Stat(ctx, "data", "/b.txt")
	require.NoError(t, err)
}

func TestLocalProviderWatchDirectoryReceivesCreateEvent(t *testing.T) {
	dir := t.TempDir()
	p := NewLocalProvider([]LocalShare{{Name: "data", Root: dir}})
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	events, cancel, err := p.WatchDirectory(ctx, "data", "/", false)
	require.NoError(t, err)
	defer cancel()

	f, err := os.Create(dir + "/new.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case ev := <-events:
		require.Equal(t, dir+"/new.txt", ev.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for create event")
	}
}
