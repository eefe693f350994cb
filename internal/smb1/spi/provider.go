// Package spi defines the service-provider interface the dispatch layer
// delegates storage operations to. It is the server-side mirror of the
// absfs.FileSystem shape (open/stat/readdir/mkdir/remove/rename), adapted
// from a client-facing filesystem abstraction to a server-facing one: the
// core protocol invokes these methods, it never implements them. Besides
// the boundary, this package carries one reference back-end,
// LocalProvider (localfs.go), which maps each share to a local directory.
package spi

import (
	"context"
	"io"
	"time"
)

// FileInfo is the subset of file metadata NT_CREATE_ANDX and the
// TRANS2 query-info levels need back from a provider.
type FileInfo struct {
	Name          string
	IsDir         bool
	Size          int64
	AllocatedSize int64
	CreatedAt     time.Time
	AccessedAt    time.Time
	WrittenAt     time.Time
	ChangedAt     time.Time
	ReadOnly      bool
	Hidden        bool
	System        bool
}

// OpenResult is what openOrCreate reports back to NT_CREATE_ANDX, per
// spec §4.5.
type OpenResult struct {
	File         File
	CreateAction uint32 // Superseded/Opened/Created/Overwritten
	Info         FileInfo
}

// File is a provider-side open file handle delegated to by an
// smb1/registry.File.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	Stat(ctx context.Context) (FileInfo, error)
	Flush(ctx context.Context) error
	Truncate(ctx context.Context, size int64) error
	ReadDir(ctx context.Context) ([]FileInfo, error)
}

// Session is the provider-side handle created on authentication success,
// torn down when the owning smb1/registry.Session is destroyed.
type Session interface {
	Close(ctx context.Context) error
}

// Provider is the abstract mapping from logical share-relative paths to
// an open file, named only by the operations the core invokes on it.
type Provider interface {
	// OpenSession returns a provider-specific session handle for the
	// authenticated account, used for SPI teardown on LOGOFF_ANDX.
	OpenSession(ctx context.Context, account, domain string) (Session, error)

	// OpenOrCreate implements NT_CREATE_ANDX / OPEN_ANDX's delegation
	// contract: given a disposition and a hint of whether the caller
	// expects a directory, open or create the path and report which
	// action occurred.
	OpenOrCreate(ctx context.Context, share, path string, disposition uint32, directoryHint bool) (OpenResult, error)

	Delete(ctx context.Context, share, path string) error
	DeleteDirectory(ctx context.Context, share, path string) error
	Rename(ctx context.Context, share, oldPath, newPath string) error
	Stat(ctx context.Context, share, path string) (FileInfo, error)

	// WatchDirectory registers a filesystem-event source for a
	// directory; events are delivered to notify until the returned
	// cancel func is invoked or the source closes itself.
	WatchDirectory(ctx context.Context, share, path string, watchTree bool) (events <-chan Event, cancel func(), err error)
}

// Event is one filesystem change reported by a provider's watch source,
// consumed by the notify engine to satisfy NT_TRANSACT_NOTIFY_CHANGE.
type Event struct {
	Action   uint32 // registry.Action{Added,Removed,Modified,RenamedOldName,RenamedNewName}
	Path     string
	NewPath  string // populated only for rename events
}
