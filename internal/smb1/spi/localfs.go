package spi

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/oxbowlabs/smb1d/internal/logger"
)

// LocalShare maps one configured share name to a root directory on disk.
type LocalShare struct {
	Name string
	Root string
}

// LocalProvider is the reference Provider implementation: every share is
// a directory on the local filesystem, following the same
// open/stat/readdir/mkdir/remove/rename shape as absfs.FileSystem, but
// server-side (the dispatch layer calls in, rather than a client calling
// out through it).
type LocalProvider struct {
	shares map[string]string // share name -> root dir, lowercased key
}

func NewLocalProvider(shares []LocalShare) *LocalProvider {
	m := make(map[string]string, len(shares))
	for _, s := range shares {
		m[strings.ToLower(s.Name)] = s.Root
	}
	return &LocalProvider{shares: m}
}

var ErrUnknownShare = errors.New("spi: unknown share")

func (p *LocalProvider) resolve(share, path string) (string, error) {
	root, ok := p.shares[strings.ToLower(share)]
	if !ok {
		return "", ErrUnknownShare
	}
	cleaned := filepath.Clean("/" + strings.ReplaceAll(path, `\`, "/"))
	return filepath.Join(root, cleaned), nil
}

func (p *LocalProvider) OpenSession(ctx context.Context, account, domain string) (Session, error) {
	return noopSession{}, nil
}

type noopSession struct{}

func (noopSession) Close(ctx context.Context) error { return nil }

func (p *LocalProvider) OpenOrCreate(ctx context.Context, share, path string, disposition uint32, directoryHint bool) (OpenResult, error) {
	full, err := p.resolve(share, path)
	if err != nil {
		return OpenResult{}, err
	}

	var action uint32
	_, statErr := os.Stat(full)
	existed := statErr == nil

	const (
		dispSupersede   = 0
		dispOpen        = 1
		dispCreate      = 2
		dispOpenIf      = 3
		dispOverwrite   = 4
		dispOverwriteIf = 5
	)

	switch disposition {
	case dispOpen:
		if !existed {
			return OpenResult{}, os.ErrNotExist
		}
		action = 1 // Opened
	case dispCreate:
		if existed {
			return OpenResult{}, os.ErrExist
		}
		action = 2 // Created
	case dispOpenIf:
		if existed {
			action = 1
		} else {
			action = 2
		}
	case dispOverwrite, dispOverwriteIf:
		if !existed && disposition == dispOverwrite {
			return OpenResult{}, os.ErrNotExist
		}
		action = 3 // Overwritten
	case dispSupersede:
		action = 0
	default:
		action = 1
	}

	if directoryHint {
		if !existed {
			if err := os.MkdirAll(full, 0o755); err != nil {
				return OpenResult{}, err
			}
		}
		info, err := os.Stat(full)
		if err != nil {
			return OpenResult{}, err
		}
		return OpenResult{File: &localDirHandle{path: full}, CreateAction: action, Info: infoFromOS(info)}, nil
	}

	flags := os.O_RDWR
	if !existed {
		flags |= os.O_CREATE
	}
	if disposition == dispOverwrite || disposition == dispOverwriteIf {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(full, flags, 0o644)
	if err != nil {
		return OpenResult{}, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return OpenResult{}, err
	}

	return OpenResult{File: &localFileHandle{f: f}, CreateAction: action, Info: infoFromOS(info)}, nil
}

func (p *LocalProvider) Delete(ctx context.Context, share, path string) error {
	full, err := p.resolve(share, path)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

func (p *LocalProvider) DeleteDirectory(ctx context.Context, share, path string) error {
	return p.Delete(ctx, share, path)
}

func (p *LocalProvider) Rename(ctx context.Context, share, oldPath, newPath string) error {
	oldFull, err := p.resolve(share, oldPath)
	if err != nil {
		return err
	}
	newFull, err := p.resolve(share, newPath)
	if err != nil {
		return err
	}
	return os.Rename(oldFull, newFull)
}

func (p *LocalProvider) Stat(ctx context.Context, share, path string) (FileInfo, error) {
	full, err := p.resolve(share, path)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return FileInfo{}, err
	}
	return infoFromOS(info), nil
}

// WatchDirectory wires fsnotify as the event source backing
// NT_TRANSACT_NOTIFY_CHANGE; watchTree additionally walks and watches
// every existing subdirectory since fsnotify does not recurse on its own.
func (p *LocalProvider) WatchDirectory(ctx context.Context, share, path string, watchTree bool) (<-chan Event, func(), error) {
	full, err := p.resolve(share, path)
	if err != nil {
		return nil, nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	if err := w.Add(full); err != nil {
		w.Close()
		return nil, nil, err
	}
	if watchTree {
		_ = filepath.WalkDir(full, func(p string, d os.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			return w.Add(p)
		})
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if translated, ok := translateFsnotifyEvent(ev); ok {
					select {
					case out <- translated:
					case <-ctx.Done():
						return
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.WarnCtx(ctx, "directory watch error", "error", err, "path", full)
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { w.Close() }
	return out, cancel, nil
}

// translateFsnotifyEvent maps an fsnotify event to the registry.Action*
// codes, written as literals because registry imports spi.
func translateFsnotifyEvent(ev fsnotify.Event) (Event, bool) {
	switch {
	case ev.Has(fsnotify.Create):
		return Event{Action: 0x00000001, Path: ev.Name}, true // ActionAdded
	case ev.Has(fsnotify.Remove):
		return Event{Action: 0x00000002, Path: ev.Name}, true // ActionRemoved
	case ev.Has(fsnotify.Write):
		return Event{Action: 0x00000003, Path: ev.Name}, true // ActionModified
	case ev.Has(fsnotify.Rename):
		return Event{Action: 0x00000002, Path: ev.Name}, true // ActionRemoved
	default:
		return Event{}, false
	}
}

func infoFromOS(info os.FileInfo) FileInfo {
	return FileInfo{
		Name:       info.Name(),
		IsDir:      info.IsDir(),
		Size:       info.Size(),
		WrittenAt:  info.ModTime(),
		ChangedAt:  info.ModTime(),
		AccessedAt: info.ModTime(),
		CreatedAt:  info.ModTime(),
		ReadOnly:   info.Mode()&0o200 == 0,
	}
}

type localFileHandle struct {
	f *os.File
}

func (h *localFileHandle) ReadAt(p []byte, off int64) (int, error)  { return h.f.ReadAt(p, off) }
func (h *localFileHandle) WriteAt(p []byte, off int64) (int, error) { return h.f.WriteAt(p, off) }
func (h *localFileHandle) Close() error                             { return h.f.Close() }
func (h *localFileHandle) Flush(ctx context.Context) error          { return h.f.Sync() }
func (h *localFileHandle) Truncate(ctx context.Context, size int64) error {
	return h.f.Truncate(size)
}
func (h *localFileHandle) Stat(ctx context.Context) (FileInfo, error) {
	info, err := h.f.Stat()
	if err != nil {
		return FileInfo{}, err
	}
	return infoFromOS(info), nil
}
func (h *localFileHandle) ReadDir(ctx context.Context) ([]FileInfo, error) {
	return nil, errNotADirectory
}

var errNotADirectory = errors.New("spi: not a directory")

type localDirHandle struct {
	path string
}

func (d *localDirHandle) ReadAt(p []byte, off int64) (int, error)  { return 0, io.EOF }
func (d *localDirHandle) WriteAt(p []byte, off int64) (int, error) { return 0, errNotADirectory }
func (d *localDirHandle) Close() error                             { return nil }
func (d *localDirHandle) Flush(ctx context.Context) error          { return nil }
func (d *localDirHandle) Truncate(ctx context.Context, size int64) error {
	return errNotADirectory
}
func (d *localDirHandle) Stat(ctx context.Context) (FileInfo, error) {
	info, err := os.Stat(d.path)
	if err != nil {
		return FileInfo{}, err
	}
	return infoFromOS(info), nil
}
func (d *localDirHandle) ReadDir(ctx context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, infoFromOS(info))
	}
	return out, nil
}
