// Package notify implements the NT_TRANSACT_NOTIFY_CHANGE change-listener
// engine: register a watch under (connectionId, MID), wait for the first
// qualifying filesystem event, and deliver it as an out-of-band response
// reusing the original request's MID/TID/UID/PID, per spec §4.7. It is
// grounded on dittofs's v2 change-notify handler idiom, generalized from
// SMB2's lease/oplock-break callback style to SMB1's single-shot delayed
// response.
package notify

import (
	"context"
	"sync"

	"github.com/oxbowlabs/smb1d/internal/logger"
	"github.com/oxbowlabs/smb1d/internal/smb1/registry"
	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
)

// Sender delivers the out-of-band NT_TRANSACT_NOTIFY_CHANGE response,
// built from the chunks this engine assembles, reusing the original
// MID/TID/UID/PID.
type Sender func(chunks []byte)

type activeWatch struct {
	cancel func()
	key    listenerKey
}

type listenerKey struct {
	connectionID uint64
	mid          uint16
}

// Engine tracks every active change-listener server-wide, keyed by
// (connectionID, MID) so NT_CANCEL and connection teardown can find and
// drop them.
type Engine struct {
	mu      sync.Mutex
	watches map[listenerKey]*activeWatch
}

func NewEngine() *Engine {
	return &Engine{watches: make(map[listenerKey]*activeWatch)}
}

// Register starts watching a directory on behalf of one
// NT_TRANSACT_NOTIFY_CHANGE request. It fires Sender at most once, then
// deregisters itself. completionFilter is accepted for future per-action
// filtering; the current SPI event stream does not yet distinguish finer
// than Added/Removed/Modified/Renamed.
func (e *Engine) Register(ctx context.Context, provider spi.Provider, connectionID uint64, tid, mid, uid, pid uint16, share, path string, watchTree bool, completionFilter uint32, send Sender) error {
	watchCtx, cancel := context.WithCancel(ctx)

	events, providerCancel, err := provider.WatchDirectory(watchCtx, share, path, watchTree)
	if err != nil {
		cancel()
		return err
	}

	key := listenerKey{connectionID: connectionID, mid: mid}
	e.mu.Lock()
	e.watches[key] = &activeWatch{cancel: func() { providerCancel(); cancel() }, key: key}
	e.mu.Unlock()

	go func() {
		defer e.deregister(key)

		collected := make([]registry.ChangeEvent, 0, 2)
		for ev := range events {
			collected = append(collected, registry.ChangeEvent{Action: ev.Action, FileName: baseName(ev.Path)})
			if ev.Action == registry.ActionRenamedOldName && ev.NewPath != "" {
				collected = append(collected, registry.ChangeEvent{Action: registry.ActionRenamedNewName, FileName: baseName(ev.NewPath)})
			}
			break // a listener fires at most once, per spec §4.7
		}

		if len(collected) == 0 {
			return // context canceled before any event arrived
		}

		logger.DebugCtx(ctx, "change-notify firing", "tid", tid, "mid", mid, "events", len(collected))
		send(EncodeChunks(collected))
	}()

	return nil
}

// Cancel deregisters the listener under (connectionID, mid), if any,
// matching NT_CANCEL's (TID, MID) semantics at the connection scope.
func (e *Engine) Cancel(connectionID uint64, mid uint16) bool {
	return e.deregister(listenerKey{connectionID: connectionID, mid: mid})
}

// CancelAllForConnection drops every listener rooted in a connection,
// silently, on connection close.
func (e *Engine) CancelAllForConnection(connectionID uint64) {
	e.mu.Lock()
	var toCancel []listenerKey
	for k := range e.watches {
		if k.connectionID == connectionID {
			toCancel = append(toCancel, k)
		}
	}
	e.mu.Unlock()

	for _, k := range toCancel {
		e.deregister(k)
	}
}

func (e *Engine) deregister(key listenerKey) bool {
	e.mu.Lock()
	w, ok := e.watches[key]
	if ok {
		delete(e.watches, key)
	}
	e.mu.Unlock()

	if ok {
		w.cancel()
	}
	return ok
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
