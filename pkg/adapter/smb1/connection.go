package smb1

import (
	"context"
	"io"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/oxbowlabs/smb1d/internal/logger"
	"github.com/oxbowlabs/smb1d/internal/netbios"
	"github.com/oxbowlabs/smb1d/internal/smb1/dispatch"
	"github.com/oxbowlabs/smb1d/internal/smb1/trans2"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// Connection handles one accepted TCP socket end to end: NetBIOS framing,
// SMB1/SMB2 protocol sniffing, and dispatching each frame's AndX chain,
// following dittofs's pkg/adapter/smb Connection (read loop + per-request
// goroutine + panic recovery + session cleanup on close).
type Connection struct {
	server *Server
	conn   net.Conn
	connID uint64

	writeMu netbios.LockedWriter

	wg         sync.WaitGroup
	requestSem chan struct{}

	sessionsMu sync.Mutex
	sessions   map[uint16]struct{}

	state *dispatch.ConnState
}

func newConnection(server *Server, conn net.Conn) *Connection {
	connID := server.nextConnID.Add(1)
	c := &Connection{
		server:     server,
		conn:       conn,
		connID:     connID,
		requestSem: make(chan struct{}, 64),
		sessions:   make(map[uint16]struct{}),
	}

	c.state = &dispatch.ConnState{
		ConnectionID: connID,
		Logins:       server.logins,
		Sessions:     server.sessions,
		Trees:        server.trees,
		Provider:     server.provider,
		Notify:       server.notify,
		Pipes:        server.pipes,
		Trans2:       trans2.NewReassembler(),
		SendFrame:    c.sendFrame,
		OnSessionCreated: func(uid uint16) {
			c.sessionsMu.Lock()
			c.sessions[uid] = struct{}{}
			c.sessionsMu.Unlock()
		},
		OnSessionDestroyed: func(uid uint16) {
			c.sessionsMu.Lock()
			delete(c.sessions, uid)
			c.sessionsMu.Unlock()
		},
	}
	return c
}

// Serve reads and dispatches frames from the connection until the client
// disconnects, the context is cancelled, or a malformed frame is seen.
func (c *Connection) Serve(ctx context.Context) {
	addr := c.conn.RemoteAddr().String()
	logger.Debug("smb1: new connection", "address", addr)

	defer c.handleClose(addr)

	idle := c.server.config.IdleTimeout
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload, err := netbios.ReadFrame(ctx, c.conn, c.server.config.ReadTimeout)
		if err != nil {
			if err == io.EOF {
				logger.Debug("smb1: connection closed by client", "address", addr)
			} else {
				logger.Debug("smb1: read error", "address", addr, "error", err)
			}
			return
		}
		c.server.metrics.BytesTransferred("read", int64(len(payload)))

		if wire.IsSMB2OrLater(payload) {
			logger.Debug("smb1: rejecting SMB2+ dialect", "address", addr)
			return
		}
		if !wire.IsSMB1(payload) {
			logger.Debug("smb1: unrecognized protocol signature, closing", "address", addr)
			return
		}

		c.requestSem <- struct{}{}
		c.wg.Add(1)
		go func(frame []byte) {
			defer c.handleRequestPanic(addr)
			c.handleFrame(ctx, frame)
		}(payload)

		if idle > 0 {
			_ = c.conn.SetDeadline(time.Now().Add(idle))
		}
	}
}

func (c *Connection) handleFrame(ctx context.Context, payload []byte) {
	start := time.Now()
	out, err := dispatch.HandleMessage(ctx, c.state, payload)
	if err != nil {
		logger.DebugCtx(ctx, "smb1: handling frame failed", "error", err)
		return
	}
	if out == nil {
		return // null marker: handler already emitted its own responses, or none is owed
	}

	if err := netbios.WriteFrame(c.conn, &c.writeMu, c.server.config.WriteTimeout, out); err != nil {
		logger.DebugCtx(ctx, "smb1: write response failed", "error", err)
		return
	}
	c.server.metrics.BytesTransferred("write", int64(len(out)))
	c.server.metrics.CommandHandled("chain", "success", time.Since(start))
}

// sendFrame emits a full SMB1 response out of band of the request/response
// cycle, used by ECHO's multiple replies and by notify's delayed
// NT_TRANSACT_NOTIFY_CHANGE delivery.
func (c *Connection) sendFrame(header *wire.Header, body wire.Body) error {
	out := wire.EncodeHeader(header)
	out = append(out, wire.EncodeBody(body)...)
	return netbios.WriteFrame(c.conn, &c.writeMu, c.server.config.WriteTimeout, out)
}

func (c *Connection) handleRequestPanic(addr string) {
	defer func() { <-c.requestSem }()
	defer c.wg.Done()
	if r := recover(); r != nil {
		logger.Error("smb1: panic handling request", "address", addr, "error", r, "stack", string(debug.Stack()))
	}
}

// handleClose waits for in-flight requests, cascades cleanup for every
// session still open on this connection (spec §5: connection close
// destroys every resource it owns without requiring LOGOFF_ANDX), and
// closes the socket.
func (c *Connection) handleClose(addr string) {
	if r := recover(); r != nil {
		logger.Error("smb1: panic in connection handler", "address", addr, "error", r)
	}

	c.wg.Wait()

	c.sessionsMu.Lock()
	uids := make([]uint16, 0, len(c.sessions))
	for uid := range c.sessions {
		uids = append(uids, uid)
	}
	c.sessionsMu.Unlock()

	for _, uid := range uids {
		dispatch.CleanupSession(c.state, uid)
	}

	_ = c.conn.Close()
	logger.Debug("smb1: connection closed", "address", addr, "sessionsCleaned", len(uids))
}
