package dispatch

import (
	"encoding/binary"

	"github.com/oxbowlabs/smb1d/internal/logger"
	"github.com/oxbowlabs/smb1d/internal/smb1/auth"
	"github.com/oxbowlabs/smb1d/internal/smb1/registry"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// UserStore is injected by the server at construction time; it is the
// configured account table SESSION_SETUP_ANDX validates against.
var UserStore auth.UserStore = auth.MapUserStore{}

// AllowAnonymous mirrors the server configuration flag allowing a
// zero-length, zero-account login to succeed, per spec §4.3/§8 scenario 2.
var AllowAnonymous = false

// handleSessionSetup implements the non-extended-security path of
// SESSION_SETUP_ANDX: two password blobs are compared against the stored
// hashes for the account named in the data block, per spec §4.3.
func handleSessionSetup(hc *HandlerContext) (*HandlerResult, error) {
	params := hc.CommandParams()
	if len(params) < 22 {
		return errorResult(types.StatusInvalidSMB), nil
	}

	caseInsensitiveLen := int(binary.LittleEndian.Uint16(params[6:8]))
	caseSensitiveLen := int(binary.LittleEndian.Uint16(params[8:10]))

	data := hc.Body.Data
	if len(data) < caseInsensitiveLen+caseSensitiveLen {
		return errorResult(types.StatusInvalidSMB), nil
	}
	caseInsensitive := data[:caseInsensitiveLen]
	caseSensitive := data[caseInsensitiveLen : caseInsensitiveLen+caseSensitiveLen]

	rest := data[caseInsensitiveLen+caseSensitiveLen:]
	account, n := wire.ReadASCIIString(rest, 0)
	domain := ""
	if n < len(rest) {
		domain, _ = wire.ReadASCIIString(rest, n+1) // skip the account's NUL
	}

	challenge := hc.Conn.Challenge
	if challenge == nil {
		return errorResult(types.StatusInvalidSMB), nil
	}

	if err := auth.ValidateSessionSetup(UserStore, account, domain, challenge, caseInsensitive, caseSensitive, AllowAnonymous); err != nil {
		logger.InfoCtx(hc.Ctx, "session setup failed", "account", account, "error", err)
		return errorResult(types.StatusLogonFailure), nil
	}

	sess := hc.Conn.Sessions.Create(account, domain, 0, nil)
	if hc.Conn.OnSessionCreated != nil {
		hc.Conn.OnSessionCreated(sess.UID)
	}

	respParams := make([]byte, 4) // action word + reserved
	data2 := wire.WriteUTF16String("smb1d")
	data2 = append(data2, wire.WriteUTF16String("smb1d")...)
	data2 = append(data2, wire.WriteUTF16String(domain)...)

	hc.Header.UID = sess.UID
	return &HandlerResult{Body: wire.Body{Params: respParams, Data: data2}, Status: types.StatusSuccess}, nil
}

// handleLogoff destroys the session named by the header's UID, cascading
// to every tree rooted in it, per spec §3/§5.
func handleLogoff(hc *HandlerContext) (*HandlerResult, error) {
	CleanupSession(hc.Conn, hc.Session.UID)
	return &HandlerResult{Body: wire.Body{}, Status: types.StatusSuccess}, nil
}

// CleanupSession tears a session down, cascading to every tree (and in
// turn every file and change-listener) it owns, per spec §3's "destroy
// cascades" invariant. It is exported so the connection adapter can apply
// the identical cleanup for sessions still open when the client
// disconnects without logging off, per spec §5.
func CleanupSession(conn *ConnState, uid uint16) {
	for _, tree := range conn.Trees.AllForSession(uid) {
		closeTreeCascade(conn, tree)
		conn.Trees.Destroy(tree.TID)
	}
	conn.Sessions.Destroy(uid)
	if conn.OnSessionDestroyed != nil {
		conn.OnSessionDestroyed(uid)
	}
}

func closeTreeCascade(conn *ConnState, tree *registry.Tree) {
	for _, l := range tree.AllListeners() {
		conn.Notify.Cancel(conn.ConnectionID, l.MID)
	}
	for _, f := range tree.AllFiles() {
		if pf, ok := f.Provider.(closer); ok {
			_ = pf.Close()
		}
	}
}

type closer interface{ Close() error }
