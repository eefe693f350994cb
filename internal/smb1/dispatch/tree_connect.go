package dispatch

import (
	"strings"

	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// ShareConfig is one configured share entry; the dispatch layer resolves
// TREE_CONNECT_ANDX against this table.
type ShareConfig struct {
	Name string
	Kind types.ShareType
}

// Shares is injected by the server at construction time.
var Shares = map[string]ShareConfig{}

// handleTreeConnect resolves the share named by the final path segment of
// the UNC path in the data block, per spec §4.5.
func handleTreeConnect(hc *HandlerContext) (*HandlerResult, error) {
	data := hc.Body.Data
	path, n := wire.ReadASCIIString(data, 0)
	service := ""
	if n < len(data) {
		service, _ = wire.ReadASCIIString(data, n+1) // skip the path's NUL
	}

	shareName := lastPathSegment(path)
	cfg, ok := Shares[strings.ToLower(shareName)]
	if !ok {
		return errorResult(types.StatusObjectPathNotFound), nil
	}

	if !serviceMatches(service, cfg.Kind) {
		return errorResult(types.StatusBadDeviceType), nil
	}

	tree := hc.Conn.Trees.Create(shareName, cfg.Kind, hc.Session.UID)
	hc.Header.TID = tree.TID

	respParams := make([]byte, 2) // optional support bits
	respData := wire.WriteASCIIString(cfg.Kind.String())
	respData = append(respData, wire.WriteASCIIString("NTFS")...)

	return &HandlerResult{Body: wire.Body{Params: respParams, Data: respData}, Status: types.StatusSuccess}, nil
}

func serviceMatches(requested string, kind types.ShareType) bool {
	if requested == "?????" {
		return true
	}
	switch kind {
	case types.ShareTypeDisk:
		return requested == "A:"
	case types.ShareTypeIPC:
		return requested == "IPC"
	case types.ShareTypePrinter:
		return requested == "LPT1:"
	case types.ShareTypeComm:
		return requested == "COMM"
	default:
		return true
	}
}

func lastPathSegment(path string) string {
	idx := strings.LastIndexByte(path, '\\')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// handleTreeDisconnect tears a tree down, cascading to its open files and
// change-listeners, per spec §3.
func handleTreeDisconnect(hc *HandlerContext) (*HandlerResult, error) {
	closeTreeCascade(hc.Conn, hc.Tree)
	hc.Conn.Trees.Destroy(hc.Tree.TID)
	return &HandlerResult{Body: wire.Body{}, Status: types.StatusSuccess}, nil
}
