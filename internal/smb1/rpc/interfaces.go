package rpc

// NDRTransferSyntaxUUID is the NDR v2.0 transfer-syntax UUID
// 8a885d04-1ceb-11c9-9fe8-08002b104860, the only transfer syntax this
// server accepts or offers.
var NDRTransferSyntaxUUID = SyntaxID{
	UUID: [16]byte{
		0x04, 0x5d, 0x88, 0x8a,
		0xeb, 0x1c,
		0xc9, 0x11,
		0x9f, 0xe8,
		0x08, 0x00, 0x2b, 0x10, 0x48, 0x60,
	},
	VersionMajor: 2,
}

// srvsvcUUID is 4b324fc8-1670-01d3-1278-5a47bf6ee188.
var srvsvcUUID = [16]byte{
	0xc8, 0x4f, 0x32, 0x4b,
	0x70, 0x16,
	0xd3, 0x01,
	0x12, 0x78,
	0x5a, 0x47, 0xbf, 0x6e, 0xe1, 0x88,
}

// lsarpcUUID is 12345778-1234-abcd-ef00-0123456789ab.
var lsarpcUUID = [16]byte{
	0x78, 0x57, 0x34, 0x12,
	0x34, 0x12,
	0xcd, 0xab,
	0xef, 0x00,
	0x01, 0x23, 0x45, 0x67, 0x89, 0xab,
}

// interfaceKey identifies one supported DCE/RPC interface by UUID and
// minor version, matching the bind contract's lookup key.
type interfaceKey struct {
	uuid  [16]byte
	minor uint16
}

// Interface is a server-side DCE/RPC interface: its pipe name and its
// request handler.
type Interface struct {
	PipeName string
	Handle   func(req *Request) []byte
}

// interfaceTable is the server's {uuid, version.minor}-keyed table of
// supported interfaces, per the bind contract.
func (m *PipeManager) interfaceTable() map[interfaceKey]*Interface {
	return map[interfaceKey]*Interface{
		{uuid: srvsvcUUID, minor: 0}: {PipeName: "srvsvc", Handle: m.srvsvc.HandleRequest},
		{uuid: lsarpcUUID, minor: 0}: {PipeName: "lsarpc", Handle: handleLsarpcRequest},
	}
}

func matchInterface(table map[interfaceKey]*Interface, abstract SyntaxID) (*Interface, bool) {
	iface, ok := table[interfaceKey{uuid: abstract.UUID, minor: abstract.VersionMinor}]
	return iface, ok
}

// handleLsarpcRequest stubs every lsarpc opnum with a fault, per the
// DCE/RPC contract's "all other operations may return
// fault(NCA_UNSPEC_REJECT)" allowance — this server only needs a real
// implementation for srvsvc.NetShareEnumAll.
func handleLsarpcRequest(req *Request) []byte {
	return BuildFault(req.Header.CallID, NCAUnspecReject)
}
