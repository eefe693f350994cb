package registry

// ChangeListener is created by NT_TRANSACT_NOTIFY_CHANGE. It holds no
// reference back to the connection that owns it; the connection layer is
// responsible for invoking Callback and for dropping every listener
// rooted in a connection when that connection closes, per spec §3's
// "weak reference" ownership note.
type ChangeListener struct {
	TID              uint16
	MID              uint16
	UID              uint16
	PID              uint16
	FileFID          uint16
	WatchTree        bool
	CompletionFilter uint32

	// Callback emits the out-of-band response reusing the original
	// MID/TID/UID/PID, as if it were the reply to NT_TRANSACT_NOTIFY_CHANGE.
	Callback func(events []ChangeEvent)
}

// ChangeEvent mirrors one FILE_NOTIFY_INFORMATION record's inputs.
type ChangeEvent struct {
	Action   uint32
	FileName string
}

// NOTIFY_CHANGE action codes carried in FILE_NOTIFY_INFORMATION.Action.
const (
	ActionAdded          uint32 = 0x00000001
	ActionRemoved        uint32 = 0x00000002
	ActionModified       uint32 = 0x00000003
	ActionRenamedOldName uint32 = 0x00000004
	ActionRenamedNewName uint32 = 0x00000005
)
