// Package types holds the closed enumerations the SMB1/CIFS protocol
// requires bit-exact: command ids, subcommand ids, flag bits, information
// levels, and NT status codes. Each enumeration follows the same
// typed-constant + String()/Has() idiom throughout.
package types

// Command identifies an SMB1 command by its one-byte wire id.
type Command uint8

// Command-ID map, per spec §6. Any id not named here maps to
// STATUS_SMB_BAD_COMMAND at dispatch time.
const (
	CmdDeleteDirectory     Command = 0x01
	CmdClose               Command = 0x04
	CmdFlush               Command = 0x05
	CmdDelete              Command = 0x06
	CmdRename              Command = 0x07
	CmdQueryInformation    Command = 0x08
	CmdSetInformation      Command = 0x09
	CmdCheckDirectory      Command = 0x10
	CmdLockingAndx         Command = 0x24
	CmdTransaction         Command = 0x25
	CmdTransactionSecond   Command = 0x26
	CmdEcho                Command = 0x2B
	CmdOpenAndx            Command = 0x2D
	CmdReadAndx            Command = 0x2E
	CmdWriteAndx           Command = 0x2F
	CmdTransaction2        Command = 0x32
	CmdTransaction2Second  Command = 0x33
	CmdFindClose2          Command = 0x34
	CmdTreeDisconnect      Command = 0x71
	CmdNegotiate           Command = 0x72
	CmdSessionSetupAndx    Command = 0x73
	CmdLogoffAndx          Command = 0x74
	CmdTreeConnectAndx     Command = 0x75
	CmdNTTransact          Command = 0xA0
	CmdNTTransactSecondary Command = 0xA1
	CmdNTCreateAndx        Command = 0xA2
	CmdNTCancel            Command = 0xA4
	CmdNTRename            Command = 0xA5
)

var commandNames = map[Command]string{
	CmdDeleteDirectory:     "delete_directory",
	CmdClose:               "close",
	CmdFlush:               "flush",
	CmdDelete:              "delete",
	CmdRename:              "rename",
	CmdQueryInformation:    "query_information",
	CmdSetInformation:      "set_information",
	CmdCheckDirectory:      "check_directory",
	CmdLockingAndx:         "locking_andx",
	CmdTransaction:         "transaction",
	CmdTransactionSecond:   "transaction_secondary",
	CmdEcho:                "echo",
	CmdOpenAndx:            "open_andx",
	CmdReadAndx:            "read_andx",
	CmdWriteAndx:           "write_andx",
	CmdTransaction2:        "transaction2",
	CmdTransaction2Second:  "transaction2_secondary",
	CmdFindClose2:          "find_close2",
	CmdTreeDisconnect:      "tree_disconnect",
	CmdNegotiate:           "negotiate",
	CmdSessionSetupAndx:    "session_setup_andx",
	CmdLogoffAndx:          "logoff_andx",
	CmdTreeConnectAndx:     "tree_connect_andx",
	CmdNTTransact:          "nt_transact",
	CmdNTTransactSecondary: "nt_transact_secondary",
	CmdNTCreateAndx:        "nt_create_andx",
	CmdNTCancel:            "nt_cancel",
	CmdNTRename:            "nt_rename",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Known reports whether c is a command the dispatcher has a table entry for.
func (c Command) Known() bool {
	_, ok := commandNames[c]
	return ok
}

// IsAndX reports whether c chains via the {next_cmd, reserved, next_offset}
// AndX linkage in its parameter block.
func (c Command) IsAndX() bool {
	switch c {
	case CmdLockingAndx, CmdOpenAndx, CmdReadAndx, CmdWriteAndx,
		CmdSessionSetupAndx, CmdTreeConnectAndx, CmdNTCreateAndx:
		return true
	default:
		return false
	}
}

// AndXNone is the next_cmd_id sentinel meaning "no further command".
const AndXNone Command = 0xFF

// Trans2Subcommand identifies a TRANSACTION2 subcommand.
type Trans2Subcommand uint16

const (
	Trans2FindFirst2           Trans2Subcommand = 0x01
	Trans2FindNext2            Trans2Subcommand = 0x02
	Trans2QueryFSInformation   Trans2Subcommand = 0x03
	Trans2QueryPathInformation Trans2Subcommand = 0x05
	Trans2SetPathInformation   Trans2Subcommand = 0x06
	Trans2QueryFileInformation Trans2Subcommand = 0x07
	Trans2SetFileInformation   Trans2Subcommand = 0x08
	Trans2CreateDirectory      Trans2Subcommand = 0x0D
	Trans2GetDFSReferral       Trans2Subcommand = 0x10
)

// NTTransactSubcommand identifies an NT_TRANSACT subcommand.
type NTTransactSubcommand uint16

const (
	NTTransactCreate       NTTransactSubcommand = 0x0001
	NTTransactIoctl        NTTransactSubcommand = 0x0002
	NTTransactNotifyChange NTTransactSubcommand = 0x0004
	NTTransactRename       NTTransactSubcommand = 0x0005
)

// TransactionSubcommand identifies a legacy TRANSACTION (named-pipe) call.
type TransactionSubcommand uint16

const TransTransactNmpipe TransactionSubcommand = 0x0026
