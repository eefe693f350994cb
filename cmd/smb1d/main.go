// Command smb1d runs the SMB1/CIFS server described by this module:
// NEGOTIATE through file operations, change notification, and the
// srvsvc/lsarpc DCE/RPC endpoint over named pipes. Grounded on dittofs's
// cmd/dittofs/main.go + commands/root.go split.
package main

import (
	"fmt"
	"os"

	"github.com/oxbowlabs/smb1d/cmd/smb1d/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
