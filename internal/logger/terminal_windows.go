//go:build windows

package logger

import "golang.org/x/sys/windows"

// isTerminal reports whether fd refers to an interactive console.
func isTerminal(fd uintptr) bool {
	var mode uint32
	err := windows.GetConsoleMode(windows.Handle(fd), &mode)
	return err == nil
}
