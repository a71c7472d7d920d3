//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package output

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// DefaultWidth is used when the writer is not a terminal.
const DefaultWidth = 80

// Width returns the column count of the terminal behind w.
func Width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return DefaultWidth
	}
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return DefaultWidth
	}
	return int(ws.Col)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	_, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	return err == nil
}
