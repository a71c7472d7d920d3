//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package output

import "io"

// DefaultWidth is used when the writer is not a terminal.
const DefaultWidth = 80

// Width returns DefaultWidth; terminal size is not queried on this platform.
func Width(io.Writer) int {
	return DefaultWidth
}

// IsTerminal always reports false on this platform.
func IsTerminal(io.Writer) bool {
	return false
}
