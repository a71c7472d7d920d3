// Package main provides the hshchk command, which creates or verifies a
// checksum manifest for a directory tree.
package main

import (
	"os"
)

func main() {
	os.Exit(exitCode(Execute()))
}
