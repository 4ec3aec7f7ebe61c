//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package main

import "os"

// isTerminal returns false. Terminal detection is not supported on this
// platform.
func isTerminal(f *os.File) bool {
	return false
}
