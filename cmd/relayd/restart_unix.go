//go:build unix

package main

import (
	"os"
	"syscall"
)

// restart replaces the current process with a fresh copy of itself, so the
// new configuration is read from scratch. Does not return on success.
func restart() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	return syscall.Exec(exe, os.Args, os.Environ())
}
