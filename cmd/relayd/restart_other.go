//go:build !unix

package main

import "os"

// restart launches a fresh copy of the current executable and lets the
// parent exit. Platforms without exec semantics get a child process
// instead of an in-place replacement.
func restart() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	_, err = os.StartProcess(exe, os.Args, &os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	})
	return err
}
