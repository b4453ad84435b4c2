//go:build windows

package helper

import "os/exec"

// configureProcessGroup is a no-op on Windows; cmd.Cancel falls back to
// the standard library's default of killing the process directly.
func configureProcessGroup(cmd *exec.Cmd) {}
