//go:build unix

package helper

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcessGroup puts the helper in its own process group and
// arranges for context cancellation to SIGTERM the whole group, so
// post-processing children (ffmpeg invoked internally by the helper)
// are stopped along with it.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
	}
}
