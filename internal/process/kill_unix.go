//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// Setpgid puts the command in its own process group so a timeout kill
// reaches renderer child processes too (mmdc spawns a headless browser).
func Setpgid(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// KillGroup kills a process and all its children by sending SIGKILL to the
// process group (negative PID). Best-effort; the error is ignored because
// exec.CommandContext kills the direct child as a fallback.
func KillGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
