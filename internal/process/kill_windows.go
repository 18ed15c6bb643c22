//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// Setpgid is a no-op on Windows; process groups work differently there.
func Setpgid(cmd *exec.Cmd) {}

// KillGroup uses taskkill to terminate the process tree. Best-effort.
func KillGroup(pid int) {
	kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid))
	_ = kill.Run()
}
