package ipc

import (
	"os"
	"syscall"
	"time"
)

// DefaultTerminateGrace is how long Terminate waits between SIGTERM and
// SIGKILL. A pure timing policy; overridable via config.
const DefaultTerminateGrace = 500 * time.Millisecond

// Alive probes pid with signal 0, the portable "is this pid running" check.
// No signal is actually delivered.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if pid == os.Getpid() {
		return true
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Terminate shuts down a child process in two phases: SIGTERM to the process
// group, a grace window, then SIGKILL if the process is still alive. The two
// phases balance prompt shutdown against abrupt data loss in the child.
// An already-dead pid is treated as already stopped. The handle is released
// either way.
func Terminate(proc *os.Process, pid int, grace time.Duration) {
	if grace <= 0 {
		grace = DefaultTerminateGrace
	}

	if Alive(pid) {
		// Negative pid signals the whole process group, so agent-spawned
		// children go down with it.
		_ = syscall.Kill(-pid, syscall.SIGTERM)

		time.Sleep(grace)

		if Alive(pid) {
			_ = syscall.Kill(-pid, syscall.SIGKILL)
		}
	}

	if proc != nil {
		_ = proc.Release()
	}
}
