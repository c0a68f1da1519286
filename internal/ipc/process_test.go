package ipc

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestAlive(t *testing.T) {
	if !Alive(os.Getpid()) {
		t.Error("own pid should be alive")
	}
	// Far above any real pid on a default Linux pid_max.
	if Alive(999999999) {
		t.Error("non-existent pid should not be alive")
	}
	if Alive(0) || Alive(-1) {
		t.Error("non-positive pids are never alive")
	}
}

// TestTerminate_DeadPid verifies an already-dead pid is treated as stopped:
// Terminate returns without error and lock cleanup still proceeds.
func TestTerminate_DeadPid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.lock")
	if err := WriteLock(path, LockRecord{PID: 999999999, Started: time.Now().Format(time.RFC3339)}); err != nil {
		t.Fatal(err)
	}

	Terminate(nil, 999999999, 10*time.Millisecond)

	if err := CleanupLock(path); err != nil {
		t.Fatalf("cleanup after terminating dead pid: %v", err)
	}
}

// TestTerminate_LiveProcess spawns a sleep in its own process group and
// checks that terminate actually brings it down.
func TestTerminate_LiveProcess(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	pid := cmd.Process.Pid

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	Terminate(nil, pid, 50*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("process still running after Terminate")
	}
}
