// Package agent spawns and supervises the external AI coding agent. The
// agent is a long-running, potentially interactive, third-party process
// attached to the controlling terminal, so it cannot be trusted to
// self-report completion through a return value; the lock file written by
// this package is the only externally observable handle on a run.
package agent

import (
	"fmt"
	"os/exec"
	"syscall"
)

// LockPathEnv carries the lock file path into the agent's environment so the
// child can update the record with its session id.
const LockPathEnv = "LOOM_LOCK_FILE"

// Invocation describes one agent run.
type Invocation struct {
	Command string   // Agent binary (e.g. "claude")
	Args    []string // Base args from config
	Mode    Mode     // Permission mode, mapped to CLI flags
	Prompt  string   // Task or comment-batch instruction text
	Dir     string   // Working directory (the target project)
	Env     []string // Extra KEY=VALUE entries appended to the environment
}

// buildArgs assembles the full argument list: base args, permission flags,
// then the prompt.
func (inv *Invocation) buildArgs() []string {
	args := append([]string{}, inv.Args...)
	args = append(args, inv.Mode.permissionArgs()...)
	if inv.Prompt != "" {
		args = append(args, inv.Prompt)
	}
	return args
}

// command creates the exec.Cmd for the invocation with process group
// isolation, so termination can take down the agent's whole subprocess tree.
func (inv *Invocation) command() (*exec.Cmd, error) {
	if inv.Command == "" {
		return nil, fmt.Errorf("agent command not configured")
	}
	cmd := exec.Command(inv.Command, inv.buildArgs()...)
	cmd.Dir = inv.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true, // New process group for signal propagation
	}
	return cmd, nil
}
