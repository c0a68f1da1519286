// Package notify translates coordination events -- raised by the agent via
// `loom notify <action>` or by the loops themselves -- into control-flow
// decisions gated by the permission mode. The handler holds no state across
// invocations beyond what it reads from the lock file; every action is
// independent and idempotent.
package notify

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/loomdev/loom/internal/agent"
	"github.com/loomdev/loom/internal/ipc"
)

// Action names accepted by the dispatcher.
const (
	ActionComplete      = "complete"
	ActionPlanReady     = "plan-ready"
	ActionTasksReady    = "tasks-ready"
	ActionWatchComplete = "watch-complete"
	ActionError         = "error"
)

// Decision is the control-flow outcome of handling an action.
type Decision struct {
	Proceed bool   // Whether the caller should continue to the next phase
	Message string // Operator-facing summary
}

// Handler dispatches notify actions.
type Handler struct {
	Mode       agent.Mode
	LockPath   string
	SignalPath string
	In         io.Reader // Prompt input (stdin in production)
	Out        io.Writer // Prompt output
}

// Handle dispatches a single action. detail carries action-specific payload
// (the error text for "error"). Unknown actions are an error.
func (h *Handler) Handle(action, detail string) (Decision, error) {
	switch action {
	case ActionComplete:
		return h.handleComplete()
	case ActionPlanReady:
		return h.confirm("Plan is ready. Continue to task generation?")
	case ActionTasksReady:
		return h.confirm("Tasks are ready. Continue to build?")
	case ActionWatchComplete:
		return Decision{Proceed: true, Message: "Watch batch processed."}, nil
	case ActionError:
		if detail == "" {
			detail = "unspecified error"
		}
		return Decision{}, fmt.Errorf("agent reported error: %s", detail)
	default:
		return Decision{}, fmt.Errorf("unknown notify action %q", action)
	}
}

// handleComplete records a completion signal for the task named in the lock
// file and cleans the lock up. The agent calls this when it finishes a task
// while its process is still attached to the terminal, so completion can't
// wait for process exit. A missing lock file means there is nothing to
// signal; that is not an error.
func (h *Handler) handleComplete() (Decision, error) {
	rec := ipc.ReadLock(h.LockPath)
	if rec == nil {
		return Decision{Proceed: true, Message: "No active run to complete."}, nil
	}

	if rec.TaskID != 0 {
		sig := ipc.CompletionSignal{
			TaskID:      rec.TaskID,
			StartedAt:   rec.Started,
			CompletedAt: time.Now().Format(time.RFC3339),
		}
		if err := ipc.WriteSignal(h.SignalPath, sig); err != nil {
			return Decision{}, err
		}
	}

	if err := ipc.CleanupLock(h.LockPath); err != nil {
		return Decision{}, err
	}

	return Decision{Proceed: true, Message: fmt.Sprintf("Task %d marked complete.", rec.TaskID)}, nil
}

// confirm prompts at a decision point unless the mode auto-continues.
func (h *Handler) confirm(question string) (Decision, error) {
	if h.Mode.AutoContinue() {
		return Decision{Proceed: true, Message: question + " (auto-continue)"}, nil
	}

	fmt.Fprintf(h.Out, "%s [y/N]: ", question)

	reader := bufio.NewReader(h.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return Decision{Proceed: false, Message: "No answer, not continuing."}, nil
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	if answer == "y" || answer == "yes" {
		return Decision{Proceed: true, Message: "Continuing."}, nil
	}
	return Decision{Proceed: false, Message: "Stopping here."}, nil
}
