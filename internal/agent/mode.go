package agent

import "fmt"

// Mode is the permission mode governing both the agent's CLI flags and the
// notify handler's prompting behavior. A closed enum so the two consumers
// stay in agreement.
type Mode int

const (
	// ModeInteractive prompts the user at every decision point and lets the
	// agent ask for approval on everything.
	ModeInteractive Mode = iota

	// ModeEditsOnly auto-approves file edits but prompts at loop decision
	// points.
	ModeEditsOnly

	// ModeAuto never prompts: the agent runs with all permissions and the
	// loop auto-continues at every decision point.
	ModeAuto
)

// ParseMode converts a config string to a Mode. An unknown mode is a fatal
// configuration error.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "interactive", "":
		return ModeInteractive, nil
	case "edits":
		return ModeEditsOnly, nil
	case "auto", "yolo":
		return ModeAuto, nil
	default:
		return ModeInteractive, fmt.Errorf("invalid permission mode %q (want auto, edits, or interactive)", s)
	}
}

// String returns the config-file spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeEditsOnly:
		return "edits"
	default:
		return "interactive"
	}
}

// AutoContinue reports whether loop decision points proceed without
// prompting.
func (m Mode) AutoContinue() bool { return m == ModeAuto }

// permissionArgs returns the CLI flags the mode maps to.
func (m Mode) permissionArgs() []string {
	switch m {
	case ModeAuto:
		return []string{"--dangerously-skip-permissions"}
	case ModeEditsOnly:
		return []string{"--permission-mode", "acceptEdits"}
	default:
		return nil
	}
}
