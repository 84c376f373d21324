package render

import "fmt"

// State is where the loop is within one tick.
type State int32

const (
	StateIdle State = iota
	StateCheck
	StateSkip
	StateDraw
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCheck:
		return "check"
	case StateSkip:
		return "skip"
	case StateDraw:
		return "draw"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Mode selects what a draw hands to the renderer.
type Mode int

const (
	// ModeFull passes a snapshot of every retained sample.
	ModeFull Mode = iota
	// ModeIncremental passes only samples newer than the previous draw.
	ModeIncremental
)

func (m Mode) String() string {
	if m == ModeIncremental {
		return "incremental"
	}
	return "full"
}

// ParseMode converts "full" or "incremental" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "full":
		return ModeFull, nil
	case "incremental":
		return ModeIncremental, nil
	default:
		return ModeFull, fmt.Errorf("unknown render mode %q (expected full or incremental)", s)
	}
}
