// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package exitintent

// State is the controller's position in the exit-intent lifecycle.
type State int

const (
	// StateIdle means thresholds are not met yet or the session flag is
	// still loading.
	StateIdle State = iota
	// StateArmed means thresholds are met and the offer has not been shown.
	StateArmed
	// StateShown means the offer is visible.
	StateShown
	// StateDismissed means the offer was shown and closed. Terminal for the
	// session.
	StateDismissed
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateShown:
		return "shown"
	case StateDismissed:
		return "dismissed"
	default:
		return "idle"
	}
}

// ParseState parses a state name as returned by String.
func ParseState(name string) (State, bool) {
	for _, s := range []State{StateIdle, StateArmed, StateShown, StateDismissed} {
		if s.String() == name {
			return s, true
		}
	}
	return StateIdle, false
}

func deriveState(loaded, hasShown, visible, thresholdsMet bool) State {
	switch {
	case hasShown && visible:
		return StateShown
	case hasShown:
		return StateDismissed
	case loaded && thresholdsMet:
		return StateArmed
	default:
		return StateIdle
	}
}
