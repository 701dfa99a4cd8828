// Package game wires the trail components into one Engine and drives it
// from the terminal.
package game

// State represents the current input mode.
type State int

const (
	// StateExplore is the default mode: roll, move on and manage the day.
	StateExplore State = iota
	// StateReveal waits for the player to pick one of the hidden options.
	StateReveal
	// StateMinigame waits for the player's minigame choice.
	StateMinigame
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateExplore:
		return "explore"
	case StateReveal:
		return "reveal"
	case StateMinigame:
		return "minigame"
	default:
		return "unknown"
	}
}
