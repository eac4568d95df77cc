// Goal status state machine.
//
// A goal starts pending and moves through at most two states:
//
//	pending    → accomplished | inProgress | abandoned | carriedForward
//	inProgress → accomplished | abandoned | carriedForward
//
// accomplished and abandoned are terminal. carriedForward is terminal for the
// origin goal; the carry-forward itself spawns exactly one pending successor
// goal in another letter (orchestrated by services.GoalService).
package domain

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	StatusPending        GoalStatus = "pending"
	StatusAccomplished   GoalStatus = "accomplished"
	StatusInProgress     GoalStatus = "inProgress"
	StatusAbandoned      GoalStatus = "abandoned"
	StatusCarriedForward GoalStatus = "carriedForward"
)

// Valid reports whether s is a member of the goal status set.
func (s GoalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccomplished, StatusInProgress, StatusAbandoned, StatusCarriedForward:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s GoalStatus) Terminal() bool {
	switch s {
	case StatusAccomplished, StatusAbandoned, StatusCarriedForward:
		return true
	}
	return false
}

// CanTransition reports whether a goal in state s may move to state to.
// Self-transitions are not allowed.
func (s GoalStatus) CanTransition(to GoalStatus) bool {
	if !to.Valid() || to == s {
		return false
	}
	switch s {
	case StatusPending:
		return to != StatusPending
	case StatusInProgress:
		return to == StatusAccomplished || to == StatusAbandoned || to == StatusCarriedForward
	default:
		// accomplished, abandoned, carriedForward: terminal.
		return false
	}
}

// Carried reports whether the goal has been carried forward and therefore
// must reference its successor.
func (g *Goal) Carried() bool { return g.Status == StatusCarriedForward }

// HasCarryTarget reports whether both halves of the forward reference are set.
func (g *Goal) HasCarryTarget() bool {
	return g.CarriedForwardToLetterID != nil && *g.CarriedForwardToLetterID != "" &&
		g.CarriedForwardToGoalID != nil && *g.CarriedForwardToGoalID != ""
}

// HasCarryOrigin reports whether both halves of the backward reference are set.
func (g *Goal) HasCarryOrigin() bool {
	return g.CarriedForwardFromLetterID != nil && *g.CarriedForwardFromLetterID != "" &&
		g.CarriedForwardFromGoalID != nil && *g.CarriedForwardFromGoalID != ""
}
