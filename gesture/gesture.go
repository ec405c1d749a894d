// Package gesture implements the drag, resize and zoom/pan controllers as
// explicit per-gesture state machines over pure geometry.
package gesture

import (
	"github.com/neti77/anotequest-v1-sub000/core"
)

// State is the lifecycle of one gesture: Idle -> Active -> Committed or Cancelled.
type State int

const (
	Idle State = iota
	Active
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Outcome reports what releasing a gesture did.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeClick     Outcome = "click"
	OutcomeMoved     Outcome = "moved"
	OutcomeResized   Outcome = "resized"
	OutcomeDeleted   Outcome = "deleted"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeGone      Outcome = "gone"
)

// Items is the live board surface gestures act on.
type Items interface {
	Get(ref core.Ref) (core.Item, bool)
	Nudge(ref core.Ref, pos core.Position) bool
	Stretch(ref core.Ref, s core.Size) bool
	CommitLive(refs ...core.Ref) bool
	SoftDelete(ref core.Ref) (core.TrashEntry, bool)
	Revert()
}

// Scaler reports the current zoom.
type Scaler interface {
	Scale() float64
}
