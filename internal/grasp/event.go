package grasp

type EventKind int

const (
	EventGrabbed EventKind = iota
	EventFitFailed
	EventAttached
	EventArmed
	EventReleased
	EventJointBroken
)

func (k EventKind) String() string {
	switch k {
	case EventGrabbed:
		return "grabbed"
	case EventFitFailed:
		return "fit_failed"
	case EventAttached:
		return "attached"
	case EventArmed:
		return "armed"
	case EventReleased:
		return "released"
	case EventJointBroken:
		return "joint_broken"
	default:
		return "unknown"
	}
}

// Event is a grasp transition reported by a hand.
type Event struct {
	Kind      EventKind
	Hand      HandID
	Side      Side
	Grabbable GrabbableID
	Tick      uint64
	Err       error
}
