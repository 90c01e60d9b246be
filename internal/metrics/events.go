package metrics

import (
	"github.com/san-kum/graspsim/internal/grasp"
	"github.com/san-kum/graspsim/internal/session"
)

// EventCount counts grasp events of one kind.
type EventCount struct {
	name  string
	kind  grasp.EventKind
	count int
}

func NewEventCount(name string, kind grasp.EventKind) *EventCount {
	return &EventCount{name: name, kind: kind}
}

func (e *EventCount) Name() string {
	return e.name
}

func (e *EventCount) Observe(s session.Sample) {
	for _, ev := range s.Events {
		if ev.Kind == e.kind {
			e.count++
		}
	}
}

func (e *EventCount) Value() float64 {
	return float64(e.count)
}

func (e *EventCount) Reset() {
	e.count = 0
}

// Default returns the standard metric set of a run.
func Default() []session.Metric {
	return []session.Metric{
		NewTrackingError(),
		NewControlEffort(),
		NewEventCount("grabs", grasp.EventGrabbed),
		NewEventCount("fit_failures", grasp.EventFitFailed),
		NewEventCount("releases", grasp.EventReleased),
		NewEventCount("joint_breaks", grasp.EventJointBroken),
	}
}

// Names lists the metric names of Default in order.
func Names() []string {
	ms := Default()
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name()
	}
	return names
}
