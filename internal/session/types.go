package session

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/grasp"
	"github.com/san-kum/graspsim/internal/physics"
)

// Backend is the physics the session steps: the grasp backend plus the
// fixed step and hand trigger volumes.
type Backend interface {
	physics.Backend
	Step(dt float64)
	AddTrigger(owner physics.BodyID, offset mgl64.Vec3, radius float64, listener func(physics.TriggerEvent)) physics.TriggerID
}

// Push is an external force applied to a body at the start of a tick.
type Push struct {
	Body  physics.BodyID
	Force mgl64.Vec3
	Mode  physics.ForceMode
}

// Frame is one tick of input. Inputs are indexed like the session's hands;
// a hand without an entry keeps its previous target and button state.
type Frame struct {
	Inputs []*grasp.Input
	Pushes []Push
}

type Source interface {
	Frame(tick uint64) Frame
}

// SourceFunc adapts a function to [Source].
type SourceFunc func(tick uint64) Frame

func (f SourceFunc) Frame(tick uint64) Frame { return f(tick) }

type HandSample struct {
	Position      mgl64.Vec3
	Target        mgl64.Vec3
	State         grasp.State
	Held          grasp.GrabbableID
	Candidate     grasp.GrabbableID
	Fingers       []float64
	Force         mgl64.Vec3
	Torque        mgl64.Vec3
	TrackingError float64
}

// Sample is what one tick produced.
type Sample struct {
	Tick   uint64
	Time   float64
	Hands  []HandSample
	Events []grasp.Event
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(s Sample)
}

type Result struct {
	Samples    []Sample
	Events     []grasp.Event
	Metrics    map[string]float64
	TicksTaken int
}
