package grasp

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/graspsim/internal/control"
	"github.com/san-kum/graspsim/internal/fingers"
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/sched"
	"github.com/san-kum/graspsim/internal/spatial"
)

type State int

const (
	Idle State = iota
	HasCandidate
	Fitting
	Attached
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case HasCandidate:
		return "has_candidate"
	case Fitting:
		return "fitting"
	case Attached:
		return "attached"
	default:
		return "unknown"
	}
}

// HandConfig is the per-hand tuning. FingerStep is the closing parameter
// advance per tick; SelectRange enables the distance selector when positive.
type HandConfig struct {
	Side          Side
	Palm          Palm
	Gains         control.Gains
	DefaultSpring control.Spring
	BreakForce    float64
	BreakTorque   float64
	SettlingTicks int
	FingerStep    float64
	SelectRange   float64
	Poses         *fingers.PoseSet
	Fingers       []*fingers.Chain
}

// Env is what a hand shares with the rest of the session.
type Env struct {
	Backend      physics.Backend
	Registry     *Registry
	Scheduler    *sched.Scheduler
	TickDuration float64
	Logger       *slog.Logger
}

// Input is one tick of tracking data for a hand.
type Input struct {
	Target  spatial.Pose
	Grip    bool
	Pointer bool
	Aim     spatial.Pose
}

// Hand drives one tracked body and runs its grasp state machine.
type Hand struct {
	id   HandID
	body physics.BodyID
	cfg  HandConfig

	backend  physics.Backend
	registry *Registry
	sched    *sched.Scheduler
	logger   *slog.Logger
	pd       *control.PosePD
	fingers  *fingers.Driver
	selector *Selector

	target     spatial.Pose
	grip       bool
	candidates CandidateSet
	outline    GrabbableID
	held       GrabbableID
	joint      *JointProxy
	sweep      *fingers.Sweep
	last       control.Output

	listeners []func(Event)
}

// NewHand builds a hand around body. Finger chains are validated against
// the pose set and opened; an authoring error such as a chain without a tip
// detector is returned here rather than surfacing later.
func NewHand(id HandID, body physics.BodyID, cfg HandConfig, env Env) (*Hand, error) {
	if _, ok := env.Backend.Body(body); !ok {
		return nil, fmt.Errorf("grasp: hand %d: unknown body %d", id, body)
	}
	if cfg.Poses == nil {
		return nil, fmt.Errorf("grasp: hand %d: %w", id, fingers.ErrPoseSetShape)
	}
	driver, err := fingers.NewDriver(cfg.Poses, cfg.Fingers, cfg.FingerStep)
	if err != nil {
		return nil, fmt.Errorf("grasp: hand %d: %w", id, err)
	}
	logger := env.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	h := &Hand{
		id:       id,
		body:     body,
		cfg:      cfg,
		backend:  env.Backend,
		registry: env.Registry,
		sched:    env.Scheduler,
		logger:   logger.With("hand", int(id), "side", cfg.Side.String()),
		pd:       control.NewPosePD(cfg.Gains, env.TickDuration),
		fingers:  driver,
		outline:  NoGrabbable,
		held:     NoGrabbable,
	}
	if st, ok := env.Backend.Body(body); ok {
		h.target = spatial.NewPose(st.Position, st.Rotation)
	}
	if cfg.SelectRange > 0 {
		h.selector = NewSelector(env.Backend, env.Registry, h.selectorOwner(), cfg.SelectRange)
	}
	return h, nil
}

func (h *Hand) ID() HandID                  { return h.id }
func (h *Hand) Side() Side                  { return h.cfg.Side }
func (h *Hand) Body() physics.BodyID        { return h.body }
func (h *Hand) Config() HandConfig          { return h.cfg }
func (h *Hand) Target() spatial.Pose        { return h.target }
func (h *Hand) Fingers() *fingers.Driver    { return h.fingers }
func (h *Hand) Controller() *control.PosePD { return h.pd }
func (h *Hand) Selector() *Selector         { return h.selector }

// LastOutput is the controller output of the most recent control tick.
func (h *Hand) LastOutput() control.Output { return h.last }

// Held returns the grabbable this hand holds, including one still fitting.
func (h *Hand) Held() (GrabbableID, bool) {
	return h.held, h.held != NoGrabbable
}

// Outline returns the grabbable this hand currently lights.
func (h *Hand) Outline() (GrabbableID, bool) {
	return h.outline, h.outline != NoGrabbable
}

// Joint returns the active joint proxy, if any.
func (h *Hand) Joint() *JointProxy { return h.joint }

func (h *Hand) Candidates() *CandidateSet { return &h.candidates }

func (h *Hand) State() State {
	switch {
	case h.held != NoGrabbable && h.joint != nil && h.joint.Exists():
		return Attached
	case h.held != NoGrabbable:
		return Fitting
	}
	if _, ok := h.Candidate(); ok {
		return HasCandidate
	}
	return Idle
}

// Pose is the driven body's current pose.
func (h *Hand) Pose() spatial.Pose {
	st, ok := h.backend.Body(h.body)
	if !ok {
		return spatial.Identity()
	}
	return spatial.NewPose(st.Position, st.Rotation)
}

func (h *Hand) outlineOwner() OutlineOwner  { return OutlineOwner(2 * int(h.id)) }
func (h *Hand) selectorOwner() OutlineOwner { return OutlineOwner(2*int(h.id) + 1) }

// Candidate returns the best grab candidate: the earliest overlapping
// grabbable whose category this hand accepts and that it does not hold.
func (h *Hand) Candidate() (GrabbableID, bool) {
	mask := h.registry.Categories().Candidates(h.cfg.Side)
	return h.candidates.Best(func(id GrabbableID) bool {
		g, ok := h.registry.Get(id)
		if !ok || g.HeldBy(h.id) {
			return false
		}
		return h.registry.Category(g).Matches(mask)
	})
}

// HandleTrigger feeds an overlap event from the hand's trigger volume.
// Bodies that are not registered grabbables are ignored.
func (h *Hand) HandleTrigger(ev physics.TriggerEvent) {
	if !ev.Enter {
		h.candidates.Exit(ev.Collider)
		return
	}
	if g, ok := h.registry.ByBody(ev.Body); ok {
		h.candidates.Enter(ev.Collider, g.ID)
	}
}

// Update consumes one tick of input: it stores the target and acts on grip
// press and release edges.
func (h *Hand) Update(in Input) {
	h.target = in.Target
	pressed := in.Grip && !h.grip
	released := !in.Grip && h.grip
	h.grip = in.Grip

	if h.selector != nil {
		active := in.Pointer && h.held == NoGrabbable && h.outline == NoGrabbable
		h.selector.Update(in.Aim, active)
	}

	switch {
	case pressed && h.held == NoGrabbable:
		err := h.Grab()
		if errors.Is(err, ErrNoCandidate) && h.selector != nil {
			if id, ok := h.selector.Selected(); ok {
				err = h.pull(id)
			}
		}
		if err != nil && !errors.Is(err, ErrNoCandidate) {
			h.logger.Debug("grab attempt failed", "tick", h.sched.Tick(), "err", err)
		}
	case released:
		h.Release()
	}
}

// RefreshOutline lights the best candidate and clears the previous one.
// A holding hand lights nothing.
func (h *Hand) RefreshOutline() {
	next := NoGrabbable
	if h.held == NoGrabbable {
		if id, ok := h.Candidate(); ok {
			next = id
		}
	}
	if next == h.outline {
		return
	}
	if h.outline != NoGrabbable {
		h.registry.SetOutline(h.outline, h.outlineOwner(), false)
	}
	if next != NoGrabbable {
		h.registry.SetOutline(next, h.outlineOwner(), true)
	}
	h.outline = next
}

// Spring is the spring the controller uses this tick.
func (h *Hand) Spring() control.Spring {
	if h.State() == Attached {
		if g, ok := h.registry.Get(h.held); ok && g.Spring.Frequency > 0 {
			return g.Spring
		}
	}
	return h.cfg.DefaultSpring
}

// Control runs the pose controller toward the target. It runs every tick
// whatever the grasp state.
func (h *Hand) Control() control.Output {
	out, _ := h.pd.Drive(h.backend, h.body, h.target, h.Spring())
	h.last = out
	return out
}

// Grab takes the current best candidate.
func (h *Hand) Grab() error {
	if h.held != NoGrabbable {
		return ErrAlreadyHolding
	}
	id, ok := h.Candidate()
	if !ok {
		return ErrNoCandidate
	}
	return h.grab(id)
}

// pull brings a distance-selected grabbable to the palm and grabs it. The
// object is placed one sweep length ahead of the palm, then slid back along
// the forward axis until its surface meets the palm. A failed grab puts it
// back where it was.
func (h *Hand) pull(id GrabbableID) error {
	g, ok := h.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownGrabbable, id)
	}
	st, ok := h.backend.Body(g.Body)
	if !ok {
		return fmt.Errorf("%w: body %d", ErrUnknownGrabbable, g.Body)
	}
	palm := h.cfg.Palm.Frame(h.Pose())
	fwd := palm.Forward()
	reach := h.cfg.Palm.SweepDistance
	h.backend.Translate(g.Body, palm.Position.Add(fwd.Mul(reach)).Sub(st.Position))

	mask := h.registry.Categories().Candidates(h.cfg.Side)
	for _, hit := range h.backend.SphereCastAll(palm.Position, fwd, 0, reach, mask) {
		if hit.Body == g.Body {
			h.backend.Translate(g.Body, fwd.Mul(-hit.Distance))
			break
		}
	}

	if err := h.grab(id); err != nil {
		if cur, ok := h.backend.Body(g.Body); ok {
			h.backend.Translate(g.Body, st.Position.Sub(cur.Position))
		}
		return err
	}
	h.selector.Clear()
	h.logger.Debug("pulled selected object", "grabbable", int(id), "tick", h.sched.Tick())
	return nil
}

func (h *Hand) grab(id GrabbableID) error {
	g, ok := h.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownGrabbable, id)
	}
	tick := h.sched.Tick()
	h.held = id

	mask := h.registry.Categories().Candidates(h.cfg.Side)
	fit, ok := h.cfg.Palm.Sweep(h.backend, h.Pose(), g.Body, mask)
	if !ok {
		h.held = NoGrabbable
		err := &FitError{Hand: h.id, Grabbable: id, Hits: fit.Hits}
		h.logger.Debug("palm fit failed", "grabbable", int(id), "tick", tick, "hits", fit.Hits)
		h.emit(Event{Kind: EventFitFailed, Grabbable: id, Tick: tick, Err: err})
		return err
	}
	if err := h.registry.hold(g, h.id, h.cfg.Side); err != nil {
		h.held = NoGrabbable
		return err
	}
	h.backend.Translate(g.Body, fit.Offset)

	if h.outline != NoGrabbable {
		h.registry.SetOutline(h.outline, h.outlineOwner(), false)
		h.outline = NoGrabbable
	}

	owner := sched.Owner(h.id)
	h.sweep = h.fingers.Sweep(h.backend, h.registry.Categories().AnyGrabbable(), h.Pose)
	h.sched.Start(owner, "close_fingers", h.sweep, 1)

	h.joint = NewJointProxy(h.backend, h.body, g.Body, h.cfg.BreakForce, h.cfg.BreakTorque, h.cfg.SettlingTicks)
	h.joint.OnStage(h.jointStage)
	h.sched.Start(owner, "joint", h.joint, 1)

	h.logger.Info("grabbed", "grabbable", int(id), "name", g.Name, "tick", tick)
	h.emit(Event{Kind: EventGrabbed, Grabbable: id, Tick: tick})
	return nil
}

func (h *Hand) jointStage(stage JointStage, tick uint64) {
	switch stage {
	case JointSettling:
		h.logger.Debug("joint created", "grabbable", int(h.held), "joint", int(h.joint.ID()), "tick", tick)
		h.emit(Event{Kind: EventAttached, Grabbable: h.held, Tick: tick})
	case JointArmed:
		h.logger.Debug("joint armed", "grabbable", int(h.held), "tick", tick)
		h.emit(Event{Kind: EventArmed, Grabbable: h.held, Tick: tick})
	case JointFailed:
		h.logger.Warn("joint creation failed", "grabbable", int(h.held), "tick", tick)
		h.emit(Event{Kind: EventReleased, Grabbable: h.held, Tick: tick, Err: ErrJointCreate})
		h.release(tick)
	}
}

// Release lets go of the held object. Releasing an empty hand is a no-op
// and reports false.
func (h *Hand) Release() bool {
	if h.held == NoGrabbable {
		return false
	}
	tick := h.sched.Tick()
	id := h.held
	h.release(tick)
	h.logger.Info("released", "grabbable", int(id), "tick", tick)
	h.emit(Event{Kind: EventReleased, Grabbable: id, Tick: tick})
	return true
}

// HandleJointBreak is the backend's break callback. Breaks of joints this
// hand does not own are ignored; a second call for the same joint is a no-op.
func (h *Hand) HandleJointBreak(id physics.JointID) bool {
	if h.joint == nil || h.joint.ID() != id || !h.joint.Exists() {
		return false
	}
	tick := h.sched.Tick()
	held := h.held
	h.joint.Broke(tick)
	h.release(tick)
	h.logger.Info("joint broke", "grabbable", int(held), "joint", int(id), "tick", tick)
	h.emit(Event{Kind: EventJointBroken, Grabbable: held, Tick: tick})
	return true
}

func (h *Hand) release(tick uint64) {
	h.sched.CancelOwner(sched.Owner(h.id))
	if g, ok := h.registry.Get(h.held); ok {
		h.registry.release(g, h.id)
	}
	h.fingers.Open()
	if h.joint != nil {
		h.joint.Destroy(tick)
	}
	h.joint = nil
	h.sweep = nil
	h.held = NoGrabbable
}

// OnEvent registers a listener for grasp transitions.
func (h *Hand) OnEvent(fn func(Event)) {
	h.listeners = append(h.listeners, fn)
}

func (h *Hand) emit(ev Event) {
	ev.Hand = h.id
	ev.Side = h.cfg.Side
	for _, fn := range h.listeners {
		fn(ev)
	}
}
