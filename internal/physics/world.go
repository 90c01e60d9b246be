package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/dynamo"
	"github.com/san-kum/graspsim/internal/spatial"
)

// SphereCollider is a sphere attached to a body at a local offset.
type SphereCollider struct {
	Offset mgl64.Vec3
	Radius float64
}

// BodyDef describes a body to add. Mass <= 0 makes it kinematic: forces and
// joints do not move it. A zero Inertia is derived as a solid sphere from
// the largest collider.
type BodyDef struct {
	Pose            spatial.Pose
	Mass            float64
	Inertia         mgl64.Vec3
	InertiaRotation mgl64.Quat
	UseGravity      bool
	Category        Category
	Colliders       []SphereCollider
}

// WorldConfig tunes the reference world. GroundY is the height of an
// infinite ground plane (NaN disables it); JointFrequency (Hz) and
// JointDamping (ratio) shape the joint springs.
type WorldConfig struct {
	Gravity        mgl64.Vec3
	GroundY        float64
	LinearDrag     float64
	AngularDrag    float64
	JointFrequency float64
	JointDamping   float64
}

func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Gravity:        mgl64.Vec3{0, -9.81, 0},
		GroundY:        0,
		LinearDrag:     0,
		AngularDrag:    0.05,
		JointFrequency: 6,
		JointDamping:   1,
	}
}

type body struct {
	state      BodyState
	kinematic  bool
	useGravity bool
	colliders  []ColliderID
	force      mgl64.Vec3
	torque     mgl64.Vec3
}

type collider struct {
	body   BodyID
	offset mgl64.Vec3
	radius float64
}

// World is the reference implementation of [Backend].
type World struct {
	cfg        WorldConfig
	integrator dynamo.Integrator
	bodies     []*body
	colliders  []collider
	joints     map[JointID]*joint
	nextJoint  JointID
	triggers   []*trigger
	onBreak    []func(JointID)
	tick       uint64
	err        error
}

func NewWorld(cfg WorldConfig, integrator dynamo.Integrator) *World {
	return &World{
		cfg:        cfg,
		integrator: integrator,
		joints:     make(map[JointID]*joint),
	}
}

func (w *World) Tick() uint64 { return w.tick }

// Err returns the first integration failure. The failing body keeps its
// previous linear state.
func (w *World) Err() error { return w.err }

func (w *World) AddBody(def BodyDef) BodyID {
	id := BodyID(len(w.bodies))
	rot := def.Pose.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	inertiaRot := def.InertiaRotation
	if inertiaRot.Len() == 0 {
		inertiaRot = mgl64.QuatIdent()
	}

	b := &body{
		kinematic:  def.Mass <= 0,
		useGravity: def.UseGravity,
		state: BodyState{
			Position:        def.Pose.Position,
			Rotation:        rot.Normalize(),
			Mass:            def.Mass,
			InertiaTensor:   def.Inertia,
			InertiaRotation: inertiaRot.Normalize(),
			Category:        def.Category,
		},
	}

	maxRadius := 0.0
	for _, c := range def.Colliders {
		cid := ColliderID(len(w.colliders))
		w.colliders = append(w.colliders, collider{body: id, offset: c.Offset, radius: c.Radius})
		b.colliders = append(b.colliders, cid)
		maxRadius = math.Max(maxRadius, c.Radius+c.Offset.Len())
	}
	if b.state.InertiaTensor == (mgl64.Vec3{}) && !b.kinematic {
		// solid sphere: 2/5 m r^2
		i := 0.4 * def.Mass * maxRadius * maxRadius
		if i == 0 {
			i = def.Mass * 1e-3
		}
		b.state.InertiaTensor = mgl64.Vec3{i, i, i}
	}

	w.bodies = append(w.bodies, b)
	return id
}

func (w *World) get(id BodyID) *body {
	if id < 0 || int(id) >= len(w.bodies) {
		return nil
	}
	return w.bodies[id]
}

func (w *World) Body(id BodyID) (BodyState, bool) {
	b := w.get(id)
	if b == nil {
		return BodyState{}, false
	}
	return b.state, true
}

// SetPose places a body directly. Intended for scene setup and kinematic
// bodies, not for driving dynamic ones.
func (w *World) SetPose(id BodyID, pose spatial.Pose) {
	if b := w.get(id); b != nil {
		b.state.Position = pose.Position
		b.state.Rotation = pose.Rotation.Normalize()
	}
}

func (w *World) Translate(id BodyID, offset mgl64.Vec3) {
	if b := w.get(id); b != nil {
		b.state.Position = b.state.Position.Add(offset)
	}
}

func (w *World) SetCategory(id BodyID, c Category) {
	if b := w.get(id); b != nil {
		b.state.Category = c
	}
}

func (w *World) AddForce(id BodyID, force mgl64.Vec3, mode ForceMode) {
	b := w.get(id)
	if b == nil || b.kinematic {
		return
	}
	switch mode {
	case ForceModeForce:
		b.force = b.force.Add(force)
	case ForceModeImpulse:
		b.state.Velocity = b.state.Velocity.Add(force.Mul(1 / b.state.Mass))
	case ForceModeVelocityChange:
		b.state.Velocity = b.state.Velocity.Add(force)
	}
}

func (w *World) AddTorque(id BodyID, torque mgl64.Vec3, mode ForceMode) {
	b := w.get(id)
	if b == nil || b.kinematic {
		return
	}
	switch mode {
	case ForceModeForce:
		b.torque = b.torque.Add(torque)
	case ForceModeImpulse:
		b.state.AngularVelocity = b.state.AngularVelocity.Add(b.applyInvInertia(torque))
	case ForceModeVelocityChange:
		b.state.AngularVelocity = b.state.AngularVelocity.Add(torque)
	}
}

// applyInvInertia maps a world-space torque or angular impulse through the
// inverse inertia tensor expressed in world space.
func (b *body) applyInvInertia(v mgl64.Vec3) mgl64.Vec3 {
	q := b.state.Rotation.Mul(b.state.InertiaRotation)
	local := q.Inverse().Rotate(v)
	I := b.state.InertiaTensor
	for i := 0; i < 3; i++ {
		if I[i] > 0 {
			local[i] /= I[i]
		} else {
			local[i] = 0
		}
	}
	return q.Rotate(local)
}

// linearMotion is dX/dt for [position, velocity] under constant acceleration.
type linearMotion struct {
	acc mgl64.Vec3
}

func (m linearMotion) Derive(x dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	return dynamo.State{x[3], x[4], x[5], m.acc[0], m.acc[1], m.acc[2]}
}

func (linearMotion) StateDim() int   { return 6 }
func (linearMotion) ControlDim() int { return 0 }

// Step advances the world by dt: joint springs, gravity and drag,
// integration, ground contact, trigger events, then break callbacks.
func (w *World) Step(dt float64) {
	broken := w.solveJoints()

	t := float64(w.tick) * dt
	for i, b := range w.bodies {
		if b.kinematic {
			b.force, b.torque = mgl64.Vec3{}, mgl64.Vec3{}
			continue
		}
		acc := b.force.Mul(1 / b.state.Mass)
		if b.useGravity {
			acc = acc.Add(w.cfg.Gravity)
		}
		acc = acc.Sub(b.state.Velocity.Mul(w.cfg.LinearDrag))

		p, v := b.state.Position, b.state.Velocity
		x := w.integrator.Step(linearMotion{acc: acc}, dynamo.State{p[0], p[1], p[2], v[0], v[1], v[2]}, nil, t, dt)
		if x.IsValid() {
			b.state.Position = mgl64.Vec3{x[0], x[1], x[2]}
			b.state.Velocity = mgl64.Vec3{x[3], x[4], x[5]}
		} else if w.err == nil {
			w.err = &dynamo.StepError{Tick: w.tick, Body: i, State: x, Wrapped: dynamo.ErrInvalidState}
		}

		omega := b.state.AngularVelocity.Add(b.applyInvInertia(b.torque).Mul(dt))
		omega = omega.Mul(1 / (1 + w.cfg.AngularDrag*dt))
		b.state.AngularVelocity = omega
		dq := mgl64.Quat{W: 0, V: omega.Mul(0.5 * dt)}.Mul(b.state.Rotation)
		b.state.Rotation = b.state.Rotation.Add(dq).Normalize()

		w.resolveGround(b)
		b.force, b.torque = mgl64.Vec3{}, mgl64.Vec3{}
	}

	w.tick++
	w.updateTriggers()

	for _, id := range broken {
		for _, fn := range w.onBreak {
			fn(id)
		}
	}
}

func (w *World) resolveGround(b *body) {
	if math.IsNaN(w.cfg.GroundY) {
		return
	}
	for _, cid := range b.colliders {
		c := w.colliders[cid]
		center := b.state.Position.Add(b.state.Rotation.Rotate(c.offset))
		depth := w.cfg.GroundY - (center[1] - c.radius)
		if depth > 0 {
			b.state.Position[1] += depth
			if b.state.Velocity[1] < 0 {
				b.state.Velocity[1] = 0
			}
		}
	}
}

func (w *World) colliderCenter(c collider) mgl64.Vec3 {
	s := w.bodies[c.body].state
	return s.Position.Add(s.Rotation.Rotate(c.offset))
}
