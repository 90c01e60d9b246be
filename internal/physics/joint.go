package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/spatial"
)

// joint is a compliant fixed joint: a linear and an angular spring pulling
// b toward the pose it had relative to a when the joint was created.
type joint struct {
	a, b        BodyID
	localPos    mgl64.Vec3
	localRot    mgl64.Quat
	breakForce  float64
	breakTorque float64
	lastForce   float64
	lastTorque  float64
}

func (w *World) CreateJoint(a, b BodyID, breakForce, breakTorque float64) JointID {
	ba, bb := w.get(a), w.get(b)
	if ba == nil || bb == nil {
		return NoJoint
	}
	inv := ba.state.Rotation.Inverse()
	j := &joint{
		a:           a,
		b:           b,
		localPos:    inv.Rotate(bb.state.Position.Sub(ba.state.Position)),
		localRot:    inv.Mul(bb.state.Rotation).Normalize(),
		breakForce:  breakForce,
		breakTorque: breakTorque,
	}
	id := w.nextJoint
	w.nextJoint++
	w.joints[id] = j
	return id
}

func (w *World) SetJointBreak(id JointID, breakForce, breakTorque float64) {
	if j, ok := w.joints[id]; ok {
		j.breakForce = breakForce
		j.breakTorque = breakTorque
	}
}

func (w *World) DestroyJoint(id JointID) {
	delete(w.joints, id)
}

func (w *World) OnJointBreak(fn func(JointID)) {
	w.onBreak = append(w.onBreak, fn)
}

// JointLoad returns the force and torque magnitudes a joint carried on the
// last step.
func (w *World) JointLoad(id JointID) (force, torque float64, ok bool) {
	j, ok := w.joints[id]
	if !ok {
		return 0, 0, false
	}
	return j.lastForce, j.lastTorque, true
}

func (w *World) HasJoint(id JointID) bool {
	_, ok := w.joints[id]
	return ok
}

func reduced(a, b float64, aFixed, bFixed bool) float64 {
	switch {
	case aFixed && bFixed:
		return 0
	case aFixed:
		return b
	case bFixed:
		return a
	default:
		return a * b / (a + b)
	}
}

func meanComponent(v mgl64.Vec3) float64 {
	return (v[0] + v[1] + v[2]) / 3
}

// solveJoints accumulates spring forces for every joint and returns the ids
// of joints that exceeded their thresholds, in id order. Broken joints are
// removed before returning.
func (w *World) solveJoints() []JointID {
	var broken []JointID
	for id := JointID(0); id < w.nextJoint; id++ {
		j, ok := w.joints[id]
		if !ok {
			continue
		}
		ba, bb := w.bodies[j.a], w.bodies[j.b]
		sa, sb := ba.state, bb.state

		omega := 2 * math.Pi * w.cfg.JointFrequency
		zeta := w.cfg.JointDamping

		m := reduced(sa.Mass, sb.Mass, ba.kinematic, bb.kinematic)
		target := sa.Position.Add(sa.Rotation.Rotate(j.localPos))
		stretch := target.Sub(sb.Position)
		relVel := sa.Velocity.Sub(sb.Velocity)
		force := stretch.Mul(m * omega * omega).Add(relVel.Mul(2 * m * zeta * omega))

		inertia := reduced(meanComponent(sa.InertiaTensor), meanComponent(sb.InertiaTensor), ba.kinematic, bb.kinematic)
		angle, axis := spatial.AngleAxis(spatial.Relative(sb.Rotation, sa.Rotation.Mul(j.localRot)))
		relAng := sa.AngularVelocity.Sub(sb.AngularVelocity)
		torque := axis.Mul(angle * inertia * omega * omega).Add(relAng.Mul(2 * inertia * zeta * omega))

		j.lastForce = force.Len()
		j.lastTorque = torque.Len()
		if j.lastForce > j.breakForce || j.lastTorque > j.breakTorque {
			delete(w.joints, id)
			broken = append(broken, id)
			continue
		}

		w.AddForce(j.b, force, ForceModeForce)
		w.AddForce(j.a, force.Mul(-1), ForceModeForce)
		w.AddTorque(j.b, torque, ForceModeForce)
		w.AddTorque(j.a, torque.Mul(-1), ForceModeForce)
	}
	return broken
}
