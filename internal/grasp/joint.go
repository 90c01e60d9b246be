package grasp

import (
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/sched"
)

type JointStage int

const (
	JointPending JointStage = iota
	JointSettling
	JointArmed
	JointBroken
	JointFailed
	JointDestroyed
)

func (s JointStage) String() string {
	switch s {
	case JointPending:
		return "pending"
	case JointSettling:
		return "settling"
	case JointArmed:
		return "armed"
	case JointBroken:
		return "broken"
	case JointFailed:
		return "failed"
	case JointDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// JointProxy owns the breakable joint between a hand and its held body. On
// its first resume it creates the joint unbreakable; settling ticks later it
// arms the operating thresholds. It implements sched.Sequence.
type JointProxy struct {
	joints      physics.Joints
	hand, held  physics.BodyID
	breakForce  float64
	breakTorque float64
	settling    int

	id      physics.JointID
	stage   JointStage
	created uint64
	notify  func(JointStage, uint64)
}

func NewJointProxy(joints physics.Joints, hand, held physics.BodyID, breakForce, breakTorque float64, settlingTicks int) *JointProxy {
	return &JointProxy{
		joints:      joints,
		hand:        hand,
		held:        held,
		breakForce:  breakForce,
		breakTorque: breakTorque,
		settling:    settlingTicks,
		id:          physics.NoJoint,
	}
}

func (p *JointProxy) ID() physics.JointID { return p.id }
func (p *JointProxy) Stage() JointStage   { return p.stage }

// CreatedAt is the tick the joint was created on.
func (p *JointProxy) CreatedAt() uint64 { return p.created }

// Exists reports whether the backend currently holds the joint.
func (p *JointProxy) Exists() bool {
	return p.stage == JointSettling || p.stage == JointArmed
}

// OnStage registers fn to be called with every stage the proxy enters.
func (p *JointProxy) OnStage(fn func(JointStage, uint64)) { p.notify = fn }

func (p *JointProxy) enter(s JointStage, tick uint64) {
	p.stage = s
	if p.notify != nil {
		p.notify(s, tick)
	}
}

func (p *JointProxy) Resume(tick uint64) sched.Wait {
	switch p.stage {
	case JointPending:
		p.id = p.joints.CreateJoint(p.hand, p.held, physics.Unbreakable, physics.Unbreakable)
		if p.id == physics.NoJoint {
			p.enter(JointFailed, tick)
			return sched.Done()
		}
		p.created = tick
		p.enter(JointSettling, tick)
		return sched.After(p.settling)
	case JointSettling:
		p.joints.SetJointBreak(p.id, p.breakForce, p.breakTorque)
		p.enter(JointArmed, tick)
	}
	return sched.Done()
}

// Broke records that the backend already removed the joint.
func (p *JointProxy) Broke(tick uint64) {
	if p.Exists() {
		p.enter(JointBroken, tick)
	}
}

// Destroy removes the joint if it exists and has not broken.
func (p *JointProxy) Destroy(tick uint64) bool {
	if !p.Exists() {
		return false
	}
	p.joints.DestroyJoint(p.id)
	p.enter(JointDestroyed, tick)
	return true
}
