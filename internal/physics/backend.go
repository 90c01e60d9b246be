package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type BodyID int

type ColliderID int

type JointID int

type TriggerID int

const (
	// NoBody marks an absent body reference.
	NoBody BodyID = -1
	// NoJoint is returned when a joint cannot be created.
	NoJoint JointID = -1
)

// Category is a collision category bitmask. Masks are unions of categories.
type Category uint32

// Matches reports whether c shares a bit with mask.
func (c Category) Matches(mask Category) bool {
	return c&mask != 0
}

// Unbreakable is the break threshold of a joint that must not fail.
var Unbreakable = math.Inf(1)

type ForceMode int

const (
	// ForceModeForce accumulates and applies over the next step, scaled by dt and mass.
	ForceModeForce ForceMode = iota
	// ForceModeImpulse changes momentum immediately.
	ForceModeImpulse
	// ForceModeVelocityChange changes velocity immediately, ignoring mass.
	ForceModeVelocityChange
)

func (m ForceMode) String() string {
	switch m {
	case ForceModeForce:
		return "force"
	case ForceModeImpulse:
		return "impulse"
	case ForceModeVelocityChange:
		return "velocity_change"
	default:
		return "unknown"
	}
}

// BodyState is a snapshot of a rigid body. InertiaTensor holds the principal
// moments; InertiaRotation orients the principal axes in the body frame.
type BodyState struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Mass            float64
	InertiaTensor   mgl64.Vec3
	InertiaRotation mgl64.Quat
	Category        Category
}

// Hit is a cast or overlap result.
type Hit struct {
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
	Body     BodyID
	Collider ColliderID
}

type Dynamics interface {
	Body(id BodyID) (BodyState, bool)
	AddForce(id BodyID, force mgl64.Vec3, mode ForceMode)
	AddTorque(id BodyID, torque mgl64.Vec3, mode ForceMode)
	// Translate moves a body by offset without touching its velocity.
	Translate(id BodyID, offset mgl64.Vec3)
	SetCategory(id BodyID, c Category)
}

type Query interface {
	// SphereCastAll sweeps a sphere and returns every hit ordered by distance.
	SphereCastAll(origin, direction mgl64.Vec3, radius, maxDistance float64, mask Category) []Hit
	Raycast(origin, direction mgl64.Vec3, maxDistance float64, mask Category) (Hit, bool)
	CheckSphere(center mgl64.Vec3, radius float64, mask Category) bool
}

type Joints interface {
	CreateJoint(a, b BodyID, breakForce, breakTorque float64) JointID
	SetJointBreak(id JointID, breakForce, breakTorque float64)
	// DestroyJoint removes a joint. Unknown or already broken ids are ignored.
	DestroyJoint(id JointID)
	// OnJointBreak registers a callback fired after a joint exceeds its thresholds.
	OnJointBreak(fn func(JointID))
}

type Backend interface {
	Dynamics
	Query
	Joints
}
