// Package spatial holds the pose type and the quaternion helpers the hand
// controller relies on: shortest-arc correction, capped rotate-towards and
// angle-axis decomposition.
package spatial

import "github.com/go-gl/mathgl/mgl64"

// Forward is the local axis a palm faces along.
var Forward = mgl64.Vec3{0, 0, 1}

// Pose is a rigid transform: rotation followed by translation.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

func Identity() Pose {
	return Pose{Rotation: mgl64.QuatIdent()}
}

func NewPose(position mgl64.Vec3, rotation mgl64.Quat) Pose {
	return Pose{Position: position, Rotation: rotation.Normalize()}
}

// Transform maps a point from the pose's local frame to its parent frame.
func (p Pose) Transform(local mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.Rotation.Rotate(local))
}

// Compose returns p * child, the child pose expressed in p's parent frame.
func (p Pose) Compose(child Pose) Pose {
	return Pose{
		Position: p.Transform(child.Position),
		Rotation: p.Rotation.Mul(child.Rotation).Normalize(),
	}
}

// Forward returns the pose's local +Z axis in the parent frame.
func (p Pose) Forward() mgl64.Vec3 {
	return p.Rotation.Rotate(Forward)
}
